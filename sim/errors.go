package sim

import "errors"

var (
	ErrUnknownPlayer = errors.New("unknown player")
	ErrUnknownSource = errors.New("unknown noise source")
	ErrPlayerDead    = errors.New("player is dead")
	ErrNotATrap      = errors.New("noise source is not a trap")
	ErrClosed        = errors.New("simulation closed")
)
