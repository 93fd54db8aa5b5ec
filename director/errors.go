package director

import "errors"

var (
	// ErrConfigurationMissing marks a room that cannot host agents because
	// it has no waypoints.
	ErrConfigurationMissing = errors.New("director: room has no waypoints")

	// ErrInvalidSpawnRequest is returned when spawning into an occupied or
	// cooling room. Nothing changes.
	ErrInvalidSpawnRequest = errors.New("director: room is occupied or cooling down")

	ErrUnknownRoom     = errors.New("director: unknown room")
	ErrDuplicateRoom   = errors.New("director: duplicate room name")
	ErrMissingEmbodier = errors.New("director: embodier required")
	ErrMissingQuery    = errors.New("director: world query required")
)
