package audio

import (
	"fmt"
	"strings"
)

// Config selects and tunes a capture backend.
type Config struct {
	Backend   string  // "none", "mock" or "opus"
	Window    int     // samples per volume reading
	SineHz    float64 // mock only
	Amplitude float64 // mock only
}

// NewOpener returns an Opener for cfg.Backend. The "none" backend always
// fails with ErrResourceUnavailable so agents run on ambient loudness.
func NewOpener(cfg Config) (Opener, error) {
	window := cfg.Window
	if window <= 0 {
		window = DefaultWindow
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "none":
		return func() (Device, error) {
			return nil, ErrResourceUnavailable
		}, nil
	case "mock":
		return func() (Device, error) {
			var opts []MockOption
			if cfg.SineHz > 0 {
				opts = append(opts, WithSineWave(cfg.SineHz, cfg.Amplitude))
			}
			return NewMockDevice(window, opts...), nil
		}, nil
	case "opus":
		return func() (Device, error) {
			return NewOpusDevice(window), nil
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
}
