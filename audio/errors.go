package audio

import "errors"

var (
	// ErrResourceUnavailable is returned when no capture device could be
	// opened. Callers fall back to ambient-only loudness.
	ErrResourceUnavailable = errors.New("audio: capture device unavailable")

	// ErrUnknownBackend is returned by NewOpener for an unrecognised
	// backend name.
	ErrUnknownBackend = errors.New("audio: unknown backend")

	// ErrDeviceClosed is returned when pushing into a closed device.
	ErrDeviceClosed = errors.New("audio: device closed")

	// ErrNotPacketSink is returned when pushing packets into a device that
	// only captures locally.
	ErrNotPacketSink = errors.New("audio: device does not accept packets")
)
