package audio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/milk9111/lurker/internal/log"
)

// Manager shares one capture device between every agent in a process. The
// first successful acquirer owns it and only the owner's release tears it
// down; everybody else just drops their reference.
type Manager struct {
	mu          sync.Mutex
	open        Opener
	window      int
	device      Device
	owner       uuid.UUID
	initialized bool
	refs        map[uuid.UUID]struct{}
	scratch     []float32
	failures    int
	logger      *slog.Logger
}

func NewManager(open Opener, window int) *Manager {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Manager{
		open:    open,
		window:  window,
		refs:    make(map[uuid.UUID]struct{}),
		scratch: make([]float32, window),
		logger:  log.With("component", "audio"),
	}
}

// Acquire returns a handle for id, opening the device if nobody has yet.
// On failure the returned error wraps ErrResourceUnavailable and a later
// Acquire will try again.
func (m *Manager) Acquire(id uuid.UUID) (*Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		if m.open == nil {
			return nil, fmt.Errorf("audio: acquire %s: %w", id, ErrResourceUnavailable)
		}
		dev, err := m.open()
		if err != nil {
			m.openFailed("no capture device, falling back to ambient loudness", "agent", id, "err", err)
			return nil, fmt.Errorf("audio: acquire %s: %w: %v", id, ErrResourceUnavailable, err)
		}
		if err := dev.Open(); err != nil {
			m.openFailed("capture device failed to open", "device", dev.Name(), "agent", id, "err", err)
			return nil, fmt.Errorf("audio: open %s: %w: %v", dev.Name(), ErrResourceUnavailable, err)
		}
		m.device = dev
		m.owner = id
		m.initialized = true
		m.failures = 0
		m.logger.Info("capture device opened", "device", dev.Name(), "owner", id)
	}

	m.refs[id] = struct{}{}
	return &Handle{m: m, id: id}, nil
}

// openFailed warns about the first failed open in a row; repeats go to
// debug since every new agent retries.
func (m *Manager) openFailed(msg string, args ...any) {
	level := slog.LevelWarn
	if m.failures > 0 {
		level = slog.LevelDebug
	}
	m.failures++
	m.logger.Log(context.Background(), level, msg, append(args, "attempt", m.failures)...)
}

// OpenFailures counts failed opens since the device was last opened.
func (m *Manager) OpenFailures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures
}

// Release drops id's reference. Releasing the owner closes the device.
func (m *Manager) Release(id uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.refs, id)
	if !m.initialized || id != m.owner {
		return
	}

	if err := m.device.Close(); err != nil {
		m.logger.Warn("closing capture device", "device", m.device.Name(), "err", err)
	}
	m.logger.Info("capture device closed", "device", m.device.Name(), "owner", id)
	m.device = nil
	m.owner = uuid.Nil
	m.initialized = false
}

// Push hands packet to the open device. It fails with ErrDeviceClosed when
// nothing is open and ErrNotPacketSink when the device captures locally.
func (m *Manager) Push(packet []byte) error {
	m.mu.Lock()
	dev, ok := m.device, m.initialized
	m.mu.Unlock()
	if !ok || dev == nil {
		return ErrDeviceClosed
	}
	sink, ok := dev.(PacketSink)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotPacketSink, dev.Name())
	}
	return sink.Push(packet)
}

// Owner returns the current owner, uuid.Nil when no device is open.
func (m *Manager) Owner() uuid.UUID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.owner
}

func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}

func (m *Manager) Refs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.refs)
}

func (m *Manager) volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.initialized || m.device == nil {
		return 0
	}
	n := m.device.Samples(m.scratch)
	return RMS(m.scratch[:n])
}

// Handle is one agent's view of the shared device.
type Handle struct {
	m  *Manager
	id uuid.UUID
}

// Volume is the RMS of the most recent window, 0 once the device is gone.
func (h *Handle) Volume() float64 {
	if h == nil || h.m == nil {
		return 0
	}
	return h.m.volume()
}

func (h *Handle) Release() {
	if h == nil || h.m == nil {
		return
	}
	h.m.Release(h.id)
}

func (h *Handle) Owner() bool {
	return h != nil && h.m != nil && h.m.Owner() == h.id
}
