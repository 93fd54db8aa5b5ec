package audio

import (
	"math"
	"sync"
)

// MockDevice is a synthetic capture device for tests and headless runs.
// It produces silence unless configured with a waveform or fed samples.
type MockDevice struct {
	mu         sync.Mutex
	ring       *Ring
	sampleRate int
	frequency  float64 // Hz, 0 = no generator
	amplitude  float64
	constant   float64
	phase      float64
	openErr    error

	opened bool
	closes int
}

// MockOption configures a MockDevice.
type MockOption func(*MockDevice)

// WithSineWave generates a sine wave on every read.
func WithSineWave(frequency, amplitude float64) MockOption {
	return func(m *MockDevice) {
		m.frequency = frequency
		m.amplitude = amplitude
	}
}

// WithConstant generates a flat signal, which has RMS equal to |level|.
func WithConstant(level float64) MockOption {
	return func(m *MockDevice) {
		m.constant = level
	}
}

// WithOpenError makes Open fail with err.
func WithOpenError(err error) MockOption {
	return func(m *MockDevice) {
		m.openErr = err
	}
}

func WithSampleRate(rate int) MockOption {
	return func(m *MockDevice) {
		m.sampleRate = rate
	}
}

func NewMockDevice(window int, opts ...MockOption) *MockDevice {
	m := &MockDevice{
		ring:       NewRing(window),
		sampleRate: 16000,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *MockDevice) Name() string { return "mock" }

func (m *MockDevice) Open() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.openErr != nil {
		return m.openErr
	}
	m.opened = true
	return nil
}

func (m *MockDevice) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opened = false
	m.closes++
	m.ring.Reset()
	return nil
}

// Feed pushes raw samples, as a capture callback would.
func (m *MockDevice) Feed(samples []float32) {
	m.ring.Write(samples)
}

func (m *MockDevice) Samples(dst []float32) int {
	m.mu.Lock()
	if !m.opened {
		m.mu.Unlock()
		return 0
	}
	if m.frequency > 0 || m.constant != 0 {
		m.ring.Write(m.generate(len(dst)))
	}
	m.mu.Unlock()
	return m.ring.Snapshot(dst)
}

func (m *MockDevice) generate(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		v := m.constant
		if m.frequency > 0 {
			v += m.amplitude * math.Sin(2*math.Pi*m.frequency*m.phase/float64(m.sampleRate))
			m.phase++
			if m.phase >= float64(m.sampleRate) {
				m.phase = 0
			}
		}
		out[i] = float32(v)
	}
	return out
}

func (m *MockDevice) Opened() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opened
}

// Closes counts Close calls.
func (m *MockDevice) Closes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}
