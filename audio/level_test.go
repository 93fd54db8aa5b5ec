package audio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRMS(t *testing.T) {
	assert.Zero(t, RMS(nil))
	assert.InDelta(t, 0.5, RMS([]float32{0.5, -0.5, 0.5, -0.5}), 1e-9)
	assert.InDelta(t, math.Sqrt(0.5), RMS([]float32{1, 0}), 1e-9)
}

func TestRingKeepsMostRecent(t *testing.T) {
	r := NewRing(4)
	r.Write([]float32{1, 2, 3})

	dst := make([]float32, 4)
	n := r.Snapshot(dst)
	assert.Equal(t, 3, n)
	assert.Equal(t, []float32{1, 2, 3}, dst[:n])

	r.Write([]float32{4, 5, 6})
	n = r.Snapshot(dst)
	assert.Equal(t, 4, n)
	assert.Equal(t, []float32{3, 4, 5, 6}, dst)

	small := make([]float32, 2)
	assert.Equal(t, 2, r.Snapshot(small))
	assert.Equal(t, []float32{5, 6}, small)
}

func TestMockDeviceFeedAndSilenceWhenClosed(t *testing.T) {
	d := NewMockDevice(8)
	dst := make([]float32, 8)
	assert.Zero(t, d.Samples(dst))

	assert.NoError(t, d.Open())
	d.Feed([]float32{0.2, -0.2})
	n := d.Samples(dst)
	assert.InDelta(t, 0.2, RMS(dst[:n]), 1e-6)

	assert.NoError(t, d.Close())
	assert.Zero(t, d.Samples(dst))
}

func TestOpusDevicePushWhenClosed(t *testing.T) {
	d := NewOpusDevice(DefaultWindow)
	assert.ErrorIs(t, d.Push([]byte{0xf8, 0xff, 0xfe}), ErrDeviceClosed)
}

func TestLoudnessTakesMax(t *testing.T) {
	dev := NewMockDevice(DefaultWindow, WithConstant(0.3))
	calls := 0
	m := NewManager(mockOpener(dev, &calls), DefaultWindow)
	h, err := m.Acquire([16]byte{1})
	assert.NoError(t, err)

	assert.InDelta(t, 0.3, Loudness(h, 0.1), 1e-6)
	assert.InDelta(t, 2.0, Loudness(h, 2.0), 1e-6)
}
