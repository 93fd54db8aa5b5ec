package audio

import (
	"fmt"
	"sync"

	"gopkg.in/hraban/opus.v2"
)

const (
	opusSampleRate = 48000
	// 120ms at 48kHz, the largest frame Opus produces.
	opusMaxFrame = 5760
)

// OpusDevice is fed Opus voice packets (for example from a voice chat
// transport) and exposes the decoded PCM as capture samples.
type OpusDevice struct {
	mu      sync.Mutex
	decoder *opus.Decoder
	ring    *Ring
	pcm     []int16
	scratch []float32
	decoded int
	errors  int
}

func NewOpusDevice(window int) *OpusDevice {
	return &OpusDevice{
		ring: NewRing(window),
		pcm:  make([]int16, opusMaxFrame),
	}
}

func (d *OpusDevice) Name() string { return "opus" }

func (d *OpusDevice) Open() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	dec, err := opus.NewDecoder(opusSampleRate, 1)
	if err != nil {
		return fmt.Errorf("audio: opus decoder: %w", err)
	}
	d.decoder = dec
	return nil
}

func (d *OpusDevice) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.decoder = nil
	d.ring.Reset()
	return nil
}

// Push decodes one packet into the capture window.
func (d *OpusDevice) Push(packet []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.decoder == nil {
		return ErrDeviceClosed
	}
	n, err := d.decoder.Decode(packet, d.pcm)
	if err != nil {
		d.errors++
		return fmt.Errorf("audio: decode opus packet (%d bytes): %w", len(packet), err)
	}
	if cap(d.scratch) < n {
		d.scratch = make([]float32, n)
	}
	out := d.scratch[:n]
	for i, s := range d.pcm[:n] {
		out[i] = float32(s) / 32768
	}
	d.ring.Write(out)
	d.decoded += n
	return nil
}

func (d *OpusDevice) Samples(dst []float32) int {
	return d.ring.Snapshot(dst)
}

// Stats returns decoded sample and failed packet counts.
func (d *OpusDevice) Stats() (decoded, failed int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.decoded, d.errors
}
