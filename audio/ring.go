package audio

import "sync"

// Ring keeps the most recent N samples.
type Ring struct {
	mu   sync.Mutex
	buf  []float32
	pos  int
	full bool
}

func NewRing(n int) *Ring {
	if n <= 0 {
		n = DefaultWindow
	}
	return &Ring{buf: make([]float32, n)}
}

// Write appends samples, overwriting the oldest once full.
func (r *Ring) Write(samples []float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range samples {
		r.buf[r.pos] = s
		r.pos++
		if r.pos == len(r.buf) {
			r.pos = 0
			r.full = true
		}
	}
}

// Snapshot copies up to len(dst) of the most recent samples, oldest first,
// and returns how many were copied.
func (r *Ring) Snapshot(dst []float32) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	size := r.pos
	if r.full {
		size = len(r.buf)
	}
	n := min(len(dst), size)
	start := r.pos - n
	if start < 0 {
		start += len(r.buf)
	}
	for i := 0; i < n; i++ {
		dst[i] = r.buf[(start+i)%len(r.buf)]
	}
	return n
}

func (r *Ring) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.buf)
	r.pos = 0
	r.full = false
}

func (r *Ring) Cap() int {
	return len(r.buf)
}
