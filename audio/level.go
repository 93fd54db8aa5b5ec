package audio

import "math"

// RMS is the root-mean-square of samples, 0 for an empty window.
func RMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		v := float64(s)
		sum += v * v
	}
	return math.Sqrt(sum / float64(len(samples)))
}

// Loudness combines microphone level and ambient loudness. A nil handle
// contributes nothing.
func Loudness(h *Handle, ambient float64) float64 {
	return math.Max(h.Volume(), ambient)
}
