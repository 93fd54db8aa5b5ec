package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDist(t *testing.T) {
	cases := []struct {
		name string
		a, b Vec3
		want float64
	}{
		{"same", V3(1, 2, 3), V3(1, 2, 3), 0},
		{"axis", V3(0, 0, 0), V3(0, 0, 10), 10},
		{"pythagoras", V3(0, 0, 0), V3(3, 0, 4), 5},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.InDelta(t, c.want, Dist(c.a, c.b), 1e-9)
		})
	}
}

func TestClampLerp(t *testing.T) {
	assert.Equal(t, 0.1, Clamp(0, 0.1, 10))
	assert.Equal(t, 10.0, Clamp(50, 0.1, 10))
	assert.Equal(t, 3.0, Clamp(3, 0.1, 10))
	assert.Equal(t, 5.0, Lerp(0, 10, 0.5))
}
