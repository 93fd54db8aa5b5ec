package noise

import (
	"github.com/milk9111/lurker/common"
	"github.com/milk9111/lurker/ecs"
)

// MinDistance keeps scores finite for sources on top of the listener.
const MinDistance = 0.1

type Kind int

const (
	KindAmbient Kind = iota + 1
	KindPlayer
)

func (k Kind) String() string {
	switch k {
	case KindAmbient:
		return "ambient"
	case KindPlayer:
		return "player"
	default:
		return "none"
	}
}

// Target is something an agent has heard. Position is where the noise was
// when it was last scored.
type Target struct {
	Kind     Kind        `json:"kind"`
	Entity   ecs.Entity  `json:"entity"`
	Position common.Vec3 `json:"position"`
	Score    float64     `json:"score"`
}

func (t *Target) IsAmbient() bool { return t != nil && t.Kind == KindAmbient }
func (t *Target) IsPlayer() bool  { return t != nil && t.Kind == KindPlayer }

// Same reports whether t and o refer to the same emitter.
func (t *Target) Same(o Target) bool {
	return t != nil && t.Kind == o.Kind && t.Entity == o.Entity
}

// Score is loudness over distance, with distance floored at MinDistance.
func Score(loudness, dist float64) float64 {
	return loudness / max(dist, MinDistance)
}
