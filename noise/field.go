package noise

import (
	"github.com/milk9111/lurker/common"
	"github.com/milk9111/lurker/ecs"
	"github.com/milk9111/lurker/ecs/component"
)

// Field collects what a listener at some position can hear.
type Field struct {
	q Query
}

func NewField(q Query) *Field {
	return &Field{q: q}
}

// Ambient returns every active source in range and scope, scored by
// intensity over distance, in world order.
func (f *Field) Ambient(origin common.Vec3, rangeLimit float64, scope Scope) []Target {
	if f == nil || f.q == nil {
		return nil
	}
	var out []Target
	f.q.ForEachSource(func(e ecs.Entity, s *component.NoiseSource) {
		if !s.Active {
			return
		}
		d := common.Dist(origin, s.Position)
		if !InRange(d, rangeLimit) || !inScope(scope, s.Position) {
			return
		}
		out = append(out, Target{
			Kind:     KindAmbient,
			Entity:   e,
			Position: s.Position,
			Score:    Score(s.Intensity, d),
		})
	})
	return out
}

// Players returns every live player in range and scope. Players carry no
// loudness of their own; they are scored with the listener's loudness.
func (f *Field) Players(origin common.Vec3, rangeLimit float64, scope Scope, loudness float64) []Target {
	if f == nil || f.q == nil {
		return nil
	}
	var out []Target
	f.q.ForEachPlayer(func(e ecs.Entity, p *component.Player) {
		if !p.Alive {
			return
		}
		d := common.Dist(origin, p.Position)
		if !InRange(d, rangeLimit) || !inScope(scope, p.Position) {
			return
		}
		out = append(out, Target{
			Kind:     KindPlayer,
			Entity:   e,
			Position: p.Position,
			Score:    Score(loudness, d),
		})
	})
	return out
}

// AmbientLoudness sums the intensity of active sources in range and scope.
func (f *Field) AmbientLoudness(origin common.Vec3, rangeLimit float64, scope Scope) float64 {
	if f == nil || f.q == nil {
		return 0
	}
	var sum float64
	f.q.ForEachSource(func(_ ecs.Entity, s *component.NoiseSource) {
		if !s.Active {
			return
		}
		if !InRange(common.Dist(origin, s.Position), rangeLimit) || !inScope(scope, s.Position) {
			return
		}
		sum += s.Intensity
	})
	return sum
}

// StillValid reports whether t still refers to an active source or a live
// player.
func (f *Field) StillValid(t *Target) bool {
	if t == nil || f == nil || f.q == nil {
		return false
	}
	switch t.Kind {
	case KindAmbient:
		return f.q.IsActiveSource(t.Entity)
	case KindPlayer:
		return f.q.IsLivePlayer(t.Entity)
	default:
		return false
	}
}

// PlayerPosition resolves a live player's current position.
func (f *Field) PlayerPosition(e ecs.Entity) (common.Vec3, bool) {
	if f == nil || f.q == nil {
		return common.Vec3{}, false
	}
	return f.q.PlayerPosition(e)
}

func best(candidates []Target) (Target, bool) {
	if len(candidates) == 0 {
		return Target{}, false
	}
	top := candidates[0]
	for _, c := range candidates[1:] {
		if c.Score > top.Score {
			top = c
		}
	}
	return top, true
}
