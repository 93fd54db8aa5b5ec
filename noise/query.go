package noise

import (
	"math"

	"github.com/milk9111/lurker/common"
	"github.com/milk9111/lurker/ecs"
	"github.com/milk9111/lurker/ecs/component"
)

// Query is the read-only view of the world that hearing needs. *ecs.World
// satisfies it.
type Query interface {
	ForEachSource(fn func(e ecs.Entity, s *component.NoiseSource))
	ForEachPlayer(fn func(e ecs.Entity, p *component.Player))
	IsLivePlayer(e ecs.Entity) bool
	IsActiveSource(e ecs.Entity) bool
	PlayerPosition(e ecs.Entity) (common.Vec3, bool)
}

var _ Query = (*ecs.World)(nil)

// Scope limits where an agent can hear.
type Scope interface {
	Contains(p common.Vec3) bool
}

// ScopeFunc adapts a predicate to Scope.
type ScopeFunc func(p common.Vec3) bool

func (f ScopeFunc) Contains(p common.Vec3) bool { return f(p) }

type unrestricted struct{}

func (unrestricted) Contains(common.Vec3) bool { return true }

// Unrestricted hears everywhere.
var Unrestricted Scope = unrestricted{}

// InRange reports whether dist is within rangeLimit. A non-positive or
// infinite limit is unbounded.
func InRange(dist, rangeLimit float64) bool {
	if rangeLimit <= 0 || math.IsInf(rangeLimit, 1) {
		return true
	}
	return dist <= rangeLimit
}

func inScope(scope Scope, p common.Vec3) bool {
	return scope == nil || scope.Contains(p)
}
