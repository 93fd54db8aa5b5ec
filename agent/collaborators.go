package agent

import (
	"github.com/google/uuid"
	"github.com/milk9111/lurker/common"
	"github.com/milk9111/lurker/ecs/component"
)

// Navigator moves an agent through the world. Pathfinding is its business;
// the agent only asks for destinations and watches the remaining distance.
type Navigator interface {
	SetDestination(p common.Vec3)
	ResetPath()
	RemainingDistance() float64
	PathPending() bool
	Position() common.Vec3
	SetSpeed(speed float64)
}

// Animator receives the locomotion signal on every state entry and the
// attack trigger.
type Animator interface {
	SetLocomotion(l component.Locomotion)
	TriggerAttack()
}

// CueSink is optionally implemented by an Animator to receive named cues
// from state-entry scripts.
type CueSink interface {
	Cue(name string)
}

// Owner is told when a secondary agent leaves the simulation.
type Owner interface {
	NotifySecondaryDespawned(id uuid.UUID, room string)
}

type nopAnimator struct{}

func (nopAnimator) SetLocomotion(component.Locomotion) {}
func (nopAnimator) TriggerAttack()                     {}
