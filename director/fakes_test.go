package director

import (
	"errors"

	"github.com/google/uuid"
	"github.com/milk9111/lurker/agent"
	"github.com/milk9111/lurker/common"
	"github.com/milk9111/lurker/ecs/component"
)

type stubNav struct {
	pos  common.Vec3
	dest common.Vec3
}

func (n *stubNav) SetDestination(p common.Vec3) { n.dest = p }
func (n *stubNav) ResetPath()                   { n.dest = n.pos }
func (n *stubNav) RemainingDistance() float64   { return common.Dist(n.pos, n.dest) }
func (n *stubNav) PathPending() bool            { return false }
func (n *stubNav) Position() common.Vec3        { return n.pos }
func (n *stubNav) SetSpeed(float64)             {}

type stubAnim struct{}

func (stubAnim) SetLocomotion(component.Locomotion) {}
func (stubAnim) TriggerAttack()                     {}

type stubEmbodier struct {
	bodies   map[uuid.UUID]*stubNav
	released []uuid.UUID
	fail     bool
}

func newStubEmbodier() *stubEmbodier {
	return &stubEmbodier{bodies: make(map[uuid.UUID]*stubNav)}
}

func (e *stubEmbodier) Embody(id uuid.UUID, at common.Vec3) (agent.Navigator, agent.Animator, error) {
	if e.fail {
		return nil, nil, errors.New("no body")
	}
	n := &stubNav{pos: at, dest: at}
	e.bodies[id] = n
	return n, stubAnim{}, nil
}

func (e *stubEmbodier) Release(id uuid.UUID) {
	delete(e.bodies, id)
	e.released = append(e.released, id)
}

type stubPrimary struct {
	pos    common.Vec3
	volume float64
}

func (p *stubPrimary) Position() common.Vec3  { return p.pos }
func (p *stubPrimary) CurrentVolume() float64 { return p.volume }
