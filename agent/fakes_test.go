package agent

import (
	"github.com/google/uuid"
	"github.com/milk9111/lurker/common"
	"github.com/milk9111/lurker/ecs"
	"github.com/milk9111/lurker/ecs/component"
	"github.com/milk9111/lurker/noise"
)

// fakeNav teleports on demand. Arrival is decided by the test moving pos.
type fakeNav struct {
	pos     common.Vec3
	dest    common.Vec3
	hasDest bool
	speed   float64
	pending bool
	resets  int
	dests   []common.Vec3
}

func (n *fakeNav) SetDestination(p common.Vec3) {
	n.dest = p
	n.hasDest = true
	n.dests = append(n.dests, p)
}
func (n *fakeNav) ResetPath() {
	n.hasDest = false
	n.resets++
}
func (n *fakeNav) RemainingDistance() float64 {
	if !n.hasDest {
		return 0
	}
	return common.Dist(n.pos, n.dest)
}
func (n *fakeNav) PathPending() bool      { return n.pending }
func (n *fakeNav) Position() common.Vec3  { return n.pos }
func (n *fakeNav) SetSpeed(speed float64) { n.speed = speed }
func (n *fakeNav) arrive()                { n.pos = n.dest }

type recordAnim struct {
	locos   []component.Locomotion
	attacks int
	cues    []string
}

func (r *recordAnim) SetLocomotion(l component.Locomotion) { r.locos = append(r.locos, l) }
func (r *recordAnim) TriggerAttack()                       { r.attacks++ }
func (r *recordAnim) Cue(name string)                      { r.cues = append(r.cues, name) }

func (r *recordAnim) last() component.Locomotion {
	if len(r.locos) == 0 {
		return component.Locomotion{}
	}
	return r.locos[len(r.locos)-1]
}

type notification struct {
	id   uuid.UUID
	room string
}

type recordOwner struct {
	calls []notification
}

func (o *recordOwner) NotifySecondaryDespawned(id uuid.UUID, room string) {
	o.calls = append(o.calls, notification{id: id, room: room})
}

type rig struct {
	world *ecs.World
	cfg   *component.DetectionConfig
	nav   *fakeNav
	anim  *recordAnim
	eval  *noise.Evaluator
}

func newRig(start common.Vec3) *rig {
	w := ecs.NewWorld()
	cfg := component.DefaultDetectionConfig()
	return &rig{
		world: w,
		cfg:   &cfg,
		nav:   &fakeNav{pos: start},
		anim:  &recordAnim{},
		eval:  noise.NewEvaluator(noise.NewField(w)),
	}
}

func (r *rig) params(kind Kind) Params {
	return Params{
		Kind:      kind,
		Detection: r.cfg,
		Tuning:    component.DefaultAgentTuning(),
		Nav:       r.nav,
		Anim:      r.anim,
		Evaluator: r.eval,
	}
}
