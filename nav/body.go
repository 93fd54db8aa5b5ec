package nav

import (
	"math"

	"github.com/google/uuid"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/lurker/common"
)

// Body is an agent's physical presence. It steers in a straight line toward
// its destination and implements agent.Navigator.
type Body struct {
	id    uuid.UUID
	body  *cp.Body
	shape *cp.Shape
	z     float64

	dest    common.Vec3
	hasDest bool
	pending bool
	speed   float64
}

func (b *Body) ID() uuid.UUID { return b.id }

func (b *Body) SetDestination(p common.Vec3) {
	b.dest = p
	b.hasDest = true
	b.pending = true
}

func (b *Body) ResetPath() {
	b.hasDest = false
	b.pending = false
	b.body.SetVelocityVector(cp.Vector{})
}

// RemainingDistance is zero without a path.
func (b *Body) RemainingDistance() float64 {
	if !b.hasDest {
		return 0
	}
	p := b.body.Position()
	return math.Hypot(b.dest.X-p.X, b.dest.Y-p.Y)
}

// PathPending is true from SetDestination until the next physics step.
func (b *Body) PathPending() bool { return b.pending }

func (b *Body) Position() common.Vec3 {
	p := b.body.Position()
	return common.Vec3{X: p.X, Y: p.Y, Z: b.z}
}

func (b *Body) SetSpeed(speed float64) { b.speed = math.Max(speed, 0) }

func (b *Body) Speed() float64 { return b.speed }

// Destination returns the current destination, if any.
func (b *Body) Destination() (common.Vec3, bool) { return b.dest, b.hasDest }

// steer sets the velocity for the coming step, never overshooting the
// destination.
func (b *Body) steer(dt float64) {
	if !b.hasDest || dt <= 0 {
		b.body.SetVelocityVector(cp.Vector{})
		return
	}
	p := b.body.Position()
	d := cp.Vector{X: b.dest.X - p.X, Y: b.dest.Y - p.Y}
	dist := d.Length()
	if dist < 1e-9 {
		b.body.SetVelocityVector(cp.Vector{})
		return
	}
	v := math.Min(b.speed, dist/dt)
	b.body.SetVelocityVector(d.Mult(v / dist))
}
