package agent

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"github.com/milk9111/lurker/audio"
	"github.com/milk9111/lurker/common"
	"github.com/milk9111/lurker/ecs"
	"github.com/milk9111/lurker/ecs/component"
	"github.com/milk9111/lurker/internal/log"
	"github.com/milk9111/lurker/noise"
)

type Kind int

const (
	Primary Kind = iota
	Secondary
)

func (k Kind) String() string {
	if k == Secondary {
		return "secondary"
	}
	return "primary"
}

// Params carries the collaborators every agent needs.
type Params struct {
	Kind      Kind
	Detection *component.DetectionConfig
	Tuning    component.AgentTuning
	Nav       Navigator
	Anim      Animator
	Evaluator *noise.Evaluator
}

// Agent is a hunting enemy driven by what it hears.
//
// Secondary agents are the same machine with a room scope, a lifetime and
// an owner to notify when they leave.
type Agent struct {
	id     uuid.UUID
	kind   Kind
	cfg    *component.DetectionConfig
	tuning component.AgentTuning
	nav    Navigator
	anim   Animator
	eval   *noise.Evaluator
	scope  noise.Scope
	rng    float64
	audio  *audio.Handle
	hooks  *Hooks

	state             agentState
	waypoints         []common.Vec3
	waypointIndex     int
	target            *noise.Target
	lastNoisePosition common.Vec3
	lockdown          bool
	lockdownTarget    ecs.Entity
	volume            float64
	idleTimer         float64
	attackReturn      component.Countdown

	owner     Owner
	room      string
	mortal    bool
	lifetime  component.Countdown
	despawned bool

	logger *slog.Logger
}

// Option configures an Agent at construction.
type Option func(*Agent) error

// WithID overrides the generated identity.
func WithID(id uuid.UUID) Option {
	return func(a *Agent) error {
		a.id = id
		return nil
	}
}

// WithWaypoints sets the patrol route. The slice is copied.
func WithWaypoints(points []common.Vec3) Option {
	return func(a *Agent) error {
		a.waypoints = append([]common.Vec3(nil), points...)
		return nil
	}
}

// WithStartWaypoint picks which waypoint the first patrol leg heads to.
func WithStartWaypoint(i int) Option {
	return func(a *Agent) error {
		if len(a.waypoints) == 0 {
			return ErrNoWaypoints
		}
		a.waypointIndex = ((i % len(a.waypoints)) + len(a.waypoints)) % len(a.waypoints)
		return nil
	}
}

// WithScope restricts hearing to positions the scope contains.
func WithScope(s noise.Scope) Option {
	return func(a *Agent) error {
		if s != nil {
			a.scope = s
		}
		return nil
	}
}

// WithDetectionRange overrides the hearing range. Zero or +Inf is
// unbounded.
func WithDetectionRange(r float64) Option {
	return func(a *Agent) error {
		a.rng = r
		return nil
	}
}

// WithLifetime makes the agent despawn after seconds, notifying owner.
func WithLifetime(owner Owner, room string, seconds float64) Option {
	return func(a *Agent) error {
		a.owner = owner
		a.room = room
		a.mortal = true
		a.lifetime.Start(seconds)
		return nil
	}
}

// WithAudio attaches a shared capture handle. Nil means ambient-only.
func WithAudio(h *audio.Handle) Option {
	return func(a *Agent) error {
		a.audio = h
		return nil
	}
}

// WithHooks attaches state-entry scripts. The agent gets its own clone.
func WithHooks(h *Hooks) Option {
	return func(a *Agent) error {
		if h == nil {
			return nil
		}
		a.hooks = h.Clone()
		return nil
	}
}

// New builds an agent and enters Patrol.
func New(p Params, opts ...Option) (*Agent, error) {
	if p.Nav == nil || p.Evaluator == nil || p.Detection == nil {
		return nil, ErrMissingCollaborator
	}
	a := &Agent{
		id:     uuid.New(),
		kind:   p.Kind,
		cfg:    p.Detection,
		tuning: p.Tuning,
		nav:    p.Nav,
		anim:   p.Anim,
		eval:   p.Evaluator,
		scope:  noise.Unrestricted,
		rng:    p.Detection.DetectionRange,
	}
	if a.anim == nil {
		a.anim = nopAnimator{}
	}
	if p.Kind == Secondary {
		a.rng = p.Detection.SecondaryRange()
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, fmt.Errorf("agent: configure: %w", err)
		}
	}
	a.logger = log.With("component", "agent", "agent", a.id.String(), "kind", a.kind.String())
	if a.mortal {
		a.logger = a.logger.With("room", a.room)
	}

	a.setState(statePatrol)
	return a, nil
}

// Update advances the agent by dt seconds.
func (a *Agent) Update(dt float64) {
	if a == nil || a.despawned {
		return
	}

	// Lifetime overrides whatever the agent is doing.
	if a.mortal && a.lifetime.Tick(dt) {
		a.logger.Info("lifetime expired", "state", a.state.ID().String())
		a.Despawn()
		return
	}

	if a.attackReturn.Tick(dt) {
		a.returnToNearestWaypoint()
		return
	}

	a.dropLostTarget()
	a.volume = a.sampleVolume()
	a.state.Update(a, dt)
}

// OnPlayerContact forces an attack when a live player touches the agent.
func (a *Agent) OnPlayerContact(player ecs.Entity) {
	if a == nil || a.despawned || a.state.ID() == Attack {
		return
	}
	if !a.eval.Field().StillValid(&noise.Target{Kind: noise.KindPlayer, Entity: player}) {
		return
	}
	a.logger.Info("player contact", "player", player.String())
	a.setState(stateAttack)
}

// Despawn removes the agent from play. It notifies the owner exactly once
// and cancels any pending attack return.
func (a *Agent) Despawn() {
	if a == nil || a.despawned {
		return
	}
	a.despawned = true
	a.attackReturn.Cancel()
	a.clearTarget()
	a.nav.ResetPath()
	a.Close()
	if a.owner != nil {
		a.owner.NotifySecondaryDespawned(a.id, a.room)
	}
}

// Close releases the audio handle. For the owner this closes the device.
func (a *Agent) Close() {
	if a == nil || a.audio == nil {
		return
	}
	a.audio.Release()
	a.audio = nil
}

func (a *Agent) setState(next agentState) {
	prev := a.state
	if prev != nil {
		prev.Exit(a)
	}
	a.state = next
	next.Enter(a)

	from := "none"
	if prev != nil {
		from = prev.ID().String()
	}
	a.logger.Debug("state", "from", from, "to", next.ID().String(), "lockdown", a.lockdown)
	if a.hooks != nil {
		a.hooks.OnEnter(a, from)
	}
}

func (a *Agent) listener() noise.Listener {
	return noise.Listener{
		Position: a.nav.Position(),
		Range:    a.rng,
		Scope:    a.scope,
		Loudness: a.volume,
	}
}

// evaluate asks the evaluator for a better target and adopts it.
func (a *Agent) evaluate(improvement float64) bool {
	t, ok := a.eval.Evaluate(a.listener(), a.target, improvement)
	if !ok {
		return false
	}
	a.target = &t
	a.lastNoisePosition = t.Position
	return true
}

func (a *Agent) sampleVolume() float64 {
	ambient := a.eval.Field().AmbientLoudness(a.nav.Position(), a.rng, a.scope)
	return audio.Loudness(a.audio, ambient)
}

func (a *Agent) hears() bool {
	return a.volume > a.cfg.NoiseThreshold
}

func (a *Agent) arrived() bool {
	return !a.nav.PathPending() && a.nav.RemainingDistance() < a.tuning.ArriveDistance
}

func (a *Agent) startLockdown(player ecs.Entity) {
	a.lockdown = true
	a.lockdownTarget = player
	a.logger.Info("lockdown", "player", player.String())
	a.setState(statePursue)
}

// dropLockdown turns a locked pursuit into a plain one toward the last place
// the player was heard.
func (a *Agent) dropLockdown() {
	a.logger.Info("lockdown target lost", "player", a.lockdownTarget.String())
	a.lockdown = false
	a.lockdownTarget = ecs.Entity{}
	a.target = nil
	if a.state.ID() == Pursue {
		a.nav.SetSpeed(a.tuning.RunSpeed)
		a.nav.SetDestination(a.lastNoisePosition)
	}
}

// dropLostTarget forgets a target whose source went quiet or whose player
// died.
func (a *Agent) dropLostTarget() {
	if a.target == nil || a.eval.Field().StillValid(a.target) {
		return
	}
	if a.lockdown {
		a.dropLockdown()
		return
	}
	a.logger.Debug("target lost", "kind", a.target.Kind.String())
	a.target = nil
}

func (a *Agent) clearTarget() {
	a.lockdown = false
	a.lockdownTarget = ecs.Entity{}
	a.target = nil
}

// returnToNearestWaypoint resumes patrol from the closest waypoint rather
// than the old index.
func (a *Agent) returnToNearestWaypoint() {
	a.attackReturn.Cancel()
	a.clearTarget()
	if len(a.waypoints) > 0 {
		a.waypointIndex = nearestIndex(a.waypoints, a.nav.Position())
	}
	a.setState(statePatrol)
}

func nearestIndex(points []common.Vec3, p common.Vec3) int {
	best, bestDist := 0, math.Inf(1)
	for i, wp := range points {
		if d := common.Dist(p, wp); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

func (a *Agent) ID() uuid.UUID                  { return a.id }
func (a *Agent) Kind() Kind                     { return a.kind }
func (a *Agent) State() State                   { return a.state.ID() }
func (a *Agent) Lockdown() bool                 { return a.lockdown }
func (a *Agent) LockdownTarget() ecs.Entity     { return a.lockdownTarget }
func (a *Agent) WaypointIndex() int             { return a.waypointIndex }
func (a *Agent) Waypoints() []common.Vec3       { return append([]common.Vec3(nil), a.waypoints...) }
func (a *Agent) LastNoisePosition() common.Vec3 { return a.lastNoisePosition }
func (a *Agent) Room() string                   { return a.room }
func (a *Agent) Despawned() bool                { return a.despawned }
func (a *Agent) Position() common.Vec3          { return a.nav.Position() }
func (a *Agent) DetectionRange() float64        { return a.rng }

// CurrentVolume is the loudness sampled on the last update.
func (a *Agent) CurrentVolume() float64 { return a.volume }

// Target returns a copy of the held target.
func (a *Agent) Target() (noise.Target, bool) {
	if a.target == nil {
		return noise.Target{}, false
	}
	return *a.target, true
}

// RemainingLifetime is +Inf for agents without a lifetime.
func (a *Agent) RemainingLifetime() float64 {
	if !a.mortal {
		return math.Inf(1)
	}
	return math.Max(a.lifetime.Remaining, 0)
}

// AttackReturnPending reports whether the post-attack return is armed.
func (a *Agent) AttackReturnPending() bool { return a.attackReturn.Armed() }
