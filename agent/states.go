package agent

import (
	"github.com/milk9111/lurker/common"
	"github.com/milk9111/lurker/ecs/component"
)

// State is the externally visible FSM state.
type State int

const (
	Patrol State = iota
	Investigate
	Idle
	Pursue
	Attack
)

func (s State) String() string {
	switch s {
	case Patrol:
		return "patrol"
	case Investigate:
		return "investigate"
	case Idle:
		return "idle"
	case Pursue:
		return "pursue"
	case Attack:
		return "attack"
	default:
		return "unknown"
	}
}

// ImprovementThreshold is how much better a new noise must score before an
// agent in state s gives up its current one. Commitment grows as the agent
// escalates.
func (s State) ImprovementThreshold(base float64) float64 {
	switch s {
	case Investigate:
		return base
	case Pursue:
		return 2 * base
	default:
		return 0
	}
}

type agentState interface {
	ID() State
	Enter(a *Agent)
	Exit(a *Agent)
	Update(a *Agent, dt float64)
}

type patrolState struct{}
type investigateState struct{}
type idleState struct{}
type pursueState struct{}
type attackState struct{}

var (
	statePatrol      agentState = &patrolState{}
	stateInvestigate agentState = &investigateState{}
	stateIdle        agentState = &idleState{}
	statePursue      agentState = &pursueState{}
	stateAttack      agentState = &attackState{}
)

func (patrolState) ID() State { return Patrol }
func (patrolState) Enter(a *Agent) {
	a.clearTarget()
	a.nav.SetSpeed(a.tuning.PatrolSpeed)
	a.anim.SetLocomotion(component.LocomotionWalk)
	if len(a.waypoints) > 0 {
		a.nav.SetDestination(a.waypoints[a.waypointIndex])
	}
}
func (patrolState) Exit(a *Agent) {}
func (patrolState) Update(a *Agent, dt float64) {
	if len(a.waypoints) > 0 && a.arrived() {
		a.waypointIndex = (a.waypointIndex + 1) % len(a.waypoints)
		a.nav.SetDestination(a.waypoints[a.waypointIndex])
	}

	if !a.hears() {
		return
	}
	a.evaluate(Patrol.ImprovementThreshold(a.cfg.ScoreImprovementThreshold))
	if a.target != nil {
		a.setState(stateInvestigate)
	}
}

func (investigateState) ID() State { return Investigate }
func (investigateState) Enter(a *Agent) {
	a.nav.SetSpeed(a.tuning.RunSpeed)
	a.anim.SetLocomotion(component.LocomotionRun)
	a.nav.SetDestination(a.lastNoisePosition)
}
func (investigateState) Exit(a *Agent) {}
func (investigateState) Update(a *Agent, dt float64) {
	if a.arrived() {
		a.setState(stateIdle)
		return
	}
	if a.hears() && a.evaluate(Investigate.ImprovementThreshold(a.cfg.ScoreImprovementThreshold)) {
		a.nav.SetDestination(a.lastNoisePosition)
	}
}

func (idleState) ID() State { return Idle }
func (idleState) Enter(a *Agent) {
	a.anim.SetLocomotion(component.LocomotionIdle)
	a.nav.ResetPath()
	a.idleTimer = 0
}
func (idleState) Exit(a *Agent) {}
func (idleState) Update(a *Agent, dt float64) {
	a.idleTimer += dt
	if a.idleTimer >= a.tuning.IdleDuration {
		a.returnToNearestWaypoint()
		return
	}

	if !a.hears() {
		return
	}
	a.evaluate(Idle.ImprovementThreshold(a.cfg.ScoreImprovementThreshold))
	switch {
	case a.target == nil:
	case a.target.IsPlayer():
		a.startLockdown(a.target.Entity)
	default:
		a.setState(stateInvestigate)
	}
}

func (pursueState) ID() State { return Pursue }
func (pursueState) Enter(a *Agent) {
	a.anim.SetLocomotion(component.LocomotionRun)
	if a.lockdown {
		a.nav.SetSpeed(a.tuning.LockdownSpeed)
		if pos, ok := a.eval.Field().PlayerPosition(a.lockdownTarget); ok {
			a.nav.SetDestination(pos)
		}
		return
	}
	a.nav.SetSpeed(a.tuning.RunSpeed)
	a.nav.SetDestination(a.lastNoisePosition)
}
func (pursueState) Exit(a *Agent) {}
func (pursueState) Update(a *Agent, dt float64) {
	if a.lockdown {
		pos, ok := a.eval.Field().PlayerPosition(a.lockdownTarget)
		if ok {
			a.lastNoisePosition = pos
			a.target.Position = pos
			a.nav.SetDestination(pos)
			if common.Dist(a.nav.Position(), pos) < a.tuning.AttackDistance {
				a.setState(stateAttack)
			}
			// Nothing else is heard while locked on.
			return
		}
		a.dropLockdown()
	}

	if a.arrived() {
		a.setState(stateIdle)
		return
	}
	if a.hears() && a.evaluate(Pursue.ImprovementThreshold(a.cfg.ScoreImprovementThreshold)) {
		a.nav.SetDestination(a.lastNoisePosition)
	}
}

func (attackState) ID() State { return Attack }
func (attackState) Enter(a *Agent) {
	a.clearTarget()
	a.nav.ResetPath()
	a.anim.TriggerAttack()
	a.attackReturn.Start(a.tuning.AttackRecovery)
}
func (attackState) Exit(a *Agent) {}

// Attack waits for the attack-return continuation armed on entry.
func (attackState) Update(a *Agent, dt float64) {}
