package component

import "github.com/milk9111/lurker/common"

const (
	MinIntensity = 0.1
	MaxIntensity = 10.0

	DefaultTrapDuration      = 3.0
	DefaultTrapCooldown      = 10.0
	DefaultTrapTriggerRadius = 1.0
)

// NoiseSource is an ambient emitter. Only active sources can be heard.
type NoiseSource struct {
	Name      string
	Position  common.Vec3
	Intensity float64
	Active    bool

	// Trap is set for sources that players can set off by walking into
	// them. Nil for plain sources.
	Trap *Trap
}

// Trap turns a source on for Duration seconds when a player triggers it and
// then refuses new triggers for Cooldown seconds.
type Trap struct {
	Duration      float64
	Cooldown      float64
	TriggerRadius float64

	sounding Countdown
	cooling  Countdown
}

func NewNoiseSource(name string, pos common.Vec3, intensity float64, active bool) *NoiseSource {
	s := &NoiseSource{Name: name, Position: pos, Active: active}
	s.SetIntensity(intensity)
	return s
}

// SetIntensity clamps v into [MinIntensity, MaxIntensity].
func (s *NoiseSource) SetIntensity(v float64) {
	s.Intensity = common.Clamp(v, MinIntensity, MaxIntensity)
}

func (s *NoiseSource) Activate()   { s.Active = true }
func (s *NoiseSource) Deactivate() { s.Active = false }
func (s *NoiseSource) Toggle()     { s.Active = !s.Active }

func (s *NoiseSource) IsTrap() bool {
	return s != nil && s.Trap != nil
}

// TriggerTrap sets the trap off. It is a no-op for plain sources and for
// traps still cooling down, and reports whether the trap fired.
func (s *NoiseSource) TriggerTrap() bool {
	if !s.IsTrap() || s.Trap.cooling.Armed() {
		return false
	}
	s.Active = true
	s.Trap.sounding.Start(s.Trap.Duration)
	s.Trap.cooling.Start(s.Trap.Cooldown)
	return true
}

// Update advances trap timers. Plain sources ignore it.
func (s *NoiseSource) Update(dt float64) {
	if !s.IsTrap() {
		return
	}
	if s.Trap.sounding.Tick(dt) {
		s.Active = false
	}
	s.Trap.cooling.Tick(dt)
}

// TrapReady reports whether the trap can be triggered right now.
func (s *NoiseSource) TrapReady() bool {
	return s.IsTrap() && !s.Trap.cooling.Armed()
}

// TrapCooldownRemaining is zero when the trap is ready or not a trap.
func (s *NoiseSource) TrapCooldownRemaining() float64 {
	if !s.IsTrap() || !s.Trap.cooling.Armed() {
		return 0
	}
	return s.Trap.cooling.Remaining
}
