package prefabs

import (
	"errors"
	"fmt"

	"github.com/milk9111/lurker/audio"
	"github.com/milk9111/lurker/common"
	"github.com/milk9111/lurker/ecs/component"
	"github.com/milk9111/lurker/internal/log"
)

// DefaultLevel is the embedded level used when none is named.
const DefaultLevel = "manor"

type LevelSpec struct {
	Name         string            `yaml:"name"`
	Detection    DetectionSpec     `yaml:"detection"`
	Agent        AgentSpec         `yaml:"agent"`
	Audio        AudioSpec         `yaml:"audio"`
	Hooks        string            `yaml:"hooks"`
	Primary      PrimarySpec       `yaml:"primary"`
	Rooms        []RoomSpec        `yaml:"rooms"`
	NoiseSources []NoiseSourceSpec `yaml:"noise_sources"`
	Players      []PlayerSpec      `yaml:"players"`
}

// DetectionSpec mirrors component.DetectionConfig. Nil fields take defaults.
type DetectionSpec struct {
	DetectionRange            *float64 `yaml:"detection_range"`
	NoiseThreshold            *float64 `yaml:"noise_threshold"`
	ScoreImprovementThreshold *float64 `yaml:"score_improvement_threshold"`
	SecondaryDuration         *float64 `yaml:"secondary_duration"`
	RoomCooldown              *float64 `yaml:"room_cooldown"`
	AutoSpawnInterval         *float64 `yaml:"auto_spawn_interval"`
	SecondaryDetectionRange   *float64 `yaml:"secondary_detection_range"`
}

type AgentSpec struct {
	IdleDuration   *float64 `yaml:"idle_duration"`
	AttackRecovery *float64 `yaml:"attack_recovery"`
	AttackDistance *float64 `yaml:"attack_distance"`
	ArriveDistance *float64 `yaml:"arrive_distance"`
	PatrolSpeed    *float64 `yaml:"patrol_speed"`
	RunSpeed       *float64 `yaml:"run_speed"`
	LockdownSpeed  *float64 `yaml:"lockdown_speed"`
	SampleWindow   *int     `yaml:"sample_window"`
}

type AudioSpec struct {
	Backend   string  `yaml:"backend"`
	SineHz    float64 `yaml:"sine_hz"`
	Amplitude float64 `yaml:"amplitude"`
}

type PrimarySpec struct {
	Position  common.Vec3   `yaml:"position"`
	Waypoints []common.Vec3 `yaml:"waypoints"`
}

type RoomSpec struct {
	Name      string        `yaml:"name"`
	Color     *YAMLColor    `yaml:"color"`
	Waypoints []common.Vec3 `yaml:"waypoints"`
}

type TrapSpec struct {
	Duration float64 `yaml:"duration"`
	Cooldown float64 `yaml:"cooldown"`
	Radius   float64 `yaml:"radius"`
}

type NoiseSourceSpec struct {
	Name      string      `yaml:"name"`
	Position  common.Vec3 `yaml:"position"`
	Intensity float64     `yaml:"intensity"`
	Active    bool        `yaml:"active"`
	Trap      *TrapSpec   `yaml:"trap"`
}

type PlayerSpec struct {
	Name     string      `yaml:"name"`
	Position common.Vec3 `yaml:"position"`
}

// LoadLevelSpec loads and validates a level by name or path. An empty name
// loads DefaultLevel.
func LoadLevelSpec(name string) (*LevelSpec, error) {
	if name == "" {
		name = DefaultLevel
	}
	spec, err := LoadSpec[LevelSpec](name)
	if err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("prefabs: validate %s: %w", name, err)
	}
	return &spec, nil
}

// Validate rejects values no session could run with. Rooms without
// waypoints are logged and left for the director to skip.
func (s *LevelSpec) Validate() error {
	var errs []error
	positive := func(field string, v *float64) {
		if v != nil && *v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %v", field, *v))
		}
	}
	nonNegative := func(field string, v *float64) {
		if v != nil && *v < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %v", field, *v))
		}
	}

	d := s.Detection
	positive("detection.detection_range", d.DetectionRange)
	nonNegative("detection.noise_threshold", d.NoiseThreshold)
	nonNegative("detection.score_improvement_threshold", d.ScoreImprovementThreshold)
	positive("detection.secondary_duration", d.SecondaryDuration)
	nonNegative("detection.room_cooldown", d.RoomCooldown)
	positive("detection.auto_spawn_interval", d.AutoSpawnInterval)
	nonNegative("detection.secondary_detection_range", d.SecondaryDetectionRange)

	a := s.Agent
	nonNegative("agent.idle_duration", a.IdleDuration)
	nonNegative("agent.attack_recovery", a.AttackRecovery)
	positive("agent.attack_distance", a.AttackDistance)
	positive("agent.arrive_distance", a.ArriveDistance)
	positive("agent.patrol_speed", a.PatrolSpeed)
	positive("agent.run_speed", a.RunSpeed)
	positive("agent.lockdown_speed", a.LockdownSpeed)
	if a.SampleWindow != nil && *a.SampleWindow <= 0 {
		errs = append(errs, fmt.Errorf("agent.sample_window must be positive, got %d", *a.SampleWindow))
	}

	if len(s.Primary.Waypoints) == 0 {
		errs = append(errs, errors.New("primary.waypoints must not be empty"))
	}

	seen := make(map[string]bool, len(s.Rooms))
	for i, r := range s.Rooms {
		if r.Name == "" {
			errs = append(errs, fmt.Errorf("rooms[%d]: empty name", i))
			continue
		}
		if seen[r.Name] {
			errs = append(errs, fmt.Errorf("rooms[%d]: duplicate name %q", i, r.Name))
		}
		seen[r.Name] = true
		if len(r.Waypoints) == 0 {
			log.Warn("room has no waypoints", "component", "prefabs", "room", r.Name)
		}
	}

	for i, n := range s.NoiseSources {
		if n.Intensity <= 0 {
			errs = append(errs, fmt.Errorf("noise_sources[%d] %q: intensity must be positive", i, n.Name))
		}
		if n.Trap != nil {
			if n.Trap.Duration < 0 || n.Trap.Cooldown < 0 || n.Trap.Radius < 0 {
				errs = append(errs, fmt.Errorf("noise_sources[%d] %q: trap timings must not be negative", i, n.Name))
			}
		}
	}

	return errors.Join(errs...)
}

// DetectionConfig returns the detection tunables with defaults applied.
func (s *LevelSpec) DetectionConfig() component.DetectionConfig {
	c := component.DefaultDetectionConfig()
	d := s.Detection
	set(&c.DetectionRange, d.DetectionRange)
	set(&c.NoiseThreshold, d.NoiseThreshold)
	set(&c.ScoreImprovementThreshold, d.ScoreImprovementThreshold)
	set(&c.SecondaryDuration, d.SecondaryDuration)
	set(&c.RoomCooldown, d.RoomCooldown)
	set(&c.AutoSpawnInterval, d.AutoSpawnInterval)
	set(&c.SecondaryDetectionRange, d.SecondaryDetectionRange)
	return c
}

// AgentTuning returns per-agent tunables with defaults applied.
func (s *LevelSpec) AgentTuning() component.AgentTuning {
	t := component.DefaultAgentTuning()
	a := s.Agent
	set(&t.IdleDuration, a.IdleDuration)
	set(&t.AttackRecovery, a.AttackRecovery)
	set(&t.AttackDistance, a.AttackDistance)
	set(&t.ArriveDistance, a.ArriveDistance)
	set(&t.PatrolSpeed, a.PatrolSpeed)
	set(&t.RunSpeed, a.RunSpeed)
	set(&t.LockdownSpeed, a.LockdownSpeed)
	set(&t.SampleWindow, a.SampleWindow)
	return t
}

// AudioConfig converts the audio block for audio.NewOpener.
func (s *LevelSpec) AudioConfig() audio.Config {
	return audio.Config{
		Backend:   s.Audio.Backend,
		Window:    s.AgentTuning().SampleWindow,
		SineHz:    s.Audio.SineHz,
		Amplitude: s.Audio.Amplitude,
	}
}

// TrapComponent builds the trap for a source, applying defaults. Nil for
// plain sources.
func (n NoiseSourceSpec) TrapComponent() *component.Trap {
	if n.Trap == nil {
		return nil
	}
	t := &component.Trap{
		Duration:      component.DefaultTrapDuration,
		Cooldown:      component.DefaultTrapCooldown,
		TriggerRadius: component.DefaultTrapTriggerRadius,
	}
	if n.Trap.Duration > 0 {
		t.Duration = n.Trap.Duration
	}
	if n.Trap.Cooldown > 0 {
		t.Cooldown = n.Trap.Cooldown
	}
	if n.Trap.Radius > 0 {
		t.TriggerRadius = n.Trap.Radius
	}
	return t
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
