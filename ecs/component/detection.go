package component

import "math"

// DetectionConfig holds the tunables shared by the primary agent, all
// secondaries and the director. It is read-only once a session starts.
type DetectionConfig struct {
	DetectionRange            float64
	NoiseThreshold            float64
	ScoreImprovementThreshold float64
	SecondaryDuration         float64
	RoomCooldown              float64
	AutoSpawnInterval         float64

	// SecondaryDetectionRange bounds secondary hearing. Zero means the room
	// is the only limit.
	SecondaryDetectionRange float64
}

func DefaultDetectionConfig() DetectionConfig {
	return DetectionConfig{
		DetectionRange:            20,
		NoiseThreshold:            0.1,
		ScoreImprovementThreshold: 0.01,
		SecondaryDuration:         60,
		RoomCooldown:              90,
		AutoSpawnInterval:         300,
	}
}

// SecondaryRange returns the range secondaries use, +Inf when unbounded.
func (c *DetectionConfig) SecondaryRange() float64 {
	if c == nil || c.SecondaryDetectionRange <= 0 {
		return math.Inf(1)
	}
	return c.SecondaryDetectionRange
}

// AgentTuning covers movement and timing of individual agents.
type AgentTuning struct {
	IdleDuration   float64
	AttackRecovery float64
	AttackDistance float64
	ArriveDistance float64
	PatrolSpeed    float64
	RunSpeed       float64
	LockdownSpeed  float64
	SampleWindow   int
}

func DefaultAgentTuning() AgentTuning {
	return AgentTuning{
		IdleDuration:   3,
		AttackRecovery: 1.5,
		AttackDistance: 1.0,
		ArriveDistance: 0.5,
		PatrolSpeed:    2.0,
		RunSpeed:       3.5,
		LockdownSpeed:  5.0,
		SampleWindow:   256,
	}
}
