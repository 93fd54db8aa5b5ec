package component

// Locomotion is the animation signal an agent emits on every state entry.
type Locomotion struct {
	Walking bool `json:"walking"`
	Running bool `json:"running"`
	Idle    bool `json:"idle"`
}

var (
	LocomotionWalk = Locomotion{Walking: true}
	LocomotionRun  = Locomotion{Running: true}
	LocomotionIdle = Locomotion{Idle: true}
	LocomotionStop = Locomotion{}
)

func (l Locomotion) String() string {
	switch {
	case l.Running:
		return "running"
	case l.Walking:
		return "walking"
	case l.Idle:
		return "idle"
	default:
		return "stopped"
	}
}
