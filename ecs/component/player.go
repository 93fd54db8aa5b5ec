package component

import "github.com/milk9111/lurker/common"

// Player is a human-controlled entity agents can hear and attack.
type Player struct {
	Name     string
	Position common.Vec3
	Alive    bool
}
