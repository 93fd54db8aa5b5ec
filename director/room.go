package director

import (
	"math"

	"github.com/milk9111/lurker/common"
)

// RoomSpec describes a room at load time.
type RoomSpec struct {
	Name      string
	Waypoints []common.Vec3
}

// Room is a named patrol region. Only the director mutates it.
type Room struct {
	name               string
	waypoints          []common.Vec3
	occupied           bool
	inCooldown         bool
	cooldownRemaining  float64
	timeSinceLastSpawn float64
	spawns             int
}

// RoomStatus is a point-in-time copy of a room for reporting.
type RoomStatus struct {
	Name               string        `json:"name"`
	Waypoints          []common.Vec3 `json:"waypoints"`
	Occupied           bool          `json:"occupied"`
	InCooldown         bool          `json:"in_cooldown"`
	CooldownRemaining  float64       `json:"cooldown_remaining"`
	TimeSinceLastSpawn float64       `json:"time_since_last_spawn"`
	Spawns             int           `json:"spawns"`
}

func (r *Room) Name() string                { return r.name }
func (r *Room) Occupied() bool              { return r.occupied }
func (r *Room) InCooldown() bool            { return r.inCooldown }
func (r *Room) CooldownRemaining() float64  { return r.cooldownRemaining }
func (r *Room) TimeSinceLastSpawn() float64 { return r.timeSinceLastSpawn }
func (r *Room) Spawns() int                 { return r.spawns }

// Configured reports whether the room has waypoints to spawn on.
func (r *Room) Configured() bool { return len(r.waypoints) > 0 }

// Available reports whether a secondary may be spawned here now.
func (r *Room) Available() bool {
	return r.Configured() && !r.occupied && !r.inCooldown
}

func (r *Room) Waypoints() []common.Vec3 {
	return append([]common.Vec3(nil), r.waypoints...)
}

func (r *Room) Status() RoomStatus {
	return RoomStatus{
		Name:               r.name,
		Waypoints:          r.Waypoints(),
		Occupied:           r.occupied,
		InCooldown:         r.inCooldown,
		CooldownRemaining:  r.cooldownRemaining,
		TimeSinceLastSpawn: r.timeSinceLastSpawn,
		Spawns:             r.spawns,
	}
}

// nearest returns the waypoint closest to p and its index, or -1 when the
// room has none.
func (r *Room) nearest(p common.Vec3) (common.Vec3, int, float64) {
	best, bestDist := -1, math.Inf(1)
	for i, wp := range r.waypoints {
		if d := common.Dist(p, wp); d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return common.Vec3{}, -1, bestDist
	}
	return r.waypoints[best], best, bestDist
}
