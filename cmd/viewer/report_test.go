package main

import (
	"testing"

	"github.com/google/uuid"
	"github.com/milk9111/lurker/common"
	"github.com/milk9111/lurker/director"
	"github.com/milk9111/lurker/sim"
	"github.com/stretchr/testify/assert"
)

func TestReport(t *testing.T) {
	left := 12.5
	snap := sim.Snapshot{
		Level: "manor",
		Tick:  600,
		Time:  10,
		Primary: sim.AgentView{
			ID: uuid.MustParse("0a1b2c3d-0000-0000-0000-000000000000"), Kind: "primary", State: "pursue", Lockdown: true,
			Target: &sim.TargetView{Kind: "player", Position: common.V3(1, 2, 0)},
		},
		Secondaries: []sim.AgentView{{
			ID: uuid.MustParse("ffffffff-0000-0000-0000-000000000000"), Kind: "secondary", State: "patrol",
			Room: "kitchen", RemainingLifetime: &left,
		}},
		Rooms: []director.RoomStatus{
			{Name: "kitchen", Occupied: true, Spawns: 1},
			{Name: "cellar", InCooldown: true, CooldownRemaining: 30},
		},
		Sources: []sim.SourceView{{Name: "floor", Trap: true, Active: true, Intensity: 4}},
		Players: []sim.PlayerView{{Name: "p1", Alive: true}},
	}

	got := report(snap)
	assert.Contains(t, got, "level manor  tick 600")
	assert.Contains(t, got, "primary 0a1b2c3d pursue LOCKDOWN")
	assert.Contains(t, got, "target=player@(1.0, 2.0)")
	assert.Contains(t, got, "secondary ffffffff patrol room=kitchen")
	assert.Contains(t, got, "left=12.5s")
	assert.Contains(t, got, "cooling 30.0s")
	assert.Contains(t, got, "trap floor")
	assert.Contains(t, got, "player p1 alive=true")
}

func TestCameraToScreen(t *testing.T) {
	c := camera{min: common.V3(-5, -5, 0), scale: 10, top: 64}
	x, y := c.toScreen(common.V3(0, 0, 0))
	assert.Equal(t, float32(50), x)
	assert.Equal(t, float32(114), y)
	assert.Equal(t, float32(25), c.length(2.5))
}
