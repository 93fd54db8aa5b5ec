package director

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/milk9111/lurker/common"
	"github.com/milk9111/lurker/ecs"
	"github.com/milk9111/lurker/ecs/component"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	nearRoom = RoomSpec{Name: "near", Waypoints: []common.Vec3{common.V3(0, 0, 0), common.V3(5, 0, 0)}}
	farRoom  = RoomSpec{Name: "far", Waypoints: []common.Vec3{common.V3(48, 0, 0), common.V3(52, 0, 5)}}
)

type fixture struct {
	world    *ecs.World
	cfg      *component.DetectionConfig
	embodier *stubEmbodier
	primary  *stubPrimary
	dir      *Director
}

func newFixture(t *testing.T, mutate func(*component.DetectionConfig), rooms ...RoomSpec) *fixture {
	t.Helper()
	cfg := component.DefaultDetectionConfig()
	cfg.AutoSpawnInterval = 1e9
	if mutate != nil {
		mutate(&cfg)
	}
	f := &fixture{
		world:    ecs.NewWorld(),
		cfg:      &cfg,
		embodier: newStubEmbodier(),
		primary:  &stubPrimary{},
	}
	d, err := New(Config{
		Detection: f.cfg,
		Tuning:    component.DefaultAgentTuning(),
		Rooms:     rooms,
		Query:     f.world,
		Embodier:  f.embodier,
	}, WithRand(rand.New(rand.NewSource(7))), WithPrimary(f.primary), WithEvents(f.world.Events()))
	require.NoError(t, err)
	f.dir = d
	return f
}

func room(t *testing.T, d *Director, name string) *Room {
	t.Helper()
	r, ok := d.Room(name)
	require.True(t, ok)
	return r
}

func TestNewValidatesRooms(t *testing.T) {
	cfg := component.DefaultDetectionConfig()
	_, err := New(Config{Detection: &cfg, Query: ecs.NewWorld(), Embodier: newStubEmbodier(),
		Rooms: []RoomSpec{nearRoom, nearRoom}})
	assert.ErrorIs(t, err, ErrDuplicateRoom)

	_, err = New(Config{Detection: &cfg, Query: ecs.NewWorld()})
	assert.ErrorIs(t, err, ErrMissingEmbodier)
}

func TestInitialStaggerWithinHalfInterval(t *testing.T) {
	var specs []RoomSpec
	for i := 0; i < 20; i++ {
		specs = append(specs, RoomSpec{Name: string(rune('a' + i)), Waypoints: []common.Vec3{common.V3(float64(i)*10, 0, 0)}})
	}
	f := newFixture(t, func(c *component.DetectionConfig) { c.AutoSpawnInterval = 300 }, specs...)
	for _, r := range f.dir.Rooms() {
		assert.GreaterOrEqual(t, r.TimeSinceLastSpawn(), 0.0)
		assert.Less(t, r.TimeSinceLastSpawn(), 150.0)
	}
}

func TestAutoSpawnAfterInterval(t *testing.T) {
	f := newFixture(t, func(c *component.DetectionConfig) { c.AutoSpawnInterval = 10 }, nearRoom)
	r := room(t, f.dir, "near")
	start := r.TimeSinceLastSpawn()

	f.dir.Update(9.99 - start)
	assert.False(t, r.Occupied())
	assert.Empty(t, f.dir.Agents())

	f.dir.Update(0.02)
	require.True(t, r.Occupied())
	require.Len(t, f.dir.Agents(), 1)
	assert.Zero(t, r.TimeSinceLastSpawn())
	assert.Contains(t, nearRoom.Waypoints, f.dir.Agents()[0].Position())
	assert.Equal(t, "near", f.dir.Agents()[0].Room())

	events := f.world.Events().Drain()
	require.Len(t, events, 1)
	assert.Equal(t, ecs.EventAgentSpawned, events[0].Type)
}

func TestCooldownScenario(t *testing.T) {
	f := newFixture(t, nil, nearRoom)
	r := room(t, f.dir, "near")

	a, err := f.dir.SpawnSecondary("near", nearRoom.Waypoints[1])
	require.NoError(t, err)
	assert.Equal(t, 1, a.WaypointIndex(), "patrol starts from the spawn waypoint")

	a.Despawn()
	assert.False(t, r.Occupied())
	assert.True(t, r.InCooldown())
	assert.Equal(t, 90.0, r.CooldownRemaining())
	assert.Equal(t, []uuid.UUID{a.ID()}, f.embodier.released)

	f.dir.Update(10)
	_, err = f.dir.SpawnSecondary("near", nearRoom.Waypoints[0])
	assert.ErrorIs(t, err, ErrInvalidSpawnRequest)
	assert.True(t, r.InCooldown())
	assert.InDelta(t, 80.0, r.CooldownRemaining(), 1e-9)
	assert.Empty(t, f.dir.Agents())

	f.dir.Update(81)
	assert.False(t, r.InCooldown())
	_, err = f.dir.SpawnSecondary("near", nearRoom.Waypoints[0])
	assert.NoError(t, err)
}

func TestAutoSpawnWaitsOutCooldown(t *testing.T) {
	f := newFixture(t, func(c *component.DetectionConfig) { c.AutoSpawnInterval = 5 }, nearRoom)
	r := room(t, f.dir, "near")

	a, err := f.dir.SpawnSecondary("near", nearRoom.Waypoints[0])
	require.NoError(t, err)
	a.Despawn()
	require.True(t, r.InCooldown())

	f.dir.Update(10)
	assert.True(t, r.InCooldown())
	assert.False(t, r.Occupied())
	assert.Empty(t, f.dir.Agents(), "no timer spawn 10s into the cooldown")

	f.dir.Update(81)
	assert.False(t, r.InCooldown())
	require.True(t, r.Occupied(), "timer spawn once the cooldown is over")
	require.Len(t, f.dir.Agents(), 1)
	assert.NoError(t, f.dir.CheckInvariants())
}

func TestDespawnNotificationIdempotent(t *testing.T) {
	f := newFixture(t, nil, nearRoom)
	r := room(t, f.dir, "near")
	a, err := f.dir.SpawnSecondary("near", nearRoom.Waypoints[0])
	require.NoError(t, err)

	f.dir.NotifySecondaryDespawned(a.ID(), "near")
	f.dir.Update(10)
	f.dir.NotifySecondaryDespawned(a.ID(), "near")
	assert.InDelta(t, 80.0, r.CooldownRemaining(), 1e-9, "second notification must not restart cooldown")
	assert.Len(t, f.embodier.released, 1)

	f.dir.NotifySecondaryDespawned(uuid.New(), "nowhere")
	assert.NoError(t, f.dir.CheckInvariants())
}

func TestSpawnRejections(t *testing.T) {
	empty := RoomSpec{Name: "closet"}
	f := newFixture(t, func(c *component.DetectionConfig) { c.AutoSpawnInterval = 1 }, nearRoom, empty)

	_, err := f.dir.SpawnSecondary("attic", common.Vec3{})
	assert.ErrorIs(t, err, ErrUnknownRoom)

	_, err = f.dir.SpawnSecondary("closet", common.Vec3{})
	assert.ErrorIs(t, err, ErrConfigurationMissing)

	_, err = f.dir.SpawnSecondary("near", nearRoom.Waypoints[0])
	require.NoError(t, err)
	_, err = f.dir.SpawnSecondary("near", nearRoom.Waypoints[1])
	assert.ErrorIs(t, err, ErrInvalidSpawnRequest)
	assert.Len(t, f.dir.Agents(), 1)

	for i := 0; i < 10; i++ {
		f.dir.Update(1)
	}
	assert.False(t, room(t, f.dir, "closet").Occupied(), "empty rooms never host agents")
}

func TestEmbodyFailureLeavesRoomIdle(t *testing.T) {
	f := newFixture(t, nil, nearRoom)
	f.embodier.fail = true
	_, err := f.dir.SpawnSecondary("near", nearRoom.Waypoints[0])
	assert.Error(t, err)
	assert.False(t, room(t, f.dir, "near").Occupied())
}

func TestEscalationForDistantAmbient(t *testing.T) {
	f := newFixture(t, nil, nearRoom, farRoom)
	src := component.NewNoiseSource("generator", common.V3(49, 0, 1), 3, false)
	f.world.AddNoiseSource(src)
	f.world.AddNoiseSource(component.NewNoiseSource("close", common.V3(4, 0, 0), 3, true))

	f.dir.Update(0.1)
	assert.Empty(t, f.dir.Agents(), "inactive or in-range sources do not escalate")

	src.Activate()
	f.dir.Update(0.1)
	agents := f.dir.Agents()
	require.Len(t, agents, 1)
	assert.Equal(t, "far", agents[0].Room())
	assert.Equal(t, common.V3(48, 0, 0), agents[0].Position(), "spawns at the waypoint nearest the noise")
	assert.False(t, room(t, f.dir, "near").Occupied())

	f.dir.Update(0.1)
	assert.Len(t, f.dir.Agents(), 1, "occupied room is not spawned into again")
}

func TestEscalationForDistantPlayerGatedOnVolume(t *testing.T) {
	f := newFixture(t, nil, nearRoom, farRoom)
	p := &component.Player{Position: common.V3(51, 0, 4), Alive: false}
	f.world.AddPlayer(p)

	f.primary.volume = 5
	f.dir.Update(0.1)
	assert.Empty(t, f.dir.Agents(), "dead players are ignored")

	p.Alive = true
	f.primary.volume = 0.1
	f.dir.Update(0.1)
	assert.Empty(t, f.dir.Agents(), "volume must exceed the threshold")

	f.primary.volume = 0.11
	f.dir.Update(0.1)
	agents := f.dir.Agents()
	require.Len(t, agents, 1)
	assert.Equal(t, "far", agents[0].Room())
	assert.Equal(t, common.V3(52, 0, 5), agents[0].Position())
}

func TestFindRoomForPosition(t *testing.T) {
	a := RoomSpec{Name: "a", Waypoints: []common.Vec3{common.V3(0, 0, 0)}}
	b := RoomSpec{Name: "b", Waypoints: []common.Vec3{common.V3(2, 0, 0), common.V3(10, 0, 10)}}
	f := newFixture(t, nil, a, b)

	cases := []struct {
		name string
		pos  common.Vec3
		want string
	}{
		{"near_a", common.V3(-1, 0, 0), "a"},
		{"near_b", common.V3(9, 0, 9), "b"},
		{"tie_first_wins", common.V3(1, 0, 0), "a"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, ok := f.dir.FindRoomForPosition(c.pos)
			require.True(t, ok)
			assert.Equal(t, c.want, r.Name())
		})
	}

	wp, ok := f.dir.NearestWaypoint("b", common.V3(8, 0, 8))
	require.True(t, ok)
	assert.Equal(t, common.V3(10, 0, 10), wp)
}

func TestRoomScopeIsStrict(t *testing.T) {
	a := RoomSpec{Name: "a", Waypoints: []common.Vec3{common.V3(0, 0, 0)}}
	b := RoomSpec{Name: "b", Waypoints: []common.Vec3{common.V3(2, 0, 0)}}
	f := newFixture(t, nil, a, b)

	scopeA, scopeB := f.dir.Scope("a"), f.dir.Scope("b")
	assert.True(t, scopeA.Contains(common.V3(0.9, 0, 0)))
	assert.False(t, scopeB.Contains(common.V3(0.9, 0, 0)))

	tie := common.V3(1, 0, 0)
	assert.False(t, scopeA.Contains(tie), "equidistant positions belong to no room")
	assert.False(t, scopeB.Contains(tie))
}

func TestEscalationSkipsRoomBoundary(t *testing.T) {
	a := RoomSpec{Name: "a", Waypoints: []common.Vec3{common.V3(100, 0, 0)}}
	b := RoomSpec{Name: "b", Waypoints: []common.Vec3{common.V3(102, 0, 0)}}
	f := newFixture(t, nil, a, b)
	src := component.NewNoiseSource("pipe", common.V3(101, 0, 0), 2, true)
	f.world.AddNoiseSource(src)

	f.dir.Update(0.1)
	assert.Empty(t, f.dir.Agents(), "equidistant noise is in neither room")

	src.Position = common.V3(100.5, 0, 0)
	f.dir.Update(0.1)
	agents := f.dir.Agents()
	require.Len(t, agents, 1)
	assert.Equal(t, "a", agents[0].Room())
}

func TestSecondaryLifetimeFreesRoom(t *testing.T) {
	f := newFixture(t, nil, nearRoom)
	a, err := f.dir.SpawnSecondary("near", nearRoom.Waypoints[0])
	require.NoError(t, err)

	for i := 0; i < 59; i++ {
		f.dir.UpdateAgents(1)
	}
	assert.Len(t, f.dir.Agents(), 1)

	f.dir.UpdateAgents(1.01)
	assert.True(t, a.Despawned())
	assert.Empty(t, f.dir.Agents())
	r := room(t, f.dir, "near")
	assert.True(t, r.InCooldown())
	assert.False(t, r.Occupied())
}

func TestRoomInvariantHoldsEveryTick(t *testing.T) {
	f := newFixture(t, func(c *component.DetectionConfig) {
		c.AutoSpawnInterval = 3
		c.SecondaryDuration = 5
		c.RoomCooldown = 7
	}, nearRoom, farRoom, RoomSpec{Name: "mid", Waypoints: []common.Vec3{common.V3(25, 0, 0)}})
	src := component.NewNoiseSource("pump", common.V3(50, 0, 0), 2, true)
	f.world.AddNoiseSource(src)
	f.world.AddPlayer(&component.Player{Position: common.V3(26, 0, 0), Alive: true})
	f.primary.volume = 1

	spawned := 0
	for i := 0; i < 600; i++ {
		if i%50 == 0 {
			src.Toggle()
		}
		f.dir.Update(0.1)
		f.dir.UpdateAgents(0.1)
		for _, ev := range f.world.Events().Drain() {
			if ev.Type == ecs.EventAgentSpawned {
				spawned++
			}
		}
		require.NoError(t, f.dir.CheckInvariants(), "tick %d", i)
	}
	assert.Greater(t, spawned, 3)
}
