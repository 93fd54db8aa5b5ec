package ecs

import (
	"testing"

	"github.com/milk9111/lurker/common"
	"github.com/milk9111/lurker/ecs/component"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorldEntityLifecycle(t *testing.T) {
	cases := []struct {
		name         string
		create       int
		destroyIndex int // -1 = none
	}{
		{"single", 1, 0},
		{"three_create_destroy_middle", 3, 1},
		{"none_destroy", 2, -1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := NewWorld()
			ents := make([]Entity, 0, c.create)
			for i := 0; i < c.create; i++ {
				ents = append(ents, w.AddPlayer(&component.Player{Alive: true}))
			}
			require.Equal(t, c.create, w.PlayerCount())
			if c.destroyIndex >= 0 {
				assert.True(t, w.DestroyEntity(ents[c.destroyIndex]))
				assert.False(t, w.IsAlive(ents[c.destroyIndex]))
				assert.False(t, w.DestroyEntity(ents[c.destroyIndex]), "double destroy")
				assert.Equal(t, c.create-1, w.PlayerCount())
			}
		})
	}
}

func TestWorldStaleHandleAfterReuse(t *testing.T) {
	w := NewWorld()
	old := w.AddNoiseSource(component.NewNoiseSource("a", common.Vec3{}, 1, true))
	require.True(t, w.DestroyEntity(old))

	fresh := w.AddNoiseSource(component.NewNoiseSource("b", common.Vec3{}, 2, true))
	assert.Equal(t, old.ID, fresh.ID, "id is recycled")
	assert.NotEqual(t, old.Gen, fresh.Gen)

	_, ok := w.NoiseSource(old)
	assert.False(t, ok, "stale handle must not resolve")
	s, ok := w.NoiseSource(fresh)
	require.True(t, ok)
	assert.Equal(t, "b", s.Name)
}

func TestWorldLivePlayerQueries(t *testing.T) {
	w := NewWorld()
	p := &component.Player{Name: "p1", Position: common.V3(1, 0, 2), Alive: true}
	e := w.AddPlayer(p)

	pos, ok := w.PlayerPosition(e)
	require.True(t, ok)
	assert.Equal(t, common.V3(1, 0, 2), pos)

	p.Alive = false
	assert.False(t, w.IsLivePlayer(e))
	_, ok = w.PlayerPosition(e)
	assert.False(t, ok)
}

func TestSparseSetRemoveKeepsDenseOrderConsistent(t *testing.T) {
	s := &SparseSet[string]{}
	a, b, c := Entity{ID: 1}, Entity{ID: 2}, Entity{ID: 3}
	s.Set(a, "a")
	s.Set(b, "b")
	s.Set(c, "c")

	require.True(t, s.Remove(a))
	assert.Equal(t, 2, s.Len())
	v, ok := s.Get(c)
	require.True(t, ok)
	assert.Equal(t, "c", v)
	assert.False(t, s.Has(a))
}

func TestSchedulerRunsInOrder(t *testing.T) {
	var order []string
	s := NewScheduler(
		SystemFunc(func(*World, float64) { order = append(order, "first") }),
		nil,
		SystemFunc(func(*World, float64) { order = append(order, "second") }),
	)
	s.Update(NewWorld(), 0.1)
	assert.Equal(t, []string{"first", "second"}, order)
	assert.Len(t, s.Systems(), 2)
}
