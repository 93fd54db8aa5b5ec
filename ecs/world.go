package ecs

import (
	"github.com/milk9111/lurker/common"
	"github.com/milk9111/lurker/ecs/component"
)

// World owns players, noise sources and the event queue. Agents live outside
// the world and read it through queries.
type World struct {
	entities entityStore
	events   EventQueue

	players *SparseSet[*component.Player]
	sources *SparseSet[*component.NoiseSource]
}

// NewWorld creates an empty world.
func NewWorld() *World {
	return &World{
		players: &SparseSet[*component.Player]{},
		sources: &SparseSet[*component.NoiseSource]{},
	}
}

// AddPlayer registers a live player and returns its handle.
func (w *World) AddPlayer(p *component.Player) Entity {
	if w == nil || p == nil {
		return Entity{}
	}
	e := w.entities.create()
	w.players.Set(e, p)
	return e
}

// AddNoiseSource registers an ambient source and returns its handle.
func (w *World) AddNoiseSource(s *component.NoiseSource) Entity {
	if w == nil || s == nil {
		return Entity{}
	}
	e := w.entities.create()
	w.sources.Set(e, s)
	return e
}

// DestroyEntity removes e and invalidates its handle.
func (w *World) DestroyEntity(e Entity) bool {
	if w == nil || !w.entities.destroy(e) {
		return false
	}
	w.players.Remove(e)
	w.sources.Remove(e)
	return true
}

// IsAlive reports whether an entity handle is valid.
func (w *World) IsAlive(e Entity) bool {
	return w != nil && w.entities.isAlive(e)
}

func (w *World) Player(e Entity) (*component.Player, bool) {
	if !w.IsAlive(e) {
		return nil, false
	}
	return w.players.Get(e)
}

func (w *World) NoiseSource(e Entity) (*component.NoiseSource, bool) {
	if !w.IsAlive(e) {
		return nil, false
	}
	return w.sources.Get(e)
}

// IsLivePlayer reports whether e is a registered player that is alive.
func (w *World) IsLivePlayer(e Entity) bool {
	p, ok := w.Player(e)
	return ok && p.Alive
}

// PlayerPosition returns the position of a live player.
func (w *World) PlayerPosition(e Entity) (common.Vec3, bool) {
	p, ok := w.Player(e)
	if !ok || !p.Alive {
		return common.Vec3{}, false
	}
	return p.Position, true
}

// IsActiveSource reports whether e is a registered source that is emitting.
func (w *World) IsActiveSource(e Entity) bool {
	s, ok := w.NoiseSource(e)
	return ok && s.Active
}

// ForEachPlayer visits every player, dead or alive.
func (w *World) ForEachPlayer(fn func(e Entity, p *component.Player)) {
	if w == nil {
		return
	}
	w.players.Each(fn)
}

// ForEachSource visits every noise source, active or not.
func (w *World) ForEachSource(fn func(e Entity, s *component.NoiseSource)) {
	if w == nil {
		return
	}
	w.sources.Each(fn)
}

func (w *World) PlayerCount() int { return w.players.Len() }
func (w *World) SourceCount() int { return w.sources.Len() }

// Events returns the world event queue.
func (w *World) Events() *EventQueue {
	if w == nil {
		return nil
	}
	return &w.events
}
