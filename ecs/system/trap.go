package system

import (
	"log/slog"

	"github.com/milk9111/lurker/common"
	"github.com/milk9111/lurker/ecs"
	"github.com/milk9111/lurker/ecs/component"
	"github.com/milk9111/lurker/internal/log"
)

// TrapSystem advances trap timers and sets traps off when a live player
// steps inside the trigger radius. Agents never trigger traps.
type TrapSystem struct {
	inside map[pairKey]bool
	logger *slog.Logger
}

type pairKey struct {
	trap   ecs.Entity
	player ecs.Entity
}

func NewTrapSystem() *TrapSystem {
	return &TrapSystem{
		inside: make(map[pairKey]bool),
		logger: log.With("component", "traps"),
	}
}

func (s *TrapSystem) Update(w *ecs.World, dt float64) {
	if w == nil {
		return
	}

	w.ForEachSource(func(src ecs.Entity, ns *component.NoiseSource) {
		wasActive := ns.Active
		ns.Update(dt)
		if wasActive && !ns.Active {
			s.logger.Debug("trap silenced", "source", ns.Name)
		}
		if !ns.IsTrap() {
			return
		}

		radius := ns.Trap.TriggerRadius
		if radius <= 0 {
			radius = component.DefaultTrapTriggerRadius
		}

		w.ForEachPlayer(func(pe ecs.Entity, p *component.Player) {
			key := pairKey{trap: src, player: pe}
			in := p.Alive && common.Dist(p.Position, ns.Position) <= radius
			entered := in && !s.inside[key]
			if in {
				s.inside[key] = true
			} else {
				delete(s.inside, key)
			}
			if entered {
				s.Trigger(w, src, pe)
			}
		})
	})
}

// Trigger sets off trap src on behalf of player by. It refuses anything that
// is not a live player.
func (s *TrapSystem) Trigger(w *ecs.World, src, by ecs.Entity) bool {
	if !w.IsLivePlayer(by) {
		return false
	}
	ns, ok := w.NoiseSource(src)
	if !ok || !ns.TriggerTrap() {
		return false
	}
	s.logger.Info("trap triggered", "source", ns.Name, "player", by.String())
	w.Events().Push(ecs.Event{Type: ecs.EventTrapTriggered, Entity: src, Data: by})
	return true
}
