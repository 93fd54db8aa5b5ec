package noise

import (
	"log/slog"

	"github.com/milk9111/lurker/common"
	"github.com/milk9111/lurker/internal/log"
)

// Listener is everything the evaluator needs to know about who is listening.
type Listener struct {
	Position common.Vec3
	Range    float64
	Scope    Scope
	Loudness float64
}

// Evaluator picks what an agent should chase.
//
// Any ambient source outranks every player. Within a kind, a candidate only
// displaces the held target when it beats held.Score*(1+improvement).
// Re-hearing the source already held refreshes it in place.
type Evaluator struct {
	field  *Field
	logger *slog.Logger
}

func NewEvaluator(field *Field) *Evaluator {
	return &Evaluator{field: field, logger: log.With("component", "noise")}
}

func (ev *Evaluator) Field() *Field {
	if ev == nil {
		return nil
	}
	return ev.field
}

// Evaluate returns the new target and true when held should be replaced.
// When nothing qualifies it returns false and the caller keeps held.
func (ev *Evaluator) Evaluate(l Listener, held *Target, improvement float64) (Target, bool) {
	if ev == nil || ev.field == nil {
		return Target{}, false
	}

	if amb, ok := best(ev.field.Ambient(l.Position, l.Range, l.Scope)); ok {
		switch {
		case held == nil,
			held.IsPlayer(),
			held.Same(amb),
			amb.Score > held.Score*(1+improvement):
			ev.logger.Debug("ambient target", "entity", amb.Entity.String(), "score", amb.Score)
			return amb, true
		}
		return Target{}, false
	}

	if pl, ok := best(ev.field.Players(l.Position, l.Range, l.Scope, l.Loudness)); ok {
		if held == nil || held.Same(pl) || pl.Score > held.Score*(1+improvement) {
			ev.logger.Debug("player target", "entity", pl.Entity.String(), "score", pl.Score)
			return pl, true
		}
	}
	return Target{}, false
}
