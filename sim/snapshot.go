package sim

import (
	"math"

	"github.com/google/uuid"
	"github.com/milk9111/lurker/agent"
	"github.com/milk9111/lurker/common"
	"github.com/milk9111/lurker/director"
	"github.com/milk9111/lurker/ecs"
)

// Snapshot is a JSON-friendly copy of the session at the end of a tick.
// Unbounded values (ranges, lifetimes) are omitted rather than encoded.
type Snapshot struct {
	Level       string                `json:"level"`
	Tick        int                   `json:"tick"`
	Time        float64               `json:"time"`
	Primary     AgentView             `json:"primary"`
	Secondaries []AgentView           `json:"secondaries"`
	Rooms       []director.RoomStatus `json:"rooms"`
	Sources     []SourceView          `json:"sources"`
	Players     []PlayerView          `json:"players"`
	Audio       AudioView             `json:"audio"`
	Events      []ecs.Event           `json:"events,omitempty"`
	Stats       Stats                 `json:"stats"`
}

type AgentView struct {
	ID                uuid.UUID    `json:"id"`
	Kind              string       `json:"kind"`
	State             string       `json:"state"`
	Lockdown          bool         `json:"lockdown"`
	Position          common.Vec3  `json:"position"`
	Destination       *common.Vec3 `json:"destination,omitempty"`
	WaypointIndex     int          `json:"waypoint_index"`
	Room              string       `json:"room,omitempty"`
	Volume            float64      `json:"volume"`
	DetectionRange    *float64     `json:"detection_range,omitempty"`
	RemainingLifetime *float64     `json:"remaining_lifetime,omitempty"`
	Target            *TargetView  `json:"target,omitempty"`
	Locomotion        string       `json:"locomotion"`
	Attacks           int          `json:"attacks"`
	Cues              []string     `json:"cues,omitempty"`
}

type TargetView struct {
	Kind     string      `json:"kind"`
	Position common.Vec3 `json:"position"`
	Score    float64     `json:"score"`
}

type SourceView struct {
	Name      string      `json:"name"`
	Position  common.Vec3 `json:"position"`
	Intensity float64     `json:"intensity"`
	Active    bool        `json:"active"`
	Trap      bool        `json:"trap"`
	TrapReady bool        `json:"trap_ready,omitempty"`
	Cooldown  float64     `json:"cooldown,omitempty"`
}

type PlayerView struct {
	Name     string      `json:"name"`
	Position common.Vec3 `json:"position"`
	Alive    bool        `json:"alive"`
}

type AudioView struct {
	Active bool      `json:"active"`
	Owner  uuid.UUID `json:"owner"`
	Refs   int       `json:"refs"`
}

// Snapshot copies the current state. Events are those drained on the last
// tick.
func (s *Sim) Snapshot() Snapshot {
	snap := Snapshot{
		Level:   s.spec.Name,
		Tick:    s.tick,
		Time:    s.time,
		Primary: s.agentView(s.primary),
		Audio: AudioView{
			Active: s.audio.Active(),
			Owner:  s.audio.Owner(),
			Refs:   s.audio.Refs(),
		},
		Events: append([]ecs.Event(nil), s.events...),
		Stats:  s.stats,
	}
	for _, a := range s.director.Agents() {
		snap.Secondaries = append(snap.Secondaries, s.agentView(a))
	}
	for _, r := range s.director.Rooms() {
		snap.Rooms = append(snap.Rooms, r.Status())
	}
	for _, name := range s.sourceOrder {
		src, _ := s.world.NoiseSource(s.sources[name])
		snap.Sources = append(snap.Sources, SourceView{
			Name:      src.Name,
			Position:  src.Position,
			Intensity: src.Intensity,
			Active:    src.Active,
			Trap:      src.IsTrap(),
			TrapReady: src.TrapReady(),
			Cooldown:  src.TrapCooldownRemaining(),
		})
	}
	snap.Players = s.PlayerViews()
	return snap
}

// PlayerViews lists players in load order.
func (s *Sim) PlayerViews() []PlayerView {
	out := make([]PlayerView, 0, len(s.playerOrder))
	for _, name := range s.playerOrder {
		p, _ := s.world.Player(s.players[name])
		out = append(out, PlayerView{Name: p.Name, Position: p.Position, Alive: p.Alive})
	}
	return out
}

func (s *Sim) agentView(a *agent.Agent) AgentView {
	v := AgentView{
		ID:             a.ID(),
		Kind:           a.Kind().String(),
		State:          a.State().String(),
		Lockdown:       a.Lockdown(),
		Position:       a.Position(),
		WaypointIndex:  a.WaypointIndex(),
		Room:           a.Room(),
		Volume:         a.CurrentVolume(),
		DetectionRange: finite(a.DetectionRange()),
	}
	if !a.Despawned() {
		v.RemainingLifetime = finite(a.RemainingLifetime())
	}
	if t, ok := a.Target(); ok {
		v.Target = &TargetView{Kind: t.Kind.String(), Position: t.Position, Score: t.Score}
	}
	if body, ok := s.space.Agent(a.ID()); ok {
		if dest, ok := body.Destination(); ok {
			v.Destination = &dest
		}
	}
	if p, ok := s.puppets[a.ID()]; ok {
		v.Locomotion = p.Locomotion().String()
		v.Attacks = p.Attacks()
		v.Cues = p.Cues()
	}
	return v
}

func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) || v <= 0 {
		return nil
	}
	return &v
}
