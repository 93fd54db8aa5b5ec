package director

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/milk9111/lurker/agent"
	"github.com/milk9111/lurker/audio"
	"github.com/milk9111/lurker/common"
	"github.com/milk9111/lurker/ecs"
	"github.com/milk9111/lurker/ecs/component"
	"github.com/milk9111/lurker/internal/log"
	"github.com/milk9111/lurker/noise"
)

// Listener is the primary agent as the director sees it.
type Listener interface {
	Position() common.Vec3
	CurrentVolume() float64
}

// Embodier gives a new secondary a body in the world and takes it away
// again when the agent leaves.
type Embodier interface {
	Embody(id uuid.UUID, at common.Vec3) (agent.Navigator, agent.Animator, error)
	Release(id uuid.UUID)
}

// Config holds what a director cannot run without.
type Config struct {
	Detection *component.DetectionConfig
	Tuning    component.AgentTuning
	Rooms     []RoomSpec
	Query     noise.Query
	Embodier  Embodier
}

// Director owns the rooms and the secondary agent population.
type Director struct {
	cfg      *component.DetectionConfig
	tuning   component.AgentTuning
	rooms    []*Room
	byName   map[string]*Room
	query    noise.Query
	eval     *noise.Evaluator
	embodier Embodier
	primary  Listener
	audio    *audio.Manager
	hooks    *agent.Hooks
	events   *ecs.EventQueue
	rand     *rand.Rand

	active map[uuid.UUID]*agent.Agent
	order  []uuid.UUID
	logger *slog.Logger
}

type Option func(*Director)

// WithRand injects the randomness used for stagger and spawn points.
func WithRand(r *rand.Rand) Option {
	return func(d *Director) {
		if r != nil {
			d.rand = r
		}
	}
}

// WithPrimary sets the agent whose hearing range drives escalation.
func WithPrimary(l Listener) Option {
	return func(d *Director) { d.primary = l }
}

// WithAudio shares the capture device with secondaries.
func WithAudio(m *audio.Manager) Option {
	return func(d *Director) { d.audio = m }
}

// WithHooks gives every secondary the same state-entry script.
func WithHooks(h *agent.Hooks) Option {
	return func(d *Director) { d.hooks = h }
}

// WithEvents publishes spawn and despawn events to q.
func WithEvents(q *ecs.EventQueue) Option {
	return func(d *Director) { d.events = q }
}

func New(c Config, opts ...Option) (*Director, error) {
	if c.Detection == nil {
		return nil, errors.New("director: detection config required")
	}
	if c.Query == nil {
		return nil, ErrMissingQuery
	}
	if c.Embodier == nil {
		return nil, ErrMissingEmbodier
	}

	d := &Director{
		cfg:      c.Detection,
		tuning:   c.Tuning,
		byName:   make(map[string]*Room, len(c.Rooms)),
		query:    c.Query,
		eval:     noise.NewEvaluator(noise.NewField(c.Query)),
		embodier: c.Embodier,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
		active:   make(map[uuid.UUID]*agent.Agent),
		logger:   log.With("component", "director"),
	}
	for _, opt := range opts {
		opt(d)
	}

	for _, spec := range c.Rooms {
		if spec.Name == "" {
			return nil, fmt.Errorf("director: room %d: empty name", len(d.rooms))
		}
		if _, dup := d.byName[spec.Name]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRoom, spec.Name)
		}
		room := &Room{
			name:      spec.Name,
			waypoints: append([]common.Vec3(nil), spec.Waypoints...),
		}
		if !room.Configured() {
			d.logger.Warn("room skipped", "room", spec.Name, "err", ErrConfigurationMissing)
		}
		// Stagger the first automatic spawns.
		room.timeSinceLastSpawn = d.rand.Float64() * d.cfg.AutoSpawnInterval * 0.5
		d.rooms = append(d.rooms, room)
		d.byName[spec.Name] = room
	}
	return d, nil
}

// Update runs room timers, automatic spawns and escalation for one tick.
func (d *Director) Update(dt float64) {
	for _, room := range d.rooms {
		if room.occupied {
			continue
		}
		room.timeSinceLastSpawn += dt
		if room.inCooldown {
			room.cooldownRemaining -= dt
			if room.cooldownRemaining > 0 {
				continue
			}
			room.inCooldown = false
			room.cooldownRemaining = 0
			d.logger.Debug("room cooldown over", "room", room.name)
		}
		if room.Configured() && room.timeSinceLastSpawn >= d.cfg.AutoSpawnInterval {
			at := room.waypoints[d.rand.Intn(len(room.waypoints))]
			if _, err := d.spawn(room, at, "timer"); err != nil {
				d.logger.Warn("auto spawn failed", "room", room.name, "err", err)
			}
		}
	}
	d.escalate()
}

// UpdateAgents ticks every active secondary. Agents may despawn mid-loop.
func (d *Director) UpdateAgents(dt float64) {
	for _, a := range d.Agents() {
		a.Update(dt)
	}
}

// escalate sends secondaries after noise the primary is too far away to
// hear. Player noise only counts while the primary itself hears something.
func (d *Director) escalate() {
	if d.primary == nil {
		return
	}
	origin := d.primary.Position()
	limit := d.cfg.DetectionRange

	d.query.ForEachSource(func(_ ecs.Entity, s *component.NoiseSource) {
		if !s.Active || common.Dist(origin, s.Position) <= limit {
			return
		}
		d.escalateAt(s.Position, "ambient")
	})

	if d.primary.CurrentVolume() <= d.cfg.NoiseThreshold {
		return
	}
	d.query.ForEachPlayer(func(_ ecs.Entity, p *component.Player) {
		if !p.Alive || common.Dist(origin, p.Position) <= limit {
			return
		}
		d.escalateAt(p.Position, "player")
	})
}

func (d *Director) escalateAt(pos common.Vec3, reason string) {
	room, ok := d.FindRoomForPosition(pos)
	if !ok || !room.Available() {
		return
	}
	// A secondary only hears inside its own room, so a noise on a room
	// boundary has nobody to send.
	if !d.InRoom(room.name, pos) {
		d.logger.Debug("escalation skipped, noise on room boundary", "room", room.name, "reason", reason)
		return
	}
	at, _, _ := room.nearest(pos)
	if _, err := d.spawn(room, at, reason); err != nil {
		d.logger.Warn("escalation spawn failed", "room", room.name, "reason", reason, "err", err)
	}
}

// SpawnSecondary places a secondary agent in room at the given position.
func (d *Director) SpawnSecondary(room string, at common.Vec3) (*agent.Agent, error) {
	r, ok := d.byName[room]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRoom, room)
	}
	return d.spawn(r, at, "request")
}

func (d *Director) spawn(room *Room, at common.Vec3, reason string) (*agent.Agent, error) {
	if !room.Configured() {
		return nil, fmt.Errorf("director: spawn in %s: %w", room.name, ErrConfigurationMissing)
	}
	if room.occupied || room.inCooldown {
		d.logger.Warn("spawn rejected", "room", room.name, "occupied", room.occupied, "cooling", room.inCooldown)
		return nil, fmt.Errorf("director: spawn in %s: %w", room.name, ErrInvalidSpawnRequest)
	}

	id := uuid.New()
	nav, anim, err := d.embodier.Embody(id, at)
	if err != nil {
		return nil, fmt.Errorf("director: embody %s: %w", id, err)
	}

	var handle *audio.Handle
	if d.audio != nil {
		handle, err = d.audio.Acquire(id)
		if err != nil {
			d.logger.Debug("secondary without capture", "agent", id, "err", err)
		}
	}

	_, start, _ := room.nearest(at)
	a, err := agent.New(agent.Params{
		Kind:      agent.Secondary,
		Detection: d.cfg,
		Tuning:    d.tuning,
		Nav:       nav,
		Anim:      anim,
		Evaluator: d.eval,
	},
		agent.WithID(id),
		agent.WithWaypoints(room.waypoints),
		agent.WithStartWaypoint(start),
		agent.WithScope(d.Scope(room.name)),
		agent.WithDetectionRange(d.cfg.SecondaryRange()),
		agent.WithLifetime(d, room.name, d.cfg.SecondaryDuration),
		agent.WithAudio(handle),
		agent.WithHooks(d.hooks),
	)
	if err != nil {
		handle.Release()
		d.embodier.Release(id)
		return nil, fmt.Errorf("director: create secondary: %w", err)
	}

	room.occupied = true
	room.timeSinceLastSpawn = 0
	room.spawns++
	d.active[id] = a
	d.order = append(d.order, id)

	d.logger.Info("secondary spawned", "agent", id, "room", room.name, "reason", reason, "at", at)
	d.events.Push(ecs.Event{Type: ecs.EventAgentSpawned, Data: SpawnEvent{Agent: id, Room: room.name, Reason: reason, At: at}})
	return a, nil
}

// SpawnEvent is the payload of spawn and despawn events.
type SpawnEvent struct {
	Agent  uuid.UUID   `json:"agent"`
	Room   string      `json:"room"`
	Reason string      `json:"reason,omitempty"`
	At     common.Vec3 `json:"at"`
}

// NotifySecondaryDespawned frees the agent's room and starts its cooldown.
// Repeated or unknown notifications are ignored.
func (d *Director) NotifySecondaryDespawned(id uuid.UUID, room string) {
	a, ok := d.active[id]
	if !ok {
		return
	}
	delete(d.active, id)
	d.order = slices.DeleteFunc(d.order, func(o uuid.UUID) bool { return o == id })
	d.embodier.Release(id)

	r, ok := d.byName[room]
	if !ok {
		d.logger.Warn("despawn for unknown room", "agent", id, "room", room)
		return
	}
	r.occupied = false
	r.inCooldown = true
	r.cooldownRemaining = d.cfg.RoomCooldown

	d.logger.Info("secondary despawned", "agent", id, "room", room, "cooldown", d.cfg.RoomCooldown)
	d.events.Push(ecs.Event{Type: ecs.EventAgentDespawned, Data: SpawnEvent{Agent: id, Room: room, At: a.Position()}})
}

// FindRoomForPosition returns the room owning the waypoint nearest to p.
// On equal distances the first room found wins.
func (d *Director) FindRoomForPosition(p common.Vec3) (*Room, bool) {
	var best *Room
	bestDist := math.Inf(1)
	for _, room := range d.rooms {
		if _, _, dist := room.nearest(p); dist < bestDist {
			best, bestDist = room, dist
		}
	}
	return best, best != nil
}

// NearestWaypoint returns room's waypoint closest to p.
func (d *Director) NearestWaypoint(room string, p common.Vec3) (common.Vec3, bool) {
	r, ok := d.byName[room]
	if !ok || !r.Configured() {
		return common.Vec3{}, false
	}
	wp, _, _ := r.nearest(p)
	return wp, true
}

// Scope limits hearing to room. A position is inside only when the room's
// nearest waypoint is strictly closer than every other room's.
func (d *Director) Scope(room string) noise.Scope {
	return noise.ScopeFunc(func(p common.Vec3) bool {
		return d.InRoom(room, p)
	})
}

func (d *Director) InRoom(room string, p common.Vec3) bool {
	own, other := math.Inf(1), math.Inf(1)
	for _, r := range d.rooms {
		_, _, dist := r.nearest(p)
		if r.name == room {
			own = math.Min(own, dist)
		} else {
			other = math.Min(other, dist)
		}
	}
	return own < other
}

// Room looks a room up by name.
func (d *Director) Room(name string) (*Room, bool) {
	r, ok := d.byName[name]
	return r, ok
}

// Rooms returns rooms in load order.
func (d *Director) Rooms() []*Room {
	return append([]*Room(nil), d.rooms...)
}

// Agent looks up an active secondary.
func (d *Director) Agent(id uuid.UUID) (*agent.Agent, bool) {
	a, ok := d.active[id]
	return a, ok
}

// Agents returns active secondaries in spawn order.
func (d *Director) Agents() []*agent.Agent {
	out := make([]*agent.Agent, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.active[id])
	}
	return out
}

// CheckInvariants reports rooms that are both occupied and cooling, or
// whose occupancy disagrees with the active set.
func (d *Director) CheckInvariants() error {
	perRoom := make(map[string]int, len(d.rooms))
	for _, a := range d.active {
		perRoom[a.Room()]++
	}
	var errs []error
	for _, r := range d.rooms {
		if r.occupied && r.inCooldown {
			errs = append(errs, fmt.Errorf("room %s: occupied while cooling down", r.name))
		}
		if n := perRoom[r.name]; (n == 1) != r.occupied || n > 1 {
			errs = append(errs, fmt.Errorf("room %s: occupied=%t with %d agents", r.name, r.occupied, n))
		}
	}
	return errors.Join(errs...)
}

// Shutdown despawns every secondary.
func (d *Director) Shutdown() {
	for _, a := range d.Agents() {
		a.Despawn()
	}
}
