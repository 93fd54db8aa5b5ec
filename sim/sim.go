// Package sim hosts one session: the world, the navigation space, the shared
// capture device, the primary agent and the encounter director, advanced
// together one tick at a time.
package sim

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/milk9111/lurker/agent"
	"github.com/milk9111/lurker/audio"
	"github.com/milk9111/lurker/common"
	"github.com/milk9111/lurker/director"
	"github.com/milk9111/lurker/ecs"
	"github.com/milk9111/lurker/ecs/component"
	"github.com/milk9111/lurker/ecs/system"
	"github.com/milk9111/lurker/internal/log"
	"github.com/milk9111/lurker/nav"
	"github.com/milk9111/lurker/noise"
	"github.com/milk9111/lurker/prefabs"
)

// boundsMargin pads the level's extent before walls go up.
const boundsMargin = 5.0

type Sim struct {
	spec   *prefabs.LevelSpec
	cfg    component.DetectionConfig
	tuning component.AgentTuning

	world    *ecs.World
	space    *nav.Space
	audio    *audio.Manager
	traps    *system.TrapSystem
	primary  *agent.Agent
	director *director.Director
	sched    *ecs.Scheduler
	puppets  map[uuid.UUID]*Puppet

	players     map[string]ecs.Entity
	playerOrder []string
	sources     map[string]ecs.Entity
	sourceOrder []string

	boundsMin, boundsMax common.Vec3

	tick   int
	time   float64
	events []ecs.Event
	stats  Stats
	lethal bool
	closed bool

	logger *slog.Logger
}

// Stats accumulates over a session.
type Stats struct {
	Spawns         int `json:"spawns"`
	Despawns       int `json:"despawns"`
	Attacks        int `json:"attacks"`
	TrapsTriggered int `json:"traps_triggered"`
	SourcesToggled int `json:"sources_toggled"`
	PlayersKilled  int `json:"players_killed"`
}

type options struct {
	rand   *rand.Rand
	opener audio.Opener
	hooks  *agent.Hooks
	noHook bool
	lethal bool
}

type Option func(*options)

// WithSeed makes spawn stagger and timer spawn points reproducible.
func WithSeed(seed int64) Option {
	return func(o *options) { o.rand = rand.New(rand.NewSource(seed)) }
}

// WithOpener replaces the capture backend named by the level.
func WithOpener(open audio.Opener) Option {
	return func(o *options) { o.opener = open }
}

// WithHooks uses h instead of the level's hook script.
func WithHooks(h *agent.Hooks) Option {
	return func(o *options) { o.hooks = h }
}

// WithoutHooks ignores the level's hook script.
func WithoutHooks() Option {
	return func(o *options) { o.noHook = true }
}

// WithLethalAttacks kills the nearest live player in reach whenever an agent
// attacks.
func WithLethalAttacks() Option {
	return func(o *options) { o.lethal = true }
}

// New builds a session from spec. The primary agent acquires the capture
// device before any secondary exists, so it owns it.
func New(spec *prefabs.LevelSpec, opts ...Option) (*Sim, error) {
	if spec == nil {
		return nil, errors.New("sim: nil level spec")
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rand == nil {
		o.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	s := &Sim{
		spec:    spec,
		cfg:     spec.DetectionConfig(),
		tuning:  spec.AgentTuning(),
		world:   ecs.NewWorld(),
		traps:   system.NewTrapSystem(),
		puppets: make(map[uuid.UUID]*Puppet),
		players: make(map[string]ecs.Entity),
		sources: make(map[string]ecs.Entity),
		lethal:  o.lethal,
		logger:  log.With("component", "sim", "level", spec.Name),
	}

	if err := s.populate(); err != nil {
		return nil, err
	}
	s.boundsMin, s.boundsMax = levelBounds(spec)
	s.space = nav.NewSpace(
		nav.WithBounds(s.boundsMin, s.boundsMax),
		nav.OnContact(s.onContact),
	)
	s.space.SyncPlayers(s.world)

	opener := o.opener
	if opener == nil {
		var err error
		opener, err = audio.NewOpener(spec.AudioConfig())
		if err != nil {
			return nil, fmt.Errorf("sim: audio: %w", err)
		}
	}
	s.audio = audio.NewManager(opener, s.tuning.SampleWindow)

	hooks := o.hooks
	if hooks == nil && !o.noHook && spec.Hooks != "" {
		src, err := prefabs.LoadScript(spec.Hooks)
		if err != nil {
			return nil, fmt.Errorf("sim: load hooks %s: %w", spec.Hooks, err)
		}
		hooks, err = agent.CompileHooks(spec.Hooks, src)
		if err != nil {
			return nil, fmt.Errorf("sim: %w", err)
		}
	}

	if err := s.spawnPrimary(hooks); err != nil {
		return nil, err
	}

	rooms := make([]director.RoomSpec, 0, len(spec.Rooms))
	for _, r := range spec.Rooms {
		rooms = append(rooms, director.RoomSpec{Name: r.Name, Waypoints: r.Waypoints})
	}
	d, err := director.New(director.Config{
		Detection: &s.cfg,
		Tuning:    s.tuning,
		Rooms:     rooms,
		Query:     s.world,
		Embodier:  embodier{s},
	},
		director.WithRand(o.rand),
		director.WithPrimary(s.primary),
		director.WithAudio(s.audio),
		director.WithHooks(hooks),
		director.WithEvents(s.world.Events()),
	)
	if err != nil {
		s.primary.Close()
		return nil, fmt.Errorf("sim: %w", err)
	}
	s.director = d

	s.sched = ecs.NewScheduler(
		s.traps,
		ecs.SystemFunc(func(_ *ecs.World, dt float64) { s.primary.Update(dt) }),
		ecs.SystemFunc(func(_ *ecs.World, dt float64) { s.director.UpdateAgents(dt) }),
		ecs.SystemFunc(func(_ *ecs.World, dt float64) { s.director.Update(dt) }),
		ecs.SystemFunc(func(w *ecs.World, dt float64) {
			s.space.SyncPlayers(w)
			s.space.Step(dt)
		}),
	)

	s.logger.Info("session ready",
		"rooms", len(rooms),
		"sources", len(s.sourceOrder),
		"players", len(s.playerOrder),
		"capture", s.audio.Active(),
	)
	return s, nil
}

func (s *Sim) populate() error {
	for i, p := range s.spec.Players {
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("player%d", i+1)
		}
		if _, dup := s.players[name]; dup {
			return fmt.Errorf("sim: duplicate player %q", name)
		}
		e := s.world.AddPlayer(&component.Player{Name: name, Position: p.Position, Alive: true})
		s.players[name] = e
		s.playerOrder = append(s.playerOrder, name)
	}
	for i, n := range s.spec.NoiseSources {
		name := n.Name
		if name == "" {
			name = fmt.Sprintf("source%d", i+1)
		}
		if _, dup := s.sources[name]; dup {
			return fmt.Errorf("sim: duplicate noise source %q", name)
		}
		src := component.NewNoiseSource(name, n.Position, n.Intensity, n.Active)
		src.Trap = n.TrapComponent()
		s.sources[name] = s.world.AddNoiseSource(src)
		s.sourceOrder = append(s.sourceOrder, name)
	}
	return nil
}

func (s *Sim) spawnPrimary(hooks *agent.Hooks) error {
	id := uuid.New()
	body, err := s.space.AddAgent(id, s.spec.Primary.Position)
	if err != nil {
		return fmt.Errorf("sim: primary: %w", err)
	}
	puppet := newPuppet(id, s.onAttack)
	s.puppets[id] = puppet

	handle, err := s.audio.Acquire(id)
	if err != nil {
		s.logger.Warn("primary runs on ambient loudness", "err", err)
	}

	a, err := agent.New(agent.Params{
		Kind:      agent.Primary,
		Detection: &s.cfg,
		Tuning:    s.tuning,
		Nav:       body,
		Anim:      puppet,
		Evaluator: noise.NewEvaluator(noise.NewField(s.world)),
	},
		agent.WithID(id),
		agent.WithWaypoints(s.spec.Primary.Waypoints),
		agent.WithAudio(handle),
		agent.WithHooks(hooks),
	)
	if err != nil {
		handle.Release()
		return fmt.Errorf("sim: primary: %w", err)
	}
	s.primary = a
	return nil
}

// Tick advances the session by dt seconds.
func (s *Sim) Tick(dt float64) error {
	if s.closed {
		return ErrClosed
	}
	if dt <= 0 {
		return nil
	}
	s.sched.Update(s.world, dt)
	s.tick++
	s.time += dt
	s.collectEvents()
	return nil
}

func (s *Sim) collectEvents() {
	s.events = s.world.Events().Drain()
	for _, e := range s.events {
		switch e.Type {
		case ecs.EventAgentSpawned:
			s.stats.Spawns++
		case ecs.EventAgentDespawned:
			s.stats.Despawns++
		case ecs.EventAgentAttack:
			s.stats.Attacks++
		case ecs.EventTrapTriggered:
			s.stats.TrapsTriggered++
		case ecs.EventSourceToggled:
			s.stats.SourcesToggled++
		case ecs.EventPlayerDied:
			s.stats.PlayersKilled++
		}
	}
}

// agent looks up the primary or an active secondary.
func (s *Sim) agent(id uuid.UUID) (*agent.Agent, bool) {
	if s.primary != nil && s.primary.ID() == id {
		return s.primary, true
	}
	return s.director.Agent(id)
}

func (s *Sim) onContact(c nav.Contact) {
	if a, ok := s.agent(c.Agent); ok {
		a.OnPlayerContact(c.Player)
	}
}

func (s *Sim) onAttack(id uuid.UUID) {
	s.world.Events().Push(ecs.Event{Type: ecs.EventAgentAttack, Data: id})
	if !s.lethal {
		return
	}
	a, ok := s.agent(id)
	if !ok {
		return
	}
	reach := s.tuning.AttackDistance + nav.DefaultAgentRadius + nav.DefaultPlayerRadius
	victim, best := "", math.Inf(1)
	for _, name := range s.playerOrder {
		p, _ := s.world.Player(s.players[name])
		if !p.Alive {
			continue
		}
		if d := common.Dist(a.Position(), p.Position); d <= reach && d < best {
			victim, best = name, d
		}
	}
	if victim != "" {
		_ = s.KillPlayer(victim)
	}
}

// MovePlayer teleports a live player.
func (s *Sim) MovePlayer(name string, to common.Vec3) error {
	p, err := s.livePlayer(name)
	if err != nil {
		return err
	}
	p.Position = to
	return nil
}

// MovePlayerBy moves a live player by delta.
func (s *Sim) MovePlayerBy(name string, delta common.Vec3) error {
	p, err := s.livePlayer(name)
	if err != nil {
		return err
	}
	p.Position = p.Position.Add(delta)
	return nil
}

// KillPlayer marks a player dead. Agents locked onto them give up on their
// next update.
func (s *Sim) KillPlayer(name string) error {
	p, err := s.livePlayer(name)
	if err != nil {
		return err
	}
	p.Alive = false
	s.logger.Info("player died", "player", name)
	s.world.Events().Push(ecs.Event{Type: ecs.EventPlayerDied, Entity: s.players[name], Data: name})
	return nil
}

func (s *Sim) livePlayer(name string) (*component.Player, error) {
	e, ok := s.players[name]
	if !ok {
		return nil, fmt.Errorf("sim: %w: %s", ErrUnknownPlayer, name)
	}
	p, ok := s.world.Player(e)
	if !ok {
		return nil, fmt.Errorf("sim: %w: %s", ErrUnknownPlayer, name)
	}
	if !p.Alive {
		return nil, fmt.Errorf("sim: %w: %s", ErrPlayerDead, name)
	}
	return p, nil
}

// ToggleSource flips a source on or off and returns its new state.
func (s *Sim) ToggleSource(name string) (bool, error) {
	e, ok := s.sources[name]
	if !ok {
		return false, fmt.Errorf("sim: %w: %s", ErrUnknownSource, name)
	}
	src, _ := s.world.NoiseSource(e)
	src.Toggle()
	s.logger.Debug("source toggled", "source", name, "active", src.Active)
	s.world.Events().Push(ecs.Event{Type: ecs.EventSourceToggled, Entity: e, Data: src.Active})
	return src.Active, nil
}

// TriggerTrap sets a trap off on behalf of a live player. It reports false
// when the trap is still cooling down.
func (s *Sim) TriggerTrap(trap, player string) (bool, error) {
	e, ok := s.sources[trap]
	if !ok {
		return false, fmt.Errorf("sim: %w: %s", ErrUnknownSource, trap)
	}
	if src, _ := s.world.NoiseSource(e); !src.IsTrap() {
		return false, fmt.Errorf("sim: %w: %s", ErrNotATrap, trap)
	}
	if _, err := s.livePlayer(player); err != nil {
		return false, err
	}
	return s.traps.Trigger(s.world, e, s.players[player]), nil
}

// NearestTrap returns the trap closest to p.
func (s *Sim) NearestTrap(p common.Vec3) (string, bool) {
	name, best := "", math.Inf(1)
	for _, n := range s.sourceOrder {
		src, _ := s.world.NoiseSource(s.sources[n])
		if !src.IsTrap() {
			continue
		}
		if d := common.Dist(p, src.Position); d < best {
			name, best = n, d
		}
	}
	return name, name != ""
}

// Close despawns every secondary and then releases the primary, which closes
// the capture device. It is safe to call twice.
func (s *Sim) Close() {
	if s.closed {
		return
	}
	s.closed = true
	s.director.Shutdown()
	s.collectEvents()
	s.primary.Close()
	s.logger.Info("session closed", "ticks", s.tick, "time", s.time, "spawns", s.stats.Spawns)
}

func (s *Sim) Spec() *prefabs.LevelSpec           { return s.spec }
func (s *Sim) World() *ecs.World                  { return s.world }
func (s *Sim) Space() *nav.Space                  { return s.space }
func (s *Sim) Audio() *audio.Manager              { return s.audio }
func (s *Sim) Primary() *agent.Agent              { return s.primary }
func (s *Sim) Director() *director.Director       { return s.director }
func (s *Sim) Time() float64                      { return s.time }
func (s *Sim) Ticks() int                         { return s.tick }
func (s *Sim) Stats() Stats                       { return s.stats }
func (s *Sim) Players() []string                  { return append([]string(nil), s.playerOrder...) }
func (s *Sim) Sources() []string                  { return append([]string(nil), s.sourceOrder...) }
func (s *Sim) Bounds() (common.Vec3, common.Vec3) { return s.boundsMin, s.boundsMax }

// Puppet returns the animation stand-in for an agent.
func (s *Sim) Puppet(id uuid.UUID) (*Puppet, bool) {
	p, ok := s.puppets[id]
	return p, ok
}

type embodier struct{ s *Sim }

func (e embodier) Embody(id uuid.UUID, at common.Vec3) (agent.Navigator, agent.Animator, error) {
	body, err := e.s.space.AddAgent(id, at)
	if err != nil {
		return nil, nil, err
	}
	p := newPuppet(id, e.s.onAttack)
	e.s.puppets[id] = p
	return body, p, nil
}

func (e embodier) Release(id uuid.UUID) {
	e.s.space.RemoveAgent(id)
	delete(e.s.puppets, id)
}

func levelBounds(spec *prefabs.LevelSpec) (common.Vec3, common.Vec3) {
	lo := common.V3(math.Inf(1), math.Inf(1), 0)
	hi := common.V3(math.Inf(-1), math.Inf(-1), 0)
	grow := func(p common.Vec3) {
		lo.X, lo.Y = math.Min(lo.X, p.X), math.Min(lo.Y, p.Y)
		hi.X, hi.Y = math.Max(hi.X, p.X), math.Max(hi.Y, p.Y)
	}
	grow(spec.Primary.Position)
	for _, wp := range spec.Primary.Waypoints {
		grow(wp)
	}
	for _, r := range spec.Rooms {
		for _, wp := range r.Waypoints {
			grow(wp)
		}
	}
	for _, n := range spec.NoiseSources {
		grow(n.Position)
	}
	for _, p := range spec.Players {
		grow(p.Position)
	}
	lo.X -= boundsMargin
	lo.Y -= boundsMargin
	hi.X += boundsMargin
	hi.Y += boundsMargin
	return lo, hi
}
