// Package nav is a minimal navigation layer on a Chipmunk space: straight
// line steering, boundary walls and agent/player contact detection.
package nav

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/google/uuid"
	"github.com/jakecoffman/cp"
	"github.com/milk9111/lurker/common"
	"github.com/milk9111/lurker/ecs"
	"github.com/milk9111/lurker/ecs/component"
	"github.com/milk9111/lurker/internal/log"
)

const (
	collisionTypeWall cp.CollisionType = iota + 1
	collisionTypeAgent
	collisionTypePlayer
)

// agentGroup keeps agents from pushing each other around.
const agentGroup uint = 1

const (
	DefaultAgentRadius  = 0.5
	DefaultPlayerRadius = 0.4
)

// Contact is an agent that started touching a player during a step.
type Contact struct {
	Agent  uuid.UUID
	Player ecs.Entity
}

// Space owns the Chipmunk space and the bodies in it.
type Space struct {
	space         *cp.Space
	handlersReady bool

	agentRadius  float64
	playerRadius float64

	bodies       map[uuid.UUID]*Body
	order        []uuid.UUID
	agentShapes  map[*cp.Shape]uuid.UUID
	players      map[ecs.Entity]*cp.Body
	playerShapes map[*cp.Shape]ecs.Entity

	contacts  []Contact
	touching  map[Contact]bool
	overlap   map[Contact]bool
	onContact func(Contact)

	logger *slog.Logger
}

type Option func(*Space)

func WithAgentRadius(r float64) Option {
	return func(s *Space) {
		if r > 0 {
			s.agentRadius = r
		}
	}
}

func WithPlayerRadius(r float64) Option {
	return func(s *Space) {
		if r > 0 {
			s.playerRadius = r
		}
	}
}

// WithBounds walls in the rectangle spanned by min and max on the X/Y plane.
func WithBounds(min, max common.Vec3) Option {
	return func(s *Space) {
		corners := []cp.Vector{
			{X: min.X, Y: min.Y}, {X: max.X, Y: min.Y},
			{X: max.X, Y: max.Y}, {X: min.X, Y: max.Y},
		}
		for i := range corners {
			a, b := corners[i], corners[(i+1)%len(corners)]
			shape := cp.NewSegment(s.space.StaticBody, a, b, 0.1)
			shape.SetCollisionType(collisionTypeWall)
			shape.SetFriction(0)
			s.space.AddShape(shape)
		}
	}
}

// OnContact sets the function Step calls for each agent/player contact.
func OnContact(fn func(Contact)) Option {
	return func(s *Space) { s.onContact = fn }
}

func NewSpace(opts ...Option) *Space {
	space := cp.NewSpace()
	space.Iterations = 10
	space.SetGravity(cp.Vector{})

	s := &Space{
		space:        space,
		agentRadius:  DefaultAgentRadius,
		playerRadius: DefaultPlayerRadius,
		bodies:       make(map[uuid.UUID]*Body),
		agentShapes:  make(map[*cp.Shape]uuid.UUID),
		players:      make(map[ecs.Entity]*cp.Body),
		playerShapes: make(map[*cp.Shape]ecs.Entity),
		touching:     make(map[Contact]bool),
		overlap:      make(map[Contact]bool),
		logger:       log.With("component", "nav"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupHandlers()
	return s
}

// AddAgent puts a body for id at p.
func (s *Space) AddAgent(id uuid.UUID, p common.Vec3) (*Body, error) {
	if _, ok := s.bodies[id]; ok {
		return nil, fmt.Errorf("nav: add agent %s: already present", id)
	}
	mass := 1.0
	cpBody := cp.NewBody(mass, math.Inf(1))
	cpBody.SetPosition(cp.Vector{X: p.X, Y: p.Y})
	shape := cp.NewCircle(cpBody, s.agentRadius, cp.Vector{})
	shape.SetCollisionType(collisionTypeAgent)
	shape.SetFriction(0)
	shape.SetFilter(cp.NewShapeFilter(agentGroup, cp.ALL_CATEGORIES, cp.ALL_CATEGORIES))

	s.space.AddBody(cpBody)
	s.space.AddShape(shape)

	b := &Body{id: id, body: cpBody, shape: shape, z: p.Z}
	s.bodies[id] = b
	s.order = append(s.order, id)
	s.agentShapes[shape] = id
	s.logger.Debug("agent added", "agent", id.String(), "x", p.X, "y", p.Y)
	return b, nil
}

// RemoveAgent takes the body for id out of the space. Unknown ids are
// ignored.
func (s *Space) RemoveAgent(id uuid.UUID) {
	b, ok := s.bodies[id]
	if !ok {
		return
	}
	s.space.RemoveShape(b.shape)
	s.space.RemoveBody(b.body)
	delete(s.agentShapes, b.shape)
	delete(s.bodies, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Space) Agent(id uuid.UUID) (*Body, bool) {
	b, ok := s.bodies[id]
	return b, ok
}

func (s *Space) AgentCount() int { return len(s.bodies) }

// SetPlayer creates or moves the kinematic sensor for e.
func (s *Space) SetPlayer(e ecs.Entity, p common.Vec3) {
	if body, ok := s.players[e]; ok {
		body.SetPosition(cp.Vector{X: p.X, Y: p.Y})
		return
	}
	body := cp.NewKinematicBody()
	body.SetPosition(cp.Vector{X: p.X, Y: p.Y})
	shape := cp.NewCircle(body, s.playerRadius, cp.Vector{})
	shape.SetSensor(true)
	shape.SetCollisionType(collisionTypePlayer)
	s.space.AddBody(body)
	s.space.AddShape(shape)
	s.players[e] = body
	s.playerShapes[shape] = e
}

func (s *Space) RemovePlayer(e ecs.Entity) {
	body, ok := s.players[e]
	if !ok {
		return
	}
	for shape, owner := range s.playerShapes {
		if owner == e {
			s.space.RemoveShape(shape)
			delete(s.playerShapes, shape)
		}
	}
	s.space.RemoveBody(body)
	delete(s.players, e)
}

// SyncPlayers mirrors live players from the world and drops the rest.
func (s *Space) SyncPlayers(w *ecs.World) {
	live := make(map[ecs.Entity]bool, w.PlayerCount())
	w.ForEachPlayer(func(e ecs.Entity, p *component.Player) {
		if !p.Alive {
			return
		}
		live[e] = true
		s.SetPlayer(e, p.Position)
	})
	for e := range s.players {
		if !live[e] {
			s.RemovePlayer(e)
		}
	}
}

// Step steers every agent, advances the space and then dispatches the
// contacts that began during the step. A pair that stays overlapped is not
// reported again until it separates.
func (s *Space) Step(dt float64) {
	if dt <= 0 {
		return
	}
	s.contacts = s.contacts[:0]
	for _, id := range s.order {
		s.bodies[id].steer(dt)
	}
	s.space.Step(dt)
	for _, id := range s.order {
		s.bodies[id].pending = false
	}
	s.touching, s.overlap = s.overlap, s.touching
	clear(s.overlap)
	s.dispatch()
}

// Contacts returns the contacts that began during the last step.
func (s *Space) Contacts() []Contact {
	return append([]Contact(nil), s.contacts...)
}

func (s *Space) dispatch() {
	if s.onContact == nil {
		return
	}
	for _, c := range s.contacts {
		s.onContact(c)
	}
}

func (s *Space) setupHandlers() {
	if s.handlersReady {
		return
	}

	contactHandler := s.space.NewCollisionHandler(collisionTypeAgent, collisionTypePlayer)
	contactHandler.UserData = s
	contactHandler.PreSolveFunc = func(arb *cp.Arbiter, space *cp.Space, userData interface{}) bool {
		nav, ok := userData.(*Space)
		if !ok || nav == nil {
			return true
		}
		shapeA, shapeB := arb.Shapes()
		id, okA := nav.agentShapes[shapeA]
		player, okB := nav.playerShapes[shapeB]
		if !okA || !okB {
			id, okA = nav.agentShapes[shapeB]
			player, okB = nav.playerShapes[shapeA]
		}
		if !okA || !okB {
			return true
		}
		c := Contact{Agent: id, Player: player}
		if nav.overlap[c] {
			return true
		}
		nav.overlap[c] = true
		if !nav.touching[c] {
			nav.contacts = append(nav.contacts, c)
		}
		return true
	}

	s.handlersReady = true
}
