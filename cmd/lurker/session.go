package main

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/milk9111/lurker/common"
	"github.com/milk9111/lurker/internal/log"
	"github.com/milk9111/lurker/prefabs"
	"github.com/milk9111/lurker/sim"
	"github.com/milk9111/lurker/telemetry"
)

const walkSpeed = 1.5

type summary struct {
	session int
	level   string
	ticks   int
	time    float64
	stats   sim.Stats
	primary string
	alive   int
}

func (s summary) log() {
	log.Info("session finished",
		"session", s.session,
		"level", s.level,
		"ticks", s.ticks,
		"time", s.time,
		"spawns", s.stats.Spawns,
		"despawns", s.stats.Despawns,
		"attacks", s.stats.Attacks,
		"traps", s.stats.TrapsTriggered,
		"killed", s.stats.PlayersKilled,
		"players_alive", s.alive,
		"primary_state", s.primary,
	)
}

func runSession(ctx context.Context, spec *prefabs.LevelSpec, cfg config, index int, srv *telemetry.Server) (summary, error) {
	seed := cfg.seed + int64(index)
	opts := []sim.Option{sim.WithSeed(seed)}
	if cfg.lethal {
		opts = append(opts, sim.WithLethalAttacks())
	}
	s, err := sim.New(spec, opts...)
	if err != nil {
		return summary{}, err
	}
	defer s.Close()
	if srv != nil {
		srv.SetAudio(s.Audio())
		defer srv.SetAudio(nil)
	}

	log.Info("session started", "session", index, "level", spec.Name, "seed", seed)

	var walkers *wanderers
	if cfg.wander {
		walkers = newWanderers(spec, rand.New(rand.NewSource(seed)))
	}

	for t := 0; t < cfg.ticks; t++ {
		if ctx.Err() != nil {
			break
		}
		walkers.step(s, cfg.dt)
		if err := s.Tick(cfg.dt); err != nil {
			if errors.Is(err, sim.ErrClosed) {
				break
			}
			return summary{}, err
		}
		if srv != nil && cfg.publishEvery > 0 && s.Ticks()%cfg.publishEvery == 0 {
			srv.Publish(s.Snapshot())
		}
		if cfg.realtime {
			time.Sleep(time.Duration(cfg.dt * float64(time.Second)))
		}
		if allDead(s) {
			log.Info("every player is dead", "session", index, "time", s.Time())
			break
		}
	}

	snap := s.Snapshot()
	if srv != nil {
		srv.Publish(snap)
	}
	alive := 0
	for _, p := range snap.Players {
		if p.Alive {
			alive++
		}
	}
	return summary{
		session: index,
		level:   spec.Name,
		ticks:   snap.Tick,
		time:    snap.Time,
		stats:   snap.Stats,
		primary: snap.Primary.State,
		alive:   alive,
	}, nil
}

func allDead(s *sim.Sim) bool {
	players := s.PlayerViews()
	if len(players) == 0 {
		return false
	}
	for _, p := range players {
		if p.Alive {
			return false
		}
	}
	return true
}

// wanderers walk players between room waypoints so headless sessions have
// someone to hunt.
type wanderers struct {
	points []common.Vec3
	goals  map[string]common.Vec3
	rand   *rand.Rand
}

func newWanderers(spec *prefabs.LevelSpec, r *rand.Rand) *wanderers {
	w := &wanderers{goals: make(map[string]common.Vec3), rand: r}
	for _, room := range spec.Rooms {
		w.points = append(w.points, room.Waypoints...)
	}
	w.points = append(w.points, spec.Primary.Waypoints...)
	return w
}

func (w *wanderers) step(s *sim.Sim, dt float64) {
	if w == nil || len(w.points) == 0 {
		return
	}
	for _, p := range s.PlayerViews() {
		if !p.Alive {
			continue
		}
		goal, ok := w.goals[p.Name]
		if !ok || common.Dist(p.Position, goal) < 0.1 {
			goal = w.points[w.rand.Intn(len(w.points))]
			w.goals[p.Name] = goal
		}
		d := goal.Sub(p.Position)
		dist := d.Len()
		if dist == 0 {
			continue
		}
		step := walkSpeed * dt
		if step > dist {
			step = dist
		}
		_ = s.MovePlayerBy(p.Name, d.Scale(step/dist))
	}
}
