// Package telemetry serves session snapshots over HTTP and streams them to
// websocket clients.
package telemetry

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"
	"github.com/milk9111/lurker/audio"
	"github.com/milk9111/lurker/internal/log"
	"github.com/milk9111/lurker/sim"
)

// Server keeps the latest snapshot for polling clients and broadcasts each
// published one to websocket subscribers.
type Server struct {
	app    *fiber.App
	hub    *Hub
	mu     sync.RWMutex
	latest *sim.Snapshot
	audio  *audio.Manager
	logger *slog.Logger
}

func NewServer() *Server {
	s := &Server{
		hub:    NewHub("snapshots"),
		logger: log.With("component", "telemetry"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "lurker telemetry",
		DisableStartupMessage: true,
	})
	app.Use(cors.New())

	api := app.Group("/api")
	api.Get("/snapshot", s.handleSnapshot)
	api.Get("/rooms", s.handleRooms)
	api.Get("/agents", s.handleAgents)
	api.Post("/audio", s.handleAudioPacket)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/snapshots", websocket.New(s.handleSnapshotsWS))
	app.Get("/ws/audio", websocket.New(s.handleAudioWS))

	s.app = app
	return s
}

func (s *Server) App() *fiber.App { return s.app }
func (s *Server) Hub() *Hub       { return s.hub }

// Publish stores snap and queues it for subscribers. It never blocks the
// caller on slow clients.
func (s *Server) Publish(snap sim.Snapshot) {
	s.mu.Lock()
	s.latest = &snap
	s.mu.Unlock()
	if err := s.hub.BroadcastJSON(snap); err != nil {
		s.logger.Warn("snapshot not encodable", "tick", snap.Tick, "err", err)
	}
}

// SetAudio routes incoming voice packets to m. Nil stops accepting them.
func (s *Server) SetAudio(m *audio.Manager) {
	s.mu.Lock()
	s.audio = m
	s.mu.Unlock()
}

func (s *Server) push(packet []byte) error {
	s.mu.RLock()
	m := s.audio
	s.mu.RUnlock()
	if m == nil {
		return audio.ErrDeviceClosed
	}
	return m.Push(packet)
}

// Latest returns the last published snapshot.
func (s *Server) Latest() (sim.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return sim.Snapshot{}, false
	}
	return *s.latest, true
}

// Run listens on addr until ctx is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	go s.hub.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- s.app.Listen(addr)
	}()

	select {
	case <-ctx.Done():
		if err := s.app.Shutdown(); err != nil {
			return err
		}
		<-errCh
		return nil
	case err := <-errCh:
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}
}

var errNoSnapshot = fiber.NewError(fiber.StatusServiceUnavailable, "no snapshot published yet")

func (s *Server) handleSnapshot(c *fiber.Ctx) error {
	snap, ok := s.Latest()
	if !ok {
		return errNoSnapshot
	}
	return c.JSON(snap)
}

func (s *Server) handleRooms(c *fiber.Ctx) error {
	snap, ok := s.Latest()
	if !ok {
		return errNoSnapshot
	}
	return c.JSON(snap.Rooms)
}

func (s *Server) handleAgents(c *fiber.Ctx) error {
	snap, ok := s.Latest()
	if !ok {
		return errNoSnapshot
	}
	agents := append([]sim.AgentView{snap.Primary}, snap.Secondaries...)
	return c.JSON(agents)
}

func (s *Server) handleSnapshotsWS(c *websocket.Conn) {
	if snap, ok := s.Latest(); ok {
		if err := c.WriteJSON(snap); err != nil {
			return
		}
	}
	NewClient(s.hub, c).Run()
}

// handleAudioPacket accepts one encoded voice packet per request.
func (s *Server) handleAudioPacket(c *fiber.Ctx) error {
	// The body buffer is reused by fasthttp once the handler returns.
	packet := append([]byte(nil), c.Body()...)
	err := s.push(packet)
	switch {
	case err == nil:
		return c.SendStatus(fiber.StatusNoContent)
	case errors.Is(err, audio.ErrDeviceClosed):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	case errors.Is(err, audio.ErrNotPacketSink):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
}

// handleAudioWS treats every binary message as one voice packet.
func (s *Server) handleAudioWS(c *websocket.Conn) {
	for {
		mt, msg, err := c.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.BinaryMessage {
			continue
		}
		if err := s.push(msg); err != nil {
			s.logger.Debug("audio packet dropped", "bytes", len(msg), "err", err)
		}
	}
}
