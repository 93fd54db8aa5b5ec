package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/milk9111/lurker/audio"
	"github.com/milk9111/lurker/director"
	"github.com/milk9111/lurker/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() sim.Snapshot {
	return sim.Snapshot{
		Level:   "manor",
		Tick:    42,
		Primary: sim.AgentView{ID: uuid.New(), Kind: "primary", State: "patrol"},
		Secondaries: []sim.AgentView{
			{ID: uuid.New(), Kind: "secondary", State: "investigate", Room: "kitchen"},
		},
		Rooms: []director.RoomStatus{{Name: "kitchen", Occupied: true}},
	}
}

func get(t *testing.T, s *Server, path string) (int, []byte) {
	t.Helper()
	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestServer_NoSnapshotYet(t *testing.T) {
	s := NewServer()
	for _, path := range []string{"/api/snapshot", "/api/rooms", "/api/agents"} {
		code, _ := get(t, s, path)
		assert.Equal(t, http.StatusServiceUnavailable, code, path)
	}
}

func TestServer_ServesLatest(t *testing.T) {
	s := NewServer()
	s.Publish(testSnapshot())
	next := testSnapshot()
	next.Tick = 43
	s.Publish(next)

	code, body := get(t, s, "/api/snapshot")
	require.Equal(t, http.StatusOK, code)
	var snap sim.Snapshot
	require.NoError(t, json.Unmarshal(body, &snap))
	assert.Equal(t, 43, snap.Tick)
	assert.Equal(t, "manor", snap.Level)

	code, body = get(t, s, "/api/rooms")
	require.Equal(t, http.StatusOK, code)
	var rooms []director.RoomStatus
	require.NoError(t, json.Unmarshal(body, &rooms))
	require.Len(t, rooms, 1)
	assert.True(t, rooms[0].Occupied)

	code, body = get(t, s, "/api/agents")
	require.Equal(t, http.StatusOK, code)
	var agents []sim.AgentView
	require.NoError(t, json.Unmarshal(body, &agents))
	require.Len(t, agents, 2)
	assert.Equal(t, "primary", agents[0].Kind)
	assert.Equal(t, "kitchen", agents[1].Room)
}

func TestServer_WebsocketRequiresUpgrade(t *testing.T) {
	s := NewServer()
	code, _ := get(t, s, "/ws/snapshots")
	assert.Equal(t, http.StatusUpgradeRequired, code)
}

func TestHub_BroadcastNeverBlocks(t *testing.T) {
	h := NewHub("test")
	sent := 0
	for range broadcastQueue + 10 {
		if h.Broadcast([]byte("{}")) {
			sent++
		}
	}
	assert.Equal(t, broadcastQueue, sent)
	assert.Equal(t, 10, h.Dropped())
}

func TestHub_RunStopsWithContext(t *testing.T) {
	h := NewHub("test")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	require.NoError(t, h.BroadcastJSON(map[string]int{"tick": 1}))
	cancel()
	<-done
	assert.Zero(t, h.ClientCount())
}

func TestServer_AudioPacketRouting(t *testing.T) {
	s := NewServer()
	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/audio", bytes.NewReader([]byte{0xfc, 0xff, 0xfe}))
		resp, err := s.App().Test(req)
		require.NoError(t, err)
		resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusServiceUnavailable, post())

	m := audio.NewManager(func() (audio.Device, error) { return audio.NewMockDevice(64), nil }, 64)
	_, err := m.Acquire(uuid.New())
	require.NoError(t, err)
	s.SetAudio(m)
	assert.Equal(t, http.StatusConflict, post())

	s.SetAudio(nil)
	assert.Equal(t, http.StatusServiceUnavailable, post())
}
