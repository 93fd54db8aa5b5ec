package prefabs

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/milk9111/lurker/common"
	"github.com/milk9111/lurker/ecs/component"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadLevelSpec_Default(t *testing.T) {
	spec, err := LoadLevelSpec("")
	require.NoError(t, err)

	assert.Equal(t, "manor", spec.Name)
	assert.Len(t, spec.Rooms, 5)
	assert.Len(t, spec.Primary.Waypoints, 4)
	assert.Equal(t, "agent_cues.tengo", spec.Hooks)

	cfg := spec.DetectionConfig()
	assert.Equal(t, component.DefaultDetectionConfig(), cfg)
	assert.Equal(t, component.DefaultAgentTuning(), spec.AgentTuning())

	var attic *RoomSpec
	for i := range spec.Rooms {
		if spec.Rooms[i].Name == "attic" {
			attic = &spec.Rooms[i]
		}
	}
	require.NotNil(t, attic)
	assert.Empty(t, attic.Waypoints)
	require.NotNil(t, attic.Color)
	assert.Equal(t, color.NRGBA{R: 0x5c, G: 0x63, B: 0x70, A: 0xff}, attic.Color.Color)
}

func TestLoadLevelSpec_NotFound(t *testing.T) {
	_, err := LoadLevelSpec("no_such_level")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prefabs: load no_such_level")
}

func TestLoadLevelSpec_ExplicitPathAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tiny.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
name: tiny
detection:
  detection_range: 8
agent:
  run_speed: 6
primary:
  waypoints:
    - {x: 1, y: 2, z: 0}
noise_sources:
  - name: bell
    position: {x: 3, y: 3, z: 0}
    intensity: 1
    trap: {duration: 2}
`), 0o644))

	spec, err := LoadLevelSpec(path)
	require.NoError(t, err)

	cfg := spec.DetectionConfig()
	assert.Equal(t, 8.0, cfg.DetectionRange)
	assert.Equal(t, 0.1, cfg.NoiseThreshold)
	assert.Equal(t, 300.0, cfg.AutoSpawnInterval)

	tuning := spec.AgentTuning()
	assert.Equal(t, 6.0, tuning.RunSpeed)
	assert.Equal(t, 2.0, tuning.PatrolSpeed)

	assert.Equal(t, common.V3(1, 2, 0), spec.Primary.Waypoints[0])

	trap := spec.NoiseSources[0].TrapComponent()
	require.NotNil(t, trap)
	assert.Equal(t, 2.0, trap.Duration)
	assert.Equal(t, component.DefaultTrapCooldown, trap.Cooldown)
	assert.Equal(t, component.DefaultTrapTriggerRadius, trap.TriggerRadius)
}

func TestLoadLevelSpec_DiskOverride(t *testing.T) {
	root := t.TempDir()
	prev := DiskRoot
	DiskRoot = root
	t.Cleanup(func() { DiskRoot = prev })

	require.NoError(t, os.MkdirAll(filepath.Join(root, "levels"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "levels", "manor.yaml"), []byte(`
name: overridden
primary:
  waypoints: [{x: 0, y: 0, z: 0}]
`), 0o644))

	spec, err := LoadLevelSpec("manor")
	require.NoError(t, err)
	assert.Equal(t, "overridden", spec.Name)

	_, ok := ModTime("manor")
	assert.True(t, ok)
}

func TestLevelSpec_Validate(t *testing.T) {
	neg := -1.0
	zero := 0.0
	badWindow := 0

	tests := []struct {
		name    string
		mutate  func(s *LevelSpec)
		wantErr string
	}{
		{name: "valid", mutate: func(s *LevelSpec) {}},
		{name: "zero_range", mutate: func(s *LevelSpec) { s.Detection.DetectionRange = &zero }, wantErr: "detection.detection_range"},
		{name: "negative_threshold", mutate: func(s *LevelSpec) { s.Detection.NoiseThreshold = &neg }, wantErr: "detection.noise_threshold"},
		{name: "zero_threshold_ok", mutate: func(s *LevelSpec) { s.Detection.NoiseThreshold = &zero }},
		{name: "zero_duration", mutate: func(s *LevelSpec) { s.Detection.SecondaryDuration = &zero }, wantErr: "detection.secondary_duration"},
		{name: "zero_window", mutate: func(s *LevelSpec) { s.Agent.SampleWindow = &badWindow }, wantErr: "agent.sample_window"},
		{name: "no_primary_route", mutate: func(s *LevelSpec) { s.Primary.Waypoints = nil }, wantErr: "primary.waypoints"},
		{name: "duplicate_room", mutate: func(s *LevelSpec) {
			s.Rooms = append(s.Rooms, RoomSpec{Name: "a", Waypoints: []common.Vec3{{}}}, RoomSpec{Name: "a"})
		}, wantErr: "duplicate name"},
		{name: "empty_room_is_not_an_error", mutate: func(s *LevelSpec) { s.Rooms = []RoomSpec{{Name: "bare"}} }},
		{name: "silent_source", mutate: func(s *LevelSpec) {
			s.NoiseSources = []NoiseSourceSpec{{Name: "mute", Intensity: 0}}
		}, wantErr: "intensity must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &LevelSpec{Primary: PrimarySpec{Waypoints: []common.Vec3{{}}}}
			tt.mutate(s)
			err := s.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScript_Embedded(t *testing.T) {
	src, err := LoadScript("agent_cues.tengo")
	require.NoError(t, err)
	assert.Contains(t, string(src), "onEnter")
}

func TestLevels(t *testing.T) {
	assert.Contains(t, Levels(), "manor.yaml")
}

func TestParseHexColor(t *testing.T) {
	tests := []struct {
		in      string
		want    color.NRGBA
		wantErr bool
	}{
		{in: "#ff0000", want: color.NRGBA{R: 255, A: 255}},
		{in: "00ff0080", want: color.NRGBA{G: 255, A: 0x80}},
		{in: "#fff", wantErr: true},
		{in: "#gg0000", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseHexColor(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
