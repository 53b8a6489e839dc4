package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gruntwork-io/go-commons/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robmorgan/beatwarp/rhythm"
)

func TestDefaults(t *testing.T) {
	t.Parallel()

	cfg := NewBeatwarpConfig()
	assert.Equal(t, rhythm.DefaultConfig(), cfg.RhythmConfig())
	assert.Equal(t, 20, cfg.Project.DefaultMeasures)
	assert.Equal(t, 880.0, cfg.Click.DownbeatHz)
	assert.Equal(t, 440.0, cfg.Click.BeatHz)

	require.Len(t, cfg.DMX.BeatLights, 1)
	p, ok := cfg.Profile(cfg.DMX.BeatLights[0])
	require.True(t, ok)
	assert.True(t, p.HasColor())
}

func TestLoadFileOverlaysDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "beatwarp.yaml")
	contents := `
metronome:
  volume: 0.8
  interval: 10ms
project:
  defaultMeasures: 8
dmx:
  enabled: true
  beatLights:
    - name: floor
      address: 17
      universe: 2
      profile: dimmer
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 0.8, cfg.Metronome.Volume)
	assert.Equal(t, 10*time.Millisecond, cfg.Metronome.Interval)
	assert.Equal(t, 100.0, cfg.Metronome.HorizonMs, "unset keys keep their default")
	assert.Equal(t, 8, cfg.Project.DefaultMeasures)
	assert.Equal(t, 120.0, cfg.Project.DefaultBPM)
	assert.True(t, cfg.DMX.Enabled)
	assert.Equal(t, []PatchedFixture{{Name: "floor", Address: 17, Universe: 2, Profile: "dimmer"}}, cfg.DMX.BeatLights)
	assert.Contains(t, cfg.FixtureProfiles, "shehds-par")
}

func TestLoadFileMissing(t *testing.T) {
	t.Parallel()

	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.IsType(t, ConfigFileNotFound{}, errors.Unwrap(err))
}

func TestLoadFileInvalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("metronome: [oops"), 0o644))

	_, err := LoadFile(path)
	require.Error(t, err)
}
