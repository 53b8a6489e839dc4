package config

import (
	"fmt"
	"time"

	"github.com/gruntwork-io/go-commons/errors"
	"github.com/gruntwork-io/go-commons/files"
	"github.com/robmorgan/beatwarp/profile"
	"github.com/robmorgan/beatwarp/rhythm"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// GetBeatwarpConfig returns the default configuration
func GetBeatwarpConfig() BeatwarpConfig {
	return NewBeatwarpConfig()
}

// BeatwarpConfig represents options that configure the global behavior of the program
type BeatwarpConfig struct {
	// Project logger
	Logger *logrus.Logger `yaml:"-"`

	Log       LogConfig       `yaml:"log"`
	Project   ProjectConfig   `yaml:"project"`
	Metronome MetronomeConfig `yaml:"metronome"`
	Click     ClickConfig     `yaml:"click"`
	Server    ServerConfig    `yaml:"server"`
	OSC       OSCConfig       `yaml:"osc"`
	DMX       DMXConfig       `yaml:"dmx"`
	UI        UIConfig        `yaml:"ui"`

	// The fixture profiles available to beat lights
	FixtureProfiles map[string]profile.Profile `yaml:"fixtureProfiles"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// ProjectConfig controls new projects and how they are stored.
type ProjectConfig struct {
	DefaultMeasures int     `yaml:"defaultMeasures"`
	DefaultBPM      float64 `yaml:"defaultBpm"`
	HistoryLimit    int     `yaml:"historyLimit"`

	// BeatDir is where .beat files are looked up and saved. Empty means next to the
	// audio file.
	BeatDir       string        `yaml:"beatDir"`
	AutosaveDelay time.Duration `yaml:"autosaveDelay"`
}

// MetronomeConfig is the scheduling cadence of the click track.
type MetronomeConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Volume          float64       `yaml:"volume"`
	DownbeatGain    float64       `yaml:"downbeatGain"`
	Interval        time.Duration `yaml:"interval"`
	HorizonMs       float64       `yaml:"horizonMs"`
	SeekThresholdMs float64       `yaml:"seekThresholdMs"`
	StartupGuardMs  float64       `yaml:"startupGuardMs"`
	PastToleranceMs float64       `yaml:"pastToleranceMs"`
}

// ClickConfig is the sound of the built-in click synth.
type ClickConfig struct {
	DownbeatHz float64       `yaml:"downbeatHz"`
	BeatHz     float64       `yaml:"beatHz"`
	Attack     time.Duration `yaml:"attack"`
	Decay      time.Duration `yaml:"decay"`
	SampleRate int           `yaml:"sampleRate"`
}

type ServerConfig struct {
	Address        string   `yaml:"address"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// OSCConfig sends clicks to an external synth as timetagged OSC bundles.
type OSCConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
}

// DMXConfig flashes patched fixtures through OLA on every click.
type DMXConfig struct {
	Enabled       bool             `yaml:"enabled"`
	OLAAddress    string           `yaml:"olaAddress"`
	Tick          time.Duration    `yaml:"tick"`
	Flash         time.Duration    `yaml:"flash"`
	DownbeatColor string           `yaml:"downbeatColor"`
	BeatColor     string           `yaml:"beatColor"`
	BeatLights    []PatchedFixture `yaml:"beatLights"`
}

type UIConfig struct {
	Zoom     float64           `yaml:"zoom"`
	Width    int               `yaml:"width"`
	Sections map[string]string `yaml:"sectionColors"`
}

// NewBeatwarpConfig creates a new BeatwarpConfig object with reasonable defaults for real usage
func NewBeatwarpConfig() BeatwarpConfig {
	m := rhythm.DefaultConfig()

	return BeatwarpConfig{
		Log: LogConfig{Level: logrus.InfoLevel.String()},
		Project: ProjectConfig{
			DefaultMeasures: 20,
			DefaultBPM:      120,
			HistoryLimit:    100,
			AutosaveDelay:   time.Second,
		},
		Metronome: MetronomeConfig{
			Enabled:         true,
			Volume:          m.Volume,
			DownbeatGain:    m.DownbeatGain,
			Interval:        m.Interval,
			HorizonMs:       m.HorizonMs,
			SeekThresholdMs: m.SeekThresholdMs,
			StartupGuardMs:  m.StartupGuardMs,
			PastToleranceMs: m.PastToleranceMs,
		},
		Click: ClickConfig{
			DownbeatHz: 880,
			BeatHz:     440,
			Attack:     5 * time.Millisecond,
			Decay:      100 * time.Millisecond,
			SampleRate: 44100,
		},
		Server: ServerConfig{
			Address:        "127.0.0.1:8080",
			AllowedOrigins: []string{"*"},
		},
		OSC: OSCConfig{
			Host:    "127.0.0.1",
			Port:    8000,
			Address: "/beatwarp/click",
		},
		DMX: DMXConfig{
			OLAAddress:    "localhost:9010",
			Tick:          40 * time.Millisecond,
			Flash:         80 * time.Millisecond,
			DownbeatColor: "#FF0000",
			BeatColor:     "#FFFFFF",
			BeatLights:    PatchBeatLights(),
		},
		UI: UIConfig{
			Zoom:  100,
			Width: 72,
		},
		FixtureProfiles: initializeFixtureProfiles(),
	}
}

// ConfigFileNotFound is returned when an explicitly requested config file does not exist.
type ConfigFileNotFound struct {
	Path string
}

func (err ConfigFileNotFound) Error() string {
	return fmt.Sprintf("config file %s does not exist", err.Path)
}

// LoadFile reads a YAML config file on top of the defaults. Keys missing from the file
// keep their default value.
func LoadFile(path string) (BeatwarpConfig, error) {
	cfg := NewBeatwarpConfig()
	if !files.FileExists(path) {
		return cfg, errors.WithStackTrace(ConfigFileNotFound{Path: path})
	}

	contents, err := files.ReadFileAsString(path)
	if err != nil {
		return cfg, errors.WithStackTrace(err)
	}
	if err := yaml.Unmarshal([]byte(contents), &cfg); err != nil {
		return cfg, errors.WithStackTrace(err)
	}
	return cfg, nil
}

// RhythmConfig converts the metronome settings for the scheduler.
func (c BeatwarpConfig) RhythmConfig() rhythm.Config {
	return rhythm.Config{
		Interval:        c.Metronome.Interval,
		HorizonMs:       c.Metronome.HorizonMs,
		SeekThresholdMs: c.Metronome.SeekThresholdMs,
		StartupGuardMs:  c.Metronome.StartupGuardMs,
		PastToleranceMs: c.Metronome.PastToleranceMs,
		Volume:          c.Metronome.Volume,
		DownbeatGain:    c.Metronome.DownbeatGain,
	}
}

// Profile looks up the profile a patched fixture refers to.
func (c BeatwarpConfig) Profile(f PatchedFixture) (profile.Profile, bool) {
	p, ok := c.FixtureProfiles[f.Profile]
	return p, ok
}
