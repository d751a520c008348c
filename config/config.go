// Package config loads the engine settings: built-in defaults overlaid with
// an optional user config file.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

type Config struct {
	DefaultBPM         float64 `yaml:"default_bpm"`
	DefaultSampleRate  uint32  `yaml:"default_sample_rate"`
	PPQ                uint16  `yaml:"ppq"`
	LinesPerBeat       uint16  `yaml:"lines_per_beat"`
	WaveformBucketSize int     `yaml:"waveform_bucket_size"`
	RenderTailSeconds  float64 `yaml:"render_tail_seconds"`
	FFmpegPath         string  `yaml:"ffmpeg_path"`
	AutosaveDir        string  `yaml:"autosave_dir"`
	CacheDir           string  `yaml:"cache_dir"`
}

// PathEnv names an environment variable that overrides the config file
// location.
const PathEnv = "VOLTLANE_CONFIG_PATH"

//go:embed default.yml
var defaultConfigYaml []byte

func Default() Config {
	var c Config
	if err := yaml.UnmarshalStrict(defaultConfigYaml, &c); err != nil {
		panic(fmt.Errorf("failed to unmarshal default config: %w", err))
	}
	return c
}

// Path returns the user config file location: $VOLTLANE_CONFIG_PATH if set,
// else voltlane/config.yml in the user config dir.
func Path() (string, error) {
	if p := os.Getenv(PathEnv); p != "" {
		return p, nil
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "voltlane", "config.yml"), nil
}

// Load returns the defaults overlaid with the user config file. A missing
// file is not an error. Empty directories are filled in below the user cache
// dir.
func Load() (Config, error) {
	c := Default()
	path, err := Path()
	if err == nil {
		err = overlay(&c, path)
	}
	c.fillDirs()
	return c, err
}

func overlay(c *Config, path string) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("could not read config %v: %w", path, err)
	}
	if err := yaml.UnmarshalStrict(b, c); err != nil {
		return fmt.Errorf("could not parse config %v: %w", path, err)
	}
	return nil
}

func (c *Config) fillDirs() {
	if c.AutosaveDir != "" && c.CacheDir != "" {
		return
	}
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	if c.AutosaveDir == "" {
		c.AutosaveDir = filepath.Join(base, "voltlane", "autosave")
	}
	if c.CacheDir == "" {
		c.CacheDir = filepath.Join(base, "voltlane", "waveforms")
	}
}
