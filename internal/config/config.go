// Package config loads the settings of the gymwrap command from
// flags, GYMWRAP_* environment variables and an optional YAML file.
package config

import (
	"fmt"
	"strings"

	"github.com/samuelfneumann/gymwrap/wrappers"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes the environment variables read by Load
const EnvPrefix = "GYMWRAP"

// Config holds the settings of a rollout
type Config struct {
	Env string `mapstructure:"env" yaml:"env"`

	// Atari preprocessing and frame stacking
	Atari              bool   `mapstructure:"atari" yaml:"atari"`
	Height             int    `mapstructure:"height" yaml:"height"`
	Width              int    `mapstructure:"width" yaml:"width"`
	Interpolation      string `mapstructure:"interpolation" yaml:"interpolation"`
	Scale              bool   `mapstructure:"scale" yaml:"scale"`
	FrameSkip          int    `mapstructure:"frame-skip" yaml:"frame-skip"`
	NoopMax            int    `mapstructure:"noop-max" yaml:"noop-max"`
	TerminalOnLifeLoss bool   `mapstructure:"terminal-on-life-loss" yaml:"terminal-on-life-loss"`
	Stack              int    `mapstructure:"stack" yaml:"stack"`

	// Vectorised environments
	NumEnvs  int  `mapstructure:"num-envs" yaml:"num-envs"`
	Parallel bool `mapstructure:"parallel" yaml:"parallel"`

	Steps int `mapstructure:"steps" yaml:"steps"`
	Seed  int `mapstructure:"seed" yaml:"seed"`

	LogLevel    string `mapstructure:"log-level" yaml:"log-level"`
	LogFile     string `mapstructure:"log-file" yaml:"log-file"`
	Development bool   `mapstructure:"development" yaml:"development"`
	Plot        string `mapstructure:"plot" yaml:"plot"`
}

// Default returns the default settings
func Default() Config {
	return Config{
		Env:           "CartPole-v1",
		Height:        84,
		Width:         84,
		Interpolation: string(wrappers.Nearest),
		FrameSkip:     4,
		NoopMax:       30,
		Stack:         4,
		NumEnvs:       1,
		Steps:         1000,
		Seed:          -1,
		LogLevel:      "info",
	}
}

// SetDefaults registers the default settings with v
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("env", d.Env)
	v.SetDefault("atari", d.Atari)
	v.SetDefault("height", d.Height)
	v.SetDefault("width", d.Width)
	v.SetDefault("interpolation", d.Interpolation)
	v.SetDefault("scale", d.Scale)
	v.SetDefault("frame-skip", d.FrameSkip)
	v.SetDefault("noop-max", d.NoopMax)
	v.SetDefault("terminal-on-life-loss", d.TerminalOnLifeLoss)
	v.SetDefault("stack", d.Stack)
	v.SetDefault("num-envs", d.NumEnvs)
	v.SetDefault("parallel", d.Parallel)
	v.SetDefault("steps", d.Steps)
	v.SetDefault("seed", d.Seed)
	v.SetDefault("log-level", d.LogLevel)
	v.SetDefault("log-file", d.LogFile)
	v.SetDefault("development", d.Development)
	v.SetDefault("plot", d.Plot)
}

// Load reads the settings known to v, with GYMWRAP_* environment
// variables and, if file is not empty, the YAML file taking
// precedence over the defaults. Flags bound to v take precedence over
// both.
func Load(v *viper.Viper, file string) (Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("load: could not read config file "+
				"'%s': %w", file, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("load: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, fmt.Errorf("load: %w", err)
	}
	return c, nil
}

// Validate returns an error describing the first invalid setting
func (c Config) Validate() error {
	switch {
	case c.Env == "":
		return fmt.Errorf("validate: no environment name")
	case c.Steps <= 0:
		return fmt.Errorf("validate: steps must be positive, got %v", c.Steps)
	case c.NumEnvs <= 0:
		return fmt.Errorf("validate: num-envs must be positive, got %v",
			c.NumEnvs)
	}

	if !c.Atari {
		return nil
	}
	if c.Stack <= 0 {
		return fmt.Errorf("validate: stack must be positive, got %v", c.Stack)
	}
	if c.FrameSkip <= 0 {
		return fmt.Errorf("validate: frame-skip must be positive, got %v",
			c.FrameSkip)
	}
	if c.NoopMax < 0 {
		return fmt.Errorf("validate: noop-max must not be negative, got %v",
			c.NoopMax)
	}
	if _, err := wrappers.NewFrameProcessor(c.ProcessorConfig()); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}

// ProcessorConfig returns the frame processor settings
func (c Config) ProcessorConfig() wrappers.FrameProcessorConfig {
	return wrappers.FrameProcessorConfig{
		Height:        c.Height,
		Width:         c.Width,
		Interpolation: wrappers.Interpolation(c.Interpolation),
		Scale:         c.Scale,
	}
}

// AtariConfig returns the Atari preprocessing settings
func (c Config) AtariConfig() wrappers.AtariConfig {
	seed := uint64(0)
	if c.Seed >= 0 {
		seed = uint64(c.Seed)
	}
	return wrappers.AtariConfig{
		Processor:          c.ProcessorConfig(),
		FrameSkip:          c.FrameSkip,
		NoopMax:            c.NoopMax,
		TerminalOnLifeLoss: c.TerminalOnLifeLoss,
		Seed:               seed,
	}
}
