// Package config loads the settings that shape a strand engine's runtime
// tuning: queue sizing, worker pool depth, and whether trace annotations
// are recorded. It follows meet-ai-echo-lang's config package in reading
// TOML with github.com/pelletier/go-toml/v2 and wrapping every failure
// with fmt.Errorf's %w.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

const fileName = "strand.toml"

// Config tunes a DefaultKernel + loopapi.Loop pairing. Zero values are not
// valid on their own; Load and Default both fill in every field.
type Config struct {
	// KernelQueueSize bounds the channel newly-created strands pass
	// through before DefaultKernel.Run drains them into its ready queue.
	KernelQueueSize int `toml:"kernel_queue_size"`

	// LoopCapacity bounds loopapi.Loop's submission and completion
	// queues.
	LoopCapacity int `toml:"loop_capacity"`

	// Workers is how many loopapi.Loop.Worker goroutines a caller should
	// start against a Loop built from this config.
	Workers int `toml:"workers"`

	// TraceEnabled, when true, tells callers to pass strand.WithTracing
	// to every strand.NewStrand/Kernel.Execute call.
	TraceEnabled bool `toml:"trace_enabled"`
}

// Default returns the configuration used when no strand.toml is present.
func Default() Config {
	return Config{
		KernelQueueSize: 64,
		LoopCapacity:    64,
		Workers:         4,
		TraceEnabled:    false,
	}
}

// Load reads dir/strand.toml, falling back to Default if the file does
// not exist. An existing file that fails to parse is a hard error.
func Load(dir string) (Config, error) {
	cfg := Default()

	path := dir + string(os.PathSeparator) + fileName
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes cfg to dir/strand.toml.
func Save(dir string, cfg Config) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	path := dir + string(os.PathSeparator) + fileName
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// Validate reports the first configuration value that would make a
// kernel or loop unusable.
func (c Config) Validate() error {
	if c.KernelQueueSize <= 0 {
		return fmt.Errorf("kernel_queue_size must be positive, got %d", c.KernelQueueSize)
	}
	if c.LoopCapacity <= 0 {
		return fmt.Errorf("loop_capacity must be positive, got %d", c.LoopCapacity)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	return nil
}
