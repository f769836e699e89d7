// Package config loads the store-wide tunables for the event bus and
// the callable registry (spec.md §9.3): queue capacity, worker pool
// size, default handler timeout, history ring size, and the callable
// registry's default call timeout. The teacher has no config loader of
// its own (it is a library, not a service); `gopkg.in/yaml.v3` is
// already an indirect dependency of the teacher's go.mod (pulled in via
// `stretchr/testify`) and is promoted to a direct one here, following
// the pack's own convention of YAML-backed config files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration parses the same way time.ParseDuration does ("5s", "250ms"),
// since yaml.v3 has no built-in notion of a duration-shaped scalar.
type Duration time.Duration

func (d Duration) AsDuration() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("config: invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// EventBus holds the tunables passed to eventbus.Options.
type EventBus struct {
	QueueCapacity      int      `yaml:"queue_capacity"`
	MaxConcurrentCalls int64    `yaml:"max_concurrent_calls"`
	HistoryCapacity    int      `yaml:"history_capacity"`
	DefaultTimeout     Duration `yaml:"default_timeout"`
}

// Callable holds the tunables passed to callable.Options.
type Callable struct {
	DefaultCallTimeout Duration `yaml:"default_call_timeout"`
}

// Config is the top-level document shape loaded from YAML.
type Config struct {
	EventBus EventBus `yaml:"event_bus"`
	Callable Callable `yaml:"callable"`
}

// Default returns the hardcoded tunables used when no config file is
// given. Queue capacity, handler concurrency, history size and the call
// timeout match the zero-value defaults eventbus.New and callable.New
// fall back to on their own; the 5s default handler timeout does not,
// since eventbus.New applies no handler timeout when none is given.
func Default() Config {
	return Config{
		EventBus: EventBus{
			QueueCapacity:      256,
			MaxConcurrentCalls: 32,
			HistoryCapacity:    512,
			DefaultTimeout:     Duration(5 * time.Second),
		},
		Callable: Callable{
			DefaultCallTimeout: 0, // no default bound, by default
		},
	}
}

// Load reads path and unmarshals it over Default(), so a file that sets
// only some fields leaves the rest at their hardcoded defaults. An empty
// path returns Default() unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}
