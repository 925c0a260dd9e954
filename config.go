package priorq

import (
	"fmt"
	"time"
)

// Config is a serialisable representation of the engine configuration. It
// can be populated from YAML, JSON or environment variables; the zero
// value inherits every default.
type Config struct {
	// MaxQueueSize caps each bounded queue.
	MaxQueueSize int `json:"max_queue_size" yaml:"max_queue_size" koanf:"max_queue_size"`

	// PrioritizationInterval is the cadence, in seconds, of automatic
	// reprioritization when AutoPrioritize is enabled.
	PrioritizationInterval int `json:"prioritization_interval" yaml:"prioritization_interval" koanf:"prioritization_interval"`

	// AutoPrioritize enables the interval reprioritization loop.
	AutoPrioritize bool `json:"auto_prioritize" yaml:"auto_prioritize" koanf:"auto_prioritize"`

	// ScheduleBasePath, when set, persists schedule entries as files under
	// this path instead of keeping them only in memory.
	ScheduleBasePath string `json:"schedule_base_path" yaml:"schedule_base_path" koanf:"schedule_base_path"`
}

// DefaultConfig returns a Config populated with the package defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxQueueSize:           1000,
		PrioritizationInterval: 60,
	}
}

// Interval returns the prioritization cadence as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.PrioritizationInterval) * time.Second
}

// Validate returns an error describing invalid settings or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.MaxQueueSize <= 0 {
		return fmt.Errorf("max_queue_size must be > 0")
	}
	if c.PrioritizationInterval <= 0 {
		return fmt.Errorf("prioritization_interval must be > 0")
	}
	return nil
}
