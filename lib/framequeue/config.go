package framequeue

import (
	"fmt"
	"time"
)

type Config struct {
	// Capacity is the number of frames that may wait for display.
	Capacity int `yaml:"capacity"`
	// FillRows is the number of rows uploaded per render iteration,
	// 0 meaning the whole frame. Defaults to DefaultFillRows.
	FillRows          int  `yaml:"fill_rows"`
	CompressMemory    bool `yaml:"compress_memory"`
	SnapshotTimeoutMs int  `yaml:"snapshot_timeout_ms"`
	PushRetryMs       int  `yaml:"push_retry_ms"`
}

const (
	DefaultCapacity        = 4
	DefaultFillRows        = 256
	DefaultSnapshotTimeout = 200 * time.Millisecond
	DefaultPushRetry       = 5 * time.Millisecond
)

func DefaultConfig() Config {
	return Config{
		Capacity:          DefaultCapacity,
		FillRows:          DefaultFillRows,
		SnapshotTimeoutMs: int(DefaultSnapshotTimeout / time.Millisecond),
		PushRetryMs:       int(DefaultPushRetry / time.Millisecond),
	}
}

func (c *Config) Validate() error {
	if c.Capacity < 1 {
		return fmt.Errorf("capacity must be at least 1")
	}
	if c.FillRows < 0 {
		return fmt.Errorf("fill_rows must not be negative")
	}
	if c.SnapshotTimeoutMs < 0 {
		return fmt.Errorf("snapshot_timeout_ms must not be negative")
	}
	if c.PushRetryMs < 0 {
		return fmt.Errorf("push_retry_ms must not be negative")
	}
	return nil
}

func (c *Config) SnapshotTimeout() time.Duration {
	return time.Duration(c.SnapshotTimeoutMs) * time.Millisecond
}

func (c *Config) PushRetry() time.Duration {
	if c.PushRetryMs == 0 {
		return DefaultPushRetry
	}
	return time.Duration(c.PushRetryMs) * time.Millisecond
}
