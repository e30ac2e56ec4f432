package config

import (
	"fmt"
)

// Validate checks configuration correctness without changing it
func Validate(cfg *Config) error {
	if cfg.Adapter.Name == "" {
		return fmt.Errorf("adapter: name is required")
	}

	c := cfg.Connection
	if c.ConnectTimeoutMs <= 0 {
		return fmt.Errorf("connection: connect_timeout_ms must be > 0, got %d", c.ConnectTimeoutMs)
	}
	if c.BaudRate == 0 {
		return fmt.Errorf("connection: baud_rate must be > 0")
	}
	if c.DataBits != 7 && c.DataBits != 8 {
		return fmt.Errorf("connection: data_bits must be 7 or 8, got %d", c.DataBits)
	}
	// NO_PARITY, ODD_PARITY, EVEN_PARITY
	if c.Parity > 2 {
		return fmt.Errorf("connection: parity must be 0, 1 or 2, got %d", c.Parity)
	}
	for name, v := range map[string]int{
		"p1_max_ms": c.P1MaxMs,
		"p3_min_ms": c.P3MinMs,
		"p4_min_ms": c.P4MinMs,
	} {
		if v < 0 {
			return fmt.Errorf("connection: %s must not be negative, got %d", name, v)
		}
	}

	p := cfg.Poll
	if _, err := p.Frame(); err != nil {
		return fmt.Errorf("poll: %w", err)
	}
	if p.ResponseLength < 0 || p.ResponseLength > 0xFF+2 {
		return fmt.Errorf("poll: response_length out of range: %d", p.ResponseLength)
	}
	if p.IntervalMs < 0 {
		return fmt.Errorf("poll: interval_ms must not be negative, got %d", p.IntervalMs)
	}
	return nil
}
