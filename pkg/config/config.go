package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/roffe/gokwp/pkg/iso14230"
	"gopkg.in/yaml.v3"
)

const DefaultFile = "kwptool.yaml"

type Config struct {
	Adapter    AdapterConfig    `yaml:"adapter"`
	Connection ConnectionConfig `yaml:"connection"`
	Poll       PollConfig       `yaml:"poll"`
}

// ---- ADAPTER ----

type AdapterConfig struct {
	Name string `yaml:"name"`
	// Library overrides the J2534 library path found at registration
	Library     string            `yaml:"library,omitempty"`
	VersionInfo bool              `yaml:"version_info"`
	Settings    map[string]string `yaml:"settings,omitempty"`
}

// ---- CONNECTION ----

type ConnectionConfig struct {
	ConnectTimeoutMs int    `yaml:"connect_timeout_ms"`
	BaudRate         uint32 `yaml:"baud_rate"`
	DataBits         int    `yaml:"data_bits"`
	Parity           uint32 `yaml:"parity"`
	P1MaxMs          int    `yaml:"p1_max_ms"`
	P3MinMs          int    `yaml:"p3_min_ms"`
	P4MinMs          int    `yaml:"p4_min_ms"`
}

// ---- POLL ----

type PollConfig struct {
	Request        string `yaml:"request"`
	ResponseLength int    `yaml:"response_length"` // 0 = take it from the first reply
	IntervalMs     int    `yaml:"interval_ms"`
	FastPoll       bool   `yaml:"fast_poll"`
	Raw            bool   `yaml:"raw"` // request already ends in its checksum
}

func Default() *Config {
	return &Config{
		Adapter: AdapterConfig{
			Name: "Virtual K-line",
		},
		Connection: ConnectionConfig{
			ConnectTimeoutMs: 2000,
			BaudRate:         10400,
			DataBits:         8,
			Parity:           0,
			P1MaxMs:          1,
			P3MinMs:          5,
			P4MinMs:          0,
		},
		Poll: PollConfig{
			Request:  "82 10 F1 21 01",
			FastPoll: true,
		},
	}
}

// Load reads path on top of the defaults, a missing file is not an error
func Load(path string) (*Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) Save(path string) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func (c ConnectionConfig) Properties() iso14230.Properties {
	return iso14230.Properties{
		ConnectTimeout: time.Duration(c.ConnectTimeoutMs) * time.Millisecond,
		BaudRate:       c.BaudRate,
		DataBits:       c.DataBits,
		Parity:         c.Parity,
		P1Max:          time.Duration(c.P1MaxMs) * time.Millisecond,
		P3Min:          time.Duration(c.P3MinMs) * time.Millisecond,
		P4Min:          time.Duration(c.P4MinMs) * time.Millisecond,
	}
}

func (p PollConfig) Interval() time.Duration {
	return time.Duration(p.IntervalMs) * time.Millisecond
}

// ParseRequest decodes a hex request such as "82 10 F1 21 01" and appends
// the checksum.
func ParseRequest(s string) ([]byte, error) {
	b, err := decodeHex(s)
	if err != nil {
		return nil, err
	}
	return iso14230.AppendChecksum(b), nil
}

// ParseRawRequest decodes a hex request that already ends in its checksum.
func ParseRawRequest(s string) ([]byte, error) {
	b, err := decodeHex(s)
	if err != nil {
		return nil, err
	}
	if len(b) < 2 {
		return nil, fmt.Errorf("raw request %q has no checksum", s)
	}
	if cs := iso14230.Checksum(b[:len(b)-1]); b[len(b)-1] != cs {
		return nil, fmt.Errorf("raw request %q: checksum %02X, want %02X", s, b[len(b)-1], cs)
	}
	return b, nil
}

func decodeHex(s string) ([]byte, error) {
	s = strings.NewReplacer(" ", "", ":", "", "0x", "", "0X", "").Replace(strings.TrimSpace(s))
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid request %q: %w", s, err)
	}
	if len(b) == 0 {
		return nil, errors.New("empty request")
	}
	return b, nil
}

// Frame returns the poll request as it goes on the wire
func (p PollConfig) Frame() ([]byte, error) {
	if p.Raw {
		return ParseRawRequest(p.Request)
	}
	return ParseRequest(p.Request)
}
