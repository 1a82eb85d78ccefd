package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct for the httpwire CLI and any
// embedder that wants file-driven client settings.
type Config struct {
	Client  ClientConfig  `yaml:"client"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// ClientConfig holds connection and protocol tuning.
type ClientConfig struct {
	URL             string          `yaml:"url"`
	DialTimeout     Duration        `yaml:"dial_timeout"`
	MaxResponseSize SizeBytes       `yaml:"max_response_size"`
	ReadChunkSize   SizeBytes       `yaml:"read_chunk_size"`
	RateLimit       RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig throttles outgoing requests client-side. Zero RPS
// disables the limiter.
type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// MetricsConfig controls the optional prometheus endpoint.
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// SizeBytes is a byte count that accepts humanized strings ("64 KiB",
// "1 MB") as well as plain integers in YAML.
type SizeBytes int64

func (s *SizeBytes) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		var n int64
		if err2 := value.Decode(&n); err2 != nil {
			return fmt.Errorf("invalid size: %w", err)
		}
		*s = SizeBytes(n)
		return nil
	}
	return s.parse(raw)
}

func (s *SizeBytes) parse(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*s = 0
		return nil
	}
	n, err := humanize.ParseBytes(raw)
	if err != nil {
		return fmt.Errorf("invalid size %q: %w", raw, err)
	}
	*s = SizeBytes(n)
	return nil
}

// Duration accepts Go duration strings ("5s", "250ms") in YAML.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	return d.parse(raw)
}

func (d *Duration) parse(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		*d = 0
		return nil
	}
	dur, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(dur)
	return nil
}
