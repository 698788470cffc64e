package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	HTTP      HTTPConfig      `yaml:"http"`
	Audio     AudioConfig     `yaml:"audio"`
	Motion    MotionConfig    `yaml:"motion"`
	Transport TransportConfig `yaml:"transport"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig contains the uplink listener configuration
type ServerConfig struct {
	Port           int    `yaml:"port"`
	BindAddress    string `yaml:"bind_address"`
	PollTimeoutMs  int    `yaml:"poll_timeout_ms"`  // accept poll deadline
	IdleIntervalMs int    `yaml:"idle_interval_ms"` // sleep while no collector is connected
}

// HTTPConfig contains HTTP monitoring server configuration
type HTTPConfig struct {
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
	Enabled bool   `yaml:"enabled"`
}

// AudioConfig contains audio acquisition parameters
type AudioConfig struct {
	SampleRate    int     `yaml:"sample_rate"`
	BlockSize     int     `yaml:"block_size"` // samples per block
	Source        string  `yaml:"source"`     // "tone" or "wav"
	ToneFrequency float64 `yaml:"tone_frequency"`
	WAVPath       string  `yaml:"wav_path"`
	PullTimeoutMs int     `yaml:"pull_timeout_ms"` // bound on one block acquisition
}

// MotionConfig contains simulated motion sensor parameters
type MotionConfig struct {
	AccelAmplitude float64 `yaml:"accel_amplitude"` // m/s²
	GyroAmplitude  float64 `yaml:"gyro_amplitude"`  // rad/s
}

// TransportConfig contains reliable write parameters
type TransportConfig struct {
	WriteTimeoutMs  int `yaml:"write_timeout_ms"` // zero-progress window before a send fails
	YieldIntervalMs int `yaml:"yield_interval_ms"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Server.Validate(); err != nil {
		return fmt.Errorf("server config: %w", err)
	}

	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.Motion.Validate(); err != nil {
		return fmt.Errorf("motion config: %w", err)
	}

	if err := c.Transport.Validate(); err != nil {
		return fmt.Errorf("transport config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates server configuration
func (s *ServerConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}

	if s.BindAddress == "" {
		return fmt.Errorf("bind_address cannot be empty")
	}

	if s.PollTimeoutMs < 0 {
		return fmt.Errorf("poll_timeout_ms cannot be negative, got %d", s.PollTimeoutMs)
	}

	if s.IdleIntervalMs < 1 {
		return fmt.Errorf("idle_interval_ms must be at least 1, got %d", s.IdleIntervalMs)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Enabled {
		if h.Port < 1 || h.Port > 65535 {
			return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
		}

		if h.Address == "" {
			return fmt.Errorf("http address cannot be empty when HTTP is enabled")
		}
	}

	return nil
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	if a.SampleRate < 8000 || a.SampleRate > 96000 {
		return fmt.Errorf("sample_rate must be between 8000 and 96000 Hz, got %d", a.SampleRate)
	}

	if a.BlockSize < 1 {
		return fmt.Errorf("block_size must be at least 1 sample, got %d", a.BlockSize)
	}

	switch a.Source {
	case "tone":
		if a.ToneFrequency <= 0 || a.ToneFrequency >= float64(a.SampleRate)/2 {
			return fmt.Errorf("tone_frequency must be positive and below the Nyquist rate, got %f", a.ToneFrequency)
		}
	case "wav":
		if a.WAVPath == "" {
			return fmt.Errorf("wav_path cannot be empty when source is 'wav'")
		}
	default:
		return fmt.Errorf("source must be 'tone' or 'wav', got '%s'", a.Source)
	}

	if a.PullTimeoutMs < 1 {
		return fmt.Errorf("pull_timeout_ms must be at least 1, got %d", a.PullTimeoutMs)
	}

	return nil
}

// Validate validates motion configuration
func (m *MotionConfig) Validate() error {
	if m.AccelAmplitude < 0 {
		return fmt.Errorf("accel_amplitude cannot be negative, got %f", m.AccelAmplitude)
	}

	if m.GyroAmplitude < 0 {
		return fmt.Errorf("gyro_amplitude cannot be negative, got %f", m.GyroAmplitude)
	}

	return nil
}

// Validate validates transport configuration
func (t *TransportConfig) Validate() error {
	if t.WriteTimeoutMs < 1 {
		return fmt.Errorf("write_timeout_ms must be at least 1, got %d", t.WriteTimeoutMs)
	}

	if t.YieldIntervalMs < 1 {
		return fmt.Errorf("yield_interval_ms must be at least 1, got %d", t.YieldIntervalMs)
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// GetPollTimeout returns the accept poll deadline as a time.Duration
func (s *ServerConfig) GetPollTimeout() time.Duration {
	return time.Duration(s.PollTimeoutMs) * time.Millisecond
}

// GetIdleInterval returns the idle sleep interval as a time.Duration
func (s *ServerConfig) GetIdleInterval() time.Duration {
	return time.Duration(s.IdleIntervalMs) * time.Millisecond
}

// GetPullTimeout returns the audio block acquisition timeout as a time.Duration
func (a *AudioConfig) GetPullTimeout() time.Duration {
	return time.Duration(a.PullTimeoutMs) * time.Millisecond
}

// GetWriteTimeout returns the transport progress timeout as a time.Duration
func (t *TransportConfig) GetWriteTimeout() time.Duration {
	return time.Duration(t.WriteTimeoutMs) * time.Millisecond
}

// GetYieldInterval returns the transport retry yield interval as a time.Duration
func (t *TransportConfig) GetYieldInterval() time.Duration {
	return time.Duration(t.YieldIntervalMs) * time.Millisecond
}
