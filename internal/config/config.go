package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Capture CaptureConfig `yaml:"capture"`
	Bus     BusConfig     `yaml:"bus"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// AllowedOrigins are extra Origin header values accepted on the
	// websocket upgrade, beyond same-host and localhost.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type CaptureConfig struct {
	// Provider selects the capture backend: native, sim, or replay.
	Provider  string       `yaml:"provider"`
	QueueSize int          `yaml:"queue_size"`
	Sim       SimConfig    `yaml:"sim"`
	Replay    ReplayConfig `yaml:"replay"`
}

type SimConfig struct {
	IntervalMS int `yaml:"interval_ms"`
}

type ReplayConfig struct {
	Path string `yaml:"path"`
	Loop bool   `yaml:"loop"`
	Fast bool   `yaml:"fast"`
}

type BusConfig struct {
	BufferSize int `yaml:"buffer_size"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (s SimConfig) Interval() time.Duration {
	return time.Duration(s.IntervalMS) * time.Millisecond
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 9001,
		},
		Capture: CaptureConfig{
			Provider:  "native",
			QueueSize: 100,
			Sim: SimConfig{
				IntervalMS: 500,
			},
		},
		Bus: BusConfig{
			BufferSize: 100,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path, applying defaults for anything the file leaves unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := defaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadOrDefault is Load, except a missing file (or empty path) yields the
// built-in defaults instead of an error.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		return defaultConfig(), nil
	}
	cfg, err := Load(path)
	if os.IsNotExist(err) {
		return defaultConfig(), nil
	}
	return cfg, err
}
