package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type GRPC struct {
	Addr string `yaml:"addr"`
}

type HTTP struct {
	Addr            string `yaml:"addr"`
	ShutdownTimeout string `yaml:"shutdownTimeout"` // 10s
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|stage|prod
	Service   string `yaml:"service"`   // room-relay
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	Level     string `yaml:"level"`     // debug|info|warn|error
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type WS struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
	MaxMessageSize int64    `yaml:"maxMessageSize"`
	PingInterval   string   `yaml:"pingInterval"`
	SendBuffer     int      `yaml:"sendBuffer"`
	RateBurst      int      `yaml:"rateBurst"`
	RateInterval   string   `yaml:"rateInterval"`
}

type Relay struct {
	ReplayWindow  int      `yaml:"replayWindow"`
	Retain        int      `yaml:"retain"`
	AssistantName string   `yaml:"assistantName"`
	Triggers      []string `yaml:"triggers"`
	// задержка scripted-ответчика: minDelay + rand(jitter)
	AssistantMinDelay string `yaml:"assistantMinDelay"`
	AssistantJitter   string `yaml:"assistantJitter"`
}

type Config struct {
	HTTP    HTTP    `yaml:"http"`
	GRPC    GRPC    `yaml:"grpc"`
	Logging Logging `yaml:"logging"`
	WS      WS      `yaml:"ws"`
	Relay   Relay   `yaml:"relay"`
}

func LoadConfig() (*Config, error) {
	// .env необязателен
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	return Load(path)
}

// Load reads a YAML file; a missing file yields the defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	// установка дефолтов, если значения не указаны
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":5000"
	}
	if c.GRPC.Addr == "" {
		c.GRPC.Addr = ":5001"
	}
	if c.Logging.Service == "" {
		c.Logging.Service = "room-relay"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	if c.Logging.Backend != "std" && c.Logging.Backend != "zap" {
		return fmt.Errorf("logging.backend: unknown backend %q", c.Logging.Backend)
	}
	if len(c.WS.AllowedOrigins) == 0 {
		c.WS.AllowedOrigins = []string{"http://localhost:5000"}
	}

	if c.WS.MaxMessageSize < 0 {
		return errors.New("ws.maxMessageSize must be >= 0")
	}
	if c.WS.SendBuffer < 0 {
		return errors.New("ws.sendBuffer must be >= 0")
	}
	if c.WS.RateBurst < 0 {
		return errors.New("ws.rateBurst must be >= 0")
	}
	if c.Relay.ReplayWindow < 0 {
		return errors.New("relay.replayWindow must be >= 0")
	}
	if c.Relay.Retain < 0 {
		return errors.New("relay.retain must be >= 0")
	}
	if c.Relay.Retain > 0 && c.Relay.ReplayWindow > 0 && c.Relay.Retain < c.Relay.ReplayWindow {
		return errors.New("relay.retain must be >= relay.replayWindow")
	}
	for i, t := range c.Relay.Triggers {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			return fmt.Errorf("relay.triggers[%d] is empty", i)
		}
		c.Relay.Triggers[i] = t
	}

	for name, v := range map[string]string{
		"http.shutdownTimeout":    c.HTTP.ShutdownTimeout,
		"ws.pingInterval":         c.WS.PingInterval,
		"ws.rateInterval":         c.WS.RateInterval,
		"relay.assistantMinDelay": c.Relay.AssistantMinDelay,
		"relay.assistantJitter":   c.Relay.AssistantJitter,
	} {
		if v == "" {
			continue
		}
		if d, err := time.ParseDuration(v); err != nil || d < 0 {
			return fmt.Errorf("%s: invalid duration %q", name, v)
		}
	}
	return nil
}

func (c *Config) ShutdownTimeout() time.Duration {
	return parseDurationOr(10*time.Second, c.HTTP.ShutdownTimeout)
}

func (c *Config) PingInterval() time.Duration {
	return parseDurationOr(15*time.Second, c.WS.PingInterval)
}

func (c *Config) RateInterval() time.Duration {
	return parseDurationOr(time.Second, c.WS.RateInterval)
}

func (c *Config) AssistantMinDelay() time.Duration {
	return parseDurationOr(1200*time.Millisecond, c.Relay.AssistantMinDelay)
}

// AssistantJitter допускает явный "0s".
func (c *Config) AssistantJitter() time.Duration {
	if d, err := time.ParseDuration(c.Relay.AssistantJitter); err == nil && d >= 0 {
		return d
	}
	return 800 * time.Millisecond
}

// helper для парсинга timeout-ов
func parseDurationOr(def time.Duration, s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}
