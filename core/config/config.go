package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Server struct {
		Host       string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
		Port       int           `envconfig:"SERVER_PORT" default:"8081"`
		IOTimeout  time.Duration `envconfig:"SERVER_IO_TIMEOUT" default:"30s"`
		StatusAddr string        `envconfig:"SERVER_STATUS_ADDR"`
	}
	Chunks struct {
		Path string `envconfig:"CHUNK_PATH" default:"./movies"`
		Size int    `envconfig:"CHUNK_SIZE" default:"1048576"`
	}
	Discovery struct {
		Timeout       time.Duration `envconfig:"DISCOVERY_TIMEOUT" default:"1500ms"`
		BroadcastAddr string        `envconfig:"DISCOVERY_BROADCAST_ADDR" default:"255.255.255.255"`
	}
	Client struct {
		DialTimeout time.Duration `envconfig:"CLIENT_DIAL_TIMEOUT" default:"3s"`
		IOTimeout   time.Duration `envconfig:"CLIENT_IO_TIMEOUT" default:"30s"`
		HistoryPath string        `envconfig:"CLIENT_HISTORY_PATH" default:"./.lanchunk"`
	}
	Fallback struct {
		BaseURL string `envconfig:"FALLBACK_BASE_URL"`
	}
}

var (
	ErrInvalidPort      = errors.New("server port must be between 1 and 65535")
	ErrInvalidChunkSize = errors.New("chunk size must be positive")
	ErrInvalidTimeout   = errors.New("discovery timeout must be positive")
)

func GetConfig() (*Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, c.Server.Port)
	}

	if c.Chunks.Size <= 0 {
		return ErrInvalidChunkSize
	}

	if c.Discovery.Timeout <= 0 {
		return ErrInvalidTimeout
	}

	return nil
}

// ListenAddr is the host:port the chunk server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
