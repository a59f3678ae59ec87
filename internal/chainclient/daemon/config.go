package daemon

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DefaultHost = "localhost"
	DefaultPort = 6969
)

// Config holds the connection settings for the daemon's HTTP RPC interface.
type Config struct {
	Host    string        `env:"DAEMON_RPC_HOST" envDefault:"localhost"`
	Port    int           `env:"DAEMON_RPC_PORT" envDefault:"6969"`
	SSL     bool          `env:"DAEMON_RPC_SSL" envDefault:"false"`
	Timeout time.Duration `env:"DAEMON_RPC_TIMEOUT" envDefault:"0s"` // 0 disables the per-request timeout
}

// LoadConfig loads the daemon configuration from environment variables,
// falling back to the defaults above.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse daemon config: %w", err)
	}
	return cfg, nil
}

// Validate checks the host and port are usable.
func (c Config) Validate() error {
	if c.Host == "" {
		return errors.New("daemon rpc host is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("daemon rpc port must be between 1 and 65535, got %d", c.Port)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("daemon rpc timeout must not be negative, got %s", c.Timeout)
	}
	return nil
}

// BaseURL returns http(s)://host:port depending on the SSL flag.
func (c Config) BaseURL() string {
	scheme := "http"
	if c.SSL {
		scheme = "https"
	}
	return scheme + "://" + net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
