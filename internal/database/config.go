package database

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Environment variables read by LoadConfigFromEnv.
const (
	EnvUser           = "TIDB_USER"
	EnvPassword       = "TIDB_PASSWORD"
	EnvHost           = "TIDB_HOST"
	EnvPort           = "TIDB_PORT"
	EnvDatabase       = "TIDB_DATABASE"
	EnvTLS            = "TIDB_TLS"
	EnvConnectTimeout = "TIDB_CONNECT_TIMEOUT"
)

const (
	// DefaultPort is the TiDB SQL port.
	DefaultPort = 4000

	// DefaultConnectTimeout bounds dialing the server.
	DefaultConnectTimeout = 10 * time.Second

	// DefaultTLS uses TLS when the server offers it.
	// TiDB Cloud rejects plaintext connections.
	DefaultTLS = "preferred"
)

// Config holds the connection settings for the events database.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string

	// TLS is passed through to the driver: "true", "false", "skip-verify" or "preferred".
	TLS string

	// ConnectTimeout is the driver's dial timeout.
	ConnectTimeout time.Duration
}

// LoadConfigFromEnv builds a Config from the TIDB_* environment variables.
// It only fails on values that cannot be parsed; call Validate to check
// that the required values are present.
func LoadConfigFromEnv() (Config, error) {
	cfg := Config{
		Host:           strings.TrimSpace(os.Getenv(EnvHost)),
		Port:           DefaultPort,
		User:           os.Getenv(EnvUser),
		Password:       os.Getenv(EnvPassword),
		Database:       strings.TrimSpace(os.Getenv(EnvDatabase)),
		TLS:            DefaultTLS,
		ConnectTimeout: DefaultConnectTimeout,
	}

	if value := strings.TrimSpace(os.Getenv(EnvPort)); value != "" {
		port, err := strconv.Atoi(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", EnvPort, value, err)
		}
		cfg.Port = port
	}

	if value := strings.TrimSpace(os.Getenv(EnvTLS)); value != "" {
		cfg.TLS = strings.ToLower(value)
	}

	if value := strings.TrimSpace(os.Getenv(EnvConnectTimeout)); value != "" {
		timeout, err := time.ParseDuration(value)
		if err != nil {
			return Config{}, fmt.Errorf("invalid %s %q: %w", EnvConnectTimeout, value, err)
		}
		cfg.ConnectTimeout = timeout
	}

	return cfg, nil
}

// Validate checks that every required setting is present.
// The returned error names all missing variables at once.
func (c Config) Validate() error {
	var missing []string
	if c.User == "" {
		missing = append(missing, EnvUser)
	}
	if c.Password == "" {
		missing = append(missing, EnvPassword)
	}
	if c.Host == "" {
		missing = append(missing, EnvHost)
	}
	if c.Database == "" {
		missing = append(missing, EnvDatabase)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid %s %d: must be between 1 and 65535", EnvPort, c.Port)
	}

	switch c.TLS {
	case "", "true", "false", "skip-verify", "preferred":
	default:
		return fmt.Errorf("invalid %s %q, must be one of: true, false, skip-verify, preferred", EnvTLS, c.TLS)
	}

	if c.ConnectTimeout < 0 {
		return fmt.Errorf("invalid %s %s: must not be negative", EnvConnectTimeout, c.ConnectTimeout)
	}

	return nil
}

// Addr returns the host:port pair of the server.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// driverConfig translates c into the driver's configuration.
func (c Config) driverConfig() *mysql.Config {
	dc := mysql.NewConfig()
	dc.User = c.User
	dc.Passwd = c.Password
	dc.Net = "tcp"
	dc.Addr = c.Addr()
	dc.DBName = c.Database
	dc.Timeout = c.ConnectTimeout
	dc.TLSConfig = c.TLS
	// DATE and DATETIME columns scan into time.Time.
	dc.ParseTime = true
	return dc
}

// DSN returns the go-sql-driver/mysql data source name for c.
func (c Config) DSN() string {
	return c.driverConfig().FormatDSN()
}

// String describes the target without the password.
func (c Config) String() string {
	return fmt.Sprintf("%s@%s/%s", c.User, c.Addr(), c.Database)
}
