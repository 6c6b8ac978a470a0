package database

import (
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv(EnvUser, "calendar")
	t.Setenv(EnvPassword, "s3cret")
	t.Setenv(EnvHost, "gateway01.example.tidbcloud.com")
	t.Setenv(EnvDatabase, "college")
	t.Setenv(EnvPort, "")
	t.Setenv(EnvTLS, "")
	t.Setenv(EnvConnectTimeout, "")
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "calendar", cfg.User)
	assert.Equal(t, "s3cret", cfg.Password)
	assert.Equal(t, "gateway01.example.tidbcloud.com", cfg.Host)
	assert.Equal(t, "college", cfg.Database)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultTLS, cfg.TLS)
	assert.Equal(t, DefaultConnectTimeout, cfg.ConnectTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigFromEnv_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv(EnvPort, "3306")
	t.Setenv(EnvTLS, "SKIP-VERIFY")
	t.Setenv(EnvConnectTimeout, "2s")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 3306, cfg.Port)
	assert.Equal(t, "skip-verify", cfg.TLS)
	assert.Equal(t, 2*time.Second, cfg.ConnectTimeout)
}

func TestLoadConfigFromEnv_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{name: "non-numeric port", key: EnvPort, value: "four-thousand", wantErr: "invalid TIDB_PORT"},
		{name: "bad timeout", key: EnvConnectTimeout, value: "ten", wantErr: "invalid TIDB_CONNECT_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := LoadConfigFromEnv()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfigFromEnv_UnknownTLSMode(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv(EnvTLS, "Sometimes")

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)
	assert.Equal(t, "sometimes", cfg.TLS)

	err = cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, `invalid TIDB_TLS "sometimes", must be one of: true, false, skip-verify, preferred`, err.Error())
}

func TestConfig_Validate(t *testing.T) {
	valid := Config{
		Host:           "localhost",
		Port:           4000,
		User:           "root",
		Password:       "pw",
		Database:       "college",
		TLS:            "preferred",
		ConnectTimeout: time.Second,
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing user", mutate: func(c *Config) { c.User = "" }, wantErr: "TIDB_USER"},
		{name: "missing password", mutate: func(c *Config) { c.Password = "" }, wantErr: "TIDB_PASSWORD"},
		{name: "missing host", mutate: func(c *Config) { c.Host = "" }, wantErr: "TIDB_HOST"},
		{name: "missing database", mutate: func(c *Config) { c.Database = "" }, wantErr: "TIDB_DATABASE"},
		{
			name: "all missing are listed",
			mutate: func(c *Config) {
				*c = Config{Port: DefaultPort}
			},
			wantErr: "missing required environment variables: TIDB_USER, TIDB_PASSWORD, TIDB_HOST, TIDB_DATABASE",
		},
		{name: "port out of range", mutate: func(c *Config) { c.Port = 70000 }, wantErr: "invalid TIDB_PORT"},
		{name: "unknown tls mode", mutate: func(c *Config) { c.TLS = "sometimes" }, wantErr: "invalid TIDB_TLS"},
		{name: "negative timeout", mutate: func(c *Config) { c.ConnectTimeout = -time.Second }, wantErr: "invalid TIDB_CONNECT_TIMEOUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_DSN(t *testing.T) {
	cfg := Config{
		Host:           "db.internal",
		Port:           4000,
		User:           "reader",
		Password:       "p@ss:word",
		Database:       "college",
		TLS:            "skip-verify",
		ConnectTimeout: 5 * time.Second,
	}

	parsed, err := mysql.ParseDSN(cfg.DSN())
	require.NoError(t, err)

	assert.Equal(t, "reader", parsed.User)
	assert.Equal(t, "p@ss:word", parsed.Passwd)
	assert.Equal(t, "tcp", parsed.Net)
	assert.Equal(t, "db.internal:4000", parsed.Addr)
	assert.Equal(t, "college", parsed.DBName)
	assert.Equal(t, 5*time.Second, parsed.Timeout)
	assert.Equal(t, "skip-verify", parsed.TLSConfig)
	assert.True(t, parsed.ParseTime)
}

func TestConfig_StringHidesPassword(t *testing.T) {
	cfg := Config{Host: "db", Port: 4000, User: "reader", Password: "hunter2", Database: "college"}

	s := cfg.String()
	assert.Equal(t, "reader@db:4000/college", s)
	assert.NotContains(t, s, "hunter2")
}

func TestConfig_AddrIPv6(t *testing.T) {
	cfg := Config{Host: "::1", Port: 4000}
	assert.Equal(t, "[::1]:4000", cfg.Addr())
}
