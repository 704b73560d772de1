package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DatabaseConfig holds PostgreSQL connection parameters for the persistent
// store (§6): accounts, characters, companions, abilities, zones, inventory.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`

	MaxConns int32 `yaml:"max_conns"` // default: pgxpool default
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	base := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
	if d.MaxConns > 0 {
		base += fmt.Sprintf("&pool_max_conns=%d", d.MaxConns)
	}
	return base
}

// BusConfig holds the message bus connection parameters (§4.1). The bus is
// Redis-shaped: pub/sub channels plus string GET/SET with TTL.
type BusConfig struct {
	URL string `yaml:"url"` // e.g. "redis://127.0.0.1:6379/0"
}

// Common holds configuration shared by both process roles (§2, §6).
type Common struct {
	ServerID       string        `yaml:"server_id"`
	Bus            BusConfig     `yaml:"bus"`
	LogLevel       string        `yaml:"log_level"` // debug, info, warn, error
	HeartbeatEvery time.Duration `yaml:"heartbeat_every"`
	HeartbeatTTL   time.Duration `yaml:"heartbeat_ttl"`
}

// ZoneServer holds all configuration for a zone-server process.
type ZoneServer struct {
	Common `yaml:",inline"`

	Database      DatabaseConfig `yaml:"database"`
	TickRate      float64        `yaml:"tick_rate"`      // Hz, default 20 (§6)
	AssignedZones []int32        `yaml:"assigned_zones"` // empty = all zones in store
}

// Gateway holds all configuration for a gateway process.
type Gateway struct {
	Common `yaml:",inline"`

	BindAddress string         `yaml:"bind_address"`
	Port        int            `yaml:"port"`
	Database    DatabaseConfig `yaml:"database"`
}

// DefaultCommon returns the ambient defaults shared by both roles.
func DefaultCommon() Common {
	return Common{
		ServerID:       "",
		Bus:            BusConfig{URL: "redis://127.0.0.1:6379/0"},
		LogLevel:       "info",
		HeartbeatEvery: 5 * time.Second,
		HeartbeatTTL:   15 * time.Second,
	}
}

// DefaultZoneServer returns ZoneServer config with sensible defaults.
func DefaultZoneServer() ZoneServer {
	return ZoneServer{
		Common:   DefaultCommon(),
		TickRate: 20,
		Database: DatabaseConfig{
			Host: "127.0.0.1", Port: 5432,
			User: "la2go", Password: "la2go", DBName: "la2go", SSLMode: "disable",
		},
	}
}

// DefaultGateway returns Gateway config with sensible defaults.
func DefaultGateway() Gateway {
	return Gateway{
		Common:      DefaultCommon(),
		BindAddress: "0.0.0.0",
		Port:        7777,
		Database: DatabaseConfig{
			Host: "127.0.0.1", Port: 5432,
			User: "la2go", Password: "la2go", DBName: "la2go", SSLMode: "disable",
		},
	}
}

// LoadZoneServer loads zone-server config from a YAML file, then applies
// the §6 environment variable overrides. Missing file falls back to
// defaults, matching the teacher's LoadLoginServer behavior.
func LoadZoneServer(path string) (ZoneServer, error) {
	cfg := DefaultZoneServer()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	applyZoneServerEnv(&cfg)
	return cfg, nil
}

// LoadGateway loads gateway config from a YAML file, then applies the §6
// environment variable overrides.
func LoadGateway(path string) (Gateway, error) {
	cfg := DefaultGateway()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Port = p
		}
	}
	if v := os.Getenv("SERVER_ID"); v != "" {
		cfg.ServerID = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Bus.URL = v
	}
	if v := os.Getenv("NODE_ENV"); v != "" && v == "production" {
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

func applyZoneServerEnv(cfg *ZoneServer) {
	if v := os.Getenv("SERVER_ID"); v != "" {
		cfg.ServerID = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Bus.URL = v
	}
	if v := os.Getenv("TICK_RATE"); v != "" {
		if r, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.TickRate = r
		}
	}
	if v := os.Getenv("ASSIGNED_ZONES"); v != "" {
		cfg.AssignedZones = parseZoneList(v)
	}
}

func parseZoneList(v string) []int32 {
	parts := strings.Split(v, ",")
	out := make([]int32, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		n, err := strconv.Atoi(p)
		if err != nil {
			continue
		}
		out = append(out, int32(n))
	}
	return out
}
