// Package config loads the arrbot configuration: the shared bot core plus
// storage, auth secrets, backend APIs and the configured services.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/m3rciful/arrbot/bot/auth"
	"github.com/m3rciful/arrbot/bot/service"
	coreconfig "github.com/m3rciful/arrbot/core/config"
	coredatabase "github.com/m3rciful/arrbot/core/database"
)

// Storage backends.
const (
	BackendMemory   = "memory"
	BackendBolt     = "bolt"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Service types with a registered factory.
const (
	TypeRadarr  = "radarr"
	TypeSonarr  = "sonarr"
	TypeReadarr = "readarr"
	TypeBazarr  = "bazarr"
)

const (
	defaultAPITimeout    = 15 * time.Second
	defaultQueuePageSize = 5
	defaultQueueWidth    = 20
	defaultBoltPath      = "data/arrbot.db"
)

// StorageConfig selects where sessions and users live.
type StorageConfig struct {
	// Sessions is one of memory, bolt, postgres, mongo.
	Sessions string `yaml:"sessions" envconfig:"STORAGE_SESSIONS"`
	// Users is one of memory, bolt, postgres.
	Users    string `yaml:"users" envconfig:"STORAGE_USERS"`
	BoltPath string `yaml:"bolt_path" envconfig:"STORAGE_BOLT_PATH"`

	MongoURI        string `yaml:"mongo_uri" envconfig:"STORAGE_MONGO_URI"`
	MongoDatabase   string `yaml:"mongo_database" envconfig:"STORAGE_MONGO_DATABASE"`
	MongoCollection string `yaml:"mongo_collection" envconfig:"STORAGE_MONGO_COLLECTION"`
}

// AuthConfig holds the three password tiers of /auth.
type AuthConfig struct {
	AdminPassword string `yaml:"admin_password" envconfig:"AUTH_ADMIN_PASSWORD"`
	ModPassword   string `yaml:"mod_password" envconfig:"AUTH_MOD_PASSWORD"`
	UserPassword  string `yaml:"user_password" envconfig:"AUTH_USER_PASSWORD"`
}

// Passwords converts the section for the auth gate.
func (a AuthConfig) Passwords() auth.Passwords {
	return auth.Passwords{Admin: a.AdminPassword, Mod: a.ModPassword, User: a.UserPassword}
}

// APIConfig is one backend endpoint.
type APIConfig struct {
	Host    string        `yaml:"api_host"`
	Key     string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
	// Rate caps requests per second; 0 disables the limit.
	Rate float64 `yaml:"rate"`
}

// ServiceConfig describes one exposed service.
type ServiceConfig struct {
	Type     string   `yaml:"type"`
	Name     string   `yaml:"name"`
	Commands []string `yaml:"commands"`
	API      string   `yaml:"api"`
	Addons   []string `yaml:"addons"`
}

// QueueConfig shapes the download queue view.
type QueueConfig struct {
	PageSize int `yaml:"page_size" envconfig:"QUEUE_PAGE_SIZE"`
	Width    int `yaml:"width" envconfig:"QUEUE_WIDTH"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Database coredatabase.Config `yaml:"database"`
	Storage  StorageConfig       `yaml:"storage"`
	Auth     AuthConfig          `yaml:"auth"`
	Queue    QueueConfig         `yaml:"queue"`

	APIs     map[string]APIConfig `yaml:"apis" ignored:"true"`
	Services []ServiceConfig      `yaml:"services" ignored:"true"`
}

// CoreConfig exposes the embedded core section to the runner.
func (c *Config) CoreConfig() *coreconfig.Config {
	if c == nil {
		return nil
	}
	return &c.Config
}

// Load reads path, overlays the environment and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML bytes, overlays the environment and validates.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	cfg.Storage.Sessions = strings.ToLower(strings.TrimSpace(cfg.Storage.Sessions))
	if cfg.Storage.Sessions == "" {
		cfg.Storage.Sessions = BackendMemory
	}
	cfg.Storage.Users = strings.ToLower(strings.TrimSpace(cfg.Storage.Users))
	if cfg.Storage.Users == "" {
		cfg.Storage.Users = BackendMemory
	}
	if cfg.Storage.BoltPath == "" {
		cfg.Storage.BoltPath = defaultBoltPath
	}
	if cfg.Queue.PageSize <= 0 {
		cfg.Queue.PageSize = defaultQueuePageSize
	}
	if cfg.Queue.Width <= 0 {
		cfg.Queue.Width = defaultQueueWidth
	}
	if cfg.Database.MigrationsDir == "" {
		cfg.Database.MigrationsDir = "migrations"
	}
	for name, api := range cfg.APIs {
		if api.Timeout <= 0 {
			api.Timeout = defaultAPITimeout
		}
		cfg.APIs[name] = api
	}
	for i := range cfg.Services {
		cfg.Services[i].Type = strings.ToLower(strings.TrimSpace(cfg.Services[i].Type))
		if cfg.Services[i].Name == "" {
			cfg.Services[i].Name = cfg.Services[i].Type
		}
	}
}

// Validate reports every problem at once.
func Validate(cfg *Config) error {
	var errs *multierror.Error

	switch cfg.Storage.Sessions {
	case BackendMemory, BackendBolt, BackendPostgres:
	case BackendMongo:
		if cfg.Storage.MongoURI == "" {
			errs = multierror.Append(errs, fmt.Errorf("storage.mongo_uri is required for mongo sessions"))
		}
	default:
		errs = multierror.Append(errs, fmt.Errorf("invalid storage.sessions %q; allowed: memory, bolt, postgres, mongo", cfg.Storage.Sessions))
	}
	switch cfg.Storage.Users {
	case BackendMemory, BackendBolt, BackendPostgres:
	default:
		errs = multierror.Append(errs, fmt.Errorf("invalid storage.users %q; allowed: memory, bolt, postgres", cfg.Storage.Users))
	}
	if cfg.UsesPostgres() && strings.TrimSpace(cfg.Database.Host) == "" {
		errs = multierror.Append(errs, fmt.Errorf("database.host is required for postgres storage"))
	}

	if cfg.Auth.AdminPassword == "" && cfg.Auth.ModPassword == "" && cfg.Auth.UserPassword == "" && cfg.Telegram.AdminID == 0 {
		errs = multierror.Append(errs, fmt.Errorf("no way to authorize: set an auth password or telegram.admin_id"))
	}

	if len(cfg.Services) == 0 {
		errs = multierror.Append(errs, fmt.Errorf("services: at least one service is required"))
	}
	names := make(map[string]struct{}, len(cfg.Services))
	for i, s := range cfg.Services {
		switch s.Type {
		case TypeRadarr, TypeSonarr, TypeReadarr, TypeBazarr:
		default:
			errs = multierror.Append(errs, fmt.Errorf("services[%d]: unknown type %q", i, s.Type))
		}
		key := strings.ToLower(s.Name)
		if _, dup := names[key]; dup {
			errs = multierror.Append(errs, fmt.Errorf("services[%d]: duplicate name %q", i, s.Name))
		}
		names[key] = struct{}{}
		if len(s.Commands) == 0 {
			errs = multierror.Append(errs, fmt.Errorf("services[%d] %q: commands are required", i, s.Name))
		}
		api, ok := cfg.APIs[s.API]
		switch {
		case !ok:
			errs = multierror.Append(errs, fmt.Errorf("services[%d] %q: unknown api %q", i, s.Name, s.API))
		case strings.TrimSpace(api.Host) == "":
			errs = multierror.Append(errs, fmt.Errorf("apis.%s.api_host is required", s.API))
		}
	}
	return errs.ErrorOrNil()
}

// UsesPostgres reports whether any store needs the database.
func (c *Config) UsesPostgres() bool {
	return c.Storage.Sessions == BackendPostgres || c.Storage.Users == BackendPostgres
}

// UsesBolt reports whether any store needs the bolt file.
func (c *Config) UsesBolt() bool {
	return c.Storage.Sessions == BackendBolt || c.Storage.Users == BackendBolt
}

// Descriptors converts the services section for the build step.
func (c *Config) Descriptors() []service.Descriptor {
	out := make([]service.Descriptor, 0, len(c.Services))
	for _, s := range c.Services {
		out = append(out, service.Descriptor{
			Type:     s.Type,
			Name:     s.Name,
			Commands: append([]string(nil), s.Commands...),
			API:      s.API,
			Addons:   append([]string(nil), s.Addons...),
		})
	}
	return out
}
