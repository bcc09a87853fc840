package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	API       APIConfig       `yaml:"api" mapstructure:"api"`
	Actor     ActorConfig     `yaml:"actor" mapstructure:"actor"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Approvals ApprovalsConfig `yaml:"approvals" mapstructure:"approvals"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// APIConfig holds FlashFire API access settings.
type APIConfig struct {
	BaseURL    string  `yaml:"base_url" mapstructure:"base_url"`
	Token      string  `yaml:"token" mapstructure:"token"`
	AdminToken string  `yaml:"admin_token" mapstructure:"admin_token"`
	RateLimit  float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// ActorConfig identifies the BDA or admin running the console.
type ActorConfig struct {
	Email string `yaml:"email" mapstructure:"email"`
	Name  string `yaml:"name" mapstructure:"name"`
	Admin bool   `yaml:"admin" mapstructure:"admin"`
}

// StoreConfig configures the local session store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ApprovalsConfig configures the pending-approvals poller.
type ApprovalsConfig struct {
	PollIntervalSecs int `yaml:"poll_interval_secs" mapstructure:"poll_interval_secs"`
}

// ServerConfig configures the local dashboard server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FLASHFIRE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("api.base_url", "https://api.flashfirejobs.com")
	v.SetDefault("api.rate_limit", 5.0)
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "flashfire.db")
	v.SetDefault("approvals.poll_interval_secs", 60)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the fields a mode needs are present. Modes: "bda"
// for claim-side commands, "admin" for admin commands, "serve" for the
// dashboard server.
func (c *Config) Validate(mode string) error {
	var problems []string

	requireBase := func() {
		if c.API.BaseURL == "" {
			problems = append(problems, "api.base_url is required")
		}
		if c.API.Token == "" {
			problems = append(problems, "api.token is required")
		}
		if c.Actor.Email == "" {
			problems = append(problems, "actor.email is required")
		}
	}

	switch mode {
	case "bda":
		requireBase()
	case "admin":
		requireBase()
		if c.API.AdminToken == "" && !c.Actor.Admin {
			problems = append(problems, "api.admin_token is required (or set actor.admin)")
		}
	case "serve":
		requireBase()
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Driver {
	case "", "sqlite":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			problems = append(problems, "store.database_url is required for the postgres driver")
		}
	default:
		problems = append(problems, "store.driver must be sqlite or postgres")
	}

	if c.Approvals.PollIntervalSecs < 0 {
		problems = append(problems, "approvals.poll_interval_secs must be >= 0")
	}

	if len(problems) > 0 {
		return eris.New("config: " + strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
