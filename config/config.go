package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

// Rule is one entry of the path authorization table.
type Rule struct {
	Pattern string `mapstructure:"pattern"`
	// Access is "permitAll", "authenticated" or "hasRole".
	Access string `mapstructure:"access"`
	Role   string `mapstructure:"role"`
}

type ProviderConfig struct {
	Name   string   `mapstructure:"name"`
	Key    string   `mapstructure:"key"`
	Secret string   `mapstructure:"secret"`
	Scopes []string `mapstructure:"scopes"`
}

type SessionConfig struct {
	CookieName string        `mapstructure:"cookieName"`
	Secret     string        `mapstructure:"secret"`
	Issuer     string        `mapstructure:"issuer"`
	TTL        time.Duration `mapstructure:"ttl"`
	Secure     bool          `mapstructure:"secure"`
}

type OAuthConfig struct {
	StateSecret     string           `mapstructure:"stateSecret"`
	CallbackBaseURL string           `mapstructure:"callbackBaseURL"`
	Providers       []ProviderConfig `mapstructure:"providers"`
}

type Config struct {
	// Mode selects the log format: "development" logs colored text, anything
	// else JSON.
	Mode   string `mapstructure:"mode"`
	Server struct {
		HTTPPort        string        `mapstructure:"HTTPPort"`
		Timeout         time.Duration `mapstructure:"HTTPTimeout"`
		ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
		AllowedOrigins  []string      `mapstructure:"allowedOrigins"`
		// LoginRateLimit caps credential posts per client IP per minute; 0 disables it.
		LoginRateLimit int `mapstructure:"loginRateLimit"`
	} `mapstructure:"server"`
	Repositories struct {
		// Driver is "postgres" or "memory".
		Driver   string `mapstructure:"driver"`
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	Session  SessionConfig `mapstructure:"session"`
	OAuth    OAuthConfig   `mapstructure:"oauth"`
	Security struct {
		Rules []Rule `mapstructure:"rules"`
	} `mapstructure:"security"`
	Observability struct {
		ServiceName    string `mapstructure:"serviceName"`
		MetricsEnabled bool   `mapstructure:"metricsEnabled"`
	} `mapstructure:"observability"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// SECUREDEMO_SESSION_SECRET overrides session.secret, and so on.
	v.SetEnvPrefix("securedemo")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err = config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.Session.Secret == "" {
		return fmt.Errorf("session.secret is required")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive, got %s", c.Session.TTL)
	}
	if c.Server.LoginRateLimit < 0 {
		return fmt.Errorf("server.loginRateLimit must not be negative")
	}
	switch c.Repositories.Driver {
	case "", "postgres", "memory":
	default:
		return fmt.Errorf("repositories.driver: unknown driver %q", c.Repositories.Driver)
	}
	for i, r := range c.Security.Rules {
		switch r.Access {
		case "permitAll", "authenticated":
		case "hasRole":
			if r.Role == "" {
				return fmt.Errorf("security.rules[%d]: hasRole needs a role", i)
			}
		default:
			return fmt.Errorf("security.rules[%d]: unknown access %q", i, r.Access)
		}
	}
	return nil
}
