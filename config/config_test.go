package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitConfigEmbedded(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := InitConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.HTTPPort)
	assert.Equal(t, "development", cfg.Mode)
	assert.Equal(t, "postgres", cfg.Repositories.Driver)
	assert.Equal(t, 20, cfg.Server.LoginRateLimit)
	assert.Equal(t, "SESSION", cfg.Session.CookieName)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
	require.Len(t, cfg.Security.Rules, 2)
	assert.Equal(t, Rule{Pattern: "/user/**", Access: "authenticated"}, cfg.Security.Rules[0])
	assert.Equal(t, Rule{Pattern: "/admin/**", Access: "hasRole", Role: "ROLE_ADMIN"}, cfg.Security.Rules[1])
	require.Len(t, cfg.OAuth.Providers, 1)
	assert.Equal(t, "google", cfg.OAuth.Providers[0].Name)
}

func TestInitConfigEnvOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SECUREDEMO_SESSION_SECRET", "from-env")
	t.Setenv("SECUREDEMO_MODE", "production")

	cfg, err := InitConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Session.Secret)
	assert.Equal(t, "production", cfg.Mode)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		var c Config
		c.Session.Secret = "s"
		c.Session.TTL = time.Minute
		return c
	}

	t.Run("ok", func(t *testing.T) {
		c := valid()
		assert.NoError(t, c.Validate())
	})

	t.Run("missing secret", func(t *testing.T) {
		c := valid()
		c.Session.Secret = ""
		assert.Error(t, c.Validate())
	})

	t.Run("hasRole without role", func(t *testing.T) {
		c := valid()
		c.Security.Rules = []Rule{{Pattern: "/admin/**", Access: "hasRole"}}
		assert.Error(t, c.Validate())
	})

	t.Run("unknown driver", func(t *testing.T) {
		c := valid()
		c.Repositories.Driver = "mysql"
		assert.Error(t, c.Validate())
	})

	t.Run("negative rate limit", func(t *testing.T) {
		c := valid()
		c.Server.LoginRateLimit = -1
		assert.Error(t, c.Validate())
	})

	t.Run("unknown access", func(t *testing.T) {
		c := valid()
		c.Security.Rules = []Rule{{Pattern: "/x", Access: "denyAll"}}
		assert.Error(t, c.Validate())
	})
}
