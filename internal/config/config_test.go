package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "STORE_DRIVER", "REPLY_DELAY_MS", "JWT_SECRET", "JWT_EXPIRES_DAYS", "NODE_ENV", "COOKIE_NAME", "PUZZLES_UPLOAD", "SESSION_TTL_MIN"} {
		t.Setenv(k, "")
	}
	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "5175", c.Port)
	assert.Equal(t, DriverSQLite, c.StoreDriver)
	assert.Equal(t, 400*time.Millisecond, c.ReplyDelay)
	assert.Equal(t, 14*24*time.Hour, c.JWTExpiry)
	assert.Equal(t, "trainer_token", c.CookieName)
	assert.False(t, c.Production)
	assert.False(t, c.AllowUpload)
	assert.Equal(t, 2*time.Hour, c.SessionTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("STORE_DRIVER", "Redis")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REPLY_DELAY_MS", "0")
	t.Setenv("JWT_EXPIRES_DAYS", "not a number")
	t.Setenv("PUZZLES_UPLOAD", "TRUE")
	t.Setenv("SESSION_TTL_MIN", "0")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9000", c.Port)
	assert.Equal(t, DriverRedis, c.StoreDriver)
	assert.Zero(t, c.ReplyDelay)
	assert.Equal(t, 14*24*time.Hour, c.JWTExpiry)
	assert.True(t, c.AllowUpload)
	assert.Zero(t, c.SessionTTL)
}

func TestLoadRejectsBadSettings(t *testing.T) {
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("POSTGRES_DSN", "")
	_, err := Load()
	assert.ErrorContains(t, err, "POSTGRES_DSN")

	t.Setenv("STORE_DRIVER", "mongo")
	_, err = Load()
	assert.ErrorContains(t, err, "mongo")

	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("NODE_ENV", "production")
	t.Setenv("JWT_SECRET", "")
	_, err = Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}
