package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresFallbackAdmin(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("FALLBACK_ADMIN_ID", "not-an-id")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("FALLBACK_ADMIN_ID", "65f1c0a2b3d4e5f60718293a")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "65f1c0a2b3d4e5f60718293a", cfg.FallbackAdmin().Hex())
	assert.Equal(t, "0 6 * * 1", cfg.SweepCron)
	assert.False(t, cfg.IsProduction())
}

func TestLoadRejectsShortSecret(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "short")
	t.Setenv("FALLBACK_ADMIN_ID", "65f1c0a2b3d4e5f60718293a")
	_, err := Load()
	assert.Error(t, err)
}

func TestMaskMongoURI(t *testing.T) {
	assert.Equal(t, "mongodb://admin:***@db:27017/?authSource=admin", maskMongoURI("mongodb://admin:secret@db:27017/?authSource=admin"))
	assert.Equal(t, "mongodb://localhost:27017", maskMongoURI("mongodb://localhost:27017"))
}
