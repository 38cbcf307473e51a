package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestViper(values map[string]any) *viper.Viper {
	v := viper.New()
	setDefaults(v)
	for key, value := range values {
		v.Set(key, value)
	}
	return v
}

func TestFromViper_Defaults(t *testing.T) {
	cfg := fromViper(newTestViper(nil))

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "http://localhost:5000/api", cfg.API.BaseURL)
	assert.Equal(t, "http://localhost:5000", cfg.API.ImageURL)
	assert.Equal(t, 15*time.Second, cfg.API.Timeout)
	assert.Equal(t, StorageFile, cfg.Storage.Driver)
	assert.Equal(t, 2*time.Minute, cfg.Staleness.Products)
	assert.Equal(t, 5*time.Minute, cfg.Staleness.Categories)
	assert.Equal(t, 5*time.Minute, cfg.Staleness.Subcategories)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.AllowedOrigins)
	require.NoError(t, cfg.Validate())
}

func TestFromViper_ExplicitImageURL(t *testing.T) {
	cfg := fromViper(newTestViper(map[string]any{
		"API_BASE_URL":  "https://api.monocart.shop/v1",
		"API_IMAGE_URL": "https://cdn.monocart.shop/media/",
	}))

	assert.Equal(t, "https://cdn.monocart.shop/media/", cfg.API.ImageURL)
}

func TestValidate_RejectsRelativeBaseURL(t *testing.T) {
	cfg := fromViper(newTestViper(map[string]any{"API_BASE_URL": "/api"}))

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API_BASE_URL")
	assert.Contains(t, err.Error(), "API_IMAGE_URL")
}

func TestValidate_StorageDrivers(t *testing.T) {
	tests := []struct {
		name    string
		values  map[string]any
		wantErr string
	}{
		{"redis without host", map[string]any{"STORAGE_DRIVER": "redis"}, "REDIS_HOST"},
		{"postgres without database", map[string]any{"STORAGE_DRIVER": "postgres"}, "DB_DATABASE"},
		{"unknown driver", map[string]any{"STORAGE_DRIVER": "etcd"}, "unknown STORAGE_DRIVER"},
		{"redis with host", map[string]any{"STORAGE_DRIVER": "REDIS", "REDIS_HOST": "cache"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := fromViper(newTestViper(tt.values)).Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestRedisAddr(t *testing.T) {
	cfg := fromViper(newTestViper(nil))
	assert.Empty(t, cfg.RedisAddr())

	cfg = fromViper(newTestViper(map[string]any{"REDIS_HOST": "cache"}))
	assert.Equal(t, "cache:6379", cfg.RedisAddr())
}
