package pointer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig_Validates(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate_Table(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "zero max iterations",
			mutate:  func(c *Config) { c.MaxIterations = 0 },
			wantErr: ErrInvalidConfig,
		},
		{
			name: "negative max points-to size",
			mutate: func(c *Config) {
				n := -1
				c.MaxPointsToSize = &n
			},
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "bad import depth",
			mutate:  func(c *Config) { c.MaxImportDepth = -2 },
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "unknown policy",
			mutate:  func(c *Config) { c.ContextPolicy = "9000-cfa" },
			wantErr: ErrInvalidPolicy,
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.LogLevel = "SHOUT" },
			wantErr: ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			assert.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestConfig_PolicyAndLevel(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, Policy{Kind: PolicyInsensitive}, cfg.Policy())
	assert.Equal(t, LogWarning, cfg.Level())
}
