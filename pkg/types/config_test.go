package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr error
	}{
		{
			name:    "empty backend returns ErrBackendEmpty",
			config:  Config{Backend: "", DataDir: "/tmp/data"},
			wantErr: ErrBackendEmpty,
		},
		{
			name:    "unknown backend returns ErrBackendUnknown",
			config:  Config{Backend: "postgres", DataDir: "/tmp/data"},
			wantErr: ErrBackendUnknown,
		},
		{
			name:    "sqlite without DataDir returns ErrDataDirEmpty",
			config:  Config{Backend: BackendSQLite},
			wantErr: ErrDataDirEmpty,
		},
		{
			name:   "valid sqlite config",
			config: Config{Backend: BackendSQLite, DataDir: "/tmp/data"},
		},
		{
			name:   "resolver switches do not affect validity",
			config: Config{Backend: BackendSQLite, DataDir: "/tmp/data", Resolver: DefaultResolverConfig()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDefaultResolverConfig(t *testing.T) {
	c := DefaultResolverConfig()
	assert.True(t, c.UseOwnerNameForCharacterCollection)
	assert.True(t, c.UseYourselfInEditors)
	assert.True(t, c.UseCharacterCollectionsInCards)
	assert.False(t, c.UseNoModsInInspect)
}
