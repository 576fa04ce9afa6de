package envutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDev(t *testing.T) {
	tests := []struct {
		value   string
		wantEnv string
		wantDev bool
	}{
		{"development", "development", true},
		{"DEV", "dev", true},
		{" local ", "local", true},
		{"staging", "staging", false},
		{"", "production", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv(EnvVar, tt.value)
			assert.Equal(t, tt.wantEnv, Environment())
			assert.Equal(t, tt.wantDev, IsDev())
		})
	}
}
