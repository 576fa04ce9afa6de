package urlutil

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinPath(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		path    string
		want    string
		wantErr bool
	}{
		{
			name: "simple join",
			base: "http://engine:8080",
			path: "/api/v1/game-state",
			want: "http://engine:8080/api/v1/game-state",
		},
		{
			name: "base with path",
			base: "https://example.com/engine",
			path: "/api/v1/game-state",
			want: "https://example.com/engine/api/v1/game-state",
		},
		{
			name: "base with trailing slash",
			base: "https://example.com/",
			path: "api",
			want: "https://example.com/api",
		},
		{
			name: "trailing slash preserved",
			base: "https://example.com",
			path: "/v1/context/",
			want: "https://example.com/v1/context/",
		},
		{
			name: "dot segments cleaned",
			base: "https://example.com/engine",
			path: "/v1/../../admin",
			want: "https://example.com/admin",
		},
		{
			name: "empty path",
			base: "https://example.com",
			path: "",
			want: "https://example.com/",
		},
		{
			name:    "relative base",
			base:    "/engine",
			path:    "/api",
			wantErr: true,
		},
		{
			name:    "invalid base URL",
			base:    "://invalid",
			path:    "api",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JoinPath(tt.base, tt.path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWithQuery(t *testing.T) {
	got, err := WithQuery("http://engine:8080", "/v1/context/transactions", url.Values{"account_id": {"acc 1"}})
	require.NoError(t, err)
	assert.Equal(t, "http://engine:8080/v1/context/transactions?account_id=acc+1", got)

	got, err = WithQuery("http://engine:8080", "/api/v1/game-state", nil)
	require.NoError(t, err)
	assert.Equal(t, "http://engine:8080/api/v1/game-state", got)
}
