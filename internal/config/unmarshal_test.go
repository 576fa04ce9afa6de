package config

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfigValue(t *testing.T) {
	t.Setenv("TEST_PLAIN", "value")
	t.Setenv("TEST_QUOTED", `"quoted"`)

	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr string
	}{
		{name: "plain string", raw: `"hello"`, want: "hello"},
		{name: "env reference", raw: `{"$env": "TEST_PLAIN"}`, want: "value"},
		{name: "quotes stripped", raw: `{"$env": "TEST_QUOTED"}`, want: "quoted"},
		{name: "unset env", raw: `{"$env": "TEST_DOES_NOT_EXIST"}`, wantErr: "not set"},
		{name: "unknown reference", raw: `{"$file": "x"}`, wantErr: "unknown reference type"},
		{name: "number", raw: `42`, wantErr: "must be string or reference object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConfigValue(json.RawMessage(tt.raw))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseConfigValue_Empty(t *testing.T) {
	got, err := ParseConfigValue(nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIdentityConfig_UnmarshalJSON(t *testing.T) {
	t.Setenv("TEST_CLIENT_SECRET", "s3cret")

	var idp IdentityConfig
	err := json.Unmarshal([]byte(`{
		"baseURL": "https://bank/login",
		"clientId": "c",
		"clientSecret": {"$env": "TEST_CLIENT_SECRET"},
		"redirectUri": "https://app/callback",
		"scopes": ["openid"]
	}`), &idp)
	require.NoError(t, err)

	assert.Equal(t, "https://bank/login", idp.BaseURL)
	assert.Equal(t, Secret("s3cret"), idp.ClientSecret)
	assert.Equal(t, []string{"openid"}, idp.Scopes)
}

func TestEngineConfig_ReshapeDefault(t *testing.T) {
	tests := []struct {
		name string
		json string
		want bool
	}{
		{name: "absent", json: `{"baseURL": "http://e"}`, want: true},
		{name: "true", json: `{"baseURL": "http://e", "reshape": true}`, want: true},
		{name: "false", json: `{"baseURL": "http://e", "reshape": false}`, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e EngineConfig
			require.NoError(t, json.Unmarshal([]byte(tt.json), &e))
			assert.Equal(t, tt.want, e.Reshape)
		})
	}
}

func TestSessionConfig_UnmarshalJSON(t *testing.T) {
	var s SessionConfig
	require.NoError(t, json.Unmarshal([]byte(`{"cookieName": "sid", "maxAge": "2h", "secure": true}`), &s))

	assert.Equal(t, "sid", s.CookieName)
	assert.Equal(t, "2h0m0s", s.MaxAge.String())
	assert.True(t, s.Secure)

	err := json.Unmarshal([]byte(`{"maxAge": "forever"}`), &s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing maxAge")
}
