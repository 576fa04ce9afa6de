package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Secret is a string type that redacts itself when printed
type Secret string

// String implements fmt.Stringer to redact the secret
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "***"
}

// MarshalJSON implements json.Marshaler to prevent secrets in JSON logs
func (s Secret) MarshalJSON() ([]byte, error) {
	if s == "" {
		return json.Marshal("")
	}
	return json.Marshal("***")
}

// StateValidation selects how the sign-in state parameter is checked.
type StateValidation string

const (
	// StateValidationRelay threads state through untouched; the signing-in
	// tab compares it against its own copy.
	StateValidationRelay StateValidation = "relay"
	// StateValidationStrict keeps a single-use server-side record per
	// sign-in and rejects callbacks that don't consume one.
	StateValidationStrict StateValidation = "strict"
)

// StorageKind selects the pending sign-in store used in strict mode.
type StorageKind string

const (
	StorageMemory    StorageKind = "memory"
	StorageRedis     StorageKind = "redis"
	StorageFirestore StorageKind = "firestore"
)

// Defaults
const (
	DefaultAddr             = ":8080"
	DefaultCookieName       = "boa_id_token"
	DefaultSessionMaxAge    = 8 * time.Hour
	DefaultNonceTTL         = 10 * time.Minute
	DefaultCleanupInterval  = time.Minute
	DefaultEngineTimeout    = 12 * time.Second
	MinEngineTimeout        = time.Second
	MaxEngineTimeout        = 60 * time.Second
	DefaultGameStatePath    = "/api/v1/game-state"
	DefaultRefreshPath      = "/api/v1/game-state/refresh"
	DefaultTransactionsPath = "/v1/context/transactions"
	DefaultFirestoreDB      = "(default)"
	DefaultFirestoreColl    = "save2win_pending_signins"
	DefaultServiceName      = "save2win-front"
	MinSigningKeyLength     = 32
)

// ServerConfig is the inbound HTTP surface.
type ServerConfig struct {
	Addr           string   `json:"addr"`
	BaseURL        string   `json:"baseURL"`
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`
}

// IdentityConfig describes the external identity provider.
// BaseURL is the authorization page the browser is sent to.
type IdentityConfig struct {
	BaseURL      string   `json:"baseURL"`
	ClientID     string   `json:"clientId"`
	ClientSecret Secret   `json:"clientSecret,omitempty"`
	RedirectURI  string   `json:"redirectUri"`
	AppName      string   `json:"appName,omitempty"`
	TokenURL     string   `json:"tokenUrl,omitempty"`
	Scopes       []string `json:"scopes,omitempty"`
}

// SessionConfig controls the session cookie.
type SessionConfig struct {
	CookieName string        `json:"cookieName"`
	MaxAge     time.Duration `json:"maxAge"`
	Secure     bool          `json:"secure"`
}

// RedisConfig for the redis pending sign-in store.
type RedisConfig struct {
	Addr     string `json:"addr"`
	Password Secret `json:"password,omitempty"`
	DB       int    `json:"db"`
}

// FirestoreConfig for the firestore pending sign-in store.
type FirestoreConfig struct {
	Project    string `json:"project"`
	Database   string `json:"database,omitempty"`
	Collection string `json:"collection,omitempty"`
}

// SignInConfig controls sign-in state handling.
type SignInConfig struct {
	StateValidation StateValidation `json:"stateValidation"`
	NonceTTL        time.Duration   `json:"nonceTtl"`
	Storage         StorageKind     `json:"storage"`
	SigningKey      Secret          `json:"signingKey,omitempty"`
	Redis           RedisConfig     `json:"redis"`
	Firestore       FirestoreConfig `json:"firestore"`
	CleanupInterval time.Duration   `json:"cleanupInterval"`
}

// EngineConfig describes the downstream game-state engine.
type EngineConfig struct {
	BaseURL          string        `json:"baseURL"`
	Timeout          time.Duration `json:"timeout"`
	Reshape          bool          `json:"reshape"`
	GameStatePath    string        `json:"gameStatePath"`
	RefreshPath      string        `json:"refreshPath"`
	TransactionsPath string        `json:"transactionsPath"`
	AllowedPaths     []string      `json:"allowedPaths,omitempty"`
}

// MCPConfig toggles the MCP tool endpoint.
type MCPConfig struct {
	Enabled bool `json:"enabled"`
}

// TelemetryConfig enables OTLP tracing when Endpoint is set.
type TelemetryConfig struct {
	Endpoint    string `json:"endpoint,omitempty"`
	ServiceName string `json:"serviceName,omitempty"`
}

// Config is the whole relay configuration.
type Config struct {
	Version   string          `json:"version"`
	Server    ServerConfig    `json:"server"`
	Identity  IdentityConfig  `json:"identity"`
	Session   SessionConfig   `json:"session"`
	SignIn    SignInConfig    `json:"signin"`
	Engine    EngineConfig    `json:"engine"`
	MCP       MCPConfig       `json:"mcp"`
	Telemetry TelemetryConfig `json:"telemetry"`
}

// ParseConfigValue parses a JSON value that is either a plain string or an
// {"$env": "VAR"} reference, resolving the reference immediately.
func ParseConfigValue(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", nil
	}

	// Try plain string first
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str, nil
	}

	// Try reference object
	var ref map[string]string
	if err := json.Unmarshal(raw, &ref); err != nil {
		return "", fmt.Errorf("config value must be string or reference object")
	}

	envVar, ok := ref["$env"]
	if !ok {
		return "", fmt.Errorf("unknown reference type in config value")
	}

	value := os.Getenv(envVar)
	if value == "" {
		return "", fmt.Errorf("environment variable %s not set", envVar)
	}
	// Strip surrounding quotes if present (only matching pairs)
	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'') {
			value = value[1 : len(value)-1]
		}
	}
	return value, nil
}

// parseDuration accepts an empty string as "unset".
func parseDuration(field, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", field, err)
	}
	return d, nil
}
