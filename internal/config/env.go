package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// envConfig is the environment-only form of Config, used when no config
// file is given.
type envConfig struct {
	Addr           string   `env:"ADDR" envDefault:":8080"`
	BaseURL        string   `env:"BASE_URL"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:","`

	IdentityBaseURL string   `env:"IDP_BASE_URL"`
	ClientID        string   `env:"CLIENT_ID"`
	ClientSecret    string   `env:"CLIENT_SECRET"`
	RedirectURI     string   `env:"REDIRECT_URI"`
	AppName         string   `env:"APP_NAME" envDefault:"Save2Win"`
	TokenURL        string   `env:"IDP_TOKEN_URL"`
	Scopes          []string `env:"IDP_SCOPES" envSeparator:" "`

	CookieName    string        `env:"SESSION_COOKIE_NAME"`
	SessionMaxAge time.Duration `env:"SESSION_MAX_AGE"`
	SecureCookie  bool          `env:"SESSION_SECURE"`

	StateValidation string        `env:"STATE_VALIDATION"`
	NonceTTL        time.Duration `env:"NONCE_TTL"`
	Storage         string        `env:"SIGNIN_STORAGE"`
	SigningKey      string        `env:"SIGNING_KEY"`
	RedisAddr       string        `env:"REDIS_ADDR"`
	RedisPassword   string        `env:"REDIS_PASSWORD"`
	RedisDB         int           `env:"REDIS_DB"`
	FirestoreProj   string        `env:"FIRESTORE_PROJECT"`
	FirestoreDB     string        `env:"FIRESTORE_DATABASE"`
	FirestoreColl   string        `env:"FIRESTORE_COLLECTION"`
	CleanupInterval time.Duration `env:"SIGNIN_CLEANUP_INTERVAL"`

	EngineBaseURL    string        `env:"ENGINE_BASE_URL"`
	EngineTimeout    time.Duration `env:"ENGINE_TIMEOUT"`
	Reshape          bool          `env:"ENGINE_RESHAPE" envDefault:"true"`
	GameStatePath    string        `env:"ENGINE_GAME_STATE_PATH"`
	RefreshPath      string        `env:"ENGINE_REFRESH_PATH"`
	TransactionsPath string        `env:"ENGINE_TRANSACTIONS_PATH"`
	AllowedPaths     []string      `env:"ENGINE_ALLOWED_PATHS" envSeparator:","`

	MCPEnabled bool `env:"MCP_ENABLED"`

	OTLPEndpoint string `env:"OTLP_ENDPOINT"`
	ServiceName  string `env:"SERVICE_NAME"`
}

// EnvPrefix is prepended to every variable read by LoadFromEnv
const EnvPrefix = "SAVE2WIN_"

// LoadFromEnv builds a Config from SAVE2WIN_* environment variables.
func LoadFromEnv() (Config, error) {
	var raw envConfig
	if err := env.ParseWithOptions(&raw, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	config := Config{
		Server: ServerConfig{
			Addr:           raw.Addr,
			BaseURL:        raw.BaseURL,
			AllowedOrigins: raw.AllowedOrigins,
		},
		Identity: IdentityConfig{
			BaseURL:      raw.IdentityBaseURL,
			ClientID:     raw.ClientID,
			ClientSecret: Secret(raw.ClientSecret),
			RedirectURI:  raw.RedirectURI,
			AppName:      raw.AppName,
			TokenURL:     raw.TokenURL,
			Scopes:       raw.Scopes,
		},
		Session: SessionConfig{
			CookieName: raw.CookieName,
			MaxAge:     raw.SessionMaxAge,
			Secure:     raw.SecureCookie,
		},
		SignIn: SignInConfig{
			StateValidation: StateValidation(raw.StateValidation),
			NonceTTL:        raw.NonceTTL,
			Storage:         StorageKind(raw.Storage),
			SigningKey:      Secret(raw.SigningKey),
			Redis: RedisConfig{
				Addr:     raw.RedisAddr,
				Password: Secret(raw.RedisPassword),
				DB:       raw.RedisDB,
			},
			Firestore: FirestoreConfig{
				Project:    raw.FirestoreProj,
				Database:   raw.FirestoreDB,
				Collection: raw.FirestoreColl,
			},
			CleanupInterval: raw.CleanupInterval,
		},
		Engine: EngineConfig{
			BaseURL:          raw.EngineBaseURL,
			Timeout:          raw.EngineTimeout,
			Reshape:          raw.Reshape,
			GameStatePath:    raw.GameStatePath,
			RefreshPath:      raw.RefreshPath,
			TransactionsPath: raw.TransactionsPath,
			AllowedPaths:     raw.AllowedPaths,
		},
		MCP: MCPConfig{Enabled: raw.MCPEnabled},
		Telemetry: TelemetryConfig{
			Endpoint:    raw.OTLPEndpoint,
			ServiceName: raw.ServiceName,
		},
	}

	ApplyDefaults(&config)

	if err := ValidateConfig(&config); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}
	return config, nil
}
