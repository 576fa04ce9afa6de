package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/save2win/save2win-front/internal/log"
)

// VersionPrefix is the accepted config file version prefix
const VersionPrefix = "v0.0.1-DEV_EDITION"

// secretFields must be {"$env": ...} references in config files.
var secretFields = [][]string{
	{"identity", "clientSecret"},
	{"signin", "signingKey"},
	{"signin", "redis", "password"},
}

// Load loads and processes the config with immediate env var resolution
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var rawConfig map[string]any
	if err := json.Unmarshal(data, &rawConfig); err != nil {
		return Config{}, fmt.Errorf("parsing config JSON: %w", err)
	}

	version, ok := rawConfig["version"].(string)
	if !ok {
		return Config{}, fmt.Errorf("config version is required")
	}
	if !strings.HasPrefix(version, VersionPrefix) {
		return Config{}, fmt.Errorf("unsupported config version: %s", version)
	}

	if err := validateRawConfig(rawConfig); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	// Parse directly into typed Config struct
	// The custom UnmarshalJSON methods will resolve env vars immediately
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	ApplyDefaults(&config)

	if err := ValidateConfig(&config); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// validateRawConfig rejects secrets written inline in the file
func validateRawConfig(rawConfig map[string]any) error {
	for _, path := range secretFields {
		value, ok := lookup(rawConfig, path)
		if !ok {
			continue
		}
		name := strings.Join(path, ".")
		if _, isString := value.(string); isString {
			return fmt.Errorf("%s must use environment variable reference for security", name)
		}
		if refMap, isMap := value.(map[string]any); isMap {
			if _, hasEnv := refMap["$env"]; !hasEnv {
				return fmt.Errorf("%s must use {\"$env\": \"VAR_NAME\"} format", name)
			}
		}
	}
	return nil
}

func lookup(m map[string]any, path []string) (any, bool) {
	var cur any = m
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[key]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// ApplyDefaults fills every unset optional field
func ApplyDefaults(c *Config) {
	if c.Version == "" {
		c.Version = VersionPrefix
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Session.CookieName == "" {
		c.Session.CookieName = DefaultCookieName
	}
	if c.Session.MaxAge == 0 {
		c.Session.MaxAge = DefaultSessionMaxAge
	}
	if c.SignIn.StateValidation == "" {
		c.SignIn.StateValidation = StateValidationRelay
	}
	if c.SignIn.NonceTTL == 0 {
		c.SignIn.NonceTTL = DefaultNonceTTL
	}
	if c.SignIn.Storage == "" {
		c.SignIn.Storage = StorageMemory
	}
	if c.SignIn.CleanupInterval == 0 {
		c.SignIn.CleanupInterval = DefaultCleanupInterval
	}
	if c.SignIn.Firestore.Database == "" {
		c.SignIn.Firestore.Database = DefaultFirestoreDB
	}
	if c.SignIn.Firestore.Collection == "" {
		c.SignIn.Firestore.Collection = DefaultFirestoreColl
	}
	if c.Engine.Timeout == 0 {
		c.Engine.Timeout = DefaultEngineTimeout
	}
	if c.Engine.GameStatePath == "" {
		c.Engine.GameStatePath = DefaultGameStatePath
	}
	if c.Engine.RefreshPath == "" {
		c.Engine.RefreshPath = DefaultRefreshPath
	}
	if c.Engine.TransactionsPath == "" {
		c.Engine.TransactionsPath = DefaultTransactionsPath
	}
	if c.Telemetry.ServiceName == "" {
		c.Telemetry.ServiceName = DefaultServiceName
	}
}

// ValidateConfig validates the resolved configuration
func ValidateConfig(config *Config) error {
	if config.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}

	if err := validateIdentity(&config.Identity); err != nil {
		return fmt.Errorf("identity config: %w", err)
	}

	if config.Session.MaxAge < 0 {
		return fmt.Errorf("session.maxAge cannot be negative")
	}

	if err := validateSignIn(&config.SignIn); err != nil {
		return fmt.Errorf("signin config: %w", err)
	}

	if err := validateEngine(&config.Engine); err != nil {
		return fmt.Errorf("engine config: %w", err)
	}

	return nil
}

func validateIdentity(idp *IdentityConfig) error {
	if err := requireAbsoluteURL("baseURL", idp.BaseURL); err != nil {
		return err
	}
	if idp.ClientID == "" {
		return fmt.Errorf("clientId is required")
	}
	if err := requireAbsoluteURL("redirectUri", idp.RedirectURI); err != nil {
		return err
	}
	if idp.TokenURL != "" {
		if err := requireAbsoluteURL("tokenUrl", idp.TokenURL); err != nil {
			return err
		}
	}
	return nil
}

func validateSignIn(s *SignInConfig) error {
	switch s.StateValidation {
	case StateValidationRelay:
		return nil
	case StateValidationStrict:
	default:
		return fmt.Errorf("stateValidation must be %q or %q, got %q", StateValidationRelay, StateValidationStrict, s.StateValidation)
	}

	if len(s.SigningKey) < MinSigningKeyLength {
		return fmt.Errorf("signingKey must be at least %d characters in strict mode (got %d). Generate with: openssl rand -base64 32", MinSigningKeyLength, len(s.SigningKey))
	}
	if s.NonceTTL < 0 {
		return fmt.Errorf("nonceTtl cannot be negative")
	}
	if s.CleanupInterval < 0 {
		return fmt.Errorf("cleanupInterval cannot be negative")
	}
	if s.CleanupInterval > s.NonceTTL {
		log.LogWarn("Sign-in cleanup interval is greater than nonce TTL")
	}

	switch s.Storage {
	case StorageMemory:
	case StorageRedis:
		if s.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required when using redis storage")
		}
	case StorageFirestore:
		if s.Firestore.Project == "" {
			return fmt.Errorf("firestore.project is required when using firestore storage")
		}
	default:
		return fmt.Errorf("unknown storage %q", s.Storage)
	}
	return nil
}

func validateEngine(e *EngineConfig) error {
	if err := requireAbsoluteURL("baseURL", e.BaseURL); err != nil {
		return err
	}
	if e.Timeout < MinEngineTimeout || e.Timeout > MaxEngineTimeout {
		return fmt.Errorf("timeout must be between %s and %s, got %s", MinEngineTimeout, MaxEngineTimeout, e.Timeout)
	}
	for _, p := range []string{e.GameStatePath, e.RefreshPath, e.TransactionsPath} {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("engine path %q must start with /", p)
		}
	}
	return nil
}

func requireAbsoluteURL(name, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", name)
	}
	u, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", name, value)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host", name)
	}
	return nil
}
