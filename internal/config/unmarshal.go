package config

import (
	"encoding/json"
	"fmt"
)

type field struct {
	raw    json.RawMessage
	target *string
}

// resolveFields resolves each raw value into its target, so any of them may
// be an {"$env": "VAR"} reference.
func resolveFields(fields map[string]field) error {
	for name, f := range fields {
		value, err := ParseConfigValue(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", name, err)
		}
		*f.target = value
	}
	return nil
}

// UnmarshalJSON implements custom unmarshaling for ServerConfig
func (s *ServerConfig) UnmarshalJSON(data []byte) error {
	var raw struct {
		Addr           json.RawMessage `json:"addr"`
		BaseURL        json.RawMessage `json:"baseURL"`
		AllowedOrigins []string        `json:"allowedOrigins"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	s.AllowedOrigins = raw.AllowedOrigins
	return resolveFields(map[string]field{
		"addr":    {raw.Addr, &s.Addr},
		"baseURL": {raw.BaseURL, &s.BaseURL},
	})
}

// UnmarshalJSON implements custom unmarshaling for IdentityConfig
func (c *IdentityConfig) UnmarshalJSON(data []byte) error {
	var raw struct {
		BaseURL      json.RawMessage `json:"baseURL"`
		ClientID     json.RawMessage `json:"clientId"`
		ClientSecret json.RawMessage `json:"clientSecret"`
		RedirectURI  json.RawMessage `json:"redirectUri"`
		AppName      string          `json:"appName"`
		TokenURL     json.RawMessage `json:"tokenUrl"`
		Scopes       []string        `json:"scopes"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var secret string
	err := resolveFields(map[string]field{
		"baseURL":      {raw.BaseURL, &c.BaseURL},
		"clientId":     {raw.ClientID, &c.ClientID},
		"clientSecret": {raw.ClientSecret, &secret},
		"redirectUri":  {raw.RedirectURI, &c.RedirectURI},
		"tokenUrl":     {raw.TokenURL, &c.TokenURL},
	})
	if err != nil {
		return err
	}

	c.ClientSecret = Secret(secret)
	c.AppName = raw.AppName
	c.Scopes = raw.Scopes
	return nil
}

// UnmarshalJSON implements custom unmarshaling for SessionConfig
func (s *SessionConfig) UnmarshalJSON(data []byte) error {
	var raw struct {
		CookieName string `json:"cookieName"`
		MaxAge     string `json:"maxAge"`
		Secure     bool   `json:"secure"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	maxAge, err := parseDuration("maxAge", raw.MaxAge)
	if err != nil {
		return err
	}

	s.CookieName = raw.CookieName
	s.MaxAge = maxAge
	s.Secure = raw.Secure
	return nil
}

// UnmarshalJSON implements custom unmarshaling for RedisConfig
func (r *RedisConfig) UnmarshalJSON(data []byte) error {
	var raw struct {
		Addr     json.RawMessage `json:"addr"`
		Password json.RawMessage `json:"password"`
		DB       int             `json:"db"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var password string
	err := resolveFields(map[string]field{
		"addr":     {raw.Addr, &r.Addr},
		"password": {raw.Password, &password},
	})
	if err != nil {
		return err
	}

	r.Password = Secret(password)
	r.DB = raw.DB
	return nil
}

// UnmarshalJSON implements custom unmarshaling for SignInConfig
func (s *SignInConfig) UnmarshalJSON(data []byte) error {
	var raw struct {
		StateValidation StateValidation `json:"stateValidation"`
		NonceTTL        string          `json:"nonceTtl"`
		Storage         StorageKind     `json:"storage"`
		SigningKey      json.RawMessage `json:"signingKey"`
		Redis           RedisConfig     `json:"redis"`
		Firestore       FirestoreConfig `json:"firestore"`
		CleanupInterval string          `json:"cleanupInterval"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	nonceTTL, err := parseDuration("nonceTtl", raw.NonceTTL)
	if err != nil {
		return err
	}
	cleanup, err := parseDuration("cleanupInterval", raw.CleanupInterval)
	if err != nil {
		return err
	}

	key, err := ParseConfigValue(raw.SigningKey)
	if err != nil {
		return fmt.Errorf("parsing signingKey: %w", err)
	}

	s.StateValidation = raw.StateValidation
	s.NonceTTL = nonceTTL
	s.Storage = raw.Storage
	s.SigningKey = Secret(key)
	s.Redis = raw.Redis
	s.Firestore = raw.Firestore
	s.CleanupInterval = cleanup
	return nil
}

// UnmarshalJSON implements custom unmarshaling for EngineConfig.
// Reshape defaults to true when absent.
func (e *EngineConfig) UnmarshalJSON(data []byte) error {
	var raw struct {
		BaseURL          json.RawMessage `json:"baseURL"`
		Timeout          string          `json:"timeout"`
		Reshape          *bool           `json:"reshape"`
		GameStatePath    string          `json:"gameStatePath"`
		RefreshPath      string          `json:"refreshPath"`
		TransactionsPath string          `json:"transactionsPath"`
		AllowedPaths     []string        `json:"allowedPaths"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	baseURL, err := ParseConfigValue(raw.BaseURL)
	if err != nil {
		return fmt.Errorf("parsing baseURL: %w", err)
	}
	timeout, err := parseDuration("timeout", raw.Timeout)
	if err != nil {
		return err
	}

	e.BaseURL = baseURL
	e.Timeout = timeout
	e.Reshape = raw.Reshape == nil || *raw.Reshape
	e.GameStatePath = raw.GameStatePath
	e.RefreshPath = raw.RefreshPath
	e.TransactionsPath = raw.TransactionsPath
	e.AllowedPaths = raw.AllowedPaths
	return nil
}

// UnmarshalJSON implements custom unmarshaling for TelemetryConfig
func (t *TelemetryConfig) UnmarshalJSON(data []byte) error {
	var raw struct {
		Endpoint    json.RawMessage `json:"endpoint"`
		ServiceName string          `json:"serviceName"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	endpoint, err := ParseConfigValue(raw.Endpoint)
	if err != nil {
		return fmt.Errorf("parsing endpoint: %w", err)
	}

	t.Endpoint = endpoint
	t.ServiceName = raw.ServiceName
	return nil
}
