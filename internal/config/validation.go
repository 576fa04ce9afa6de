package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
)

var bashStyleRegex = regexp.MustCompile(`\$\{?([A-Z_][A-Z0-9_]*)\}?`)

// ValidationResult holds validation errors and warnings
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationError
}

// ValidationError represents a validation issue
type ValidationError struct {
	Path    string
	Message string
}

// IsValid returns true if there are no errors
func (v *ValidationResult) IsValid() bool {
	return len(v.Errors) == 0
}

func (v *ValidationResult) addError(path, format string, args ...any) {
	v.Errors = append(v.Errors, ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (v *ValidationResult) addWarning(path, format string, args ...any) {
	v.Warnings = append(v.Warnings, ValidationError{Path: path, Message: fmt.Sprintf(format, args...)})
}

// ValidateFile validates a config file structure without requiring env vars
func ValidateFile(path string) (*ValidationResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return ValidateBytes(data), nil
}

// ValidateBytes is ValidateFile on an in-memory document
func ValidateBytes(data []byte) *ValidationResult {
	result := &ValidationResult{}

	// Check JSON syntax
	var rawConfig map[string]any
	if err := json.Unmarshal(data, &rawConfig); err != nil {
		result.addError("", "invalid JSON: %v", err)
		return result
	}

	checkBashStyleSyntax(rawConfig, "", result)

	version, ok := rawConfig["version"].(string)
	if !ok {
		result.addError("version", "version field is required. Hint: Add \"version\": %q", VersionPrefix)
	} else if !strings.HasPrefix(version, VersionPrefix) {
		result.addError("version", "unsupported version '%s' - use '%s' or '%s-<variant>'", version, VersionPrefix, VersionPrefix)
	}

	validateServerStructure(rawConfig, result)
	validateIdentityStructure(rawConfig, result)
	validateSessionStructure(rawConfig, result)
	validateSignInStructure(rawConfig, result)
	validateEngineStructure(rawConfig, result)

	return result
}

func section(rawConfig map[string]any, name string, required bool, result *ValidationResult) map[string]any {
	v, present := rawConfig[name]
	if !present {
		if required {
			result.addError(name, "%s field is required and must be an object", name)
		}
		return nil
	}
	obj, ok := v.(map[string]any)
	if !ok {
		result.addError(name, "%s must be an object", name)
		return nil
	}
	return obj
}

func validateServerStructure(rawConfig map[string]any, result *ValidationResult) {
	server := section(rawConfig, "server", false, result)
	if server == nil {
		return
	}
	if origins, ok := server["allowedOrigins"]; ok {
		if _, isList := origins.([]any); !isList {
			result.addError("server.allowedOrigins", "allowedOrigins must be a list of origins")
		}
	}
}

func validateIdentityStructure(rawConfig map[string]any, result *ValidationResult) {
	identity := section(rawConfig, "identity", true, result)
	if identity == nil {
		return
	}
	for _, key := range []string{"baseURL", "clientId", "redirectUri"} {
		if _, ok := identity[key]; !ok {
			result.addError("identity."+key, "%s is required", key)
		}
	}
	if secret, ok := identity["clientSecret"]; ok {
		validateSecretReference(secret, "clientSecret", "identity.clientSecret", result)
	}
}

func validateSessionStructure(rawConfig map[string]any, result *ValidationResult) {
	session := section(rawConfig, "session", false, result)
	if session == nil {
		return
	}
	validateDuration(session, "maxAge", "session.maxAge", result)
	if secure, ok := session["secure"].(bool); ok && !secure {
		result.addWarning("session.secure", "session cookie is not marked Secure. Enable it once the relay is served over HTTPS")
	}
}

func validateSignInStructure(rawConfig map[string]any, result *ValidationResult) {
	signin := section(rawConfig, "signin", false, result)
	if signin == nil {
		signin = map[string]any{}
	}

	validateDuration(signin, "nonceTtl", "signin.nonceTtl", result)
	validateDuration(signin, "cleanupInterval", "signin.cleanupInterval", result)

	mode, _ := signin["stateValidation"].(string)
	switch StateValidation(mode) {
	case "", StateValidationRelay:
		result.addWarning("signin.stateValidation", "state is not validated server-side. Set \"stateValidation\": \"strict\" to bind callbacks to the sign-in that started them")
	case StateValidationStrict:
		key, ok := signin["signingKey"]
		if !ok {
			result.addError("signin.signingKey", "signingKey is required in strict mode")
		} else {
			validateSecretReference(key, "signingKey", "signin.signingKey", result)
		}
	default:
		result.addError("signin.stateValidation", "stateValidation must be %q or %q, got %q", StateValidationRelay, StateValidationStrict, mode)
	}

	storage, _ := signin["storage"].(string)
	switch StorageKind(storage) {
	case "", StorageMemory:
	case StorageRedis:
		redis, _ := signin["redis"].(map[string]any)
		if _, ok := redis["addr"]; !ok {
			result.addError("signin.redis.addr", "addr is required when using redis storage. Example: \"localhost:6379\"")
		}
		if password, ok := redis["password"]; ok {
			validateSecretReference(password, "password", "signin.redis.password", result)
		}
	case StorageFirestore:
		fs, _ := signin["firestore"].(map[string]any)
		if _, ok := fs["project"]; !ok {
			result.addError("signin.firestore.project", "project is required when using firestore storage")
		}
	default:
		result.addError("signin.storage", "storage must be one of memory, redis, firestore, got %q", storage)
	}
}

func validateEngineStructure(rawConfig map[string]any, result *ValidationResult) {
	engine := section(rawConfig, "engine", true, result)
	if engine == nil {
		return
	}
	if _, ok := engine["baseURL"]; !ok {
		result.addError("engine.baseURL", "baseURL is required. Example: \"http://save2win-engine:8080\"")
	}
	if d, ok := validateDuration(engine, "timeout", "engine.timeout", result); ok {
		if d < MinEngineTimeout || d > MaxEngineTimeout {
			result.addError("engine.timeout", "timeout must be between %s and %s", MinEngineTimeout, MaxEngineTimeout)
		}
	}
}

// validateDuration reports whether obj[key] is present and parses.
func validateDuration(obj map[string]any, key, path string, result *ValidationResult) (time.Duration, bool) {
	v, ok := obj[key]
	if !ok {
		return 0, false
	}
	s, isString := v.(string)
	if !isString {
		result.addError(path, "%s must be a duration string like \"10s\"", key)
		return 0, false
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		result.addError(path, "invalid duration %q: %v", s, err)
		return 0, false
	}
	return d, true
}

// validateSecretReference requires a secret to be an env var reference
func validateSecretReference(value any, fieldName, path string, result *ValidationResult) {
	switch v := value.(type) {
	case string:
		if matches := bashStyleRegex.FindStringSubmatch(v); len(matches) > 1 {
			result.addError(path, "found bash-style syntax '%s' - use {\"$env\": \"%s\"} instead", v, matches[1])
			return
		}
		result.addError(path, "%s must use environment variable reference {\"$env\": \"YOUR_ENV_VAR\"} instead of plain text. Hint: This prevents secrets from being stored in config files", fieldName)
	case map[string]any:
		if _, hasEnv := v["$env"]; !hasEnv {
			result.addError(path, "%s must use {\"$env\": \"YOUR_ENV_VAR\"} format", fieldName)
		}
	default:
		result.addError(path, "%s must be an environment variable reference {\"$env\": \"YOUR_ENV_VAR\"}, not %T", fieldName, value)
	}
}

// checkBashStyleSyntax recursively checks for bash-style env var syntax
func checkBashStyleSyntax(value any, path string, result *ValidationResult) {
	switch v := value.(type) {
	case string:
		for _, match := range bashStyleRegex.FindAllString(v, -1) {
			varName := strings.Trim(match, "${}")
			result.addWarning(path, "found bash-style syntax '%s' - use {\"$env\": \"%s\"} instead", match, varName)
		}
	case map[string]any:
		if _, hasEnv := v["$env"]; hasEnv {
			return
		}
		for key, val := range v {
			newPath := key
			if path != "" {
				newPath = path + "." + key
			}
			checkBashStyleSyntax(val, newPath, result)
		}
	case []any:
		for i, item := range v {
			checkBashStyleSyntax(item, fmt.Sprintf("%s[%d]", path, i), result)
		}
	}
}
