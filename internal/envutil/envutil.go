package envutil

import (
	"os"
	"strings"
)

// EnvVar names the deployment environment
const EnvVar = "SAVE2WIN_ENV"

// Environment returns the lower-cased deployment environment, "production"
// when unset.
func Environment() string {
	env := strings.ToLower(strings.TrimSpace(os.Getenv(EnvVar)))
	if env == "" {
		return "production"
	}
	return env
}

// IsDev reports whether the relay runs on a developer machine, where
// plain-HTTP cookies and relay-mode state are expected.
func IsDev() bool {
	switch Environment() {
	case "dev", "development", "local":
		return true
	}
	return false
}
