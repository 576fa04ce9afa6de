package gateway

import (
	"path"
	"strings"
)

// Allowlist decides which engine paths the generic pass-through may reach.
// Patterns are slash-separated globs:
//   - /v1/context/transactions matches only itself
//   - /v1/context/* matches one more segment
//   - /v1/** matches /v1 and everything under it
//
// An empty Allowlist allows nothing.
type Allowlist struct {
	patterns [][]string
}

// NewAllowlist compiles patterns
func NewAllowlist(patterns []string) *Allowlist {
	a := &Allowlist{}
	for _, p := range patterns {
		if strings.TrimSpace(p) == "" {
			continue
		}
		a.patterns = append(a.patterns, segments(p))
	}
	return a
}

// Allows reports whether p, after cleaning, matches any pattern
func (a *Allowlist) Allows(p string) bool {
	if a == nil || len(a.patterns) == 0 {
		return false
	}
	parts := segments(p)
	for _, pattern := range a.patterns {
		if matchSegments(pattern, parts) {
			return true
		}
	}
	return false
}

// segments cleans p and splits it; "/" yields no segments
func segments(p string) []string {
	p = path.Clean("/" + p)
	if p == "/" {
		return nil
	}
	return strings.Split(p[1:], "/")
}

func matchSegments(pattern, parts []string) bool {
	for len(pattern) > 0 {
		switch pattern[0] {
		case "**":
			rest := pattern[1:]
			for i := 0; i <= len(parts); i++ {
				if matchSegments(rest, parts[i:]) {
					return true
				}
			}
			return false
		case "*":
			if len(parts) == 0 || parts[0] == "" {
				return false
			}
		default:
			if len(parts) == 0 || parts[0] != pattern[0] {
				return false
			}
		}
		pattern, parts = pattern[1:], parts[1:]
	}
	return len(parts) == 0
}
