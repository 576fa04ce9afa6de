package urlutil

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// JoinPath joins base and p, keeping base's own path prefix and p's trailing slash
func JoinPath(base string, p string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("base URL %q must be absolute", base)
	}

	u.Path = path.Join("/", u.Path, p)
	if strings.HasSuffix(p, "/") && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawPath = ""

	return u.String(), nil
}

// WithQuery is JoinPath followed by replacing the query with q
func WithQuery(base, p string, q url.Values) (string, error) {
	joined, err := JoinPath(base, p)
	if err != nil {
		return "", err
	}
	if len(q) == 0 {
		return joined, nil
	}
	u, err := url.Parse(joined)
	if err != nil {
		return "", err
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}
