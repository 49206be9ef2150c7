package storage

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeLocator turns a backend reference into an absolute, durable URL.
// Whitespace and dangling "?" / "&" are trimmed, relative references are
// resolved against baseURL, and anything that still is not an absolute
// http(s) URL with a host is rejected.
func NormalizeLocator(baseURL, ref string) (string, error) {
	ref = strings.TrimRight(strings.TrimSpace(ref), "?&")
	if ref == "" {
		return "", fmt.Errorf("%w: empty reference", ErrInvalidLocator)
	}

	u, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidLocator, err)
	}

	if !u.IsAbs() {
		joined := strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(ref, "/")
		u, err = url.Parse(joined)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidLocator, err)
		}
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: %q is not an absolute http(s) URL", ErrInvalidLocator, ref)
	}

	return u.String(), nil
}

// KeyFromLocator strips baseURL from a locator and returns the object key
func KeyFromLocator(baseURL, locator string) (string, error) {
	normalized, err := NormalizeLocator(baseURL, locator)
	if err != nil {
		return "", err
	}

	prefix := strings.TrimRight(baseURL, "/") + "/"
	if !strings.HasPrefix(normalized, prefix) {
		return "", fmt.Errorf("%w: %q is not served by this store", ErrInvalidLocator, locator)
	}

	rest := strings.TrimPrefix(normalized, prefix)
	if i := strings.IndexAny(rest, "?#"); i >= 0 {
		rest = rest[:i]
	}

	key, err := url.PathUnescape(rest)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidLocator, err)
	}
	if err := ValidateKey(key); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidLocator, err)
	}
	return key, nil
}
