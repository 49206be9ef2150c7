package inference

import (
	"encoding/base64"
	"errors"
	"strings"
	"unicode"
)

// DecodeOverlay decodes a base64 overlay image. It accepts an optional
// "data:<mime>;base64," prefix, embedded whitespace, the URL-safe alphabet
// and missing padding.
func DecodeOverlay(encoded string) ([]byte, error) {
	s := strings.TrimSpace(encoded)
	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 {
			return nil, errors.New("data URI without payload")
		}
		s = s[comma+1:]
	}

	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsSpace(r):
			return -1
		case r == '-':
			return '+'
		case r == '_':
			return '/'
		}
		return r
	}, s)

	if s == "" {
		return nil, errors.New("empty overlay")
	}
	if rem := len(s) % 4; rem != 0 {
		s += strings.Repeat("=", 4-rem)
	}

	return base64.StdEncoding.DecodeString(s)
}
