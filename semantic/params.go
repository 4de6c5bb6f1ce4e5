package semantic

import (
	"strings"

	"github.com/pkg/errors"
)

// Params maps a key to its values in first-seen order. Repeated keys in the
// source string accumulate instead of overwriting.
type Params map[string][]string

// Get returns the first value for key.
func (p Params) Get(key string) (string, bool) {
	v, ok := p[key]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

func (p Params) Values(key string) []string { return p[key] }

// ParseParams decodes a form-encoded string ("a=1&b=two+words&a=%33") into
// a mapping. Pairs are split before decoding, so an encoded '&' or '='
// inside a key or value survives. Pairs without '=' and pairs that fail
// percent-decoding are dropped; decoding never fails as a whole.
func ParseParams(s string) Params {
	params := make(Params)
	if s == "" {
		return params
	}

	for _, pair := range strings.Split(s, "&") {
		if pair == "" {
			continue
		}

		rawKey, rawValue, found := strings.Cut(pair, "=")
		if !found {
			continue
		}

		key, err1 := unescapeForm(rawKey)
		value, err2 := unescapeForm(rawValue)
		if err1 != nil || err2 != nil {
			continue
		}

		params[key] = append(params[key], value)
	}

	return params
}

// unescapeForm applies form-encoding rules: '+' becomes SP and %XX becomes
// the byte it names.
func unescapeForm(s string) (string, error) {
	b := new(strings.Builder)
	b.Grow(len(s))

	for idx := 0; idx < len(s); idx++ {
		switch c := s[idx]; c {
		case '+':
			b.WriteByte(' ')
		case '%':
			if idx+2 >= len(s) || !isHexDigit(s[idx+1]) || !isHexDigit(s[idx+2]) {
				bad := s[idx:min(len(s), idx+3)]
				return "", errors.Errorf("percent encoding not properly applied: %q", bad)
			}
			b.WriteByte(unhex([2]byte{s[idx+1], s[idx+2]}))
			idx += 2
		default:
			b.WriteByte(c)
		}
	}

	return b.String(), nil
}

func isHexDigit(c byte) bool {
	return ('0' <= c && c <= '9') ||
		('a' <= c && c <= 'f') ||
		('A' <= c && c <= 'F')
}

func unhex(h [2]byte) (c byte) {
	return (hexToNum(h[0]) << 4) | hexToNum(h[1])
}

func hexToNum(h byte) byte {
	switch {
	case '0' <= h && h <= '9':
		return h - '0'
	case 'a' <= h && h <= 'f':
		return h - 'a' + 10
	case 'A' <= h && h <= 'F':
		return h - 'A' + 10
	}
	return 0
}
