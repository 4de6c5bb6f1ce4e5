// Package semantic turns raw decoded messages into the structured request
// handlers actually consume: a case-insensitive header mapping, query and
// form parameters, and multipart parts.
package semantic

import (
	"sort"
	"strconv"
	"strings"

	"rawserve/http"
)

// Headers is a case-insensitive, single-valued header mapping. Keys are
// normalized to lower case; writing a key twice keeps the last value, since
// headers are treated as single-valued here.
type Headers struct{ underlying map[string]string }

func NewHeaders(initial map[string]string) Headers {
	clone := make(map[string]string, len(initial))
	for k, v := range initial {
		clone[strings.ToLower(k)] = v
	}

	return Headers{underlying: clone}
}

// HeadersFrom builds the mapping from raw fields in wire order, so a
// duplicated header line resolves to its last occurrence.
func HeadersFrom(fields []http.Field) Headers {
	clone := make(map[string]string, len(fields))
	for _, field := range fields {
		clone[strings.ToLower(string(field.Name))] = string(field.Value)
	}

	return Headers{underlying: clone}
}

func (h Headers) Get(key string) (value string, ok bool) {
	value, ok = h.underlying[strings.ToLower(key)]
	return
}

func (h Headers) Set(key, value string) {
	h.underlying[strings.ToLower(key)] = value
}

func (h Headers) Del(key string) {
	delete(h.underlying, strings.ToLower(key))
}

func (h Headers) Len() int { return len(h.underlying) }

// ToRawFields renders the mapping as wire fields with canonical
// Dash-Capitalized names, in deterministic (sorted) order.
func (h Headers) ToRawFields() []http.Field {
	keys := make([]string, 0, len(h.underlying))
	for k := range h.underlying {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]http.Field, 0, len(keys))
	for _, k := range keys {
		name := k
		if http.IsValidToken(name) {
			name = canonicalFieldName(name)
		}
		fields = append(fields, http.Field{
			Name:  []byte(name),
			Value: []byte(h.underlying[k]),
		})
	}

	return fields
}

// ContentLength parses the content-length header as a non-negative
// integer. A missing or non-numeric value reads as "no body" rather than
// an error; that leniency is part of the contract.
func (h Headers) ContentLength() (uint, bool) {
	v, ok := h.Get("content-length")
	if !ok {
		return 0, false
	}

	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false
	}

	return uint(n), true
}

func (h Headers) ContentType() string {
	v, _ := h.Get("content-type")
	return v
}

// This only works for valid token.
func canonicalFieldName(s string) string {
	const capitalDiff = 'a' - 'A'
	b := []byte(s)
	upper := true
	for i, c := range b {
		if upper && 'a' <= c && c <= 'z' {
			c -= capitalDiff
		} else if !upper && 'A' <= c && c <= 'Z' {
			c += capitalDiff
		}
		b[i] = c
		upper = c == '-'
	}
	return string(b)
}
