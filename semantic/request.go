package semantic

import (
	"strings"

	"rawserve/http"
)

type Method = string

const (
	MethodGet     Method = "GET"
	MethodHead    Method = "HEAD"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodPatch   Method = "PATCH"
	MethodDelete  Method = "DELETE"
	MethodOptions Method = "OPTIONS"
)

// Request is the structured, immutable view of one decoded request. It is
// built once per connection and never shared across goroutines, so derived
// data is computed eagerly at construction and needs no synchronization.
type Request struct {
	Method  Method
	Version http.Version

	// RawTarget is the target as received, query string included.
	// Path never carries the query string.
	RawTarget string
	Path      string

	Headers Headers

	// Body is the full body snapshot, readable any number of times.
	// When BodyTruncated is set, the peer delivered fewer bytes than
	// Content-Length declared before closing or timing out.
	Body          []byte
	BodyTruncated bool

	queryParams Params
	formParams  Params
	parts       []Part
	partsErr    error
}

// NewRequest assembles the request handlers see. headers must already be
// built from raw.Fields; body is the buffered body (nil when none was
// declared).
func NewRequest(raw *http.Request, headers Headers, body []byte, truncated bool) *Request {
	path, query := splitTarget(raw.Target)

	r := &Request{
		Method:        raw.Method,
		Version:       raw.Version,
		RawTarget:     raw.Target,
		Path:          path,
		Headers:       headers,
		Body:          body,
		BodyTruncated: truncated,

		queryParams: ParseParams(query),
		formParams:  make(Params),
	}

	if r.IsFormURLEncoded() && methodAllowsBody(r.Method) {
		r.formParams = ParseParams(string(body))
	}

	if r.IsMultipart() {
		r.parts, r.partsErr = DecodeParts(headers.ContentType(), body)
	}

	return r
}

// QueryParams returns the decoded query-string parameters. An absent query
// string yields an empty mapping, never an error.
func (r *Request) QueryParams() Params { return r.queryParams }

// FormParams returns the decoded body parameters. The mapping is empty
// unless the content type is application/x-www-form-urlencoded and the
// method conventionally carries a body (POST/PUT/PATCH).
func (r *Request) FormParams() Params { return r.formParams }

// Parts returns the multipart parts in wire order. A failed decode yields
// an empty sequence; PartsError tells why.
func (r *Request) Parts() []Part { return r.parts }

// PartsError reports why multipart decoding degraded, if it did.
func (r *Request) PartsError() error { return r.partsErr }

func (r *Request) IsMultipart() bool {
	return strings.Contains(r.Headers.ContentType(), "multipart/form-data")
}

func (r *Request) IsFormURLEncoded() bool {
	return strings.Contains(r.Headers.ContentType(), "application/x-www-form-urlencoded")
}

// splitTarget cuts the raw target at the first '?'.
func splitTarget(target string) (path, query string) {
	path, query, _ = strings.Cut(target, "?")
	return path, query
}

func methodAllowsBody(m Method) bool {
	switch m {
	case MethodPost, MethodPut, MethodPatch:
		return true
	}
	return false
}
