package semantic

import (
	"bytes"
	"strconv"

	"rawserve/http"
	"rawserve/http/status"
)

// Response is what a handler gives back; the connection layer frames and
// writes it.
type Response struct {
	Status  status.Status
	Headers Headers
	Body    []byte
}

// NewResponse builds a response for a status code. An empty contentType
// falls back to plain text; unknown codes get a generic reason phrase.
func NewResponse(code uint, contentType string, body []byte) *Response {
	st, _ := status.FromCode(code)

	if contentType == "" {
		contentType = "text/plain; charset=utf-8"
	}

	return &Response{
		Status: st,
		Headers: NewHeaders(map[string]string{
			"content-type": contentType,
		}),
		Body: body,
	}
}

// EnsureHeadersSet pins the headers every response on this server carries:
// the actual body length, and Connection: close, since a connection serves
// exactly one request.
func (r *Response) EnsureHeadersSet() {
	if r.Headers.underlying == nil {
		r.Headers = NewHeaders(nil)
	}

	r.Headers.Set("content-length", strconv.Itoa(len(r.Body)))
	r.Headers.Set("connection", "close")
}

// Raw converts the response into its wire form.
func (r *Response) Raw() http.Response {
	return http.Response{
		StatusLine: http.StatusLine{
			Version:      http.Version{1, 1},
			StatusCode:   r.Status.Code,
			ReasonPhrase: r.Status.ReasonPhrase,
		},
		Fields: r.Headers.ToRawFields(),
		Body:   bytes.NewReader(r.Body),
	}
}
