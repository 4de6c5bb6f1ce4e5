package semantic

import (
	"bytes"
	"strings"

	"rawserve/http"

	"github.com/pkg/errors"
)

// Part is one section of a multipart/form-data body: a plain field or a
// file upload. Parts belong to the Request that decoded them and are never
// mutated afterwards.
type Part struct {
	name        string
	fileName    string
	contentType string
	content     []byte
}

func (p Part) Name() string        { return p.name }
func (p Part) FileName() string    { return p.fileName }
func (p Part) ContentType() string { return p.contentType }
func (p Part) Content() []byte     { return p.content }
func (p Part) Size() int           { return len(p.content) }

// Text returns the content as a string; meaningful for plain fields.
func (p Part) Text() string { return string(p.content) }

// IsFile reports whether the part carried a filename. A zero-length file
// part is still a file: an empty upload is valid.
func (p Part) IsFile() bool { return p.fileName != "" }

var (
	ErrNoBoundary  = errors.New("content type carries no boundary parameter")
	ErrNoDelimiter = errors.New("body contains no boundary delimiter")
)

var partHeadSep = []byte("\r\n\r\n")

// DecodeParts splits a multipart/form-data body into its parts.
//
// The wire delimiter is "--" + the boundary declared in contentType. The
// body is scanned for exact byte occurrences of that delimiter (parts may
// hold arbitrary binary data, so no text decoding happens); each span
// between consecutive delimiters is one part, the bytes before the first
// delimiter are preamble and a delimiter followed by "--" terminates the
// body. Spans without a parseable Content-Disposition are skipped.
//
// A decode failure means the caller gets (nil, err) and degrades to "no
// parts"; it never fails the request.
func DecodeParts(contentType string, body []byte) (parts []Part, err error) {
	defer func() {
		// The permissive contract: whatever goes wrong in here turns
		// into a degraded empty result upstream, never a crash.
		if e := recover(); e != nil {
			parts, err = nil, errors.Errorf("multipart decode panicked: %v", e)
		}
	}()

	boundary, err := boundaryParam(contentType)
	if err != nil {
		return nil, err
	}

	delim := append([]byte("--"), boundary...)

	marks := delimiterOffsets(body, delim)
	if len(marks) == 0 {
		return nil, ErrNoDelimiter
	}

	parts = make([]Part, 0)
	for i := 0; i < len(marks); i++ {
		span := body[marks[i]+len(delim):]
		if bytes.HasPrefix(span, []byte("--")) {
			// Terminal marker: "--boundary--" ends the body.
			break
		}

		if i+1 == len(marks) {
			// Unterminated trailing span; nothing more to frame.
			break
		}
		span = body[marks[i]+len(delim) : marks[i+1]]

		part, ok := parsePart(span)
		if !ok {
			continue
		}

		parts = append(parts, part)
	}

	return parts, nil
}

// delimiterOffsets finds every non-overlapping occurrence of delim.
func delimiterOffsets(body, delim []byte) []int {
	offsets := make([]int, 0)

	from := 0
	for {
		idx := bytes.Index(body[from:], delim)
		if idx < 0 {
			return offsets
		}
		offsets = append(offsets, from+idx)
		from += idx + len(delim)
	}
}

// parsePart decodes one delimiter-to-delimiter span: CRLF, header lines,
// CRLFCRLF, content, CRLF. ok is false when the span has no usable
// Content-Disposition and the part should be dropped.
func parsePart(span []byte) (part Part, ok bool) {
	// The delimiter line ends with CRLF; the part's own trailing CRLF
	// sits right before the next delimiter.
	span = bytes.TrimPrefix(span, http.CRLF)
	span = bytes.TrimSuffix(span, http.CRLF)

	head, content, found := bytes.Cut(span, partHeadSep)
	if !found {
		return Part{}, false
	}

	headers := partHeaders(head)

	disposition, ok := headers.Get("content-disposition")
	if !ok {
		return Part{}, false
	}

	name, ok := dispositionParam(disposition, "name")
	if !ok {
		return Part{}, false
	}

	fileName, _ := dispositionParam(disposition, "filename")

	return Part{
		name:        name,
		fileName:    fileName,
		contentType: headers.ContentType(),
		content:     content,
	}, true
}

// partHeaders parses the colon-delimited lines of a part head the same way
// the request head is parsed, keys lower-cased.
func partHeaders(head []byte) Headers {
	fields := make([]http.Field, 0)
	for _, line := range bytes.Split(head, http.CRLF) {
		if len(line) == 0 {
			continue
		}
		field, err := http.ParseField(line)
		if err != nil {
			continue
		}
		fields = append(fields, field)
	}

	return HeadersFrom(fields)
}

// dispositionParam pulls one parameter ("name", "filename") out of a
// Content-Disposition value, handling both quoted and bare forms. The
// value runs up to the next ';'.
func dispositionParam(disposition, key string) (string, bool) {
	for _, seg := range strings.Split(disposition, ";") {
		k, v, found := strings.Cut(seg, "=")
		if !found || !strings.EqualFold(strings.TrimSpace(k), key) {
			continue
		}

		value := string(http.Unquote([]byte(strings.TrimSpace(v))))
		if value == "" {
			return "", false
		}

		return value, true
	}

	return "", false
}

// boundaryParam extracts the boundary attribute from a multipart
// Content-Type, trimming trailing parameters and surrounding quotes.
func boundaryParam(contentType string) ([]byte, error) {
	const attr = "boundary="

	idx := strings.Index(contentType, attr)
	if idx < 0 {
		return nil, ErrNoBoundary
	}

	raw := contentType[idx+len(attr):]
	if cut := strings.IndexByte(raw, ';'); cut >= 0 {
		raw = raw[:cut]
	}
	raw = strings.TrimSpace(raw)

	boundary := http.Unquote([]byte(raw))
	if len(boundary) == 0 {
		return nil, ErrNoBoundary
	}

	return boundary, nil
}
