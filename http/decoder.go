package http

import (
	"bytes"
	"io"
	"strings"

	iolib "rawserve/lib/io"

	"github.com/pkg/errors"
)

type DecodeOptions struct {
	// RequireCRLF rejects lines terminated by a sole LF. Off by default:
	// bare-LF tolerance is part of this server's contract.
	RequireCRLF bool

	// MaxRequestLineLength limits the request line. 0 means no limit.
	// Recommended: >= 8000
	//
	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3-5
	MaxRequestLineLength uint

	// MaxFieldLineLength limits each header line. 0 means no limit.
	MaxFieldLineLength uint
}

var DefaultDecodeOptions = DecodeOptions{
	RequireCRLF:          false,
	MaxRequestLineLength: 0,
	MaxFieldLineLength:   0,
}

var (
	errLineTooLong       = errors.New("line length exceeeds limit")
	ErrMissingCRBeforeLF = errors.New("missing CR before LF")

	ErrRequestLineTooLong   = errors.New("request line length exceeds limit")
	ErrFieldLineTooLong     = errors.New("field line length exceeds limit")
	ErrMalformedRequestLine = errors.New("request line is malformed")
	ErrMalformedHead        = errors.New("stream ended before head completed")

	// ErrBodyTruncated reports a body shorter than its declared length.
	// Not a hard failure: it travels next to the partial body.
	ErrBodyTruncated = errors.New("body ended before declared length")
)

// RequestDecoder reads one request head plus its optional fixed-length body
// off a connection's byte stream.
type RequestDecoder struct {
	r    *iolib.UntilReader
	opts DecodeOptions
}

func NewRequestDecoder(r *iolib.UntilReader, opts DecodeOptions) *RequestDecoder {
	return &RequestDecoder{r: r, opts: opts}
}

// Decode fills r with the request line and header fields. r MUST be a
// non-nil pointer. On return, the underlying stream is positioned at the
// first body byte.
func (rd *RequestDecoder) Decode(r *Request) error {
	if err := rd.decodeRequestLine(&r.RequestLine); err != nil {
		return errors.Wrap(err, "parsing request line")
	}

	if err := rd.decodeFields(&r.Fields); err != nil {
		return errors.Wrap(err, "parsing headers")
	}

	r.Body = rd.r

	return nil
}

func (rd *RequestDecoder) decodeRequestLine(reqLine *RequestLine) error {
	line, err := rd.readLine(rd.opts.MaxRequestLineLength)
	if err != nil {
		if errors.Is(err, errLineTooLong) {
			return ErrRequestLineTooLong
		}
		if errors.Is(err, io.EOF) {
			return ErrMalformedRequestLine
		}
		return errors.Wrap(err, "reading line")
	}

	// An empty request line is malformed, as is anything that doesn't
	// split into exactly method, target and version on single spaces.
	parts := bytes.Split(line, []byte{SP})
	if len(parts) != 3 {
		return ErrMalformedRequestLine
	}

	method := strings.ToUpper(string(parts[0]))
	if !IsValidToken(method) {
		return ErrMalformedRequestLine
	}

	target := string(parts[1])
	if len(target) == 0 {
		return ErrMalformedRequestLine
	}

	ver, err := ParseVersion(parts[2])
	if err != nil {
		return ErrMalformedRequestLine
	}

	*reqLine = RequestLine{Method: method, Target: target, Version: ver}

	return nil
}

func (rd *RequestDecoder) decodeFields(fields *[]Field) error {
	parsed := make([]Field, 0)
	for {
		line, err := rd.readLine(rd.opts.MaxFieldLineLength)
		if err != nil {
			if errors.Is(err, errLineTooLong) {
				return ErrFieldLineTooLong
			}
			if errors.Is(err, io.EOF) {
				// Peer went away before the head's blank line.
				return ErrMalformedHead
			}
			return errors.Wrap(err, "reading line")
		}

		if len(line) == 0 {
			// Blank line: end of headers.
			break
		}

		field, err := ParseField(line)
		if err != nil {
			// A line without a colon is skipped, not fatal.
			continue
		}

		parsed = append(parsed, field)
	}

	*fields = parsed

	return nil
}

func (rd *RequestDecoder) readLine(limit uint) ([]byte, error) {
	b, err := rd.r.ReadUntil([]byte{LF})
	if err != nil {
		return nil, err
	}

	if limit > 0 && uint(len(b)) > limit {
		return nil, errLineTooLong
	}

	b = b[:len(b)-1] // Remove LF.

	if rd.opts.RequireCRLF {
		if len(b) == 0 || b[len(b)-1] != CR {
			return nil, ErrMissingCRBeforeLF
		}
		b = b[:len(b)-1]
	} else if len(b) > 0 && b[len(b)-1] == CR {
		b = b[:len(b)-1]
	}

	return b, nil
}

// ReadBody reads exactly n bytes of body, starting right after the head.
// A stream that ends, times out or fails before n bytes arrive yields the
// partial buffer together with [ErrBodyTruncated]; the caller decides
// whether the shortfall matters.
func (rd *RequestDecoder) ReadBody(n uint) ([]byte, error) {
	body, err := io.ReadAll(iolib.LimitReader(rd.r, n))
	if err != nil || uint(len(body)) < n {
		return body, ErrBodyTruncated
	}

	return body, nil
}
