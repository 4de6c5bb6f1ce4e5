// Package http implements the wire layer of a deliberately small HTTP/1.1
// subset: hand-rolled framing of request heads, fixed-length bodies and
// responses over a raw byte stream. There is no chunked coding, no
// keep-alive and no pipelining; one request per connection.
package http

import (
	"bytes"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

type RequestLine struct {
	Method  string
	Target  string
	Version Version
}

// Request is the raw decoded head. Body is the connection's remaining byte
// stream, positioned at the first byte after the head's blank line.
type Request struct {
	RequestLine
	Fields []Field

	Body io.Reader
}

type StatusLine struct {
	Version      Version
	StatusCode   uint
	ReasonPhrase string
}

type Response struct {
	StatusLine
	Fields []Field

	Body io.Reader
}

// [Major, Minor]
type Version [2]uint

// ParseVersion parses http version text(e.g. "HTTP/1.1") into [Version].
func ParseVersion(b []byte) (Version, error) {
	prefix := []byte("HTTP/")
	if !bytes.HasPrefix(b, prefix) {
		return Version{}, errors.Errorf("http version prefix not found: %s", b)
	}

	first, second, found := bytes.Cut(b[len(prefix):], []byte{'.'})
	if !found {
		return Version{}, errors.Errorf("dot seperator not found on version: %s", b)
	}

	major, err1 := strconv.ParseUint(string(first), 10, 64)
	minor, err2 := strconv.ParseUint(string(second), 10, 64)
	if err1 != nil || err2 != nil {
		return Version{}, errors.Errorf("http version is not convertable to int: %s", b)
	}

	return Version{uint(major), uint(minor)}, nil
}

func (ver Version) Text() []byte {
	buf := bytes.NewBuffer(nil)
	buf.Write([]byte("HTTP/"))
	buf.Write([]byte(strconv.FormatUint(uint64(ver[0]), 10)))
	buf.Write([]byte{'.'})
	buf.Write([]byte(strconv.FormatUint(uint64(ver[1]), 10)))
	return buf.Bytes()
}

func (ver Version) String() string { return string(ver.Text()) }

type Field struct{ Name, Value []byte }

// ParseField splits a header line at its first colon, trimming optional
// whitespace around the value. Lines without a colon are not a Field;
// callers decide whether that is fatal.
func ParseField(fieldLine []byte) (Field, error) {
	name, value, found := bytes.Cut(fieldLine, []byte{':'})
	if !found {
		return Field{}, errors.Errorf("colon seperator not found on header: %q", string(fieldLine))
	}

	name = bytes.Trim(name, string(OWS))
	if len(name) == 0 {
		return Field{}, errors.New("field name is empty")
	}

	value = bytes.Trim(value, string(OWS))

	return Field{Name: name, Value: value}, nil
}

func (f *Field) Text() []byte {
	buf := bytes.NewBuffer(nil)
	buf.Write(f.Name)
	buf.Write([]byte(": "))
	buf.Write(f.Value)
	return buf.Bytes()
}
