package http

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

type EncodeOptions struct {
	// UseSoleLF terminates lines with a single LF instead of CRLF.
	UseSoleLF bool
}

var DefaultEncodeOptions = EncodeOptions{
	UseSoleLF: false,
}

// ResponseEncoder serializes one response onto the wire: status line,
// header fields, blank line, body.
type ResponseEncoder struct {
	bw   *bufio.Writer
	opts EncodeOptions
}

func NewResponseEncoder(w io.Writer, opts EncodeOptions) *ResponseEncoder {
	return &ResponseEncoder{bw: bufio.NewWriter(w), opts: opts}
}

func (re *ResponseEncoder) Encode(response Response) error {
	if err := re.encodeStatusLine(response.StatusLine); err != nil {
		return errors.Wrap(err, "encoding status line")
	}

	if err := re.encodeFields(response.Fields); err != nil {
		return errors.Wrap(err, "encoding headers")
	}

	// Flush the head before the body starts streaming.
	if err := re.bw.Flush(); err != nil {
		return errors.Wrap(err, "flushing status line & headers")
	}

	if response.Body != nil {
		if _, err := re.bw.ReadFrom(response.Body); err != nil {
			return errors.Wrap(err, "writing response body")
		}
	}

	if err := re.bw.Flush(); err != nil {
		return errors.Wrap(err, "flushing response body")
	}

	return nil
}

func (re *ResponseEncoder) encodeStatusLine(statLine StatusLine) error {
	buf := bytes.NewBuffer(nil)

	buf.Write(statLine.Version.Text())
	buf.WriteByte(SP)
	buf.Write([]byte(strconv.FormatUint(uint64(statLine.StatusCode), 10)))
	buf.WriteByte(SP)
	buf.Write([]byte(statLine.ReasonPhrase))

	return re.writeLine(buf.Bytes())
}

func (re *ResponseEncoder) encodeFields(fields []Field) error {
	for _, field := range fields {
		if err := re.writeLine(field.Text()); err != nil {
			return errors.Wrap(err, "writing field")
		}
	}

	// Blank line closes the head.
	return re.writeLine(nil)
}

func (re *ResponseEncoder) writeLine(line []byte) error {
	if _, err := re.bw.Write(line); err != nil {
		return errors.Wrap(err, "writing line")
	}

	term := CRLF
	if re.opts.UseSoleLF {
		term = term[1:]
	}

	if _, err := re.bw.Write(term); err != nil {
		return errors.Wrap(err, "writing line terminator")
	}

	return nil
}
