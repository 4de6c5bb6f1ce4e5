package iolib

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
)

var ErrZeroLenDelim = errors.New("delim has zero length")

// UntilReader reads delimiter-terminated runs of bytes from r without
// consuming anything past the delimiter. Bytes fetched from r but not yet
// returned stay in an internal buffer, so plain Read calls pick up exactly
// where the last ReadUntil stopped.
type UntilReader struct {
	r io.Reader

	buf *bytes.Buffer
}

func NewUntilReader(r io.Reader) *UntilReader {
	return &UntilReader{r: r, buf: bytes.NewBuffer(nil)}
}

func (ur *UntilReader) Read(p []byte) (n int, err error) {
	if ur.buf.Len() > 0 {
		n, err = ur.buf.Read(p)
		if err == io.EOF {
			err = nil
		}
		return n, err
	}

	return ur.r.Read(p)
}

// ReadUntil returns everything up to and including delim. If the underlying
// reader fails before delim shows up, whatever was gathered is returned
// alongside the error.
func (ur *UntilReader) ReadUntil(delim []byte) ([]byte, error) {
	if len(delim) == 0 {
		return nil, ErrZeroLenDelim
	}

	acc := append([]byte(nil), ur.buf.Bytes()...)
	ur.buf.Reset()

	searched := 0
	tmp := make([]byte, 512)

	for {
		if idx := bytes.Index(acc[searched:], delim); idx >= 0 {
			end := searched + idx + len(delim)
			ur.buf.Write(acc[end:])
			return acc[:end], nil
		}

		// A match can still straddle the boundary of the next read,
		// so keep the last len(delim)-1 bytes in scan range.
		if len(acc) >= len(delim) {
			searched = len(acc) - len(delim) + 1
		}

		n, err := ur.r.Read(tmp)
		acc = append(acc, tmp[:n]...)
		if err != nil {
			return acc, err
		}
	}
}
