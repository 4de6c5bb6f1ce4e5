package http

import "bytes"

const (
	CR   byte = '\r'
	LF   byte = '\n'
	SP   byte = ' '
	HTAB byte = '\t'
)

var (
	CRLF = []byte{CR, LF}
	OWS  = []byte{SP, HTAB}
)

// IsValidToken reports whether s is a valid HTTP token.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.2-2
func IsValidToken(s string) bool {
	if len(s) == 0 {
		return false
	}
	for _, c := range s {
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') {
			continue
		}
		if '0' <= c && c <= '9' {
			continue
		}

		switch c {
		case '!', '#', '$', '%', '&', '\'', '*', '+',
			'-', '.', '^', '_', '`', '|', '~':
			continue
		}

		return false
	}

	return true
}

// Unquote strips surrounding double quotes from token, un-escaping
// backslash sequences inside. Unquoted input comes back as a copy.
func Unquote(token []byte) []byte {
	quoted := false
	if len(token) >= 2 && token[0] == '"' && token[len(token)-1] == '"' {
		token = token[1 : len(token)-1]
		quoted = true
	}

	if !quoted {
		return bytes.Clone(token)
	}

	buf := bytes.NewBuffer(make([]byte, 0, len(token)))
	for idx := 0; idx < len(token); idx++ {
		if token[idx] == '\\' && idx+1 < len(token) {
			idx++
		}
		buf.WriteByte(token[idx])
	}

	return buf.Bytes()
}
