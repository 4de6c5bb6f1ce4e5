package semantic

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const multipartContentType = "multipart/form-data; boundary=XyZ"

func multipartBody(spans ...string) []byte {
	body := ""
	for _, span := range spans {
		body += "--XyZ\r\n" + span + "\r\n"
	}
	return []byte(body + "--XyZ--\r\n")
}

func TestDecodeParts(t *testing.T) {
	body := multipartBody(
		"Content-Disposition: form-data; name=\"field\"\r\n"+
			"\r\n"+
			"Alice",
		"Content-Disposition: form-data; name=\"upload\"; filename=\"a.png\"\r\n"+
			"Content-Type: image/png\r\n"+
			"\r\n"+
			"\xff\xd8\x00\x01",
	)

	parts, err := DecodeParts(multipartContentType, body)
	require.NoError(t, err)
	require.Len(t, parts, 2)

	field := parts[0]
	assert.Equal(t, "field", field.Name())
	assert.False(t, field.IsFile())
	assert.Equal(t, "Alice", field.Text())

	file := parts[1]
	assert.Equal(t, "upload", file.Name())
	assert.True(t, file.IsFile())
	assert.Equal(t, "a.png", file.FileName())
	assert.Equal(t, "image/png", file.ContentType())
	assert.Equal(t, []byte{0xff, 0xd8, 0x00, 0x01}, file.Content())
	assert.Equal(t, 4, file.Size())
}

func TestDecodePartsZeroLengthFile(t *testing.T) {
	body := multipartBody(
		"Content-Disposition: form-data; name=\"empty\"; filename=\"empty.txt\"\r\n" +
			"\r\n",
	)

	parts, err := DecodeParts(multipartContentType, body)
	require.NoError(t, err)
	require.Len(t, parts, 1)

	assert.True(t, parts[0].IsFile())
	assert.Equal(t, 0, parts[0].Size())
}

// Binary content containing CRLF pairs must not confuse the framing; only
// the boundary delimiter splits parts.
func TestDecodePartsBinaryWithCRLF(t *testing.T) {
	content := "line1\r\nline2\r\n\r\nline3"
	body := multipartBody(
		"Content-Disposition: form-data; name=\"blob\"\r\n" +
			"\r\n" +
			content,
	)

	parts, err := DecodeParts(multipartContentType, body)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, content, parts[0].Text())
}

func TestDecodePartsTerminalMarker(t *testing.T) {
	// Nothing after the terminal "--boundary--" may produce a part.
	body := multipartBody(
		"Content-Disposition: form-data; name=\"a\"\r\n" +
			"\r\n" +
			"1",
	)
	body = append(body, []byte("trailing garbage")...)

	parts, err := DecodeParts(multipartContentType, body)
	require.NoError(t, err)
	assert.Len(t, parts, 1)
}

func TestDecodePartsSkipsUnusableSpans(t *testing.T) {
	body := multipartBody(
		// No Content-Disposition at all.
		"Content-Type: text/plain\r\n"+
			"\r\n"+
			"orphan",
		// Disposition without a name.
		"Content-Disposition: form-data\r\n"+
			"\r\n"+
			"nameless",
		"Content-Disposition: form-data; name=\"kept\"\r\n"+
			"\r\n"+
			"value",
	)

	parts, err := DecodeParts(multipartContentType, body)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, "kept", parts[0].Name())
}

func TestDecodePartsDegrades(t *testing.T) {
	testcases := []struct {
		desc        string
		contentType string
		body        string
		wantErr     error
	}{
		{
			desc:        "no boundary parameter",
			contentType: "multipart/form-data",
			body:        "--XyZ\r\n",
			wantErr:     ErrNoBoundary,
		},
		{
			desc:        "empty boundary",
			contentType: "multipart/form-data; boundary=",
			body:        "--\r\n",
			wantErr:     ErrNoBoundary,
		},
		{
			desc:        "delimiter absent from body",
			contentType: multipartContentType,
			body:        "no delimiters here",
			wantErr:     ErrNoDelimiter,
		},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			parts, err := DecodeParts(tc.contentType, []byte(tc.body))
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Empty(t, parts)
		})
	}
}

func TestBoundaryParam(t *testing.T) {
	testcases := []struct {
		desc        string
		contentType string
		expected    string
		wantErr     bool
	}{
		{
			desc:        "bare",
			contentType: "multipart/form-data; boundary=XyZ",
			expected:    "XyZ",
		},
		{
			desc:        "quoted",
			contentType: "multipart/form-data; boundary=\"XyZ\"",
			expected:    "XyZ",
		},
		{
			desc:        "followed by another parameter",
			contentType: "multipart/form-data; boundary=XyZ; charset=utf-8",
			expected:    "XyZ",
		},
		{
			desc:        "missing",
			contentType: "multipart/form-data",
			wantErr:     true,
		},
	}
	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			got, err := boundaryParam(tc.contentType)
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrNoBoundary)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, string(got))
		})
	}
}

func TestDispositionParam(t *testing.T) {
	disposition := "form-data; name=\"upload\"; filename=photo.jpg"

	name, ok := dispositionParam(disposition, "name")
	require.True(t, ok)
	assert.Equal(t, "upload", name)

	fileName, ok := dispositionParam(disposition, "filename")
	require.True(t, ok)
	assert.Equal(t, "photo.jpg", fileName)

	_, ok = dispositionParam(disposition, "missing")
	assert.False(t, ok)

	_, ok = dispositionParam("form-data; name=\"\"", "name")
	assert.False(t, ok)
}

func TestDecodePartsManyParts(t *testing.T) {
	spans := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		spans = append(spans,
			"Content-Disposition: form-data; name=\"f\"\r\n"+
				"\r\n"+
				strings.Repeat("x", i))
	}

	parts, err := DecodeParts(multipartContentType, multipartBody(spans...))
	require.NoError(t, err)
	require.Len(t, parts, 10)
	for i, p := range parts {
		assert.Equal(t, i, p.Size())
	}
}
