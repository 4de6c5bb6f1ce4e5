package semantic

import (
	"io"
	"testing"

	"rawserve/http/status"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResponse(t *testing.T) {
	t.Run("known status", func(t *testing.T) {
		r := NewResponse(200, "application/json", []byte("{}"))

		assert.Equal(t, status.OK, r.Status)
		assert.Equal(t, "application/json", r.Headers.ContentType())
		assert.Equal(t, []byte("{}"), r.Body)
	})

	t.Run("empty content type falls back to plain text", func(t *testing.T) {
		r := NewResponse(404, "", []byte("Not Found"))

		assert.Equal(t, "text/plain; charset=utf-8", r.Headers.ContentType())
	})

	t.Run("unknown code gets a generic reason phrase", func(t *testing.T) {
		r := NewResponse(799, "", nil)

		assert.Equal(t, uint(799), r.Status.Code)
		assert.Equal(t, "Unknown Status", r.Status.ReasonPhrase)
	})
}

func TestEnsureHeadersSet(t *testing.T) {
	r := NewResponse(200, "", []byte("hello"))
	r.EnsureHeadersSet()

	length, ok := r.Headers.Get("content-length")
	require.True(t, ok)
	assert.Equal(t, "5", length)

	connection, ok := r.Headers.Get("connection")
	require.True(t, ok)
	assert.Equal(t, "close", connection)
}

func TestEnsureHeadersSetZeroValue(t *testing.T) {
	var r Response
	r.EnsureHeadersSet()

	length, ok := r.Headers.Get("content-length")
	require.True(t, ok)
	assert.Equal(t, "0", length)
}

func TestResponseRaw(t *testing.T) {
	r := NewResponse(200, "", []byte("hi"))
	r.EnsureHeadersSet()

	raw := r.Raw()
	assert.Equal(t, uint(200), raw.StatusCode)
	assert.Equal(t, "OK", raw.ReasonPhrase)
	assert.Len(t, raw.Fields, 3)

	body, err := io.ReadAll(raw.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte("hi"), body)
}
