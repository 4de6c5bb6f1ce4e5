package status

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestFromCode(t *testing.T) {
	t.Run("known code", func(t *testing.T) {
		s, ok := FromCode(404)
		assert.True(t, ok)
		assert.Equal(t, NotFound, s)
	})

	t.Run("unknown code is still usable", func(t *testing.T) {
		s, ok := FromCode(799)
		assert.False(t, ok)
		assert.Equal(t, uint(799), s.Code)
		assert.Equal(t, "Unknown Status", s.ReasonPhrase)
	})
}

func TestError(t *testing.T) {
	e := NewError(errors.New("boom"), BadRequest)
	assert.Equal(t, `400 Bad Request: "boom"`, e.Error())
	assert.EqualError(t, e.Cause(), "boom")

	noCause := NewError(nil, RequestTimeout)
	assert.Equal(t, `408 Request Timeout: ""`, noCause.Error())
	assert.NoError(t, noCause.Cause())
}
