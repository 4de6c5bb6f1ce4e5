package server

import (
	"sync"
	"testing"

	"rawserve/semantic"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nopHandler(*HandleContext, *semantic.Request) *semantic.Response {
	return semantic.NewResponse(200, "", nil)
}

func TestRouterRegisterLookup(t *testing.T) {
	rt := NewRouter()
	rt.Register(semantic.MethodGet, "/users", nopHandler)

	_, ok := rt.Lookup(semantic.MethodGet, "/users")
	assert.True(t, ok)

	_, ok = rt.Lookup(semantic.MethodPost, "/users")
	assert.False(t, ok)

	_, ok = rt.Lookup(semantic.MethodGet, "/other")
	assert.False(t, ok)
}

func TestRouterRegisterUppercasesMethod(t *testing.T) {
	rt := NewRouter()
	rt.Register("get", "/users", nopHandler)

	_, ok := rt.Lookup(semantic.MethodGet, "/users")
	assert.True(t, ok)
}

func TestRouterExactPathMatch(t *testing.T) {
	rt := NewRouter()
	rt.Register(semantic.MethodGet, "/users", nopHandler)

	// No prefix or pattern matching.
	_, ok := rt.Lookup(semantic.MethodGet, "/users/42")
	assert.False(t, ok)

	_, ok = rt.Lookup(semantic.MethodGet, "/users/")
	assert.False(t, ok)
}

func TestRouterAllowed(t *testing.T) {
	rt := NewRouter()
	rt.Register(semantic.MethodPost, "/users", nopHandler)
	rt.Register(semantic.MethodGet, "/users", nopHandler)
	rt.Register(semantic.MethodDelete, "/other", nopHandler)

	assert.Equal(t, []string{"GET", "POST"}, rt.Allowed("/users"))
	assert.Empty(t, rt.Allowed("/missing"))
}

func TestRouterLastRegistrationWins(t *testing.T) {
	rt := NewRouter()

	first := func(*HandleContext, *semantic.Request) *semantic.Response {
		return semantic.NewResponse(200, "", []byte("first"))
	}
	second := func(*HandleContext, *semantic.Request) *semantic.Response {
		return semantic.NewResponse(200, "", []byte("second"))
	}

	rt.Register(semantic.MethodGet, "/x", first)
	rt.Register(semantic.MethodGet, "/x", second)

	handle, ok := rt.Lookup(semantic.MethodGet, "/x")
	require.True(t, ok)
	assert.Equal(t, []byte("second"), handle(nil, nil).Body)
}

func TestRouterConcurrentAccess(t *testing.T) {
	rt := NewRouter()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			rt.Register(semantic.MethodGet, "/x", nopHandler)
		}()
		go func() {
			defer wg.Done()
			rt.Lookup(semantic.MethodGet, "/x")
			rt.Allowed("/x")
		}()
	}
	wg.Wait()

	_, ok := rt.Lookup(semantic.MethodGet, "/x")
	assert.True(t, ok)
}
