package server

import (
	"sort"
	"strings"
	"sync"

	"rawserve/semantic"
)

// Router is the handler lookup table, owned by the server instance.
// Registration is safe to run concurrently with lookups. Routes are
// matched exactly on (uppercased method, path-without-query); there is no
// pattern matching.
type Router struct {
	mu     sync.RWMutex
	routes map[semantic.Method]map[string]HandlerFunc
}

func NewRouter() *Router {
	return &Router{routes: make(map[semantic.Method]map[string]HandlerFunc)}
}

func (rt *Router) Register(method semantic.Method, path string, handle HandlerFunc) {
	method = strings.ToUpper(method)

	rt.mu.Lock()
	defer rt.mu.Unlock()

	byPath, ok := rt.routes[method]
	if !ok {
		byPath = make(map[string]HandlerFunc)
		rt.routes[method] = byPath
	}

	byPath[path] = handle
}

func (rt *Router) Lookup(method semantic.Method, path string) (HandlerFunc, bool) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	handle, ok := rt.routes[method][path]
	return handle, ok
}

// Allowed lists the methods registered for path, sorted, for Allow
// headers on 405 and synthesized OPTIONS answers.
func (rt *Router) Allowed(path string) []string {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	methods := make([]string, 0)
	for method, byPath := range rt.routes {
		if _, ok := byPath[path]; ok {
			methods = append(methods, method)
		}
	}
	sort.Strings(methods)

	return methods
}
