package server

import (
	"context"

	"rawserve/semantic"
	"rawserve/transport"

	"github.com/pkg/errors"
)

// HandlerFunc produces the response for one request. Returning nil is
// forbidden and converts to a 500 at the connection layer, as does a
// panic: a failing handler never takes the connection routine down.
type HandlerFunc func(c *HandleContext, request *semantic.Request) *semantic.Response

type HandleContext struct {
	ctx        context.Context
	remoteAddr transport.Addr
}

func (c *HandleContext) Context() context.Context { return c.ctx }

func (c *HandleContext) RemoteAddr() transport.Addr { return c.remoteAddr }

func (c *HandleContext) doHandle(handle HandlerFunc, request *semantic.Request) (res *semantic.Response, err error) {
	defer func() {
		if e := recover(); e != nil {
			res, err = nil, errors.Errorf("handler panicked: %v", e)
		}
	}()

	response := handle(c, request)
	if response == nil {
		return nil, errors.New("nil response is forbidden")
	}

	return response, nil
}
