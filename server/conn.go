package server

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"rawserve/http"
	"rawserve/http/status"
	iolib "rawserve/lib/io"
	"rawserve/semantic"
	"rawserve/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// conn drives one accepted connection through its whole life:
// read head, read body, dispatch, respond, close. Exactly one worker
// owns a conn; nothing here is shared.
type conn struct {
	con transport.Conn
	r   *iolib.UntilReader

	router *Router
	clock  clock.Clock
	logger *slog.Logger

	opts Options
}

func newConn(con transport.Conn, router *Router, clk clock.Clock, logger *slog.Logger, opts Options) *conn {
	return &conn{
		con:    con,
		r:      iolib.NewUntilReader(con),
		router: router,
		clock:  clk,
		logger: logger,
		opts:   opts,
	}
}

func (c *conn) start(ctx context.Context) {
	// The socket is released on every exit path, panics included.
	defer func() {
		c.logger.Debug("closing connection")
		if err := c.con.Close(); err != nil && !errors.Is(err, transport.ErrConnClosed) {
			c.logger.Error("error when closing connection", "error", err)
		}
	}()

	err := c.serve(ctx)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		// no-op.
	case errors.Is(err, transport.ErrConnClosed):
		c.logger.Debug("peer went away")
	default:
		c.logger.Error("unexpected error on connection", "error", err)
	}
}

func (c *conn) serve(ctx context.Context) error {
	enc := http.NewResponseEncoder(c.con, c.opts.Encode)

	request, err := c.readRequest(ctx)
	if err != nil {
		if errors.Is(err, transport.ErrConnClosed) {
			// Nobody left to answer.
			return err
		}

		se := toStatusError(err)
		c.logger.Info("rejecting request", "status", se.Status.Code, "reason", err.Error())
		return c.writeResponse(statusResponse(se.Status), enc)
	}

	c.logger.Info("request", "method", request.Method, "path", request.Path)

	response := c.dispatch(ctx, request)

	return c.writeResponse(response, enc)
}

// readRequest runs the head and body phases under their own deadlines and
// assembles the semantic request.
func (c *conn) readRequest(ctx context.Context) (*semantic.Request, error) {
	dec := http.NewRequestDecoder(c.r, c.opts.Decode)

	if t := c.opts.Timeout.HeadTimeout; t > 0 {
		c.con.SetReadDeadLine(c.clock.Now().Add(t))
	}

	var raw http.Request
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}

	headers := semantic.HeadersFrom(raw.Fields)

	var body []byte
	truncated := false

	if n, ok := headers.ContentLength(); ok && n > 0 {
		if t := c.opts.Timeout.BodyTimeout; t > 0 {
			c.con.SetReadDeadLine(c.clock.Now().Add(t))
		}

		var err error
		body, err = dec.ReadBody(n)
		if err != nil {
			if !errors.Is(err, http.ErrBodyTruncated) {
				return nil, err
			}
			// Preserved quirk: the handler sees the short body.
			truncated = true
			c.logger.Warn("body shorter than declared",
				"declared", n, "got", len(body))
		}
	} else if v, present := headers.Get("content-length"); present && !ok {
		c.logger.Warn("ignoring unparsable content-length", "value", v)
	}

	c.con.SetReadDeadLine(time.Time{})

	request := semantic.NewRequest(&raw, headers, body, truncated)
	if err := request.PartsError(); err != nil {
		// Degraded, not fatal: the request proceeds with no parts.
		c.logger.Warn("multipart decode degraded", "error", err)
	}

	return request, nil
}

func (c *conn) dispatch(ctx context.Context, request *semantic.Request) *semantic.Response {
	handle, ok := c.router.Lookup(request.Method, request.Path)
	if ok {
		hctx := &HandleContext{ctx: ctx, remoteAddr: c.con.RemoteAddr()}

		response, err := hctx.doHandle(handle, request)
		if err != nil {
			c.logger.Error("handler failed", "error", err)
			return statusResponse(status.InternalServerError)
		}
		return response
	}

	// No explicit registration. OPTIONS gets a synthesized Allow answer;
	// a path served under other methods gets 405.
	allowed := c.router.Allowed(request.Path)

	switch {
	case request.Method == semantic.MethodOptions:
		return allowResponse(status.OK, append(allowed, semantic.MethodOptions))
	case len(allowed) > 0:
		return allowResponse(status.MethodNotAllowed, allowed)
	}

	return statusResponse(status.NotFound)
}

func (c *conn) writeResponse(response *semantic.Response, enc *http.ResponseEncoder) error {
	if t := c.opts.Timeout.WriteTimeout; t > 0 {
		c.con.SetWriteDeadLine(c.clock.Now().Add(t))
	}

	response.EnsureHeadersSet()

	if err := enc.Encode(response.Raw()); err != nil {
		return errors.Wrap(err, "writing response")
	}

	return nil
}

// toStatusError picks the wire status for a head/body read failure.
// A timed-out head is 408; everything else malformed is 400.
func toStatusError(err error) status.Error {
	if errors.Is(err, transport.ErrDeadLineExceeded) {
		return status.NewError(nil, status.RequestTimeout)
	}

	return status.NewError(err, status.BadRequest)
}

// statusResponse is the error-path response: plain text, reason phrase as
// the body.
func statusResponse(st status.Status) *semantic.Response {
	return semantic.NewResponse(st.Code, "", []byte(st.ReasonPhrase))
}

func allowResponse(st status.Status, methods []string) *semantic.Response {
	return &semantic.Response{
		Status: st,
		Headers: semantic.NewHeaders(map[string]string{
			"allow": strings.Join(methods, ", "),
		}),
	}
}
