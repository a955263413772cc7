package dbconn

import (
	"context"
	"net"
	"time"
)

// dialFunc is a context-respecting dialer, usable as
// net/http.Transport.DialContext.
type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

var netDialer net.Dialer

// newDialFunc returns the dialer an endpoint's transport should use: for a
// regular TCP endpoint it dials the request's own network/addr, honoring
// DialContext's usual contract; for a unix-socket endpoint it always dials
// unixSocket regardless of what the (placeholder) addr says, since that
// endpoint's one http.Client only ever talks to the one socket it was
// constructed for.
func newDialFunc(unixSocket string) dialFunc {
	if unixSocket == "" {
		return netDialer.DialContext
	}
	return func(ctx context.Context, _, _ string) (net.Conn, error) {
		return dialWithTimeout(ctx, "unix", unixSocket)
	}
}

// dialWithTimeout wraps a dial so it also respects ctx's deadline.
func dialWithTimeout(ctx context.Context, network, addr string) (net.Conn, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	d := net.Dialer{}
	if deadline, ok := ctx.Deadline(); ok {
		d.Timeout = time.Until(deadline)
	}
	return d.DialContext(ctx, network, addr)
}
