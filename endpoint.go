package dbconn

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"syscall"
	"time"
)

// PreparedRequest is the fully-resolved description of a single HTTP
// request, as built by Pool.Do and executed by an endpoint's transport. Once
// a task is submitted, the only change made to it is the
// x-arango-allow-dirty-read header that host selection sets for dirty reads;
// retries/redirects reuse it as-is (redirects additionally change the task's
// host pin, not the request).
type PreparedRequest struct {
	Method       string
	Path         string
	Query        string // already percent-encoded, without the leading "?"
	Header       http.Header
	Body         []byte
	ExpectBinary bool
	Timeout      time.Duration
}

// transportResult is the successful outcome of executing a PreparedRequest.
type transportResult struct {
	Host       int
	StatusCode int
	Header     http.Header
	Body       []byte
}

// endpoint is one coordinator's transport: a single URL, with its own HTTP
// client configured for connection keep-alive and a per-host socket cap. It
// has no retry logic of its own.
type endpoint struct {
	index     int
	url       NormalizedURL
	client    *http.Client
	transport *http.Transport
}

func newEndpoint(index int, u NormalizedURL, maxSockets int, keepAlive bool, keepAliveMsecs time.Duration) *endpoint {
	transport := &http.Transport{
		DialContext:         newDialFunc(u.UnixSocket),
		MaxIdleConnsPerHost: maxSockets,
		MaxConnsPerHost:     maxSockets,
		DisableKeepAlives:   !keepAlive,
		IdleConnTimeout:     keepAliveMsecs,
	}
	return &endpoint{
		index:     index,
		url:       u,
		transport: transport,
		client:    &http.Client{Transport: transport},
	}
}

// execute runs one prepared request against this endpoint, synchronously.
// A non-nil *TransportError is returned for socket-level failures; all other
// errors (a broken Body reader, say) are wrapped the same way, since the
// dispatcher only distinguishes "transport failed" from "transport
// succeeded" - classification of *which* transport error happens in
// classifyTransportError.
func (e *endpoint) execute(ctx context.Context, prep PreparedRequest) (*transportResult, error) {
	if prep.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, prep.Timeout)
		defer cancel()
	}

	u := *e.url.URL
	u.Path = prep.Path
	u.RawQuery = prep.Query

	var body io.Reader
	if len(prep.Body) > 0 {
		body = bytes.NewReader(prep.Body)
	}

	req, err := http.NewRequestWithContext(ctx, prep.Method, u.String(), body)
	if err != nil {
		return nil, classifyTransportError(e.index, err)
	}
	req.Header = prep.Header.Clone()

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(e.index, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(e.index, err)
	}

	return &transportResult{
		Host:       e.index,
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       raw,
	}, nil
}

// close releases the endpoint's sockets. Best-effort; does not itself
// prevent new submissions - that is enforced one level up, by the Pool
// rejecting new Do calls.
func (e *endpoint) close() {
	e.transport.CloseIdleConnections()
}

// classifyTransportError turns a net/http-level error into a *TransportError,
// populating Syscall when it recognises a syscall-level dial failure, and Code
// only when that failure is ECONNREFUSED - the only shape eligible for
// transparent retry.
func classifyTransportError(host int, err error) *TransportError {
	te := &TransportError{Host: host, Err: err}

	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		var sysErr *os.SyscallError
		if errors.As(opErr.Err, &sysErr) {
			te.Syscall = sysErr.Syscall
			if errors.Is(sysErr.Err, syscall.ECONNREFUSED) {
				te.Code = "ECONNREFUSED"
			}
		}
	}

	return te
}
