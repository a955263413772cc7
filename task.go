package dbconn

import (
	"context"
	"net/http"
)

// Response is the result of a successful, interpreted request: the raw
// transport outcome plus whatever interpretResponse attached.
type Response struct {
	StatusCode int
	Header     http.Header
	// Body is the interpreted body: the raw []byte if binary output was
	// requested, otherwise the parsed JSON value for a JSON-tagged body, or
	// the body as a string for any other content-type.
	Body any
	// Raw is always the unmodified response body bytes.
	Raw []byte
	// Host is the index, into the pool's host list, that served this
	// response - needed by cursor-continuation operations that must pin
	// follow-up requests to the same coordinator.
	Host int
}

// task is the dispatcher's internal record of one pending request. It is
// created by Pool.Do, queued, dequeued and executed at most once per
// attempt, and destroyed after its sink fires.
type task struct {
	hostPin        *int
	allowDirtyRead bool
	retries        int
	redirects      int
	prepared       PreparedRequest
	transformer    func(*Response) (any, error)

	future *Future
}

// Future is the one-shot completion sink for a Task, modeled on
// microbatch.JobResult.Wait: a single result, delivered exactly once,
// observable by any number of callers via Wait.
type Future struct {
	done  chan struct{}
	value any
	err   error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// resolve fires the future exactly once; subsequent calls are no-ops. Not
// exported: only the dispatcher's run loop ever resolves a Future.
func (f *Future) resolve(value any, err error) {
	select {
	case <-f.done:
		return
	default:
	}
	f.value, f.err = value, err
	close(f.done)
}

// Wait blocks until the task completes, or ctx is canceled, whichever comes
// first. A canceled ctx does not cancel the underlying request; it only
// stops this particular Wait call from blocking further.
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-f.done:
		return f.value, f.err
	}
}
