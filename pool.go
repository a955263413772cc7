package dbconn

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"

	"github.com/joeycumines/logiface"
)

// Pool is the single logical scheduler that owns the task queue, the
// active-task counter, the two host cursors, the load-balancing and retry
// policy, the default headers, and the optional transaction id. It
// serializes every submission, transport completion, and policy mutation
// through one goroutine (Pool.run), reached exclusively through eventsCh -
// a channel-consumer loop instead of a mutex, in the style of
// microbatch.Batcher.run.
//
// All exported methods are safe for concurrent use; every field below is
// touched only by the run goroutine.
type Pool struct {
	eventsCh chan func()
	doneCh   chan struct{}

	// --- fields below are owned exclusively by the run goroutine ---

	hosts       *hostList
	queue       []*task
	activeTasks int
	maxTasks    int

	primaryCursor int
	dirtyCursor   int

	policy               LoadBalancingStrategy
	useFailover          bool
	maxRetriesConfigured int

	defaultHeaders http.Header
	transactionID  string
	arangoVersion  int

	databases map[string]any

	logger *logiface.Logger[logiface.Event]

	closed bool
}

// NewPool constructs a Pool from cfg (which may be nil, taking every
// documented default) and starts its scheduler goroutine.
func NewPool(cfg *Config) (*Pool, error) {
	maxSockets := cfg.maxSockets()
	keepAlive := cfg.keepAlive()

	hosts := newHostList(maxSockets, keepAlive, cfg.keepAliveMsecs())
	if _, err := hosts.add(cfg.urls()...); err != nil {
		return nil, err
	}
	if hosts.len() == 0 {
		return nil, fmt.Errorf(`dbconn: no hosts configured`)
	}

	maxTasks := maxSockets
	if keepAlive {
		maxTasks *= 2
	}

	policy := cfg.loadBalancingStrategy()

	p := &Pool{
		eventsCh: make(chan func(), 64),
		doneCh:   make(chan struct{}),

		hosts:    hosts,
		maxTasks: maxTasks,

		policy:               policy,
		useFailover:          policy != LoadBalancingRoundRobin,
		maxRetriesConfigured: cfg.maxRetries(),

		defaultHeaders: cfg.headers(),
		arangoVersion:  cfg.arangoVersion(),

		databases: make(map[string]any),

		logger: cfg.logger(),
	}

	if policy == LoadBalancingOneRandom {
		n := hosts.len()
		p.primaryCursor = rand.IntN(n)
		p.dirtyCursor = rand.IntN(n)
	}

	go p.run()

	return p, nil
}

// run is the scheduler's sole goroutine: every event (submission, transport
// completion, mutator call) arrives as a closure over Pool's private state,
// and is executed to completion before the next is read, giving the same
// serialization a mutex would, without one.
func (p *Pool) run() {
	for fn := range p.eventsCh {
		fn()
		if p.closed && p.activeTasks == 0 && len(p.queue) == 0 {
			close(p.doneCh)
			return
		}
	}
}

// do submits fn to the scheduler and waits for it to run, returning whatever
// error it produces (or ErrClosed if the scheduler has already shut down).
func (p *Pool) do(fn func() error) error {
	resultCh := make(chan error, 1)
	select {
	case p.eventsCh <- func() { resultCh <- fn() }:
	case <-p.doneCh:
		return ErrClosed
	}
	select {
	case err := <-resultCh:
		return err
	case <-p.doneCh:
		return ErrClosed
	}
}

// post fire-and-forgets fn to the scheduler; used by transport completions,
// which have nothing to wait for and must never be dropped (see the
// activeTasks invariant discussed in run's termination check).
func (p *Pool) post(fn func()) {
	p.eventsCh <- fn
}

// submit appends t to the queue tail and pumps.
func (p *Pool) submit(t *task) error {
	return p.do(func() error {
		if p.closed {
			return ErrClosed
		}
		p.queue = append(p.queue, t)
		p.pump()
		return nil
	})
}

// pump drains the queue while capacity remains. It must only ever be
// called from within the run goroutine.
func (p *Pool) pump() {
	if p.closed {
		return
	}
	for p.activeTasks < p.maxTasks && len(p.queue) > 0 {
		t := p.queue[0]
		p.queue = p.queue[1:]

		hostIdx := p.selectHost(t)
		ep := p.hosts.get(hostIdx)

		p.activeTasks++
		p.logger.Debug().Int(`host`, hostIdx).Int(`active`, p.activeTasks).Log(`dispatching task`)

		go p.runTask(t, ep)
	}
}

// selectHost picks a host in priority order: an explicit pin, then the
// dirty-read cursor, then the primary cursor (advancing it immediately
// under ROUND_ROBIN).
func (p *Pool) selectHost(t *task) int {
	if t.hostPin != nil {
		return *t.hostPin
	}

	if t.allowDirtyRead {
		idx := p.dirtyCursor
		p.dirtyCursor = (p.dirtyCursor + 1) % p.hosts.len()
		t.prepared.Header.Set(`x-arango-allow-dirty-read`, `true`)
		return idx
	}

	idx := p.primaryCursor
	if p.policy == LoadBalancingRoundRobin {
		p.primaryCursor = (p.primaryCursor + 1) % p.hosts.len()
	}
	return idx
}

// runTask executes one attempt on its own goroutine (transport I/O runs in
// parallel up to maxTasks in flight), then reports the outcome back to the
// scheduler.
func (p *Pool) runTask(t *task, ep *endpoint) {
	res, err := ep.execute(context.Background(), t.prepared)
	p.post(func() { p.handleOutcome(t, ep.index, res, err) })
}

// handleOutcome resolves one attempt: failover cursor advance, retry
// eligibility, leader redirect, and final resolution via the response
// interpreter. Must only ever run inside the scheduler goroutine.
func (p *Pool) handleOutcome(t *task, hostIdx int, res *transportResult, err error) {
	p.activeTasks--
	defer p.pump()

	if err != nil {
		p.handleTransportError(t, hostIdx, err)
		return
	}

	if res.StatusCode == 503 {
		if target := res.Header.Get(`x-arango-endpoint`); target != `` {
			p.handleRedirect(t, hostIdx, target, res)
			return
		}
	}

	resp, finalErr := interpretResponse(res, t.prepared.ExpectBinary)
	if finalErr != nil {
		t.future.resolve(nil, finalErr)
		return
	}

	if t.transformer != nil {
		v, err2 := t.transformer(resp)
		if err2 != nil {
			t.future.resolve(nil, err2)
			return
		}
		t.future.resolve(v, nil)
		return
	}

	t.future.resolve(resp, nil)
}

func (p *Pool) handleTransportError(t *task, hostIdx int, err error) {
	te, ok := err.(*TransportError)
	if !ok {
		te = &TransportError{Host: hostIdx, Err: err}
	}

	if p.useFailover && p.hosts.len() > 1 && !t.allowDirtyRead && p.primaryCursor == hostIdx {
		p.primaryCursor = (p.primaryCursor + 1) % p.hosts.len()
	}

	eligible := p.maxRetriesConfigured >= 0 &&
		t.hostPin == nil &&
		te.isConnRefused() &&
		t.retries < p.effectiveMaxRetries()

	// a closed Pool must not initiate new transport work, so a retry is
	// never requeued once closed - it resolves with the last transport
	// error instead, same as any other exhausted-retry outcome.
	if eligible && !p.closed {
		t.retries++
		p.logger.Debug().Int(`host`, hostIdx).Int(`retries`, t.retries).Log(`retrying after connection refused`)
		p.queue = append(p.queue, t)
		return
	}

	t.future.resolve(nil, te)
}

func (p *Pool) handleRedirect(t *task, hostIdx int, target string, res *transportResult) {
	// a closed Pool must not initiate new transport work, so a redirect is
	// never followed once closed - surface the 503 as-is instead.
	if p.closed {
		t.future.resolve(nil, &HTTPError{StatusCode: res.StatusCode, Body: res.Body})
		return
	}

	t.redirects++
	if t.redirects > p.maxRedirects() {
		t.future.resolve(nil, &HTTPError{StatusCode: res.StatusCode, Body: res.Body})
		return
	}

	indices, err := p.hosts.add(target)
	if err != nil {
		t.future.resolve(nil, err)
		return
	}
	newIdx := indices[0]

	p.logger.Info().Int(`from`, hostIdx).Int(`to`, newIdx).Str(`endpoint`, target).Log(`following leader redirect`)

	t.hostPin = &newIdx
	if p.primaryCursor == hostIdx {
		p.primaryCursor = newIdx
	}

	p.queue = append(p.queue, t)
}

// effectiveMaxRetries computes the retry ceiling: the default (0) bounds
// to len(hosts)-1, but any explicit positive value is used as-is, not
// multiplied by host count.
func (p *Pool) effectiveMaxRetries() int {
	if p.maxRetriesConfigured > 0 {
		return p.maxRetriesConfigured
	}
	if n := p.hosts.len() - 1; n > 0 {
		return n
	}
	return 0
}

// maxRedirects bounds how many times a single task may be redirected, so a
// misbehaving cluster cannot loop a task forever.
func (p *Pool) maxRedirects() int {
	return p.hosts.len() + 1
}

// SetHeader updates the default header overlay; a nil value clears it.
func (p *Pool) SetHeader(name string, value *string) error {
	return p.do(func() error {
		if p.closed {
			return ErrClosed
		}
		if value == nil {
			p.defaultHeaders.Del(name)
		} else {
			p.defaultHeaders.Set(name, *value)
		}
		return nil
	})
}

// SetTransactionID attaches id to every outgoing request as x-arango-trx-id.
func (p *Pool) SetTransactionID(id string) error {
	return p.do(func() error {
		if p.closed {
			return ErrClosed
		}
		p.transactionID = id
		return nil
	})
}

// ClearTransactionID detaches any active transaction id.
func (p *Pool) ClearTransactionID() error {
	return p.do(func() error {
		if p.closed {
			return ErrClosed
		}
		p.transactionID = ``
		return nil
	})
}

// Database returns a cached handle for name, creating it via factory on
// first access. Mutation of the cache is serialized with request execution
// (both run on the scheduler goroutine) but has no bearing on it.
func (p *Pool) Database(name string, factory func() any) (any, error) {
	var result any
	err := p.do(func() error {
		if p.closed {
			return ErrClosed
		}
		if v, ok := p.databases[name]; ok {
			result = v
			return nil
		}
		v := factory()
		p.databases[name] = v
		result = v
		return nil
	})
	return result, err
}

// HostURLs returns the normalized URL of every endpoint currently known to
// the pool, in stable index order - including any coordinators learned via
// leader redirect.
func (p *Pool) HostURLs() ([]string, error) {
	var urls []string
	err := p.do(func() error {
		for _, e := range p.hosts.endpoints {
			urls = append(urls, e.url.String())
		}
		return nil
	})
	return urls, err
}

// Close releases every endpoint's idle sockets and prevents further Do
// calls. Tasks still queued (not yet dispatched) are immediately failed
// with ErrClosed, since no new transport work is initiated after Close;
// already in-flight tasks still complete and their sinks still fire exactly
// once.
func (p *Pool) Close() error {
	return p.do(func() error {
		if p.closed {
			return nil
		}
		p.closed = true
		for _, t := range p.queue {
			t.future.resolve(nil, ErrClosed)
		}
		p.queue = nil
		p.hosts.closeAll()
		return nil
	})
}
