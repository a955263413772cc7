package dbconn

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// QueryValue is either a raw, already percent-encoded query string
// (RawQuery), or a map of parameters to encode (QueryParams). A nil
// QueryValue means "no query string".
type QueryValue interface {
	queryValue()
}

// RawQuery is used verbatim as the query string.
type RawQuery string

func (RawQuery) queryValue() {}

// QueryParams is percent-encoded into a query string; entries whose value is
// nil are dropped.
type QueryParams map[string]any

func (QueryParams) queryValue() {}

// RequestDescriptor is a tagged record describing one request, built by a
// route facade and passed to Pool.Do.
type RequestDescriptor struct {
	// Host, if set, pins the request to this host index (used by cursor
	// continuations, which must return to the coordinator that created
	// them).
	Host *int

	Method   string
	BasePath string
	Path     string
	Query    QueryValue

	// Body is nil (empty body), a []byte/string (sent as text/plain), or any
	// other JSON-marshalable value (sent as application/json) - unless
	// IsBinary is set, in which case it must be a []byte or string, sent as
	// application/octet-stream.
	Body     any
	IsBinary bool

	// ExpectBinary indicates the caller wants the raw response bytes rather
	// than a JSON-parsed body.
	ExpectBinary bool

	// AllowDirtyRead routes the request via the dirty-read cursor and adds
	// the x-arango-allow-dirty-read header.
	AllowDirtyRead bool

	Timeout time.Duration
	Headers http.Header
}

// Transformer maps a Response to a caller-facing result. It runs after the
// response interpreter, only on a non-error outcome.
type Transformer func(*Response) (any, error)

// Do builds a task from desc, submits it, and returns its Future. If
// transformer is non-nil, its result replaces the raw *Response as the
// Future's resolved value.
func (p *Pool) Do(desc RequestDescriptor, transformer Transformer) (*Future, error) {
	bodyBytes, contentType, err := buildRequestBody(desc)
	if err != nil {
		return nil, err
	}

	query, err := buildQueryString(desc.Query)
	if err != nil {
		return nil, err
	}

	fut := newFuture()
	t := &task{
		allowDirtyRead: desc.AllowDirtyRead,
		transformer:    transformer,
		future:         fut,
		prepared: PreparedRequest{
			Method:       desc.Method,
			Path:         desc.BasePath + desc.Path,
			Query:        query,
			Body:         bodyBytes,
			ExpectBinary: desc.ExpectBinary,
			Timeout:      desc.Timeout,
		},
	}
	if desc.Host != nil {
		pin := *desc.Host
		t.hostPin = &pin
	}

	err = p.do(func() error {
		if p.closed {
			return ErrClosed
		}
		t.prepared.Header = p.composeHeaders(contentType, desc.Headers)
		p.queue = append(p.queue, t)
		p.pump()
		return nil
	})
	if err != nil {
		return nil, err
	}

	return fut, nil
}

// composeHeaders layers, lowest priority first: defaultHeaders, then
// {content-type, x-arango-version}, then x-arango-trx-id (if a transaction
// is active), then the caller-supplied headers - last-wins. Must only ever
// run inside the scheduler goroutine.
func (p *Pool) composeHeaders(contentType string, caller http.Header) http.Header {
	h := p.defaultHeaders.Clone()
	if h == nil {
		h = make(http.Header)
	}

	if contentType != `` {
		h.Set(`content-type`, contentType)
	}
	h.Set(`x-arango-version`, strconv.Itoa(p.arangoVersion))

	if p.transactionID != `` {
		h.Set(`x-arango-trx-id`, p.transactionID)
	}

	for k, values := range caller {
		for _, v := range values {
			h.Set(k, v)
		}
	}

	return h
}

// buildRequestBody derives the request body and its content-type from desc.
func buildRequestBody(desc RequestDescriptor) (body []byte, contentType string, err error) {
	if desc.IsBinary {
		switch b := desc.Body.(type) {
		case nil:
		case []byte:
			body = b
		case string:
			body = []byte(b)
		default:
			return nil, ``, fmt.Errorf(`dbconn: binary body must be []byte or string, got %T`, desc.Body)
		}
		return body, `application/octet-stream`, nil
	}

	switch b := desc.Body.(type) {
	case nil:
		return nil, ``, nil
	case []byte:
		return b, `text/plain`, nil
	case string:
		return []byte(b), `text/plain`, nil
	default:
		body, err = jsonAPI.Marshal(desc.Body)
		if err != nil {
			return nil, ``, fmt.Errorf(`dbconn: failed to encode request body: %w`, err)
		}
		return body, `application/json`, nil
	}
}

// buildQueryString renders q into a query string.
func buildQueryString(q QueryValue) (string, error) {
	switch v := q.(type) {
	case nil:
		return ``, nil
	case RawQuery:
		return string(v), nil
	case QueryParams:
		values := url.Values{}
		for k, val := range v {
			if val == nil {
				continue
			}
			values.Set(k, fmt.Sprint(val))
		}
		return values.Encode(), nil
	default:
		return ``, fmt.Errorf(`dbconn: unsupported query value type %T`, q)
	}
}
