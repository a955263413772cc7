package dbconn

import (
	"net/http"

	"github.com/joeycumines/logiface"
)

// LoadBalancingStrategy selects how the Pool picks a host for an unpinned,
// non-dirty-read task.
type LoadBalancingStrategy int

const (
	// LoadBalancingNone always uses the primary cursor without advancing it;
	// failover still advances it on a transport error. This is the default.
	LoadBalancingNone LoadBalancingStrategy = iota
	// LoadBalancingRoundRobin advances the primary cursor on every
	// selection, and disables the separate failover-on-error advance (the
	// cursor already moves on every submission).
	LoadBalancingRoundRobin
	// LoadBalancingOneRandom behaves like LoadBalancingNone, except both
	// cursors start at an independently-chosen random index.
	LoadBalancingOneRandom
)

// Config configures a Pool. The zero value is valid and uses every
// documented default: a pointer-or-nil options struct with per-field
// zero-value defaulting.
type Config struct {
	// URLs lists the coordinator endpoints. Defaults to
	// []string{"http://localhost:8529"} if empty. Each entry is normalized
	// and deduplicated via NormalizeURL.
	URLs []string

	// ArangoVersion is emitted on every request as the numeric
	// x-arango-version header. Defaults to 30400.
	ArangoVersion int

	// LoadBalancingStrategy selects the host-selection regime. Defaults to
	// LoadBalancingNone.
	LoadBalancingStrategy LoadBalancingStrategy

	// MaxRetries mirrors the source's tri-state option:
	//   0 (the zero value): retry a connection-refused failure up to
	//     len(hosts)-1 times (the default).
	//   a negative value: disable transparent retry entirely.
	//   a positive value N: retry up to exactly N times, regardless of host
	//     count. Preserved verbatim, not multiplied by host count.
	MaxRetries int

	// MaxSockets bounds sockets per endpoint. Defaults to 3.
	MaxSockets int

	// DisableKeepAlive turns off HTTP keep-alive; keep-alive is enabled by
	// default, doubling the effective concurrency ceiling.
	DisableKeepAlive bool

	// KeepAliveMsecs is the idle-connection timeout, in milliseconds.
	// Defaults to 1000.
	KeepAliveMsecs int

	// Headers is the lowest-priority header overlay, merged into every
	// outgoing request.
	Headers http.Header

	// Logger receives structured events for task dispatch, connection-refused
	// retries, and leader redirects; the failover cursor advance itself is
	// not logged. A nil Logger is valid and silently discards
	// events, following the sql/export.Exporter.Logger pattern.
	Logger *logiface.Logger[logiface.Event]
}

func (c *Config) urls() []string {
	if c == nil || len(c.URLs) == 0 {
		return []string{"http://localhost:8529"}
	}
	return c.URLs
}

func (c *Config) arangoVersion() int {
	if c == nil || c.ArangoVersion == 0 {
		return 30400
	}
	return c.ArangoVersion
}

func (c *Config) loadBalancingStrategy() LoadBalancingStrategy {
	if c == nil {
		return LoadBalancingNone
	}
	return c.LoadBalancingStrategy
}

func (c *Config) maxRetries() int {
	if c == nil {
		return 0
	}
	return c.MaxRetries
}

func (c *Config) maxSockets() int {
	if c == nil || c.MaxSockets <= 0 {
		return 3
	}
	return c.MaxSockets
}

func (c *Config) keepAlive() bool {
	return c == nil || !c.DisableKeepAlive
}

func (c *Config) keepAliveMsecs() int {
	if c == nil || c.KeepAliveMsecs == 0 {
		return 1000
	}
	return c.KeepAliveMsecs
}

func (c *Config) headers() http.Header {
	if c == nil || c.Headers == nil {
		return make(http.Header)
	}
	return c.Headers.Clone()
}

func (c *Config) logger() *logiface.Logger[logiface.Event] {
	if c == nil {
		return nil
	}
	return c.Logger
}
