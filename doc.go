// Package dbconn implements the connection pool and request dispatcher for a
// client of a distributed, multi-model database exposing an HTTP/JSON API.
//
// It fronts a set of coordinator endpoints and turns the database's REST
// surface into reliable, load-balanced, failover-aware request execution: a
// bounded pool of concurrent in-flight requests, three selectable
// load-balancing regimes, transparent failover on connection-refused errors,
// server-directed redirection to a cluster leader, request-scoped host
// affinity (dirty reads, transactions, cursor continuations), and
// deserialization of the database's JSON error envelope.
//
// Route-specific facades (collection CRUD, cursors, indexes, graphs, views)
// are out of scope; they are expected to build a RequestDescriptor and call
// Pool.Do.
package dbconn
