package dbconn

import "time"

// hostList is the ordered, deduplicated set of endpoints. It is not
// independently thread-safe: the Pool's run loop is its only caller.
type hostList struct {
	maxSockets     int
	keepAlive      bool
	keepAliveMsecs int

	byKey     map[string]int
	endpoints []*endpoint
}

func newHostList(maxSockets int, keepAlive bool, keepAliveMsecs int) *hostList {
	return &hostList{
		maxSockets:     maxSockets,
		keepAlive:      keepAlive,
		keepAliveMsecs: keepAliveMsecs,
		byKey:          make(map[string]int),
	}
}

func (h *hostList) len() int { return len(h.endpoints) }

func (h *hostList) get(i int) *endpoint { return h.endpoints[i] }

// add normalizes and appends urls, returning the index of each in input
// order - its own existing index for a duplicate, or a freshly appended one.
// This is the shape the dispatcher relies on to resolve a leader-redirect
// target to a stable host index.
func (h *hostList) add(urls ...string) ([]int, error) {
	indices := make([]int, len(urls))
	for i, raw := range urls {
		n, err := NormalizeURL(raw)
		if err != nil {
			return nil, err
		}
		key := n.String()
		if idx, ok := h.byKey[key]; ok {
			indices[i] = idx
			continue
		}
		idx := len(h.endpoints)
		e := newEndpoint(idx, n, h.maxSockets, h.keepAlive, time.Duration(h.keepAliveMsecs)*time.Millisecond)
		h.endpoints = append(h.endpoints, e)
		h.byKey[key] = idx
		indices[i] = idx
	}
	return indices, nil
}

func (h *hostList) closeAll() {
	for _, e := range h.endpoints {
		e.close()
	}
}
