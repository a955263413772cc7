package dbconn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostList_AddDedup(t *testing.T) {
	h := newHostList(3, true, 1000)

	indices, err := h.add(`http://a:8529`, `http://b:8529`)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, indices)
	assert.Equal(t, 2, h.len())

	// re-adding an existing url (even via an alias scheme) returns its
	// existing index and does not grow the list.
	indices, err = h.add(`tcp://a:8529`, `http://c:8529`)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, indices)
	assert.Equal(t, 3, h.len())

	assert.Equal(t, `http://a:8529`, h.get(0).url.String())
	assert.Equal(t, `http://b:8529`, h.get(1).url.String())
	assert.Equal(t, `http://c:8529`, h.get(2).url.String())
}

func TestHostList_AddInvalidURL(t *testing.T) {
	h := newHostList(3, true, 1000)
	_, err := h.add(`http://a:8529`, `not-a-url`)
	assert.Error(t, err)
	// a failed batch is not rolled back: "a" is processed before the invalid
	// entry and stays in the list, but the list only ever contains entries
	// that individually validated.
	assert.Equal(t, 1, h.len())
}

func TestHostList_CloseAll(t *testing.T) {
	h := newHostList(3, true, 1000)
	_, err := h.add(`http://a:8529`, `http://b:8529`)
	require.NoError(t, err)
	assert.NotPanics(t, func() { h.closeAll() })
}
