package dbconn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeURL(t *testing.T) {
	for _, tc := range [...]struct {
		name       string
		raw        string
		wantString string
		wantSocket string
	}{
		{`http`, `http://localhost:8529`, `http://localhost:8529`, ``},
		{`https`, `https://coordinator.example:8530`, `https://coordinator.example:8530`, ``},
		{`tcp alias`, `tcp://localhost:8529`, `http://localhost:8529`, ``},
		{`ssl alias`, `ssl://localhost:8530`, `https://localhost:8530`, ``},
		{`tls alias`, `tls://localhost:8530`, `https://localhost:8530`, ``},
		{`unix socket`, `unix:///var/run/arangodb.sock`, `http+unix:///var/run/arangodb.sock`, `/var/run/arangodb.sock`},
		{`unixs socket`, `unixs:///var/run/arangodb.sock`, `https+unix:///var/run/arangodb.sock`, `/var/run/arangodb.sock`},
		{`http+unix`, `http+unix:///var/run/arangodb.sock`, `http+unix:///var/run/arangodb.sock`, `/var/run/arangodb.sock`},
		{`https+unix`, `https+unix:///var/run/arangodb.sock`, `https+unix:///var/run/arangodb.sock`, `/var/run/arangodb.sock`},
		{`ssl+unix`, `ssl+unix:///var/run/arangodb.sock`, `https+unix:///var/run/arangodb.sock`, `/var/run/arangodb.sock`},
		{`tls+unix`, `tls+unix:///var/run/arangodb.sock`, `https+unix:///var/run/arangodb.sock`, `/var/run/arangodb.sock`},
		{`colon host form`, `http://unix:/var/run/arangodb.sock`, `http+unix:///var/run/arangodb.sock`, `/var/run/arangodb.sock`},
		{`colon host form https`, `https://unix:/var/run/arangodb.sock`, `https+unix:///var/run/arangodb.sock`, `/var/run/arangodb.sock`},
		{`trims whitespace`, `  http://localhost:8529  `, `http://localhost:8529`, ``},
	} {
		t.Run(tc.name, func(t *testing.T) {
			n, err := NormalizeURL(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.wantString, n.String())
			assert.Equal(t, tc.wantSocket, n.UnixSocket)
		})
	}
}

func TestNormalizeURL_Errors(t *testing.T) {
	for _, tc := range [...]struct {
		name string
		raw  string
	}{
		{`empty`, ``},
		{`whitespace only`, `   `},
		{`missing scheme`, `localhost:8529`},
		{`unsupported scheme`, `ftp://localhost:8529`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NormalizeURL(tc.raw)
			assert.Error(t, err)
		})
	}
}

func TestNormalizeURL_DedupKeyStable(t *testing.T) {
	a, err := NormalizeURL(`tcp://localhost:8529`)
	require.NoError(t, err)
	b, err := NormalizeURL(`http://localhost:8529`)
	require.NoError(t, err)
	assert.Equal(t, a.String(), b.String())

	c, err := NormalizeURL(`unix:///tmp/a.sock`)
	require.NoError(t, err)
	d, err := NormalizeURL(`http://unix:/tmp/a.sock`)
	require.NoError(t, err)
	assert.Equal(t, c.String(), d.String())
}
