package dbconn

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRequestBody(t *testing.T) {
	for _, tc := range [...]struct {
		name            string
		desc            RequestDescriptor
		wantBody        string
		wantContentType string
	}{
		{`nil body`, RequestDescriptor{}, ``, ``},
		{`string body is text plain`, RequestDescriptor{Body: `hello`}, `hello`, `text/plain`},
		{`byte slice body is text plain`, RequestDescriptor{Body: []byte(`hello`)}, `hello`, `text/plain`},
		{`struct body is json`, RequestDescriptor{Body: map[string]any{`a`: 1}}, `{"a":1}`, `application/json`},
		{`binary nil`, RequestDescriptor{IsBinary: true}, ``, `application/octet-stream`},
		{`binary bytes`, RequestDescriptor{IsBinary: true, Body: []byte{1, 2, 3}}, "\x01\x02\x03", `application/octet-stream`},
		{`binary string`, RequestDescriptor{IsBinary: true, Body: `abc`}, `abc`, `application/octet-stream`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			body, ct, err := buildRequestBody(tc.desc)
			require.NoError(t, err)
			assert.Equal(t, tc.wantBody, string(body))
			assert.Equal(t, tc.wantContentType, ct)
		})
	}
}

func TestBuildRequestBody_BinaryRejectsOtherTypes(t *testing.T) {
	_, _, err := buildRequestBody(RequestDescriptor{IsBinary: true, Body: 42})
	assert.Error(t, err)
}

func TestBuildQueryString(t *testing.T) {
	for _, tc := range [...]struct {
		name string
		q    QueryValue
		want string
	}{
		{`nil`, nil, ``},
		{`raw`, RawQuery(`a=1&b=2`), `a=1&b=2`},
		{`params`, QueryParams{`a`: 1}, `a=1`},
		{`params drops nil values`, QueryParams{`a`: 1, `b`: nil}, `a=1`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := buildQueryString(tc.q)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestPool_ComposeHeaders_LastWins(t *testing.T) {
	p := &Pool{
		defaultHeaders: http.Header{`X-Default`: []string{`base`}},
		transactionID:  `trx-1`,
		arangoVersion:  30400,
	}

	caller := http.Header{}
	caller.Set(`X-Default`, `override`)
	caller.Set(`content-type`, `text/csv`)

	h := p.composeHeaders(`application/json`, caller)

	// caller's content-type wins over the content-type derived from the
	// body, which itself would otherwise have won over any default.
	assert.Equal(t, `text/csv`, h.Get(`content-type`))
	assert.Equal(t, `override`, h.Get(`X-Default`))
	assert.Equal(t, `trx-1`, h.Get(`x-arango-trx-id`))
	assert.Equal(t, `30400`, h.Get(`x-arango-version`))
}

func TestPool_ComposeHeaders_NoActiveTransaction(t *testing.T) {
	p := &Pool{defaultHeaders: make(http.Header)}
	h := p.composeHeaders(``, nil)
	assert.Empty(t, h.Get(`x-arango-trx-id`))
}
