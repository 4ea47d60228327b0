package tenant

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	cases := []struct {
		name   string
		header string
		query  string
		body   string
		want   int64
		ok     bool
	}{
		{name: "header", header: "7", want: 7, ok: true},
		{name: "query", query: "?client_id=8", want: 8, ok: true},
		{name: "body number", body: `{"client_id": 9}`, want: 9, ok: true},
		{name: "body string", body: `{"client_id": "10"}`, want: 10, ok: true},
		{name: "header wins over query", header: "1", query: "?client_id=2", want: 1, ok: true},
		{name: "query wins over body", query: "?client_id=2", body: `{"client_id": 3}`, want: 2, ok: true},
		{name: "invalid header not retried", header: "abc", query: "?client_id=2"},
		{name: "zero", header: "0"},
		{name: "negative", query: "?client_id=-4"},
		{name: "float body", body: `{"client_id": 1.5}`},
		{name: "missing"},
		{name: "body without field", body: `{"name": "x"}`},
		{name: "non json body", body: `client_id=3`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var body io.Reader
			if tc.body != "" {
				body = strings.NewReader(tc.body)
			}
			r := httptest.NewRequest(http.MethodPost, "/x"+tc.query, body)
			if tc.header != "" {
				r.Header.Set(Header, tc.header)
			}
			got, err := Resolve(r)
			if !tc.ok {
				assert.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolve_RestoresBody(t *testing.T) {
	const payload = `{"client_id": 5, "name": "Ana"}`
	r := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(payload))
	_, err := Resolve(r)
	require.NoError(t, err)

	data, err := io.ReadAll(r.Body)
	require.NoError(t, err)
	assert.Equal(t, payload, string(data))
}

func TestMiddleware(t *testing.T) {
	var seen int64
	h := Middleware(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/x?client_id=42", nil)
	h.ServeHTTP(rec, r)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), seen)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
