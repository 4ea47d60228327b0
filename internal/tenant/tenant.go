// Package tenant resolves the client id that scopes every API request.
package tenant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// Header carries the client id.
const Header = "X-Client-Id"

// Param is the query parameter and JSON body field carrying the client id.
const Param = "client_id"

// maxPeek bounds how much of a request body is buffered while looking for
// the client id.
const maxPeek = 4 << 20

// ErrInvalid is returned when no source holds a positive integer client id.
var ErrInvalid = errors.New("client id missing or invalid")

type ctxKey struct{}

// WithClientID returns a copy of ctx carrying id.
func WithClientID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the client id stored by the middleware.
func FromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxKey{}).(int64)
	return id, ok && id > 0
}

// Resolve reads the client id from, in order, the X-Client-Id header, the
// client_id query parameter and the client_id field of a JSON body. The
// first source present decides; an invalid value there is not retried
// against later sources. The body is restored so handlers can decode it.
func Resolve(r *http.Request) (int64, error) {
	if v := strings.TrimSpace(r.Header.Get(Header)); v != "" {
		return parse(v)
	}
	if q := r.URL.Query(); q.Has(Param) {
		return parse(q.Get(Param))
	}
	raw, err := peekBody(r)
	if err != nil || raw == nil {
		return 0, ErrInvalid
	}
	return parseJSON(raw)
}

func parse(v string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalid
	}
	return id, nil
}

// parseJSON accepts a JSON number or a numeric string.
func parseJSON(raw json.RawMessage) (int64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return parse(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, ErrInvalid
	}
	return parse(n.String())
}

// peekBody returns the raw client_id field of a JSON object body, or nil
// when there is none. r.Body is replaced with an equivalent reader.
func peekBody(r *http.Request) (json.RawMessage, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxPeek))
	r.Body.Close()
	r.Body = io.NopCloser(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, nil
	}
	return fields[Param], nil
}

// Middleware stores the resolved client id in the request context. Requests
// without a valid id are passed to reject.
func Middleware(reject http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := Resolve(r)
			if err != nil {
				reject(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClientID(r.Context(), id)))
		})
	}
}
