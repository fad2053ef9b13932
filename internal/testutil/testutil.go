package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// DunePayload is a valid create payload.
func DunePayload() map[string]any {
	return map[string]any{
		"title":           "Dune",
		"author":          "Herbert",
		"isbn":            "9780441013593",
		"publicationYear": 1965,
	}
}

// NewRequest builds a request with body encoded as JSON. A nil body sends none.
func NewRequest(method, path string, body any) *http.Request {
	if body == nil {
		return httptest.NewRequest(method, path, nil)
	}
	raw, err := json.Marshal(body)
	if err != nil {
		panic(err)
	}
	r := httptest.NewRequest(method, path, bytes.NewReader(raw))
	r.Header.Set("Content-Type", "application/json")
	return r
}

// Response is a recorded reply with its JSON body decoded into a map.
type Response struct {
	Code   int
	Header http.Header
	Body   map[string]any
}

// Record decodes the recorder's output.
func Record(w *httptest.ResponseRecorder) Response {
	res := Response{Code: w.Code, Header: w.Header()}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &res.Body)
	}
	return res
}

// Serve runs r through h and records the reply.
func Serve(h http.Handler, r *http.Request) Response {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return Record(w)
}

// AssertStatus fails the test with the decoded body when the status differs.
func AssertStatus(t testing.TB, res Response, want int) bool {
	t.Helper()
	return assert.Equal(t, want, res.Code, "body: %v", res.Body)
}

// AssertField checks a top-level key of the JSON body.
func AssertField(t testing.TB, res Response, key string, want any) bool {
	t.Helper()
	got, ok := res.Body[key]
	if !assert.True(t, ok, "body has no %q: %v", key, res.Body) {
		return false
	}
	return assert.Equal(t, want, got, key)
}
