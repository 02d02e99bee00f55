// testing/testing.go
// Package testing holds shared helpers for the service's tests: a request
// recorder with form bodies, response assertions, an in-process SMTP sink
// and an observed zap logger.
package testing

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// Server wraps httptest.Server and closes it when the test ends.
type Server struct {
	*httptest.Server
}

// NewServer starts a test server for h.
func NewServer(t *testing.T, h http.Handler) *Server {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &Server{Server: srv}
}

// Response wraps http.Response with assertion methods. Body is fully read.
type Response struct {
	*http.Response
	Body []byte
	t    *testing.T
}

// Status asserts the response status code.
func (r *Response) Status(code int) *Response {
	r.t.Helper()
	if r.StatusCode != code {
		r.t.Errorf("expected status %d, got %d\nBody: %s", code, r.StatusCode, string(r.Body))
	}
	return r
}

// StatusOK asserts 200 OK.
func (r *Response) StatusOK() *Response {
	return r.Status(http.StatusOK)
}

// StatusBadRequest asserts 400 Bad Request.
func (r *Response) StatusBadRequest() *Response {
	return r.Status(http.StatusBadRequest)
}

// StatusMethodNotAllowed asserts 405 Method Not Allowed.
func (r *Response) StatusMethodNotAllowed() *Response {
	return r.Status(http.StatusMethodNotAllowed)
}

// StatusInternalServerError asserts 500 Internal Server Error.
func (r *Response) StatusInternalServerError() *Response {
	return r.Status(http.StatusInternalServerError)
}

// HeaderContains asserts a header contains substr.
func (r *Response) HeaderContains(key, substr string) *Response {
	r.t.Helper()
	if v := r.Header.Get(key); !strings.Contains(v, substr) {
		r.t.Errorf("expected header %s to contain %q, got %q", key, substr, v)
	}
	return r
}

// ContentTypeText asserts a text/plain response.
func (r *Response) ContentTypeText() *Response {
	return r.HeaderContains("Content-Type", "text/plain")
}

// BodyEquals asserts the body equals expected byte for byte.
func (r *Response) BodyEquals(expected string) *Response {
	r.t.Helper()
	if actual := string(r.Body); actual != expected {
		r.t.Errorf("expected body %q, got %q", expected, actual)
	}
	return r
}

// BodyNotContains asserts the body does not contain substr.
func (r *Response) BodyNotContains(substr string) *Response {
	r.t.Helper()
	if strings.Contains(string(r.Body), substr) {
		r.t.Errorf("expected body not to contain %q, got %q", substr, string(r.Body))
	}
	return r
}

// String returns the body as a string.
func (r *Response) String() string {
	return string(r.Body)
}
