// testing/recorder.go
package testing

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"
)

// Recorder runs requests against a handler without a listener.
type Recorder struct {
	t *testing.T
}

// NewRecorder creates a Recorder for t.
func NewRecorder(t *testing.T) *Recorder {
	return &Recorder{t: t}
}

// Request starts a request builder.
func (rec *Recorder) Request(method, path string) *RecorderRequest {
	return &RecorderRequest{
		rec:    rec,
		method: method,
		path:   path,
		header: make(http.Header),
	}
}

// Get starts a GET request.
func (rec *Recorder) Get(path string) *RecorderRequest {
	return rec.Request(http.MethodGet, path)
}

// Post starts a POST request.
func (rec *Recorder) Post(path string) *RecorderRequest {
	return rec.Request(http.MethodPost, path)
}

// RecorderRequest builds a request for handler testing.
type RecorderRequest struct {
	rec    *Recorder
	method string
	path   string
	header http.Header
	body   io.Reader
}

// Header sets a request header.
func (rr *RecorderRequest) Header(key, value string) *RecorderRequest {
	rr.header.Set(key, value)
	return rr
}

// XHR marks the request the way the form controller does.
func (rr *RecorderRequest) XHR() *RecorderRequest {
	return rr.Header("X-Requested-With", "XMLHttpRequest")
}

// BodyString sets a raw body.
func (rr *RecorderRequest) BodyString(body string) *RecorderRequest {
	rr.body = strings.NewReader(body)
	return rr
}

// Form sets an application/x-www-form-urlencoded body.
func (rr *RecorderRequest) Form(data url.Values) *RecorderRequest {
	rr.body = strings.NewReader(data.Encode())
	rr.header.Set("Content-Type", "application/x-www-form-urlencoded")
	return rr
}

// Multipart sets a multipart/form-data body, as a browser FormData post.
// Fields are written in key order so bodies are reproducible.
func (rr *RecorderRequest) Multipart(data url.Values) *RecorderRequest {
	rr.rec.t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range data[k] {
			if err := mw.WriteField(k, v); err != nil {
				rr.rec.t.Fatalf("failed to write multipart field %s: %v", k, err)
			}
		}
	}
	if err := mw.Close(); err != nil {
		rr.rec.t.Fatalf("failed to close multipart writer: %v", err)
	}
	rr.body = &buf
	rr.header.Set("Content-Type", mw.FormDataContentType())
	return rr
}

// Build creates the http.Request without executing it.
func (rr *RecorderRequest) Build() *http.Request {
	rr.rec.t.Helper()
	req := httptest.NewRequest(rr.method, rr.path, rr.body)
	req.Header = rr.header
	return req
}

// Run executes the request against handler.
func (rr *RecorderRequest) Run(handler http.Handler) *Response {
	rr.rec.t.Helper()

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, rr.Build())

	resp := w.Result()
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		rr.rec.t.Fatalf("failed to read response body: %v", err)
	}
	return &Response{Response: resp, Body: body, t: rr.rec.t}
}
