package testing

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
)

// RecordedRequest is a request seen by [FakeAPI].
type RecordedRequest struct {
	Method string
	Path   string
	Query  url.Values
	Body   string
	Auth   string
}

// Route is the canned response for a method and path.
type Route struct {
	Status int
	Body   any // marshalled to JSON unless it is a string
}

// FakeAPI is an httptest server that answers from a route table and records every request.
type FakeAPI struct {
	*httptest.Server

	mu       sync.Mutex
	routes   map[string][]Route
	requests []RecordedRequest
}

// NewFakeAPI starts a server that is closed when the test ends.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()
	f := &FakeAPI{routes: make(map[string][]Route)}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(f.Close)
	return f
}

// On queues responses for method and path. The last response repeats once the queue drains.
func (f *FakeAPI) On(method, path string, responses ...Route) *FakeAPI {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.routes[method+" "+path] = append(f.routes[method+" "+path], responses...)
	return f
}

// Requests returns every recorded request in arrival order.
func (f *FakeAPI) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

// Calls returns the recorded requests for method and path.
func (f *FakeAPI) Calls(method, path string) []RecordedRequest {
	var matched []RecordedRequest
	for _, r := range f.Requests() {
		if r.Method == method && r.Path == path {
			matched = append(matched, r)
		}
	}
	return matched
}

func (f *FakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.requests = append(f.requests, RecordedRequest{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Body:   string(body),
		Auth:   r.Header.Get("Authorization"),
	})

	key := r.Method + " " + r.URL.Path
	queue, ok := f.routes[key]
	var route Route
	if ok && len(queue) > 0 {
		route = queue[0]
		if len(queue) > 1 {
			f.routes[key] = queue[1:]
		}
	}
	f.mu.Unlock()

	if !ok {
		http.Error(w, `{"error":{"status":404,"message":"no route"}}`, http.StatusNotFound)
		return
	}

	status := route.Status
	if status == 0 {
		status = http.StatusOK
	}

	switch b := route.Body.(type) {
	case nil:
		w.WriteHeader(status)
	case string:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, b)
	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(b)
	}
}
