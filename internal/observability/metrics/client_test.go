package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTransportObservesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/tasks/9" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	collector := NewCollector()
	client := &http.Client{Transport: collector.Transport(srv.Client().Transport)}

	for _, path := range []string{"/tasks", "/tasks", "/tasks/9"} {
		resp, err := client.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		resp.Body.Close()
	}

	requests, failures := collector.Totals()
	if requests != 3 || failures != 1 {
		t.Fatalf("unexpected totals: requests=%d failures=%d", requests, failures)
	}

	out := collector.Render()
	for _, want := range []string{
		`todolist_api_requests_total{endpoint="/tasks",method="GET",code="200"} 2`,
		`todolist_api_requests_total{endpoint="/tasks/{id}",method="GET",code="500"} 1`,
		`todolist_api_request_failures_total{endpoint="/tasks/{id}",method="GET"} 1`,
		`todolist_api_request_duration_seconds_count{endpoint="/tasks",method="GET"} 2`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("render missing %q:\n%s", want, out)
		}
	}
}

type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("connection refused")
}

func TestTransportCountsTransportErrors(t *testing.T) {
	collector := NewCollector()
	client := &http.Client{Transport: collector.Transport(failingTransport{})}
	if _, err := client.Post("http://127.0.0.1:1/upload", "text/plain", nil); err == nil {
		t.Fatal("expected error")
	}
	out := collector.Render()
	if !strings.Contains(out, `todolist_api_requests_total{endpoint="/upload",method="POST",code="error"} 1`) {
		t.Fatalf("transport error not recorded:\n%s", out)
	}
}

func TestHistogramBuckets(t *testing.T) {
	collector := NewCollector()
	collector.Observe("/tasks", "GET", 200, 80*time.Millisecond)
	collector.Observe("/tasks", "GET", 200, 20*time.Second)

	out := collector.Render()
	for _, want := range []string{
		`le="0.05"} 0`,
		`le="0.1"} 1`,
		`le="10"} 1`,
		`le="+Inf"} 2`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("render missing %q:\n%s", want, out)
		}
	}
}

func TestEndpoint(t *testing.T) {
	cases := map[string]string{
		"":                   "/",
		"/tasks":             "/tasks",
		"/tasks/1700000000":  "/tasks/{id}",
		"/api/v1/tasks/42/x": "/api/v1/tasks/{id}/x",
	}
	for in, want := range cases {
		if got := Endpoint(in); got != want {
			t.Fatalf("%q: got %q want %q", in, got, want)
		}
	}
}
