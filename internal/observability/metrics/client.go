// Package metrics counts outgoing Task Store API calls and renders them in
// Prometheus text exposition format.
package metrics

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultBuckets are the latency histogram upper bounds in seconds.
var DefaultBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

type requestKey struct {
	endpoint string
	method   string
	code     string
}

type latencyKey struct {
	endpoint string
	method   string
}

type histogram struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) observe(value float64) {
	h.count++
	h.sum += value
	for idx, bound := range h.buckets {
		if value <= bound {
			h.counts[idx]++
		}
	}
}

// Collector aggregates request counts, failures and latency per endpoint.
type Collector struct {
	mu       sync.Mutex
	buckets  []float64
	requests map[requestKey]uint64
	failures map[latencyKey]uint64
	latency  map[latencyKey]*histogram
}

// NewCollector returns an empty collector using DefaultBuckets.
func NewCollector() *Collector {
	return &Collector{
		buckets:  DefaultBuckets,
		requests: make(map[requestKey]uint64),
		failures: make(map[latencyKey]uint64),
		latency:  make(map[latencyKey]*histogram),
	}
}

// Observe records one request. status 0 means the request never got a
// response; it and any 5xx count as a failure.
func (c *Collector) Observe(endpoint, method string, status int, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	code := strconv.Itoa(status)
	if status == 0 {
		code = "error"
	}
	c.requests[requestKey{endpoint: endpoint, method: method, code: code}]++

	key := latencyKey{endpoint: endpoint, method: method}
	if status == 0 || status >= 500 {
		c.failures[key]++
	}
	hist := c.latency[key]
	if hist == nil {
		hist = newHistogram(c.buckets)
		c.latency[key] = hist
	}
	hist.observe(duration.Seconds())
}

// Totals returns the number of observed requests and of failed ones.
func (c *Collector) Totals() (requests, failures uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, n := range c.requests {
		requests += n
	}
	for _, n := range c.failures {
		failures += n
	}
	return requests, failures
}

// LogValue summarises the collector for a single log line.
func (c *Collector) LogValue() slog.Value {
	requests, failures := c.Totals()
	return slog.GroupValue(
		slog.Uint64("requests", requests),
		slog.Uint64("failures", failures),
	)
}

// Transport wraps base so every round trip is observed by c. A nil base uses
// http.DefaultTransport.
func (c *Collector) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &transport{base: base, collector: c, now: time.Now}
}

type transport struct {
	base      http.RoundTripper
	collector *Collector
	now       func() time.Time
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := t.now()
	resp, err := t.base.RoundTrip(req)
	status := 0
	if err == nil {
		status = resp.StatusCode
	}
	t.collector.Observe(Endpoint(req.URL.Path), req.Method, status, t.now().Sub(start))
	return resp, err
}

// Endpoint collapses numeric path segments so /tasks/17 and /tasks/18 share
// the /tasks/{id} series.
func Endpoint(path string) string {
	if path == "" {
		return "/"
	}
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if seg == "" {
			continue
		}
		if _, err := strconv.ParseInt(seg, 10, 64); err == nil {
			segments[i] = "{id}"
		}
	}
	return strings.Join(segments, "/")
}

// Render returns the collected metrics in Prometheus text format.
func (c *Collector) Render() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	reqs := make([]requestKey, 0, len(c.requests))
	for key := range c.requests {
		reqs = append(reqs, key)
	}
	sort.Slice(reqs, func(i, j int) bool {
		if reqs[i].endpoint != reqs[j].endpoint {
			return reqs[i].endpoint < reqs[j].endpoint
		}
		if reqs[i].method != reqs[j].method {
			return reqs[i].method < reqs[j].method
		}
		return reqs[i].code < reqs[j].code
	})

	lats := make([]latencyKey, 0, len(c.latency))
	for key := range c.latency {
		lats = append(lats, key)
	}
	sort.Slice(lats, func(i, j int) bool {
		if lats[i].endpoint != lats[j].endpoint {
			return lats[i].endpoint < lats[j].endpoint
		}
		return lats[i].method < lats[j].method
	})

	var b strings.Builder
	b.Grow(1024)

	b.WriteString("# HELP todolist_api_requests_total Total number of Task Store API requests.\n")
	b.WriteString("# TYPE todolist_api_requests_total counter\n")
	for _, key := range reqs {
		fmt.Fprintf(&b, "todolist_api_requests_total{endpoint=\"%s\",method=\"%s\",code=\"%s\"} %d\n",
			escape(key.endpoint), escape(key.method), escape(key.code), c.requests[key])
	}

	b.WriteString("# HELP todolist_api_request_failures_total Requests that failed in transport or with a server error.\n")
	b.WriteString("# TYPE todolist_api_request_failures_total counter\n")
	for _, key := range lats {
		if n := c.failures[key]; n > 0 {
			fmt.Fprintf(&b, "todolist_api_request_failures_total{endpoint=\"%s\",method=\"%s\"} %d\n",
				escape(key.endpoint), escape(key.method), n)
		}
	}

	b.WriteString("# HELP todolist_api_request_duration_seconds Task Store API request duration in seconds.\n")
	b.WriteString("# TYPE todolist_api_request_duration_seconds histogram\n")
	for _, key := range lats {
		hist := c.latency[key]
		labels := fmt.Sprintf("endpoint=\"%s\",method=\"%s\"", escape(key.endpoint), escape(key.method))
		for idx, bound := range hist.buckets {
			fmt.Fprintf(&b, "todolist_api_request_duration_seconds_bucket{%s,le=\"%s\"} %d\n", labels, formatFloat(bound), hist.counts[idx])
		}
		fmt.Fprintf(&b, "todolist_api_request_duration_seconds_bucket{%s,le=\"+Inf\"} %d\n", labels, hist.count)
		fmt.Fprintf(&b, "todolist_api_request_duration_seconds_sum{%s} %s\n", labels, formatFloat(hist.sum))
		fmt.Fprintf(&b, "todolist_api_request_duration_seconds_count{%s} %d\n", labels, hist.count)
	}

	return b.String()
}

func escape(value string) string {
	value = strings.ReplaceAll(value, "\\", "\\\\")
	value = strings.ReplaceAll(value, "\"", "\\\"")
	value = strings.ReplaceAll(value, "\n", "")
	return value
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
