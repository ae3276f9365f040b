// Package metrics exposes greetbot counters in Prometheus text format
// without pulling in prometheus/client_golang for a handful of values.
package metrics

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Default is the process-wide collector.
var Default = NewCollector()

// Collector aggregates greetbot counters and one duration histogram.
type Collector struct {
	mu        sync.Mutex
	counters  map[string]*Counter
	order     []string
	render    *DurationHist
	startTime time.Time
}

func NewCollector() *Collector {
	c := &Collector{
		counters:  make(map[string]*Counter),
		startTime: time.Now(),
		render: &DurationHist{
			name:    "greetbot_render_seconds",
			help:    "Time spent composing greeting images",
			buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	}
	return c
}

// Counter is a monotonically increasing counter.
type Counter struct {
	name  string
	help  string
	value atomic.Int64
}

func (c *Counter) Inc()         { c.value.Add(1) }
func (c *Counter) Value() int64 { return c.value.Load() }

// Counter returns or creates a counter with the given name.
func (c *Collector) Counter(name, help string) *Counter {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ctr, ok := c.counters[name]; ok {
		return ctr
	}
	ctr := &Counter{name: name, help: help}
	c.counters[name] = ctr
	c.order = append(c.order, name)
	return ctr
}

// DurationHist tracks a distribution of durations in seconds.
type DurationHist struct {
	name    string
	help    string
	mu      sync.Mutex
	count   int64
	sum     float64
	buckets []float64
	counts  []int64
}

func (h *DurationHist) Observe(d time.Duration) {
	v := d.Seconds()
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.counts == nil {
		h.counts = make([]int64, len(h.buckets))
	}
	h.count++
	h.sum += v
	for i, le := range h.buckets {
		if v <= le {
			h.counts[i]++
		}
	}
}

// RenderDuration returns the histogram for image composition time.
func (c *Collector) RenderDuration() *DurationHist { return c.render }

// Uptime returns how long the collector has been running.
func (c *Collector) Uptime() time.Duration { return time.Since(c.startTime) }

// Handler renders all metrics in Prometheus text exposition format.
func (c *Collector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

		var sb strings.Builder

		fmt.Fprintf(&sb, "# HELP greetbot_uptime_seconds Time since start in seconds\n")
		fmt.Fprintf(&sb, "# TYPE greetbot_uptime_seconds gauge\n")
		fmt.Fprintf(&sb, "greetbot_uptime_seconds %d\n", int64(c.Uptime().Seconds()))

		c.mu.Lock()
		names := make([]string, len(c.order))
		copy(names, c.order)
		sort.Strings(names)
		for _, name := range names {
			ctr := c.counters[name]
			fmt.Fprintf(&sb, "# HELP %s %s\n", ctr.name, ctr.help)
			fmt.Fprintf(&sb, "# TYPE %s counter\n", ctr.name)
			fmt.Fprintf(&sb, "%s %d\n", ctr.name, ctr.Value())
		}
		c.mu.Unlock()

		h := c.render
		h.mu.Lock()
		fmt.Fprintf(&sb, "# HELP %s %s\n", h.name, h.help)
		fmt.Fprintf(&sb, "# TYPE %s histogram\n", h.name)
		for i, le := range h.buckets {
			var n int64
			if h.counts != nil {
				n = h.counts[i]
			}
			fmt.Fprintf(&sb, "%s_bucket{le=\"%g\"} %d\n", h.name, le, n)
		}
		fmt.Fprintf(&sb, "%s_bucket{le=\"+Inf\"} %d\n", h.name, h.count)
		fmt.Fprintf(&sb, "%s_count %d\n", h.name, h.count)
		fmt.Fprintf(&sb, "%s_sum %f\n", h.name, h.sum)
		h.mu.Unlock()

		w.Write([]byte(sb.String()))
	}
}

// Convenience accessors for the metrics the dispatcher records.

func GreetingsGenerated() *Counter {
	return Default.Counter("greetbot_greetings_generated_total", "Greeting artifacts generated")
}

func GreetingsSent() *Counter {
	return Default.Counter("greetbot_greetings_sent_total", "Greeting artifacts delivered")
}

func DeliveryErrors() *Counter {
	return Default.Counter("greetbot_delivery_errors_total", "Greeting deliveries that failed")
}

func QuoteFallbacks() *Counter {
	return Default.Counter("greetbot_quote_fallbacks_total", "Times the baked-in quote pool was used")
}

func TextOnlyFallbacks() *Counter {
	return Default.Counter("greetbot_text_fallbacks_total", "Greetings degraded to text-only artifacts")
}
