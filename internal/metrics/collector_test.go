package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestCounter_IncAndReuse(t *testing.T) {
	c := NewCollector()

	ctr := c.Counter("greetbot_test_total", "test counter")
	ctr.Inc()
	ctr.Inc()

	again := c.Counter("greetbot_test_total", "test counter")
	if again.Value() != 2 {
		t.Errorf("expected shared counter value 2, got %d", again.Value())
	}
}

func TestHandler_Exposition(t *testing.T) {
	c := NewCollector()
	c.Counter("greetbot_greetings_sent_total", "Greeting artifacts delivered").Inc()
	c.RenderDuration().Observe(120 * time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler()(rec, httptest.NewRequest("GET", "/metrics", nil))

	body := rec.Body.String()
	for _, want := range []string{
		"greetbot_uptime_seconds",
		"# TYPE greetbot_greetings_sent_total counter",
		"greetbot_greetings_sent_total 1",
		"# TYPE greetbot_render_seconds histogram",
		"greetbot_render_seconds_count 1",
		`greetbot_render_seconds_bucket{le="+Inf"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q\n%s", want, body)
		}
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("unexpected content type %q", ct)
	}
}

func TestHistogram_Buckets(t *testing.T) {
	c := NewCollector()
	h := c.RenderDuration()
	h.Observe(60 * time.Millisecond)  // lands in 0.1 bucket
	h.Observe(30 * time.Second)       // beyond all buckets
	h.Observe(200 * time.Millisecond) // lands in 0.25 bucket

	rec := httptest.NewRecorder()
	c.Handler()(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()

	if !strings.Contains(body, `greetbot_render_seconds_bucket{le="0.1"} 1`) {
		t.Errorf("0.1 bucket wrong:\n%s", body)
	}
	if !strings.Contains(body, `greetbot_render_seconds_bucket{le="0.25"} 2`) {
		t.Errorf("0.25 bucket wrong:\n%s", body)
	}
	if !strings.Contains(body, `greetbot_render_seconds_bucket{le="+Inf"} 3`) {
		t.Errorf("+Inf bucket wrong:\n%s", body)
	}
}
