package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func metricHistogramCount(t *testing.T, o prometheus.Observer) uint64 {
	t.Helper()
	metric, ok := o.(prometheus.Metric)
	if !ok {
		t.Fatalf("observer %T does not implement prometheus.Metric", o)
	}
	var m dto.Metric
	if err := metric.Write(&m); err != nil {
		t.Fatalf("histogram Write() error: %v", err)
	}
	if m.Histogram == nil {
		t.Fatal("expected histogram metric to have Histogram field")
	}
	return m.GetHistogram().GetSampleCount()
}

func newRouter(mw func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(mw)
	r.Get("/keys/{key}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "key") == "missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Post("/fail", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	return r
}

func serve(h http.Handler, method, path string) {
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(method, path, nil))
}

func TestMetricsConfig(t *testing.T) {
	config := defaultMetricsConfig()
	if config.Namespace != "reactive" || config.Subsystem != "inspect" {
		t.Errorf("defaults = %q/%q", config.Namespace, config.Subsystem)
	}

	reg := prometheus.NewRegistry()
	opts := []MetricsOption{
		WithNamespace("app"),
		WithSubsystem("http"),
		WithConstLabels(prometheus.Labels{"env": "test"}),
		WithBuckets([]float64{0.1, 1}),
		WithRegistry(reg),
	}
	for _, opt := range opts {
		opt(&config)
	}
	if config.Namespace != "app" || config.Subsystem != "http" {
		t.Errorf("options not applied: %+v", config)
	}
	if config.ConstLabels["env"] != "test" || len(config.Buckets) != 2 || config.Registry != reg {
		t.Errorf("options not applied: %+v", config)
	}
}

func TestPrometheusRecordsByRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	h := newRouter(Prometheus(WithNamespace("test"), WithRegistry(reg)))
	serve(h, http.MethodGet, "/keys/a")
	serve(h, http.MethodGet, "/keys/b")
	serve(h, http.MethodGet, "/keys/missing")
	serve(h, http.MethodPost, "/fail")
	serve(h, http.MethodGet, "/nowhere")

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	counts := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "test_inspect_requests_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			counts[labels["method"]+" "+labels["route"]+" "+labels["status"]] = metric.GetCounter().GetValue()
		}
	}

	want := map[string]float64{
		"GET /keys/{key} 2xx": 2,
		"GET /keys/{key} 4xx": 1,
		"POST /fail 5xx":      1,
		"GET unmatched 4xx":   1,
	}
	for k, v := range want {
		if counts[k] != v {
			t.Errorf("requests_total[%s] = %v, want %v (all: %v)", k, counts[k], v, counts)
		}
	}
}

func TestPrometheusDurationAndInFlight(t *testing.T) {
	reg := prometheus.NewRegistry()
	config := defaultMetricsConfig()
	config.Registry = reg
	config.Namespace = "direct"
	m := newHTTPMetrics(config)

	// Drive the collectors the way the middleware does.
	m.inFlight.Inc()
	m.duration.WithLabelValues("GET", "/keys").Observe(0.01)
	m.inFlight.Dec()

	if got := metricHistogramCount(t, m.duration.WithLabelValues("GET", "/keys")); got != 1 {
		t.Errorf("duration count = %d, want 1", got)
	}
	if got := testutil.ToFloat64(m.inFlight); got != 0 {
		t.Errorf("in flight = %v, want 0", got)
	}
}

func TestStatusClass(t *testing.T) {
	tests := map[int]string{0: "hijacked", 200: "2xx", 204: "2xx", 404: "4xx", 502: "5xx"}
	for status, want := range tests {
		if got := statusClass(status); got != want {
			t.Errorf("statusClass(%d) = %q, want %q", status, got, want)
		}
	}
}

func TestOpenTelemetryPassesSpanToHandler(t *testing.T) {
	var sawSpan bool
	tracer := noop.NewTracerProvider().Tracer("test")

	r := chi.NewRouter()
	r.Use(OpenTelemetry(WithTracer(tracer)))
	r.Get("/keys/{key}", func(w http.ResponseWriter, r *http.Request) {
		sawSpan = SpanFromRequest(r) != nil
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/keys/a", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if !sawSpan {
		t.Error("handler did not see a span")
	}
}

// recordingTracer wraps a no-op tracer and counts started spans.
type recordingTracer struct {
	noop.Tracer
	started int
}

func (t *recordingTracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	t.started++
	return t.Tracer.Start(ctx, name, opts...)
}

func TestOpenTelemetryFilter(t *testing.T) {
	tracer := &recordingTracer{}
	h := newRouter(OpenTelemetry(
		WithTracer(tracer),
		WithFilter(func(r *http.Request) bool { return r.URL.Path != "/fail" }),
	))

	serve(h, http.MethodGet, "/keys/a")
	serve(h, http.MethodPost, "/fail")

	if tracer.started != 1 {
		t.Errorf("spans started = %d, want 1", tracer.started)
	}
}

func TestOpenTelemetryConfig(t *testing.T) {
	config := OTelConfig{TracerName: defaultTracerName}
	WithTracerName("custom")(&config)
	if config.TracerName != "custom" {
		t.Errorf("TracerName = %q", config.TracerName)
	}
}
