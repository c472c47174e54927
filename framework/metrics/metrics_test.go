package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/km-arc/go-ioc/framework/container"
	"github.com/km-arc/go-ioc/framework/metrics"
)

type widget struct{}

func newObserved(t *testing.T) (*container.Container, *metrics.Collector) {
	t.Helper()
	c := container.New()
	m := metrics.NewCollector(nil)
	if err := m.Observe(c); err != nil {
		t.Fatal(err)
	}
	return c, m
}

func TestCollector_CountsConstructions(t *testing.T) {
	c, m := newObserved(t)
	_ = c.Singleton("single", func() *widget { return &widget{} })
	_ = c.Bind("fresh", func() *widget { return &widget{} }, container.Transient)

	for i := 0; i < 3; i++ {
		_, _ = c.Make("single")
		_, _ = c.Make("fresh")
	}

	expected := `
# HELP ioc_instances_built_total Instances constructed by the container, by service key.
# TYPE ioc_instances_built_total counter
ioc_instances_built_total{key="fresh"} 3
ioc_instances_built_total{key="single"} 1
`
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "ioc_instances_built_total"); err != nil {
		t.Error(err)
	}
}

func TestCollector_Gauges(t *testing.T) {
	c, m := newObserved(t)
	_ = c.Instance("a", 1)
	_ = c.Instance("b", 2)
	s := c.NewScope()
	defer s.Close()

	expected := `
# HELP ioc_active_scopes Scopes currently open.
# TYPE ioc_active_scopes gauge
ioc_active_scopes 1
# HELP ioc_bindings Service keys currently registered.
# TYPE ioc_bindings gauge
ioc_bindings 2
`
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "ioc_active_scopes", "ioc_bindings"); err != nil {
		t.Error(err)
	}
}

func TestCollector_ObserveTwiceFails(t *testing.T) {
	c, m := newObserved(t)
	if err := m.Observe(c); err == nil {
		t.Error("registering the same metrics twice should fail")
	}
}

func TestCollector_Handler(t *testing.T) {
	_, m := newObserved(t)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status: got %d want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ioc_bindings") {
		t.Error("metrics output should include ioc_bindings")
	}
}
