package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/imready-go/imready/pkg/ready"
)

type opaqueResource struct{ name string }

func (r opaqueResource) Kind() string { return "opaque" }

func gather(t *testing.T, registry *prometheus.Registry) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, family := range families {
		byName[family.GetName()] = family
	}
	return byName
}

func counterValue(t *testing.T, families map[string]*dto.MetricFamily, name string) float64 {
	t.Helper()
	family, ok := families[name]
	if !ok {
		t.Fatalf("metric %q not registered", name)
	}
	var total float64
	for _, metric := range family.GetMetric() {
		total += metric.GetCounter().GetValue()
	}
	return total
}

func TestCollectorCountsBatch(t *testing.T) {
	registry := prometheus.NewRegistry()
	collector := New(WithRegistry(registry))

	manager := ready.New()
	defer manager.Destroy()

	done := make(chan struct{})
	manager.OnReady(func(ready.ReadyEvent) { close(done) })

	collector.Observe(manager)
	manager.Check([]ready.Resource{opaqueResource{"a"}, opaqueResource{"b"}})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("batch did not settle")
	}

	families := gather(t, registry)
	if got := counterValue(t, families, "imready_batches_total"); got != 1 {
		t.Errorf("batches_total = %v, want 1", got)
	}
	if got := counterValue(t, families, "imready_resources_total"); got != 2 {
		t.Errorf("resources_total = %v, want 2", got)
	}
	if got := counterValue(t, families, "imready_errors_total"); got != 0 {
		t.Errorf("errors_total = %v, want 0", got)
	}

	duration, ok := families["imready_batch_duration_seconds"]
	if !ok {
		t.Fatal("batch duration histogram not registered")
	}
	if got := duration.GetMetric()[0].GetHistogram().GetSampleCount(); got != 1 {
		t.Errorf("batch duration samples = %d, want 1", got)
	}
}

func TestCollectorNamespaceAndSubsystem(t *testing.T) {
	registry := prometheus.NewRegistry()
	New(WithRegistry(registry), WithNamespace("gallery"), WithSubsystem("ready"))

	families := gather(t, registry)
	if _, ok := families["gallery_ready_batches_total"]; !ok {
		t.Error("expected namespaced batches counter")
	}
}
