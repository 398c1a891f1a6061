package prometheus

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNew_DefaultRegistry(t *testing.T) {
	c := New(nil)
	if c == nil {
		t.Fatal("New(nil) returned nil")
	}
	if c.registry == nil {
		t.Error("registry should not be nil")
	}
}

func TestCollector_IncCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.IncCounter("slicecache_hits_total", 5)
	c.IncCounter("slicecache_hits_total", 3)

	if got := counterValue(t, reg, "slicecache_hits_total"); got != 8 {
		t.Errorf("counter value = %v, want 8", got)
	}
}

func TestCollector_SetGauge(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.SetGauge("slicecache_records", 42)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	found := false
	for _, m := range metrics {
		if m.GetName() == "slicecache_records" {
			found = true
			if val := m.GetMetric()[0].GetGauge().GetValue(); val != 42 {
				t.Errorf("gauge value = %v, want 42", val)
			}
		}
	}
	if !found {
		t.Error("gauge slicecache_records not found in registry")
	}
}

func TestCollector_ObserveHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.ObserveHistogram("slicecache_save_seconds", 0.01)
	c.ObserveHistogram("slicecache_save_seconds", 0.02)

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	found := false
	for _, m := range metrics {
		if m.GetName() == "slicecache_save_seconds" {
			found = true
			if count := m.GetMetric()[0].GetHistogram().GetSampleCount(); count != 2 {
				t.Errorf("histogram count = %v, want 2", count)
			}
		}
	}
	if !found {
		t.Error("histogram slicecache_save_seconds not found in registry")
	}
}

func TestCollector_AlreadyRegistered(t *testing.T) {
	reg := prometheus.NewRegistry()

	existing := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "preexisting_counter",
		Help: "preexisting_counter",
	})
	reg.MustRegister(existing)
	existing.Add(100)

	c := New(reg)
	c.IncCounter("preexisting_counter", 5)

	if got := counterValue(t, reg, "preexisting_counter"); got != 105 {
		t.Errorf("counter value = %v, want 105", got)
	}
}

func TestCollector_ConcurrentAccess(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				c.IncCounter("concurrent_counter", 1)
				c.SetGauge("concurrent_gauge", int64(j))
			}
		}()
	}
	wg.Wait()

	if got := counterValue(t, reg, "concurrent_counter"); got != 1000 {
		t.Errorf("counter value = %v, want 1000", got)
	}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()

	metrics, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}

	for _, m := range metrics {
		if m.GetName() == name {
			if len(m.GetMetric()) == 0 {
				t.Fatalf("counter %s has no metrics", name)
			}
			return m.GetMetric()[0].GetCounter().GetValue()
		}
	}

	t.Fatalf("counter %s not found in registry", name)
	return 0
}
