package observability

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// InMemoryMetricsClient accumulates metrics in process memory. It is the
// default client when no external metrics backend is configured and is
// also used by tests to assert on recorded values.
type InMemoryMetricsClient struct {
	mu         sync.RWMutex
	counters   map[string]float64
	gauges     map[string]float64
	histograms map[string][]float64
}

// NewMetricsClient creates a new in-memory metrics client
func NewMetricsClient() *InMemoryMetricsClient {
	return &InMemoryMetricsClient{
		counters:   make(map[string]float64),
		gauges:     make(map[string]float64),
		histograms: make(map[string][]float64),
	}
}

// IncrementCounterWithLabels increments a labeled counter
func (m *InMemoryMetricsClient) IncrementCounterWithLabels(name string, value float64, labels map[string]string) {
	key := metricKey(name, labels)
	m.mu.Lock()
	m.counters[key] += value
	m.mu.Unlock()
}

// RecordGauge records a gauge value
func (m *InMemoryMetricsClient) RecordGauge(name string, value float64, labels map[string]string) {
	key := metricKey(name, labels)
	m.mu.Lock()
	m.gauges[key] = value
	m.mu.Unlock()
}

// RecordHistogram records a histogram observation
func (m *InMemoryMetricsClient) RecordHistogram(name string, value float64, labels map[string]string) {
	key := metricKey(name, labels)
	m.mu.Lock()
	m.histograms[key] = append(m.histograms[key], value)
	m.mu.Unlock()
}

// CounterValue returns the accumulated value of a labeled counter
func (m *InMemoryMetricsClient) CounterValue(name string, labels map[string]string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.counters[metricKey(name, labels)]
}

func metricKey(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}

	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, labels[k]))
	}
	return name + "{" + strings.Join(parts, ",") + "}"
}
