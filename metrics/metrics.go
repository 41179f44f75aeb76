package metrics

import (
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "speed"

// Collector records counters and latencies on a private prometheus registry.
type Collector struct {
	registry  *prometheus.Registry
	counters  map[string]*counter
	latencies *prometheus.HistogramVec
	mutex     sync.Mutex
}

type counter struct {
	vec    *prometheus.CounterVec
	labels []string
	family string
}

func NewCollector() *Collector {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	latencies := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "operation_duration_seconds",
		Help:      "Latency of handled operations.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})
	registry.MustRegister(latencies)

	return &Collector{
		registry:  registry,
		counters:  make(map[string]*counter),
		latencies: latencies,
	}
}

// IncrementCounter bumps name for the given label set. The label names are
// fixed by the first call for a name; labels missing later are left empty.
func (mc *Collector) IncrementCounter(name string, labels map[string]string) {
	c := mc.counter(name, labels)

	values := make([]string, len(c.labels))
	for i, label := range c.labels {
		values[i] = labels[label]
	}
	c.vec.WithLabelValues(values...).Inc()
}

func (mc *Collector) counter(name string, labels map[string]string) *counter {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	if c, ok := mc.counters[name]; ok {
		return c
	}

	names := make([]string, 0, len(labels))
	for k := range labels {
		names = append(names, k)
	}
	sort.Strings(names)

	c := &counter{
		vec: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name + "_total",
			Help:      "Count of " + strings.ReplaceAll(name, "_", " ") + ".",
		}, names),
		labels: names,
		family: namespace + "_" + name + "_total",
	}
	mc.registry.MustRegister(c.vec)
	mc.counters[name] = c
	return c
}

func (mc *Collector) ObserveLatency(name string, duration time.Duration) {
	mc.latencies.WithLabelValues(name).Observe(duration.Seconds())
}

// Handler serves the registry in the prometheus exposition format.
func (mc *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(mc.registry, promhttp.HandlerOpts{Registry: mc.registry})
}

// Counters folds each counter's labels into a stable "k:v,k:v" key.
func (mc *Collector) Counters() map[string]map[string]int64 {
	families := mc.gather()

	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	counters := make(map[string]map[string]int64, len(mc.counters))
	for name, c := range mc.counters {
		values := make(map[string]int64)
		if family, ok := families[c.family]; ok {
			for _, m := range family.GetMetric() {
				values[labelKey(m.GetLabel())] += int64(m.GetCounter().GetValue())
			}
		}
		counters[name] = values
	}
	return counters
}

// Latencies reports the observation count and mean per operation.
func (mc *Collector) Latencies() map[string]map[string]float64 {
	result := make(map[string]map[string]float64)
	family, ok := mc.gather()[namespace+"_operation_duration_seconds"]
	if !ok {
		return result
	}

	for _, m := range family.GetMetric() {
		h := m.GetHistogram()
		count := h.GetSampleCount()
		if count == 0 {
			continue
		}
		var operation string
		for _, label := range m.GetLabel() {
			if label.GetName() == "operation" {
				operation = label.GetValue()
			}
		}
		result[operation] = map[string]float64{
			"count":  float64(count),
			"avg_ms": h.GetSampleSum() / float64(count) * 1000,
		}
	}
	return result
}

// Snapshot is the JSON body served to admins.
type Snapshot struct {
	Counters  map[string]map[string]int64   `json:"counters"`
	Latencies map[string]map[string]float64 `json:"latencies"`
}

func (mc *Collector) Snapshot() Snapshot {
	return Snapshot{Counters: mc.Counters(), Latencies: mc.Latencies()}
}

func (mc *Collector) gather() map[string]*dto.MetricFamily {
	// Gather returns what it could collect alongside any error.
	families, _ := mc.registry.Gather()
	byName := make(map[string]*dto.MetricFamily, len(families))
	for _, family := range families {
		byName[family.GetName()] = family
	}
	return byName
}

func labelKey(pairs []*dto.LabelPair) string {
	parts := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		if pair.GetValue() == "" {
			continue
		}
		parts = append(parts, pair.GetName()+":"+pair.GetValue())
	}
	if len(parts) == 0 {
		return "default"
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}
