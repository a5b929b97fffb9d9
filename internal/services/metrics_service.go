package services

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// MetricsService keeps in-process planning counters for /metrics and the
// Prometheus exposition endpoint.
type MetricsServiceInterface interface {
	CountRequest(status string)
	CountRepairRounds(rounds int)
	CountDegrade(level string)
	CountProviderCall(provider string)
	Snapshot() map[string]int64
	Prometheus() string
}

type MetricsService struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewMetricsService() MetricsServiceInterface {
	return &MetricsService{counters: make(map[string]int64)}
}

func (m *MetricsService) bump(key string, delta int64) {
	m.mu.Lock()
	m.counters[key] += delta
	m.mu.Unlock()
}

func (m *MetricsService) CountRequest(status string)        { m.bump("requests_total_"+status, 1) }
func (m *MetricsService) CountRepairRounds(rounds int)      { m.bump("repair_rounds_total", int64(rounds)) }
func (m *MetricsService) CountDegrade(level string)         { m.bump("degrade_level_"+strings.ToLower(level), 1) }
func (m *MetricsService) CountProviderCall(provider string) { m.bump("provider_calls_"+provider, 1) }

func (m *MetricsService) Snapshot() map[string]int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int64, len(m.counters))
	for k, v := range m.counters {
		out[k] = v
	}
	return out
}

// Prometheus renders the counters in text exposition format.
func (m *MetricsService) Prometheus() string {
	snapshot := m.Snapshot()
	keys := make([]string, 0, len(snapshot))
	for k := range snapshot {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		name := "tripweaver_" + k
		fmt.Fprintf(&b, "# TYPE %s counter\n%s %d\n", name, name, snapshot[k])
	}
	return b.String()
}
