package logging

import (
	"sync"
	"time"
)

// Metrics tracks API calls and scan stage durations for one process.
type Metrics struct {
	StartTime     time.Time                   `json:"start_time"`
	APICalls      map[string]APICallMetrics   `json:"api_calls"`
	Operations    map[string]OperationMetrics `json:"operations"`
	TotalAPICalls int                         `json:"total_api_calls"`
	TotalSuccess  int                         `json:"total_success"`
	TotalFailures int                         `json:"total_failures"`
	mu            sync.RWMutex
}

// APICallMetrics tracks metrics for a specific API call.
type APICallMetrics struct {
	Count       int      `json:"count"`
	Success     int      `json:"success"`
	Failures    int      `json:"failures"`
	SuccessRate float64  `json:"success_rate"`
	Errors      []string `json:"errors,omitempty"`
}

// OperationMetrics tracks metrics for a scan stage.
type OperationMetrics struct {
	DurationMS     int64  `json:"duration_ms"`
	Success        bool   `json:"success"`
	Error          string `json:"error,omitempty"`
	ItemsProcessed int    `json:"items_processed"`
	ItemsFound     int    `json:"items_found"`
}

// maxRecordedErrors caps the error samples kept per API.
const maxRecordedErrors = 10

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// GetMetrics returns the process-wide metrics registry.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = newMetrics()
	})
	return globalMetrics
}

func newMetrics() *Metrics {
	return &Metrics{
		StartTime:  time.Now().UTC(),
		APICalls:   make(map[string]APICallMetrics),
		Operations: make(map[string]OperationMetrics),
	}
}

// RecordAPICall records an API call with success/failure.
func (m *Metrics) RecordAPICall(apiName string, success bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalAPICalls++
	if success {
		m.TotalSuccess++
	} else {
		m.TotalFailures++
	}

	metrics := m.APICalls[apiName]
	metrics.Count++
	if success {
		metrics.Success++
	} else {
		metrics.Failures++
		if err != nil && len(metrics.Errors) < maxRecordedErrors {
			metrics.Errors = append(metrics.Errors, err.Error())
		}
	}
	metrics.SuccessRate = float64(metrics.Success) / float64(metrics.Count) * 100
	m.APICalls[apiName] = metrics
}

// RecordOperation records a scan stage.
func (m *Metrics) RecordOperation(operationName string, duration time.Duration, success bool, itemsProcessed, itemsFound int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	op := OperationMetrics{
		DurationMS:     duration.Milliseconds(),
		Success:        success,
		ItemsProcessed: itemsProcessed,
		ItemsFound:     itemsFound,
	}
	if err != nil {
		op.Error = err.Error()
	}
	m.Operations[operationName] = op
}

// Summary returns a copy of the registry suitable for a "metrics" log field.
func (m *Metrics) Summary() map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()

	apis := make(map[string]any, len(m.APICalls))
	for k, v := range m.APICalls {
		apis[k] = v
	}
	ops := make(map[string]any, len(m.Operations))
	for k, v := range m.Operations {
		ops[k] = v
	}
	return map[string]any{
		"elapsed_ms":      time.Since(m.StartTime).Milliseconds(),
		"total_api_calls": m.TotalAPICalls,
		"total_success":   m.TotalSuccess,
		"total_failures":  m.TotalFailures,
		"api_calls":       apis,
		"operations":      ops,
	}
}

// Reset clears the registry.
func (m *Metrics) Reset() {
	fresh := newMetrics()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StartTime = fresh.StartTime
	m.APICalls = fresh.APICalls
	m.Operations = fresh.Operations
	m.TotalAPICalls, m.TotalSuccess, m.TotalFailures = 0, 0, 0
}

// LogMetricsSummary writes the registry at debug level.
func LogMetricsSummary() {
	LogDebug("Scan metrics", map[string]any{"metrics": GetMetrics().Summary()})
}
