package monitoring

import (
	"runtime"
	"sync"
	"time"
)

// Outcome 预测结果类别
const (
	OutcomeSuccess = "success"
)

// LatencySummary 延迟摘要（毫秒）
type LatencySummary struct {
	Count   int64   `json:"count"`
	Sum     float64 `json:"sum_ms"`
	Min     float64 `json:"min_ms"`
	Max     float64 `json:"max_ms"`
	Average float64 `json:"avg_ms"`
}

// Snapshot 指标快照
type Snapshot struct {
	Uptime      string           `json:"uptime"`
	Total       int64            `json:"total"`
	Outcomes    map[string]int64 `json:"outcomes"`
	Predictions map[string]int64 `json:"predictions"`
	Latency     LatencySummary   `json:"latency"`
	Goroutines  int              `json:"goroutines"`
	HeapAlloc   uint64           `json:"heap_alloc"`
}

// PredictionMetrics 预测指标收集器
type PredictionMetrics struct {
	metricsLock sync.RWMutex

	outcomes    map[string]int64
	predictions map[string]int64
	latency     LatencySummary
	startTime   time.Time
}

// NewPredictionMetrics 创建指标收集器
func NewPredictionMetrics() *PredictionMetrics {
	return &PredictionMetrics{
		outcomes:    make(map[string]int64),
		predictions: make(map[string]int64),
		startTime:   time.Now(),
	}
}

// Record 记录一次请求。outcome 为 OutcomeSuccess 或错误类别名
func (pm *PredictionMetrics) Record(outcome string, elapsed time.Duration) {
	ms := float64(elapsed) / float64(time.Millisecond)

	pm.metricsLock.Lock()
	defer pm.metricsLock.Unlock()

	pm.outcomes[outcome]++
	if pm.latency.Count == 0 || ms < pm.latency.Min {
		pm.latency.Min = ms
	}
	if ms > pm.latency.Max {
		pm.latency.Max = ms
	}
	pm.latency.Count++
	pm.latency.Sum += ms
}

// RecordPrediction 记录预测类别分布
func (pm *PredictionMetrics) RecordPrediction(label string) {
	pm.metricsLock.Lock()
	defer pm.metricsLock.Unlock()

	pm.predictions[label]++
}

// GetUptime 获取运行时间
func (pm *PredictionMetrics) GetUptime() time.Duration {
	return time.Since(pm.startTime)
}

// Snapshot 返回副本
func (pm *PredictionMetrics) Snapshot() Snapshot {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	pm.metricsLock.RLock()
	defer pm.metricsLock.RUnlock()

	snapshot := Snapshot{
		Uptime:      pm.GetUptime().Round(time.Second).String(),
		Outcomes:    make(map[string]int64, len(pm.outcomes)),
		Predictions: make(map[string]int64, len(pm.predictions)),
		Latency:     pm.latency,
		Goroutines:  runtime.NumGoroutine(),
		HeapAlloc:   m.HeapAlloc,
	}
	for k, v := range pm.outcomes {
		snapshot.Outcomes[k] = v
		snapshot.Total += v
	}
	for k, v := range pm.predictions {
		snapshot.Predictions[k] = v
	}
	if snapshot.Latency.Count > 0 {
		snapshot.Latency.Average = snapshot.Latency.Sum / float64(snapshot.Latency.Count)
	}
	return snapshot
}
