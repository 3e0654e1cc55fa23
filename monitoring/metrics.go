package monitoring

import (
	"encoding/json"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// MetricType 指标类型
type MetricType string

const (
	MetricTypeCounter   MetricType = "counter"
	MetricTypeGauge     MetricType = "gauge"
	MetricTypeHistogram MetricType = "histogram"
)

// 服务指标名
const (
	MetricPredictionsTotal      = "predictions_total"
	MetricPredictionLatencyMs   = "prediction_latency_ms"
	MetricValidationErrorsTotal = "validation_errors_total"
	MetricModelUnavailableTotal = "model_unavailable_total"
	MetricModelReloadsTotal     = "model_reloads_total"
)

// LatencyBucketsMs 预测耗时直方图桶
var LatencyBucketsMs = []float64{1, 5, 10, 50, 100, 500}

const maxHistory = 1000

// Metric 指标
type Metric struct {
	Name      string                 `json:"name"`
	Type      MetricType             `json:"type"`
	Value     float64                `json:"value"`
	Labels    map[string]string      `json:"labels,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Help      string                 `json:"help,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// series 按名称和标签区分的一条时间序列的累计状态
type series struct {
	name    string
	labels  map[string]string
	typ     MetricType
	help    string
	value   float64 // 计数器累计值或仪表最新值
	buckets []float64
	counts  []uint64 // 每个桶的累计计数
	sum     float64
	count   uint64
}

// SeriesSnapshot 导出用的序列快照
type SeriesSnapshot struct {
	Name    string            `json:"name"`
	Type    MetricType        `json:"type"`
	Labels  map[string]string `json:"labels,omitempty"`
	Value   float64           `json:"value"`
	Count   uint64            `json:"count,omitempty"`
	Sum     float64           `json:"sum,omitempty"`
	Buckets map[string]uint64 `json:"buckets,omitempty"`
}

// MetricsCollector 指标收集器
type MetricsCollector struct {
	metrics     map[string][]*Metric
	counters    map[string]float64
	series      map[string]*series
	metricsLock sync.RWMutex

	startTime time.Time
}

// NewMetricsCollector 创建指标收集器
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics:   make(map[string][]*Metric),
		counters:  make(map[string]float64),
		series:    make(map[string]*series),
		startTime: time.Now(),
	}
}

// RecordMetric 记录指标
func (mc *MetricsCollector) RecordMetric(metric *Metric) {
	mc.metricsLock.Lock()
	defer mc.metricsLock.Unlock()

	metric.Timestamp = time.Now()

	if metric.Type == MetricTypeCounter {
		mc.counters[metric.Name] += metric.Value
	}
	mc.updateSeriesLocked(metric)

	mc.metrics[metric.Name] = append(mc.metrics[metric.Name], metric)

	// 限制历史大小（保留最近的记录）
	if len(mc.metrics[metric.Name]) > maxHistory {
		mc.metrics[metric.Name] = mc.metrics[metric.Name][maxHistory/10:]
	}
}

// GetMetric 获取指标
func (mc *MetricsCollector) GetMetric(name string) ([]*Metric, error) {
	mc.metricsLock.RLock()
	defer mc.metricsLock.RUnlock()

	metrics, ok := mc.metrics[name]
	if !ok {
		return nil, fmt.Errorf("metric %s not found", name)
	}

	// 返回副本
	result := make([]*Metric, len(metrics))
	for i, m := range metrics {
		metricCopy := *m
		result[i] = &metricCopy
	}

	return result, nil
}

// Counter 获取计数器累计值
func (mc *MetricsCollector) Counter(name string) float64 {
	mc.metricsLock.RLock()
	defer mc.metricsLock.RUnlock()
	return mc.counters[name]
}

// GetMetricSummary 获取指标摘要
func (mc *MetricsCollector) GetMetricSummary(name string) (map[string]interface{}, error) {
	metrics, err := mc.GetMetric(name)
	if err != nil {
		return nil, err
	}

	if len(metrics) == 0 {
		return map[string]interface{}{
			"count": 0,
		}, nil
	}

	min := metrics[0].Value
	max := metrics[0].Value
	sum := 0.0
	for _, m := range metrics {
		sum += m.Value
		if m.Value < min {
			min = m.Value
		}
		if m.Value > max {
			max = m.Value
		}
	}

	summary := map[string]interface{}{
		"name":      name,
		"count":     len(metrics),
		"latest":    metrics[len(metrics)-1].Value,
		"min":       min,
		"max":       max,
		"average":   sum / float64(len(metrics)),
		"timestamp": metrics[len(metrics)-1].Timestamp,
	}
	if metrics[0].Type == MetricTypeCounter {
		summary["total"] = mc.Counter(name)
	}

	return summary, nil
}

// IncrCounter 增加计数器
func (mc *MetricsCollector) IncrCounter(name string, value float64, labels map[string]string) {
	mc.RecordMetric(&Metric{
		Name:   name,
		Type:   MetricTypeCounter,
		Value:  value,
		Labels: labels,
	})
}

// SetGauge 设置仪表
func (mc *MetricsCollector) SetGauge(name string, value float64, labels map[string]string) {
	mc.RecordMetric(&Metric{
		Name:   name,
		Type:   MetricTypeGauge,
		Value:  value,
		Labels: labels,
	})
}

// RecordHistogram 记录直方图
func (mc *MetricsCollector) RecordHistogram(name string, value float64, labels map[string]string, buckets []float64) {
	mc.RecordMetric(&Metric{
		Name:   name,
		Type:   MetricTypeHistogram,
		Value:  value,
		Labels: labels,
		Metadata: map[string]interface{}{
			"buckets": buckets,
		},
	})
}

func (mc *MetricsCollector) updateSeriesLocked(metric *Metric) {
	key := metric.Name + formatLabels(metric.Labels)
	sr, ok := mc.series[key]
	if !ok {
		sr = &series{name: metric.Name, labels: copyLabels(metric.Labels), typ: metric.Type}
		if buckets, ok := metric.Metadata["buckets"].([]float64); ok && metric.Type == MetricTypeHistogram {
			sr.buckets = append([]float64(nil), buckets...)
			sort.Float64s(sr.buckets)
			sr.counts = make([]uint64, len(sr.buckets))
		}
		mc.series[key] = sr
	}
	if metric.Help != "" {
		sr.help = metric.Help
	}

	switch metric.Type {
	case MetricTypeCounter:
		sr.value += metric.Value
	case MetricTypeHistogram:
		for i, upper := range sr.buckets {
			if metric.Value <= upper {
				sr.counts[i]++
			}
		}
		sr.sum += metric.Value
		sr.count++
		sr.value = metric.Value
	default:
		sr.value = metric.Value
	}
}

// sortedSeries 按名称、标签排序的序列副本
func (mc *MetricsCollector) sortedSeries() []series {
	mc.metricsLock.RLock()
	defer mc.metricsLock.RUnlock()

	keys := make([]string, 0, len(mc.series))
	for key := range mc.series {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := mc.series[keys[i]], mc.series[keys[j]]
		if a.name != b.name {
			return a.name < b.name
		}
		return keys[i] < keys[j]
	})

	result := make([]series, len(keys))
	for i, key := range keys {
		sr := *mc.series[key]
		sr.counts = append([]uint64(nil), sr.counts...)
		result[i] = sr
	}
	return result
}

// ExportPrometheus 导出Prometheus文本格式，每个标签组合一行，直方图输出 _bucket/_sum/_count
func (mc *MetricsCollector) ExportPrometheus() string {
	var b strings.Builder

	lastName := ""
	for _, sr := range mc.sortedSeries() {
		if sr.name != lastName {
			help := sr.help
			if help == "" {
				help = fmt.Sprintf("Metric %s", sr.name)
			}
			fmt.Fprintf(&b, "# HELP %s %s\n", sr.name, help)
			fmt.Fprintf(&b, "# TYPE %s %s\n", sr.name, sr.typ)
			lastName = sr.name
		}

		if sr.typ != MetricTypeHistogram {
			fmt.Fprintf(&b, "%s%s %g\n", sr.name, formatLabels(sr.labels), sr.value)
			continue
		}
		for i, upper := range sr.buckets {
			fmt.Fprintf(&b, "%s_bucket%s %d\n", sr.name, formatLabels(withLabel(sr.labels, "le", fmt.Sprintf("%g", upper))), sr.counts[i])
		}
		fmt.Fprintf(&b, "%s_bucket%s %d\n", sr.name, formatLabels(withLabel(sr.labels, "le", "+Inf")), sr.count)
		fmt.Fprintf(&b, "%s_sum%s %g\n", sr.name, formatLabels(sr.labels), sr.sum)
		fmt.Fprintf(&b, "%s_count%s %d\n", sr.name, formatLabels(sr.labels), sr.count)
	}

	return b.String()
}

func formatLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf(`%s=%q`, k, labels[k])
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func copyLabels(labels map[string]string) map[string]string {
	if len(labels) == 0 {
		return nil
	}
	out := make(map[string]string, len(labels))
	for k, v := range labels {
		out[k] = v
	}
	return out
}

func withLabel(labels map[string]string, key, value string) map[string]string {
	out := copyLabels(labels)
	if out == nil {
		out = make(map[string]string, 1)
	}
	out[key] = value
	return out
}

// ExportJSON 导出各序列的累计状态
func (mc *MetricsCollector) ExportJSON() ([]byte, error) {
	all := mc.sortedSeries()
	snapshots := make([]SeriesSnapshot, len(all))
	for i, sr := range all {
		snap := SeriesSnapshot{
			Name:   sr.name,
			Type:   sr.typ,
			Labels: sr.labels,
			Value:  sr.value,
		}
		if sr.typ == MetricTypeHistogram {
			snap.Count = sr.count
			snap.Sum = sr.sum
			snap.Buckets = make(map[string]uint64, len(sr.buckets)+1)
			for j, upper := range sr.buckets {
				snap.Buckets[fmt.Sprintf("%g", upper)] = sr.counts[j]
			}
			snap.Buckets["+Inf"] = sr.count
		}
		snapshots[i] = snap
	}
	return json.MarshalIndent(map[string]interface{}{
		"uptime": mc.GetUptime().String(),
		"series": snapshots,
	}, "", "  ")
}

// GetUptime 获取运行时间
func (mc *MetricsCollector) GetUptime() time.Duration {
	return time.Since(mc.startTime)
}

// GetSystemStats 获取系统统计
func (mc *MetricsCollector) GetSystemStats() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return map[string]interface{}{
		"uptime":     mc.GetUptime().String(),
		"goroutines": runtime.NumGoroutine(),
		"memory": map[string]interface{}{
			"alloc":      m.Alloc,
			"heap_alloc": m.HeapAlloc,
			"heap_sys":   m.HeapSys,
			"gc_count":   m.NumGC,
		},
		"num_cpu": runtime.NumCPU(),
	}
}
