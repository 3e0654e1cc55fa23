package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AlertLevel 告警级别
type AlertLevel string

const (
	Info     AlertLevel = "info"
	Warning  AlertLevel = "warning"
	Error    AlertLevel = "error"
	Critical AlertLevel = "critical"
)

var levelRank = map[AlertLevel]int{Info: 0, Warning: 1, Error: 2, Critical: 3}

// ParseAlertLevel 解析告警级别，空字符串视为 error
func ParseAlertLevel(s string) (AlertLevel, error) {
	if s == "" {
		return Error, nil
	}
	level := AlertLevel(s)
	if _, ok := levelRank[level]; !ok {
		return "", fmt.Errorf("unknown alert level %q", s)
	}
	return level, nil
}

// Alert 告警结构。Key 相同的活跃告警只保留一条
type Alert struct {
	ID         string     `json:"id"`
	Key        string     `json:"key"`
	Level      AlertLevel `json:"level"`
	Title      string     `json:"title"`
	Message    string     `json:"message"`
	Source     string     `json:"source"`
	Timestamp  time.Time  `json:"timestamp"`
	Count      int        `json:"count"`
	Resolved   bool       `json:"resolved"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
}

// AlertChannel Webhook告警渠道
type AlertChannel struct {
	Name     string
	URL      string
	MinLevel AlertLevel
	Cooldown time.Duration
}

// AlertStats 告警统计
type AlertStats struct {
	TotalAlerts    int64                `json:"total_alerts"`
	ActiveAlerts   int64                `json:"active_alerts"`
	ResolvedAlerts int64                `json:"resolved_alerts"`
	Delivered      int64                `json:"delivered"`
	Failed         int64                `json:"failed"`
	ByLevel        map[AlertLevel]int64 `json:"by_level"`
}

// AlertSystem 告警系统
type AlertSystem struct {
	mu         sync.RWMutex
	alerts     map[string]*Alert // Key -> 当前告警
	channels   []AlertChannel
	lastSent   map[string]time.Time // 渠道名称 -> 上次发送
	stats      AlertStats
	httpClient *http.Client
	logger     *zap.Logger
	wg         sync.WaitGroup
}

// NewAlertSystem 创建告警系统
func NewAlertSystem(logger *zap.Logger) *AlertSystem {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertSystem{
		alerts:     make(map[string]*Alert),
		lastSent:   make(map[string]time.Time),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
		stats:      AlertStats{ByLevel: make(map[AlertLevel]int64)},
	}
}

// AddChannel 添加告警渠道
func (a *AlertSystem) AddChannel(channel AlertChannel) error {
	if channel.URL == "" {
		return fmt.Errorf("channel %s: url is required", channel.Name)
	}
	if channel.MinLevel == "" {
		channel.MinLevel = Error
	}
	if _, ok := levelRank[channel.MinLevel]; !ok {
		return fmt.Errorf("channel %s: unknown level %q", channel.Name, channel.MinLevel)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.channels = append(a.channels, channel)
	a.logger.Info("alert channel added", zap.String("channel", channel.Name), zap.String("min_level", string(channel.MinLevel)))
	return nil
}

// Raise 触发告警。同一Key已处于活跃状态时只累加次数，不重复推送
func (a *AlertSystem) Raise(key string, level AlertLevel, title, message string) *Alert {
	a.mu.Lock()
	if existing, ok := a.alerts[key]; ok && !existing.Resolved {
		existing.Count++
		existing.Message = message
		if levelRank[level] > levelRank[existing.Level] {
			existing.Level = level
		}
		copied := *existing
		a.mu.Unlock()
		return &copied
	}

	alert := &Alert{
		ID:        uuid.NewString(),
		Key:       key,
		Level:     level,
		Title:     title,
		Message:   message,
		Source:    "cerebrocare",
		Timestamp: time.Now().UTC(),
		Count:     1,
	}
	a.alerts[key] = alert
	a.stats.TotalAlerts++
	a.stats.ByLevel[level]++
	targets := a.dueChannelsLocked(alert)
	copied := *alert
	a.mu.Unlock()

	a.logger.Warn("alert raised",
		zap.String("key", key),
		zap.String("level", string(level)),
		zap.String("title", title),
		zap.String("message", message))

	for _, channel := range targets {
		a.wg.Add(1)
		go func(channel AlertChannel) {
			defer a.wg.Done()
			a.deliver(channel, copied)
		}(channel)
	}
	return &copied
}

// dueChannelsLocked 级别满足且不在冷却期的渠道
func (a *AlertSystem) dueChannelsLocked(alert *Alert) []AlertChannel {
	now := time.Now()
	var due []AlertChannel
	for _, channel := range a.channels {
		if levelRank[alert.Level] < levelRank[channel.MinLevel] {
			continue
		}
		if channel.Cooldown > 0 && now.Sub(a.lastSent[channel.Name]) < channel.Cooldown {
			continue
		}
		a.lastSent[channel.Name] = now
		due = append(due, channel)
	}
	return due
}

// Resolve 解决告警，没有活跃告警时返回false
func (a *AlertSystem) Resolve(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	alert, ok := a.alerts[key]
	if !ok || alert.Resolved {
		return false
	}
	now := time.Now().UTC()
	alert.Resolved = true
	alert.ResolvedAt = &now
	a.stats.ResolvedAlerts++
	a.logger.Info("alert resolved", zap.String("key", key))
	return true
}

// ActiveAlerts 获取活跃告警，按时间排序
func (a *AlertSystem) ActiveAlerts() []Alert {
	a.mu.RLock()
	defer a.mu.RUnlock()

	active := make([]Alert, 0)
	for _, alert := range a.alerts {
		if !alert.Resolved {
			active = append(active, *alert)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].Timestamp.Before(active[j].Timestamp) })
	return active
}

// GetStats 获取统计信息
func (a *AlertSystem) GetStats() AlertStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := a.stats
	stats.ByLevel = make(map[AlertLevel]int64, len(a.stats.ByLevel))
	for level, n := range a.stats.ByLevel {
		stats.ByLevel[level] = n
	}
	for _, alert := range a.alerts {
		if !alert.Resolved {
			stats.ActiveAlerts++
		}
	}
	return stats
}

// Wait 等待进行中的推送完成
func (a *AlertSystem) Wait() {
	a.wg.Wait()
}

func (a *AlertSystem) deliver(channel AlertChannel, alert Alert) {
	err := a.sendWebhookRequest(channel.URL, alert)

	a.mu.Lock()
	if err != nil {
		a.stats.Failed++
	} else {
		a.stats.Delivered++
	}
	a.mu.Unlock()

	if err != nil {
		a.logger.Error("alert delivery failed",
			zap.String("channel", channel.Name),
			zap.String("alert_id", alert.ID),
			zap.Error(err))
	}
}

// sendWebhookRequest 发送Webhook请求
func (a *AlertSystem) sendWebhookRequest(url string, alert Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.httpClient.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}
