package http

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"cerebrocare/db"
	"cerebrocare/ml"
	"cerebrocare/monitoring"
	"cerebrocare/patient"
)

// 持久化入口，测试时替换
var (
	saveAssessment    = db.SaveAssessment
	recentAssessments = db.RecentAssessments
)

// App 处理器共享的依赖，替代包级全局状态
type App struct {
	Registry *ml.ModelRegistry
	Metrics  *monitoring.MetricsCollector
	Hub      *monitoring.AssessmentHub
	Alerts   *monitoring.AlertSystem
	Sessions *SessionStore
	Logger   *zap.Logger
	Title    string
}

// assessment 一次评估的结果
type assessment struct {
	vector ml.FeatureVector
	result ml.PredictionResult
}

// assess 校验、向量化并预测。校验失败返回 patient.ErrInvalidInput，
// 模型不可用返回 ml.ErrModelUnavailable
func (a *App) assess(ctx context.Context, attrs patient.Attributes) (assessment, error) {
	requestID := GetRequestID(ctx)

	if err := patient.Validate(attrs); err != nil {
		a.Metrics.IncrCounter(monitoring.MetricValidationErrorsTotal, 1, nil)
		return assessment{}, err
	}

	// 分类器与其列清单取自同一份快照，避免重新加载时错配
	clf, schema, err := a.Registry.Snapshot()
	if err != nil {
		a.Metrics.IncrCounter(monitoring.MetricModelUnavailableTotal, 1, nil)
		a.Logger.Error("prediction refused", zap.String("request_id", requestID), zap.Error(err))
		return assessment{}, err
	}

	vector := ml.Vectorize(attrs, schema)
	a.logReferenceCategories(requestID, attrs, schema)

	start := time.Now()
	result, err := ml.Predict(vector, clf)
	if err != nil {
		a.Logger.Error("prediction failed", zap.String("request_id", requestID), zap.Error(err))
		return assessment{}, err
	}
	latency := float64(time.Since(start).Microseconds()) / 1000

	a.Metrics.IncrCounter(monitoring.MetricPredictionsTotal, 1, map[string]string{"risk": result.RiskLevel()})
	a.Metrics.RecordHistogram(monitoring.MetricPredictionLatencyMs, latency, nil, monitoring.LatencyBucketsMs)
	a.Logger.Info("prediction",
		zap.String("request_id", requestID),
		zap.Int("label", result.Label),
		zap.Float64("probability", result.Probability),
		zap.Float64("latency_ms", latency))

	if err := saveAssessment(requestID, a.Registry.ModelType(), vector, result); err != nil && !errors.Is(err, db.ErrNotInitialized) {
		a.Logger.Warn("save assessment failed", zap.String("request_id", requestID), zap.Error(err))
	}

	if a.Hub != nil {
		event := monitoring.AssessmentEvent{
			RequestID:   requestID,
			Label:       result.Label,
			RiskLevel:   result.RiskLevel(),
			Probability: result.Probability,
			ModelType:   a.Registry.ModelType(),
			Timestamp:   time.Now().UTC(),
		}
		if err := a.Hub.PublishAssessment(event); err != nil {
			a.Logger.Warn("publish assessment failed", zap.Error(err))
		}
	}

	return assessment{vector: vector, result: result}, nil
}

// logReferenceCategories 记录被编码为全零的参考类别
func (a *App) logReferenceCategories(requestID string, attrs patient.Attributes, schema ml.Schema) {
	if !a.Logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	given := map[string]string{
		ml.GenderPrefix:    string(attrs.Gender),
		ml.WorkTypePrefix:  string(attrs.WorkType),
		ml.ResidencePrefix: string(attrs.ResidenceType),
		ml.SmokingPrefix:   string(attrs.SmokingStatus),
	}
	for prefix, values := range ml.ReferenceCategories(schema) {
		for _, v := range values {
			if given[prefix] == v {
				a.Logger.Debug("reference category encoded as zeros",
					zap.String("request_id", requestID),
					zap.String("field", prefix),
					zap.String("value", v))
			}
		}
	}
}

// 模型告警Key
const (
	alertModelUnavailable = "model_unavailable"
	alertModelReload      = "model_reload_failed"
)

// ReportModelLoad 根据加载结果更新仪表并触发或解除告警
func (a *App) ReportModelLoad(err error) {
	a.recordModelStatus()
	if a.Alerts == nil {
		return
	}
	switch {
	case err == nil:
		a.Alerts.Resolve(alertModelUnavailable)
		a.Alerts.Resolve(alertModelReload)
	case !a.Registry.Available():
		a.Alerts.Raise(alertModelUnavailable, monitoring.Critical,
			"Model unavailable", "predictions are disabled: "+err.Error())
	default:
		a.Alerts.Raise(alertModelReload, monitoring.Warning,
			"Model reload failed", "serving the previous model: "+err.Error())
	}
}

// OnModelReload 模型重新加载后更新指标并通知前端
func (a *App) OnModelReload(err error) {
	a.Metrics.IncrCounter(monitoring.MetricModelReloadsTotal, 1, map[string]string{"ok": boolLabel(err == nil)})
	a.ReportModelLoad(err)
	if a.Hub == nil {
		return
	}
	event := monitoring.ModelStatusEvent{Available: a.Registry.Available()}
	if err != nil {
		event.Error = err.Error()
	}
	if perr := a.Hub.PublishModelStatus(event); perr != nil {
		a.Logger.Warn("publish model status failed", zap.Error(perr))
	}
}

// recordModelStatus 记录模型可用性仪表
func (a *App) recordModelStatus() {
	value := 0.0
	if a.Registry.Available() {
		value = 1
	}
	a.Metrics.SetGauge("model_available", value, map[string]string{"type": a.Registry.ModelType()})
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
