package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"cerebrocare/db"
	"cerebrocare/ml"
	"cerebrocare/monitoring"
	"cerebrocare/patient"
)

// RegisterAPI 注册JSON接口
func (a *App) RegisterAPI(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", a.handleHealth)
	mux.HandleFunc("POST /api/predict", a.handlePredict)
	mux.HandleFunc("GET /api/schema", a.handleSchema)
	mux.HandleFunc("GET /api/metrics", a.handleMetrics)
	mux.HandleFunc("GET /api/assessments", a.handleAssessments)
	mux.HandleFunc("GET /api/ws/assessments", a.handleWebSocket)
	mux.HandleFunc("POST /api/model/reload", a.handleModelReload)
	mux.HandleFunc("GET /api/alerts", a.handleAlerts)
}

// predictResponse 预测接口响应
type predictResponse struct {
	RequestID   string             `json:"request_id"`
	Label       int                `json:"label"`
	Probability float64            `json:"probability"`
	RiskLevel   string             `json:"risk_level"`
	Features    map[string]float64 `json:"features"`
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	available := a.Registry.Available()
	status := "ok"
	if !available {
		status = "degraded"
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":          status,
		"model_available": available,
		"model_type":      a.Registry.ModelType(),
		"history_enabled": db.Enabled(),
		"uptime":          a.Metrics.GetUptime().String(),
	})
}

func (a *App) handlePredict(w http.ResponseWriter, r *http.Request) {
	var submission patient.Submission
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&submission); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	// 缺失字段在向量化之前拒绝，不按零值处理
	attrs, err := submission.Attributes()
	if err != nil {
		a.Metrics.IncrCounter(monitoring.MetricValidationErrorsTotal, 1, nil)
		a.writeAssessError(w, err)
		return
	}

	res, err := a.assess(r.Context(), attrs)
	if err != nil {
		a.writeAssessError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, predictResponse{
		RequestID:   GetRequestID(r.Context()),
		Label:       res.result.Label,
		Probability: res.result.Probability,
		RiskLevel:   res.result.RiskLevel(),
		Features:    res.vector.Map(),
	})
}

// writeAssessError 把评估错误映射为HTTP状态码
func (a *App) writeAssessError(w http.ResponseWriter, err error) {
	var verr *patient.ValidationError
	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, map[string]interface{}{
			"error":  patient.ErrInvalidInput.Error(),
			"fields": verr.Fields,
		})
	case errors.Is(err, patient.ErrInvalidInput):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ml.ErrModelUnavailable):
		writeJSONError(w, http.StatusServiceUnavailable, ml.ErrModelUnavailable.Error())
	default:
		writeJSONError(w, http.StatusInternalServerError, "prediction failed")
	}
}

func (a *App) handleSchema(w http.ResponseWriter, r *http.Request) {
	schema := a.Registry.Schema()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"columns":              schema,
		"reference_categories": ml.ReferenceCategories(schema),
		"model_type":           a.Registry.ModelType(),
	})
}

func (a *App) handleMetrics(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("format") {
	case "prometheus":
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(a.Metrics.ExportPrometheus()))
		return
	case "series":
		data, err := a.Metrics.ExportJSON()
		if err != nil {
			a.Logger.Error("export metrics failed", zap.Error(err))
			writeJSONError(w, http.StatusInternalServerError, "failed to export metrics")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
		return
	}

	latency, err := a.Metrics.GetMetricSummary(monitoring.MetricPredictionLatencyMs)
	if err != nil {
		latency = map[string]interface{}{"count": 0}
	}
	wsClients, wsSent := 0, int64(0)
	if a.Hub != nil {
		wsClients = a.Hub.ClientCount()
		wsSent = a.Hub.MessagesSent()
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"predictions_total":       a.Metrics.Counter(monitoring.MetricPredictionsTotal),
		"validation_errors_total": a.Metrics.Counter(monitoring.MetricValidationErrorsTotal),
		"model_unavailable_total": a.Metrics.Counter(monitoring.MetricModelUnavailableTotal),
		"model_reloads_total":     a.Metrics.Counter(monitoring.MetricModelReloadsTotal),
		"prediction_latency_ms":   latency,
		"sessions":                a.Sessions.Len(),
		"ws_clients":              wsClients,
		"ws_messages_sent":        wsSent,
		"system":                  a.Metrics.GetSystemStats(),
	})
}

// 单次查询的历史记录上限
const maxAssessmentsLimit = 500

func (a *App) handleAssessments(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		l, err := strconv.Atoi(limitStr)
		if err != nil || l <= 0 {
			writeJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(l, maxAssessmentsLimit)
	}

	assessments, err := recentAssessments(limit)
	if errors.Is(err, db.ErrNotInitialized) {
		assessments = []db.Assessment{}
	} else if err != nil {
		a.Logger.Error("load assessments failed", zap.Error(err))
		writeJSONError(w, http.StatusInternalServerError, "failed to load assessments")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"assessments": assessments,
		"count":       len(assessments),
	})
}

// handleModelReload 重新读取模型文件；失败时保留旧模型
func (a *App) handleModelReload(w http.ResponseWriter, r *http.Request) {
	err := a.Registry.Load()
	a.OnModelReload(err)
	if err != nil {
		a.Logger.Error("model reload failed",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.Error(err))
		status := http.StatusInternalServerError
		if errors.Is(err, ml.ErrArtifactNotFound) {
			status = http.StatusNotFound
		}
		respondJSON(w, status, map[string]interface{}{
			"error":           err.Error(),
			"model_available": a.Registry.Available(),
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "reloaded",
		"model_available": true,
		"columns":         len(a.Registry.Schema()),
	})
}

func (a *App) handleAlerts(w http.ResponseWriter, r *http.Request) {
	if a.Alerts == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{"active": []monitoring.Alert{}})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"active": a.Alerts.ActiveAlerts(),
		"stats":  a.Alerts.GetStats(),
	})
}

func (a *App) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if a.Hub == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "live feed disabled")
		return
	}
	a.Hub.HandleWebSocket(w, r)
}

// respondJSON 统一JSON响应
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		zap.L().Warn("failed to encode JSON", zap.Error(err))
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
