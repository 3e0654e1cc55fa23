package monitoring

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type webhookRecorder struct {
	mu     sync.Mutex
	alerts []Alert
}

func (rec *webhookRecorder) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var alert Alert
	if err := json.NewDecoder(r.Body).Decode(&alert); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	rec.mu.Lock()
	rec.alerts = append(rec.alerts, alert)
	rec.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (rec *webhookRecorder) received() []Alert {
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return append([]Alert(nil), rec.alerts...)
}

func TestAlertDeduplicatesActiveKey(t *testing.T) {
	rec := &webhookRecorder{}
	server := httptest.NewServer(rec)
	defer server.Close()

	alerts := NewAlertSystem(nil)
	require.NoError(t, alerts.AddChannel(AlertChannel{Name: "ops", URL: server.URL, MinLevel: Error}))

	first := alerts.Raise("model_unavailable", Critical, "Model unavailable", "missing file")
	second := alerts.Raise("model_unavailable", Critical, "Model unavailable", "still missing")
	alerts.Wait()

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 2, second.Count)
	received := rec.received()
	require.Len(t, received, 1)
	assert.Equal(t, "model_unavailable", received[0].Key)
	assert.Equal(t, Critical, received[0].Level)

	active := alerts.ActiveAlerts()
	require.Len(t, active, 1)
	assert.Equal(t, "still missing", active[0].Message)

	stats := alerts.GetStats()
	assert.EqualValues(t, 1, stats.TotalAlerts)
	assert.EqualValues(t, 1, stats.Delivered)
	assert.EqualValues(t, 1, stats.ActiveAlerts)
}

func TestAlertResolveAndReraise(t *testing.T) {
	alerts := NewAlertSystem(nil)

	assert.False(t, alerts.Resolve("model_unavailable"))
	first := alerts.Raise("model_unavailable", Error, "Model unavailable", "x")
	assert.True(t, alerts.Resolve("model_unavailable"))
	assert.Empty(t, alerts.ActiveAlerts())

	again := alerts.Raise("model_unavailable", Error, "Model unavailable", "y")
	assert.NotEqual(t, first.ID, again.ID)
	assert.EqualValues(t, 1, alerts.GetStats().ResolvedAlerts)
}

func TestAlertLevelFilter(t *testing.T) {
	rec := &webhookRecorder{}
	server := httptest.NewServer(rec)
	defer server.Close()

	alerts := NewAlertSystem(nil)
	require.NoError(t, alerts.AddChannel(AlertChannel{Name: "ops", URL: server.URL, MinLevel: Critical}))

	alerts.Raise("model_reload_failed", Warning, "Model reload failed", "bad json")
	alerts.Wait()
	assert.Empty(t, rec.received())
}

func TestAlertDeliveryFailureCounted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	alerts := NewAlertSystem(nil)
	require.NoError(t, alerts.AddChannel(AlertChannel{Name: "ops", URL: server.URL}))

	alerts.Raise("model_unavailable", Critical, "Model unavailable", "x")
	alerts.Wait()
	assert.EqualValues(t, 1, alerts.GetStats().Failed)
}

func TestParseAlertLevel(t *testing.T) {
	level, err := ParseAlertLevel("")
	require.NoError(t, err)
	assert.Equal(t, Error, level)

	level, err = ParseAlertLevel("warning")
	require.NoError(t, err)
	assert.Equal(t, Warning, level)

	_, err = ParseAlertLevel("loud")
	assert.Error(t, err)

	assert.Error(t, NewAlertSystem(nil).AddChannel(AlertChannel{Name: "empty"}))
}
