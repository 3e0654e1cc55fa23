package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validForm() url.Values {
	return url.Values{
		"age":               {"67"},
		"gender":            {"Male"},
		"hypertension":      {"Yes"},
		"heart_disease":     {"No"},
		"ever_married":      {"Yes"},
		"work_type":         {"Private"},
		"residence_type":    {"Urban"},
		"smoking_status":    {"formerly_smoked"},
		"avg_glucose_level": {"228.7"},
		"bmi":               {"36.6"},
	}
}

func postForm(mux http.Handler, path string, form url.Values, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func get(mux http.Handler, path string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func TestHomePage(t *testing.T) {
	app, _ := newTestApp(t, nil)
	mux := newTestMux(app)

	rr := get(mux, "/", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Welcome to CerebroCare")
	assert.Contains(t, rr.Body.String(), "Unavailable")
	assert.NotEmpty(t, rr.Result().Cookies())

	rr = get(mux, "/nope", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPredictionFlowKeepsResultInSession(t *testing.T) {
	app, saved := newTestApp(t, &fakeClassifier{label: 1, probs: []float64{0.3, 0.7}})
	mux := newTestMux(app)

	first := get(mux, "/predict", nil)
	require.Equal(t, http.StatusOK, first.Code)
	cookies := first.Result().Cookies()
	require.NotEmpty(t, cookies)
	assert.NotContains(t, first.Body.String(), "High stroke risk")

	rr := postForm(mux, "/predict", validForm(), cookies)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), "High stroke risk")
	assert.Contains(t, rr.Body.String(), "70.0%")
	require.Len(t, *saved, 1)

	again := get(mux, "/predict", cookies)
	assert.Contains(t, again.Body.String(), "High stroke risk")
	assert.Contains(t, again.Body.String(), `value="67"`)

	reset := get(mux, "/predict?reset=1", cookies)
	assert.NotContains(t, reset.Body.String(), "High stroke risk")

	// 其他会话看不到该结果
	other := get(mux, "/predict", nil)
	assert.NotContains(t, other.Body.String(), "High stroke risk")
}

func TestPredictionFormValidation(t *testing.T) {
	app, saved := newTestApp(t, &fakeClassifier{label: 0, probs: []float64{0.9, 0.1}})
	mux := newTestMux(app)

	form := validForm()
	form.Set("age", "-3")
	form.Set("smoking_status", "sometimes")

	rr := postForm(mux, "/predict", form, nil)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "Please correct the highlighted fields.")
	assert.Contains(t, body, "field-error")
	assert.Empty(t, *saved)
}

func TestPredictionFormModelUnavailable(t *testing.T) {
	app, _ := newTestApp(t, nil)
	mux := newTestMux(app)

	rr := postForm(mux, "/predict", validForm(), nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "not available")
}

func TestPersonalizationChangesTheme(t *testing.T) {
	app, _ := newTestApp(t, nil)
	mux := newTestMux(app)

	first := get(mux, "/personalize", nil)
	require.Equal(t, http.StatusOK, first.Code)
	cookies := first.Result().Cookies()
	assert.Contains(t, first.Body.String(), "Medical Navy")

	rr := postForm(mux, "/personalize", url.Values{"theme": {"light"}}, cookies)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/personalize?saved=1", rr.Header().Get("Location"))

	page := get(mux, "/personalize?saved=1", cookies)
	assert.Contains(t, page.Body.String(), "Theme saved.")
	assert.Contains(t, page.Body.String(), "--bg: #f8fafc")

	home := get(mux, "/", cookies)
	assert.Contains(t, home.Body.String(), "Clinic Light")
}

func TestPersonalizationRejectsUnknownTheme(t *testing.T) {
	app, _ := newTestApp(t, nil)
	mux := newTestMux(app)

	rr := postForm(mux, "/personalize", url.Values{"theme": {"neon"}}, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Unknown theme")
}
