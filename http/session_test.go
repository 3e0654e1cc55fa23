package http

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cerebrocare/ml"
)

func TestSessionStoreIssuesCookie(t *testing.T) {
	store, err := NewSessionStore(4, "sid", "light")
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	id, state := store.Load(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, id)
	assert.Equal(t, PageHome, state.Page)
	assert.Equal(t, "light", state.Theme)
	assert.False(t, state.HasPrediction)

	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "sid", cookies[0].Name)
	assert.Equal(t, id, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)

	state.HasPrediction = true
	state.Last = &ml.PredictionResult{Label: 1, Probability: 0.9}
	store.Save(id, state)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookies[0])
	rr = httptest.NewRecorder()
	sameID, loaded := store.Load(rr, req)
	assert.Equal(t, id, sameID)
	assert.True(t, loaded.HasPrediction)
	assert.Equal(t, 0.9, loaded.Last.Probability)
	assert.Empty(t, rr.Result().Cookies())
}

func TestSessionStoreEvictsOldest(t *testing.T) {
	store, err := NewSessionStore(1, "", "navy")
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	first, _ := store.Load(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	oldCookie := rr.Result().Cookies()[0]

	store.Load(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, 1, store.Len())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(oldCookie)
	renewed, state := store.Load(httptest.NewRecorder(), req)
	assert.NotEqual(t, first, renewed)
	assert.Equal(t, "navy", state.Theme)
}

func TestNewSessionStoreRejectsZeroCapacity(t *testing.T) {
	_, err := NewSessionStore(0, "", "navy")
	assert.Error(t, err)
}

func TestDisplayLabel(t *testing.T) {
	assert.Equal(t, "Never Smoked", DisplayLabel("never_smoked"))
	assert.Equal(t, "Self Employed", DisplayLabel("Self-employed"))
	assert.Equal(t, "Govt Job", DisplayLabel("Govt_job"))
}

func TestLookupTheme(t *testing.T) {
	theme, ok := LookupTheme("contrast")
	require.True(t, ok)
	assert.Equal(t, "High Contrast", theme.Label)

	_, ok = LookupTheme("neon")
	assert.False(t, ok)
	assert.Equal(t, "navy", themeOrDefault("neon").Name)
}

func TestSessionStoreConcurrentUpdatesKeepBothFields(t *testing.T) {
	store, err := NewSessionStore(4, "", "navy")
	require.NoError(t, err)
	id, _ := store.Load(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			store.Update(id, func(st *AppState) { st.Theme = "light" })
		}()
		go func() {
			defer wg.Done()
			store.Update(id, func(st *AppState) {
				st.HasPrediction = true
				st.Last = &ml.PredictionResult{Label: 1, Probability: 0.7}
			})
		}()
	}
	wg.Wait()

	state := store.Update(id, func(*AppState) {})
	assert.Equal(t, "light", state.Theme)
	assert.True(t, state.HasPrediction)
	require.NotNil(t, state.Last)
	assert.Equal(t, 1, state.Last.Label)
}
