package http

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"go.uber.org/zap"

	"cerebrocare/ml"
	"cerebrocare/monitoring"
	"cerebrocare/patient"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = mustParsePages()

func mustParsePages() map[Page]*template.Template {
	funcs := template.FuncMap{
		"percent":  func(p float64) string { return fmt.Sprintf("%.1f%%", p*100) },
		"selected": func(a, b string) bool { return a == b },
	}
	files := map[Page]string{
		PageHome:            "templates/home.html",
		PagePrediction:      "templates/prediction.html",
		PagePersonalization: "templates/personalization.html",
	}
	parsed := make(map[Page]*template.Template, len(files))
	for page, file := range files {
		parsed[page] = template.Must(template.New("layout.html").Funcs(funcs).
			ParseFS(templateFS, "templates/layout.html", file))
	}
	return parsed
}

// pageData 模板数据
type pageData struct {
	Title          string
	Page           Page
	Theme          Theme
	Themes         []Theme
	Options        formOptions
	ModelAvailable bool
	Form           map[string]string
	FieldErrors    []patient.FieldError
	Error          string
	Result         *ml.PredictionResult
	Notice         string
}

// RegisterPages 注册表单页面
func (a *App) RegisterPages(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", a.handleHome)
	mux.HandleFunc("GET /predict", a.handlePredictionPage)
	mux.HandleFunc("POST /predict", a.handlePredictionSubmit)
	mux.HandleFunc("GET /personalize", a.handlePersonalizationPage)
	mux.HandleFunc("POST /personalize", a.handlePersonalizationSubmit)
}

// ErrorFor 返回字段的校验错误
func (d pageData) ErrorFor(field string) string {
	for _, fe := range d.FieldErrors {
		if fe.Field == field {
			return fe.Message
		}
	}
	return ""
}

func (a *App) newPageData(page Page, state AppState) pageData {
	return pageData{
		Title:          a.Title,
		Page:           page,
		Theme:          themeOrDefault(state.Theme),
		Themes:         Themes(),
		Options:        buildFormOptions(),
		ModelAvailable: a.Registry.Available(),
		Form:           map[string]string{},
	}
}

func (a *App) handleHome(w http.ResponseWriter, r *http.Request) {
	id, _ := a.Sessions.Load(w, r)
	state := a.Sessions.Update(id, func(st *AppState) { st.Page = PageHome })

	a.render(w, r, http.StatusOK, a.newPageData(PageHome, state))
}

func (a *App) handlePredictionPage(w http.ResponseWriter, r *http.Request) {
	id, _ := a.Sessions.Load(w, r)
	reset := r.URL.Query().Get("reset") == "1"
	state := a.Sessions.Update(id, func(st *AppState) {
		st.Page = PagePrediction
		if reset {
			st.HasPrediction = false
			st.Last = nil
			st.LastInput = nil
		}
	})

	data := a.newPageData(PagePrediction, state)
	if state.HasPrediction {
		data.Result = state.Last
		data.Form = formValues(state.LastInput)
	}
	a.render(w, r, http.StatusOK, data)
}

func (a *App) handlePredictionSubmit(w http.ResponseWriter, r *http.Request) {
	id, state := a.Sessions.Load(w, r)
	state.Page = PagePrediction
	data := a.newPageData(PagePrediction, state)

	if err := r.ParseForm(); err != nil {
		data.Error = "could not read the submitted form"
		a.render(w, r, http.StatusBadRequest, data)
		return
	}
	for key := range r.PostForm {
		data.Form[key] = r.PostForm.Get(key)
	}

	attrs, err := patient.FromForm(r.PostForm)
	if err != nil {
		a.Metrics.IncrCounter(monitoring.MetricValidationErrorsTotal, 1, nil)
		a.renderAssessError(w, r, data, err)
		return
	}

	res, err := a.assess(r.Context(), attrs)
	if err != nil {
		a.renderAssessError(w, r, data, err)
		return
	}

	a.Sessions.Update(id, func(st *AppState) {
		st.Page = PagePrediction
		st.HasPrediction = true
		st.Last = &res.result
		st.LastInput = &attrs
	})

	data.Result = &res.result
	a.render(w, r, http.StatusOK, data)
}

// renderAssessError 表单页的错误展示，状态码与JSON接口一致
func (a *App) renderAssessError(w http.ResponseWriter, r *http.Request, data pageData, err error) {
	var verr *patient.ValidationError
	switch {
	case errors.As(err, &verr):
		data.FieldErrors = verr.Fields
		data.Error = "Please correct the highlighted fields."
		a.render(w, r, http.StatusBadRequest, data)
	case errors.Is(err, ml.ErrModelUnavailable):
		data.Error = "The prediction model is not available. Please contact the administrator."
		a.render(w, r, http.StatusServiceUnavailable, data)
	default:
		data.Error = "The prediction could not be completed."
		a.render(w, r, http.StatusInternalServerError, data)
	}
}

func (a *App) handlePersonalizationPage(w http.ResponseWriter, r *http.Request) {
	id, _ := a.Sessions.Load(w, r)
	state := a.Sessions.Update(id, func(st *AppState) { st.Page = PagePersonalization })

	data := a.newPageData(PagePersonalization, state)
	if r.URL.Query().Get("saved") == "1" {
		data.Notice = "Theme saved."
	}
	a.render(w, r, http.StatusOK, data)
}

func (a *App) handlePersonalizationSubmit(w http.ResponseWriter, r *http.Request) {
	id, state := a.Sessions.Load(w, r)
	state.Page = PagePersonalization

	name := r.PostFormValue("theme")
	if _, ok := LookupTheme(name); !ok {
		data := a.newPageData(PagePersonalization, state)
		data.Error = fmt.Sprintf("Unknown theme %q.", name)
		a.render(w, r, http.StatusBadRequest, data)
		return
	}

	a.Sessions.Update(id, func(st *AppState) {
		st.Page = PagePersonalization
		st.Theme = name
	})
	http.Redirect(w, r, "/personalize?saved=1", http.StatusSeeOther)
}

// render 先渲染到缓冲区，模板出错时返回500而不是半个页面
func (a *App) render(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	tmpl, ok := pageTemplates[data.Page]
	if !ok {
		http.Error(w, "unknown page", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		a.Logger.Error("render page failed",
			zap.String("request_id", GetRequestID(r.Context())),
			zap.String("page", string(data.Page)),
			zap.Error(err))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// formValues 把上次输入回填到表单
func formValues(a *patient.Attributes) map[string]string {
	if a == nil {
		return map[string]string{}
	}
	yesNo := func(b bool) string {
		if b {
			return "Yes"
		}
		return "No"
	}
	return map[string]string{
		"age":               fmt.Sprintf("%g", a.Age),
		"bmi":               fmt.Sprintf("%g", a.BMI),
		"avg_glucose_level": fmt.Sprintf("%g", a.AvgGlucoseLevel),
		"hypertension":      yesNo(a.Hypertension),
		"heart_disease":     yesNo(a.HeartDisease),
		"ever_married":      yesNo(a.EverMarried),
		"gender":            string(a.Gender),
		"work_type":         string(a.WorkType),
		"residence_type":    string(a.ResidenceType),
		"smoking_status":    string(a.SmokingStatus),
	}
}
