package http

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"cerebrocare/patient"
)

// Theme 页面配色，只影响展示
type Theme struct {
	Name       string
	Label      string
	Background string
	Sidebar    string
	Surface    string
	Border     string
	Accent     string
	AccentDark string
	Heading    string
	Text       string
	Muted      string
	Danger     string
	Success    string
}

var themes = []Theme{
	{
		Name: "navy", Label: "Medical Navy",
		Background: "#0f172a", Sidebar: "#1a2847", Surface: "#1e293b", Border: "#334155",
		Accent: "#0ea5e9", AccentDark: "#0284c7", Heading: "#38bdf8",
		Text: "#e2e8f0", Muted: "#94a3b8", Danger: "#ef4444", Success: "#10b981",
	},
	{
		Name: "light", Label: "Clinic Light",
		Background: "#f8fafc", Sidebar: "#e2e8f0", Surface: "#ffffff", Border: "#cbd5e1",
		Accent: "#0369a1", AccentDark: "#075985", Heading: "#0c4a6e",
		Text: "#0f172a", Muted: "#475569", Danger: "#b91c1c", Success: "#047857",
	},
	{
		Name: "contrast", Label: "High Contrast",
		Background: "#000000", Sidebar: "#000000", Surface: "#111111", Border: "#ffffff",
		Accent: "#ffd400", AccentDark: "#e6bf00", Heading: "#ffd400",
		Text: "#ffffff", Muted: "#d4d4d4", Danger: "#ff5c5c", Success: "#5cff8d",
	},
}

// Themes 所有可选主题
func Themes() []Theme {
	return append([]Theme(nil), themes...)
}

// LookupTheme 按名称查找主题
func LookupTheme(name string) (Theme, bool) {
	for _, t := range themes {
		if t.Name == name {
			return t, true
		}
	}
	return Theme{}, false
}

func themeOrDefault(name string) Theme {
	if t, ok := LookupTheme(name); ok {
		return t
	}
	return themes[0]
}

// Option 下拉框选项
type Option struct {
	Value string
	Label string
}

// DisplayLabel 把编码值转成界面文字，如 never_smoked -> Never Smoked
func DisplayLabel(value string) string {
	spaced := strings.NewReplacer("_", " ", "-", " ").Replace(value)
	// Caser 有状态，不能跨goroutine共享
	return cases.Title(language.English).String(spaced)
}

type formOptions struct {
	Genders         []Option
	WorkTypes       []Option
	ResidenceTypes  []Option
	SmokingStatuses []Option
	YesNo           []Option
}

func buildFormOptions() formOptions {
	var opts formOptions
	for _, g := range patient.Genders() {
		opts.Genders = append(opts.Genders, Option{Value: string(g), Label: DisplayLabel(string(g))})
	}
	for _, w := range patient.WorkTypes() {
		opts.WorkTypes = append(opts.WorkTypes, Option{Value: string(w), Label: DisplayLabel(string(w))})
	}
	for _, r := range patient.ResidenceTypes() {
		opts.ResidenceTypes = append(opts.ResidenceTypes, Option{Value: string(r), Label: DisplayLabel(string(r))})
	}
	for _, s := range patient.SmokingStatuses() {
		opts.SmokingStatuses = append(opts.SmokingStatuses, Option{Value: string(s), Label: DisplayLabel(string(s))})
	}
	opts.YesNo = []Option{{Value: "No", Label: "No"}, {Value: "Yes", Label: "Yes"}}
	return opts
}
