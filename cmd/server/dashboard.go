package main

import (
	"bytes"
	"net/http"

	"github.com/Simplici0/labquote/internal/apperrors"
	"github.com/Simplici0/labquote/internal/catalog"
	"github.com/Simplici0/labquote/internal/pricing"
)

type baseViewData struct {
	ErrorMessage string
}

type testOption struct {
	catalog.Test
	Selected bool
}

type dashboardViewData struct {
	baseViewData
	Profile     string
	Profiles    []string
	Tests       []testOption
	Presets     []catalog.Preset
	Selected    []string
	Quote       *pricing.Quote
	GrossMargin string
}

// handleDashboard renders the quote page. The selection lives entirely in the
// query string: ?tests=, ?preset= and ?profile=.
func (s *server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	data := dashboardViewData{
		Profile:  s.defaultProfile,
		Profiles: s.catalog.ProfileNames(),
		Presets:  s.catalog.Presets,
	}

	profile, engine, err := s.engine(query.Get("profile"))
	if err != nil {
		s.renderDashboardError(w, r, data, err)
		return
	}
	data.Profile = profile

	tests, err := s.selection(query.Get("preset"), query["tests"])
	if err != nil {
		s.renderDashboardError(w, r, data, err)
		return
	}
	data.Selected = tests
	data.Tests = s.testOptions(tests)

	if quote, ok := engine.CalculateQuote(tests); ok {
		data.Quote = &quote
		data.GrossMargin = "n/a"
		if pct, ok := quote.GrossMarginPercent(); ok {
			data.GrossMargin = pct.StringFixed(1) + "%"
		}
	}

	s.renderTemplate(w, r, http.StatusOK, data)
}

func (s *server) renderDashboardError(w http.ResponseWriter, r *http.Request, data dashboardViewData, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logRequestError(r, s.logger, err)
		data.ErrorMessage = "Something went wrong. Try again."
	} else {
		data.ErrorMessage = apperrors.MessageOf(err)
	}
	data.Tests = s.testOptions(nil)
	s.renderTemplate(w, r, status, data)
}

func (s *server) testOptions(selected []string) []testOption {
	chosen := make(map[pricing.TestCode]bool, len(selected))
	for _, code := range selected {
		chosen[pricing.TestCode(code)] = true
	}
	options := make([]testOption, 0, len(s.catalog.Tests))
	for _, t := range s.catalog.Tests {
		options = append(options, testOption{Test: t, Selected: chosen[t.Code]})
	}
	return options
}

func (s *server) renderTemplate(w http.ResponseWriter, r *http.Request, status int, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		logRequestError(r, s.logger, err)
		http.Error(w, "failed to render template", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
