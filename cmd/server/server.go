package main

import (
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Simplici0/labquote/internal/apperrors"
	"github.com/Simplici0/labquote/internal/catalog"
	"github.com/Simplici0/labquote/internal/observability"
	"github.com/Simplici0/labquote/internal/pricing"
)

//go:embed templates/*.html
var templateFS embed.FS

type server struct {
	catalog        *catalog.Catalog
	engines        map[string]*pricing.Engine
	defaultProfile string
	templates      *template.Template
	logger         zerolog.Logger
}

func newServer(c *catalog.Catalog, defaultProfile string, logger zerolog.Logger) (*server, error) {
	if _, err := c.Profile(defaultProfile); err != nil {
		return nil, err
	}

	engines, err := c.Engines()
	if err != nil {
		return nil, err
	}

	templates, err := template.New("layout.html").
		Funcs(template.FuncMap{
			"money": formatMoney,
			"join":  func(codes []string) string { return strings.Join(codes, ",") },
		}).
		ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, apperrors.NewInternalError("parse templates", err)
	}

	return &server{
		catalog:        c,
		engines:        engines,
		defaultProfile: defaultProfile,
		templates:      templates,
		logger:         logger,
	}, nil
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(observability.RequestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleDashboard)
	r.Get("/healthz", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/tests", s.handleListTests)
		r.Get("/presets", s.handleListPresets)
		r.Get("/profiles", s.handleListProfiles)
		r.Post("/quotes", s.handleCreateQuote)
		r.Get("/quotes/export", s.handleExportQuote)
	})

	return r
}

// engine resolves a profile name; an empty name selects the default profile.
func (s *server) engine(profile string) (string, *pricing.Engine, error) {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		profile = s.defaultProfile
	}
	engine, ok := s.engines[profile]
	if !ok {
		return "", nil, apperrors.NewNotFoundError("pricing profile %q not found", profile)
	}
	return profile, engine, nil
}

// selection builds the test list from a preset and the tests parameter.
// Values may repeat the parameter or be comma-separated. Duplicate codes
// are dropped.
func (s *server) selection(preset string, values []string) ([]string, error) {
	var tests []string
	seen := make(map[pricing.TestCode]bool)
	add := func(raw string) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return
		}
		code := pricing.NormalizeCode(raw)
		if seen[code] {
			return
		}
		seen[code] = true
		tests = append(tests, string(code))
	}

	if strings.TrimSpace(preset) != "" {
		p, err := s.catalog.Preset(preset)
		if err != nil {
			return nil, err
		}
		for _, code := range p.Tests {
			add(string(code))
		}
	}
	for _, v := range values {
		for _, raw := range strings.Split(v, ",") {
			add(raw)
		}
	}
	return tests, nil
}

func formatMoney(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
