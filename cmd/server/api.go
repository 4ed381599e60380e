package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Simplici0/labquote/internal/apperrors"
	"github.com/Simplici0/labquote/internal/pricing"
	"github.com/Simplici0/labquote/internal/report"
)

const maxQuoteBodyBytes = 1 << 20

type quoteRequest struct {
	Tests   []string `json:"tests"`
	Profile string   `json:"profile"`
}

type quoteResponse struct {
	Profile string         `json:"profile"`
	Quote   *pricing.Quote `json:"quote"`
}

type profileResponse struct {
	Name             string              `json:"name"`
	Default          bool                `json:"default"`
	MarginalOverhead decimal.Decimal     `json:"marginal_overhead"`
	AddOnRate        decimal.Decimal     `json:"add_on_rate"`
	FloorMultiple    decimal.Decimal     `json:"floor_multiple"`
	Scenarios        []pricing.Scenario  `json:"scenarios"`
	Surcharges       []pricing.Surcharge `json:"surcharges"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleListTests(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{"tests": s.catalog.Tests})
}

func (s *server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{"presets": s.catalog.Presets})
}

func (s *server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles := make([]profileResponse, 0, len(s.catalog.Profiles))
	for _, p := range s.catalog.Profiles {
		profiles = append(profiles, profileResponse{
			Name:             p.Name,
			Default:          p.Name == s.defaultProfile,
			MarginalOverhead: p.Rules.MarginalOverhead,
			AddOnRate:        p.Rules.AddOnRate,
			FloorMultiple:    p.Rules.FloorMultiple,
			Scenarios:        p.Scenarios,
			Surcharges:       p.Surcharges,
		})
	}
	respondWithJSON(w, http.StatusOK, map[string]any{"profiles": profiles})
}

// handleCreateQuote prices the posted tests. An empty list is not an error:
// the response carries a null quote.
func (s *server) handleCreateQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxQuoteBodyBytes))
	if err := decoder.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	profile, engine, err := s.engine(req.Profile)
	if err != nil {
		respondWithAppError(w, r, s.logger, err)
		return
	}

	resp := quoteResponse{Profile: profile}
	if quote, ok := engine.CalculateQuote(req.Tests); ok {
		resp.Quote = &quote
	}
	respondWithJSON(w, http.StatusOK, resp)
}

func (s *server) handleExportQuote(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	format, err := report.ParseFormat(query.Get("format"))
	if err != nil {
		respondWithAppError(w, r, s.logger, err)
		return
	}

	_, engine, err := s.engine(query.Get("profile"))
	if err != nil {
		respondWithAppError(w, r, s.logger, err)
		return
	}

	tests, err := s.selection(query.Get("preset"), query["tests"])
	if err != nil {
		respondWithAppError(w, r, s.logger, err)
		return
	}

	quote, ok := engine.CalculateQuote(tests)
	if !ok {
		respondWithAppError(w, r, s.logger, apperrors.NewValidationError("no tests selected"))
		return
	}

	var buf bytes.Buffer
	if err := report.Write(&buf, format, quote); err != nil {
		respondWithAppError(w, r, s.logger, apperrors.NewInternalError("render export", err))
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=quote.%s", format.Extension()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
