package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Simplici0/labquote/internal/apperrors"
	"github.com/Simplici0/labquote/internal/catalog"
	"github.com/Simplici0/labquote/internal/pricing"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	c, err := catalog.Default()
	require.NoError(t, err)
	srv, err := newServer(c, "dashboard", zerolog.Nop())
	require.NoError(t, err)
	return srv.routes()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeQuote(t *testing.T, rec *httptest.ResponseRecorder) (string, *pricing.Quote) {
	t.Helper()

	var resp struct {
		Profile string         `json:"profile"`
		Quote   *pricing.Quote `json:"quote"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Profile, resp.Quote
}

func TestNewServerRejectsUnknownDefaultProfile(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)

	_, err = newServer(c, "missing", zerolog.Nop())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeNotFound))
}

func TestCreateQuote(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/quotes", `{"tests":["TSH","FERRITIN"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	profile, quote := decodeQuote(t, rec)
	assert.Equal(t, "dashboard", profile)
	require.NotNil(t, quote)

	assert.Equal(t, []string{"TSH", "FERRITIN"}, quote.Tests)
	require.Len(t, quote.Breakdown, 2)
	assert.Equal(t, pricing.TestCode("FERRITIN"), quote.Breakdown[0].Code)
	assert.Equal(t, pricing.RoleAnchor, quote.Breakdown[0].Role)
	assert.Equal(t, "18.00", quote.Breakdown[1].FinalPrice.StringFixed(2))
	assert.Equal(t, "59.00", quote.TotalPrice.StringFixed(2))
	assert.Equal(t, "3.92", quote.TotalVariableCost.StringFixed(2))
	assert.Equal(t, "55.08", quote.ContributionMargin.StringFixed(2))

	require.Len(t, quote.Profitability, 3)
	assert.Equal(t, "-29.92", quote.Profitability[0].NetProfit.StringFixed(2))
	assert.False(t, quote.Profitability[0].IsProfitable)
	assert.Equal(t, "21.08", quote.Profitability[1].NetProfit.StringFixed(2))
	assert.True(t, quote.Profitability[1].IsProfitable)
}

func TestCreateQuote_ConsoleProfileAddsSurcharges(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/api/quotes", `{"tests":["tsh","ferritin"],"profile":"console"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	profile, quote := decodeQuote(t, rec)
	assert.Equal(t, "console", profile)
	require.NotNil(t, quote)
	assert.Equal(t, "64.50", quote.TotalPrice.StringFixed(2))
	assert.Equal(t, "5.50", quote.TotalSurcharges.StringFixed(2))
	assert.Equal(t, "55.08", quote.ContributionMargin.StringFixed(2))
	require.Len(t, quote.Profitability, 2)
	assert.Equal(t, "Jan 1 '26", quote.Profitability[1].Name)
}

func TestCreateQuote_EmptySelectionIsNullQuote(t *testing.T) {
	h := newTestServer(t)

	for _, body := range []string{`{"tests":[]}`, `{}`, ``} {
		rec := do(t, h, http.MethodPost, "/api/quotes", body)
		require.Equal(t, http.StatusOK, rec.Code, "body %q", body)
		assert.Contains(t, rec.Body.String(), `"quote":null`, "body %q", body)
	}
}

func TestCreateQuote_Errors(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		name   string
		body   string
		status int
		errMsg string
	}{
		{"unknown profile", `{"tests":["TSH"],"profile":"nope"}`, http.StatusNotFound, `pricing profile "nope" not found`},
		{"malformed json", `{"tests":`, http.StatusBadRequest, "invalid request body"},
		{"wrong type", `{"tests":"TSH"}`, http.StatusBadRequest, "invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/quotes", tt.body)
			assert.Equal(t, tt.status, rec.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Contains(t, resp["error"], tt.errMsg)
		})
	}
}

func TestListEndpoints(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/tests", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var tests struct {
		Tests []catalog.Test `json:"tests"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tests))
	assert.Len(t, tests.Tests, 36)

	rec = do(t, h, http.MethodGet, "/api/presets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var presets struct {
		Presets []catalog.Preset `json:"presets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &presets))
	require.Len(t, presets.Presets, 4)
	assert.Equal(t, []pricing.TestCode{"IRON", "FERRITIN"}, presets.Presets[2].Tests)

	rec = do(t, h, http.MethodGet, "/api/profiles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var profiles struct {
		Profiles []profileResponse `json:"profiles"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profiles))
	require.Len(t, profiles.Profiles, 2)
	assert.Equal(t, "console", profiles.Profiles[0].Name)
	assert.False(t, profiles.Profiles[0].Default)
	assert.Len(t, profiles.Profiles[0].Surcharges, 2)
	assert.Equal(t, "dashboard", profiles.Profiles[1].Name)
	assert.True(t, profiles.Profiles[1].Default)
	assert.Equal(t, "3", profiles.Profiles[1].FloorMultiple.String())

	rec = do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestExportQuote(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		query       string
		contentType string
		filename    string
		contains    string
	}{
		{"tests=TSH,FERRITIN&format=csv", "text/csv", "quote.csv", "ANCHOR,FERRITIN,41.00"},
		{"tests=TSH&tests=FERRITIN&format=text", "text/plain; charset=utf-8", "quote.txt", "FINAL QUOTE: TSH + FERRITIN"},
		{"preset=iron+panel", "text/plain; charset=utf-8", "quote.txt", "FINAL QUOTE: IRON + FERRITIN"},
		{"tests=TSH&format=xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "quote.xlsx", "PK"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, "/api/quotes/export?"+tt.query, "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			assert.Equal(t, "attachment; filename="+tt.filename, rec.Header().Get("Content-Disposition"))
			assert.Contains(t, rec.Body.String(), tt.contains)
		})
	}
}

func TestExportQuote_Errors(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		query  string
		status int
	}{
		{"format=csv", http.StatusBadRequest},
		{"tests=TSH&format=pdf", http.StatusBadRequest},
		{"tests=TSH&profile=nope", http.StatusNotFound},
		{"preset=nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		rec := do(t, h, http.MethodGet, "/api/quotes/export?"+tt.query, "")
		assert.Equal(t, tt.status, rec.Code, tt.query)
		assert.Contains(t, rec.Body.String(), `"error"`, tt.query)
	}
}

func TestDashboard(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "Select tests or a preset")
	assert.Contains(t, body, `value="HARMONY"`)
	assert.Contains(t, body, "Thyroid Panel")

	rec = do(t, h, http.MethodGet, "/?preset=Thyroid+Panel", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, "Quote: TSH + FT3 + FT4")
	assert.Contains(t, body, `value="FT3" checked`)
	assert.Contains(t, body, "Q3 &#39;26 (300 reqs)")
	assert.Contains(t, body, "Gross Margin")

	rec = do(t, h, http.MethodGet, "/?tests=TSH&tests=FERRITIN&profile=console", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = rec.Body.String()
	assert.Contains(t, body, "$64.50")
	assert.Contains(t, body, "Rev Share")
}

func TestDashboard_UnknownSelectionRendersError(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/?preset=Nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `role="alert"`)
	assert.Contains(t, rec.Body.String(), "preset &#34;Nope&#34; not found")

	rec = do(t, h, http.MethodGet, "/?profile=nope&tests=TSH", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSelection(t *testing.T) {
	c, err := catalog.Default()
	require.NoError(t, err)
	srv, err := newServer(c, "dashboard", zerolog.Nop())
	require.NoError(t, err)

	tests, err := srv.selection("lipid panel", []string{"tsh, vit d", "CHOL", ""})
	require.NoError(t, err)
	assert.Equal(t, []string{"CHOL", "HDL", "TRIG", "TSH", "VIT_D"}, tests)

	tests, err = srv.selection("", nil)
	require.NoError(t, err)
	assert.Empty(t, tests)
}
