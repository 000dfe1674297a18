package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"art-of-prompting/internal/common/config"
	apperrors "art-of-prompting/internal/common/errors"
	"art-of-prompting/internal/common/logger"
	"art-of-prompting/internal/models"
	"art-of-prompting/internal/prompt"
	"art-of-prompting/internal/report"
)

// ==========================
// Test Doubles
// ==========================

type fakeStore struct {
	roles map[string]string
	err   error
}

func (s *fakeStore) GetContext(_ context.Context, title string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	text, ok := s.roles[title]
	if !ok {
		return "", apperrors.NewRoleNotFoundError(title)
	}
	return text, nil
}

func (s *fakeStore) ListRoles(context.Context) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []string{"Chef", "Data Scientist"}, nil
}

type fakeComparer struct {
	gotPrompt string
	result    *models.Comparison
	err       error
}

func (f *fakeComparer) Compare(_ context.Context, p string) (*models.Comparison, error) {
	f.gotPrompt = p
	if f.err != nil {
		return nil, f.err
	}
	out := *f.result
	out.Prompt = p
	return &out, nil
}

func (f *fakeComparer) Models() []models.ModelInfo {
	return []models.ModelInfo{
		{ID: "mistral:latest", Label: "Mistral"},
		{ID: "qwen3:4b", Label: "Qwen"},
	}
}

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fakeLister struct {
	names []string
	err   error
}

func (l fakeLister) ListModels(context.Context) ([]string, error) { return l.names, l.err }

type testEnv struct {
	server   *Server
	store    *fakeStore
	comparer *fakeComparer
}

func newTestEnv(t *testing.T, mutate func(*Dependencies)) *testEnv {
	t.Helper()

	store := &fakeStore{roles: map[string]string{
		"Data Scientist": "Analyzes data to find patterns",
		"Chef":           "Cooks",
	}}
	comparer := &fakeComparer{result: &models.Comparison{
		ID:     "cmp-1",
		Status: models.ComparisonPartial,
		Results: []models.ModelResult{
			{Model: "mistral:latest", Label: "Mistral", Text: "Dear team..."},
			{Model: "qwen3:4b", Label: "Qwen", Error: &models.ResultError{Code: "MODEL_UNAVAILABLE", Message: "Model is unavailable"}},
		},
	}}

	reportCfg := config.ReportConfig{Title: "Art Of Prompting - Report", FilenamePrefix: "art_of_prompting_report"}
	deps := Dependencies{
		Roles:    store,
		Composer: prompt.NewComposer(""),
		Comparer: comparer,
		Reports:  report.NewGenerator(reportCfg, report.NoneRenderer{}, logger.NewNoOpLogger()),
		Database: fakePinger{},
		Formats:  []string{"Email", "Code"},
		Styles:   []string{"Casual"},
		Logger:   logger.NewTestLogger(t),
	}
	if mutate != nil {
		mutate(&deps)
	}

	srv := NewServer(NewHandler(deps), WithLogger(zaptest.NewLogger(t)))
	return &testEnv{server: srv, store: store, comparer: comparer}
}

func (e *testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.server.Echo().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apperrors.Response {
	t.Helper()
	var resp apperrors.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp
}

// ==========================
// Role Endpoints
// ==========================

func TestListRoles(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/api/roles", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var roles []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &roles))
	assert.Equal(t, []string{"Chef", "Data Scientist"}, roles)
}

func TestListRoles_DatabaseFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.err = apperrors.NewQueryExecutionFailedError("list_roles", errors.New("no such table"))

	rec := env.do(http.MethodGet, "/api/roles", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, apperrors.ErrCodeQueryExecutionFailed, decodeError(t, rec).Code)
}

func TestGetContext(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantCode   apperrors.ErrorCode
		wantBody   ContextResponse
	}{
		{
			name:       "found",
			target:     "/api/context?role=Data+Scientist",
			wantStatus: http.StatusOK,
			wantBody:   ContextResponse{Role: "Data Scientist", Context: "Analyzes data to find patterns"},
		},
		{
			name:       "not found",
			target:     "/api/context?role=Astronaut",
			wantStatus: http.StatusNotFound,
			wantCode:   apperrors.ErrCodeRoleNotFound,
		},
		{
			name:       "missing parameter",
			target:     "/api/context",
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.ErrCodeValidationError,
		},
		{
			name:       "blank parameter",
			target:     "/api/context?role=%20%20",
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.ErrCodeValidationError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodGet, tt.target, "")
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
				return
			}
			var got ContextResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.wantBody, got)
		})
	}
}

// ==========================
// Prompt and Generate
// ==========================

func TestPreviewPrompt(t *testing.T) {
	env := newTestEnv(t, nil)

	body := `{"role":"Data Scientist","context":"Analyzes data to find patterns","format":"Email","task":"Summarize quarterly sales","style":"  "}`
	rec := env.do(http.MethodPost, "/api/prompt", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got models.PromptResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Role: Data Scientist\n\nContext: Analyzes data to find patterns\n\nFormat: Email\n\nTask: Summarize quarterly sales", got.Prompt)
}

func TestGenerate(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/api/generate", `{"role":"Chef","task":"Plan a menu"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "Role: Chef\n\nTask: Plan a menu", env.comparer.gotPrompt)

	var got models.Comparison
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, models.ComparisonPartial, got.Status)
	require.Len(t, got.Results, 2)
	assert.Equal(t, "Dear team...", got.Results[0].Text)
	require.NotNil(t, got.Results[1].Error)
	assert.Equal(t, "MODEL_UNAVAILABLE", got.Results[1].Error.Code)
}

func TestGenerate_Validation(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{name: "empty body", body: ""},
		{name: "malformed json", body: `{"role":`},
		{name: "wrong type", body: `{"role":42,"task":"x"}`},
		{name: "missing task", body: `{"role":"Chef"}`},
		{name: "blank role", body: `{"role":"   ","task":"Plan"}`},
		{name: "oversized field", body: `{"role":"Chef","task":"` + strings.Repeat("a", maxFieldLength+1) + `"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env.comparer.gotPrompt = ""
			rec := env.do(http.MethodPost, "/api/generate", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, apperrors.ErrCodeValidationError, decodeError(t, rec).Code)
			assert.Empty(t, env.comparer.gotPrompt, "models must not be called")
		})
	}
}

// ==========================
// Report
// ==========================

func TestReport(t *testing.T) {
	env := newTestEnv(t, nil)

	body := `{"format":"txt","prompt":"Role: Chef","results":[` +
		`{"model":"mistral:latest","label":"Mistral","text":"Soup","durationMs":120},` +
		`{"model":"qwen3:4b","label":"Qwen","text":"","error":{"code":"MODEL_UNAVAILABLE","message":"down"}}]}`

	rec := env.do(http.MethodPost, "/api/report", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="art_of_prompting_report.txt"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "=== Mistral Output ===\nSoup")
	assert.Contains(t, rec.Body.String(), "[MODEL_UNAVAILABLE] down")
}

func TestReport_HTML(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodPost, "/api/report",
		`{"format":"html","prompt":"p","results":[{"model":"m","text":"<b>x</b>"}],"generatedAt":"2026-01-02T03:04:05Z"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, `attachment; filename="art_of_prompting_report.html"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "&lt;b&gt;x&lt;/b&gt;")
	assert.Contains(t, rec.Body.String(), "Generated: 2026-01-02 03:04:05 UTC")
}

func TestReport_Errors(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   apperrors.ErrorCode
	}{
		{
			name:       "pdf renderer unavailable",
			body:       `{"format":"pdf","results":[{"model":"m","text":"x"}]}`,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   apperrors.ErrCodeReportRenderError,
		},
		{
			name:       "unknown format",
			body:       `{"format":"docx","results":[{"model":"m","text":"x"}]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.ErrCodeValidationError,
		},
		{
			name:       "no results",
			body:       `{"format":"txt","results":[]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.ErrCodeValidationError,
		},
		{
			name:       "results without output",
			body:       `{"format":"txt","results":[{"model":"m","text":""}]}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   apperrors.ErrCodeValidationError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(http.MethodPost, "/api/report", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantCode, decodeError(t, rec).Code)
		})
	}
}

// ==========================
// Options, Health and Static
// ==========================

func TestGetOptions(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/api/options", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Options
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, []string{"Email", "Code"}, got.Formats)
	assert.Equal(t, []string{"Casual"}, got.Styles)
	assert.Equal(t, []string{"txt", "html", "pdf"}, got.ReportFormats)
	assert.Len(t, got.Models, 2)
}

func TestInferenceHealth(t *testing.T) {
	tests := []struct {
		name       string
		lister     ModelLister
		wantStatus string
	}{
		{name: "all installed", lister: fakeLister{names: []string{"qwen3:4b", "mistral:latest"}}, wantStatus: "ok"},
		{name: "one missing", lister: fakeLister{names: []string{"mistral:latest"}}, wantStatus: "degraded"},
		{name: "server down", lister: fakeLister{err: errors.New("connection refused")}, wantStatus: "unavailable"},
		{name: "no lister", lister: nil, wantStatus: "ok"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, func(d *Dependencies) { d.Inference = tt.lister })

			rec := env.do(http.MethodGet, "/api/health", "")
			require.Equal(t, http.StatusOK, rec.Code)

			var got HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Len(t, got.Models, 2)
		})
	}
}

func TestReady(t *testing.T) {
	env := newTestEnv(t, nil)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/ready", "").Code)

	down := newTestEnv(t, func(d *Dependencies) { d.Database = fakePinger{err: errors.New("dial tcp: refused")} })
	rec := down.do(http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, apperrors.ErrCodeDatabaseConnectionFailed, decodeError(t, rec).Code)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)

	env.do(http.MethodGet, "/api/roles", "")
	rec = env.do(http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "aop_http_requests_total")
}

func TestStaticFrontEnd(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "Art Of Prompting")

	rec = env.do(http.MethodGet, "/static/app.js", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/generate")
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apperrors.ErrorCode("NOT_FOUND"), decodeError(t, rec).Code)
}

func TestServer_Shutdown(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, env.server.Shutdown(ctx))
}
