package report

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"art-of-prompting/internal/common/config"
	apperrors "art-of-prompting/internal/common/errors"
	"art-of-prompting/internal/common/logger"
	"art-of-prompting/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() config.ReportConfig {
	return config.ReportConfig{
		Title:          "Art Of Prompting - Report",
		FilenamePrefix: "art_of_prompting_report",
		Renderer:       RendererNone,
		Timeout:        5000,
	}
}

func sampleRequest(format string) models.ReportRequest {
	return models.ReportRequest{
		Format: format,
		Prompt: "Role: Chef\n\nTask: Plan a menu",
		Results: []models.ModelResult{
			{Model: "mistral:latest", Label: "Mistral", Text: "Soup & <bread>"},
			{Model: "qwen3:4b", Label: "Qwen", Error: &models.ResultError{
				Code:    "MODEL_UNAVAILABLE",
				Message: "Model is unavailable: connection refused",
			}},
		},
	}
}

type stubRenderer struct {
	body []byte
	err  error
	got  []byte
}

func (s *stubRenderer) Name() string { return "stub" }

func (s *stubRenderer) Render(_ context.Context, html []byte) ([]byte, error) {
	s.got = html
	return s.body, s.err
}

// ==========================
// Core Functionality Tests
// ==========================

func TestGenerate_Text(t *testing.T) {
	g := NewGenerator(createTestConfig(), NoneRenderer{}, logger.NewNoOpLogger())

	doc, err := g.Generate(context.Background(), sampleRequest("txt"))
	require.NoError(t, err)

	assert.Equal(t, "art_of_prompting_report.txt", doc.Filename)
	assert.Equal(t, "text/plain; charset=utf-8", doc.ContentType)

	expected := "Art Of Prompting - Report\n" +
		"\n=== Prompt ===\nRole: Chef\n\nTask: Plan a menu\n" +
		"\n=== Mistral Output ===\nSoup & <bread>\n" +
		"\n=== Qwen Output ===\n[MODEL_UNAVAILABLE] Model is unavailable: connection refused\n"
	assert.Equal(t, expected, string(doc.Body))
}

func TestGenerate_TextWithTimestamp(t *testing.T) {
	g := NewGenerator(createTestConfig(), NoneRenderer{}, logger.NewNoOpLogger())
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

	req := sampleRequest("text")
	req.GeneratedAt = &at

	doc, err := g.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(doc.Body),
		"Art Of Prompting - Report\nGenerated: 2026-03-01 09:30:00 UTC\n\n=== Prompt ==="))
}

func TestGenerate_HTMLEscapesValues(t *testing.T) {
	g := NewGenerator(createTestConfig(), NoneRenderer{}, logger.NewNoOpLogger())

	req := sampleRequest("html")
	req.Results[0].Label = "<script>alert(1)</script>"

	doc, err := g.Generate(context.Background(), req)
	require.NoError(t, err)

	body := string(doc.Body)
	assert.Equal(t, "art_of_prompting_report.html", doc.Filename)
	assert.Equal(t, "text/html; charset=utf-8", doc.ContentType)
	assert.True(t, strings.HasPrefix(body, "<!doctype html>"))
	assert.Contains(t, body, "<style>")
	assert.Contains(t, body, "Soup &amp; &lt;bread&gt;")
	assert.Contains(t, body, "&lt;script&gt;alert(1)&lt;/script&gt; Output")
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, `class="box error"`)
	assert.NotContains(t, body, "Generated:")
}

func TestGenerate_ErrorWithoutCode(t *testing.T) {
	g := NewGenerator(createTestConfig(), NoneRenderer{}, logger.NewNoOpLogger())

	results := []models.ModelResult{
		{Model: "a", Text: "ok"},
		{Model: "b", Error: &models.ResultError{Message: "connection refused"}},
		{Model: "c", Error: &models.ResultError{}},
	}

	t.Run("txt", func(t *testing.T) {
		doc, err := g.Generate(context.Background(), models.ReportRequest{Format: "txt", Prompt: "p", Results: results})
		require.NoError(t, err)

		body := string(doc.Body)
		assert.Contains(t, body, "=== b Output ===\nconnection refused\n")
		assert.Contains(t, body, "=== c Output ===\n(failed)\n")
		assert.NotContains(t, body, "[]")
	})

	t.Run("html", func(t *testing.T) {
		doc, err := g.Generate(context.Background(), models.ReportRequest{Format: "html", Prompt: "p", Results: results})
		require.NoError(t, err)

		body := string(doc.Body)
		assert.Contains(t, body, `<div class="box error"><pre>connection refused</pre></div>`)
		assert.Contains(t, body, `<div class="box error"><pre>(failed)</pre></div>`)
		assert.Equal(t, 2, strings.Count(body, `class="box error"`))
	})
}

func TestGenerate_Deterministic(t *testing.T) {
	g := NewGenerator(createTestConfig(), NoneRenderer{}, logger.NewNoOpLogger())

	for _, format := range []string{"txt", "html"} {
		t.Run(format, func(t *testing.T) {
			first, err := g.Generate(context.Background(), sampleRequest(format))
			require.NoError(t, err)
			second, err := g.Generate(context.Background(), sampleRequest(format))
			require.NoError(t, err)
			assert.Equal(t, first.Body, second.Body)
		})
	}
}

func TestGenerate_PDFUsesRenderer(t *testing.T) {
	stub := &stubRenderer{body: []byte("%PDF-1.4 stub")}
	g := NewGenerator(createTestConfig(), stub, logger.NewNoOpLogger())

	doc, err := g.Generate(context.Background(), sampleRequest("pdf"))
	require.NoError(t, err)
	assert.Equal(t, "art_of_prompting_report.pdf", doc.Filename)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, []byte("%PDF-1.4 stub"), doc.Body)
	assert.Contains(t, string(stub.got), "<h2>Mistral Output</h2>")
}

func TestGenerate_CustomPrefix(t *testing.T) {
	cfg := createTestConfig()
	cfg.FilenamePrefix = "comparison"
	g := NewGenerator(cfg, NoneRenderer{}, logger.NewNoOpLogger())

	doc, err := g.Generate(context.Background(), sampleRequest("txt"))
	require.NoError(t, err)
	assert.Equal(t, "comparison.txt", doc.Filename)
}

// ==========================
// Error Handling Tests
// ==========================

func TestGenerate_ValidationErrors(t *testing.T) {
	g := NewGenerator(createTestConfig(), NoneRenderer{}, logger.NewNoOpLogger())

	tests := []struct {
		name string
		req  models.ReportRequest
	}{
		{
			name: "unknown format",
			req:  sampleRequest("docx"),
		},
		{
			name: "no results",
			req:  models.ReportRequest{Format: "txt", Prompt: "p"},
		},
		{
			name: "only blank results",
			req: models.ReportRequest{Format: "txt", Results: []models.ModelResult{
				{Model: "a", Text: "  "},
				{Model: "b"},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.Generate(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationError), "got %v", err)
		})
	}
}

func TestGenerate_PDFRenderFailures(t *testing.T) {
	tests := []struct {
		name     string
		renderer Renderer
	}{
		{name: "disabled", renderer: NoneRenderer{}},
		{name: "missing wkhtmltopdf", renderer: NewWkhtmltopdfRenderer("/nonexistent/wkhtmltopdf")},
		{name: "missing chromium", renderer: NewChromiumRenderer("/nonexistent/chromium")},
		{name: "renderer error", renderer: &stubRenderer{err: errors.New("exit status 1")}},
		{name: "nil renderer", renderer: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(createTestConfig(), tt.renderer, logger.NewNoOpLogger())
			_, err := g.Generate(context.Background(), sampleRequest("pdf"))
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeReportRenderError), "got %v", err)
		})
	}
}

// ==========================
// Renderer Tests
// ==========================

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not executable on windows")
	}
	path := filepath.Join(t.TempDir(), "fake-wkhtmltopdf")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestWkhtmltopdfRenderer_PipesDocument(t *testing.T) {
	// Echo stdin back behind a PDF marker so the test can see the input.
	bin := writeScript(t, "printf '%%PDF-1.4\\n'\ncat\n")

	out, err := NewWkhtmltopdfRenderer(bin).Render(context.Background(), []byte("<p>hi</p>"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4\n<p>hi</p>", string(out))
}

func TestWkhtmltopdfRenderer_ReportsStderr(t *testing.T) {
	bin := writeScript(t, "cat >/dev/null\necho 'cannot connect to X server' >&2\nexit 1\n")

	_, err := NewWkhtmltopdfRenderer(bin).Render(context.Background(), []byte("<p>hi</p>"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot connect to X server")
}

func TestWkhtmltopdfRenderer_EmptyOutput(t *testing.T) {
	bin := writeScript(t, "cat >/dev/null\n")

	_, err := NewWkhtmltopdfRenderer(bin).Render(context.Background(), []byte("<p>hi</p>"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no output")
}

func TestNewRenderer(t *testing.T) {
	tests := []struct {
		renderer string
		wantName string
		wantErr  bool
	}{
		{renderer: "", wantName: RendererWkhtmltopdf},
		{renderer: "wkhtmltopdf", wantName: RendererWkhtmltopdf},
		{renderer: "chromium", wantName: RendererChromium},
		{renderer: "none", wantName: RendererNone},
		{renderer: "prince", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.renderer, func(t *testing.T) {
			r, err := NewRenderer(config.ReportConfig{Renderer: tt.renderer})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, r.Name())
		})
	}
}
