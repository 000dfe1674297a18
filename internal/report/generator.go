// Package report renders a comparison into a downloadable document.
package report

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"art-of-prompting/internal/common/config"
	apperrors "art-of-prompting/internal/common/errors"
	"art-of-prompting/internal/common/logger"
	"art-of-prompting/internal/common/metrics"
	"art-of-prompting/internal/models"
)

const (
	contentTypeText = "text/plain; charset=utf-8"
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypePDF  = "application/pdf"

	timestampLayout = "2006-01-02 15:04:05 UTC"
)

// Generator turns a report request into a document.
type Generator struct {
	title    string
	prefix   string
	renderer Renderer
	timeout  time.Duration
	logger   logger.Logger
}

// NewGenerator returns a Generator using cfg for titles and filenames and renderer for PDFs.
func NewGenerator(cfg config.ReportConfig, renderer Renderer, log logger.Logger) *Generator {
	return &Generator{
		title:    cfg.Title,
		prefix:   cfg.FilenamePrefix,
		renderer: renderer,
		timeout:  config.GetDuration(cfg.Timeout),
		logger:   log.With(map[string]interface{}{"component": "report"}),
	}
}

// Generate validates the request and renders it in the requested format.
func (g *Generator) Generate(ctx context.Context, req models.ReportRequest) (*models.ReportDocument, error) {
	format, err := models.ParseReportFormat(req.Format)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if !hasOutput(req.Results) {
		return nil, apperrors.NewValidationError("no outputs to include in report")
	}

	doc, err := g.render(ctx, format, req)
	metrics.ReportsTotal.WithLabelValues(string(format), metrics.Outcome(err)).Inc()
	if err != nil {
		g.logger.Warn("report rendering failed", map[string]interface{}{
			"format":    string(format),
			"errorCode": string(apperrors.CodeOf(err)),
			"error":     err.Error(),
		})
		return nil, err
	}

	g.logger.Info("report rendered", map[string]interface{}{
		"format": string(format),
		"bytes":  len(doc.Body),
	})
	return doc, nil
}

func (g *Generator) render(ctx context.Context, format models.ReportFormat, req models.ReportRequest) (*models.ReportDocument, error) {
	v := g.buildView(req)

	switch format {
	case models.ReportFormatText:
		body, err := renderText(v)
		if err != nil {
			return nil, apperrors.NewReportRenderError(string(format), err)
		}
		return g.document(format, contentTypeText, body), nil

	case models.ReportFormatHTML:
		body, err := renderHTML(v)
		if err != nil {
			return nil, apperrors.NewReportRenderError(string(format), err)
		}
		return g.document(format, contentTypeHTML, body), nil

	case models.ReportFormatPDF:
		html, err := renderHTML(v)
		if err != nil {
			return nil, apperrors.NewReportRenderError(string(format), err)
		}
		if g.renderer == nil {
			return nil, apperrors.NewReportRenderError(string(format), fmt.Errorf("no PDF renderer configured"))
		}

		if g.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}
		body, err := g.renderer.Render(ctx, html)
		if err != nil {
			if _, ok := apperrors.AsStandardError(err); ok {
				return nil, err
			}
			return nil, apperrors.NewReportRenderError(string(format), err).
				WithMetadata("renderer", g.renderer.Name())
		}
		return g.document(format, contentTypePDF, body), nil
	}

	return nil, apperrors.NewValidationError(fmt.Sprintf("unsupported report format %q", format))
}

func (g *Generator) document(format models.ReportFormat, contentType string, body []byte) *models.ReportDocument {
	return &models.ReportDocument{
		Filename:    Filename(g.prefix, format),
		ContentType: contentType,
		Body:        body,
	}
}

func (g *Generator) buildView(req models.ReportRequest) view {
	v := view{
		Title:  g.title,
		Prompt: strings.TrimSpace(req.Prompt),
	}
	if req.GeneratedAt != nil {
		v.GeneratedAt = req.GeneratedAt.UTC().Format(timestampLayout)
	}
	if v.Prompt == "" {
		v.Prompt = "(not provided)"
	}

	for _, r := range req.Results {
		name := r.Label
		if name == "" {
			name = r.Model
		}
		s := sectionView{Heading: name + " Output"}
		switch {
		case r.Error != nil:
			s.Failed = true
			s.ErrorCode = strings.TrimSpace(r.Error.Code)
			s.ErrorMessage = r.Error.Message
			if s.ErrorCode == "" && strings.TrimSpace(s.ErrorMessage) == "" {
				s.ErrorMessage = "(failed)"
			}
		case strings.TrimSpace(r.Text) == "":
			s.Text = "(no output)"
		default:
			s.Text = r.Text
		}
		v.Sections = append(v.Sections, s)
	}
	return v
}

func hasOutput(results []models.ModelResult) bool {
	for _, r := range results {
		if r.Error != nil || strings.TrimSpace(r.Text) != "" {
			return true
		}
	}
	return false
}

// Filename returns the download name for a format.
func Filename(prefix string, format models.ReportFormat) string {
	if prefix == "" {
		prefix = "art_of_prompting_report"
	}
	return prefix + "." + string(format)
}

// renderText executes the plain-text template.
func renderText(v view) ([]byte, error) {
	var buf bytes.Buffer
	if err := textTemplate.Execute(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// renderHTML executes the self-contained HTML template.
func renderHTML(v view) ([]byte, error) {
	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
