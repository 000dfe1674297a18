// internal/report/renderer.go
package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"art-of-prompting/internal/common/config"
	apperrors "art-of-prompting/internal/common/errors"
)

// Renderer names accepted in report.renderer.
const (
	RendererWkhtmltopdf = "wkhtmltopdf"
	RendererChromium    = "chromium"
	RendererNone        = "none"
)

// Renderer converts an HTML document to PDF.
type Renderer interface {
	Name() string
	Render(ctx context.Context, html []byte) ([]byte, error)
}

// NewRenderer picks the PDF renderer from configuration.
func NewRenderer(cfg config.ReportConfig) (Renderer, error) {
	switch cfg.Renderer {
	case RendererWkhtmltopdf, "":
		return NewWkhtmltopdfRenderer(cfg.Binary), nil
	case RendererChromium:
		return NewChromiumRenderer(cfg.Binary), nil
	case RendererNone:
		return NoneRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown PDF renderer %q", cfg.Renderer)
	}
}

// NoneRenderer is used when PDF export is switched off.
type NoneRenderer struct{}

func (NoneRenderer) Name() string { return RendererNone }

func (NoneRenderer) Render(context.Context, []byte) ([]byte, error) {
	return nil, apperrors.NewReportRenderError("pdf", errors.New("PDF generation is disabled on this server")).
		WithMetadata("renderer", RendererNone)
}

// WkhtmltopdfRenderer pipes the document through the wkhtmltopdf binary.
type WkhtmltopdfRenderer struct {
	binary string
}

// NewWkhtmltopdfRenderer runs binary, or wkhtmltopdf from PATH when empty.
func NewWkhtmltopdfRenderer(binary string) *WkhtmltopdfRenderer {
	if binary == "" {
		binary = RendererWkhtmltopdf
	}
	return &WkhtmltopdfRenderer{binary: binary}
}

func (r *WkhtmltopdfRenderer) Name() string { return RendererWkhtmltopdf }

func (r *WkhtmltopdfRenderer) Render(ctx context.Context, html []byte) ([]byte, error) {
	path, err := exec.LookPath(r.binary)
	if err != nil {
		return nil, apperrors.NewReportRenderError("pdf",
			fmt.Errorf("PDF generation not available on server (%s missing)", r.binary)).
			WithMetadata("renderer", RendererWkhtmltopdf)
	}

	cmd := exec.CommandContext(ctx, path, "--quiet", "--encoding", "utf-8", "-", "-")
	cmd.Stdin = bytes.NewReader(html)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return nil, fmt.Errorf("%s failed: %w", RendererWkhtmltopdf, err)
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("%s produced no output", RendererWkhtmltopdf)
	}
	return stdout.Bytes(), nil
}
