// internal/report/chromium.go
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	apperrors "art-of-prompting/internal/common/errors"
)

// ChromiumRenderer prints the document to PDF with headless Chromium.
// target is either a browser executable or a ws:// DevTools URL of a
// running instance.
type ChromiumRenderer struct {
	target string
}

// NewChromiumRenderer launches target as a browser binary, or connects to it when it is a ws:// URL.
func NewChromiumRenderer(target string) *ChromiumRenderer {
	return &ChromiumRenderer{target: target}
}

func (r *ChromiumRenderer) Name() string { return RendererChromium }

func (r *ChromiumRenderer) Render(ctx context.Context, html []byte) ([]byte, error) {
	controlURL, cleanup, err := r.controlURL(ctx)
	if err != nil {
		return nil, apperrors.NewReportRenderError("pdf", err).WithMetadata("renderer", RendererChromium)
	}
	defer cleanup()

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("connect to chromium: %w", err)
	}
	defer browser.Close()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	defer page.Close()

	if err := page.SetDocumentContent(string(html)); err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}

	stream, err := page.PDF(&proto.PagePrintToPDF{PrintBackground: true})
	if err != nil {
		return nil, fmt.Errorf("print to pdf: %w", err)
	}
	body, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("read pdf stream: %w", err)
	}
	if len(body) == 0 {
		return nil, errors.New("chromium produced no output")
	}
	return body, nil
}

// controlURL launches a local browser unless target already points at one.
func (r *ChromiumRenderer) controlURL(ctx context.Context) (string, func(), error) {
	if strings.HasPrefix(r.target, "ws://") || strings.HasPrefix(r.target, "wss://") {
		return r.target, func() {}, nil
	}

	bin := r.target
	if bin == "" {
		found, ok := launcher.LookPath()
		if !ok {
			return "", nil, errors.New("PDF generation not available on server (chromium missing)")
		}
		bin = found
	} else if path, err := exec.LookPath(bin); err == nil {
		bin = path
	} else {
		return "", nil, fmt.Errorf("PDF generation not available on server (%s missing)", bin)
	}

	l := launcher.New().Context(ctx).Bin(bin).Headless(true)
	u, err := l.Launch()
	if err != nil {
		l.Cleanup()
		return "", nil, fmt.Errorf("launch chromium: %w", err)
	}
	return u, func() {
		l.Kill()
		l.Cleanup()
	}, nil
}
