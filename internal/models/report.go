// internal/models/report.go
package models

import (
	"fmt"
	"strings"
	"time"
)

type ReportFormat string

const (
	ReportFormatText ReportFormat = "txt"
	ReportFormatHTML ReportFormat = "html"
	ReportFormatPDF  ReportFormat = "pdf"
)

// ReportFormats lists every supported report format in display order.
var ReportFormats = []ReportFormat{ReportFormatText, ReportFormatHTML, ReportFormatPDF}

// ParseReportFormat accepts the format names used by the download menu.
func ParseReportFormat(s string) (ReportFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "txt", "text":
		return ReportFormatText, nil
	case "html", "htm":
		return ReportFormatHTML, nil
	case "pdf":
		return ReportFormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported report format %q", s)
	}
}

// ReportRequest is the body of the report endpoint.
type ReportRequest struct {
	Format      string        `json:"format"`
	Prompt      string        `json:"prompt"`
	Results     []ModelResult `json:"results"`
	GeneratedAt *time.Time    `json:"generatedAt,omitempty"`
}

// ReportDocument is a rendered report ready to be downloaded.
type ReportDocument struct {
	Filename    string
	ContentType string
	Body        []byte
}
