// internal/importer/importer.go
package importer

import (
	"context"
	"time"

	"art-of-prompting/internal/common/logger"
	"art-of-prompting/internal/common/metrics"
	"art-of-prompting/internal/models"
)

// Writer persists role records.
type Writer interface {
	Upsert(ctx context.Context, records []models.RoleContext) (int, error)
	ReplaceAll(ctx context.Context, records []models.RoleContext) (int, error)
}

// CacheInvalidator drops cached lookups after an import.
type CacheInvalidator interface {
	Invalidate(ctx context.Context) (int, error)
}

type Options struct {
	File    string
	Sheet   string
	Replace bool
	DryRun  bool
}

// Summary reports what an import run did.
type Summary struct {
	Source      string        `json:"source"`
	Sheet       string        `json:"sheet,omitempty"`
	Rows        int           `json:"rows"`
	Skipped     int           `json:"skipped"`
	Duplicates  int           `json:"duplicates"`
	Written     int           `json:"written"`
	Replaced    bool          `json:"replaced"`
	DryRun      bool          `json:"dryRun"`
	Invalidated int           `json:"invalidated"`
	Duration    time.Duration `json:"duration"`
}

type Importer struct {
	writer Writer
	cache  CacheInvalidator
	logger logger.Logger
}

// New returns an Importer. cache may be nil.
func New(writer Writer, cache CacheInvalidator, log logger.Logger) *Importer {
	return &Importer{
		writer: writer,
		cache:  cache,
		logger: log.With(map[string]interface{}{"component": "importer"}),
	}
}

// Run reads the spreadsheet and writes its rows unless DryRun is set.
func (i *Importer) Run(ctx context.Context, opts Options) (*Summary, error) {
	start := time.Now()

	sheet, err := ReadFile(opts.File, opts.Sheet)
	if err != nil {
		i.logger.Error("failed to read spreadsheet", map[string]interface{}{
			"file":  opts.File,
			"error": err,
		})
		return nil, err
	}

	summary := &Summary{
		Source:     sheet.Source,
		Sheet:      sheet.SheetName,
		Rows:       sheet.Rows,
		Skipped:    sheet.Skipped,
		Duplicates: sheet.Duplicates,
		Replaced:   opts.Replace,
		DryRun:     opts.DryRun,
	}

	i.logger.Info("spreadsheet parsed", map[string]interface{}{
		"file":       sheet.Source,
		"sheet":      sheet.SheetName,
		"rows":       sheet.Rows,
		"records":    len(sheet.Records),
		"skipped":    sheet.Skipped,
		"duplicates": sheet.Duplicates,
	})

	if opts.DryRun {
		summary.Written = len(sheet.Records)
		summary.Duration = time.Since(start)
		return summary, nil
	}

	if opts.Replace {
		summary.Written, err = i.writer.ReplaceAll(ctx, sheet.Records)
	} else {
		summary.Written, err = i.writer.Upsert(ctx, sheet.Records)
	}
	if err != nil {
		return nil, err
	}
	metrics.RolesImportedTotal.Add(float64(summary.Written))

	if i.cache != nil {
		n, err := i.cache.Invalidate(ctx)
		if err != nil {
			i.logger.Warn("cache invalidation failed", map[string]interface{}{"error": err})
		}
		summary.Invalidated = n
	}

	summary.Duration = time.Since(start)
	i.logger.Info("import completed", map[string]interface{}{
		"written":     summary.Written,
		"replaced":    opts.Replace,
		"invalidated": summary.Invalidated,
		"durationMs":  summary.Duration.Milliseconds(),
	})
	return summary, nil
}
