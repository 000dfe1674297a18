// cmd/tools/role-importer/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"art-of-prompting/internal/common/config"
	"art-of-prompting/internal/common/logger"
	"art-of-prompting/internal/importer"
	"art-of-prompting/internal/rolestore"
)

type rootOptions struct {
	configFile string
	verbose    bool
	asJSON     bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "role-importer",
		Short:         "Load role titles and descriptions into the role table",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "config file (default configs/config.yaml)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print the summary as JSON")

	root.AddCommand(newImportCmd(opts), newValidateCmd(opts))
	return root
}

func newImportCmd(root *rootOptions) *cobra.Command {
	var run importer.Options

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import roles from an .xlsx or .csv file",
		Long: `Reads the Title and Description columns and writes one row per title.
Existing titles are overwritten. With --replace every stored role is removed first.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := setup(root)
			if err != nil {
				return err
			}
			if run.File == "" {
				run.File = cfg.Importer.File
			}
			if run.Sheet == "" {
				run.Sheet = cfg.Importer.Sheet
			}
			if run.File == "" {
				return fmt.Errorf("--file is required")
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			var (
				writer importer.Writer
				cache  importer.CacheInvalidator
			)
			if !run.DryRun {
				backend, err := rolestore.OpenBackend(ctx, cfg, log)
				if err != nil {
					return err
				}
				defer backend.Close()
				writer = backend.Store
				if backend.Cache != nil {
					cache = backend
				}
			}

			summary, err := importer.New(writer, cache, log).Run(ctx, run)
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), summary, root.asJSON)
		},
	}

	cmd.Flags().StringVarP(&run.File, "file", "f", "", "spreadsheet to import (.xlsx or .csv)")
	cmd.Flags().StringVar(&run.Sheet, "sheet", "", "worksheet name (default first sheet)")
	cmd.Flags().BoolVar(&run.Replace, "replace", false, "delete every stored role before importing")
	cmd.Flags().BoolVar(&run.DryRun, "dry-run", false, "parse the file without writing")
	return cmd
}

func newValidateCmd(root *rootOptions) *cobra.Command {
	var file, sheet string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check that a spreadsheet can be imported",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				return fmt.Errorf("--file is required")
			}
			s, err := importer.ReadFile(file, sheet)
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), &importer.Summary{
				Source:     s.Source,
				Sheet:      s.SheetName,
				Rows:       s.Rows,
				Skipped:    s.Skipped,
				Duplicates: s.Duplicates,
				Written:    len(s.Records),
				DryRun:     true,
			}, root.asJSON)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "spreadsheet to check (.xlsx or .csv)")
	cmd.Flags().StringVar(&sheet, "sheet", "", "worksheet name (default first sheet)")
	return cmd
}

func setup(opts *rootOptions) (*config.Config, logger.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configFile != "" {
		cfg, err = config.LoadFromFile(opts.configFile)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	level := cfg.Logging.Level
	if opts.verbose {
		level = "debug"
	}
	// stdout carries the summary
	return cfg, logger.NewZapAdapter(logger.NewWithOutput(level, "console", "stderr")), nil
}

func printSummary(w io.Writer, s *importer.Summary, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	verb := "Imported"
	if s.DryRun {
		verb = "Would import"
	}
	fmt.Fprintf(w, "%s %d roles from %s", verb, s.Written, s.Source)
	if s.Sheet != "" {
		fmt.Fprintf(w, " (sheet %q)", s.Sheet)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  rows: %d, skipped (blank title): %d, duplicates: %d\n", s.Rows, s.Skipped, s.Duplicates)
	if s.Replaced && !s.DryRun {
		fmt.Fprintln(w, "  existing roles were replaced")
	}
	if s.Invalidated > 0 {
		fmt.Fprintf(w, "  cache entries cleared: %d\n", s.Invalidated)
	}
	return nil
}
