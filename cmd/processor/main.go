// Command processor classifies marketing export files, aggregates them into
// a dashboard and writes the result as JSON, an XLSX workbook or a directory
// of CSV tables.
//
//	processor -in exports/ -cpm 2000 -lang ja -out dashboard.json -xlsx report.xlsx
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"insightreport/internal/config"
	"insightreport/internal/exporter"
	"insightreport/internal/infrastructure"
	"insightreport/internal/services"
	"insightreport/internal/session"
	"insightreport/internal/store"
	"insightreport/pkg/contracts/domain"
)

// inputExtensions are the file types picked up from an -in directory
var inputExtensions = map[string]bool{
	".csv":  true,
	".tsv":  true,
	".txt":  true,
	".xlsx": true,
	".xlsm": true,
}

type options struct {
	inputs     []string
	cpm        string
	lang       string
	out        string
	xlsx       string
	csvDir     string
	configPath string
	verbose    bool
}

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		slog.Error("Processing failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("processor", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		opts options
		in   string
	)
	fs.StringVar(&in, "in", "", "comma separated input files or directories")
	fs.StringVar(&opts.cpm, "cpm", "", "cost per thousand impressions (default from config)")
	fs.StringVar(&opts.lang, "lang", "", "insight language, en or ja (default from config)")
	fs.StringVar(&opts.out, "out", "-", "dashboard JSON output path, - for stdout, empty to skip")
	fs.StringVar(&opts.xlsx, "xlsx", "", "write an XLSX workbook to this path")
	fs.StringVar(&opts.csvDir, "csv", "", "write one CSV per series into this directory")
	fs.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	fs.BoolVar(&opts.verbose, "v", false, "debug logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	for _, p := range strings.Split(in, ",") {
		if p = strings.TrimSpace(p); p != "" {
			opts.inputs = append(opts.inputs, p)
		}
	}
	opts.inputs = append(opts.inputs, fs.Args()...)
	if len(opts.inputs) == 0 {
		fs.Usage()
		return nil, errors.New("no input files: use -in or pass paths as arguments")
	}
	return &opts, nil
}

func loadConfig(opts *options) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if opts.configPath != "" {
		cfg, err = config.LoadFile(opts.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if opts.lang != "" {
		cfg.Insights.Language = opts.lang
	}
	if opts.verbose {
		cfg.Logging.Level = "debug"
	}
	cfg.Logging.Output = "console"
	return cfg, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger := infrastructure.NewLogger(cfg.Logging, stderr)

	paths, err := collectInputs(opts.inputs)
	if err != nil {
		return err
	}
	uploads, err := readUploads(paths)
	if err != nil {
		return err
	}
	logger.InfoContext(ctx, "Processing input files", slog.Int("files", len(uploads)))

	cfg.Session.MaxFiles = len(uploads)
	sessions := session.NewManager(
		services.NewDecoder(services.BuildOptions(cfg.Analytics)),
		session.WithMaxConcurrentDecodes(cfg.Session.MaxConcurrentDecodes),
		session.WithLogger(logger),
	)
	svc := services.NewReportService(cfg, sessions, store.NewMemoryStore(), services.WithLogger(logger))

	dashboard, err := svc.Analyze(ctx, "", uploads, opts.cpm)
	if err != nil {
		return err
	}
	logSources(ctx, logger, dashboard.Sources)

	return writeOutputs(ctx, logger, opts, dashboard, stdout)
}

// collectInputs expands directories into their report files, sorted by name
func collectInputs(inputs []string) ([]string, error) {
	var paths []string
	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			return nil, fmt.Errorf("input %s: %w", in, err)
		}
		if !info.IsDir() {
			paths = append(paths, in)
			continue
		}

		entries, err := os.ReadDir(in)
		if err != nil {
			return nil, fmt.Errorf("read directory %s: %w", in, err)
		}
		var found []string
		for _, e := range entries {
			if e.IsDir() || strings.HasPrefix(e.Name(), "~$") {
				continue
			}
			if inputExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
				found = append(found, filepath.Join(in, e.Name()))
			}
		}
		sort.Strings(found)
		paths = append(paths, found...)
	}
	if len(paths) == 0 {
		return nil, errors.New("no report files found in the given inputs")
	}
	return paths, nil
}

func readUploads(paths []string) ([]services.Upload, error) {
	uploads := make([]services.Upload, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		uploads = append(uploads, services.Upload{Name: filepath.Base(p), Data: data})
	}
	return uploads, nil
}

func logSources(ctx context.Context, logger *slog.Logger, sources []domain.SourceSummary) {
	for _, s := range sources {
		if s.Error != "" {
			logger.WarnContext(ctx, "File could not be decoded",
				slog.String("file", s.Name),
				slog.String("error", s.Error))
			continue
		}
		logger.InfoContext(ctx, "File classified",
			slog.String("file", s.Name),
			slog.String("type", s.Type.String()),
			slog.Int("rows", s.Rows))
	}
}

func writeOutputs(ctx context.Context, logger *slog.Logger, opts *options, d *domain.Dashboard, stdout io.Writer) error {
	switch opts.out {
	case "":
	case "-":
		if err := writeJSON(stdout, d); err != nil {
			return err
		}
	default:
		f, err := os.Create(opts.out)
		if err != nil {
			return fmt.Errorf("create %s: %w", opts.out, err)
		}
		if err := writeJSON(f, d); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("close %s: %w", opts.out, err)
		}
		logger.InfoContext(ctx, "Wrote dashboard JSON", slog.String("path", opts.out))
	}

	if opts.xlsx != "" {
		if err := exporter.SaveXLSX(opts.xlsx, d); err != nil {
			return err
		}
		logger.InfoContext(ctx, "Wrote XLSX workbook", slog.String("path", opts.xlsx))
	}

	if opts.csvDir != "" {
		if _, err := exporter.WriteCSVDir(opts.csvDir, d, exporter.WriteOptions{BOMPrefix: true}); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(w io.Writer, d *domain.Dashboard) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode dashboard: %w", err)
	}
	return nil
}
