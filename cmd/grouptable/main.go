package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/soderasen-au/go-common/loggers"
	"github.com/soderasen-au/go-common/util"
	"golang.org/x/sync/errgroup"

	"github.com/soderasen-au/go-grouptable/grouping"
	"github.com/soderasen-au/go-grouptable/report"
)

var (
	configFile = flag.String("config", "grouptable.yaml", "Path to YAML configuration file")
	help       = flag.Bool("h", false, "Show help message")
)

func init() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage of %s:\n", "grouptable")
		fmt.Fprintf(flag.CommandLine.Output(), "\nGroups CSV tables by their layout and prints them with group headers, footers and totals.\n\n")
		flag.PrintDefaults()
		fmt.Fprintf(flag.CommandLine.Output(), "\nConfig File Structure:\n")
		fmt.Fprintf(flag.CommandLine.Output(), "  system:           # Application settings\n")
		fmt.Fprintf(flag.CommandLine.Output(), "    log_folder:     # Where to write logs\n")
		fmt.Fprintf(flag.CommandLine.Output(), "    output_folder:  # Where to write reports\n")
		fmt.Fprintf(flag.CommandLine.Output(), "    metrics_file:   # Optional Prometheus textfile\n")
		fmt.Fprintf(flag.CommandLine.Output(), "    audit_file:     # Optional CSV audit log\n")
		fmt.Fprintf(flag.CommandLine.Output(), "  tables:           # One report per table\n")
		fmt.Fprintf(flag.CommandLine.Output(), "    - name:         # Report file name\n")
		fmt.Fprintf(flag.CommandLine.Output(), "      source:       # CSV file with a header row\n")
		fmt.Fprintf(flag.CommandLine.Output(), "      format:       # xlsx, csv, tsv or html\n")
		fmt.Fprintf(flag.CommandLine.Output(), "      layout:       # Columns, grouping and summaries\n\n")
	}
}

// median is registered as a custom aggregator for summary specs.
func median(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	m := sorted[len(sorted)/2]
	if len(sorted)%2 == 0 {
		m = (sorted[len(sorted)/2-1] + m) / 2
	}
	return grouping.FormatNumber(m, 2, grouping.DEFAULT_DECIMAL_SEPARATOR, grouping.DEFAULT_THOUSAND_SEPARATOR)
}

type runner struct {
	sys      SystemConfig
	registry *grouping.Registry
	metrics  *grouping.Metrics
	audit    *report.AuditLog
	logger   *zerolog.Logger
}

// runTable loads, groups and prints one table.
func (rn *runner) runTable(ctx context.Context, tc TableConfig) (*report.ReportResult, *util.Result) {
	logger := rn.logger.With().Str("table", tc.Name).Logger()
	if err := ctx.Err(); err != nil {
		return nil, util.Error("Context", err)
	}

	snapshot, res := tc.Layout.LoadCSVFile(tc.Name, tc.Source, tc.Comma(), &logger)
	if res != nil {
		return nil, res.LogWith(&logger, "LoadCSVFile")
	}

	engine := grouping.NewEngine(snapshot.Options, rn.registry, &logger)
	engine.Metrics = rn.metrics
	tbl := engine.Process(snapshot.Rows)
	groups := 0
	for _, level := range tbl.Groups {
		groups += len(level)
	}
	logger.Info().Msgf("%d rows grouped into %d runs over %d levels", len(tbl.Rows), groups, tbl.Levels)

	printer := report.NewBuiltInReportPrinter()
	r := report.Report{
		ID:           util.Ptr(tc.Name),
		Name:         util.Ptr(tc.Name),
		Title:        tc.Title,
		Table:        tbl,
		Labels:       snapshot.Labels,
		OutputFormat: util.Ptr(report.ReportFormat(tc.Format)),
		OutputFolder: util.Ptr(rn.sys.OutputFolder),
		OutputOffset: tc.OutputOffset,
		LogFolder:    util.Ptr(rn.sys.LogFolder),
		Logger:       &logger,
	}
	if res := printer.Print(r); res != nil {
		return nil, res.LogWith(&logger, "Print")
	}
	result, res := printer.GetReportResult(tc.Name)
	if res != nil {
		return nil, res.LogWith(&logger, "GetReportResult")
	}

	if rn.audit != nil {
		if res := rn.audit.Record(report.NewAuditRecord(tc.Name, result, groups)); res != nil {
			logger.Warn().Msgf("audit: %s", res.Error())
		}
	}
	return result, nil
}

// runAll prints every table concurrently and stops scheduling on the first failure.
func (rn *runner) runAll(ctx context.Context, tables []TableConfig) ([]*report.ReportResult, error) {
	results := make([]*report.ReportResult, len(tables))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(util.Max(1, rn.sys.Concurrency))
	for i, tc := range tables {
		i, tc := i, tc
		g.Go(func() error {
			result, res := rn.runTable(gctx, tc)
			if res != nil {
				return res.With(tc.Name)
			}
			results[i] = result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func main() {
	flag.Parse()

	if *help {
		flag.Usage()
		return
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	logFile := filepath.Join(cfg.System.LogFolder, "grouptable.log")
	logger, err := loggers.GetLogger(logFile)
	if err != nil {
		fmt.Printf("Error opening log: %v\n", err)
		os.Exit(1)
	}
	logger.Info().
		Str("config", *configFile).
		Int("tables", len(cfg.Tables)).
		Msg("starting grouptable")

	promReg := prometheus.NewRegistry()
	rn := &runner{
		sys:      cfg.System,
		registry: grouping.NewRegistry().Register("median", median),
		metrics:  grouping.NewMetrics(promReg),
		logger:   logger,
	}
	if cfg.System.AuditFile != "" {
		audit, res := report.NewAuditLog(cfg.System.AuditFile)
		if res != nil {
			logger.Err(res).Msg("NewAuditLog")
			fmt.Printf("Error: %v\n", res)
			os.Exit(1)
		}
		defer audit.Close()
		rn.audit = audit
	}

	results, err := rn.runAll(context.Background(), cfg.Tables)
	for _, result := range results {
		if result != nil && result.ReportFile != nil {
			fmt.Printf("Report generated: %s\n", *result.ReportFile)
		}
	}

	if cfg.System.MetricsFile != "" {
		if werr := prometheus.WriteToTextfile(cfg.System.MetricsFile, promReg); werr != nil {
			logger.Err(werr).Msg("WriteToTextfile")
		}
	}

	if err != nil {
		logger.Err(err).Msg("runAll")
		fmt.Printf("Error: %v\n", err)
		if rn.audit != nil {
			rn.audit.Close()
		}
		os.Exit(1)
	}
	logger.Info().Msg("done")
}
