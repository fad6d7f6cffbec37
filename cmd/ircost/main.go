package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/google/uuid"
	"github.com/mrsinham/ircost/cmd/ircost/wizard"
	"github.com/mrsinham/ircost/internal/api"
	"github.com/mrsinham/ircost/internal/catalog"
	"github.com/mrsinham/ircost/internal/config"
	"github.com/mrsinham/ircost/internal/logging"
	"github.com/mrsinham/ircost/internal/report"
	"github.com/mrsinham/ircost/internal/session"
	"github.com/mrsinham/ircost/internal/tables"
	"github.com/mrsinham/ircost/internal/util"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// version is set at build time via -ldflags
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run dispatches a subcommand and returns the process exit code: 0 on
// success, 1 on runtime errors, 2 on usage errors.
func run(args []string, stdout, stderr io.Writer) int {
	cmd := "wizard"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	if len(args) > 0 && cmd == "wizard" {
		switch args[0] {
		case "--version", "-v":
			cmd = "version"
		case "--help", "-h":
			cmd = "help"
		}
	}

	switch cmd {
	case "wizard":
		return runWizard(args, stdout, stderr)
	case "serve":
		return runServe(args, stdout, stderr)
	case "report":
		return runReport(args, stdout, stderr)
	case "catalog":
		return runCatalog(args, stdout, stderr)
	case "version":
		fmt.Fprintf(stdout, "ircost %s\n", version)
		return 0
	case "help":
		printHelp(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "Error: unknown command %q\n\n", cmd)
		printUsage(stderr)
		return 2
	}
}

// commonFlags are accepted by every subcommand that loads reference data.
type commonFlags struct {
	config   string
	envFile  string
	catalog  string
	sheet    string
	tables   string
	logLevel string
	logFile  string
}

func newFlagSet(name string, stderr io.Writer) (*pflag.FlagSet, *commonFlags) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)

	c := &commonFlags{}
	fs.StringVar(&c.config, "config", "", "Load configuration from YAML file")
	fs.StringVar(&c.envFile, "env-file", "", "Load environment variables from this file (default: ./.env if present)")
	fs.StringVar(&c.catalog, "catalog", "", "Equipment price list workbook (.xlsx)")
	fs.StringVar(&c.sheet, "sheet", "", "Worksheet holding the price list (default: first sheet)")
	fs.StringVar(&c.tables, "tables", "", "Reference tables YAML (default: built-in tables)")
	fs.StringVar(&c.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	return fs, c
}

// env is the loaded reference data shared by the subcommands.
type env struct {
	cfg     *config.Config
	tables  *tables.Tables
	catalog *catalog.Catalog
	logger  *zap.Logger
}

// loadConfig resolves the configuration: .env file, YAML file and IRCOST_*
// variables, then flags.
func loadConfig(c *commonFlags) (*config.Config, error) {
	var envFiles []string
	if c.envFile != "" {
		envFiles = append(envFiles, c.envFile)
	}
	if err := config.LoadEnvFile(envFiles...); err != nil {
		return nil, err
	}

	cfg, err := config.Load(c.config)
	if err != nil {
		return nil, err
	}

	if c.catalog != "" {
		cfg.Catalog.Path = c.catalog
	}
	if c.sheet != "" {
		cfg.Catalog.Sheet = c.sheet
	}
	if c.tables != "" {
		cfg.Tables.Path = c.tables
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	if c.logFile != "" {
		cfg.Log.File = c.logFile
	}
	return cfg, nil
}

func loadTables(cfg *config.Config) (*tables.Tables, error) {
	if cfg.Tables.Path == "" {
		return tables.Default()
	}
	return tables.Load(cfg.Tables.Path)
}

// loadEnv loads configuration and reference data. Any failure here is a
// startup error: nothing is shown before it is fixed.
func loadEnv(c *commonFlags, tui bool) (*env, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	var logger *zap.Logger
	if tui {
		logger, err = logging.ForTUI(cfg.Log)
	} else {
		logger, err = logging.New(cfg.Log)
	}
	if err != nil {
		return nil, err
	}

	tb, err := loadTables(cfg)
	if err != nil {
		logger.Error("loading reference tables", zap.String("path", cfg.Tables.Path), zap.Error(err))
		return nil, err
	}

	cat, err := catalog.LoadFile(cfg.Catalog.Path, cfg.Catalog.Columns, tb.Schemes)
	if err != nil {
		logger.Error("loading catalog", zap.String("path", cfg.Catalog.Path), zap.Error(err))
		return nil, err
	}
	logger.Info("catalog loaded",
		zap.String("path", cfg.Catalog.Path),
		zap.Int("items", cat.Len()),
		zap.Int("schemes", len(tb.Schemes)))

	return &env{cfg: cfg, tables: tb, catalog: cat, logger: logger}, nil
}

func parseFlags(fs *pflag.FlagSet, args []string, stderr io.Writer) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0, false
		}
		return 2, false
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "Error: unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		return 2, false
	}
	return 0, true
}

func fail(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}

// runWizard starts the interactive wizard.
func runWizard(args []string, stdout, stderr io.Writer) int {
	fs, common := newFlagSet("wizard", stderr)
	from := fs.String("from", "", "Resume a session saved to YAML")
	output := fs.String("output", "", "Default report path (default: summary.<format>)")
	format := fs.String("format", "", "Default report format: pdf, txt, png, dcm")
	fs.StringVar(&common.logFile, "log-file", "", "Write logs to this file (the wizard never logs to the terminal)")
	if code, ok := parseFlags(fs, args, stderr); !ok {
		return code
	}

	e, err := loadEnv(common, true)
	if err != nil {
		return fail(stderr, err)
	}
	defer func() { _ = e.logger.Sync() }()

	reportOpts, err := e.cfg.ReportOptions()
	if err != nil {
		return fail(stderr, err)
	}

	s := session.New(uuid.NewString(), e.catalog, e.tables, e.cfg.SessionOptions())
	if *from != "" {
		f, err := wizard.LoadSessionFile(*from)
		if err != nil {
			return fail(stderr, err)
		}
		if err := f.Apply(s); err != nil {
			return fail(stderr, fmt.Errorf("resuming %s: %w", *from, err))
		}
		e.logger.Info("session resumed", zap.String("path", *from), zap.Stringer("step", s.Step()))
	}

	f := e.cfg.Report.Format
	if *format != "" {
		f = *format
	}
	written, err := wizard.Run(s, wizard.Options{
		Layout:        e.cfg.Layout(),
		Report:        reportOpts,
		Format:        f,
		ReportPath:    *output,
		RequireFields: e.cfg.Wizard.RequireFields,
		Logger:        e.logger,
	})
	if err != nil {
		return fail(stderr, err)
	}
	if written != "" {
		fmt.Fprintf(stdout, "✓ Report written to %s\n", written)
	}
	return 0
}

// runServe starts the HTTP front end and stops it on SIGINT or SIGTERM.
func runServe(args []string, stdout, stderr io.Writer) int {
	fs, common := newFlagSet("serve", stderr)
	port := fs.Int("port", 0, "Listen port (default: server.port, 8080)")
	if code, ok := parseFlags(fs, args, stderr); !ok {
		return code
	}

	e, err := loadEnv(common, false)
	if err != nil {
		return fail(stderr, err)
	}
	defer func() { _ = e.logger.Sync() }()
	if *port != 0 {
		e.cfg.Server.Port = *port
	}

	server, err := api.NewServer(e.cfg, e.catalog, e.tables, e.logger)
	if err != nil {
		return fail(stderr, err)
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", e.cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		e.logger.Info("ircost API listening", zap.Int("port", e.cfg.Server.Port))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		e.logger.Error("HTTP server error", zap.Error(err))
		return fail(stderr, err)
	case <-quit:
	}

	e.logger.Info("shutting down")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		e.logger.Error("HTTP server shutdown error", zap.Error(err))
		return 1
	}

	fmt.Fprintln(stdout, "ircost stopped")
	return 0
}

// runReport renders a saved session without the wizard.
func runReport(args []string, stdout, stderr io.Writer) int {
	fs, common := newFlagSet("report", stderr)
	from := fs.String("from", "", "Saved session YAML (required)")
	format := fs.String("format", "", "Report format: pdf, txt, png, dcm (default: report.format)")
	output := fs.String("output", "", "Output file, or - for stdout (default: summary.<ext>)")
	tagFlags := fs.StringArray("tag", nil, "Set DICOM tag: 'TagName=Value' (repeatable)")
	if code, ok := parseFlags(fs, args, stderr); !ok {
		return code
	}
	if *from == "" {
		fmt.Fprintf(stderr, "Error: --from is required\n")
		return 2
	}

	e, err := loadEnv(common, false)
	if err != nil {
		return fail(stderr, err)
	}
	defer func() { _ = e.logger.Sync() }()

	opts, err := e.cfg.ReportOptions()
	if err != nil {
		return fail(stderr, err)
	}
	extra, err := util.ParseTagFlags(*tagFlags)
	if err != nil {
		return fail(stderr, err)
	}
	opts.Tags = append(opts.Tags, extra...)

	f := e.cfg.Report.Format
	if *format != "" {
		f = *format
	}
	backend, err := report.Lookup(f, opts)
	if err != nil {
		return fail(stderr, err)
	}

	sf, err := wizard.LoadSessionFile(*from)
	if err != nil {
		return fail(stderr, err)
	}
	// The saved data is rendered as is, whatever page it was saved on.
	sf.Step = session.StepReportDownload.String()

	s := session.New(uuid.NewString(), e.catalog, e.tables, e.cfg.SessionOptions())
	if err := sf.Apply(s); err != nil {
		return fail(stderr, fmt.Errorf("loading %s: %w", *from, err))
	}
	doc, err := s.Report(e.cfg.Layout())
	if err != nil {
		return fail(stderr, err)
	}

	if *output == "-" {
		if err := backend.Render(stdout, doc); err != nil {
			return fail(stderr, err)
		}
		return 0
	}

	path := *output
	if path == "" {
		path = report.Filename(backend)
	}
	if err := report.WriteFile(path, backend, doc); err != nil {
		return fail(stderr, err)
	}
	e.logger.Info("report written", zap.String("path", path), zap.String("format", backend.Name()))

	sum, _ := s.Summary()
	layout := e.cfg.Layout()
	fmt.Fprintf(stdout, "✓ Report written to %s\n", path)
	fmt.Fprintf(stdout, "  Total Cost: %s\n", report.FormatAmount(sum.TotalCost, layout))
	fmt.Fprintf(stdout, "  Total Reimbursement: %s\n", report.FormatAmount(sum.TotalReimbursement, layout))
	fmt.Fprintf(stdout, "  Out-of-pocket Cost: %s\n", report.FormatAmount(sum.OutOfPocket, layout))
	return 0
}

// runCatalog prints the loaded price list, or writes a workbook.
func runCatalog(args []string, stdout, stderr io.Writer) int {
	fs, common := newFlagSet("catalog", stderr)
	export := fs.String("export", "", "Write the loaded catalog to this .xlsx file")
	template := fs.String("template", "", "Write an empty price list template to this .xlsx file and exit")
	if code, ok := parseFlags(fs, args, stderr); !ok {
		return code
	}

	if *template != "" {
		cfg, err := loadConfig(common)
		if err != nil {
			return fail(stderr, err)
		}
		tb, err := loadTables(cfg)
		if err != nil {
			return fail(stderr, err)
		}
		if err := writeWorkbook(*template, nil, cfg.Catalog.Columns, tb.Schemes); err != nil {
			return fail(stderr, err)
		}
		fmt.Fprintf(stdout, "✓ Template written to %s\n", *template)
		return 0
	}

	e, err := loadEnv(common, false)
	if err != nil {
		return fail(stderr, err)
	}
	defer func() { _ = e.logger.Sync() }()

	if *export != "" {
		if err := writeWorkbook(*export, e.catalog, e.cfg.Catalog.Columns, e.tables.Schemes); err != nil {
			return fail(stderr, err)
		}
		fmt.Fprintf(stdout, "✓ Catalog written to %s\n", *export)
		return 0
	}

	fmt.Fprintln(stdout, catalogTable(e.catalog, e.tables, e.cfg.Layout()))
	fmt.Fprintf(stdout, "%d items\n", e.catalog.Len())
	return 0
}

func writeWorkbook(path string, cat *catalog.Catalog, cols catalog.Columns, schemes []tables.Scheme) error {
	data, err := catalog.Export(cat, cols, schemes)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

// catalogTable renders one row per item: cost, quantity limit and the unit
// reimbursement under each scheme.
func catalogTable(cat *catalog.Catalog, tb *tables.Tables, layout report.Format) string {
	headers := []string{"Equipment", "Cost", "Max"}
	for _, sc := range tb.Schemes {
		headers = append(headers, string(sc.ID))
	}

	rows := make([][]string, 0, cat.Len())
	for _, it := range cat.Items() {
		row := []string{it.Name, report.FormatAmount(it.Cost, layout), fmt.Sprint(tb.Limits.Max(it.Name))}
		for _, sc := range tb.Schemes {
			r, _ := it.ReimbursementFor(sc.ID)
			row = append(row, report.FormatAmount(r, layout))
		}
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)

	var legend strings.Builder
	for _, sc := range tb.Schemes {
		fmt.Fprintf(&legend, "\n  %s: %s", sc.ID, sc.Label)
	}
	return t.String() + "\nSchemes:" + legend.String()
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: ircost [command] [options]")
	fmt.Fprintln(w, "Commands: wizard (default), serve, report, catalog, version, help")
	fmt.Fprintln(w, "Use 'ircost help' for details.")
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "ircost - Interventional procedure cost calculator")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  ircost [wizard] [options]     Walk through the cost wizard in the terminal")
	fmt.Fprintln(w, "  ircost serve [options]        Serve the wizard over HTTP")
	fmt.Fprintln(w, "  ircost report --from FILE     Render a saved session without the wizard")
	fmt.Fprintln(w, "  ircost catalog [options]      Print the equipment price list")
	fmt.Fprintln(w, "  ircost version                Show version")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Common options:")
	fmt.Fprintln(w, "  --config <FILE>       Load configuration from YAML file")
	fmt.Fprintln(w, "  --env-file <FILE>     Load environment variables (default: ./.env if present)")
	fmt.Fprintf(w, "  --catalog <FILE>      Equipment price list workbook (default: %s)\n", config.DefaultCatalogPath)
	fmt.Fprintln(w, "  --sheet <NAME>        Worksheet holding the price list (default: first sheet)")
	fmt.Fprintln(w, "  --tables <FILE>       Reference tables YAML: schemes, operations, limits")
	fmt.Fprintln(w, "  --log-level <LEVEL>   debug, info, warn, error")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Wizard options:")
	fmt.Fprintln(w, "  --from <FILE>         Resume a session saved from the summary page")
	fmt.Fprintln(w, "  --format <FMT>        Preselected report format: pdf, txt, png, dcm")
	fmt.Fprintln(w, "  --output <FILE>       Preselected report path")
	fmt.Fprintln(w, "  --log-file <FILE>     Write logs to a file")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve options:")
	fmt.Fprintln(w, "  --port <N>            Listen port (default: 8080)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Report options:")
	fmt.Fprintln(w, "  --from <FILE>         Saved session YAML (required)")
	fmt.Fprintln(w, "  --format <FMT>        pdf, txt, png, dcm (default: pdf)")
	fmt.Fprintln(w, "  --output <FILE>       Output file, or - for stdout (default: summary.<ext>)")
	fmt.Fprintln(w, "  --tag <NAME=VALUE>    Set a DICOM attribute of the dcm report (repeatable)")
	fmt.Fprintln(w, "                        Example: --tag \"InstitutionName=Neuro IR Unit\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Catalog options:")
	fmt.Fprintln(w, "  --export <FILE>       Write the loaded catalog to an .xlsx file")
	fmt.Fprintln(w, "  --template <FILE>     Write an empty price list template")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  IRCOST_CATALOG, IRCOST_CATALOG_SHEET, IRCOST_TABLES, IRCOST_REPORT_FORMAT,")
	fmt.Fprintln(w, "  IRCOST_FONT, IRCOST_PORT, IRCOST_REQUIRE_FIELDS, IRCOST_ALLOWED_ORIGINS,")
	fmt.Fprintln(w, "  IRCOST_LOG_LEVEL, IRCOST_LOG_FORMAT, IRCOST_LOG_FILE, IRCOST_SESSION_IDLE_TIMEOUT")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  # Start the wizard on a price list")
	fmt.Fprintln(w, "  ircost --catalog equipment_costs.xlsx")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  # Render a saved session as a DICOM Secondary Capture")
	fmt.Fprintln(w, "  ircost report --from ircost-session.yaml --format dcm --tag \"InstitutionName=Neuro IR Unit\"")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "  # Serve the wizard on port 9000")
	fmt.Fprintln(w, "  ircost serve --port 9000")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Thai text:")
	fmt.Fprintln(w, "  The PDF report needs a UTF-8 TrueType font (report.font_path or IRCOST_FONT)")
	fmt.Fprintln(w, "  to print Thai names; the built-in font only covers Latin text.")
}
