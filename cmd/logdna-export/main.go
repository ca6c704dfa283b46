package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/nicktill/logdna-export/pkg/config"
	"github.com/nicktill/logdna-export/pkg/export"
	"github.com/nicktill/logdna-export/pkg/logdna"
	"github.com/nicktill/logdna-export/pkg/logging"
)

// Set by compiler via -ldflags
var version = "dev"

// Process exit codes
const (
	exitOK          = 0
	exitError       = 1
	exitInterrupted = 130
)

// longAliases are the flags the original tool accepted with a single dash.
var longAliases = map[string]bool{
	"start_date":  true,
	"end_date":    true,
	"delta":       true,
	"query":       true,
	"service_key": true,
	"help":        true,
}

// exitCodeError carries a process exit code out of a cobra command.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string { return e.err.Error() }
func (e *exitCodeError) Unwrap() error { return e.err }

// app holds everything a run touches outside the process, so tests can
// swap it out.
type app struct {
	stdout     io.Writer
	stderr     io.Writer
	now        func() time.Time
	getenv     func(string) string
	logger     *logrus.Logger
	newFetcher func(endpoint, serviceKey string) (logdna.Fetcher, error)
}

func defaultApp() *app {
	return &app{
		stdout: os.Stdout,
		stderr: os.Stderr,
		now:    time.Now,
		getenv: os.Getenv,
		logger: logrus.StandardLogger(),
		newFetcher: func(endpoint, serviceKey string) (logdna.Fetcher, error) {
			client, err := logdna.NewClient(endpoint, serviceKey)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
	}
}

func main() {
	logdna.Version = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := defaultApp().execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

// execute runs the CLI and maps the outcome to a process exit code.
func (a *app) execute(ctx context.Context, args []string) int {
	cmd := a.rootCommand()
	cmd.SetArgs(normalizeArgs(args))
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return exitOK
	}

	var coded *exitCodeError
	if errors.As(err, &coded) {
		if coded.code != exitOK && !errors.Is(err, config.ErrMissingCredential) {
			fmt.Fprintf(a.stderr, "Error: %v\n", err)
		}
		return coded.code
	}

	// Flag parsing errors and the like.
	fmt.Fprintf(a.stderr, "Error: %v\n", err)
	fmt.Fprintln(a.stderr, cmd.UsageString())
	return exitError
}

// normalizeArgs rewrites single-dash long flags (-start_date) into the
// double-dash form pflag expects. Anything after "--" is left alone.
func normalizeArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for i, arg := range args {
		if arg == "--" {
			out = append(out, args[i:]...)
			break
		}
		if strings.HasPrefix(arg, "-") && !strings.HasPrefix(arg, "--") && len(arg) > 2 {
			name := strings.TrimPrefix(arg, "-")
			if eq := strings.IndexByte(name, '='); eq >= 0 {
				name = name[:eq]
			}
			if longAliases[name] {
				arg = "-" + arg
			}
		}
		out = append(out, arg)
	}
	return out
}

func (a *app) rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logdna-export",
		Short: "Export LogDNA logs to disk in fixed-size time windows",
		Long: `Export logs from the LogDNA export API over a time range.

The range is split into windows of --delta milliseconds. Each window is
fetched with one request and written verbatim to its own file:

  logdna_export_for_<start_ms>_to_<end_ms>_ts<run_ms>/<from_ms>_to_<to_ms>.jsonl

Dates accept RFC 3339 (2025-11-19T12:00:00Z), YYYY-MM-DDTHH:MM:SS and
YYYY-MM-DD (both UTC), or milliseconds since the Unix epoch. Single-dash
long flags (-start_date, -service_key, ...) are accepted as well.

A window that fails is logged and skipped; re-run over its range to fill it.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExport(cmd)
		},
	}

	flags := cmd.Flags()
	flags.StringP("start_date", "s", "", "start date for export (default: 1 day ago)")
	flags.StringP("end_date", "e", "", "end date for export (default: now)")
	flags.StringP("delta", "d", "", "window size in milliseconds (default: 86400000, 1 day)")
	flags.StringP("query", "q", "", "LogDNA search query (default: none)")
	flags.StringP("service_key", "k", "", "service key for the LogDNA API (required, or $"+config.EnvServiceKey+")")
	flags.String("endpoint", "", "export API URL (default: "+config.DefaultEndpoint+", or $"+config.EnvEndpoint+")")
	flags.StringP("output-dir", "o", "", "directory to create the run directory in (default: current directory)")
	flags.StringP("config", "c", "", "YAML config file")
	flags.BoolP("verbose", "v", false, "verbose output")
	flags.String("log-file", "", "also write logs to this file (rotated)")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "logdna-export %s\n", version)
		},
	})

	return cmd
}

func (a *app) runExport(cmd *cobra.Command) error {
	flags := cmd.Flags()

	verbose, _ := flags.GetBool("verbose")
	logFile, _ := flags.GetString("log-file")
	closer := logging.Setup(a.logger, logging.Options{Verbose: verbose, LogFile: logFile})
	defer closer.Close()

	raw := rawFromFlags(flags)

	var file *config.File
	if path, _ := flags.GetString("config"); path != "" {
		f, err := config.LoadFile(path)
		if err != nil {
			return &exitCodeError{code: exitError, err: err}
		}
		file = f
	}

	cfg, err := config.Resolve(raw.Merge(file, a.getenv), a.now())
	if err != nil {
		if errors.Is(err, config.ErrMissingCredential) {
			fmt.Fprintln(a.stdout, cmd.UsageString())
			fmt.Fprintln(a.stdout, "ERROR: Missing required arguments!")
		}
		return &exitCodeError{code: exitError, err: err}
	}

	fetcher, err := a.newFetcher(cfg.Endpoint, cfg.ServiceKey)
	if err != nil {
		return &exitCodeError{code: exitError, err: &config.ConfigurationError{Err: err}}
	}

	a.logger.WithFields(logrus.Fields{
		"endpoint": cfg.Endpoint,
		"query":    cfg.Query,
		"delta_ms": cfg.WindowSize.Milliseconds(),
	}).Debug("⚙️  Resolved configuration")

	exporter := export.NewExporter(fetcher, export.WithClock(a.now), export.WithLogger(a.logger))
	summary, err := exporter.Run(cmd.Context(), cfg)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			a.logger.Warn("🛑 Export interrupted")
			logSummary(a.logger, summary)
			return &exitCodeError{code: exitInterrupted, err: err}
		}
		return &exitCodeError{code: exitError, err: err}
	}

	logSummary(a.logger, summary)
	fmt.Fprintln(a.stdout, "Finished Export...")
	return nil
}

func rawFromFlags(flags *pflag.FlagSet) config.Raw {
	get := func(name string) string {
		v, _ := flags.GetString(name)
		return v
	}
	return config.Raw{
		Start:      get("start_date"),
		End:        get("end_date"),
		Delta:      get("delta"),
		Query:      get("query"),
		ServiceKey: get("service_key"),
		Endpoint:   get("endpoint"),
		OutputDir:  get("output-dir"),
	}
}

func logSummary(logger *logrus.Logger, summary *export.Summary) {
	if summary == nil {
		return
	}
	logger.WithFields(logrus.Fields{
		"dir":      summary.Dir,
		"files":    summary.FilesWritten(),
		"failed":   len(summary.Failed()),
		"bytes":    humanize.Bytes(uint64(summary.BytesWritten())),
		"duration": summary.Duration().Round(time.Millisecond).String(),
	}).Info("📊 Export summary")
}
