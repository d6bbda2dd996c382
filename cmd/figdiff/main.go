// Command figdiff compares UI components drawn in Figma with a local
// rendering of the same nodes and writes an HTML diff report.
//
// Usage:
//
//	figdiff -file <key>                      # one run, report in ./diffs next to the binary
//	figdiff -config figdiff.yaml -out out/   # settings from YAML, flags override
//	figdiff -file <key> -serve :8080         # run once, then serve reports
//	figdiff -file <key> -schedule "@hourly"  # repeat until interrupted
//	figdiff -file <key> -mcp                 # MCP tools over stdio
//
// The Figma token is read from FIGMA_ACCESS_TOKEN.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/figdiff/figdiff"
	"github.com/hazyhaar/figdiff/figma"
)

// exitDiff is returned with -fail-on-diff when any node differs.
const exitDiff = 2

type options struct {
	configPath string
	fileKey    string
	version    string
	selectBy   string
	prefix     string
	outDir     string
	dbPath     string
	serve      string
	schedule   string
	mcp        bool
	failOnDiff bool
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "path to figdiff.yaml")
	flag.StringVar(&o.fileKey, "file", "", "Figma file key")
	flag.StringVar(&o.version, "version", "", "pin a Figma file version")
	flag.StringVar(&o.selectBy, "select", "", "node selection: top or tagged")
	flag.StringVar(&o.prefix, "prefix", "", "name prefix for -select tagged (default Test)")
	flag.StringVar(&o.outDir, "out", "", "report directory (default diffs/ next to the binary)")
	flag.StringVar(&o.dbPath, "db", "", "run history database (empty disables history)")
	flag.StringVar(&o.serve, "serve", "", "serve reports on this address after the run")
	flag.StringVar(&o.schedule, "schedule", "", "repeat runs on a cron expression")
	flag.BoolVar(&o.mcp, "mcp", false, "serve MCP tools over stdio instead of running")
	flag.BoolVar(&o.failOnDiff, "fail-on-diff", false, "exit with status 2 when any node differs")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code, err := run(ctx, logger, o, os.Stdout)
	stop()
	if err != nil {
		logger.Error("figdiff: fatal", "error", err)
		fmt.Fprintln(os.Stderr, "figdiff:", err)
	}
	os.Exit(code)
}

func run(ctx context.Context, logger *slog.Logger, o options, stdout io.Writer) (int, error) {
	token, err := figdiff.Token()
	if err != nil {
		return 1, err
	}

	cfg, err := loadConfig(o)
	if err != nil {
		return 1, err
	}
	if err := cfg.Validate(); err != nil {
		return 1, err
	}

	clientOpts := []figma.Option{
		figma.WithHTTPClient(&http.Client{Timeout: cfg.API.Timeout}),
		figma.WithLogger(logger),
	}
	if cfg.API.BaseURL != "" {
		clientOpts = append(clientOpts, figma.WithBaseURL(cfg.API.BaseURL))
	}
	api := figma.NewClient(token, clientOpts...)

	opts := []figdiff.Option{figdiff.WithLogger(logger)}
	if cfg.DBPath != "" {
		st, err := figdiff.OpenStore(cfg.DBPath)
		if err != nil {
			return 1, err
		}
		defer st.Close()
		opts = append(opts, figdiff.WithStore(st))
	}
	runner := figdiff.New(cfg, api, opts...)

	if o.mcp {
		srv := mcp.NewServer(&mcp.Implementation{Name: "figdiff", Version: "1.0.0"}, nil)
		runner.RegisterMCP(srv)
		logger.Info("figdiff: mcp server on stdio")
		return exitStatus(srv.Run(ctx, &mcp.StdioTransport{}))
	}

	if cfg.Schedule != "" {
		sched, err := figdiff.NewScheduler(runner, cfg.Schedule, logger)
		if err != nil {
			return 1, err
		}
		if o.serve != "" {
			go serve(ctx, logger, runner, o.serve)
		}
		return exitStatus(sched.Run(ctx))
	}

	res, err := runner.Run(ctx)
	if err != nil {
		return 1, err
	}
	printSummary(stdout, res.Summary())

	if o.serve != "" {
		if err := serve(ctx, logger, runner, o.serve); err != nil {
			return 1, err
		}
	}
	if o.failOnDiff && res.Failed() {
		return exitDiff, nil
	}
	return 0, nil
}

// exitStatus maps the error ending a long-running mode to an exit status.
// Interruption by signal is a clean exit.
func exitStatus(err error) (int, error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return 0, nil
	}
	return 1, err
}

// loadConfig reads the YAML file, if any, then applies flags.
func loadConfig(o options) (*figdiff.Config, error) {
	cfg := figdiff.DefaultConfig()
	if o.configPath != "" {
		var err error
		if cfg, err = figdiff.LoadConfigFile(o.configPath); err != nil {
			return nil, err
		}
	}
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.FileKey, o.fileKey)
	set(&cfg.Version, o.version)
	set(&cfg.Select, o.selectBy)
	set(&cfg.TagPrefix, o.prefix)
	set(&cfg.OutDir, o.outDir)
	set(&cfg.DBPath, o.dbPath)
	set(&cfg.Schedule, o.schedule)
	return cfg, nil
}

func serve(ctx context.Context, logger *slog.Logger, runner *figdiff.Runner, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           figdiff.NewServer(runner, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutCtx)
	}()
	logger.Info("figdiff: serving reports", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("figdiff: serve: %w", err)
	}
	return nil
}
