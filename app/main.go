package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lysyi3m/memo-comb/app/api"
	"github.com/lysyi3m/memo-comb/app/cfg"
	"github.com/lysyi3m/memo-comb/app/database"
	"github.com/lysyi3m/memo-comb/app/export"
	"github.com/lysyi3m/memo-comb/app/fetcher"
	"github.com/lysyi3m/memo-comb/app/memo"
	"github.com/lysyi3m/memo-comb/app/metrics"
	"github.com/lysyi3m/memo-comb/app/notify"
	"github.com/lysyi3m/memo-comb/app/state"
	"github.com/lysyi3m/memo-comb/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if errors.Is(err, cfg.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting memo-comb", "version", appCfg.Version, "serve", appCfg.Serve, "timezone", appCfg.Location.String())

	if appCfg.Serve {
		err = serve(appCfg)
	} else {
		err = runOnce(appCfg)
	}

	if err != nil {
		slog.Error("memo-comb failed", "error", err)
		os.Exit(1)
	}
}

// app holds the collaborators shared by run and serve mode.
type app struct {
	cfg      *cfg.Cfg
	db       *database.DB
	memoRepo database.MemoRepository
	runRepo  database.RunRepository
	deps     tasks.ScanDeps
	metrics  *metrics.Metrics
}

func newApp(appCfg *cfg.Cfg) (*app, error) {
	baseURL, err := url.Parse(appCfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	taxonomy, err := memo.LoadTaxonomy(appCfg.TaxonomyFile)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: appCfg, metrics: metrics.New()}

	if appCfg.DBPath != "" {
		slog.Info("Opening archive", "path", appCfg.DBPath)
		db, err := database.NewConnection(appCfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open archive: %w", err)
		}
		a.db = db
		a.memoRepo = database.NewMemoRepository(db)
		a.runRepo = database.NewRunRepository(db)
	}

	a.deps = tasks.ScanDeps{
		Fetcher: fetcher.New(fetcher.Config{
			UserAgent: appCfg.UserAgent,
			Timeout:   appCfg.Timeout,
			Retries:   appCfg.Retries,
			Rate:      appCfg.Rate,
		}),
		Parser:     memo.NewParser(baseURL),
		Reader:     memo.NewDocumentReader(),
		Extractor:  memo.NewExtractor(),
		Classifier: memo.NewClassifier(taxonomy),
		Selector:   memo.NewSelector(),
		Filterer:   memo.NewFilterer(),
		Assembler:  memo.NewAssembler(),
		Store:      state.NewFileStore(appCfg.StatePath),
		Exporter:   export.NewWriter(appCfg.OutputDir),
		Notifiers:  notifiers(appCfg),
		Metrics:    a.metrics,
	}

	// Interface fields must stay nil, not typed nil, when there is no archive.
	if a.db != nil {
		a.deps.MemoRepo = a.memoRepo
		a.deps.RunRepo = a.runRepo
	}

	return a, nil
}

func (a *app) close() {
	if a.db != nil {
		a.db.Close()
	}
}

func (a *app) scanConfig() tasks.ScanConfig {
	return tasks.ScanConfig{
		ListingURL:   a.cfg.ListingURL,
		LookbackDays: a.cfg.SincePostedDays,
		Filter:       a.filterConfig(),
		Location:     a.cfg.Location,
		MetricsFile:  a.cfg.MetricsFile,
	}
}

func (a *app) filterConfig() memo.FilterConfig {
	return memo.FilterConfig{
		Include:              a.cfg.Include,
		ExcludePastEffective: a.cfg.ExcludePastEffective,
	}
}

func notifiers(appCfg *cfg.Cfg) []notify.Notifier {
	var result []notify.Notifier
	if appCfg.SlackWebhook != "" {
		result = append(result, notify.NewWebhookNotifier(appCfg.SlackWebhook))
	}
	if appCfg.SlackAPIEnabled() {
		result = append(result, notify.NewSlackNotifier(appCfg.SlackToken, appCfg.SlackChannel, appCfg.SlackUploadFiles))
	}
	return result
}

func runOnce(appCfg *cfg.Cfg) error {
	a, err := newApp(appCfg)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	task := tasks.NewScanMemosTask(a.deps, a.scanConfig())
	task.Start()

	if err := task.Execute(ctx); err != nil {
		return err
	}

	fmt.Println(task.LastResult.Summary)
	if files := task.LastResult.Artifacts.Files(); len(files) > 0 {
		slog.Info("Export written", "files", strings.Join(files, ", "))
	}

	return nil
}

func serve(appCfg *cfg.Cfg) error {
	if appCfg.DBPath == "" {
		return errors.New("serve mode requires --db-path")
	}

	a, err := newApp(appCfg)
	if err != nil {
		return err
	}
	defer a.close()

	newScanTask := func() tasks.TaskInterface {
		return tasks.NewScanMemosTask(a.deps, a.scanConfig())
	}
	newRefilterTask := func() tasks.TaskInterface {
		return tasks.NewRefilterMemosTask(a.filterConfig(), a.deps.Filterer, a.memoRepo, appCfg.Location)
	}

	slog.Info("Starting background scheduler", "scan_interval", appCfg.ScanInterval)
	scheduler := tasks.NewScheduler(newScanTask, time.Duration(appCfg.ScanInterval)*time.Second)
	scheduler.Start()
	defer scheduler.Stop()

	selfLink := fmt.Sprintf("http://localhost:%s/feed.xml", appCfg.Port)
	generator := memo.NewGenerator("", appCfg.ListingURL, selfLink, appCfg.Version)

	handler := api.NewHandler(a.memoRepo, a.runRepo, generator, a.metrics.Handler(), scheduler, newScanTask, newRefilterTask)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var serveErr error
	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case serveErr = <-serverErrChan:
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	return serveErr
}
