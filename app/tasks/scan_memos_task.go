package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/memo-comb/app/database"
	"github.com/lysyi3m/memo-comb/app/export"
	"github.com/lysyi3m/memo-comb/app/memo"
	"github.com/lysyi3m/memo-comb/app/metrics"
	"github.com/lysyi3m/memo-comb/app/notify"
	"github.com/lysyi3m/memo-comb/app/state"
)

const (
	ModeWatermark = "watermark"
	ModeLookback  = "lookback"
)

type ScanConfig struct {
	ListingURL   string
	LookbackDays int // lookback mode when > 0, watermark mode otherwise
	Filter       memo.FilterConfig
	Location     *time.Location // decides what "today" is
	MetricsFile  string
}

// ScanDeps are the collaborators of a scan. The archive repositories, the
// exporter and metrics are optional.
type ScanDeps struct {
	Fetcher    DocumentFetcher
	Parser     *memo.Parser
	Reader     *memo.DocumentReader
	Extractor  *memo.Extractor
	Classifier *memo.Classifier
	Selector   *memo.Selector
	Filterer   *memo.Filterer
	Assembler  *memo.Assembler
	Store      state.Store
	MemoRepo   database.MemoRepository
	RunRepo    database.RunRepository
	Exporter   Exporter
	Notifiers  []notify.Notifier
	Metrics    *metrics.Metrics
	Now        func() time.Time
}

// Result is what one scan produced.
type Result struct {
	Mode      string
	Listed    int
	Selected  int
	Records   []memo.Record // visible records, number descending
	Failed    int           // enriched records carrying a detail note
	Summary   string
	Artifacts export.Artifacts
	Watermark int
}

type ScanMemosTask struct {
	Task
	deps   ScanDeps
	config ScanConfig

	LastResult *Result
}

func NewScanMemosTask(deps ScanDeps, config ScanConfig) *ScanMemosTask {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if config.Location == nil {
		config.Location = time.Local
	}

	return &ScanMemosTask{
		Task:   NewTask(TaskTypeScanMemos),
		deps:   deps,
		config: config,
	}
}

func (t *ScanMemosTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result, err := t.Run(ctx)
	if err != nil {
		return err
	}
	t.LastResult = &result

	slog.Info("Task completed",
		"type", "ScanMemos",
		"mode", result.Mode,
		"duration", t.GetDuration(),
		"listed", result.Listed,
		"selected", result.Selected,
		"reported", len(result.Records),
		"failed", result.Failed,
		"watermark", result.Watermark)

	return nil
}

// Run performs one scan. Only a listing failure is returned as an error;
// every later problem is logged and the run carries on.
func (t *ScanMemosTask) Run(ctx context.Context) (Result, error) {
	started := t.deps.Now()
	today := memo.DateOf(started.In(t.config.Location))

	result := Result{Mode: ModeWatermark}
	if t.config.LookbackDays > 0 {
		result.Mode = ModeLookback
	}

	previous, err := t.deps.Store.Load()
	if err != nil {
		slog.Warn("Failed to load watermark, starting from zero", "error", err)
		previous = 0
	}

	runID := t.startRun(result.Mode, previous)

	candidates, err := t.fetchListing(ctx)
	if err != nil {
		t.finishRun(runID, database.RunStats{Status: database.RunStatusFailed, WatermarkAfter: previous, Error: err.Error()})
		t.observe(metrics.RunObservation{Status: string(database.RunStatusFailed), Duration: time.Since(started)})
		return Result{}, err
	}
	result.Listed = len(candidates)

	var selected []memo.Candidate
	if result.Mode == ModeLookback {
		selected = t.deps.Selector.ByLookback(candidates, today, t.config.LookbackDays)
	} else {
		selected = t.deps.Selector.ByWatermark(candidates, previous)
	}
	result.Selected = len(selected)

	slog.Debug("Candidates selected", "mode", result.Mode, "listed", result.Listed, "selected", result.Selected, "watermark", previous)

	records := make([]memo.Record, 0, len(selected))
	for _, candidate := range selected {
		record := t.enrich(ctx, candidate)
		if record.Details != "" {
			result.Failed++
		}
		records = append(records, record)
	}

	records = t.deps.Filterer.Run(records, t.config.Filter, today)
	result.Records = t.deps.Assembler.Run(records)

	t.archive(runID, records)

	if t.deps.Exporter != nil {
		artifacts, err := t.deps.Exporter.Write(result.Records, started)
		if err != nil {
			slog.Warn("Failed to write export", "error", err)
		} else {
			result.Artifacts = artifacts
		}
	}

	result.Watermark = state.Advance(previous, t.deps.Parser.MaxNumber(candidates))
	if err := t.deps.Store.Save(result.Watermark); err != nil {
		slog.Warn("Failed to save watermark", "watermark", result.Watermark, "error", err)
	}

	result.Summary = t.deps.Assembler.Summary(result.Records)

	failedNotifiers := notify.Broadcast(ctx, t.deps.Notifiers, notify.Message{
		Text:  result.Summary,
		Files: result.Artifacts.Files(),
	})
	if t.deps.Metrics != nil {
		for _, name := range failedNotifiers {
			t.deps.Metrics.NotificationFailed(name)
		}
	}

	t.finishRun(runID, database.RunStats{
		Status:         database.RunStatusSucceeded,
		WatermarkAfter: result.Watermark,
		Listed:         result.Listed,
		Selected:       result.Selected,
		Reported:       len(result.Records),
		Failed:         result.Failed,
	})
	t.observe(metrics.RunObservation{
		Status:    string(database.RunStatusSucceeded),
		Listed:    result.Listed,
		Selected:  result.Selected,
		Reported:  len(result.Records),
		Failed:    result.Failed,
		Watermark: result.Watermark,
		Duration:  time.Since(started),
	})

	return result, nil
}

func (t *ScanMemosTask) fetchListing(ctx context.Context) ([]memo.Candidate, error) {
	doc, err := t.deps.Fetcher.Fetch(ctx, t.config.ListingURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listing: %w", err)
	}

	candidates, err := t.deps.Parser.Run(doc.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing: %w", err)
	}

	return candidates, nil
}

// enrich turns a candidate into a record. A document that cannot be fetched
// or read still yields a record carrying only the listing data, with the
// failure in Details.
func (t *ScanMemosTask) enrich(ctx context.Context, candidate memo.Candidate) memo.Record {
	record := memo.NewRecord(candidate)

	text, err := t.documentText(ctx, candidate.URL)
	if err != nil {
		slog.Warn("Failed to read memo document", "number", candidate.Number, "url", candidate.URL, "error", err)
		record.Details = "parse_error: " + err.Error()
		return record
	}

	fields := t.deps.Extractor.Run(text)
	record.Apply(fields)
	record.Event = t.deps.Classifier.Run(record.Title, record.Subject)

	slog.Debug("Memo enriched",
		"number", record.Number,
		"event", string(record.Event),
		"effective_date", record.EffectiveDate.String(),
		"effective_date_rule", fields.EffectiveDateRule)

	return record
}

func (t *ScanMemosTask) documentText(ctx context.Context, url string) (string, error) {
	doc, err := t.deps.Fetcher.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	return t.deps.Reader.Run(doc)
}

func (t *ScanMemosTask) startRun(mode string, watermark int) string {
	if t.deps.RunRepo == nil {
		return ""
	}

	id, err := t.deps.RunRepo.StartRun(mode, watermark)
	if err != nil {
		slog.Warn("Failed to record run start, archive disabled for this run", "error", err)
		return ""
	}
	return id
}

func (t *ScanMemosTask) finishRun(id string, stats database.RunStats) {
	if id == "" {
		return
	}
	if err := t.deps.RunRepo.FinishRun(id, stats); err != nil {
		slog.Warn("Failed to record run result", "run_id", id, "error", err)
	}
}

// archive stores every enriched record, filtered ones included, so the
// archive can be refiltered later.
func (t *ScanMemosTask) archive(runID string, records []memo.Record) {
	if runID == "" || t.deps.MemoRepo == nil {
		return
	}

	errorCount := 0
	for _, record := range records {
		if err := t.deps.MemoRepo.UpsertMemo(runID, record); err != nil {
			slog.Error("Failed to archive memo", "number", record.Number, "error", err)
			errorCount++
		}
	}

	slog.Debug("Memos archived", "run_id", runID, "count", len(records)-errorCount, "errors", errorCount)
}

func (t *ScanMemosTask) observe(o metrics.RunObservation) {
	if t.deps.Metrics == nil {
		return
	}

	t.deps.Metrics.ObserveRun(o)

	if t.config.MetricsFile != "" {
		if err := t.deps.Metrics.WriteTextfile(t.config.MetricsFile); err != nil {
			slog.Warn("Failed to write metrics textfile", "path", t.config.MetricsFile, "error", err)
		}
	}
}
