package tasks

import (
	"context"
	"time"

	"github.com/lysyi3m/memo-comb/app/export"
	"github.com/lysyi3m/memo-comb/app/memo"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// Used by serve mode to run scans on a timer and on API request.
//
//	scheduler := NewScheduler(newScanTask, interval)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewRefilterMemosTask(...))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// DocumentFetcher retrieves the listing page and memo documents.
type DocumentFetcher interface {
	Fetch(ctx context.Context, url string) (memo.Document, error)
}

// Exporter writes the run's artifacts.
type Exporter interface {
	Write(records []memo.Record, now time.Time) (export.Artifacts, error)
}
