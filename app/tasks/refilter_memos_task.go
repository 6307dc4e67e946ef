package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lysyi3m/memo-comb/app/database"
	"github.com/lysyi3m/memo-comb/app/memo"
)

// RefilterMemosTask re-applies the current filters to every archived memo.
type RefilterMemosTask struct {
	Task
	filter   memo.FilterConfig
	filterer *memo.Filterer
	memoRepo database.MemoRepository
	location *time.Location
	now      func() time.Time
}

func NewRefilterMemosTask(filter memo.FilterConfig, filterer *memo.Filterer, memoRepo database.MemoRepository, location *time.Location) *RefilterMemosTask {
	if location == nil {
		location = time.Local
	}

	return &RefilterMemosTask{
		Task:     NewTask(TaskTypeRefilterMemos),
		filter:   filter,
		filterer: filterer,
		memoRepo: memoRepo,
		location: location,
		now:      time.Now,
	}
}

func (t *RefilterMemosTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	memos, err := t.memoRepo.GetAllMemos()
	if err != nil {
		return fmt.Errorf("failed to get archived memos: %w", err)
	}

	records := make([]memo.Record, len(memos))
	for i, m := range memos {
		records[i] = m.Record
	}

	today := memo.DateOf(t.now().In(t.location))
	filteredRecords := t.filterer.Run(records, t.filter, today)

	updatedCount := 0
	errorCount := 0

	for i, filtered := range filteredRecords {
		original := memos[i]

		if original.IsFiltered != filtered.IsFiltered || original.FilterReason != filtered.FilterReason {
			err := t.memoRepo.UpdateMemoFilterStatus(original.Number, filtered.IsFiltered, filtered.FilterReason)
			if err != nil {
				slog.Error("Failed to update memo filter status", "number", original.Number, "error", err)
				errorCount++
			} else {
				updatedCount++
			}
		}
	}

	slog.Info("Task completed",
		"type", "RefilterMemos",
		"duration", t.GetDuration(),
		"total", len(memos),
		"success", updatedCount,
		"errors", errorCount)

	return nil
}
