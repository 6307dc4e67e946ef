package database

import (
	"github.com/lysyi3m/memo-comb/app/memo"
)

type MemoRepository interface {
	GetMemo(number int) (*Memo, error)
	GetVisibleMemos(limit int, event memo.Category) ([]Memo, error)
	GetAllMemos() ([]Memo, error)
	GetMemoStats() (int, int, int, error)

	UpsertMemo(runID string, record memo.Record) error
	UpdateMemoFilterStatus(number int, isFiltered bool, reason string) error
}

type RunRepository interface {
	GetLastRun() (*Run, error)
	GetRunCount() (int, error)

	StartRun(mode string, watermarkBefore int) (string, error)
	FinishRun(id string, stats RunStats) error
}

var (
	_ MemoRepository = (*SQLMemoRepository)(nil)
	_ RunRepository  = (*SQLRunRepository)(nil)
)
