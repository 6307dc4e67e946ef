package database

import (
	"time"

	"github.com/lysyi3m/memo-comb/app/memo"
)

// Memo is an archived record together with its bookkeeping columns.
type Memo struct {
	memo.Record
	FirstRunID string // run that first saw the memo
	LastRunID  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusSucceeded RunStatus = "succeeded"
	RunStatusFailed    RunStatus = "failed"
)

type Run struct {
	ID              string
	Mode            string // watermark or lookback
	Status          RunStatus
	WatermarkBefore int
	WatermarkAfter  int
	Listed          int
	Selected        int
	Reported        int
	Failed          int // records carrying a detail note
	Error           string
	StartedAt       time.Time
	FinishedAt      *time.Time
}

type RunStats struct {
	Status         RunStatus
	WatermarkAfter int
	Listed         int
	Selected       int
	Reported       int
	Failed         int
	Error          string
}
