package database

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/memo-comb/app/memo"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := NewConnection(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func testRecord(number int, event memo.Category) memo.Record {
	return memo.Record{
		Number:        number,
		Title:         "Memo title",
		URL:           fmt.Sprintf("https://infomemo.theocc.com/infomemos?number=%d", number),
		PostDate:      memo.NewDate(2025, 5, 30),
		EffectiveDate: memo.NewDate(2025, 6, 2),
		Event:         event,
		Subject:       "ABC Corp. - Reverse Split",
		OptionSymbols: "ABC",
		NewSymbols:    "ABC1",
	}
}

func TestRunRepository_StartAndFinish(t *testing.T) {
	runs := NewRunRepository(openTestDB(t))

	last, err := runs.GetLastRun()
	require.NoError(t, err)
	assert.Nil(t, last)

	id, err := runs.StartRun("watermark", 101)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	require.NoError(t, runs.FinishRun(id, RunStats{
		Status:         RunStatusSucceeded,
		WatermarkAfter: 103,
		Listed:         3,
		Selected:       2,
		Reported:       2,
	}))

	last, err = runs.GetLastRun()
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, id, last.ID)
	assert.Equal(t, "watermark", last.Mode)
	assert.Equal(t, RunStatusSucceeded, last.Status)
	assert.Equal(t, 101, last.WatermarkBefore)
	assert.Equal(t, 103, last.WatermarkAfter)
	assert.Equal(t, 2, last.Reported)
	assert.NotNil(t, last.FinishedAt)

	count, err := runs.GetRunCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRunRepository_FinishUnknownRun(t *testing.T) {
	runs := NewRunRepository(openTestDB(t))

	err := runs.FinishRun("missing", RunStats{Status: RunStatusFailed})
	assert.Error(t, err)
}

func TestMemoRepository_UpsertKeepsFirstRun(t *testing.T) {
	db := openTestDB(t)
	runs := NewRunRepository(db)
	memos := NewMemoRepository(db)

	first, err := runs.StartRun("watermark", 0)
	require.NoError(t, err)
	second, err := runs.StartRun("lookback", 0)
	require.NoError(t, err)

	record := testRecord(102, memo.CategoryReverseSplit)
	require.NoError(t, memos.UpsertMemo(first, record))

	record.Subject = "ABC Corp. - Reverse Split (updated)"
	require.NoError(t, memos.UpsertMemo(second, record))

	got, err := memos.GetMemo(102)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, first, got.FirstRunID)
	assert.Equal(t, second, got.LastRunID)
	assert.Equal(t, "ABC Corp. - Reverse Split (updated)", got.Subject)
	assert.Equal(t, memo.CategoryReverseSplit, got.Event)
	assert.Equal(t, memo.NewDate(2025, 5, 30), got.PostDate)
	assert.Equal(t, memo.NewDate(2025, 6, 2), got.EffectiveDate)
}

func TestMemoRepository_GetMemoUnknown(t *testing.T) {
	memos := NewMemoRepository(openTestDB(t))

	got, err := memos.GetMemo(999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestMemoRepository_ZeroDatesRoundtrip(t *testing.T) {
	db := openTestDB(t)
	runID, err := NewRunRepository(db).StartRun("watermark", 0)
	require.NoError(t, err)

	memos := NewMemoRepository(db)
	record := memo.Record{Number: 7, Title: "Undated", Details: "parse_error: empty document"}
	require.NoError(t, memos.UpsertMemo(runID, record))

	got, err := memos.GetMemo(7)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.PostDate.IsZero())
	assert.True(t, got.EffectiveDate.IsZero())
	assert.Equal(t, "parse_error: empty document", got.Details)
}

func TestMemoRepository_VisibleMemosAndStats(t *testing.T) {
	db := openTestDB(t)
	runID, err := NewRunRepository(db).StartRun("watermark", 0)
	require.NoError(t, err)

	memos := NewMemoRepository(db)
	require.NoError(t, memos.UpsertMemo(runID, testRecord(101, memo.CategorySplit)))
	require.NoError(t, memos.UpsertMemo(runID, testRecord(103, memo.CategoryReverseSplit)))

	hidden := testRecord(102, memo.CategoryMerger)
	hidden.IsFiltered = true
	hidden.FilterReason = "Excluded by past-effective filter"
	require.NoError(t, memos.UpsertMemo(runID, hidden))

	visible, err := memos.GetVisibleMemos(10, memo.CategoryNone)
	require.NoError(t, err)
	require.Len(t, visible, 2)
	assert.Equal(t, 103, visible[0].Number)
	assert.Equal(t, 101, visible[1].Number)

	splits, err := memos.GetVisibleMemos(10, memo.CategorySplit)
	require.NoError(t, err)
	require.Len(t, splits, 1)
	assert.Equal(t, 101, splits[0].Number)

	limited, err := memos.GetVisibleMemos(1, memo.CategoryNone)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	all, err := memos.GetAllMemos()
	require.NoError(t, err)
	assert.Len(t, all, 3)

	total, shown, filtered, err := memos.GetMemoStats()
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Equal(t, 2, shown)
	assert.Equal(t, 1, filtered)
}

func TestMemoRepository_UpdateFilterStatus(t *testing.T) {
	db := openTestDB(t)
	runID, err := NewRunRepository(db).StartRun("watermark", 0)
	require.NoError(t, err)

	memos := NewMemoRepository(db)
	require.NoError(t, memos.UpsertMemo(runID, testRecord(101, memo.CategorySplit)))
	require.NoError(t, memos.UpdateMemoFilterStatus(101, true, "manual"))

	got, err := memos.GetMemo(101)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsFiltered)
	assert.Equal(t, "manual", got.FilterReason)

	visible, err := memos.GetVisibleMemos(10, memo.CategoryNone)
	require.NoError(t, err)
	assert.Empty(t, visible)
}

func TestMemoRepository_RequiresKnownRun(t *testing.T) {
	memos := NewMemoRepository(openTestDB(t))

	err := memos.UpsertMemo("no-such-run", testRecord(1, memo.CategorySplit))
	assert.Error(t, err)
}
