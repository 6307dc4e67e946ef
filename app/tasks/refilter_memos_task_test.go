package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/memo-comb/app/memo"
)

func TestRefilterMemosTask_AppliesCurrentFilters(t *testing.T) {
	f := newScanFixture(t, 100)

	// Archive everything first, with no include filter.
	_, err := f.task(ScanConfig{Filter: memo.FilterConfig{Include: []string{}}}).Run(context.Background())
	require.NoError(t, err)

	_, visible, filtered, err := f.memoRepo.GetMemoStats()
	require.NoError(t, err)
	assert.Equal(t, 3, visible)
	assert.Equal(t, 0, filtered)

	task := NewRefilterMemosTask(memo.FilterConfig{Include: []string{"merger"}}, memo.NewFilterer(), f.memoRepo, time.UTC)
	task.now = func() time.Time { return testNow }
	require.NoError(t, task.Execute(context.Background()))

	_, visible, filtered, err = f.memoRepo.GetMemoStats()
	require.NoError(t, err)
	assert.Equal(t, 1, visible)
	assert.Equal(t, 2, filtered)

	kept, err := f.memoRepo.GetMemo(102)
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.False(t, kept.IsFiltered)

	dropped, err := f.memoRepo.GetMemo(103)
	require.NoError(t, err)
	require.NotNil(t, dropped)
	assert.True(t, dropped.IsFiltered)
	assert.Contains(t, dropped.FilterReason, "[merger]")
}

func TestRefilterMemosTask_CanceledContext(t *testing.T) {
	f := newScanFixture(t, 100)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	task := NewRefilterMemosTask(memo.FilterConfig{}, memo.NewFilterer(), f.memoRepo, nil)
	assert.ErrorIs(t, task.Execute(ctx), context.Canceled)
}
