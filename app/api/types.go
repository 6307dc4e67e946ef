package api

import (
	"net/http"
	"time"

	"github.com/lysyi3m/memo-comb/app/database"
	"github.com/lysyi3m/memo-comb/app/memo"
	"github.com/lysyi3m/memo-comb/app/tasks"
)

type GeneratorInterface interface {
	Run(records []memo.Record, lastBuild time.Time) (string, error)
}

var _ GeneratorInterface = (*memo.Generator)(nil)

type Handler struct {
	memoRepo        database.MemoRepository
	runRepo         database.RunRepository
	generator       GeneratorInterface
	metrics         http.Handler
	scheduler       tasks.TaskSchedulerInterface
	newScanTask     func() tasks.TaskInterface
	newRefilterTask func() tasks.TaskInterface
}

type memoResponse struct {
	Number        int       `json:"number"`
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	PostDate      memo.Date `json:"post_date"`
	EffectiveDate memo.Date `json:"effective_date"`
	EventType     string    `json:"event_type"`
	Event         string    `json:"event"`
	Subject       string    `json:"subject"`
	OptionSymbols string    `json:"option_symbols"`
	NewSymbols    string    `json:"new_symbols"`
	Details       string    `json:"details,omitempty"`
	IsFiltered    bool      `json:"is_filtered"`
	FilterReason  string    `json:"filter_reason,omitempty"`
	FirstRunID    string    `json:"first_run_id"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func newMemoResponse(m database.Memo) memoResponse {
	return memoResponse{
		Number:        m.Number,
		Title:         m.Title,
		URL:           m.URL,
		PostDate:      m.PostDate,
		EffectiveDate: m.EffectiveDate,
		EventType:     string(m.Event),
		Event:         m.Event.Label(),
		Subject:       m.Subject,
		OptionSymbols: m.OptionSymbols,
		NewSymbols:    m.NewSymbols,
		Details:       m.Details,
		IsFiltered:    m.IsFiltered,
		FilterReason:  m.FilterReason,
		FirstRunID:    m.FirstRunID,
		UpdatedAt:     m.UpdatedAt,
	}
}
