package database

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lysyi3m/memo-comb/app/memo"
)

const memoColumns = `number, title, url, post_date, effective_date, event_type, subject,
	option_symbols, new_symbols, details, is_filtered, filter_reason,
	first_run_id, last_run_id, created_at, updated_at`

// SQLMemoRepository handles database operations for archived memos
type SQLMemoRepository struct {
	db *DB
}

// NewMemoRepository creates a new memo repository
func NewMemoRepository(db *DB) *SQLMemoRepository {
	return &SQLMemoRepository{db: db}
}

// UpsertMemo stores a record, keeping the run that first saw it
func (r *SQLMemoRepository) UpsertMemo(runID string, record memo.Record) error {
	now := time.Now().UTC()

	_, err := r.db.Exec(`
		INSERT INTO memos (
			number, title, url, post_date, effective_date, event_type, subject,
			option_symbols, new_symbols, details, is_filtered, filter_reason,
			first_run_id, last_run_id, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (number) DO UPDATE SET
			title = excluded.title,
			url = excluded.url,
			post_date = excluded.post_date,
			effective_date = excluded.effective_date,
			event_type = excluded.event_type,
			subject = excluded.subject,
			option_symbols = excluded.option_symbols,
			new_symbols = excluded.new_symbols,
			details = excluded.details,
			is_filtered = excluded.is_filtered,
			filter_reason = excluded.filter_reason,
			last_run_id = excluded.last_run_id,
			updated_at = excluded.updated_at
	`, record.Number, record.Title, record.URL, record.PostDate.String(), record.EffectiveDate.String(),
		string(record.Event), record.Subject, record.OptionSymbols, record.NewSymbols, record.Details,
		record.IsFiltered, record.FilterReason, runID, runID, now, now)

	if err != nil {
		return fmt.Errorf("failed to upsert memo %d: %w", record.Number, err)
	}

	return nil
}

// GetMemo returns one memo, filtered or not, or nil when it is unknown
func (r *SQLMemoRepository) GetMemo(number int) (*Memo, error) {
	row := r.db.QueryRow(`SELECT `+memoColumns+` FROM memos WHERE number = ?`, number)

	m, err := scanMemo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get memo %d: %w", number, err)
	}

	return m, nil
}

// GetVisibleMemos returns non-filtered memos, newest first, optionally
// restricted to one event category
func (r *SQLMemoRepository) GetVisibleMemos(limit int, event memo.Category) ([]Memo, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT ` + memoColumns + ` FROM memos WHERE is_filtered = 0`
	args := []any{}
	if event != memo.CategoryNone {
		query += ` AND event_type = ?`
		args = append(args, string(event))
	}
	query += ` ORDER BY number DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get visible memos: %w", err)
	}
	defer rows.Close()

	return scanMemos(rows)
}

// GetAllMemos returns every archived memo including filtered ones
func (r *SQLMemoRepository) GetAllMemos() ([]Memo, error) {
	rows, err := r.db.Query(`SELECT ` + memoColumns + ` FROM memos ORDER BY number DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all memos: %w", err)
	}
	defer rows.Close()

	return scanMemos(rows)
}

// GetMemoStats returns total, visible and filtered memo counts
func (r *SQLMemoRepository) GetMemoStats() (total, visible, filtered int, err error) {
	err = r.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN is_filtered = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN is_filtered = 1 THEN 1 ELSE 0 END), 0)
		FROM memos
	`).Scan(&total, &visible, &filtered)

	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to get memo stats: %w", err)
	}

	return total, visible, filtered, nil
}

// UpdateMemoFilterStatus updates the filter status of a memo
func (r *SQLMemoRepository) UpdateMemoFilterStatus(number int, isFiltered bool, reason string) error {
	_, err := r.db.Exec(`
		UPDATE memos
		SET is_filtered = ?, filter_reason = ?, updated_at = ?
		WHERE number = ?
	`, isFiltered, reason, time.Now().UTC(), number)

	if err != nil {
		return fmt.Errorf("failed to update memo filter status: %w", err)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMemo(row scanner) (*Memo, error) {
	var (
		m             Memo
		postDate      string
		effectiveDate string
		eventType     string
	)

	err := row.Scan(
		&m.Number, &m.Title, &m.URL, &postDate, &effectiveDate, &eventType, &m.Subject,
		&m.OptionSymbols, &m.NewSymbols, &m.Details, &m.IsFiltered, &m.FilterReason,
		&m.FirstRunID, &m.LastRunID, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	// Stored dates were written by Date.String; a bad value reads as unknown.
	m.PostDate, _ = memo.ParseCanonicalDate(postDate)
	m.EffectiveDate, _ = memo.ParseCanonicalDate(effectiveDate)
	m.Event = memo.Category(eventType)

	return &m, nil
}

func scanMemos(rows *sql.Rows) ([]Memo, error) {
	var memos []Memo
	for rows.Next() {
		m, err := scanMemo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan memo row: %w", err)
		}
		memos = append(memos, *m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating memo rows: %w", err)
	}

	return memos, nil
}
