package export

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/lysyi3m/memo-comb/app/memo"
)

const (
	sheetName       = "memos"
	latestFileName  = "latest.csv"
	timestampLayout = "20060102_150405"
)

var columns = []string{
	"memo_number",
	"post_date",
	"effective_date",
	"event_type",
	"title",
	"subject",
	"option_symbols",
	"new_symbols",
	"url",
	"details",
}

// Artifacts lists the files written by a single export.
type Artifacts struct {
	XLSXPath      string
	CSVPath       string
	LatestCSVPath string
}

// Files returns the artifact paths that exist, spreadsheet first.
func (a Artifacts) Files() []string {
	var files []string
	for _, p := range []string{a.XLSXPath, a.CSVPath} {
		if p != "" {
			files = append(files, p)
		}
	}
	return files
}

type Writer struct {
	dir string
}

func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Write stores records as a timestamped workbook, a timestamped CSV and a
// latest.csv copy of the CSV. An empty record set still produces files with
// a header row.
func (w *Writer) Write(records []memo.Record, now time.Time) (Artifacts, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return Artifacts{}, fmt.Errorf("failed to create output directory: %w", err)
	}

	base := "OCC_memos_" + now.Format(timestampLayout)
	artifacts := Artifacts{
		XLSXPath:      filepath.Join(w.dir, base+".xlsx"),
		CSVPath:       filepath.Join(w.dir, base+".csv"),
		LatestCSVPath: filepath.Join(w.dir, latestFileName),
	}

	rows := toRows(records)

	if err := writeXLSX(artifacts.XLSXPath, rows); err != nil {
		return Artifacts{}, err
	}

	if err := writeCSV(artifacts.CSVPath, rows); err != nil {
		return Artifacts{}, err
	}

	if err := writeCSV(artifacts.LatestCSVPath, rows); err != nil {
		return Artifacts{}, err
	}

	slog.Debug("Export written", "dir", w.dir, "records", len(records), "xlsx", artifacts.XLSXPath)

	return artifacts, nil
}

func toRows(records []memo.Record) [][]string {
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, columns)

	for _, r := range records {
		rows = append(rows, []string{
			strconv.Itoa(r.Number),
			r.PostDate.String(),
			r.EffectiveDate.String(),
			string(r.Event),
			r.Title,
			r.Subject,
			r.OptionSymbols,
			r.NewSymbols,
			r.URL,
			r.Details,
		})
	}

	return rows
}

func writeXLSX(path string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("failed to resolve cell: %w", err)
		}

		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		// Memo numbers stay numeric so the sheet sorts them correctly.
		if i > 0 {
			if n, err := strconv.Atoi(row[0]); err == nil {
				values[0] = n
			}
		}

		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}

	return nil
}

func writeCSV(path string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return file.Close()
}
