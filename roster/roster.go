// Package roster reads student lists from Excel workbooks.
package roster

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/openclaw/qrcards/card"
)

// Load reads students from the first sheet of an .xlsx workbook. Row 1 is a
// header. Column A holds the student id and column B the optional name;
// rows without an id are skipped.
func Load(r io.Reader, log *slog.Logger) ([]card.Student, error) {
	if log == nil {
		log = slog.Default()
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Warn("close workbook", "error", err)
		}
	}()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, errors.New("workbook does not contain any sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read rows from sheet %s: %w", sheet, err)
	}

	var students []card.Student
	for i, row := range rows {
		if i == 0 {
			continue
		}
		var s card.Student
		if len(row) > 0 {
			s.ID = strings.TrimSpace(row[0])
		}
		if len(row) > 1 {
			s.Name = strings.TrimSpace(row[1])
		}
		if s.ID == "" {
			log.Debug("skipping roster row without student id", "row", i+1)
			continue
		}
		students = append(students, s)
	}
	return students, nil
}

// LoadFile opens path and passes it to Load.
func LoadFile(path string, log *slog.Logger) ([]card.Student, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster %s: %w", path, err)
	}
	defer f.Close()
	return Load(f, log)
}
