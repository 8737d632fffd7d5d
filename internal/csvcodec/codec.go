// Package csvcodec converts leads to and from CSV documents.
package csvcodec

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/leadbook/leadbook/internal/models"
)

// ErrNoHeader is returned when a document has no header row.
var ErrNoHeader = errors.New("csv document has no header row")

// Encode writes leads as a CSV document with models.ExportColumns as header.
func Encode(w io.Writer, leads []models.Lead) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(models.ExportColumns); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for i := range leads {
		if err := cw.Write(record(&leads[i])); err != nil {
			return fmt.Errorf("writing csv row %d: %w", i+1, err)
		}
	}

	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}

	return nil
}

// record renders one lead in ExportColumns order.
func record(l *models.Lead) []string {
	var email, bhk string
	if l.Email != nil {
		email = *l.Email
	}

	if l.BHK != nil {
		bhk = string(*l.BHK)
	}

	return []string{
		l.FullName,
		email,
		l.Phone,
		string(l.City),
		string(l.PropertyType),
		bhk,
		string(l.Purpose),
		formatInt(l.BudgetMin),
		formatInt(l.BudgetMax),
		string(l.Timeline),
		string(l.Source),
		l.Notes,
		strings.Join(l.Tags, ","),
		string(l.Status),
		l.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}

	return strconv.Itoa(*v)
}

// Decode reads a CSV document into header-keyed rows. Header names and cells
// are trimmed and blank lines are skipped. When the last header column is
// tags, surplus cells are joined back into it so an unquoted tag list
// survives. At most limit rows are read when limit > 0, so callers can detect
// oversized documents without buffering them.
func Decode(r io.Reader, limit int) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoHeader
		}

		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	for i, h := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}

	tagsLast := header[len(header)-1] == models.ColTags
	rows := make([]map[string]string, 0, 16)

	for limit <= 0 || len(rows) < limit {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("reading csv row %d: %w", len(rows)+1, err)
		}

		if blank(rec) {
			continue
		}

		if tagsLast && len(rec) > len(header) {
			last := len(header) - 1
			rec = append(rec[:last], strings.Join(rec[last:], ","))
		}

		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(rec) {
				row[h] = strings.TrimSpace(rec[i])
			}
		}

		rows = append(rows, row)
	}

	return rows, nil
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}

	return true
}
