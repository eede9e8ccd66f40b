// Package report renders tabular registers as A4 PDF documents.
//
// A report is a Stream of rows fed through a Layout onto a Canvas.
// The Layout owns pagination; the Canvas only draws.
package report

import (
	"github.com/pkg/errors"
)

const ContentTypePDF = "application/pdf"

var errStop = errors.New("stop")

type (
	// Row holds one cell per table column.
	Row []string

	// Stream calls emit once per row, in order, and stops at the first error emit returns.
	Stream func(emit func(Row) error) error

	Column struct {
		Header   string
		X        float64 // mm from the left edge
		MaxChars int     // 0 means no truncation
	}

	Table struct {
		Columns []Column
	}

	// Spec describes one report.
	Spec struct {
		Title      string // e.g. REGISTERED STUDENTS REPORT
		TotalLabel string // e.g. Registered Students
		Filename   string
		Table      Table
	}

	Summary struct {
		Rows  int
		Pages int
	}

	Document struct {
		Filename    string
		ContentType string
		Bytes       []byte
		Rows        int
		Pages       int
	}
)

// Rows returns a Stream over a fixed slice.
func Rows(rows ...Row) Stream {
	return func(emit func(Row) error) error {
		for _, r := range rows {
			if err := emit(r); err != nil {
				return err
			}
		}
		return nil
	}
}

// Collect drains s, at most limit rows when limit > 0.
func Collect(s Stream, limit int) ([]Row, error) {
	var rows []Row
	err := s(func(r Row) error {
		rows = append(rows, r)
		if limit > 0 && len(rows) >= limit {
			return errStop
		}
		return nil
	})
	if err != nil && err != errStop {
		return nil, err
	}
	return rows, nil
}
