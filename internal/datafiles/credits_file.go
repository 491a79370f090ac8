// Copyright (c) 2026 PMDCollab. All rights reserved.

package datafiles

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// LocalCreditRow is one entry of a form-local credits.txt in the current
// five-column format: date, credit id, obsolete flag, license, items.
type LocalCreditRow struct {
	// Date is the submission time, UTC.
	Date time.Time
	// CreditID is the author, with any mention wrapper stripped.
	CreditID string
	// Obsolete is set when the flag column reads "OLD".
	Obsolete bool
	// License is the raw license column; see [ParseLicense].
	License string
	// Items lists the action/emotion names the row covers. The single item
	// "?" marks a row that predates per-item tracking.
	Items []string
}

// ParsedLicense maps the raw license column onto the known enumeration.
func (r LocalCreditRow) ParsedLicense() License {
	return ParseLicense(r.License)
}

const localCreditColumns = 5

// ParseCreditRows parses a credits.txt in the current format. Rows with the
// wrong column count or unparseable fields fail with a [*FormatError],
// signalling that a retry with the legacy format may be warranted.
func ParseCreditRows(data []byte) ([]LocalCreditRow, error) {
	reader := newCreditsReader(data)

	var rows []LocalCreditRow
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, &FormatError{Line: line, Msg: err.Error()}
		}
		if len(record) != localCreditColumns {
			return nil, &FormatError{
				Line: line,
				Msg:  fmt.Sprintf("expected %d columns, found %d", localCreditColumns, len(record)),
			}
		}

		date, err := parseCreditTime(record[0])
		if err != nil {
			return nil, &FormatError{Line: line, Msg: err.Error()}
		}

		rows = append(rows, LocalCreditRow{
			Date:     date,
			CreditID: ParseCreditID(record[1]),
			Obsolete: record[2] == "OLD",
			License:  record[3],
			Items:    strings.Split(record[4], ","),
		})
	}
	return rows, nil
}

// CreditsUntil builds the item -> credit id map from all rows up to (and
// including) the given instant. Iteration stops at the first row strictly
// after it; later rows for the same item overwrite earlier ones.
func CreditsUntil(data []byte, until time.Time) (map[string]string, error) {
	rows, err := ParseCreditRows(data)
	if err != nil {
		return nil, err
	}

	credits := map[string]string{}
	for _, row := range rows {
		if row.Date.After(until) {
			break
		}
		for _, item := range row.Items {
			credits[item] = row.CreditID
		}
	}
	return credits, nil
}

// LatestCredits builds the item -> credit id map over the whole file.
func LatestCredits(data []byte) (map[string]string, error) {
	rows, err := ParseCreditRows(data)
	if err != nil {
		return nil, err
	}

	credits := map[string]string{}
	for _, row := range rows {
		for _, item := range row.Items {
			credits[item] = row.CreditID
		}
	}
	return credits, nil
}

// LastCreditOldFormat parses a credits.txt in the legacy two-column format
// (date, credit id) and returns the final row's credit id, or "" for an
// empty file.
func LastCreditOldFormat(data []byte) (string, error) {
	reader := newCreditsReader(data)

	last := ""
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return "", &FormatError{Line: line, Msg: err.Error()}
		}
		if len(record) < 2 {
			return "", &FormatError{Line: line, Msg: "expected at least 2 columns"}
		}
		if _, err := parseCreditTime(record[0]); err != nil {
			return "", &FormatError{Line: line, Msg: err.Error()}
		}
		last = ParseCreditID(record[1])
	}
	return last, nil
}

func newCreditsReader(data []byte) *csv.Reader {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	return reader
}

// parseCreditTime reads the "YYYY-MM-DD HH:MM:SS[.fff]" credit timestamps
// as UTC. The fractional second is accepted by the parser without being
// part of the layout.
func parseCreditTime(raw string) (time.Time, error) {
	parsed, err := time.ParseInLocation("2006-01-02 15:04:05", raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid credit timestamp %q: %v", raw, err)
	}
	return parsed, nil
}
