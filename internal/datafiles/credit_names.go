// Copyright (c) 2026 PMDCollab. All rights reserved.

package datafiles

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pmdcollab/spritecollab-srv/internal/search"
)

// CreditNamesRow is one artist entry of credit_names.txt.
type CreditNamesRow struct {
	// CreditID is the unique id (usually a Discord snowflake), with any
	// mention wrapper already stripped.
	CreditID string
	// Name is the display name; empty if the artist did not set one.
	Name string
	// Contact is a free-form contact hint; empty if unset.
	Contact string
}

// CreditNames is the parsed credit_names.txt with two lookup indexes:
// unique by credit id and non-unique by display name.
type CreditNames struct {
	rows    []CreditNamesRow
	byID    map[string]int
	byNames map[string][]int
}

// ReadCreditNames loads and parses credit_names.txt from path.
func ReadCreditNames(path string) (*CreditNames, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read credit names: %w", err)
	}
	defer file.Close()
	return ParseCreditNames(file)
}

// ParseCreditNames parses the tab-separated credit names table. The first
// row is the "Discord / Name / Contact" header. A duplicate credit id is a
// fatal parse error.
func ParseCreditNames(r io.Reader) (*CreditNames, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	names := &CreditNames{
		byID:    map[string]int{},
		byNames: map[string][]int{},
	}

	header := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode credit names: %w", err)
		}
		if header {
			header = false
			continue
		}
		if len(record) == 0 || record[0] == "" {
			continue
		}

		row := CreditNamesRow{CreditID: ParseCreditID(record[0])}
		if len(record) > 1 {
			row.Name = record[1]
		}
		if len(record) > 2 {
			row.Contact = record[2]
		}

		if _, exists := names.byID[row.CreditID]; exists {
			return nil, &DuplicateCreditIDError{CreditID: row.CreditID}
		}

		idx := len(names.rows)
		names.byID[row.CreditID] = idx
		if row.Name != "" {
			names.byNames[row.Name] = append(names.byNames[row.Name], idx)
		}
		names.rows = append(names.rows, row)
	}

	return names, nil
}

// Rows returns all rows in file order.
func (c *CreditNames) Rows() []CreditNamesRow { return c.rows }

// Len returns the number of rows.
func (c *CreditNames) Len() int { return len(c.rows) }

// Get looks a row up by credit id.
func (c *CreditNames) Get(creditID string) (CreditNamesRow, bool) {
	idx, ok := c.byID[creditID]
	if !ok {
		return CreditNamesRow{}, false
	}
	return c.rows[idx], true
}

// FuzzyFind matches query against both the credit id index and the display
// name index, returning the matched rows best-first.
func (c *CreditNames) FuzzyFind(query string) []CreditNamesRow {
	entries := make([]search.Entry[int], 0, len(c.byID)+len(c.byNames))
	for id, idx := range c.byID {
		entries = append(entries, search.Entry[int]{Key: id, IDs: []int{idx}})
	}
	for name, idxs := range c.byNames {
		entries = append(entries, search.Entry[int]{Key: name, IDs: idxs})
	}

	matched := search.Find(query, entries)
	rows := make([]CreditNamesRow, len(matched))
	for i, idx := range matched {
		rows[i] = c.rows[idx]
	}
	return rows
}
