// Copyright (c) 2026 PMDCollab. All rights reserved.

package datafiles_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmdcollab/spritecollab-srv/internal/datafiles"
)

/*
TestParseCreditRows_NewFormat verifies the five-column format.
*/
func TestParseCreditRows_NewFormat(t *testing.T) {
	data := []byte("2022-05-01 12:00:00\t123\tfalse\tUnknown\tHappy,Sad\n" +
		"2022-06-01 08:30:00.5\t<@!456>\tOLD\tPMDCollab_1\tHappy\n")

	rows, err := datafiles.ParseCreditRows(data)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, time.Date(2022, 5, 1, 12, 0, 0, 0, time.UTC), rows[0].Date)
	assert.Equal(t, "123", rows[0].CreditID)
	assert.False(t, rows[0].Obsolete)
	assert.Equal(t, []string{"Happy", "Sad"}, rows[0].Items)

	// Mention wrapper stripped, OLD flag honored
	assert.Equal(t, "456", rows[1].CreditID)
	assert.True(t, rows[1].Obsolete)
	assert.Equal(t, "PMDCollab_1", rows[1].License)
}

/*
TestParseCreditRows_WrongColumnCount verifies the structural error that
triggers the legacy-format fallback.
*/
func TestParseCreditRows_WrongColumnCount(t *testing.T) {
	_, err := datafiles.ParseCreditRows([]byte("2022-01-01 00:00:00\t999\n"))

	var formatErr *datafiles.FormatError
	assert.ErrorAs(t, err, &formatErr)
}

/*
TestParseCreditRows_BadDate verifies that unparseable fields are also
structural errors.
*/
func TestParseCreditRows_BadDate(t *testing.T) {
	_, err := datafiles.ParseCreditRows([]byte("someday\t1\tfalse\tUnknown\tHappy\n"))

	var formatErr *datafiles.FormatError
	assert.ErrorAs(t, err, &formatErr)
}

/*
TestCreditsUntil_StopsAtFirstLaterRow verifies the time-bounded map: rows
strictly after the bound are ignored, earlier rows overwrite in file order.
*/
func TestCreditsUntil_StopsAtFirstLaterRow(t *testing.T) {
	data := []byte("2022-01-01 00:00:00\t111\tfalse\tUnknown\tHappy\n" +
		"2022-02-01 00:00:00\t222\tfalse\tUnknown\tHappy,Sad\n" +
		"2022-03-01 00:00:00\t333\tfalse\tUnknown\tHappy\n")

	credits, err := datafiles.CreditsUntil(data, time.Date(2022, 2, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// The later entry for Happy overwrote the earlier one; the March row
	// is past the bound.
	assert.Equal(t, "222", credits["Happy"])
	assert.Equal(t, "222", credits["Sad"])
}

/*
TestCreditsUntil_InclusiveBound verifies that a row exactly at the bound is
included.
*/
func TestCreditsUntil_InclusiveBound(t *testing.T) {
	data := []byte("2022-02-01 00:00:00\t222\tfalse\tUnknown\tHappy\n")

	credits, err := datafiles.CreditsUntil(data, time.Date(2022, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "222", credits["Happy"])
}

/*
TestLatestCredits verifies the unbounded map.
*/
func TestLatestCredits(t *testing.T) {
	data := []byte("2022-01-01 00:00:00\t111\tfalse\tUnknown\tHappy\n" +
		"2023-01-01 00:00:00\t999\tfalse\tUnknown\tHappy\n")

	credits, err := datafiles.LatestCredits(data)
	require.NoError(t, err)
	assert.Equal(t, "999", credits["Happy"])
}

/*
TestLastCreditOldFormat verifies the legacy two-column reader.
*/
func TestLastCreditOldFormat(t *testing.T) {
	data := []byte("2021-01-01 00:00:00\t111\n2022-01-01 00:00:00\t<@999>\n")

	last, err := datafiles.LastCreditOldFormat(data)
	require.NoError(t, err)
	assert.Equal(t, "999", last)

	empty, err := datafiles.LastCreditOldFormat(nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
