package ledger_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/ledger-engine/ledger"
)

// =============================================================================
// PARSING TESTS
// =============================================================================

func TestParseDate_Valid(t *testing.T) {
	d, err := ledger.ParseDate("2024-03-10")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-10", d.String())
}

func TestParseDate_Invalid(t *testing.T) {
	cases := []string{"", "10/03/2024", "2024-13-01", "2024-03-10T00:00:00Z", "yesterday"}
	for _, input := range cases {
		_, err := ledger.ParseDate(input)
		assert.ErrorIs(t, err, ledger.ErrUnparsableDate, "input %q", input)
	}
}

func TestDate_Ordering(t *testing.T) {
	earlier, err := ledger.ParseDate("2024-01-31")
	require.NoError(t, err)
	later, err := ledger.ParseDate("2024-02-01")
	require.NoError(t, err)

	assert.True(t, earlier.Before(later))
	assert.True(t, later.After(earlier))
	assert.True(t, earlier.BeforeOrEqual(earlier))
	assert.True(t, earlier.Equal(earlier))
	assert.False(t, earlier.Equal(later))
}

// =============================================================================
// CALENDAR ARITHMETIC TESTS
// =============================================================================

func TestDate_WeekStart_AlwaysMonday(t *testing.T) {
	// GIVEN: 2024-03-10 is a Sunday
	d, err := ledger.ParseDate("2024-03-10")
	require.NoError(t, err)

	// THEN: Its week starts on the preceding Monday
	assert.Equal(t, "2024-03-04", d.WeekStart().String())

	// AND: A Monday is its own week start
	monday, err := ledger.ParseDate("2024-03-04")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04", monday.WeekStart().String())
}

func TestDate_MonthStart(t *testing.T) {
	d, err := ledger.ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01", d.MonthStart().String())
}

func TestDaysBetween(t *testing.T) {
	from, _ := ledger.ParseDate("2024-02-28")
	to, _ := ledger.ParseDate("2024-03-01")

	// Leap year: Feb 29 sits between
	assert.Equal(t, 2, ledger.DaysBetween(from, to))
	assert.Equal(t, -2, ledger.DaysBetween(to, from))
	assert.Equal(t, 0, ledger.DaysBetween(from, from))
}

// =============================================================================
// RANGE TESTS
// =============================================================================

func TestDateRange_Validate(t *testing.T) {
	start, _ := ledger.ParseDate("2024-01-01")
	end, _ := ledger.ParseDate("2024-01-31")

	assert.NoError(t, ledger.DateRange{Start: start, End: end}.Validate())
	assert.NoError(t, ledger.DateRange{Start: start, End: start}.Validate())

	err := ledger.DateRange{Start: end, End: start}.Validate()
	assert.True(t, errors.Is(err, ledger.ErrInvalidRange))
}

func TestDateRange_Contains_InclusiveBothEnds(t *testing.T) {
	start, _ := ledger.ParseDate("2024-01-10")
	end, _ := ledger.ParseDate("2024-01-20")
	rng := ledger.DateRange{Start: start, End: end}

	mid, _ := ledger.ParseDate("2024-01-15")
	before, _ := ledger.ParseDate("2024-01-09")
	after, _ := ledger.ParseDate("2024-01-21")

	assert.True(t, rng.Contains(start))
	assert.True(t, rng.Contains(end))
	assert.True(t, rng.Contains(mid))
	assert.False(t, rng.Contains(before))
	assert.False(t, rng.Contains(after))
}

func TestDateRange_Days(t *testing.T) {
	start, _ := ledger.ParseDate("2024-01-01")
	end, _ := ledger.ParseDate("2024-01-31")
	assert.Equal(t, 31, ledger.DateRange{Start: start, End: end}.Days())
	assert.Equal(t, 1, ledger.DateRange{Start: start, End: start}.Days())
}

func TestThisMonth(t *testing.T) {
	rng := ledger.ThisMonth()
	now := time.Now().UTC()

	assert.Equal(t, 1, rng.Start.Day())
	assert.Equal(t, now.Month(), rng.Start.Month())
	assert.NoError(t, rng.Validate())
}
