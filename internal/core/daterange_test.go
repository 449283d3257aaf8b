package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mexicoCity = func() *time.Location {
	loc, err := time.LoadLocation("America/Mexico_City")
	if err != nil {
		return time.FixedZone("CST", -6*3600)
	}
	return loc
}()

func TestResolveDateRange_Month(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name    string
		year    int
		month   int
		wantEnd string
	}{
		{"july", 2023, 7, "2023-07-31"},
		{"leap february", 2024, 2, "2024-02-29"},
		{"common february", 2023, 2, "2023-02-28"},
		{"april", 2025, 4, "2025-04-30"},
		{"december", 2025, 12, "2025-12-31"},
		{"current month is not truncated", 2026, 10, "2026-10-31"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := ResolveDateRange(now, tt.year, tt.month)
			require.NoError(t, err)

			assert.Equal(t, time.Date(tt.year, time.Month(tt.month), 1, 0, 0, 0, 0, time.UTC), r.Start)
			assert.Equal(t, tt.wantEnd, r.EndDay())
			assert.Equal(t, 23, r.End.Hour())
			assert.Equal(t, 59, r.End.Minute())
			assert.Equal(t, 59, r.End.Second())
		})
	}
}

func TestResolveDateRange_CurrentYearStopsToday(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 30, 0, 0, mexicoCity)

	r, err := ResolveDateRange(now, 2026, 0)
	require.NoError(t, err)
	assert.Equal(t, "2026-01-01", r.StartDay())
	assert.Equal(t, "2026-10-15", r.EndDay())
	assert.Equal(t, time.Date(2026, 10, 15, 23, 59, 59, 0, mexicoCity), r.End)

	// omitted year behaves like the current year
	r, err = ResolveDateRange(now, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "2026-10-15", r.EndDay())
}

func TestResolveDateRange_PastYearIsFullYear(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

	for _, year := range []int{2020, 2024, 2025} {
		r, err := ResolveDateRange(now, year, 0)
		require.NoError(t, err)
		assert.Equal(t, time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC), r.Start)
		assert.Equal(t, time.Date(year, 12, 31, 23, 59, 59, 0, time.UTC), r.End)
	}
}

func TestResolveDateRange_FutureYearIsFullYear(t *testing.T) {
	now := time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

	r, err := ResolveDateRange(now, 2027, 0)
	require.NoError(t, err)
	assert.Equal(t, "2027-12-31", r.EndDay())
}

func TestResolveDateRange_Invalid(t *testing.T) {
	now := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

	_, err := ResolveDateRange(now, 2025, 13)
	assert.ErrorIs(t, err, ErrInvalidMonth)

	_, err = ResolveDateRange(now, 2025, -1)
	assert.ErrorIs(t, err, ErrInvalidMonth)

	_, err = ResolveDateRange(now, -2025, 1)
	assert.ErrorIs(t, err, ErrInvalidYear)
}

func TestFullYearRange(t *testing.T) {
	r := FullYearRange(2026, time.UTC)
	assert.Equal(t, "2026-01-01", r.StartDay())
	assert.Equal(t, "2026-12-31", r.EndDay())
	assert.True(t, r.Contains(time.Date(2026, 12, 31, 18, 0, 0, 0, time.UTC)))
	assert.False(t, r.Contains(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestMonthsToConsider(t *testing.T) {
	now := time.Date(2026, 4, 3, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 4, MonthsToConsider(now, 2026))
	assert.Equal(t, 4, MonthsToConsider(now, 0))
	assert.Equal(t, 12, MonthsToConsider(now, 2025))
}
