package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJulianRoundTrip(t *testing.T) {
	now := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)

	for _, year := range []int{1999, 2000, 2023, 2024, 2100} {
		for day := 1; day <= daysIn(year); day++ {
			julian := FormatJulian(time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day-1))

			greg := ToGregorian(julian, now)
			require.False(t, greg.Fallback, "julian %s", julian)

			back := ToJulian(greg.Value, now)
			require.False(t, back.Fallback, "gregorian %s", greg.Value)
			require.Equal(t, julian, back.Value)
		}
	}
}

func TestGregorianRoundTrip(t *testing.T) {
	now := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	start := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

	for d := start; d.Year() < 2025; d = d.AddDate(0, 0, 1) {
		greg := d.Format(GregorianLayout)
		julian := ToJulian(greg, now)
		require.False(t, julian.Fallback)
		require.Equal(t, greg, ToGregorian(julian.Value, now).Value)
	}
}

func TestConversionFallback(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)

	testCases := []struct {
		name  string
		run   func() DateResult
		value string
	}{
		{name: "julian day out of range", run: func() DateResult { return ToGregorian("2023366", now) }, value: "03152024"},
		{name: "julian not numeric", run: func() DateResult { return ToGregorian("20A3001", now) }, value: "03152024"},
		{name: "gregorian impossible date", run: func() DateResult { return ToJulian("02302024", now) }, value: "2024075"},
		{name: "gregorian too short", run: func() DateResult { return ToJulian("0315202", now) }, value: "2024075"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := tc.run()
			assert.True(t, res.Fallback)
			assert.Equal(t, tc.value, res.Value)
		})
	}
}

func TestLeapDay(t *testing.T) {
	now := time.Now()
	assert.Equal(t, "2024060", ToJulian("02292024", now).Value)
	assert.Equal(t, "12312024", ToGregorian("2024366", now).Value)
	assert.True(t, ToJulian("02292023", now).Fallback)
}
