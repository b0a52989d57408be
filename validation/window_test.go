package validation

import (
	"testing"
	"time"

	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
	"github.com/stretchr/testify/assert"
)

func TestCheckDateWindow(t *testing.T) {
	now := time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)
	day := func(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

	testCases := []struct {
		name         string
		check        WindowCheck
		inWindow     bool
		expiringSoon bool
	}{
		{
			name:     "sell-by well ahead",
			check:    WindowCheck{Date: day(2024, time.December, 1), YearsBack: 1, PickCode: models.PickCodeSellBy},
			inWindow: true,
		},
		{
			name:         "sell-by within thirty days",
			check:        WindowCheck{Date: day(2024, time.June, 20), YearsBack: 1, PickCode: models.PickCodeSellBy},
			inWindow:     true,
			expiringSoon: true,
		},
		{
			name:     "beyond one year ahead",
			check:    WindowCheck{Date: day(2025, time.June, 2), YearsBack: 1, PickCode: models.PickCodeSellBy},
			inWindow: false,
		},
		{
			name:     "production date two years back allowed",
			check:    WindowCheck{Date: day(2022, time.July, 1), YearsBack: 2, PickCode: models.PickCodeProduction, ShelfLifeDays: 1000},
			inWindow: true,
		},
		{
			name:         "production date older than one year",
			check:        WindowCheck{Date: day(2023, time.May, 1), YearsBack: 1, PickCode: models.PickCodeProduction, ShelfLifeDays: 30},
			inWindow:     false,
			expiringSoon: true,
		},
		{
			name:     "fifo uses shelf life",
			check:    WindowCheck{Date: day(2024, time.May, 1), YearsBack: 1, PickCode: models.PickCodeFIFO, ShelfLifeDays: 365},
			inWindow: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.check.Reference = now
			res := CheckDateWindow(tc.check, now)
			assert.Equal(t, tc.inWindow, res.InWindow, "window %s..%s", res.Earliest, res.Latest)
			assert.Equal(t, tc.expiringSoon, res.ExpiringSoon, "expiration %s", res.Expiration)
		})
	}
}

func TestExpiration(t *testing.T) {
	d := time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, d, Expiration(d, models.PickCodeSellBy, 90))
	assert.Equal(t, d.AddDate(0, 0, 90), Expiration(d, models.PickCodeProduction, 90))
}
