package validation

import (
	"time"

	"github.com/ahmadzakiakmal/rf-receiving/repository/models"
)

// ExpirationWarningDays is how close to expiry a received date draws a warning
const ExpirationWarningDays = 30

// WindowCheck describes one date-window evaluation
type WindowCheck struct {
	Date          time.Time
	Reference     time.Time
	YearsBack     int
	PickCode      models.PickCode
	ShelfLifeDays int
}

// WindowResult is the outcome of a date-window evaluation
type WindowResult struct {
	InWindow     bool
	Earliest     time.Time
	Latest       time.Time
	Expiration   time.Time
	ExpiringSoon bool
}

// CheckDateWindow accepts dates in [ref - yearsBack, ref + 1 year]. The
// expiration is the date itself for sell-by products and date + shelf life
// for production and FIFO products.
func CheckDateWindow(c WindowCheck, now time.Time) WindowResult {
	yearsBack := c.YearsBack
	if yearsBack != 2 {
		yearsBack = 1
	}
	ref := truncateDay(c.Reference)
	date := truncateDay(c.Date)

	res := WindowResult{
		Earliest: ref.AddDate(-yearsBack, 0, 0),
		Latest:   ref.AddDate(1, 0, 0),
	}
	res.InWindow = !date.Before(res.Earliest) && !date.After(res.Latest)
	res.Expiration = Expiration(date, c.PickCode, c.ShelfLifeDays)
	res.ExpiringSoon = res.Expiration.Before(truncateDay(now).AddDate(0, 0, ExpirationWarningDays+1))
	return res
}

// Expiration derives the sell-by date of a code date
func Expiration(codeDate time.Time, pick models.PickCode, shelfLifeDays int) time.Time {
	switch pick {
	case models.PickCodeProduction, models.PickCodeFIFO:
		return codeDate.AddDate(0, 0, shelfLifeDays)
	default:
		return codeDate
	}
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
