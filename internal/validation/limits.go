package validation

import (
	"time"

	"github.com/shopspring/decimal"
)

// Clock supplies the current time to time-dependent rules.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// FixedClock always returns the same instant. Useful in tests and replays.
type FixedClock time.Time

func (c FixedClock) Now() time.Time { return time.Time(c) }

// Limits holds the tunable thresholds used by the rules.
type Limits struct {
	StartDateDaysBefore  int             // How far back an effective date may lie
	StartDateDaysAfter   int             // How far ahead an effective date may lie
	MaxChargeIDLength    int             // Characters
	MaxNameLength        int             // Characters
	MaxDescriptionLength int             // Characters
	MaxPriceDigits       int32           // Integer digits of a price
	MaxPriceDecimals     int32           // Fractional digits of a price
	MaxPrice             decimal.Decimal // Inclusive upper bound of a price
	TimeZone             *time.Location  // Zone in which price lists must start and stop at midnight
}

// DefaultLimits returns the limits used in production.
func DefaultLimits() Limits {
	loc, err := time.LoadLocation("Europe/Copenhagen")
	if err != nil {
		loc = time.UTC
	}
	return Limits{
		StartDateDaysBefore:  720,
		StartDateDaysAfter:   1095,
		MaxChargeIDLength:    10,
		MaxNameLength:        132,
		MaxDescriptionLength: 2048,
		MaxPriceDigits:       8,
		MaxPriceDecimals:     6,
		MaxPrice:             decimal.NewFromInt(1_000_000),
		TimeZone:             loc,
	}
}

func (l Limits) zone() *time.Location {
	if l.TimeZone == nil {
		return time.UTC
	}
	return l.TimeZone
}
