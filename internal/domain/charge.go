package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Charge is the persisted aggregate that operations act on.
type Charge struct {
	ID                     uuid.UUID
	SenderProvidedChargeID string
	Type                   ChargeType
	Owner                  string
	Resolution             Resolution
	TaxIndicator           bool
	Periods                []ChargePeriod // Ordered by StartDateTime
	Points                 []Point        // Ordered by Time
	Version                int            // Incremented on every persisted update
}

// ChargePeriod holds the master data valid from StartDateTime until EndDateTime.
type ChargePeriod struct {
	Name                 string
	Description          string
	VatClassification    VatClassification
	TransparentInvoicing bool
	StartDateTime        time.Time
	EndDateTime          time.Time
}

// EndOfTime marks a period without a stop date.
var EndOfTime = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

// NewCharge creates a charge from a master-data operation.
func NewCharge(op *ChargeOperation) *Charge {
	c := &Charge{
		ID:                     uuid.New(),
		SenderProvidedChargeID: op.ChargeID,
		Type:                   op.Type,
		Owner:                  op.Owner,
		Resolution:             op.Resolution,
		TaxIndicator:           op.TaxIndicator,
	}
	c.Periods = []ChargePeriod{PeriodFromOperation(op)}
	return c
}

// PeriodFromOperation builds the master-data period described by an operation.
func PeriodFromOperation(op *ChargeOperation) ChargePeriod {
	end := EndOfTime
	if op.EndDateTime != nil {
		end = *op.EndDateTime
	}
	return ChargePeriod{
		Name:                 op.Name,
		Description:          op.Description,
		VatClassification:    op.VatClassification,
		TransparentInvoicing: op.TransparentInvoicing,
		StartDateTime:        op.StartDateTime,
		EndDateTime:          end,
	}
}

// Identifier returns the natural key of the charge.
func (c *Charge) Identifier() ChargeIdentifier {
	return ChargeIdentifier{SenderProvidedChargeID: c.SenderProvidedChargeID, Type: c.Type, Owner: c.Owner}
}

// StopDate returns the end of the last period, or nil when the charge runs
// until further notice.
func (c *Charge) StopDate() *time.Time {
	if len(c.Periods) == 0 {
		return nil
	}
	end := c.Periods[len(c.Periods)-1].EndDateTime
	if end.Equal(EndOfTime) {
		return nil
	}
	return &end
}

// Update inserts a new period starting at period.StartDateTime. Periods that
// start on or after the new period are replaced; an overlapping earlier period
// is truncated at the new start.
func (c *Charge) Update(period ChargePeriod, taxIndicator bool) {
	kept := make([]ChargePeriod, 0, len(c.Periods)+1)
	for _, p := range c.Periods {
		if !p.StartDateTime.Before(period.StartDateTime) {
			continue
		}
		if p.EndDateTime.After(period.StartDateTime) {
			p.EndDateTime = period.StartDateTime
		}
		kept = append(kept, p)
	}
	c.Periods = append(kept, period)
	c.TaxIndicator = taxIndicator
}

// Stop terminates the charge at stopDate. Periods starting on or after the
// stop date are removed and prices from the stop date onwards are dropped.
func (c *Charge) Stop(stopDate time.Time) {
	kept := make([]ChargePeriod, 0, len(c.Periods))
	for _, p := range c.Periods {
		if !p.StartDateTime.Before(stopDate) {
			continue
		}
		if p.EndDateTime.After(stopDate) {
			p.EndDateTime = stopDate
		}
		kept = append(kept, p)
	}
	c.Periods = kept

	points := c.Points[:0:0]
	for _, p := range c.Points {
		if p.Time.Before(stopDate) {
			points = append(points, p)
		}
	}
	c.Points = points
}

// UpdatePrices replaces all points inside [start, end) with the given points.
func (c *Charge) UpdatePrices(start, end time.Time, points []Point) {
	kept := make([]Point, 0, len(c.Points)+len(points))
	for _, p := range c.Points {
		if !p.Time.Before(start) && p.Time.Before(end) {
			continue
		}
		kept = append(kept, p)
	}
	kept = append(kept, points...)
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Time.Before(kept[j].Time) })
	c.Points = kept
}
