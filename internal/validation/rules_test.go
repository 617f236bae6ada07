package validation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/domain"
)

const (
	owner          = "5790000000001"
	systemOperator = "5790000432752"
)

func utcLimits() Limits {
	l := DefaultLimits()
	l.TimeZone = time.UTC
	return l
}

func masterDataDocument() *domain.Document {
	return &domain.Document{
		ID:                 "doc-1",
		Type:               domain.DocumentTypeRequestChangeOfPriceList,
		BusinessReasonCode: domain.BusinessReasonUpdateChargeInformation,
		Sender:             domain.MarketParticipantRef{ID: owner, Role: domain.RoleGridAccessProvider},
		Recipient:          domain.MarketParticipantRef{ID: systemOperator, Role: domain.RoleSystemOperator},
	}
}

func priceDocument() *domain.Document {
	d := masterDataDocument()
	d.BusinessReasonCode = domain.BusinessReasonUpdateChargePrices
	return d
}

func validTariff() *domain.ChargeOperation {
	return &domain.ChargeOperation{
		OperationID:       "op-1",
		ChargeID:          "TAR-1",
		Owner:             owner,
		Type:              domain.ChargeTypeTariff,
		Name:              "Net tariff",
		Description:       "Daily net tariff",
		Resolution:        domain.ResolutionDaily,
		VatClassification: domain.VatClassificationVat25,
		StartDateTime:     time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
	}
}

func dailyPrices(op *domain.ChargeOperation, days int) *domain.ChargeOperation {
	op.Points = nil
	for i := 0; i < days; i++ {
		op.Points = append(op.Points, domain.Point{
			Position: i + 1,
			Price:    decimal.RequireFromString("1.25"),
			Time:     op.StartDateTime.AddDate(0, 0, i),
		})
	}
	return op
}

func failed(containers []RuleContainer) []RuleIdentifier {
	var ids []RuleIdentifier
	for _, c := range Evaluate(containers).InvalidRules() {
		ids = append(ids, c.Rule.Identifier())
	}
	return ids
}

func TestInputRules(t *testing.T) {
	tests := []struct {
		name     string
		document func() *domain.Document
		op       func() *domain.ChargeOperation
		want     []RuleIdentifier
	}{
		{
			name:     "valid tariff master data",
			document: masterDataDocument,
			op:       validTariff,
		},
		{
			name:     "missing owner",
			document: masterDataDocument,
			op: func() *domain.ChargeOperation {
				op := validTariff()
				op.Owner = " "
				return op
			},
			want: []RuleIdentifier{ChargeOwnerIsRequiredValidation},
		},
		{
			name: "wrong document type",
			document: func() *domain.Document {
				d := masterDataDocument()
				d.Type = "D05"
				return d
			},
			op:   validTariff,
			want: []RuleIdentifier{DocumentTypeMustBeRequestChangeOfPriceList},
		},
		{
			name:     "charge id too long",
			document: masterDataDocument,
			op: func() *domain.ChargeOperation {
				op := validTariff()
				op.ChargeID = "TARIFF-12345"
				return op
			},
			want: []RuleIdentifier{ChargeIdLengthValidation},
		},
		{
			name:     "fee with hourly resolution and tax",
			document: masterDataDocument,
			op: func() *domain.ChargeOperation {
				op := validTariff()
				op.Type = domain.ChargeTypeFee
				op.Resolution = domain.ResolutionHourly
				op.TaxIndicator = true
				op.TransparentInvoicing = true
				return op
			},
			want: []RuleIdentifier{ResolutionFeeValidation, TaxIndicatorMustBeFalseForFee, TransparentInvoicingIsNotAllowedForFee},
		},
		{
			name:     "stop does not need name or description",
			document: masterDataDocument,
			op: func() *domain.ChargeOperation {
				op := validTariff()
				op.Name, op.Description, op.VatClassification = "", "", ""
				op.EndDateTime = &op.StartDateTime
				return op
			},
		},
		{
			name:     "end before start",
			document: masterDataDocument,
			op: func() *domain.ChargeOperation {
				op := validTariff()
				end := op.StartDateTime.Add(-time.Hour)
				op.EndDateTime = &end
				return op
			},
			want: []RuleIdentifier{EndDateTimeMustBeAfterStartDateTime},
		},
		{
			name:     "valid daily prices",
			document: priceDocument,
			op:       func() *domain.ChargeOperation { return dailyPrices(validTariff(), 30) },
		},
		{
			name:     "missing prices",
			document: priceDocument,
			op:       validTariff,
			want:     []RuleIdentifier{PricePointsRequired, ChargeTypeTariffPriceCount},
		},
		{
			name:     "price with too many decimals and above maximum",
			document: priceDocument,
			op: func() *domain.ChargeOperation {
				op := dailyPrices(validTariff(), 2)
				op.Points[0].Price = decimal.RequireFromString("0.1234567")
				op.Points[1].Price = decimal.RequireFromString("1000001")
				return op
			},
			want: []RuleIdentifier{ChargePriceMaximumDigitsAndDecimals, MaximumPrice},
		},
		{
			name:     "positions not sequential",
			document: priceDocument,
			op: func() *domain.ChargeOperation {
				op := dailyPrices(validTariff(), 3)
				op.Points[2].Position = 5
				return op
			},
			want: []RuleIdentifier{PointPositionsMustBeSequential},
		},
		{
			name:     "price interval not at midnight",
			document: priceDocument,
			op: func() *domain.ChargeOperation {
				op := validTariff()
				op.StartDateTime = op.StartDateTime.Add(time.Hour)
				return dailyPrices(op, 3)
			},
			want: []RuleIdentifier{PriceListMustStartAndStopAtMidnightValidation},
		},
		{
			name:     "explicit interval does not match price count",
			document: priceDocument,
			op: func() *domain.ChargeOperation {
				op := dailyPrices(validTariff(), 3)
				op.PointsStartInterval = op.StartDateTime
				op.PointsEndInterval = op.StartDateTime.AddDate(0, 0, 4)
				return op
			},
			want: []RuleIdentifier{ChargeTypeTariffPriceCount},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := failed(InputRules(tt.document(), tt.op(), utcLimits()))
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("rule %d: expected %s, got %s", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestTariffPriceCountAcrossDaylightSaving(t *testing.T) {
	limits := DefaultLimits()
	if limits.TimeZone == time.UTC {
		t.Skip("time zone database not available")
	}

	// 2026-03-29 is 23 hours long in Copenhagen.
	start := time.Date(2026, 3, 29, 0, 0, 0, 0, limits.TimeZone)
	op := validTariff()
	op.Resolution = domain.ResolutionHourly
	op.StartDateTime = start.UTC()
	op.PointsEndInterval = start.AddDate(0, 0, 1).UTC()
	for i := 0; i < 23; i++ {
		op.Points = append(op.Points, domain.Point{Position: i + 1, Price: decimal.NewFromInt(1), Time: op.StartDateTime.Add(time.Duration(i) * time.Hour)})
	}

	if got := failed(InputRules(priceDocument(), op, limits)); len(got) != 0 {
		t.Errorf("expected 23 hourly prices to be valid on the short day, got %v", got)
	}
}

type fakeLookup struct {
	participants map[string]*domain.MarketParticipant
	charges      map[domain.ChargeIdentifier]*domain.Charge
	err          error
}

func (f *fakeLookup) MarketParticipant(_ context.Context, id string) (*domain.MarketParticipant, error) {
	return f.participants[id], f.err
}

func (f *fakeLookup) Charge(_ context.Context, id domain.ChargeIdentifier) (*domain.Charge, error) {
	return f.charges[id], nil
}

func newLookup(charges ...*domain.Charge) *fakeLookup {
	l := &fakeLookup{
		participants: map[string]*domain.MarketParticipant{
			owner:          {ID: uuid.New(), MarketParticipantID: owner, Role: domain.RoleGridAccessProvider, IsActive: true},
			systemOperator: {ID: uuid.New(), MarketParticipantID: systemOperator, Role: domain.RoleSystemOperator, IsActive: true},
		},
		charges: make(map[domain.ChargeIdentifier]*domain.Charge),
	}
	for _, c := range charges {
		l.charges[c.Identifier()] = c
	}
	return l
}

func TestBusinessRules(t *testing.T) {
	now := FixedClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	stopped := domain.NewCharge(validTariff())
	stopped.Stop(time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name     string
		document func() *domain.Document
		op       func() *domain.ChargeOperation
		lookup   *fakeLookup
		want     []RuleIdentifier
	}{
		{
			name:     "new charge",
			document: masterDataDocument,
			op:       validTariff,
			lookup:   newLookup(),
		},
		{
			name:     "unknown sender",
			document: masterDataDocument,
			op:       validTariff,
			lookup:   &fakeLookup{},
			want:     []RuleIdentifier{CommandSenderMustBeAnExistingMarketParticipant},
		},
		{
			name:     "owner differs from sender",
			document: masterDataDocument,
			op: func() *domain.ChargeOperation {
				op := validTariff()
				op.Owner = systemOperator
				return op
			},
			lookup: newLookup(),
			want:   []RuleIdentifier{ChargeOwnerMustMatchSender},
		},
		{
			name:     "start date too far in the future",
			document: masterDataDocument,
			op: func() *domain.ChargeOperation {
				op := validTariff()
				op.StartDateTime = time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
				return op
			},
			lookup: newLookup(),
			want:   []RuleIdentifier{StartDateValidation},
		},
		{
			name:     "tax tariff created by grid operator",
			document: masterDataDocument,
			op: func() *domain.ChargeOperation {
				op := validTariff()
				op.TaxIndicator = true
				return op
			},
			lookup: newLookup(),
			want:   []RuleIdentifier{ChargeTypeTariffTaxIndicatorOnlyAllowedBySystemOperator},
		},
		{
			name:     "stop of missing charge",
			document: masterDataDocument,
			op: func() *domain.ChargeOperation {
				op := validTariff()
				op.EndDateTime = &op.StartDateTime
				return op
			},
			lookup: newLookup(),
			want:   []RuleIdentifier{ChargeDoesNotExist},
		},
		{
			name:     "resolution change",
			document: masterDataDocument,
			op: func() *domain.ChargeOperation {
				op := validTariff()
				op.Resolution = domain.ResolutionHourly
				return op
			},
			lookup: newLookup(domain.NewCharge(validTariff())),
			want:   []RuleIdentifier{ChargeResolutionCanNotBeUpdated},
		},
		{
			name:     "update after stop date",
			document: masterDataDocument,
			op: func() *domain.ChargeOperation {
				op := validTariff()
				op.StartDateTime = time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
				return op
			},
			lookup: newLookup(stopped),
			want:   []RuleIdentifier{UpdateChargeMustHaveEffectiveDateBeforeOrOnStopDate},
		},
		{
			name:     "prices for missing charge",
			document: priceDocument,
			op:       func() *domain.ChargeOperation { return dailyPrices(validTariff(), 2) },
			lookup:   newLookup(),
			want:     []RuleIdentifier{ChargeDoesNotExist},
		},
		{
			name:     "prices after stop date",
			document: priceDocument,
			op: func() *domain.ChargeOperation {
				op := validTariff()
				op.StartDateTime = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
				return dailyPrices(op, 2)
			},
			lookup: newLookup(stopped),
			want:   []RuleIdentifier{UpdateChargePricesMustStartBeforeStopDate},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules, err := BusinessRules(context.Background(), tt.document(), tt.op(), tt.lookup, now, utcLimits())
			if err != nil {
				t.Fatalf("BusinessRules failed: %v", err)
			}
			got := failed(rules)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("rule %d: expected %s, got %s", i, tt.want[i], got[i])
				}
			}
		})
	}
}

func TestBusinessRulesPropagatesLookupErrors(t *testing.T) {
	boom := errors.New("db unavailable")
	lookup := newLookup()
	lookup.err = boom

	_, err := BusinessRules(context.Background(), masterDataDocument(), validTariff(), lookup, SystemClock{}, utcLimits())
	if !errors.Is(err, boom) {
		t.Errorf("expected lookup error, got %v", err)
	}
}
