package validation

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/domain"
)

// InputRules returns the structural rules for one operation: document rules
// first, then rules common to every operation, then the rules selected by
// the document's business reason.
func InputRules(document *domain.Document, op *domain.ChargeOperation, limits Limits) []RuleContainer {
	rules := documentRules(document)
	rules = append(rules, operationRules(op, limits)...)

	switch document.BusinessReasonCode {
	case domain.BusinessReasonUpdateChargeInformation:
		rules = append(rules, masterDataRules(op, limits)...)
	case domain.BusinessReasonUpdateChargePrices:
		rules = append(rules, priceRules(op, limits)...)
	}

	return forOperation(op.OperationID, rules...)
}

func documentRules(document *domain.Document) []Rule {
	return []Rule{
		NewRule(DocumentTypeMustBeRequestChangeOfPriceList,
			document.Type == domain.DocumentTypeRequestChangeOfPriceList),
		NewRule(BusinessReasonCodeMustBeUpdateChargeInformationOrChargePrices,
			document.BusinessReasonCode.IsKnown()),
		NewRule(SenderIsMandatoryTypeValidation,
			document.Sender.ID != "" && document.Sender.Role.IsKnown()),
		NewRule(RecipientIsMandatoryTypeValidation,
			document.Recipient.ID != "" && document.Recipient.Role.IsKnown()),
	}
}

func operationRules(op *domain.ChargeOperation, limits Limits) []Rule {
	return []Rule{
		NewRule(ChargeOperationIdRequired, strings.TrimSpace(op.OperationID) != ""),
		NewRule(ChargeIdRequiredValidation, strings.TrimSpace(op.ChargeID) != ""),
		NewRule(ChargeIdLengthValidation, utf8.RuneCountInString(op.ChargeID) <= limits.MaxChargeIDLength),
		NewRule(ChargeOwnerIsRequiredValidation, strings.TrimSpace(op.Owner) != ""),
		NewRule(ChargeTypeIsKnownValidation, op.Type.IsKnown()),
		NewRule(StartDateTimeRequiredValidation, !op.StartDateTime.IsZero()),
	}
}

func masterDataRules(op *domain.ChargeOperation, limits Limits) []Rule {
	rules := []Rule{
		NewRule(ChargeNameRequired, op.IsStop() || strings.TrimSpace(op.Name) != ""),
		NewRule(ChargeNameHasMaximumLength, utf8.RuneCountInString(op.Name) <= limits.MaxNameLength),
		NewRule(ChargeDescriptionRequired, op.IsStop() || strings.TrimSpace(op.Description) != ""),
		NewRule(ChargeDescriptionHasMaximumLength, utf8.RuneCountInString(op.Description) <= limits.MaxDescriptionLength),
		NewRule(VatClassificationValidation, op.IsStop() || op.VatClassification.IsKnown()),
		NewRule(EndDateTimeMustBeAfterStartDateTime, endNotBeforeStart(op)),
	}

	switch op.Type {
	case domain.ChargeTypeTariff:
		rules = append(rules, NewRule(ResolutionTariffValidation, isTariffResolution(op.Resolution)))
	case domain.ChargeTypeFee:
		rules = append(rules,
			NewRule(ResolutionFeeValidation, op.Resolution == domain.ResolutionMonthly),
			NewRule(TaxIndicatorMustBeFalseForFee, !op.TaxIndicator),
			NewRule(TransparentInvoicingIsNotAllowedForFee, !op.TransparentInvoicing),
		)
	case domain.ChargeTypeSubscription:
		rules = append(rules,
			NewRule(ResolutionSubscriptionValidation, op.Resolution == domain.ResolutionMonthly),
			NewRule(TaxIndicatorMustBeFalseForSubscription, !op.TaxIndicator),
		)
	}

	return rules
}

func priceRules(op *domain.ChargeOperation, limits Limits) []Rule {
	rules := []Rule{
		NewRule(PricePointsRequired, len(op.Points) > 0),
		NewRule(ChargePriceMaximumDigitsAndDecimals, pricesWithinDigits(op.Points, limits)),
		NewRule(MaximumPrice, pricesBelowMaximum(op.Points, limits.MaxPrice)),
		NewRule(PointPositionsMustBeSequential, positionsSequential(op.Points)),
	}

	if op.Type == domain.ChargeTypeTariff {
		rules = append(rules,
			NewRule(ChargeTypeTariffPriceCount, tariffPriceCountMatches(op, limits.zone())),
			NewRule(PriceListMustStartAndStopAtMidnightValidation, startsAndStopsAtMidnight(op, limits.zone())),
		)
	}

	return rules
}

func endNotBeforeStart(op *domain.ChargeOperation) bool {
	if op.EndDateTime == nil {
		return true
	}
	return !op.EndDateTime.Before(op.StartDateTime)
}

func isTariffResolution(r domain.Resolution) bool {
	switch r {
	case domain.ResolutionQuarterHourly, domain.ResolutionHourly, domain.ResolutionDaily:
		return true
	}
	return false
}

func pricesWithinDigits(points []domain.Point, limits Limits) bool {
	upper := decimal.New(1, limits.MaxPriceDigits)
	for _, p := range points {
		if !p.Price.Truncate(limits.MaxPriceDecimals).Equal(p.Price) {
			return false
		}
		if !p.Price.Abs().LessThan(upper) {
			return false
		}
	}
	return true
}

func pricesBelowMaximum(points []domain.Point, max decimal.Decimal) bool {
	for _, p := range points {
		if p.Price.GreaterThan(max) {
			return false
		}
	}
	return true
}

func positionsSequential(points []domain.Point) bool {
	for i, p := range points {
		if p.Position != i+1 {
			return false
		}
	}
	return true
}

// tariffPriceCountMatches checks that the number of points equals the number
// of resolution steps in the price interval. Daily steps follow the local
// calendar so days with a DST shift still count as one.
func tariffPriceCountMatches(op *domain.ChargeOperation, loc *time.Location) bool {
	step := op.Resolution.Duration()
	if step == 0 {
		return false
	}
	start, end := op.PriceInterval()
	if !end.After(start) {
		return false
	}
	if op.Resolution == domain.ResolutionDaily {
		days := 0
		for t := start.In(loc); t.Before(end); t = t.AddDate(0, 0, 1) {
			days++
		}
		return days == len(op.Points)
	}
	span := end.Sub(start)
	if span%step != 0 {
		return false
	}
	return int(span/step) == len(op.Points)
}

func startsAndStopsAtMidnight(op *domain.ChargeOperation, loc *time.Location) bool {
	start, end := op.PriceInterval()
	return isMidnight(start, loc) && isMidnight(end, loc)
}

func isMidnight(t time.Time, loc *time.Location) bool {
	local := t.In(loc)
	return local.Hour() == 0 && local.Minute() == 0 && local.Second() == 0 && local.Nanosecond() == 0
}
