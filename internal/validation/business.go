package validation

import (
	"context"
	"fmt"
	"time"

	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/domain"
)

// Lookup resolves the persisted state business rules depend on. Absent
// entities are reported as nil without an error.
type Lookup interface {
	MarketParticipant(ctx context.Context, marketParticipantID string) (*domain.MarketParticipant, error)
	Charge(ctx context.Context, id domain.ChargeIdentifier) (*domain.Charge, error)
}

// BusinessRules returns the semantic rules for one operation. Lookups are
// awaited one at a time; a lookup error is returned as is and aborts the
// bundle, an absent entity becomes a failing rule.
func BusinessRules(
	ctx context.Context,
	document *domain.Document,
	op *domain.ChargeOperation,
	lookup Lookup,
	clock Clock,
	limits Limits,
) ([]RuleContainer, error) {
	sender, err := lookup.MarketParticipant(ctx, document.Sender.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up sender %s: %w", document.Sender.ID, err)
	}

	charge, err := lookup.Charge(ctx, op.Identifier())
	if err != nil {
		return nil, fmt.Errorf("failed to look up charge %s: %w", op.Identifier(), err)
	}

	rules := []Rule{
		NewRule(CommandSenderMustBeAnExistingMarketParticipant, sender != nil && sender.IsActive),
		NewRule(ChargeOwnerMustMatchSender, op.Owner == document.Sender.ID),
	}

	switch document.BusinessReasonCode {
	case domain.BusinessReasonUpdateChargeInformation:
		rules = append(rules, masterDataBusinessRules(document, op, charge, clock, limits)...)
	case domain.BusinessReasonUpdateChargePrices:
		rules = append(rules, priceBusinessRules(op, charge)...)
	}

	return forOperation(op.OperationID, rules...), nil
}

func masterDataBusinessRules(
	document *domain.Document,
	op *domain.ChargeOperation,
	charge *domain.Charge,
	clock Clock,
	limits Limits,
) []Rule {
	isSystemOperator := document.Sender.Role == domain.RoleSystemOperator

	rules := []Rule{
		NewRule(StartDateValidation, startDateWithinWindow(op.StartDateTime, clock.Now(), limits)),
	}

	if charge == nil {
		// A stop can only target a charge that exists.
		return append(rules,
			NewRule(ChargeDoesNotExist, !op.IsStop()),
			NewRule(ChargeTypeTariffTaxIndicatorOnlyAllowedBySystemOperator, !op.TaxIndicator || isSystemOperator),
		)
	}

	stop := charge.StopDate()
	return append(rules,
		NewRule(ChargeResolutionCanNotBeUpdated, op.IsStop() || op.Resolution == charge.Resolution),
		NewRule(UpdateTaxTariffOnlyAllowedBySystemOperator,
			isSystemOperator || (!charge.TaxIndicator && !op.TaxIndicator)),
		NewRule(UpdateChargeMustHaveEffectiveDateBeforeOrOnStopDate,
			stop == nil || !op.StartDateTime.After(*stop)),
	)
}

func priceBusinessRules(op *domain.ChargeOperation, charge *domain.Charge) []Rule {
	if charge == nil {
		return []Rule{NewRule(ChargeDoesNotExist, false)}
	}

	start, _ := op.PriceInterval()
	stop := charge.StopDate()
	return []Rule{
		NewRule(ChargeDoesNotExist, true),
		NewRule(PriceResolutionMustMatchChargeResolution, op.Resolution == charge.Resolution),
		NewRule(UpdateChargePricesMustStartBeforeStopDate, stop == nil || start.Before(*stop)),
	}
}

// startDateWithinWindow checks the effective date against a window of whole
// days around today in the configured zone.
func startDateWithinWindow(start, now time.Time, limits Limits) bool {
	loc := limits.zone()
	local := now.In(loc)
	today := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	earliest := today.AddDate(0, 0, -limits.StartDateDaysBefore)
	latest := today.AddDate(0, 0, limits.StartDateDaysAfter+1)
	return !start.Before(earliest) && start.Before(latest)
}
