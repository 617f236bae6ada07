package availabledata

import (
	"strings"

	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/domain"
	"github.com/spbu-ds-practicum-2025/example-project/services/charges-service/internal/validation"
)

// reasonTexts maps rule identifiers to the text sent back with a rejection.
// Placeholders: {ChargeId}, {OperationId}, {TriggeredBy}.
var reasonTexts = map[validation.RuleIdentifier]string{
	validation.StartDateValidation:                                           "Effective date of charge {ChargeId} is outside the allowed interval",
	validation.ChargeOwnerIsRequiredValidation:                               "Owner is missing for charge {ChargeId}",
	validation.ChargeTypeIsKnownValidation:                                   "Charge type of charge {ChargeId} is unknown",
	validation.ResolutionTariffValidation:                                    "Resolution of tariff {ChargeId} must be PT15M, PT1H or P1D",
	validation.ChargeIdLengthValidation:                                      "Charge id {ChargeId} is longer than allowed",
	validation.ChargeIdRequiredValidation:                                    "Charge id is missing in operation {OperationId}",
	validation.DocumentTypeMustBeRequestChangeOfPriceList:                    "Document type must be request change of price list",
	validation.BusinessReasonCodeMustBeUpdateChargeInformationOrChargePrices: "Business reason must be update charge information or update charge prices",
	validation.ChargeDescriptionHasMaximumLength:                             "Description of charge {ChargeId} is longer than allowed",
	validation.ChargeNameHasMaximumLength:                                    "Name of charge {ChargeId} is longer than allowed",
	validation.ChargeOperationIdRequired:                                     "Operation id is missing for charge {ChargeId}",
	validation.ChargePriceMaximumDigitsAndDecimals:                           "A price of charge {ChargeId} has too many digits or decimals",
	validation.ChargeTypeTariffPriceCount:                                    "Number of prices of tariff {ChargeId} does not match the resolution and interval",
	validation.MaximumPrice:                                                  "A price of charge {ChargeId} exceeds the maximum price",
	validation.ResolutionFeeValidation:                                       "Resolution of fee {ChargeId} must be P1M",
	validation.ResolutionSubscriptionValidation:                              "Resolution of subscription {ChargeId} must be P1M",
	validation.StartDateTimeRequiredValidation:                               "Effective date is missing for charge {ChargeId}",
	validation.ChargeOwnerMustMatchSender:                                    "Owner of charge {ChargeId} does not match the sender",
	validation.RecipientIsMandatoryTypeValidation:                            "Recipient is missing or has an unknown role",
	validation.SenderIsMandatoryTypeValidation:                               "Sender is missing or has an unknown role",
	validation.CommandSenderMustBeAnExistingMarketParticipant:                "Sender is not an active market participant",
	validation.ChargeResolutionCanNotBeUpdated:                               "Resolution of charge {ChargeId} cannot be changed",
	validation.SubsequentBundleOperationsFail:                                "Operation {OperationId} was rejected because operation {TriggeredBy} earlier in the bundle failed",
	validation.TransparentInvoicingIsNotAllowedForFee:                        "Transparent invoicing is not allowed for fee {ChargeId}",
	validation.ChargeDoesNotExist:                                            "Charge {ChargeId} does not exist",
	validation.VatClassificationValidation:                                   "VAT classification of charge {ChargeId} is unknown",
	validation.TaxIndicatorMustBeFalseForFee:                                 "Tax indicator must be false for fee {ChargeId}",
	validation.UpdateTaxTariffOnlyAllowedBySystemOperator:                    "Only the system operator may update tax tariff {ChargeId}",
	validation.UpdateChargeMustHaveEffectiveDateBeforeOrOnStopDate:           "Effective date of charge {ChargeId} is after its stop date",
	validation.ChargeNameRequired:                                            "Name is missing for charge {ChargeId}",
	validation.ChargeDescriptionRequired:                                     "Description is missing for charge {ChargeId}",
	validation.EndDateTimeMustBeAfterStartDateTime:                           "Stop date of charge {ChargeId} is before its effective date",
	validation.PriceListMustStartAndStopAtMidnightValidation:                 "Price list of tariff {ChargeId} must start and stop at midnight",
	validation.PointPositionsMustBeSequential:                                "Price positions of charge {ChargeId} must be sequential from 1",
	validation.PriceResolutionMustMatchChargeResolution:                      "Price resolution does not match the resolution of charge {ChargeId}",
	validation.PricePointsRequired:                                           "Prices are missing for charge {ChargeId}",
	validation.UpdateChargePricesMustStartBeforeStopDate:                     "Prices of charge {ChargeId} start after its stop date",
	validation.TaxIndicatorMustBeFalseForSubscription:                        "Tax indicator must be false for subscription {ChargeId}",
	validation.ChargeTypeTariffTaxIndicatorOnlyAllowedBySystemOperator:       "Only the system operator may create tax tariff {ChargeId}",
}

// reasonText renders the text for a failed rule of an operation.
func reasonText(rule domain.RejectionRule, op *domain.ChargeOperation) string {
	template, ok := reasonTexts[validation.RuleIdentifier(rule.Code)]
	if !ok {
		template = "Operation {OperationId} failed rule " + rule.Name
	}
	return strings.NewReplacer(
		"{ChargeId}", op.ChargeID,
		"{OperationId}", op.OperationID,
		"{TriggeredBy}", rule.TriggeredBy,
	).Replace(template)
}
