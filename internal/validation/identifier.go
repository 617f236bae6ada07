package validation

import "fmt"

// RuleIdentifier is the stable, machine-checkable identity of a validation
// rule. The numeric codes are part of the outbound contract and must never be
// renumbered.
type RuleIdentifier int

const (
	StartDateValidation                                           RuleIdentifier = 1
	ChargeOwnerIsRequiredValidation                               RuleIdentifier = 2
	ChargeTypeIsKnownValidation                                   RuleIdentifier = 3
	ResolutionTariffValidation                                    RuleIdentifier = 4
	ChargeIdLengthValidation                                      RuleIdentifier = 5
	ChargeIdRequiredValidation                                    RuleIdentifier = 6
	DocumentTypeMustBeRequestChangeOfPriceList                    RuleIdentifier = 7
	BusinessReasonCodeMustBeUpdateChargeInformationOrChargePrices RuleIdentifier = 8
	ChargeDescriptionHasMaximumLength                             RuleIdentifier = 9
	ChargeNameHasMaximumLength                                    RuleIdentifier = 10
	ChargeOperationIdRequired                                     RuleIdentifier = 11
	ChargePriceMaximumDigitsAndDecimals                           RuleIdentifier = 12
	ChargeTypeTariffPriceCount                                    RuleIdentifier = 13
	MaximumPrice                                                  RuleIdentifier = 14
	ResolutionFeeValidation                                       RuleIdentifier = 15
	ResolutionSubscriptionValidation                              RuleIdentifier = 16
	StartDateTimeRequiredValidation                               RuleIdentifier = 17
	ChargeOwnerMustMatchSender                                    RuleIdentifier = 18
	RecipientIsMandatoryTypeValidation                            RuleIdentifier = 19
	SenderIsMandatoryTypeValidation                               RuleIdentifier = 20
	CommandSenderMustBeAnExistingMarketParticipant                RuleIdentifier = 21
	ChargeResolutionCanNotBeUpdated                               RuleIdentifier = 22
	SubsequentBundleOperationsFail                                RuleIdentifier = 23
	TransparentInvoicingIsNotAllowedForFee                        RuleIdentifier = 24
	ChargeDoesNotExist                                            RuleIdentifier = 25
	VatClassificationValidation                                   RuleIdentifier = 26
	TaxIndicatorMustBeFalseForFee                                 RuleIdentifier = 27
	UpdateTaxTariffOnlyAllowedBySystemOperator                    RuleIdentifier = 28
	UpdateChargeMustHaveEffectiveDateBeforeOrOnStopDate           RuleIdentifier = 29
	ChargeNameRequired                                            RuleIdentifier = 30
	ChargeDescriptionRequired                                     RuleIdentifier = 31
	EndDateTimeMustBeAfterStartDateTime                           RuleIdentifier = 32
	PriceListMustStartAndStopAtMidnightValidation                 RuleIdentifier = 33
	PointPositionsMustBeSequential                                RuleIdentifier = 34
	PriceResolutionMustMatchChargeResolution                      RuleIdentifier = 35
	PricePointsRequired                                           RuleIdentifier = 36
	UpdateChargePricesMustStartBeforeStopDate                     RuleIdentifier = 37
	TaxIndicatorMustBeFalseForSubscription                        RuleIdentifier = 38
	ChargeTypeTariffTaxIndicatorOnlyAllowedBySystemOperator       RuleIdentifier = 39
)

var ruleNames = map[RuleIdentifier]string{
	StartDateValidation:                                           "StartDateValidation",
	ChargeOwnerIsRequiredValidation:                               "ChargeOwnerIsRequiredValidation",
	ChargeTypeIsKnownValidation:                                   "ChargeTypeIsKnownValidation",
	ResolutionTariffValidation:                                    "ResolutionTariffValidation",
	ChargeIdLengthValidation:                                      "ChargeIdLengthValidation",
	ChargeIdRequiredValidation:                                    "ChargeIdRequiredValidation",
	DocumentTypeMustBeRequestChangeOfPriceList:                    "DocumentTypeMustBeRequestChangeOfPriceList",
	BusinessReasonCodeMustBeUpdateChargeInformationOrChargePrices: "BusinessReasonCodeMustBeUpdateChargeInformationOrChargePrices",
	ChargeDescriptionHasMaximumLength:                             "ChargeDescriptionHasMaximumLength",
	ChargeNameHasMaximumLength:                                    "ChargeNameHasMaximumLength",
	ChargeOperationIdRequired:                                     "ChargeOperationIdRequired",
	ChargePriceMaximumDigitsAndDecimals:                           "ChargePriceMaximumDigitsAndDecimals",
	ChargeTypeTariffPriceCount:                                    "ChargeTypeTariffPriceCount",
	MaximumPrice:                                                  "MaximumPrice",
	ResolutionFeeValidation:                                       "ResolutionFeeValidation",
	ResolutionSubscriptionValidation:                              "ResolutionSubscriptionValidation",
	StartDateTimeRequiredValidation:                               "StartDateTimeRequiredValidation",
	ChargeOwnerMustMatchSender:                                    "ChargeOwnerMustMatchSender",
	RecipientIsMandatoryTypeValidation:                            "RecipientIsMandatoryTypeValidation",
	SenderIsMandatoryTypeValidation:                               "SenderIsMandatoryTypeValidation",
	CommandSenderMustBeAnExistingMarketParticipant:                "CommandSenderMustBeAnExistingMarketParticipant",
	ChargeResolutionCanNotBeUpdated:                               "ChargeResolutionCanNotBeUpdated",
	SubsequentBundleOperationsFail:                                "SubsequentBundleOperationsFail",
	TransparentInvoicingIsNotAllowedForFee:                        "TransparentInvoicingIsNotAllowedForFee",
	ChargeDoesNotExist:                                            "ChargeDoesNotExist",
	VatClassificationValidation:                                   "VatClassificationValidation",
	TaxIndicatorMustBeFalseForFee:                                 "TaxIndicatorMustBeFalseForFee",
	UpdateTaxTariffOnlyAllowedBySystemOperator:                    "UpdateTaxTariffOnlyAllowedBySystemOperator",
	UpdateChargeMustHaveEffectiveDateBeforeOrOnStopDate:           "UpdateChargeMustHaveEffectiveDateBeforeOrOnStopDate",
	ChargeNameRequired:                                            "ChargeNameRequired",
	ChargeDescriptionRequired:                                     "ChargeDescriptionRequired",
	EndDateTimeMustBeAfterStartDateTime:                           "EndDateTimeMustBeAfterStartDateTime",
	PriceListMustStartAndStopAtMidnightValidation:                 "PriceListMustStartAndStopAtMidnightValidation",
	PointPositionsMustBeSequential:                                "PointPositionsMustBeSequential",
	PriceResolutionMustMatchChargeResolution:                      "PriceResolutionMustMatchChargeResolution",
	PricePointsRequired:                                           "PricePointsRequired",
	UpdateChargePricesMustStartBeforeStopDate:                     "UpdateChargePricesMustStartBeforeStopDate",
	TaxIndicatorMustBeFalseForSubscription:                        "TaxIndicatorMustBeFalseForSubscription",
	ChargeTypeTariffTaxIndicatorOnlyAllowedBySystemOperator:       "ChargeTypeTariffTaxIndicatorOnlyAllowedBySystemOperator",
}

// String returns the name of the identifier, or a numeric placeholder for
// values outside the known set.
func (id RuleIdentifier) String() string {
	if name, ok := ruleNames[id]; ok {
		return name
	}
	return fmt.Sprintf("RuleIdentifier(%d)", int(id))
}

// IsKnown reports whether the identifier belongs to the closed rule set.
func (id RuleIdentifier) IsKnown() bool {
	_, ok := ruleNames[id]
	return ok
}
