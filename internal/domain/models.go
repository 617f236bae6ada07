package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ChargeType identifies the kind of charge an operation targets.
type ChargeType string

const (
	ChargeTypeSubscription ChargeType = "D01"
	ChargeTypeFee          ChargeType = "D02"
	ChargeTypeTariff       ChargeType = "D03"
)

// IsKnown reports whether the charge type is one of the supported codes.
func (t ChargeType) IsKnown() bool {
	switch t {
	case ChargeTypeSubscription, ChargeTypeFee, ChargeTypeTariff:
		return true
	}
	return false
}

func (t ChargeType) String() string { return string(t) }

// Resolution is the duration covered by a single price point.
type Resolution string

const (
	ResolutionQuarterHourly Resolution = "PT15M"
	ResolutionHourly        Resolution = "PT1H"
	ResolutionDaily         Resolution = "P1D"
	ResolutionMonthly       Resolution = "P1M"
)

// IsKnown reports whether the resolution is one of the supported codes.
func (r Resolution) IsKnown() bool {
	switch r {
	case ResolutionQuarterHourly, ResolutionHourly, ResolutionDaily, ResolutionMonthly:
		return true
	}
	return false
}

// Duration returns the fixed length of one point for the resolution.
// Monthly resolution has no fixed length and returns zero.
func (r Resolution) Duration() time.Duration {
	switch r {
	case ResolutionQuarterHourly:
		return 15 * time.Minute
	case ResolutionHourly:
		return time.Hour
	case ResolutionDaily:
		return 24 * time.Hour
	default:
		return 0
	}
}

func (r Resolution) String() string { return string(r) }

// VatClassification describes the VAT applied to a charge.
type VatClassification string

const (
	VatClassificationNoVat VatClassification = "D01"
	VatClassificationVat25 VatClassification = "D02"
)

// IsKnown reports whether the VAT classification is supported.
func (v VatClassification) IsKnown() bool {
	return v == VatClassificationNoVat || v == VatClassificationVat25
}

// BusinessReasonCode is the declared intent of a document. It selects the
// rule set that applies to every operation in the bundle.
type BusinessReasonCode string

const (
	// BusinessReasonUpdateChargeInformation is a master-data update.
	BusinessReasonUpdateChargeInformation BusinessReasonCode = "D18"

	// BusinessReasonUpdateChargePrices is a price series update.
	BusinessReasonUpdateChargePrices BusinessReasonCode = "D08"
)

// IsKnown reports whether the business reason is supported.
func (c BusinessReasonCode) IsKnown() bool {
	return c == BusinessReasonUpdateChargeInformation || c == BusinessReasonUpdateChargePrices
}

func (c BusinessReasonCode) String() string { return string(c) }

// DocumentType is the CIM document type of an inbound document.
type DocumentType string

// DocumentTypeRequestChangeOfPriceList is the only inbound document type accepted.
const DocumentTypeRequestChangeOfPriceList DocumentType = "D10"

// MarketParticipantRole is the business process role a market participant acts in.
type MarketParticipantRole string

const (
	RoleGridAccessProvider         MarketParticipantRole = "DDM"
	RoleSystemOperator             MarketParticipantRole = "EZ"
	RoleEnergySupplier             MarketParticipantRole = "DDQ"
	RoleMeteringPointAdministrator MarketParticipantRole = "DDZ"
)

// IsKnown reports whether the role is supported.
func (r MarketParticipantRole) IsKnown() bool {
	switch r {
	case RoleGridAccessProvider, RoleSystemOperator, RoleEnergySupplier, RoleMeteringPointAdministrator:
		return true
	}
	return false
}

// ChargeIdentifier is the natural key of a charge: the owner, the type and
// the id provided by the sender.
type ChargeIdentifier struct {
	SenderProvidedChargeID string
	Type                   ChargeType
	Owner                  string
}

func (id ChargeIdentifier) String() string {
	return fmt.Sprintf("%s/%s/%s", id.Owner, id.Type, id.SenderProvidedChargeID)
}

// Point is a single price at a position in a price series.
type Point struct {
	Position int             `json:"position"`
	Price    decimal.Decimal `json:"price"`
	Time     time.Time       `json:"time"`
}

// MarketParticipantRef identifies the sender or recipient of a document.
type MarketParticipantRef struct {
	ID   string                `json:"id"`   // GLN/EIC market participant id
	Role MarketParticipantRole `json:"role"` // Business process role
}

// Document is the envelope shared by all operations in a bundle.
type Document struct {
	ID                 string               `json:"id"`
	Type               DocumentType         `json:"type"`
	BusinessReasonCode BusinessReasonCode   `json:"businessReasonCode"`
	Sender             MarketParticipantRef `json:"sender"`
	Recipient          MarketParticipantRef `json:"recipient"`
	CreatedDateTime    time.Time            `json:"createdDateTime"`
}

// IsPriceUpdate reports whether the document carries price series operations.
func (d *Document) IsPriceUpdate() bool {
	return d.BusinessReasonCode == BusinessReasonUpdateChargePrices
}

// ChargeOperation is one atomic change request inside a bundle.
// Operations are treated as immutable once constructed.
type ChargeOperation struct {
	OperationID          string            `json:"operationId"`
	ChargeID             string            `json:"chargeId"`
	Owner                string            `json:"owner"`
	Type                 ChargeType        `json:"type"`
	Name                 string            `json:"name,omitempty"`
	Description          string            `json:"description,omitempty"`
	Resolution           Resolution        `json:"resolution"`
	TaxIndicator         bool              `json:"taxIndicator"`
	TransparentInvoicing bool              `json:"transparentInvoicing"`
	VatClassification    VatClassification `json:"vatClassification,omitempty"`
	StartDateTime        time.Time         `json:"startDateTime"`
	EndDateTime          *time.Time        `json:"endDateTime,omitempty"`
	PointsStartInterval  time.Time         `json:"pointsStartInterval,omitempty"`
	PointsEndInterval    time.Time         `json:"pointsEndInterval,omitempty"`
	Points               []Point           `json:"points,omitempty"`
}

// Identifier returns the charge identifier triple the operation refers to.
func (o *ChargeOperation) Identifier() ChargeIdentifier {
	return ChargeIdentifier{
		SenderProvidedChargeID: o.ChargeID,
		Type:                   o.Type,
		Owner:                  o.Owner,
	}
}

// IsStop reports whether the operation terminates the charge at its start date.
func (o *ChargeOperation) IsStop() bool {
	return o.EndDateTime != nil && o.EndDateTime.Equal(o.StartDateTime)
}

// Bundle is a submitted batch of operations sharing one document.
type Bundle struct {
	Document   *Document         `json:"document"`
	Operations []ChargeOperation `json:"operations"`
}

// MarketParticipant is an actor registered in the data hub.
type MarketParticipant struct {
	ID                  uuid.UUID
	MarketParticipantID string
	Role                MarketParticipantRole
	IsActive            bool
}

// PriceInterval returns the interval covered by the operation's points.
// When the sender omits the interval end it is derived from the number of
// points and the resolution.
func (o *ChargeOperation) PriceInterval() (start, end time.Time) {
	start = o.PointsStartInterval
	if start.IsZero() {
		start = o.StartDateTime
	}
	end = o.PointsEndInterval
	if end.IsZero() {
		if o.Resolution == ResolutionMonthly {
			end = start.AddDate(0, len(o.Points), 0)
		} else {
			end = start.Add(time.Duration(len(o.Points)) * o.Resolution.Duration())
		}
	}
	return start, end
}
