package bundling

import (
	"math"
	"unicode/utf8"
)

// Weights holds the per-kind weight constants, in kilobyte-equivalent units.
type Weights struct {
	Confirmation    float64 `yaml:"confirmation"`
	RejectionBase   float64 `yaml:"rejection_base"`
	RejectionReason float64 `yaml:"rejection_reason"`
	ChargeData      float64 `yaml:"charge_data"`
	PriceBase       float64 `yaml:"price_base"`
	PricePoint      float64 `yaml:"price_point"`
}

// DefaultWeights returns the weights used when no configuration overrides them.
func DefaultWeights() Weights {
	return Weights{
		Confirmation:    2,
		RejectionBase:   2,
		RejectionReason: 0.1,
		ChargeData:      5,
		PriceBase:       5,
		PricePoint:      0.2,
	}
}

// ConfirmationWeight is constant.
func (w Weights) ConfirmationWeight() float64 {
	return w.Confirmation
}

// RejectionWeight adds a fixed amount per reason plus the full character
// length of every reason text. Text length is not capped.
func (w Weights) RejectionWeight(reasonTexts []string) float64 {
	weight := w.RejectionBase + float64(len(reasonTexts))*w.RejectionReason
	for _, text := range reasonTexts {
		weight += float64(utf8.RuneCountInString(text))
	}
	return weight
}

// ChargeDataWeight is constant: one master-data object per record.
func (w Weights) ChargeDataWeight() float64 {
	return w.ChargeData
}

// PriceWeight grows with the number of points and is rounded half away from zero.
func (w Weights) PriceWeight(pointCount int) float64 {
	return math.Round(w.PriceBase + float64(pointCount)*w.PricePoint)
}
