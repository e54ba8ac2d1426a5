package matching

import "github.com/shopspring/decimal"

// Config holds the tunable constants of the matching pipeline. The defaults
// are empirically chosen and deliberately kept as configuration rather than
// hard-coded law; deployments tune them per tenant population.
type Config struct {
	// AmountTolerance is the absolute amount difference a candidate may have
	// from the invoice total (absorbs rounding and tips).
	AmountTolerance decimal.Decimal
	// DateWindowDays is the symmetric window around the invoice issue date
	// (absorbs delayed invoicing).
	DateWindowDays int

	// HighBand and LowBand delimit the ambiguous string-score band. At or
	// above HighBand the string score is a conclusive match; below LowBand a
	// conclusive non-match; in between the semantic oracle is consulted.
	HighBand int
	LowBand  int

	// StringWeight and SemanticWeight blend the two scores for ambiguous
	// cases: final = string*StringWeight + semantic*SemanticWeight.
	StringWeight   float64
	SemanticWeight float64

	// AutoLinkThreshold is the minimum combined score for linking a single
	// candidate without human review.
	AutoLinkThreshold int

	// MinInstallmentTotal is the floor below which MSI detection is not
	// attempted for a card-paid invoice.
	MinInstallmentTotal decimal.Decimal
}

// DefaultConfig returns the production defaults.
func DefaultConfig() Config {
	return Config{
		AmountTolerance:     decimal.NewFromInt(5),
		DateWindowDays:      15,
		HighBand:            70,
		LowBand:             30,
		StringWeight:        0.3,
		SemanticWeight:      0.7,
		AutoLinkThreshold:   95,
		MinInstallmentTotal: decimal.NewFromInt(3000),
	}
}
