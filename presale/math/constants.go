package math

const (
	BasisPointMax = 10_000
	PercentMax    = 100

	// RatePrecision scales presale and listing rates: a rate of 100 is one sale token per payment unit.
	RatePrecision = 100

	// MaxVestingPeriods bounds how many periods a schedule may take to release everything.
	MaxVestingPeriods = 1_000
)
