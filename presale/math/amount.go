package math

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ToUiAmount renders a raw token amount with the mint's decimals.
func ToUiAmount(amount uint64, decimals uint8) decimal.Decimal {
	return decimal.NewFromUint64(amount).Shift(-int32(decimals))
}

// FromUiAmount parses a human amount such as "1.5" into raw units, truncating extra precision.
func FromUiAmount(amount string, decimals uint8) (uint64, error) {
	value, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, err
	}
	if value.IsNegative() {
		return 0, fmt.Errorf("amount %s is negative", amount)
	}
	raw := value.Shift(int32(decimals)).Truncate(0).BigInt()
	if !raw.IsUint64() {
		return 0, fmt.Errorf("amount %s overflows u64", amount)
	}
	return raw.Uint64(), nil
}

// BpsToPercent renders basis points as a percentage, 500 -> 5.
func BpsToPercent(bps uint64) decimal.Decimal {
	return decimal.NewFromUint64(bps).Div(decimal.NewFromInt(BasisPointMax / PercentMax))
}

// PresalePrice is the payment units paid per whole sale token at the given rate.
func PresalePrice(rate uint64) decimal.Decimal {
	if rate == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(RatePrecision).Div(decimal.NewFromUint64(rate))
}
