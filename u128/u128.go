package u128

import (
	"errors"
	"math"
	"math/big"

	binary "github.com/gagliardetto/binary"
)

var (
	ErrOverflow       = errors.New("value overflows u64")
	ErrDivisionByZero = errors.New("division by zero")
)

// Mul returns the full 128-bit product of a and b.
func Mul(a, b uint64) binary.Uint128 {
	p := new(big.Int).Mul(new(big.Int).SetUint64(a), new(big.Int).SetUint64(b))
	return FromBig(p)
}

// FromBig truncates v to its low 128 bits.
func FromBig(v *big.Int) binary.Uint128 {
	out := binary.NewUint128LittleEndian()
	lo := new(big.Int).And(v, new(big.Int).SetUint64(math.MaxUint64))
	out.Lo = lo.Uint64()
	out.Hi = new(big.Int).Rsh(v, 64).Uint64()
	return *out
}

// DivU64 divides v by d rounding down and narrows the quotient to u64.
func DivU64(v binary.Uint128, d uint64) (uint64, error) {
	if d == 0 {
		return 0, ErrDivisionByZero
	}
	q := new(big.Int).Quo(v.BigInt(), new(big.Int).SetUint64(d))
	if !q.IsUint64() {
		return 0, ErrOverflow
	}
	return q.Uint64(), nil
}

// MulDivFloor computes a * b / d without intermediate overflow.
func MulDivFloor(a, b, d uint64) (uint64, error) {
	return DivU64(Mul(a, b), d)
}

// CheckedAdd adds two u64 values, failing instead of wrapping.
func CheckedAdd(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}
