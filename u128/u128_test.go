package u128

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMulDivFloor(t *testing.T) {
	got, err := MulDivFloor(math.MaxUint64, 500, 10_000)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64/20), got)

	got, err = MulDivFloor(999, 3, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(299), got)

	_, err = MulDivFloor(math.MaxUint64, 2, 1)
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = MulDivFloor(1, 1, 0)
	assert.ErrorIs(t, err, ErrDivisionByZero)
}

func TestCheckedAdd(t *testing.T) {
	got, err := CheckedAdd(1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), got)

	_, err = CheckedAdd(math.MaxUint64, 1)
	assert.ErrorIs(t, err, ErrOverflow)
}
