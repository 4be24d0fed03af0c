package math

import (
	"errors"
	gomath "math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
)

func TestPlatformCut(t *testing.T) {
	cases := []struct {
		funds, bps, want uint64
	}{
		{100_000, 500, 5_000},
		{999, 500, 49},
		{1, 9_999, 0},
		{12_345, 0, 0},
		{12_345, 10_000, 12_345},
		{gomath.MaxUint64, 10_000, gomath.MaxUint64},
	}
	for _, c := range cases {
		got, err := PlatformCut(c.funds, c.bps)
		require.NoError(t, err)
		assert.Equal(t, c.want, got, "funds=%d bps=%d", c.funds, c.bps)
	}

	_, err := PlatformCut(1, 10_001)
	assert.True(t, errors.Is(err, presalegen.ErrInvalidFee))
}

func TestTokensForFunds(t *testing.T) {
	got, err := TokensForFunds(1000, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), got)

	got, err = TokensForFunds(1000, 250)
	require.NoError(t, err)
	assert.Equal(t, uint64(2500), got)

	got, err = TokensForFunds(3, 33)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), got)

	_, err = TokensForFunds(gomath.MaxUint64, 1_000)
	assert.True(t, errors.Is(err, presalegen.ErrMathOverflow))
}

func TestRequiredSaleTokens(t *testing.T) {
	got, err := RequiredSaleTokens(100_000, 100, false, 50, 80)
	require.NoError(t, err)
	assert.Equal(t, uint64(100_000), got)

	// 100k for sale + 50% of 100k listed at 0.8 tokens per unit
	got, err = RequiredSaleTokens(100_000, 100, true, 50, 80)
	require.NoError(t, err)
	assert.Equal(t, uint64(140_000), got)

	_, err = RequiredSaleTokens(100_000, 100, true, 101, 80)
	assert.True(t, errors.Is(err, presalegen.ErrInvalidConfig))
}

func TestSettle(t *testing.T) {
	s, err := Settle(60_000, 500, false, 50, 100)
	require.NoError(t, err)
	assert.Equal(t, Settlement{PlatformFee: 3_000, NetFunds: 57_000, OwnerProceeds: 57_000}, s)

	s, err = Settle(60_000, 500, true, 50, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(3_000), s.PlatformFee)
	assert.Equal(t, uint64(28_500), s.LiquidityFunds)
	assert.Equal(t, uint64(28_500), s.LiquidityTokens)
	assert.Equal(t, uint64(28_500), s.OwnerProceeds)
	assert.Equal(t, s.NetFunds, s.LiquidityFunds+s.OwnerProceeds)
	assert.Equal(t, uint64(60_000), s.PlatformFee+s.NetFunds)
}

func TestUiAmount(t *testing.T) {
	assert.Equal(t, "1.5", ToUiAmount(1_500_000_000, 9).String())
	assert.Equal(t, "0.000001", ToUiAmount(1, 6).String())

	raw, err := FromUiAmount("1.5", 9)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500_000_000), raw)

	raw, err = FromUiAmount("0.0000001", 6)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), raw)

	_, err = FromUiAmount("-1", 6)
	assert.Error(t, err)
	_, err = FromUiAmount("abc", 6)
	assert.Error(t, err)
	_, err = FromUiAmount("18446744073709551616", 0)
	assert.Error(t, err)

	assert.Equal(t, "5", BpsToPercent(500).String())
	assert.Equal(t, "1", PresalePrice(100).String())
	assert.True(t, PresalePrice(0).IsZero())
}
