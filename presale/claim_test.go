package presale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaimTokens(t *testing.T) {
	f := newFixture(t)
	presale := f.createPresale(f.smallConfig())
	f.clock.Set(saleStart)
	buyers := f.fill(presale, 2, 1_000)

	_, err := f.program.ClaimTokens(f.ctx, presale, buyers[0])
	assert.ErrorIs(t, err, ErrNotFinalized)

	f.clock.Set(saleEnd)
	_, err = f.program.FinalizePresale(f.ctx, presale, f.owner)
	require.NoError(t, err)

	_, err = f.program.ClaimVestedTokens(f.ctx, presale, buyers[0])
	assert.ErrorIs(t, err, ErrVestingDisabled)

	claimable, err := f.program.Claimable(f.ctx, presale, buyers[0])
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), claimable)

	amount, err := f.program.ClaimTokens(f.ctx, presale, buyers[0])
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), amount)
	assert.Equal(t, uint64(1_000), f.balance(buyers[0], f.token))

	_, err = f.program.ClaimTokens(f.ctx, presale, buyers[0])
	assert.ErrorIs(t, err, ErrNothingToClaim)

	stranger := f.newBuyer(presale, 0)
	_, err = f.program.ClaimTokens(f.ctx, presale, stranger)
	assert.ErrorIs(t, err, ErrNothingToClaim)

	got, err := f.program.GetPresale(f.ctx, presale)
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), got.TokensDelivered)
	_, tokens := f.vaultBalances(presale)
	assert.Equal(t, got.TokensSold-got.TokensDelivered, tokens)
}

func TestClaimVestedTokens(t *testing.T) {
	f := newFixture(t)
	cfg := f.smallConfig()
	cfg.IsVesting = true
	cfg.FirstReleasePercent = 40
	cfg.VestingPeriod = 3_600
	cfg.TokensReleasePercent = 25
	presale := f.createPresale(cfg)
	f.clock.Set(saleStart)
	buyers := f.fill(presale, 2, 1_000)

	f.clock.Set(saleEnd)
	_, err := f.program.FinalizePresale(f.ctx, presale, f.owner)
	require.NoError(t, err)
	buyer := buyers[0]

	steps := []struct {
		at   int64
		want uint64
	}{
		{saleEnd, 400},
		{saleEnd + 3_599, 0},
		{saleEnd + 3_600, 250},
		{saleEnd + 2*3_600 + 10, 250},
		{saleEnd + 10*3_600, 100},
	}
	var total uint64
	for _, step := range steps {
		f.clock.Set(step.at)
		amount, err := f.program.ClaimVestedTokens(f.ctx, presale, buyer)
		if step.want == 0 {
			assert.ErrorIs(t, err, ErrNothingToClaim, "at %d", step.at)
			continue
		}
		require.NoError(t, err, "at %d", step.at)
		assert.Equal(t, step.want, amount, "at %d", step.at)
		total += amount
	}
	assert.Equal(t, uint64(1_000), total)
	assert.Equal(t, uint64(1_000), f.balance(buyer, f.token))

	_, err = f.program.ClaimVestedTokens(f.ctx, presale, buyer)
	assert.ErrorIs(t, err, ErrNothingToClaim)

	// the other buyer claims everything in one go
	amount, err := f.program.ClaimTokens(f.ctx, presale, buyers[1])
	require.NoError(t, err)
	assert.Equal(t, uint64(1_000), amount)

	_, tokens := f.vaultBalances(presale)
	assert.Zero(t, tokens)
}
