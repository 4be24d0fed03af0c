package presale

import (
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
)

func TestCreatePresale(t *testing.T) {
	f := newFixture(t)
	cfg := f.scenarioConfig()
	presale := f.createPresale(cfg)

	expected, err := presalegen.DerivePresalePDA(f.factory, 0)
	require.NoError(t, err)
	assert.Equal(t, expected, presale)

	got, err := f.program.GetPresale(f.ctx, presale)
	require.NoError(t, err)
	assert.Equal(t, cfg, configOf(got))
	assert.Equal(t, uint64(0), got.TokensSold)
	assert.Equal(t, uint64(0), got.FundsRaised)
	assert.False(t, got.IsFinalized)
	assert.Equal(t, presalegen.PresaleStateActive, got.State)
	assert.Equal(t, f.factory, got.Factory)
	assert.Equal(t, uint64(0), got.ID)
	assert.Equal(t, uint64(5_000), got.MaxPlatformFee)
	assert.Empty(t, got.Participants)

	factory, err := f.program.GetFactory(f.ctx, f.factory)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), factory.PresaleCount)
	assert.Equal(t, uint64(500), factory.PlatformFee)

	payment, tokens := f.vaultBalances(presale)
	assert.Equal(t, uint64(0), payment)
	assert.Equal(t, uint64(100_000), tokens)
	assert.Equal(t, uint64(0), f.balance(f.owner, f.token))

	vaultAccount, err := f.program.TokenAccount(f.ctx, got.PresaleVault)
	require.NoError(t, err)
	assert.Equal(t, solana.WrappedSol, vaultAccount.Mint)
	authority, err := presalegen.DerivePresaleAuthorityPDA(presale)
	require.NoError(t, err)
	assert.Equal(t, authority, vaultAccount.Owner)
}

func TestCreatePresaleAllocatesSequentialIDs(t *testing.T) {
	f := newFixture(t)
	first := f.createPresale(f.scenarioConfig())
	second := f.createPresale(f.scenarioConfig())
	assert.NotEqual(t, first, second)

	got, err := f.program.GetPresale(f.ctx, second)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), got.ID)

	list, err := f.program.ListPresales(f.ctx, f.factory)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first, list[0].Address)
	assert.Equal(t, second, list[1].Address)
}

func TestCreatePresaleConcurrent(t *testing.T) {
	f := newFixture(t)
	cfg := f.scenarioConfig()
	const n = 8
	_, err := f.program.MintTo(f.ctx, f.owner, f.token, n*cfg.HardCap)
	require.NoError(t, err)

	var wg sync.WaitGroup
	addresses := make([]solana.PublicKey, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			addresses[i], _, err = f.program.CreatePresale(f.ctx, f.factory, f.owner, cfg)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	factory, err := f.program.GetFactory(f.ctx, f.factory)
	require.NoError(t, err)
	assert.Equal(t, uint64(n), factory.PresaleCount)

	ids := map[uint64]bool{}
	for _, address := range addresses {
		got, err := f.program.GetPresale(f.ctx, address)
		require.NoError(t, err)
		ids[got.ID] = true
	}
	assert.Len(t, ids, n)
}

func TestCreatePresaleRejectsInvalidConfig(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name   string
		mutate func(*PresaleConfig)
		err    error
	}{
		{"soft cap above hard cap", func(c *PresaleConfig) { c.SoftCap = c.HardCap + 1 }, ErrInvalidCap},
		{"zero hard cap", func(c *PresaleConfig) { c.HardCap, c.SoftCap = 0, 0 }, ErrInvalidCap},
		{"start equals end", func(c *PresaleConfig) { c.EndSale = c.StartSale }, ErrInvalidTime},
		{"start after end", func(c *PresaleConfig) { c.StartSale = c.EndSale + 1 }, ErrInvalidTime},
		{"min above max", func(c *PresaleConfig) { c.MinBuy = c.MaxBuy + 1 }, ErrInvalidMinMax},
		{"max above hard cap", func(c *PresaleConfig) { c.MaxBuy = c.HardCap + 1 }, ErrInvalidMinMax},
		{"zero rate", func(c *PresaleConfig) { c.PresaleRate = 0 }, ErrInvalidConfig},
		{"liquidity above 100", func(c *PresaleConfig) { c.LiquidityPercent = 101 }, ErrInvalidConfig},
		{"auto listing without rate", func(c *PresaleConfig) { c.IsAutoListing, c.ListingRate = true, 0 }, ErrInvalidConfig},
		{"fund mode with vesting", func(c *PresaleConfig) {
			c.IsFund, c.IsVesting, c.FirstReleasePercent, c.VestingPeriod, c.TokensReleasePercent = true, true, 50, 60, 50
		}, ErrInvalidConfig},
		{"vesting never completes", func(c *PresaleConfig) {
			c.IsVesting, c.FirstReleasePercent, c.VestingPeriod, c.TokensReleasePercent = true, 20, 60, 0
		}, ErrInvalidConfig},
		{"missing payment token", func(c *PresaleConfig) { c.IsNative = false }, ErrInvalidConfig},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			cfg := f.scenarioConfig()
			c.mutate(&cfg)
			_, _, err := f.program.CreatePresale(f.ctx, f.factory, f.owner, cfg)
			assert.ErrorIs(t, err, c.err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	factory, err := f.program.GetFactory(f.ctx, f.factory)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), factory.PresaleCount)
}

func TestCreatePresaleRequiresFactoryOwner(t *testing.T) {
	f := newFixture(t)
	stranger := solana.NewWallet().PublicKey()
	_, err := f.program.MintTo(f.ctx, stranger, f.token, 1_000_000)
	require.NoError(t, err)

	_, _, err = f.program.CreatePresale(f.ctx, f.factory, stranger, f.scenarioConfig())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestCreatePresaleNeedsSaleTokens(t *testing.T) {
	f := newFixture(t)
	cfg := f.scenarioConfig()
	_, err := f.program.MintTo(f.ctx, f.owner, f.token, cfg.HardCap-1)
	require.NoError(t, err)

	_, _, err = f.program.CreatePresale(f.ctx, f.factory, f.owner, cfg)
	assert.ErrorIs(t, err, ErrInsufficientFunds)

	// nothing was committed
	factory, err := f.program.GetFactory(f.ctx, f.factory)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), factory.PresaleCount)
	assert.Equal(t, cfg.HardCap-1, f.balance(f.owner, f.token))
}

func TestCreatePresaleAutoListingReservesListingTokens(t *testing.T) {
	f := newFixture(t)
	cfg := f.scenarioConfig()
	cfg.IsAutoListing = true
	presale := f.createPresale(cfg)

	_, tokens := f.vaultBalances(presale)
	assert.Equal(t, uint64(140_000), tokens)
}
