package presale

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
	"github.com/krazyTry/presale-go/presale/math"
)

const (
	saleStart int64 = 1_700_000_000
	saleEnd   int64 = saleStart + 86_400
)

type fakeClock struct {
	now atomic.Int64
}

func (c *fakeClock) Now() int64 { return c.now.Load() }

func (c *fakeClock) Set(now int64) { c.now.Store(now) }

type eventRecorder struct {
	mu     sync.Mutex
	events []presalegen.Event
}

func (r *eventRecorder) Emit(_ context.Context, ev presalegen.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func (r *eventRecorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.EventName()
	}
	return out
}

type fakeListing struct {
	requests []ListingRequest
	err      error
}

func (l *fakeListing) AddLiquidity(_ context.Context, req ListingRequest) (*LiquidityPosition, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.requests = append(l.requests, req)
	return &LiquidityPosition{LpMint: solana.NewWallet().PublicKey(), LpAmount: req.PaymentAmount}, nil
}

type fakeLocker struct {
	locks []LockRequest
	err   error
}

func (l *fakeLocker) Lock(_ context.Context, req LockRequest) error {
	if l.err != nil {
		return l.err
	}
	l.locks = append(l.locks, req)
	return nil
}

type fixture struct {
	t       *testing.T
	ctx     context.Context
	program *Program
	clock   *fakeClock
	events  *eventRecorder
	listing *fakeListing
	locker  *fakeLocker

	owner   solana.PublicKey
	factory solana.PublicKey
	token   solana.PublicKey
}

func newFixture(t *testing.T) *fixture {
	f := &fixture{
		t:       t,
		ctx:     context.Background(),
		clock:   &fakeClock{},
		events:  &eventRecorder{},
		listing: &fakeListing{},
		locker:  &fakeLocker{},
		owner:   solana.NewWallet().PublicKey(),
		token:   solana.NewWallet().PublicKey(),
	}
	f.clock.Set(saleStart - 60)
	f.program = NewProgram(
		WithClock(f.clock),
		WithListing(f.listing),
		WithLocker(f.locker),
		WithEventSink(f.events),
		WithLogger(zaptest.NewLogger(t)),
	)

	factory, _, err := f.program.InitializeFactory(f.ctx, f.owner, 500)
	require.NoError(t, err)
	f.factory = factory
	return f
}

// scenarioConfig is the presale used by the reference scenario.
func (f *fixture) scenarioConfig() PresaleConfig {
	return PresaleConfig{
		Owner:            f.owner,
		Token:            f.token,
		DexRouter:        solana.NewWallet().PublicKey(),
		PresaleRate:      100,
		SoftCap:          50_000,
		HardCap:          100_000,
		MinBuy:           100,
		MaxBuy:           1_000,
		StartSale:        saleStart,
		EndSale:          saleEnd,
		LiquidityPercent: 50,
		IsNative:         true,
		ListingRate:      80,
		LiquidityTime:    30 * 86_400,
		Qerralock:        solana.NewWallet().PublicKey(),
		UniswapFactory:   solana.NewWallet().PublicKey(),
	}
}

// smallConfig has caps reachable by a handful of buyers.
func (f *fixture) smallConfig() PresaleConfig {
	cfg := f.scenarioConfig()
	cfg.SoftCap = 2_000
	cfg.HardCap = 5_000
	return cfg
}

func (f *fixture) createPresale(cfg PresaleConfig) solana.PublicKey {
	f.t.Helper()
	required, err := math.RequiredSaleTokens(cfg.HardCap, cfg.PresaleRate, cfg.IsAutoListing, cfg.LiquidityPercent, cfg.ListingRate)
	require.NoError(f.t, err)
	_, err = f.program.MintTo(f.ctx, f.owner, cfg.Token, required)
	require.NoError(f.t, err)

	presale, _, err := f.program.CreatePresale(f.ctx, f.factory, f.owner, cfg)
	require.NoError(f.t, err)
	return presale
}

func (f *fixture) paymentMint(presale solana.PublicKey) solana.PublicKey {
	obj, err := f.program.GetPresale(f.ctx, presale)
	require.NoError(f.t, err)
	return presalegen.PaymentMint(obj.IsNative, obj.PaymentToken)
}

// newBuyer returns a buyer holding funds of the presale's payment asset.
func (f *fixture) newBuyer(presale solana.PublicKey, funds uint64) solana.PublicKey {
	f.t.Helper()
	buyer := solana.NewWallet().PublicKey()
	_, err := f.program.MintTo(f.ctx, buyer, f.paymentMint(presale), funds)
	require.NoError(f.t, err)
	return buyer
}

func (f *fixture) balance(owner, mint solana.PublicKey) uint64 {
	f.t.Helper()
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	require.NoError(f.t, err)
	amount, err := f.program.TokenBalance(f.ctx, ata)
	require.NoError(f.t, err)
	return amount
}

func (f *fixture) vaultBalances(presale solana.PublicKey) (payment, tokens uint64) {
	f.t.Helper()
	vaults, err := presalegen.DeriveVaults(presale)
	require.NoError(f.t, err)
	payment, err = f.program.TokenBalance(f.ctx, vaults.PresaleVault)
	require.NoError(f.t, err)
	tokens, err = f.program.TokenBalance(f.ctx, vaults.TokenVault)
	require.NoError(f.t, err)
	return payment, tokens
}

// fill buys amount per buyer from n fresh buyers during the sale window.
func (f *fixture) fill(presale solana.PublicKey, n int, amount uint64) []solana.PublicKey {
	f.t.Helper()
	buyers := make([]solana.PublicKey, n)
	for i := range buyers {
		buyers[i] = f.newBuyer(presale, amount)
		_, err := f.program.BuyTokens(f.ctx, presale, buyers[i], amount)
		require.NoError(f.t, err)
	}
	return buyers
}

func configOf(p *presalegen.Presale) PresaleConfig {
	return PresaleConfig{
		Owner:                p.Owner,
		Token:                p.Token,
		PaymentToken:         p.PaymentToken,
		DexRouter:            p.DexRouter,
		PresaleRate:          p.PresaleRate,
		SoftCap:              p.SoftCap,
		HardCap:              p.HardCap,
		MinBuy:               p.MinBuy,
		MaxBuy:               p.MaxBuy,
		StartSale:            p.StartSale,
		EndSale:              p.EndSale,
		LiquidityPercent:     p.LiquidityPercent,
		IsFund:               p.IsFund,
		IsNative:             p.IsNative,
		IsWhitelist:          p.IsWhitelist,
		IsAutoListing:        p.IsAutoListing,
		IsVesting:            p.IsVesting,
		FirstReleasePercent:  p.FirstReleasePercent,
		VestingPeriod:        p.VestingPeriod,
		TokensReleasePercent: p.TokensReleasePercent,
		ListingRate:          p.ListingRate,
		DemyAddress:          p.DemyAddress,
		LiquidityTime:        p.LiquidityTime,
		Qerralock:            p.Qerralock,
		UniswapFactory:       p.UniswapFactory,
	}
}
