package presale

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"

	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
)

// Clock supplies the ledger time in unix seconds.
type Clock interface {
	Now() int64
}

type ClockFunc func() int64

func (f ClockFunc) Now() int64 { return f() }

type systemClock struct{}

func (systemClock) Now() int64 { return time.Now().Unix() }

// ListingRequest describes the liquidity seeded at finalization. Funds and tokens have already been
// moved into the router's accounts when AddLiquidity is called.
type ListingRequest struct {
	Presale         solana.PublicKey
	DexRouter       solana.PublicKey
	UniswapFactory  solana.PublicKey
	TokenMint       solana.PublicKey
	PaymentMint     solana.PublicKey
	DexTokenAccount solana.PublicKey
	DexFundAccount  solana.PublicKey
	TokenAmount     uint64
	PaymentAmount   uint64
}

// LiquidityPosition is the LP share returned by the DEX.
type LiquidityPosition struct {
	LpMint   solana.PublicKey
	LpAmount uint64
}

// Listing is the DEX router integration.
type Listing interface {
	AddLiquidity(ctx context.Context, req ListingRequest) (*LiquidityPosition, error)
}

type LockRequest struct {
	Presale     solana.PublicKey
	Beneficiary solana.PublicKey
	Qerralock   solana.PublicKey
	Position    LiquidityPosition
	UnlockAt    int64
}

// Locker locks LP positions until UnlockAt.
type Locker interface {
	Lock(ctx context.Context, req LockRequest) error
}

// EventSink receives events of committed transactions, in commit order per transaction.
type EventSink interface {
	Emit(ctx context.Context, ev presalegen.Event) error
}

type EventSinkFunc func(ctx context.Context, ev presalegen.Event) error

func (f EventSinkFunc) Emit(ctx context.Context, ev presalegen.Event) error { return f(ctx, ev) }
