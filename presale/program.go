package presale

import (
	"context"
	"errors"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// Program executes presale factory instructions against a Ledger.
type Program struct {
	ledger  *Ledger
	clock   Clock
	listing Listing
	locker  Locker
	sinks   []EventSink
	logger  *zap.Logger

	// listings remembers external listing progress of presales whose finalization has not
	// committed yet, so a retry does not list or lock twice.
	listingsMu sync.Mutex
	listings   map[solana.PublicKey]*listingProgress
}

func NewProgram(opts ...Option) *Program {
	p := &Program{
		ledger: NewLedger(),
		clock:    systemClock{},
		logger:   zap.NewNop(),
		listings: make(map[solana.PublicKey]*listingProgress),
	}
	for _, fn := range opts {
		fn(p)
	}
	return p
}

type Option func(*Program)

func WithLedger(ledger *Ledger) Option {
	return func(p *Program) {
		p.ledger = ledger
	}
}

func WithClock(clock Clock) Option {
	return func(p *Program) {
		p.clock = clock
	}
}

func WithListing(listing Listing) Option {
	return func(p *Program) {
		p.listing = listing
	}
}

func WithLocker(locker Locker) Option {
	return func(p *Program) {
		p.locker = locker
	}
}

// WithEventSink adds a sink; sinks are called in registration order.
func WithEventSink(sink EventSink) Option {
	return func(p *Program) {
		p.sinks = append(p.sinks, sink)
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(p *Program) {
		p.logger = logger
	}
}

func (p *Program) Ledger() *Ledger {
	return p.ledger
}

// exec runs one transaction and dispatches its events after commit.
func (p *Program) exec(ctx context.Context, op string, writable []solana.PublicKey, fn func(*Txn) error) error {
	events, err := p.ledger.Exec(ctx, writable, fn)
	if err != nil {
		return err
	}
	for _, ev := range events {
		for _, sink := range p.sinks {
			if err := sink.Emit(ctx, ev); err != nil {
				p.logger.Warn("event sink failed",
					zap.String("op", op),
					zap.String("event", ev.EventName()),
					zap.Error(err))
			}
		}
	}
	return nil
}

// execResolved retries fn while it reports errStaleAccounts.
func (p *Program) execResolved(ctx context.Context, op string, resolve func() ([]solana.PublicKey, func(*Txn) error, error)) error {
	for {
		writable, fn, err := resolve()
		if err != nil {
			return err
		}
		err = p.exec(ctx, op, writable, fn)
		if !errors.Is(err, errStaleAccounts) {
			return err
		}
		p.logger.Debug("account set changed, retrying", zap.String("op", op))
		if err := ctx.Err(); err != nil {
			return err
		}
	}
}
