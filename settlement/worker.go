package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gagliardetto/solana-go"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
)

// DefaultSchedule runs a settlement pass every minute, on second 0.
const DefaultSchedule = "0 * * * * *"

type Action string

const (
	ActionNone     Action = ""
	ActionFinalize Action = "finalize"
	ActionCancel   Action = "cancel"
)

// Decide returns what the worker does with p at now. Presales that reached the hard cap are
// finalized early; ended presales are finalized when the soft cap was met and cancelled otherwise.
func Decide(p *presalegen.Presale, now int64) Action {
	if p.IsFinalized || p.State != presalegen.PresaleStateActive {
		return ActionNone
	}
	if p.FundsRaised >= p.HardCap {
		return ActionFinalize
	}
	if now < p.EndSale {
		return ActionNone
	}
	if p.FundsRaised >= p.SoftCap {
		return ActionFinalize
	}
	return ActionCancel
}

// Outcome records what happened to one presale during a pass.
type Outcome struct {
	Presale solana.PublicKey
	Action  Action
	Err     error
}

// Worker finalizes or cancels presales of one factory on a cron schedule.
type Worker struct {
	backend  Backend
	factory  solana.PublicKey
	schedule string
	maxRetry time.Duration
	logger   *zap.Logger
}

type Option func(*Worker)

// WithSchedule sets the cron expression, with a leading seconds field.
func WithSchedule(expr string) Option {
	return func(w *Worker) {
		w.schedule = expr
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

// WithMaxRetry bounds how long one settlement is retried on transient failures.
func WithMaxRetry(d time.Duration) Option {
	return func(w *Worker) {
		w.maxRetry = d
	}
}

func NewWorker(backend Backend, factory solana.PublicKey, opts ...Option) *Worker {
	w := &Worker{
		backend:  backend,
		factory:  factory,
		schedule: DefaultSchedule,
		maxRetry: 30 * time.Second,
		logger:   zap.NewNop(),
	}
	for _, fn := range opts {
		fn(w)
	}
	return w
}

// permanent reports program errors, which retrying cannot fix.
func permanent(err error) bool {
	var programErr *presalegen.ProgramError
	return errors.As(err, &programErr)
}

func (w *Worker) settle(ctx context.Context, address solana.PublicKey, action Action) error {
	run := w.backend.Finalize
	if action == ActionCancel {
		run = w.backend.Cancel
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxElapsedTime = w.maxRetry
	return backoff.Retry(func() error {
		err := run(ctx, address)
		if err != nil && permanent(err) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(b, ctx))
}

// RunOnce makes one settlement pass. Failures of single presales are reported in the outcomes;
// the returned error is set only when the presales could not be listed.
func (w *Worker) RunOnce(ctx context.Context) ([]Outcome, error) {
	now, err := w.backend.Now(ctx)
	if err != nil {
		return nil, fmt.Errorf("settlement clock: %w", err)
	}
	presales, err := w.backend.ListPresales(ctx, w.factory)
	if err != nil {
		return nil, fmt.Errorf("list presales: %w", err)
	}

	var outcomes []Outcome
	for _, p := range presales {
		action := Decide(p.Presale, now)
		if action == ActionNone {
			continue
		}
		err := w.settle(ctx, p.Address, action)
		outcomes = append(outcomes, Outcome{Presale: p.Address, Action: action, Err: err})
		if err != nil {
			w.logger.Warn("settlement failed",
				zap.Stringer("presale", p.Address),
				zap.String("action", string(action)),
				zap.Error(err))
			continue
		}
		w.logger.Info("presale settled",
			zap.Stringer("presale", p.Address),
			zap.String("action", string(action)))
	}
	return outcomes, nil
}

// Run schedules RunOnce until ctx is done. Passes never overlap; a pass still running when the
// next one is due is skipped.
func (w *Worker) Run(ctx context.Context) error {
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(w.schedule, func() {
		if _, err := w.RunOnce(ctx); err != nil {
			w.logger.Error("settlement pass failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("settlement schedule %q: %w", w.schedule, err)
	}

	w.logger.Info("settlement worker started", zap.String("schedule", w.schedule), zap.Stringer("factory", w.factory))
	c.Start()
	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
