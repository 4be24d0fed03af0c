package client

import (
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"go.uber.org/zap"

	solanago "github.com/krazyTry/presale-go/solana"
)

// PresaleFactory talks to a deployed presale factory program.
type PresaleFactory struct {
	rpcClient  *rpc.Client
	wsClient   *ws.Client
	commitment rpc.CommitmentType
	bSimulate  bool
	maxRetry   time.Duration
	logger     *zap.Logger

	// owner signs factory-admin instructions when no explicit wallet is given.
	owner *solana.Wallet
}

func NewPresaleFactory(
	rpcClient *rpc.Client,
	opts ...Option,
) *PresaleFactory {
	o := &PresaleFactory{
		rpcClient:  rpcClient,
		commitment: rpc.CommitmentFinalized,
		maxRetry:   10 * time.Second,
		logger:     zap.NewNop(),
	}
	for _, fn := range opts {
		fn(o)
	}
	return o
}

type Option func(*PresaleFactory)

// WithWSClient enables waiting for confirmation after sending.
func WithWSClient(wsClient *ws.Client) Option {
	return func(m *PresaleFactory) {
		m.wsClient = wsClient
	}
}

// WithSimulate only simulates transactions instead of sending them.
func WithSimulate(simulate bool) Option {
	return func(m *PresaleFactory) {
		m.bSimulate = simulate
	}
}

func WithCommitment(commitment rpc.CommitmentType) Option {
	return func(m *PresaleFactory) {
		m.commitment = commitment
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(m *PresaleFactory) {
		m.logger = logger
	}
}

// WithOwner sets the factory owner wallet.
func WithOwner(owner *solana.Wallet) Option {
	return func(m *PresaleFactory) {
		m.owner = owner
	}
}

// WithMaxRetry bounds how long reads are retried on transport errors. Zero disables retries.
func WithMaxRetry(d time.Duration) Option {
	return func(m *PresaleFactory) {
		m.maxRetry = d
	}
}

func (m *PresaleFactory) sender() *solanago.Sender {
	return &solanago.Sender{
		RPC:        m.rpcClient,
		WS:         m.wsClient,
		Commitment: m.commitment,
		Simulate:   m.bSimulate,
	}
}

func (m *PresaleFactory) backoff() backoff.BackOff {
	if m.maxRetry <= 0 {
		return &backoff.StopBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxElapsedTime = m.maxRetry
	return b
}
