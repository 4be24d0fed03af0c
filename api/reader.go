package api

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/krazyTry/presale-go/client"
	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
	"github.com/krazyTry/presale-go/presale"
	solanago "github.com/krazyTry/presale-go/solana"
	"github.com/krazyTry/presale-go/store"
)

// Reader is the account state the API serves. Missing accounts are reported with
// presalegen.ErrAccountNotFound.
type Reader interface {
	Factory(ctx context.Context, address solana.PublicKey) (*presalegen.Factory, error)
	Presale(ctx context.Context, address solana.PublicKey) (*presalegen.Presale, error)
	Presales(ctx context.Context, factory solana.PublicKey) ([]presale.PresaleAccount, error)
	Purchase(ctx context.Context, presale, buyer solana.PublicKey) (*presalegen.Purchase, error)
	IsWhitelisted(ctx context.Context, presale, buyer solana.PublicKey) (bool, error)
	Now(ctx context.Context) (int64, error)
}

// MintReader is implemented by readers that can load mint accounts. Presale views carry UI
// amounts scaled by mint decimals when the reader is one.
type MintReader interface {
	Mints(ctx context.Context, mints ...solana.PublicKey) ([]*solanago.Token, error)
}

// EventLog serves indexed events.
type EventLog interface {
	Events(ctx context.Context, account string, after uint64, limit int) ([]store.EventRecord, error)
}

// ProgramReader reads an in-process program.
type ProgramReader struct {
	Program *presale.Program
}

func (r ProgramReader) Factory(ctx context.Context, address solana.PublicKey) (*presalegen.Factory, error) {
	return r.Program.GetFactory(ctx, address)
}

func (r ProgramReader) Presale(ctx context.Context, address solana.PublicKey) (*presalegen.Presale, error) {
	return r.Program.GetPresale(ctx, address)
}

func (r ProgramReader) Presales(ctx context.Context, factory solana.PublicKey) ([]presale.PresaleAccount, error) {
	return r.Program.ListPresales(ctx, factory)
}

func (r ProgramReader) Purchase(ctx context.Context, presale, buyer solana.PublicKey) (*presalegen.Purchase, error) {
	return r.Program.GetPurchase(ctx, presale, buyer)
}

func (r ProgramReader) IsWhitelisted(ctx context.Context, presale, buyer solana.PublicKey) (bool, error) {
	return r.Program.IsWhitelisted(ctx, presale, buyer)
}

func (r ProgramReader) Now(context.Context) (int64, error) {
	return r.Program.Now(), nil
}

// ClientReader reads the deployed program over RPC.
type ClientReader struct {
	Client *client.PresaleFactory
}

func (r ClientReader) Factory(ctx context.Context, address solana.PublicKey) (*presalegen.Factory, error) {
	return r.Client.GetFactory(ctx, address)
}

func (r ClientReader) Presale(ctx context.Context, address solana.PublicKey) (*presalegen.Presale, error) {
	p, err := r.Client.GetPresale(ctx, address)
	if err != nil {
		return nil, err
	}
	return p.Presale, nil
}

func (r ClientReader) Presales(ctx context.Context, factory solana.PublicKey) ([]presale.PresaleAccount, error) {
	list, err := r.Client.GetPresales(ctx, factory, solana.PublicKey{})
	if err != nil {
		return nil, err
	}
	out := make([]presale.PresaleAccount, len(list))
	for i, p := range list {
		out[i] = presale.PresaleAccount{Address: p.Address, Presale: p.Presale}
	}
	return out, nil
}

func (r ClientReader) Purchase(ctx context.Context, presale, buyer solana.PublicKey) (*presalegen.Purchase, error) {
	p, err := r.Client.GetPurchase(ctx, presale, buyer)
	if err != nil {
		return nil, err
	}
	return p.Purchase, nil
}

func (r ClientReader) IsWhitelisted(ctx context.Context, presale, buyer solana.PublicKey) (bool, error) {
	return r.Client.IsWhitelisted(ctx, presale, buyer)
}

func (r ClientReader) Now(ctx context.Context) (int64, error) {
	return r.Client.Now(ctx)
}

func (r ClientReader) Mints(ctx context.Context, mints ...solana.PublicKey) ([]*solanago.Token, error) {
	return r.Client.GetMints(ctx, mints...)
}
