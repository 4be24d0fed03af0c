package settlement

import (
	"context"

	"github.com/gagliardetto/solana-go"

	"github.com/krazyTry/presale-go/client"
	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
	"github.com/krazyTry/presale-go/presale"
)

// Presale is one presale as seen by the worker.
type Presale struct {
	Address solana.PublicKey
	*presalegen.Presale
}

// Backend is the presale program surface the worker drives.
type Backend interface {
	Now(ctx context.Context) (int64, error)
	ListPresales(ctx context.Context, factory solana.PublicKey) ([]Presale, error)
	Finalize(ctx context.Context, presale solana.PublicKey) error
	Cancel(ctx context.Context, presale solana.PublicKey) error
}

// ProgramBackend settles presales of an in-process program as operator.
type ProgramBackend struct {
	Program  *presale.Program
	Operator solana.PublicKey
}

func (b *ProgramBackend) Now(context.Context) (int64, error) {
	return b.Program.Now(), nil
}

func (b *ProgramBackend) ListPresales(ctx context.Context, factory solana.PublicKey) ([]Presale, error) {
	accounts, err := b.Program.ListPresales(ctx, factory)
	if err != nil {
		return nil, err
	}
	list := make([]Presale, len(accounts))
	for i, a := range accounts {
		list[i] = Presale{Address: a.Address, Presale: a.Presale}
	}
	return list, nil
}

func (b *ProgramBackend) Finalize(ctx context.Context, address solana.PublicKey) error {
	_, err := b.Program.FinalizePresale(ctx, address, b.Operator)
	return err
}

func (b *ProgramBackend) Cancel(ctx context.Context, address solana.PublicKey) error {
	_, err := b.Program.CancelPresale(ctx, address, b.Operator)
	return err
}

// ClientBackend settles presales of the deployed program, signing as Operator.
type ClientBackend struct {
	Client   *client.PresaleFactory
	Payer    *solana.Wallet
	Operator *solana.Wallet
}

func (b *ClientBackend) Now(ctx context.Context) (int64, error) {
	return b.Client.Now(ctx)
}

func (b *ClientBackend) ListPresales(ctx context.Context, factory solana.PublicKey) ([]Presale, error) {
	presales, err := b.Client.GetPresales(ctx, factory, solana.PublicKey{})
	if err != nil {
		return nil, err
	}
	list := make([]Presale, len(presales))
	for i, p := range presales {
		list[i] = Presale{Address: p.Address, Presale: p.Presale}
	}
	return list, nil
}

func (b *ClientBackend) Finalize(ctx context.Context, address solana.PublicKey) error {
	_, err := b.Client.FinalizePresale(ctx, b.Payer, b.Operator, address)
	return err
}

func (b *ClientBackend) Cancel(ctx context.Context, address solana.PublicKey) error {
	_, err := b.Client.CancelPresale(ctx, b.Payer, b.Operator, address)
	return err
}
