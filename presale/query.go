package presale

import (
	"context"
	"sort"

	"github.com/gagliardetto/solana-go"

	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
)

func (p *Program) GetFactory(ctx context.Context, factory solana.PublicKey) (*presalegen.Factory, error) {
	return loadFactory(p.ledger, factory)
}

func (p *Program) GetPresale(ctx context.Context, presale solana.PublicKey) (*presalegen.Presale, error) {
	return loadPresale(p.ledger, presale)
}

func (p *Program) GetPurchase(ctx context.Context, presale, buyer solana.PublicKey) (*presalegen.Purchase, error) {
	key, err := presalegen.DerivePurchasePDA(presale, buyer)
	if err != nil {
		return nil, err
	}
	return loadPurchase(p.ledger, key)
}

// Claimable is what buyer could claim right now; 0 before finalization.
func (p *Program) Claimable(ctx context.Context, presale, buyer solana.PublicKey) (uint64, error) {
	obj, err := loadPresale(p.ledger, presale)
	if err != nil {
		return 0, err
	}
	if obj.State != presalegen.PresaleStateFinalized {
		return 0, nil
	}
	key, err := presalegen.DerivePurchasePDA(presale, buyer)
	if err != nil {
		return 0, err
	}
	if !exists(p.ledger, key) {
		return 0, nil
	}
	purchase, err := loadPurchase(p.ledger, key)
	if err != nil {
		return 0, err
	}
	return Releasable(obj, purchase, p.clock.Now()), nil
}

// PresaleAccount pairs a presale with its address.
type PresaleAccount struct {
	Address solana.PublicKey
	Presale *presalegen.Presale
}

// ListPresales returns the presales of factory ordered by id. A zero factory lists all.
func (p *Program) ListPresales(ctx context.Context, factory solana.PublicKey) ([]PresaleAccount, error) {
	var (
		out []PresaleAccount
		err error
	)
	p.ledger.Scan(presalegen.PresaleDiscriminator[:], func(key solana.PublicKey, data []byte) bool {
		var obj *presalegen.Presale
		if obj, err = presalegen.ParseAccount_Presale(data); err != nil {
			return false
		}
		if factory.IsZero() || obj.Factory.Equals(factory) {
			out = append(out, PresaleAccount{Address: key, Presale: obj})
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Presale.ID < out[j].Presale.ID
	})
	return out, nil
}

// Now is the program clock.
func (p *Program) Now() int64 {
	return p.clock.Now()
}
