package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/cenkalti/backoff/v4"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/tidwall/gjson"

	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
	solanago "github.com/krazyTry/presale-go/solana"
)

// Presale is a decoded presale account and its address.
type Presale struct {
	*presalegen.Presale
	Address solana.PublicKey
}

type Purchase struct {
	*presalegen.Purchase
	Address solana.PublicKey
}

// retry runs fn under the client's backoff. Errors marked permanent stop immediately.
func retry[T any](ctx context.Context, m *PresaleFactory, fn func() (T, error)) (T, error) {
	return backoff.RetryWithData(fn, backoff.WithContext(m.backoff(), ctx))
}

func (m *PresaleFactory) getAccountData(ctx context.Context, kind string, address solana.PublicKey) ([]byte, error) {
	return retry(ctx, m, func() ([]byte, error) {
		out, err := solanago.GetAccountInfo(ctx, m.rpcClient, address, m.commitment)
		if err != nil {
			if errors.Is(err, rpc.ErrNotFound) {
				return nil, backoff.Permanent(notFound(kind, err))
			}
			return nil, err
		}
		if out == nil || out.Value == nil {
			return nil, backoff.Permanent(notFound(kind, rpc.ErrNotFound))
		}
		if !out.Value.Owner.Equals(presalegen.ProgramID) {
			return nil, backoff.Permanent(fmt.Errorf("%s %s owned by %s: %w", kind, address, out.Value.Owner, presalegen.ErrInvalidAccount))
		}
		return out.Value.Data.GetBinary(), nil
	})
}

func (m *PresaleFactory) GetFactory(ctx context.Context, factory solana.PublicKey) (*presalegen.Factory, error) {
	data, err := m.getAccountData(ctx, presalegen.AccountKeyFactory, factory)
	if err != nil {
		return nil, err
	}
	return presalegen.ParseAccount_Factory(data)
}

// GetFactoryByOwner fetches the factory PDA of owner.
func (m *PresaleFactory) GetFactoryByOwner(ctx context.Context, owner solana.PublicKey) (solana.PublicKey, *presalegen.Factory, error) {
	factory, err := presalegen.DeriveFactoryPDA(owner)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	obj, err := m.GetFactory(ctx, factory)
	return factory, obj, err
}

func (m *PresaleFactory) GetPresale(ctx context.Context, presale solana.PublicKey) (*Presale, error) {
	data, err := m.getAccountData(ctx, presalegen.AccountKeyPresale, presale)
	if err != nil {
		return nil, err
	}
	obj, err := presalegen.ParseAccount_Presale(data)
	if err != nil {
		return nil, err
	}
	return &Presale{Presale: obj, Address: presale}, nil
}

func (m *PresaleFactory) GetPurchase(ctx context.Context, presale, buyer solana.PublicKey) (*Purchase, error) {
	address, err := presalegen.DerivePurchasePDA(presale, buyer)
	if err != nil {
		return nil, err
	}
	data, err := m.getAccountData(ctx, presalegen.AccountKeyPurchase, address)
	if err != nil {
		return nil, err
	}
	obj, err := presalegen.ParseAccount_Purchase(data)
	if err != nil {
		return nil, err
	}
	return &Purchase{Purchase: obj, Address: address}, nil
}

// IsWhitelisted reports whether buyer has a whitelist entry on presale.
func (m *PresaleFactory) IsWhitelisted(ctx context.Context, presale, buyer solana.PublicKey) (bool, error) {
	entry, err := presalegen.DeriveWhitelistPDA(presale, buyer)
	if err != nil {
		return false, err
	}
	if _, err := m.getAccountData(ctx, presalegen.AccountKeyWhitelistEntry, entry); err != nil {
		if errors.Is(err, presalegen.ErrAccountNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (m *PresaleFactory) getProgramAccounts(ctx context.Context, key string, filters ...solanago.Filter) (rpc.GetProgramAccountsResult, error) {
	opt := solanago.GenProgramAccountFilter(key, m.commitment, filters...)
	return retry(ctx, m, func() (rpc.GetProgramAccountsResult, error) {
		outs, err := m.rpcClient.GetProgramAccountsWithOpts(ctx, presalegen.ProgramID, opt)
		if err != nil {
			if errors.Is(err, rpc.ErrNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return outs, nil
	})
}

// GetPresales lists presales created by factory, optionally narrowed to one presale owner.
// A zero factory lists presales of every factory. Results are ordered by factory then id.
func (m *PresaleFactory) GetPresales(ctx context.Context, factory, owner solana.PublicKey) ([]*Presale, error) {
	outs, err := m.getProgramAccounts(ctx, presalegen.AccountKeyPresale, solanago.Filter{
		Key:    owner,
		Offset: presalegen.PresaleOwnerOffset,
	})
	if err != nil {
		return nil, err
	}

	var list []*Presale
	for _, out := range outs {
		obj, err := presalegen.ParseAccount_Presale(out.Account.Data.GetBinary())
		if err != nil {
			return nil, fmt.Errorf("presale %s: %w", out.Pubkey, err)
		}
		if !factory.IsZero() && !obj.Factory.Equals(factory) {
			continue
		}
		list = append(list, &Presale{Presale: obj, Address: out.Pubkey})
	}
	sort.Slice(list, func(i, j int) bool {
		if c := bytes.Compare(list[i].Factory[:], list[j].Factory[:]); c != 0 {
			return c < 0
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

// GetPurchases lists the purchase records of presale.
func (m *PresaleFactory) GetPurchases(ctx context.Context, presale solana.PublicKey) ([]*Purchase, error) {
	outs, err := m.getProgramAccounts(ctx, presalegen.AccountKeyPurchase, solanago.Filter{
		Key:    presale,
		Offset: presalegen.PurchasePresaleOffset,
	})
	if err != nil {
		return nil, err
	}
	list := make([]*Purchase, 0, len(outs))
	for _, out := range outs {
		obj, err := presalegen.ParseAccount_Purchase(out.Account.Data.GetBinary())
		if err != nil {
			return nil, fmt.Errorf("purchase %s: %w", out.Pubkey, err)
		}
		list = append(list, &Purchase{Purchase: obj, Address: out.Pubkey})
	}
	return list, nil
}

// VaultBalances reads the payment and token vault balances of presale from jsonParsed token
// accounts. Missing vaults read as zero.
func (m *PresaleFactory) VaultBalances(ctx context.Context, presale solana.PublicKey) (payment, tokens uint64, err error) {
	vaults, err := presalegen.DeriveVaults(presale)
	if err != nil {
		return 0, 0, err
	}
	outs, err := retry(ctx, m, func() (*rpc.GetMultipleAccountsResult, error) {
		return m.rpcClient.GetMultipleAccountsWithOpts(ctx, []solana.PublicKey{vaults.PresaleVault, vaults.TokenVault}, &rpc.GetMultipleAccountsOpts{
			Commitment: m.commitment,
			Encoding:   solana.EncodingJSONParsed,
		})
	})
	if err != nil {
		return 0, 0, err
	}
	balances := make([]uint64, 2)
	for i, out := range outs.Value {
		if i >= len(balances) || out == nil {
			continue
		}
		balances[i] = gjson.GetBytes(out.Data.GetRawJSON(), "parsed.info.tokenAmount.amount").Uint()
	}
	return balances[0], balances[1], nil
}

// GetMints fetches mint accounts; missing mints are nil.
func (m *PresaleFactory) GetMints(ctx context.Context, mints ...solana.PublicKey) ([]*solanago.Token, error) {
	return retry(ctx, m, func() ([]*solanago.Token, error) {
		return solanago.GetMultipleToken(ctx, m.rpcClient, m.commitment, mints...)
	})
}

// Now is the cluster's latest block time.
func (m *PresaleFactory) Now(ctx context.Context) (int64, error) {
	return retry(ctx, m, func() (int64, error) {
		return solanago.CurrentTime(ctx, m.rpcClient, m.commitment)
	})
}
