package presale

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/samber/lo"
	"go.uber.org/zap"

	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
)

func (p *Program) AddWhitelist(ctx context.Context, presale, caller solana.PublicKey, buyers []solana.PublicKey) error {
	accounts, err := presalegen.ResolveWhitelist(presale, caller, buyers)
	if err != nil {
		return err
	}
	return p.updateWhitelist(ctx, accounts, presalegen.WhitelistArgs{Buyers: buyers}, true)
}

func (p *Program) RemoveWhitelist(ctx context.Context, presale, caller solana.PublicKey, buyers []solana.PublicKey) error {
	accounts, err := presalegen.ResolveWhitelist(presale, caller, buyers)
	if err != nil {
		return err
	}
	return p.updateWhitelist(ctx, accounts, presalegen.WhitelistArgs{Buyers: buyers}, false)
}

// updateWhitelist adds or removes whitelist entries. Repeated buyers and entries that are already
// in the requested state are ignored.
func (p *Program) updateWhitelist(ctx context.Context, accounts presalegen.WhitelistAccounts, args presalegen.WhitelistArgs, add bool) error {
	if len(accounts.Entries) != len(args.Buyers) {
		return fmt.Errorf("whitelist: %d entries for %d buyers: %w", len(accounts.Entries), len(args.Buyers), ErrInvalidAccount)
	}
	expected, err := presalegen.ResolveWhitelist(accounts.Presale, accounts.Owner, args.Buyers)
	if err != nil {
		return err
	}
	for i := range expected.Entries {
		if err := expectAccount("whitelist entry", accounts.Entries[i], expected.Entries[i]); err != nil {
			return err
		}
	}

	buyers := lo.Uniq(args.Buyers)
	entries := lo.Uniq(accounts.Entries)
	op := "remove_whitelist"
	if add {
		op = "add_whitelist"
	}
	var changed []solana.PublicKey
	err = p.exec(ctx, op, entries, func(t *Txn) error {
		presale, err := loadPresale(t, accounts.Presale)
		if err != nil {
			return err
		}
		if !presale.Owner.Equals(accounts.Owner) {
			return ErrUnauthorized
		}
		for i, buyer := range buyers {
			entry := entries[i]
			switch {
			case add && !exists(t, entry):
				if err := store(t, entry, &presalegen.WhitelistEntry{Presale: accounts.Presale, Buyer: buyer}); err != nil {
					return err
				}
			case !add && exists(t, entry):
				if err := t.Delete(entry); err != nil {
					return err
				}
			default:
				continue
			}
			changed = append(changed, buyer)
		}
		if len(changed) > 0 {
			t.Emit(presalegen.WhitelistUpdated{Presale: accounts.Presale, Added: add, Buyers: changed})
		}
		return nil
	})
	if err != nil {
		return err
	}
	p.logger.Debug("whitelist updated",
		zap.Stringer("presale", accounts.Presale),
		zap.Bool("added", add),
		zap.Int("changed", len(changed)))
	return nil
}

// IsWhitelisted reports whether buyer has a whitelist entry for presale.
func (p *Program) IsWhitelisted(ctx context.Context, presale, buyer solana.PublicKey) (bool, error) {
	entry, err := presalegen.DeriveWhitelistPDA(presale, buyer)
	if err != nil {
		return false, err
	}
	return exists(p.ledger, entry), nil
}
