package client

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v4"
	"github.com/gagliardetto/solana-go"
	"github.com/samber/lo"

	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
)

// whitelistChunk keeps one whitelist transaction under the packet size limit.
const whitelistChunk = 10

// CreatePresaleInstruction opens presale number id under factory.
func CreatePresaleInstruction(factory solana.PublicKey, id uint64, creator solana.PublicKey, cfg presalegen.CreatePresaleArgs) (solana.Instruction, solana.PublicKey, error) {
	accounts, err := presalegen.ResolveCreatePresale(factory, id, creator, cfg)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	ix, err := presalegen.NewCreatePresaleInstruction(cfg, accounts)
	return ix, accounts.Presale, err
}

// CreatePresale opens a presale under factory. creator owns the factory and holds the sale tokens
// in its associated token account. If another presale takes the next id first, the instruction is
// rebuilt against the new count.
func (m *PresaleFactory) CreatePresale(ctx context.Context, payer, creator *solana.Wallet, factory solana.PublicKey, cfg presalegen.CreatePresaleArgs) (string, solana.PublicKey, error) {
	type created struct {
		sig     string
		presale solana.PublicKey
	}
	out, err := retry(ctx, m, func() (created, error) {
		f, err := m.GetFactory(ctx, factory)
		if err != nil {
			return created{}, backoff.Permanent(err)
		}
		ix, presale, err := CreatePresaleInstruction(factory, f.PresaleCount, creator.PublicKey(), cfg)
		if err != nil {
			return created{}, backoff.Permanent(err)
		}
		sig, err := m.send(ctx, "create_presale", []solana.Instruction{ix}, payer, creator)
		if err != nil {
			if errors.Is(err, presalegen.ErrInvalidAccount) {
				return created{}, err
			}
			return created{}, backoff.Permanent(err)
		}
		return created{sig: sig, presale: presale}, nil
	})
	return out.sig, out.presale, err
}

// WhitelistInstructions adds (or removes) buyers in chunks that fit a transaction each.
func WhitelistInstructions(presale, owner solana.PublicKey, buyers []solana.PublicKey, add bool) ([]solana.Instruction, error) {
	newIx := presalegen.NewRemoveWhitelistInstruction
	if add {
		newIx = presalegen.NewAddWhitelistInstruction
	}
	var instructions []solana.Instruction
	for _, chunk := range lo.Chunk(lo.Uniq(buyers), whitelistChunk) {
		accounts, err := presalegen.ResolveWhitelist(presale, owner, chunk)
		if err != nil {
			return nil, err
		}
		ix, err := newIx(presalegen.WhitelistArgs{Buyers: chunk}, accounts)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, ix)
	}
	return instructions, nil
}

func (m *PresaleFactory) updateWhitelist(ctx context.Context, payer, owner *solana.Wallet, presale solana.PublicKey, buyers []solana.PublicKey, add bool) ([]string, error) {
	op := "remove_whitelist"
	if add {
		op = "add_whitelist"
	}
	instructions, err := WhitelistInstructions(presale, owner.PublicKey(), buyers, add)
	if err != nil {
		return nil, err
	}
	sigs := make([]string, 0, len(instructions))
	for _, ix := range instructions {
		sig, err := m.send(ctx, op, []solana.Instruction{ix}, payer, owner)
		if err != nil {
			return sigs, err
		}
		sigs = append(sigs, sig)
	}
	return sigs, nil
}

// AddWhitelist sends one transaction per chunk of buyers and returns their signatures.
func (m *PresaleFactory) AddWhitelist(ctx context.Context, payer, owner *solana.Wallet, presale solana.PublicKey, buyers []solana.PublicKey) ([]string, error) {
	return m.updateWhitelist(ctx, payer, owner, presale, buyers, true)
}

func (m *PresaleFactory) RemoveWhitelist(ctx context.Context, payer, owner *solana.Wallet, presale solana.PublicKey, buyers []solana.PublicKey) ([]string, error) {
	return m.updateWhitelist(ctx, payer, owner, presale, buyers, false)
}
