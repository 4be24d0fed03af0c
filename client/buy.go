package client

import (
	"context"

	"github.com/gagliardetto/solana-go"

	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
	solanago "github.com/krazyTry/presale-go/solana"
)

// BuyTokensInstructions contributes amount to presale. Missing buyer token accounts are created
// and, for native presales, amount lamports are wrapped first.
func (m *PresaleFactory) BuyTokensInstructions(
	ctx context.Context,
	payer solana.PublicKey,
	buyer solana.PublicKey,
	presale *Presale,
	amount uint64,
) ([]solana.Instruction, error) {
	var instructions []solana.Instruction

	if _, err := solanago.PrepareTokenATA(ctx, m.rpcClient, buyer, presale.Token, payer, m.commitment, &instructions); err != nil {
		return nil, err
	}

	if presale.IsNative {
		_, wrapIxs, err := solanago.WrapSOLInstructions(ctx, m.rpcClient, buyer, payer, amount, m.commitment)
		if err != nil {
			return nil, err
		}
		instructions = append(instructions, wrapIxs...)
	} else if _, err := solanago.PrepareTokenATA(ctx, m.rpcClient, buyer, presale.PaymentToken, payer, m.commitment, &instructions); err != nil {
		return nil, err
	}

	accounts, err := presalegen.ResolveBuyTokens(presale.Address, presale.Presale, buyer)
	if err != nil {
		return nil, err
	}
	buyIx, err := presalegen.NewBuyTokensInstruction(presalegen.BuyTokensArgs{Amount: amount}, accounts)
	if err != nil {
		return nil, err
	}
	return append(instructions, buyIx), nil
}

func (m *PresaleFactory) BuyTokens(ctx context.Context, payer, buyer *solana.Wallet, presale solana.PublicKey, amount uint64) (string, error) {
	obj, err := m.GetPresale(ctx, presale)
	if err != nil {
		return "", err
	}
	instructions, err := m.BuyTokensInstructions(ctx, payer.PublicKey(), buyer.PublicKey(), obj, amount)
	if err != nil {
		return "", err
	}
	return m.send(ctx, "buy_tokens", instructions, payer, buyer)
}

// UnwrapSOL closes owner's wrapped SOL account, returning refunds paid in wrapped SOL as lamports.
func (m *PresaleFactory) UnwrapSOL(ctx context.Context, payer, owner *solana.Wallet) (string, error) {
	ix, err := solanago.UnwrapSOLInstruction(owner.PublicKey())
	if err != nil {
		return "", err
	}
	return m.send(ctx, "unwrap_sol", []solana.Instruction{ix}, payer, owner)
}
