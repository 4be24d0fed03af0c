package client

import (
	"context"

	"github.com/gagliardetto/solana-go"

	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
	solanago "github.com/krazyTry/presale-go/solana"
)

// FinalizePresaleInstructions settles presale. Missing destination token accounts are created,
// paid by payer.
func (m *PresaleFactory) FinalizePresaleInstructions(
	ctx context.Context,
	payer solana.PublicKey,
	caller solana.PublicKey,
	presale *Presale,
	factory *presalegen.Factory,
) ([]solana.Instruction, error) {
	var instructions []solana.Instruction

	paymentMint := presalegen.PaymentMint(presale.IsNative, presale.PaymentToken)
	atas := [][2]solana.PublicKey{
		{presale.Owner, paymentMint},
		{presale.Owner, presale.Token},
		{presalegen.FeeRecipient(presale.Presale, factory), paymentMint},
	}
	if presale.IsAutoListing {
		atas = append(atas,
			[2]solana.PublicKey{presale.DexRouter, paymentMint},
			[2]solana.PublicKey{presale.DexRouter, presale.Token},
		)
	}
	for _, pair := range atas {
		if _, err := solanago.PrepareTokenATA(ctx, m.rpcClient, pair[0], pair[1], payer, m.commitment, &instructions); err != nil {
			return nil, err
		}
	}

	accounts, err := presalegen.ResolveFinalizePresale(presale.Address, presale.Presale, factory, caller)
	if err != nil {
		return nil, err
	}
	finalizeIx, err := presalegen.NewFinalizePresaleInstruction(accounts)
	if err != nil {
		return nil, err
	}
	return append(instructions, finalizeIx), nil
}

// FinalizePresale is callable by the presale owner or the factory owner.
func (m *PresaleFactory) FinalizePresale(ctx context.Context, payer, caller *solana.Wallet, presale solana.PublicKey) (string, error) {
	obj, err := m.GetPresale(ctx, presale)
	if err != nil {
		return "", err
	}
	factory, err := m.GetFactory(ctx, obj.Factory)
	if err != nil {
		return "", err
	}
	instructions, err := m.FinalizePresaleInstructions(ctx, payer.PublicKey(), caller.PublicKey(), obj, factory)
	if err != nil {
		return "", err
	}
	return m.send(ctx, "finalize_presale", instructions, payer, caller)
}

// CancelPresaleInstructions refunds every participant of presale in one instruction.
func (m *PresaleFactory) CancelPresaleInstructions(
	ctx context.Context,
	payer solana.PublicKey,
	caller solana.PublicKey,
	presale *Presale,
) ([]solana.Instruction, error) {
	var instructions []solana.Instruction

	paymentMint := presalegen.PaymentMint(presale.IsNative, presale.PaymentToken)
	for _, mint := range []solana.PublicKey{paymentMint, presale.Token} {
		if _, err := solanago.PrepareTokenATA(ctx, m.rpcClient, presale.Owner, mint, payer, m.commitment, &instructions); err != nil {
			return nil, err
		}
	}

	accounts, err := presalegen.ResolveCancelPresale(presale.Address, presale.Presale, caller)
	if err != nil {
		return nil, err
	}
	cancelIx, err := presalegen.NewCancelPresaleInstruction(accounts)
	if err != nil {
		return nil, err
	}
	return append(instructions, cancelIx), nil
}

// CancelPresale is open to the presale owner before finalization and to anyone once the sale
// ended below the soft cap.
func (m *PresaleFactory) CancelPresale(ctx context.Context, payer, caller *solana.Wallet, presale solana.PublicKey) (string, error) {
	obj, err := m.GetPresale(ctx, presale)
	if err != nil {
		return "", err
	}
	instructions, err := m.CancelPresaleInstructions(ctx, payer.PublicKey(), caller.PublicKey(), obj)
	if err != nil {
		return "", err
	}
	return m.send(ctx, "cancel_presale", instructions, payer, caller)
}

func (m *PresaleFactory) claimInstructions(ctx context.Context, payer, buyer solana.PublicKey, presale *Presale, vested bool) ([]solana.Instruction, error) {
	var instructions []solana.Instruction

	if _, err := solanago.PrepareTokenATA(ctx, m.rpcClient, buyer, presale.Token, payer, m.commitment, &instructions); err != nil {
		return nil, err
	}
	accounts, err := presalegen.ResolveClaimTokens(presale.Address, presale.Presale, buyer)
	if err != nil {
		return nil, err
	}
	newIx := presalegen.NewClaimTokensInstruction
	if vested {
		newIx = presalegen.NewClaimVestedTokensInstruction
	}
	claimIx, err := newIx(accounts)
	if err != nil {
		return nil, err
	}
	return append(instructions, claimIx), nil
}

func (m *PresaleFactory) claim(ctx context.Context, payer, buyer *solana.Wallet, presale solana.PublicKey, vested bool) (string, error) {
	obj, err := m.GetPresale(ctx, presale)
	if err != nil {
		return "", err
	}
	instructions, err := m.claimInstructions(ctx, payer.PublicKey(), buyer.PublicKey(), obj, vested)
	if err != nil {
		return "", err
	}
	op := "claim_tokens"
	if vested {
		op = "claim_vested_tokens"
	}
	return m.send(ctx, op, instructions, payer, buyer)
}

// ClaimTokens claims whatever is releasable for buyer, vesting or not.
func (m *PresaleFactory) ClaimTokens(ctx context.Context, payer, buyer *solana.Wallet, presale solana.PublicKey) (string, error) {
	return m.claim(ctx, payer, buyer, presale, false)
}

// ClaimVestedTokens fails with VestingDisabled on presales without a vesting schedule.
func (m *PresaleFactory) ClaimVestedTokens(ctx context.Context, payer, buyer *solana.Wallet, presale solana.PublicKey) (string, error) {
	return m.claim(ctx, payer, buyer, presale, true)
}
