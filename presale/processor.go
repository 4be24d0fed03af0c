package presale

import (
	"context"
	"fmt"

	binary "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/samber/lo"

	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
)

// ProcessInstruction executes an encoded presale factory instruction, as built by the client
// package, against the ledger. Accounts flagged as signers must be listed in signers, and so must
// the instruction's authority account whatever its meta says.
func (p *Program) ProcessInstruction(ctx context.Context, ix solana.Instruction, signers ...solana.PublicKey) (any, error) {
	if !ix.ProgramID().Equals(presalegen.ProgramID) {
		return nil, fmt.Errorf("instruction for program %s: %w", ix.ProgramID(), ErrInvalidAccount)
	}
	data, err := ix.Data()
	if err != nil {
		return nil, err
	}
	if len(data) < 8 {
		return nil, fmt.Errorf("instruction data too short (%d bytes)", len(data))
	}
	metas := ix.Accounts()
	for _, meta := range metas {
		if meta.IsSigner && !lo.Contains(signers, meta.PublicKey) {
			return nil, fmt.Errorf("missing signature for %s: %w", meta.PublicKey, ErrUnauthorized)
		}
	}

	var disc presalegen.Discriminator
	copy(disc[:], data[:8])
	decoder := binary.NewBorshDecoder(data[8:])
	keys := lo.Map(metas, func(m *solana.AccountMeta, _ int) solana.PublicKey { return m.PublicKey })

	switch disc {
	case presalegen.Instruction_InitializeFactory:
		var args presalegen.InitializeFactoryArgs
		if err := decodeArgs(decoder, &args, keys, 3); err != nil {
			return nil, err
		}
		if err := requireSigner(signers, "owner", keys[1]); err != nil {
			return nil, err
		}
		return p.initializeFactory(ctx, presalegen.InitializeFactoryAccounts{
			Factory: keys[0], Owner: keys[1], SystemProgram: keys[2],
		}, args)
	case presalegen.Instruction_SetPlatformFee:
		var args presalegen.SetPlatformFeeArgs
		if err := decodeArgs(decoder, &args, keys, 2); err != nil {
			return nil, err
		}
		if err := requireSigner(signers, "owner", keys[1]); err != nil {
			return nil, err
		}
		return nil, p.setPlatformFee(ctx, presalegen.FactoryAdminAccounts{Factory: keys[0], Owner: keys[1]}, args)
	case presalegen.Instruction_TransferOwnership:
		var args presalegen.TransferOwnershipArgs
		if err := decodeArgs(decoder, &args, keys, 2); err != nil {
			return nil, err
		}
		if err := requireSigner(signers, "owner", keys[1]); err != nil {
			return nil, err
		}
		return nil, p.transferOwnership(ctx, presalegen.FactoryAdminAccounts{Factory: keys[0], Owner: keys[1]}, args)
	case presalegen.Instruction_CreatePresale:
		var args presalegen.CreatePresaleArgs
		if err := decodeArgs(decoder, &args, keys, 12); err != nil {
			return nil, err
		}
		if err := requireSigner(signers, "owner", keys[2]); err != nil {
			return nil, err
		}
		return p.createPresale(ctx, presalegen.CreatePresaleAccounts{
			Factory:           keys[0],
			Presale:           keys[1],
			Owner:             keys[2],
			PresaleAuthority:  keys[3],
			PresaleVault:      keys[4],
			TokenVault:        keys[5],
			TokenMint:         keys[6],
			PaymentMint:       keys[7],
			OwnerTokenAccount: keys[8],
			TokenProgram:      keys[9],
			SystemProgram:     keys[10],
			Rent:              keys[11],
		}, args)
	case presalegen.Instruction_AddWhitelist, presalegen.Instruction_RemoveWhitelist:
		var args presalegen.WhitelistArgs
		if err := decodeArgs(decoder, &args, keys, 3); err != nil {
			return nil, err
		}
		if err := requireSigner(signers, "owner", keys[1]); err != nil {
			return nil, err
		}
		accounts := presalegen.WhitelistAccounts{
			Presale: keys[0], Owner: keys[1], SystemProgram: keys[2], Entries: keys[3:],
		}
		return nil, p.updateWhitelist(ctx, accounts, args, disc == presalegen.Instruction_AddWhitelist)
	case presalegen.Instruction_BuyTokens:
		var args presalegen.BuyTokensArgs
		if err := decodeArgs(decoder, &args, keys, 11); err != nil {
			return nil, err
		}
		if err := requireSigner(signers, "buyer", keys[3]); err != nil {
			return nil, err
		}
		return p.buyTokens(ctx, presalegen.BuyTokensAccounts{
			Presale:             keys[0],
			Purchase:            keys[1],
			WhitelistEntry:      keys[2],
			Buyer:               keys[3],
			BuyerPaymentAccount: keys[4],
			BuyerTokenAccount:   keys[5],
			PresaleVault:        keys[6],
			TokenVault:          keys[7],
			PresaleAuthority:    keys[8],
			TokenProgram:        keys[9],
			SystemProgram:       keys[10],
		}, args)
	case presalegen.Instruction_FinalizePresale:
		if err := decodeArgs(decoder, nil, keys, 15); err != nil {
			return nil, err
		}
		if err := requireSigner(signers, "caller", keys[2]); err != nil {
			return nil, err
		}
		return p.finalizePresale(ctx, presalegen.FinalizePresaleAccounts{
			Factory:             keys[0],
			Presale:             keys[1],
			Caller:              keys[2],
			PresaleAuthority:    keys[3],
			PresaleVault:        keys[4],
			TokenVault:          keys[5],
			OwnerPaymentAccount: keys[6],
			OwnerTokenAccount:   keys[7],
			FeeRecipient:        keys[8],
			DexPaymentAccount:   keys[9],
			DexTokenAccount:     keys[10],
			DexRouter:           keys[11],
			Qerralock:           keys[12],
			UniswapFactory:      keys[13],
			TokenProgram:        keys[14],
		})
	case presalegen.Instruction_CancelPresale:
		if err := decodeArgs(decoder, nil, keys, 8); err != nil {
			return nil, err
		}
		if err := requireSigner(signers, "caller", keys[1]); err != nil {
			return nil, err
		}
		remaining := keys[8:]
		if len(remaining)%3 != 0 {
			return nil, fmt.Errorf("cancel_presale: %d remaining accounts: %w", len(remaining), ErrInvalidAccount)
		}
		refunds := lo.Map(lo.Chunk(remaining, 3), func(c []solana.PublicKey, _ int) presalegen.Refund {
			return presalegen.Refund{Purchase: c[0], BuyerPaymentAccount: c[1], BuyerTokenAccount: c[2]}
		})
		return p.cancelPresale(ctx, presalegen.CancelPresaleAccounts{
			Presale:             keys[0],
			Caller:              keys[1],
			PresaleAuthority:    keys[2],
			PresaleVault:        keys[3],
			TokenVault:          keys[4],
			OwnerPaymentAccount: keys[5],
			OwnerTokenAccount:   keys[6],
			TokenProgram:        keys[7],
			Refunds:             refunds,
		})
	case presalegen.Instruction_ClaimTokens, presalegen.Instruction_ClaimVestedTokens:
		if err := decodeArgs(decoder, nil, keys, 7); err != nil {
			return nil, err
		}
		if err := requireSigner(signers, "buyer", keys[2]); err != nil {
			return nil, err
		}
		return p.claimTokens(ctx, presalegen.ClaimTokensAccounts{
			Presale:           keys[0],
			Purchase:          keys[1],
			Buyer:             keys[2],
			BuyerTokenAccount: keys[3],
			TokenVault:        keys[4],
			PresaleAuthority:  keys[5],
			TokenProgram:      keys[6],
		}, disc == presalegen.Instruction_ClaimVestedTokens)
	default:
		return nil, fmt.Errorf("unknown instruction discriminator %x", disc[:])
	}
}

// requireSigner checks the account a handler trusts as its authority.
func requireSigner(signers []solana.PublicKey, role string, key solana.PublicKey) error {
	if !lo.Contains(signers, key) {
		return fmt.Errorf("%s %s did not sign: %w", role, key, ErrUnauthorized)
	}
	return nil
}

func decodeArgs(decoder *binary.Decoder, args any, keys []solana.PublicKey, minAccounts int) error {
	if len(keys) < minAccounts {
		return fmt.Errorf("expected at least %d accounts, got %d: %w", minAccounts, len(keys), ErrInvalidAccount)
	}
	if args == nil {
		return nil
	}
	if err := decoder.Decode(args); err != nil {
		return fmt.Errorf("decode instruction args: %w", err)
	}
	return nil
}
