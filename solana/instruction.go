package solana

import (
	"context"
	"errors"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
)

// PrepareTokenATA returns owner's ATA for mint and appends its creation when it does not exist yet.
func PrepareTokenATA(
	ctx context.Context,
	rpcClient *rpc.Client,
	owner solana.PublicKey,
	mint solana.PublicKey,
	payer solana.PublicKey,
	commitment rpc.CommitmentType,
	instructions *[]solana.Instruction,
) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}

	info, err := GetAccountInfo(ctx, rpcClient, ata, commitment)
	if err != nil && !errors.Is(err, rpc.ErrNotFound) {
		return solana.PublicKey{}, err
	}
	if info == nil || info.Value == nil {
		*instructions = append(*instructions, associatedtokenaccount.NewCreateInstruction(payer, owner, mint).Build())
	}
	return ata, nil
}

type transferPair struct {
	from, to solana.PublicKey
}

// mergeKey identifies instructions that only need to run once per transaction. Transfers are
// returned separately since repeats are summed rather than dropped.
func mergeKey(ix solana.Instruction) (string, *system.Transfer) {
	switch inst := ix.(type) {
	case *associatedtokenaccount.Instruction:
		if create, ok := inst.Impl.(associatedtokenaccount.Create); ok {
			return "ata/" + create.Payer.String() + "/" + create.Wallet.String() + "/" + create.Mint.String(), nil
		}
	case *system.Instruction:
		if transfer, ok := inst.Impl.(system.Transfer); ok {
			return "", &transfer
		}
	case *token.Instruction:
		switch impl := inst.Impl.(type) {
		case token.SyncNative:
			return "sync/" + impl.GetTokenAccount().PublicKey.String(), nil
		case token.CloseAccount:
			return "close/" + impl.GetAccount().PublicKey.String() +
				"/" + impl.GetDestinationAccount().PublicKey.String() +
				"/" + impl.GetOwnerAccount().PublicKey.String(), nil
		}
	}
	return "", nil
}

// MergeInstructions drops repeated ATA creations, sync-native and close-account instructions and
// folds system transfers between the same pair into the first one.
func MergeInstructions(instructions []solana.Instruction) []solana.Instruction {
	seen := make(map[string]struct{})
	transfers := make(map[transferPair]*system.Transfer)
	out := make([]solana.Instruction, 0, len(instructions))

	for _, ix := range instructions {
		key, transfer := mergeKey(ix)
		if transfer != nil {
			pair := transferPair{
				from: transfer.GetFundingAccount().PublicKey,
				to:   transfer.GetRecipientAccount().PublicKey,
			}
			if first, ok := transfers[pair]; ok {
				// Lamports points into the first instruction
				*first.Lamports += *transfer.Lamports
				continue
			}
			transfers[pair] = transfer
		} else if key != "" {
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
		}
		out = append(out, ix)
	}
	return out
}
