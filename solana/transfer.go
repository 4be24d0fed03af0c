package solana

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
)

// WrapSOLInstructions funds owner's wrapped SOL account with lamports, creating it when needed.
func WrapSOLInstructions(
	ctx context.Context,
	rpcClient *rpc.Client,
	owner solana.PublicKey,
	payer solana.PublicKey,
	lamports uint64,
	commitment rpc.CommitmentType,
) (solana.PublicKey, []solana.Instruction, error) {
	var instructions []solana.Instruction

	wsolAccount, err := PrepareTokenATA(ctx, rpcClient, owner, solana.WrappedSol, payer, commitment, &instructions)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}

	transferIx := system.NewTransferInstruction(
		lamports,
		owner,
		wsolAccount,
	).Build()

	syncIx := token.NewSyncNativeInstruction(wsolAccount).Build()

	return wsolAccount, append(instructions, transferIx, syncIx), nil
}

// UnwrapSOLInstruction closes owner's wrapped SOL account and returns the lamports to owner.
func UnwrapSOLInstruction(owner solana.PublicKey) (solana.Instruction, error) {
	wsolAccount, _, err := solana.FindAssociatedTokenAddress(owner, solana.WrappedSol)
	if err != nil {
		return nil, err
	}
	return token.NewCloseAccountInstruction(
		wsolAccount,
		owner,
		owner,
		[]solana.PublicKey{},
	).Build(), nil
}
