package client

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
)

func (m *PresaleFactory) send(ctx context.Context, op string, instructions []solana.Instruction, payer *solana.Wallet, signers ...*solana.Wallet) (string, error) {
	sig, err := m.sender().Send(ctx, instructions, payer, signers...)
	if err != nil {
		err = ProgramErrorFrom(err)
		m.logger.Warn("transaction failed", zap.String("op", op), zap.Error(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}
	m.logger.Info("transaction sent", zap.String("op", op), zap.String("signature", sig), zap.Bool("simulate", m.bSimulate))
	return sig, nil
}

func (m *PresaleFactory) ownerWallet(owner *solana.Wallet) (*solana.Wallet, error) {
	if owner != nil {
		return owner, nil
	}
	if m.owner == nil {
		return nil, fmt.Errorf("no factory owner wallet: %w", presalegen.ErrUnauthorized)
	}
	return m.owner, nil
}

// InitializeFactoryInstruction registers the factory PDA of owner.
func InitializeFactoryInstruction(owner solana.PublicKey, platformFee uint64) (solana.Instruction, solana.PublicKey, error) {
	factory, err := presalegen.DeriveFactoryPDA(owner)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	ix, err := presalegen.NewInitializeFactoryInstruction(
		presalegen.InitializeFactoryArgs{PlatformFee: platformFee},
		presalegen.InitializeFactoryAccounts{
			Factory:       factory,
			Owner:         owner,
			SystemProgram: solana.SystemProgramID,
		},
	)
	return ix, factory, err
}

// InitializeFactory creates the factory of owner (the client's owner wallet when nil).
func (m *PresaleFactory) InitializeFactory(ctx context.Context, payer, owner *solana.Wallet, platformFee uint64) (string, solana.PublicKey, error) {
	owner, err := m.ownerWallet(owner)
	if err != nil {
		return "", solana.PublicKey{}, err
	}
	ix, factory, err := InitializeFactoryInstruction(owner.PublicKey(), platformFee)
	if err != nil {
		return "", solana.PublicKey{}, err
	}
	sig, err := m.send(ctx, "initialize_factory", []solana.Instruction{ix}, payer, owner)
	return sig, factory, err
}

func SetPlatformFeeInstruction(factory, owner solana.PublicKey, platformFee uint64) (solana.Instruction, error) {
	return presalegen.NewSetPlatformFeeInstruction(
		presalegen.SetPlatformFeeArgs{PlatformFee: platformFee},
		presalegen.FactoryAdminAccounts{Factory: factory, Owner: owner},
	)
}

func (m *PresaleFactory) SetPlatformFee(ctx context.Context, payer, owner *solana.Wallet, factory solana.PublicKey, platformFee uint64) (string, error) {
	owner, err := m.ownerWallet(owner)
	if err != nil {
		return "", err
	}
	ix, err := SetPlatformFeeInstruction(factory, owner.PublicKey(), platformFee)
	if err != nil {
		return "", err
	}
	return m.send(ctx, "set_platform_fee", []solana.Instruction{ix}, payer, owner)
}

func TransferOwnershipInstruction(factory, owner, newOwner solana.PublicKey) (solana.Instruction, error) {
	if newOwner.IsZero() {
		return nil, fmt.Errorf("new owner: %w", presalegen.ErrInvalidAccount)
	}
	return presalegen.NewTransferOwnershipInstruction(
		presalegen.TransferOwnershipArgs{NewOwner: newOwner},
		presalegen.FactoryAdminAccounts{Factory: factory, Owner: owner},
	)
}

// TransferOwnership hands factory to newOwner. The factory keeps its address, which stays the PDA
// of the owner that initialized it.
func (m *PresaleFactory) TransferOwnership(ctx context.Context, payer, owner *solana.Wallet, factory, newOwner solana.PublicKey) (string, error) {
	owner, err := m.ownerWallet(owner)
	if err != nil {
		return "", err
	}
	ix, err := TransferOwnershipInstruction(factory, owner.PublicKey(), newOwner)
	if err != nil {
		return "", err
	}
	return m.send(ctx, "transfer_ownership", []solana.Instruction{ix}, payer, owner)
}
