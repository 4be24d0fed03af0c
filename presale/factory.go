package presale

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
	"github.com/krazyTry/presale-go/presale/math"
)

// FactoryAddress returns the factory PDA of owner.
func FactoryAddress(owner solana.PublicKey) (solana.PublicKey, error) {
	return presalegen.DeriveFactoryPDA(owner)
}

// InitializeFactory registers a factory for owner with a platform fee in basis points.
//
// Example:
//
// factory, _, err := program.InitializeFactory(ctx, owner, 500)
func (p *Program) InitializeFactory(ctx context.Context, owner solana.PublicKey, platformFee uint64) (solana.PublicKey, *presalegen.Factory, error) {
	factory, err := FactoryAddress(owner)
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	obj, err := p.initializeFactory(ctx, presalegen.InitializeFactoryAccounts{
		Factory:       factory,
		Owner:         owner,
		SystemProgram: solana.SystemProgramID,
	}, presalegen.InitializeFactoryArgs{PlatformFee: platformFee})
	if err != nil {
		return solana.PublicKey{}, nil, err
	}
	return factory, obj, nil
}

func (p *Program) initializeFactory(ctx context.Context, accounts presalegen.InitializeFactoryAccounts, args presalegen.InitializeFactoryArgs) (*presalegen.Factory, error) {
	if args.PlatformFee > math.BasisPointMax {
		return nil, ErrInvalidFee
	}
	want, err := FactoryAddress(accounts.Owner)
	if err != nil {
		return nil, err
	}
	if err := expectAccount("factory", accounts.Factory, want); err != nil {
		return nil, err
	}

	obj := &presalegen.Factory{
		Owner:       accounts.Owner,
		PlatformFee: args.PlatformFee,
	}
	if err := p.exec(ctx, "initialize_factory", []solana.PublicKey{accounts.Factory}, func(t *Txn) error {
		if exists(t, accounts.Factory) {
			return fmt.Errorf("factory %s: %w", accounts.Factory, ErrAccountAlreadyInitialized)
		}
		if err := store(t, accounts.Factory, obj); err != nil {
			return err
		}
		t.Emit(presalegen.FactoryInitialized{
			Factory:     accounts.Factory,
			Owner:       accounts.Owner,
			PlatformFee: args.PlatformFee,
		})
		return nil
	}); err != nil {
		return nil, err
	}

	p.logger.Info("factory initialized",
		zap.Stringer("factory", accounts.Factory),
		zap.Stringer("owner", accounts.Owner),
		zap.Uint64("platformFee", args.PlatformFee))
	return obj, nil
}

// SetPlatformFee changes the fee applied to presales finalized from now on.
func (p *Program) SetPlatformFee(ctx context.Context, factory, caller solana.PublicKey, platformFee uint64) error {
	return p.setPlatformFee(ctx, presalegen.FactoryAdminAccounts{Factory: factory, Owner: caller}, presalegen.SetPlatformFeeArgs{PlatformFee: platformFee})
}

func (p *Program) setPlatformFee(ctx context.Context, accounts presalegen.FactoryAdminAccounts, args presalegen.SetPlatformFeeArgs) error {
	if args.PlatformFee > math.BasisPointMax {
		return ErrInvalidFee
	}
	return p.exec(ctx, "set_platform_fee", []solana.PublicKey{accounts.Factory}, func(t *Txn) error {
		obj, err := loadFactory(t, accounts.Factory)
		if err != nil {
			return err
		}
		if !obj.Owner.Equals(accounts.Owner) {
			return ErrUnauthorized
		}
		old := obj.PlatformFee
		obj.PlatformFee = args.PlatformFee
		if err := store(t, accounts.Factory, obj); err != nil {
			return err
		}
		t.Emit(presalegen.PlatformFeeUpdated{
			Factory:        accounts.Factory,
			OldPlatformFee: old,
			NewPlatformFee: args.PlatformFee,
		})
		return nil
	})
}

// TransferOwnership hands the factory to newOwner. The factory address does not change.
func (p *Program) TransferOwnership(ctx context.Context, factory, caller, newOwner solana.PublicKey) error {
	return p.transferOwnership(ctx, presalegen.FactoryAdminAccounts{Factory: factory, Owner: caller}, presalegen.TransferOwnershipArgs{NewOwner: newOwner})
}

func (p *Program) transferOwnership(ctx context.Context, accounts presalegen.FactoryAdminAccounts, args presalegen.TransferOwnershipArgs) error {
	if args.NewOwner.IsZero() {
		return fmt.Errorf("new owner: %w", ErrInvalidAccount)
	}
	return p.exec(ctx, "transfer_ownership", []solana.PublicKey{accounts.Factory}, func(t *Txn) error {
		obj, err := loadFactory(t, accounts.Factory)
		if err != nil {
			return err
		}
		if !obj.Owner.Equals(accounts.Owner) {
			return ErrUnauthorized
		}
		obj.Owner = args.NewOwner
		if err := store(t, accounts.Factory, obj); err != nil {
			return err
		}
		t.Emit(presalegen.OwnershipTransferred{
			Factory:       accounts.Factory,
			PreviousOwner: accounts.Owner,
			NewOwner:      args.NewOwner,
		})
		return nil
	})
}
