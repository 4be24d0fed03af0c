package presale

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
	"github.com/krazyTry/presale-go/presale/math"
)

type FinalizeResult struct {
	Presale    solana.PublicKey
	Settlement math.Settlement
	// UnsoldTokens went back to the presale owner.
	UnsoldTokens uint64
	// Position and UnlockAt are set for auto-listing presales.
	Position    *LiquidityPosition
	UnlockAt    int64
	FinalizedAt int64
}

// FinalizePresale settles a presale that ended, or filled its hard cap, above its soft cap.
// caller must be the presale owner or the factory owner.
func (p *Program) FinalizePresale(ctx context.Context, presale, caller solana.PublicKey) (*FinalizeResult, error) {
	var result *FinalizeResult
	err := p.execResolved(ctx, "finalize_presale", func() ([]solana.PublicKey, func(*Txn) error, error) {
		accounts, err := p.ResolveFinalizePresale(presale, caller)
		if err != nil {
			return nil, nil, err
		}
		return p.finalizePresaleTxn(ctx, accounts, &result)
	})
	if err != nil {
		return nil, err
	}
	p.forgetListing(presale)
	p.logger.Info("presale finalized",
		zap.Stringer("presale", presale),
		zap.Uint64("platformFee", result.Settlement.PlatformFee),
		zap.Uint64("ownerProceeds", result.Settlement.OwnerProceeds),
		zap.Uint64("unsoldTokens", result.UnsoldTokens))
	return result, nil
}

// ResolveFinalizePresale builds the account set of a finalize_presale instruction.
func (p *Program) ResolveFinalizePresale(presale, caller solana.PublicKey) (presalegen.FinalizePresaleAccounts, error) {
	obj, err := loadPresale(p.ledger, presale)
	if err != nil {
		return presalegen.FinalizePresaleAccounts{}, err
	}
	factory, err := loadFactory(p.ledger, obj.Factory)
	if err != nil {
		return presalegen.FinalizePresaleAccounts{}, err
	}
	return presalegen.ResolveFinalizePresale(presale, obj, factory, caller)
}

func (p *Program) finalizePresale(ctx context.Context, accounts presalegen.FinalizePresaleAccounts) (*FinalizeResult, error) {
	var result *FinalizeResult
	writable, fn, err := p.finalizePresaleTxn(ctx, accounts, &result)
	if err != nil {
		return nil, err
	}
	if err := p.exec(ctx, "finalize_presale", writable, fn); err != nil {
		return nil, err
	}
	p.forgetListing(accounts.Presale)
	return result, nil
}

func (p *Program) finalizePresaleTxn(ctx context.Context, accounts presalegen.FinalizePresaleAccounts, out **FinalizeResult) ([]solana.PublicKey, func(*Txn) error, error) {
	vaults, err := presalegen.DeriveVaults(accounts.Presale)
	if err != nil {
		return nil, nil, err
	}
	for _, check := range []struct {
		name      string
		got, want solana.PublicKey
	}{
		{"presale authority", accounts.PresaleAuthority, vaults.Authority},
		{"presale vault", accounts.PresaleVault, vaults.PresaleVault},
		{"token vault", accounts.TokenVault, vaults.TokenVault},
	} {
		if err := expectAccount(check.name, check.got, check.want); err != nil {
			return nil, nil, err
		}
	}

	now := p.clock.Now()
	writable := []solana.PublicKey{
		accounts.Presale,
		accounts.PresaleVault,
		accounts.TokenVault,
		accounts.OwnerPaymentAccount,
		accounts.OwnerTokenAccount,
		accounts.FeeRecipient,
		accounts.DexPaymentAccount,
		accounts.DexTokenAccount,
	}
	fn := func(t *Txn) error {
		presale, err := loadPresale(t, accounts.Presale)
		if err != nil {
			return err
		}
		if presale.IsFinalized {
			return ErrAlreadyFinalized
		}
		if err := expectAccount("factory", accounts.Factory, presale.Factory); err != nil {
			return err
		}
		factory, err := loadFactory(t, accounts.Factory)
		if err != nil {
			return err
		}
		if !accounts.Caller.Equals(presale.Owner) && !accounts.Caller.Equals(factory.Owner) {
			return ErrUnauthorized
		}
		if now < presale.EndSale && presale.FundsRaised < presale.HardCap {
			return ErrSaleNotEnded
		}
		if presale.FundsRaised < presale.SoftCap {
			return ErrSoftCapNotMet
		}

		paymentMint := presalegen.PaymentMint(presale.IsNative, presale.PaymentToken)
		recipient := presalegen.FeeRecipient(presale, factory)
		if ata, _ := associatedAccount(recipient, paymentMint); !ata.Equals(accounts.FeeRecipient) {
			return fmt.Errorf("fee recipient is %s: %w: %w", recipient, errStaleAccounts, ErrInvalidAccount)
		}

		settlement, err := math.Settle(presale.FundsRaised, factory.PlatformFee, presale.IsAutoListing, presale.LiquidityPercent, presale.ListingRate)
		if err != nil {
			return err
		}
		result := &FinalizeResult{Presale: accounts.Presale, Settlement: settlement, FinalizedAt: now}

		if _, err := ensureAssociatedAccount(t, accounts.FeeRecipient, recipient, paymentMint); err != nil {
			return err
		}
		if err := transferTokens(t, accounts.PresaleVault, accounts.FeeRecipient, vaults.Authority, settlement.PlatformFee); err != nil {
			return fmt.Errorf("platform fee: %w", err)
		}

		if presale.IsAutoListing && settlement.LiquidityFunds > 0 {
			if err := p.addLiquidity(ctx, t, accounts, presale, paymentMint, vaults.Authority, now, result); err != nil {
				return err
			}
		}

		if _, err := ensureAssociatedAccount(t, accounts.OwnerPaymentAccount, presale.Owner, paymentMint); err != nil {
			return err
		}
		if err := transferTokens(t, accounts.PresaleVault, accounts.OwnerPaymentAccount, vaults.Authority, settlement.OwnerProceeds); err != nil {
			return fmt.Errorf("owner proceeds: %w", err)
		}

		// everything not owed to buyers goes back to the owner
		tokenVault, err := loadToken(t, accounts.TokenVault)
		if err != nil {
			return err
		}
		outstanding := presale.TokensSold - presale.TokensDelivered
		if tokenVault.Amount < outstanding {
			return fmt.Errorf("token vault holds %d, owes %d: %w", tokenVault.Amount, outstanding, ErrInsufficientFunds)
		}
		result.UnsoldTokens = tokenVault.Amount - outstanding
		if result.UnsoldTokens > 0 {
			if _, err := ensureAssociatedAccount(t, accounts.OwnerTokenAccount, presale.Owner, presale.Token); err != nil {
				return err
			}
			if err := transferTokens(t, accounts.TokenVault, accounts.OwnerTokenAccount, vaults.Authority, result.UnsoldTokens); err != nil {
				return fmt.Errorf("return unsold tokens: %w", err)
			}
		}

		presale.IsFinalized = true
		presale.State = presalegen.PresaleStateFinalized
		presale.FinalizedAt = now
		if err := store(t, accounts.Presale, presale); err != nil {
			return err
		}
		t.Emit(presalegen.PresaleFinalized{
			Presale:         accounts.Presale,
			FundsRaised:     presale.FundsRaised,
			PlatformFee:     settlement.PlatformFee,
			LiquidityFunds:  settlement.LiquidityFunds,
			LiquidityTokens: settlement.LiquidityTokens,
			OwnerProceeds:   settlement.OwnerProceeds,
			FinalizedAt:     now,
		})
		*out = result
		return nil
	}
	return writable, fn, nil
}

// addLiquidity moves the liquidity share into the router's accounts, lists it and locks the LP.
func (p *Program) addLiquidity(
	ctx context.Context,
	t *Txn,
	accounts presalegen.FinalizePresaleAccounts,
	presale *presalegen.Presale,
	paymentMint solana.PublicKey,
	authority solana.PublicKey,
	now int64,
	result *FinalizeResult,
) error {
	if p.listing == nil {
		return ErrListingUnavailable
	}
	if p.locker == nil {
		return ErrLockerUnavailable
	}
	if err := expectAccount("dex router", accounts.DexRouter, presale.DexRouter); err != nil {
		return err
	}
	if _, err := ensureAssociatedAccount(t, accounts.DexPaymentAccount, presale.DexRouter, paymentMint); err != nil {
		return err
	}
	if _, err := ensureAssociatedAccount(t, accounts.DexTokenAccount, presale.DexRouter, presale.Token); err != nil {
		return err
	}

	settlement := result.Settlement
	if err := transferTokens(t, accounts.PresaleVault, accounts.DexPaymentAccount, authority, settlement.LiquidityFunds); err != nil {
		return fmt.Errorf("liquidity funds: %w", err)
	}
	if err := transferTokens(t, accounts.TokenVault, accounts.DexTokenAccount, authority, settlement.LiquidityTokens); err != nil {
		return fmt.Errorf("liquidity tokens: %w", err)
	}

	progress := p.progressOf(accounts.Presale)
	if progress.position == nil {
		position, err := p.listing.AddLiquidity(ctx, ListingRequest{
			Presale:         accounts.Presale,
			DexRouter:       presale.DexRouter,
			UniswapFactory:  presale.UniswapFactory,
			TokenMint:       presale.Token,
			PaymentMint:     paymentMint,
			DexTokenAccount: accounts.DexTokenAccount,
			DexFundAccount:  accounts.DexPaymentAccount,
			TokenAmount:     settlement.LiquidityTokens,
			PaymentAmount:   settlement.LiquidityFunds,
		})
		if err != nil {
			return fmt.Errorf("add liquidity: %w", err)
		}
		progress.position = position
		progress.unlockAt = now + int64(presale.LiquidityTime)
	} else {
		p.logger.Info("reusing liquidity position of an earlier finalize attempt",
			zap.Stringer("presale", accounts.Presale),
			zap.Stringer("lpMint", progress.position.LpMint))
	}

	if !progress.locked {
		if err := p.locker.Lock(ctx, LockRequest{
			Presale:     accounts.Presale,
			Beneficiary: presale.Owner,
			Qerralock:   presale.Qerralock,
			Position:    *progress.position,
			UnlockAt:    progress.unlockAt,
		}); err != nil {
			return fmt.Errorf("lock liquidity: %w", err)
		}
		progress.locked = true
	}
	result.Position = progress.position
	result.UnlockAt = progress.unlockAt
	return nil
}

// listingProgress tracks the external side effects of an auto-listing finalize. The ledger rolls
// back on failure but the DEX and the locker do not.
type listingProgress struct {
	position *LiquidityPosition
	unlockAt int64
	locked   bool
}

// progressOf returns the progress entry of presale, creating it on first use. Callers hold
// the presale's ledger lock, so an entry is only used by one finalize at a time.
func (p *Program) progressOf(presale solana.PublicKey) *listingProgress {
	p.listingsMu.Lock()
	defer p.listingsMu.Unlock()
	progress, ok := p.listings[presale]
	if !ok {
		progress = &listingProgress{}
		p.listings[presale] = progress
	}
	return progress
}

func (p *Program) forgetListing(presale solana.PublicKey) {
	p.listingsMu.Lock()
	delete(p.listings, presale)
	p.listingsMu.Unlock()
}
