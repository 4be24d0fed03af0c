package presale

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
	"github.com/krazyTry/presale-go/presale/math"
)

// ClaimTokens releases what buyer can claim now from a finalized presale: everything owed for
// non-vesting presales, the unlocked schedule share otherwise.
func (p *Program) ClaimTokens(ctx context.Context, presale, buyer solana.PublicKey) (uint64, error) {
	accounts, err := p.ResolveClaimTokens(presale, buyer)
	if err != nil {
		return 0, err
	}
	return p.claimTokens(ctx, accounts, false)
}

// ClaimVestedTokens is ClaimTokens restricted to vesting presales.
func (p *Program) ClaimVestedTokens(ctx context.Context, presale, buyer solana.PublicKey) (uint64, error) {
	accounts, err := p.ResolveClaimTokens(presale, buyer)
	if err != nil {
		return 0, err
	}
	return p.claimTokens(ctx, accounts, true)
}

// ResolveClaimTokens builds the account set of a claim instruction.
func (p *Program) ResolveClaimTokens(presale, buyer solana.PublicKey) (presalegen.ClaimTokensAccounts, error) {
	obj, err := loadPresale(p.ledger, presale)
	if err != nil {
		return presalegen.ClaimTokensAccounts{}, err
	}
	return presalegen.ResolveClaimTokens(presale, obj, buyer)
}

// Releasable is the amount purchase can claim at now, assuming presale is finalized.
func Releasable(presale *presalegen.Presale, purchase *presalegen.Purchase, now int64) uint64 {
	if !presale.IsVesting {
		if purchase.TokensClaimed >= purchase.TokensOwed {
			return 0
		}
		return purchase.TokensOwed - purchase.TokensClaimed
	}
	elapsed := math.ElapsedPeriods(now, presale.FinalizedAt, presale.VestingPeriod)
	return math.VestingReleasable(elapsed, presale.FirstReleasePercent, presale.TokensReleasePercent, purchase.TokensOwed, purchase.TokensClaimed)
}

func (p *Program) claimTokens(ctx context.Context, accounts presalegen.ClaimTokensAccounts, vestedOnly bool) (uint64, error) {
	vaults, err := presalegen.DeriveVaults(accounts.Presale)
	if err != nil {
		return 0, err
	}
	purchaseKey, err := presalegen.DerivePurchasePDA(accounts.Presale, accounts.Buyer)
	if err != nil {
		return 0, err
	}
	for _, check := range []struct {
		name      string
		got, want solana.PublicKey
	}{
		{"purchase", accounts.Purchase, purchaseKey},
		{"token vault", accounts.TokenVault, vaults.TokenVault},
		{"presale authority", accounts.PresaleAuthority, vaults.Authority},
	} {
		if err := expectAccount(check.name, check.got, check.want); err != nil {
			return 0, err
		}
	}

	op := "claim_tokens"
	if vestedOnly {
		op = "claim_vested_tokens"
	}
	now := p.clock.Now()
	var amount uint64
	err = p.exec(ctx, op, []solana.PublicKey{
		accounts.Presale,
		accounts.Purchase,
		accounts.BuyerTokenAccount,
		accounts.TokenVault,
	}, func(t *Txn) error {
		presale, err := loadPresale(t, accounts.Presale)
		if err != nil {
			return err
		}
		if vestedOnly && !presale.IsVesting {
			return ErrVestingDisabled
		}
		if presale.State != presalegen.PresaleStateFinalized {
			return ErrNotFinalized
		}
		if !exists(t, accounts.Purchase) {
			return ErrNothingToClaim
		}
		purchase, err := loadPurchase(t, accounts.Purchase)
		if err != nil {
			return err
		}
		if amount = Releasable(presale, purchase, now); amount == 0 {
			return ErrNothingToClaim
		}

		if _, err := ensureAssociatedAccount(t, accounts.BuyerTokenAccount, accounts.Buyer, presale.Token); err != nil {
			return err
		}
		if err := transferTokens(t, accounts.TokenVault, accounts.BuyerTokenAccount, vaults.Authority, amount); err != nil {
			return fmt.Errorf("release: %w", err)
		}
		purchase.TokensClaimed += amount
		presale.TokensDelivered += amount
		if err := store(t, accounts.Purchase, purchase); err != nil {
			return err
		}
		if err := store(t, accounts.Presale, presale); err != nil {
			return err
		}
		t.Emit(presalegen.TokensClaimed{
			Presale:      accounts.Presale,
			Buyer:        accounts.Buyer,
			Amount:       amount,
			TotalClaimed: purchase.TokensClaimed,
		})
		return nil
	})
	if err != nil {
		return 0, err
	}
	p.logger.Debug("tokens claimed",
		zap.Stringer("presale", accounts.Presale),
		zap.Stringer("buyer", accounts.Buyer),
		zap.Uint64("amount", amount))
	return amount, nil
}
