package presale

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
	"github.com/krazyTry/presale-go/u128"
)

type CancelResult struct {
	Presale solana.PublicKey
	// Refunds maps each participant to the payment amount returned.
	Refunds        map[solana.PublicKey]uint64
	ReturnedTokens uint64
	// Retained is payment kept for fund-mode buyers who no longer hold their tokens.
	Retained uint64
}

// CanCancel reports whether caller may cancel presale at now: the owner while the sale is open and
// its hard cap unfilled, anyone once the window closed below the soft cap. A sale that reached
// its soft cap after the window, or filled its hard cap, can only be finalized.
func CanCancel(presale *presalegen.Presale, caller solana.PublicKey, now int64) bool {
	if presale.IsFinalized {
		return false
	}
	if now >= presale.EndSale {
		return presale.FundsRaised < presale.SoftCap
	}
	return caller.Equals(presale.Owner) && presale.FundsRaised < presale.HardCap
}

// CancelPresale refunds every participant and returns the sale tokens to the owner. Fund-mode
// buyers give back the tokens they received; a buyer who moved them away is refunded pro rata.
func (p *Program) CancelPresale(ctx context.Context, presale, caller solana.PublicKey) (*CancelResult, error) {
	var result *CancelResult
	err := p.execResolved(ctx, "cancel_presale", func() ([]solana.PublicKey, func(*Txn) error, error) {
		accounts, err := p.ResolveCancelPresale(presale, caller)
		if err != nil {
			return nil, nil, err
		}
		return p.cancelPresaleTxn(accounts, &result)
	})
	if err != nil {
		return nil, err
	}
	p.logger.Info("presale cancelled",
		zap.Stringer("presale", presale),
		zap.Stringer("caller", caller),
		zap.Int("refunds", len(result.Refunds)),
		zap.Uint64("returnedTokens", result.ReturnedTokens))
	return result, nil
}

// ResolveCancelPresale builds the account set of a cancel_presale instruction with one refund
// triple per current participant.
func (p *Program) ResolveCancelPresale(presale, caller solana.PublicKey) (presalegen.CancelPresaleAccounts, error) {
	obj, err := loadPresale(p.ledger, presale)
	if err != nil {
		return presalegen.CancelPresaleAccounts{}, err
	}
	return presalegen.ResolveCancelPresale(presale, obj, caller)
}

func (p *Program) cancelPresale(ctx context.Context, accounts presalegen.CancelPresaleAccounts) (*CancelResult, error) {
	var result *CancelResult
	writable, fn, err := p.cancelPresaleTxn(accounts, &result)
	if err != nil {
		return nil, err
	}
	if err := p.exec(ctx, "cancel_presale", writable, fn); err != nil {
		return nil, err
	}
	return result, nil
}

func (p *Program) cancelPresaleTxn(accounts presalegen.CancelPresaleAccounts, out **CancelResult) ([]solana.PublicKey, func(*Txn) error, error) {
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
	}
	for _, r := range accounts.Refunds {
		writable = append(writable, r.Purchase, r.BuyerPaymentAccount, r.BuyerTokenAccount)
	}

	fn := func(t *Txn) error {
		presale, err := loadPresale(t, accounts.Presale)
		if err != nil {
			return err
		}
		if presale.IsFinalized {
			return ErrAlreadyFinalized
		}
		if !CanCancel(presale, accounts.Caller, now) {
			return ErrUnauthorized
		}
		if len(accounts.Refunds) != len(presale.Participants) {
			return fmt.Errorf("%d refunds for %d participants: %w: %w", len(accounts.Refunds), len(presale.Participants), errStaleAccounts, ErrInvalidAccount)
		}

		paymentMint := presalegen.PaymentMint(presale.IsNative, presale.PaymentToken)
		result := &CancelResult{Presale: accounts.Presale, Refunds: make(map[solana.PublicKey]uint64, len(presale.Participants))}
		for i, buyer := range presale.Participants {
			r := accounts.Refunds[i]
			expected, err := presalegen.ResolveRefund(accounts.Presale, presale, buyer)
			if err != nil {
				return err
			}
			if expected != r {
				return fmt.Errorf("refund accounts of %s: %w: %w", buyer, errStaleAccounts, ErrInvalidAccount)
			}
			amount, err := refundParticipant(t, presale, r, buyer, vaults.Authority, accounts.TokenVault, accounts.PresaleVault, paymentMint)
			if err != nil {
				return fmt.Errorf("refund %s: %w", buyer, err)
			}
			result.Refunds[buyer] = amount
			t.Emit(presalegen.Refunded{Presale: accounts.Presale, Buyer: buyer, Amount: amount})
		}

		tokenVault, err := loadToken(t, accounts.TokenVault)
		if err != nil {
			return err
		}
		if tokenVault.Amount > 0 {
			if _, err := ensureAssociatedAccount(t, accounts.OwnerTokenAccount, presale.Owner, presale.Token); err != nil {
				return err
			}
			if err := transferTokens(t, accounts.TokenVault, accounts.OwnerTokenAccount, vaults.Authority, tokenVault.Amount); err != nil {
				return fmt.Errorf("return sale tokens: %w", err)
			}
			result.ReturnedTokens = tokenVault.Amount
		}
		presaleVault, err := loadToken(t, accounts.PresaleVault)
		if err != nil {
			return err
		}
		if presaleVault.Amount > 0 {
			if _, err := ensureAssociatedAccount(t, accounts.OwnerPaymentAccount, presale.Owner, paymentMint); err != nil {
				return err
			}
			if err := transferTokens(t, accounts.PresaleVault, accounts.OwnerPaymentAccount, vaults.Authority, presaleVault.Amount); err != nil {
				return fmt.Errorf("release retained funds: %w", err)
			}
			result.Retained = presaleVault.Amount
		}

		presale.IsFinalized = true
		presale.State = presalegen.PresaleStateCancelled
		presale.FinalizedAt = now
		if err := store(t, accounts.Presale, presale); err != nil {
			return err
		}
		t.Emit(presalegen.PresaleCancelled{
			Presale:     accounts.Presale,
			Caller:      accounts.Caller,
			FundsRaised: presale.FundsRaised,
		})
		*out = result
		return nil
	}
	return writable, fn, nil
}

func refundParticipant(
	t *Txn,
	presale *presalegen.Presale,
	r presalegen.Refund,
	buyer solana.PublicKey,
	authority solana.PublicKey,
	tokenVault solana.PublicKey,
	presaleVault solana.PublicKey,
	paymentMint solana.PublicKey,
) (uint64, error) {
	purchase, err := loadPurchase(t, r.Purchase)
	if err != nil {
		return 0, err
	}
	if purchase.Refunded {
		return 0, nil
	}

	refund := purchase.Contributed
	if presale.IsFund && purchase.TokensClaimed > 0 {
		available, err := delegatedBalance(t, r.BuyerTokenAccount, authority)
		if err != nil {
			return 0, err
		}
		returned := min(available, purchase.TokensClaimed)
		if err := transferTokens(t, r.BuyerTokenAccount, tokenVault, authority, returned); err != nil {
			return 0, fmt.Errorf("reclaim tokens: %w", err)
		}
		if err := revokeDelegate(t, r.BuyerTokenAccount, authority); err != nil {
			return 0, err
		}
		if returned < purchase.TokensClaimed {
			if refund, err = u128.MulDivFloor(purchase.Contributed, returned, purchase.TokensClaimed); err != nil {
				return 0, ErrMathOverflow
			}
		}
		purchase.TokensClaimed -= returned
	}

	if refund > 0 {
		if _, err := ensureAssociatedAccount(t, r.BuyerPaymentAccount, buyer, paymentMint); err != nil {
			return 0, err
		}
		if err := transferTokens(t, presaleVault, r.BuyerPaymentAccount, authority, refund); err != nil {
			return 0, err
		}
	}
	purchase.Refunded = true
	if err := store(t, r.Purchase, purchase); err != nil {
		return 0, err
	}
	return refund, nil
}
