package presale

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
	"github.com/krazyTry/presale-go/presale/math"
	"github.com/krazyTry/presale-go/u128"
)

// Receipt describes an accepted contribution.
type Receipt struct {
	Presale    solana.PublicKey
	Buyer      solana.PublicKey
	Amount     uint64
	TokensOwed uint64
	// Delivered is set when the tokens went straight to the buyer (fund mode).
	Delivered   bool
	FundsRaised uint64
	TokensSold  uint64
}

// BuyTokens contributes amount of the payment asset from buyer's associated token account.
func (p *Program) BuyTokens(ctx context.Context, presale, buyer solana.PublicKey, amount uint64) (*Receipt, error) {
	accounts, err := p.ResolveBuyTokens(presale, buyer)
	if err != nil {
		return nil, err
	}
	return p.buyTokens(ctx, accounts, presalegen.BuyTokensArgs{Amount: amount})
}

// ResolveBuyTokens builds the account set of a buy_tokens instruction.
func (p *Program) ResolveBuyTokens(presale, buyer solana.PublicKey) (presalegen.BuyTokensAccounts, error) {
	var accounts presalegen.BuyTokensAccounts
	obj, err := loadPresale(p.ledger, presale)
	if err != nil {
		return accounts, err
	}
	return presalegen.ResolveBuyTokens(presale, obj, buyer)
}

func (p *Program) buyTokens(ctx context.Context, accounts presalegen.BuyTokensAccounts, args presalegen.BuyTokensArgs) (*Receipt, error) {
	vaults, err := presalegen.DeriveVaults(accounts.Presale)
	if err != nil {
		return nil, err
	}
	purchaseKey, err := presalegen.DerivePurchasePDA(accounts.Presale, accounts.Buyer)
	if err != nil {
		return nil, err
	}
	entryKey, err := presalegen.DeriveWhitelistPDA(accounts.Presale, accounts.Buyer)
	if err != nil {
		return nil, err
	}
	for _, check := range []struct {
		name      string
		got, want solana.PublicKey
	}{
		{"purchase", accounts.Purchase, purchaseKey},
		{"whitelist entry", accounts.WhitelistEntry, entryKey},
		{"presale vault", accounts.PresaleVault, vaults.PresaleVault},
		{"token vault", accounts.TokenVault, vaults.TokenVault},
		{"presale authority", accounts.PresaleAuthority, vaults.Authority},
	} {
		if err := expectAccount(check.name, check.got, check.want); err != nil {
			return nil, err
		}
	}

	now := p.clock.Now()
	receipt := &Receipt{Presale: accounts.Presale, Buyer: accounts.Buyer, Amount: args.Amount}
	err = p.exec(ctx, "buy_tokens", []solana.PublicKey{
		accounts.Presale,
		accounts.Purchase,
		accounts.BuyerPaymentAccount,
		accounts.BuyerTokenAccount,
		accounts.PresaleVault,
		accounts.TokenVault,
	}, func(t *Txn) error {
		presale, err := loadPresale(t, accounts.Presale)
		if err != nil {
			return err
		}
		if presale.IsFinalized || now < presale.StartSale || now >= presale.EndSale {
			return ErrSaleNotActive
		}
		if presale.IsWhitelist && !exists(t, accounts.WhitelistEntry) {
			return ErrNotWhitelisted
		}
		if args.Amount == 0 || args.Amount < presale.MinBuy {
			return ErrBelowMinBuy
		}

		purchase := &presalegen.Purchase{Presale: accounts.Presale, Buyer: accounts.Buyer}
		isNewBuyer := !exists(t, accounts.Purchase)
		if !isNewBuyer {
			if purchase, err = loadPurchase(t, accounts.Purchase); err != nil {
				return err
			}
		}
		contributed, err := u128.CheckedAdd(purchase.Contributed, args.Amount)
		if err != nil || contributed > presale.MaxBuy {
			return ErrAboveMaxBuy
		}
		fundsRaised, err := u128.CheckedAdd(presale.FundsRaised, args.Amount)
		if err != nil || fundsRaised > presale.HardCap {
			return ErrCapExceeded
		}
		tokensOwed, err := math.TokensForFunds(args.Amount, presale.PresaleRate)
		if err != nil {
			return err
		}
		if tokensOwed == 0 {
			return fmt.Errorf("amount %d buys no tokens: %w", args.Amount, ErrBelowMinBuy)
		}
		tokensSold, err := u128.CheckedAdd(presale.TokensSold, tokensOwed)
		if err != nil {
			return ErrMathOverflow
		}

		if err := transferTokens(t, accounts.BuyerPaymentAccount, accounts.PresaleVault, accounts.Buyer, args.Amount); err != nil {
			return fmt.Errorf("pay: %w", err)
		}

		purchase.Contributed = contributed
		purchase.TokensOwed += tokensOwed
		if presale.IsFund {
			if _, err := ensureAssociatedAccount(t, accounts.BuyerTokenAccount, accounts.Buyer, presale.Token); err != nil {
				return err
			}
			if err := transferTokens(t, accounts.TokenVault, accounts.BuyerTokenAccount, vaults.Authority, tokensOwed); err != nil {
				return fmt.Errorf("deliver: %w", err)
			}
			// lets a cancellation pull the delivered tokens back
			if err := approveDelegate(t, accounts.BuyerTokenAccount, vaults.Authority, tokensOwed); err != nil {
				return err
			}
			purchase.TokensClaimed += tokensOwed
			presale.TokensDelivered += tokensOwed
			receipt.Delivered = true
		}

		presale.FundsRaised = fundsRaised
		presale.TokensSold = tokensSold
		if isNewBuyer {
			presale.Participants = append(presale.Participants, accounts.Buyer)
		}
		if err := store(t, accounts.Purchase, purchase); err != nil {
			return err
		}
		if err := store(t, accounts.Presale, presale); err != nil {
			return err
		}
		t.Emit(presalegen.TokensPurchased{
			Presale:     accounts.Presale,
			Buyer:       accounts.Buyer,
			Amount:      args.Amount,
			TokensOwed:  tokensOwed,
			FundsRaised: fundsRaised,
			TokensSold:  tokensSold,
		})

		receipt.TokensOwed = tokensOwed
		receipt.FundsRaised = fundsRaised
		receipt.TokensSold = tokensSold
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.logger.Debug("tokens purchased",
		zap.Stringer("presale", accounts.Presale),
		zap.Stringer("buyer", accounts.Buyer),
		zap.Uint64("amount", args.Amount),
		zap.Uint64("fundsRaised", receipt.FundsRaised))
	return receipt, nil
}
