package presale

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	solanago "github.com/krazyTry/presale-go/solana"
	"github.com/krazyTry/presale-go/u128"
)

// CreateTokenAccount creates owner's associated token account for mint if it does not exist.
func (p *Program) CreateTokenAccount(ctx context.Context, owner, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, err := associatedAccount(owner, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if err := p.exec(ctx, "create_token_account", []solana.PublicKey{ata}, func(t *Txn) error {
		_, err := ensureTokenAccount(t, ata, owner, mint)
		return err
	}); err != nil {
		return solana.PublicKey{}, err
	}
	return ata, nil
}

// MintTo credits amount of mint to owner's associated token account, creating it when needed.
func (p *Program) MintTo(ctx context.Context, owner, mint solana.PublicKey, amount uint64) (solana.PublicKey, error) {
	ata, err := associatedAccount(owner, mint)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if err := p.exec(ctx, "mint_to", []solana.PublicKey{ata}, func(t *Txn) error {
		account, err := ensureTokenAccount(t, ata, owner, mint)
		if err != nil {
			return err
		}
		if account.Amount, err = u128.CheckedAdd(account.Amount, amount); err != nil {
			return ErrMathOverflow
		}
		return storeToken(t, account)
	}); err != nil {
		return solana.PublicKey{}, err
	}
	p.logger.Debug("minted",
		zap.Stringer("account", ata),
		zap.Stringer("mint", mint),
		zap.Uint64("amount", amount))
	return ata, nil
}

// Transfer moves tokens between existing accounts; authority must own from or be its delegate.
func (p *Program) Transfer(ctx context.Context, from, to, authority solana.PublicKey, amount uint64) error {
	return p.exec(ctx, "transfer", []solana.PublicKey{from, to}, func(t *Txn) error {
		return transferTokens(t, from, to, authority, amount)
	})
}

func (p *Program) TokenAccount(ctx context.Context, address solana.PublicKey) (*solanago.Account, error) {
	return loadToken(p.ledger, address)
}

// TokenBalance returns the balance of a token account, 0 if it does not exist.
func (p *Program) TokenBalance(ctx context.Context, address solana.PublicKey) (uint64, error) {
	account, err := loadToken(p.ledger, address)
	if err != nil {
		if exists(p.ledger, address) {
			return 0, fmt.Errorf("token balance: %w", err)
		}
		return 0, nil
	}
	return account.Amount, nil
}
