package presale

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	solanago "github.com/krazyTry/presale-go/solana"
	"github.com/krazyTry/presale-go/u128"
)

func associatedAccount(owner, mint solana.PublicKey) (solana.PublicKey, error) {
	ata, _, err := solana.FindAssociatedTokenAddress(owner, mint)
	return ata, err
}

// ensureTokenAccount loads address or initializes it for (owner, mint).
func ensureTokenAccount(t *Txn, address, owner, mint solana.PublicKey) (*solanago.Account, error) {
	if exists(t, address) {
		account, err := loadToken(t, address)
		if err != nil {
			return nil, err
		}
		if !account.Mint.Equals(mint) || !account.Owner.Equals(owner) {
			return nil, fmt.Errorf("token account %s: mint/owner mismatch: %w", address, ErrInvalidAccount)
		}
		return account, nil
	}
	account := solanago.NewAccount(address, mint, owner)
	if err := storeToken(t, account); err != nil {
		return nil, err
	}
	return account, nil
}

// ensureAssociatedAccount is ensureTokenAccount for an associated token address.
func ensureAssociatedAccount(t *Txn, address, owner, mint solana.PublicKey) (*solanago.Account, error) {
	ata, err := associatedAccount(owner, mint)
	if err != nil {
		return nil, err
	}
	if err := expectAccount("associated token account", address, ata); err != nil {
		return nil, err
	}
	return ensureTokenAccount(t, address, owner, mint)
}

// transferTokens moves amount between two token accounts of the same mint. authority must own
// the source or be its delegate for at least amount.
func transferTokens(t *Txn, from, to, authority solana.PublicKey, amount uint64) error {
	if amount == 0 {
		return nil
	}
	src, err := loadToken(t, from)
	if err != nil {
		return err
	}
	dst, err := loadToken(t, to)
	if err != nil {
		return err
	}
	if !src.Mint.Equals(dst.Mint) {
		return fmt.Errorf("transfer %s -> %s: mint mismatch: %w", from, to, ErrInvalidAccount)
	}
	if !src.CanTransfer(authority, amount) {
		return fmt.Errorf("transfer from %s by %s: %w", from, authority, ErrUnauthorized)
	}
	if src.Amount < amount {
		return fmt.Errorf("transfer from %s: balance %d < %d: %w", from, src.Amount, amount, ErrInsufficientFunds)
	}
	if from.Equals(to) {
		return nil
	}

	src.Amount -= amount
	if !src.Owner.Equals(authority) {
		src.DelegatedAmount -= amount
		if src.DelegatedAmount == 0 {
			src.Delegate = nil
		}
	}
	if dst.Amount, err = u128.CheckedAdd(dst.Amount, amount); err != nil {
		return ErrMathOverflow
	}
	if err := storeToken(t, src); err != nil {
		return err
	}
	return storeToken(t, dst)
}

// approveDelegate lets delegate move up to amount more out of address.
func approveDelegate(t *Txn, address, delegate solana.PublicKey, amount uint64) error {
	account, err := loadToken(t, address)
	if err != nil {
		return err
	}
	if account.Delegate == nil || !account.Delegate.Equals(delegate) {
		account.Delegate = &delegate
		account.DelegatedAmount = 0
	}
	if account.DelegatedAmount, err = u128.CheckedAdd(account.DelegatedAmount, amount); err != nil {
		return ErrMathOverflow
	}
	return storeToken(t, account)
}

// delegatedBalance is what delegate can pull from address right now.
func delegatedBalance(r accountReader, address, delegate solana.PublicKey) (uint64, error) {
	account, err := loadToken(r, address)
	if err != nil {
		return 0, err
	}
	if account.Delegate == nil || !account.Delegate.Equals(delegate) || account.IsFrozen {
		return 0, nil
	}
	return min(account.Amount, account.DelegatedAmount), nil
}

// revokeDelegate clears delegate's approval on address, if it holds one.
func revokeDelegate(t *Txn, address, delegate solana.PublicKey) error {
	account, err := loadToken(t, address)
	if err != nil {
		return err
	}
	if account.Delegate == nil || !account.Delegate.Equals(delegate) {
		return nil
	}
	account.Delegate = nil
	account.DelegatedAmount = 0
	return storeToken(t, account)
}
