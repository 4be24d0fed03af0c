package solana

import (
	"bytes"
	"fmt"

	binary "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

// TokenAccountSize is the SPL token account length.
const TokenAccountSize = 165

type AccountState uint8

const (
	AccountStateUninitialized AccountState = 0
	AccountStateInitialized   AccountState = 1
	AccountStateFrozen        AccountState = 2
)

type Account struct {
	Address solana.PublicKey
	// Mint associated with the account
	Mint solana.PublicKey

	// Owner of the account
	Owner solana.PublicKey

	// Number of tokens the account holds
	Amount uint64

	// Authority that can transfer tokens from the account
	Delegate *solana.PublicKey

	// Number of tokens the delegate is authorized to transfer
	DelegatedAmount uint64

	IsInitialized bool
	IsFrozen      bool

	// True if the account holds wrapped SOL
	IsNative bool

	// The rent-exempt reserve of a native account.
	RentExemptReserve *uint64

	// Optional authority to close the account
	CloseAuthority *solana.PublicKey
}

// NewAccount returns an initialized, empty token account.
func NewAccount(address, mint, owner solana.PublicKey) *Account {
	return &Account{
		Address:       address,
		Mint:          mint,
		Owner:         owner,
		IsInitialized: true,
		IsNative:      mint.Equals(solana.WrappedSol),
	}
}

// CanTransfer reports whether authority may move amount out of the account, either as owner or
// as an approved delegate.
func (a *Account) CanTransfer(authority solana.PublicKey, amount uint64) bool {
	if a.IsFrozen {
		return false
	}
	if a.Owner.Equals(authority) {
		return true
	}
	return a.Delegate != nil && a.Delegate.Equals(authority) && a.DelegatedAmount >= amount
}

// tokenAccountLayout https://github.com/solana-labs/solana-program-library/blob/d72289c79a04411c69a8bf1054f7156b6196f9b3/token/js/src/state/account.ts#L69
type tokenAccountLayout struct {
	Mint                 solana.PublicKey
	Owner                solana.PublicKey
	Amount               uint64
	DelegateOption       uint32
	Delegate             solana.PublicKey
	State                uint8
	IsNativeOption       uint32
	IsNative             uint64
	DelegatedAmount      uint64
	CloseAuthorityOption uint32
	CloseAuthority       solana.PublicKey
}

type AccountLayout struct {
}

func (l *AccountLayout) Decode(data []byte) (*Account, error) {
	if len(data) < TokenAccountSize {
		return nil, fmt.Errorf("token account data too short (%d bytes)", len(data))
	}
	rawAccount := &tokenAccountLayout{}
	if err := binary.NewBinDecoder(data).Decode(rawAccount); err != nil {
		return nil, err
	}
	out := &Account{
		Mint:            rawAccount.Mint,
		Owner:           rawAccount.Owner,
		Amount:          rawAccount.Amount,
		DelegatedAmount: rawAccount.DelegatedAmount,
		IsInitialized:   AccountState(rawAccount.State) != AccountStateUninitialized,
		IsFrozen:        AccountState(rawAccount.State) == AccountStateFrozen,
		IsNative:        rawAccount.IsNativeOption > 0,
	}
	if rawAccount.DelegateOption > 0 {
		delegate := rawAccount.Delegate
		out.Delegate = &delegate
	}
	if rawAccount.IsNativeOption > 0 {
		reserve := rawAccount.IsNative
		out.RentExemptReserve = &reserve
	}
	if rawAccount.CloseAuthorityOption > 0 {
		closeAuthority := rawAccount.CloseAuthority
		out.CloseAuthority = &closeAuthority
	}
	return out, nil
}

func (l *AccountLayout) Encode(account *Account) ([]byte, error) {
	raw := tokenAccountLayout{
		Mint:            account.Mint,
		Owner:           account.Owner,
		Amount:          account.Amount,
		DelegatedAmount: account.DelegatedAmount,
	}
	switch {
	case account.IsFrozen:
		raw.State = uint8(AccountStateFrozen)
	case account.IsInitialized:
		raw.State = uint8(AccountStateInitialized)
	}
	if account.Delegate != nil {
		raw.DelegateOption = 1
		raw.Delegate = *account.Delegate
	}
	if account.IsNative {
		raw.IsNativeOption = 1
		if account.RentExemptReserve != nil {
			raw.IsNative = *account.RentExemptReserve
		}
	}
	if account.CloseAuthority != nil {
		raw.CloseAuthorityOption = 1
		raw.CloseAuthority = *account.CloseAuthority
	}

	buf := new(bytes.Buffer)
	if err := binary.NewBinEncoder(buf).Encode(raw); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
