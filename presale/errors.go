package presale

import (
	"errors"

	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
)

// Program errors. Compare with errors.Is; the InvalidCap, InvalidTime and InvalidMinMax
// variants also match ErrInvalidConfig.
var (
	ErrInvalidFee                = presalegen.ErrInvalidFee
	ErrInvalidConfig             = presalegen.ErrInvalidConfig
	ErrUnauthorized              = presalegen.ErrUnauthorized
	ErrSaleNotActive             = presalegen.ErrSaleNotActive
	ErrCapExceeded               = presalegen.ErrCapExceeded
	ErrBelowMinBuy               = presalegen.ErrBelowMinBuy
	ErrAboveMaxBuy               = presalegen.ErrAboveMaxBuy
	ErrNotWhitelisted            = presalegen.ErrNotWhitelisted
	ErrAlreadyFinalized          = presalegen.ErrAlreadyFinalized
	ErrSoftCapNotMet             = presalegen.ErrSoftCapNotMet
	ErrNothingToClaim            = presalegen.ErrNothingToClaim
	ErrInvalidCap                = presalegen.ErrInvalidCap
	ErrInvalidTime               = presalegen.ErrInvalidTime
	ErrInvalidMinMax             = presalegen.ErrInvalidMinMax
	ErrSaleNotEnded              = presalegen.ErrSaleNotEnded
	ErrNotFinalized              = presalegen.ErrNotFinalized
	ErrVestingDisabled           = presalegen.ErrVestingDisabled
	ErrInsufficientFunds         = presalegen.ErrInsufficientFunds
	ErrMathOverflow              = presalegen.ErrMathOverflow
	ErrAccountNotFound           = presalegen.ErrAccountNotFound
	ErrAccountAlreadyInitialized = presalegen.ErrAccountAlreadyInitialized
	ErrInvalidAccount            = presalegen.ErrInvalidAccount
)

var (
	ErrListingUnavailable = errors.New("auto listing requires a listing integration")
	ErrLockerUnavailable  = errors.New("auto listing requires a liquidity locker")

	// returned inside Exec when the account set was resolved against state that changed before
	// the locks were taken; the caller re-resolves and retries
	errStaleAccounts = errors.New("stale account set")
)
