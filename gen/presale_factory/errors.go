package presalefactory

import (
	"errors"
	"fmt"
)

type ErrorCode uint32

// Custom program errors start at anchor's user offset.
const ErrorCodeOffset ErrorCode = 6000

const (
	ErrorCodeInvalidFee ErrorCode = ErrorCodeOffset + iota
	ErrorCodeInvalidConfig
	ErrorCodeUnauthorized
	ErrorCodeSaleNotActive
	ErrorCodeCapExceeded
	ErrorCodeBelowMinBuy
	ErrorCodeAboveMaxBuy
	ErrorCodeNotWhitelisted
	ErrorCodeAlreadyFinalized
	ErrorCodeSoftCapNotMet
	ErrorCodeNothingToClaim
	ErrorCodeInvalidCap
	ErrorCodeInvalidTime
	ErrorCodeInvalidMinMax
	ErrorCodeSaleNotEnded
	ErrorCodeNotFinalized
	ErrorCodeVestingDisabled
	ErrorCodeInsufficientFunds
	ErrorCodeMathOverflow
	ErrorCodeAccountNotFound
	ErrorCodeAccountAlreadyInitialized
	ErrorCodeInvalidAccount
)

// ProgramError is a custom error returned by the presale factory program.
type ProgramError struct {
	Code ErrorCode
	Name string
	Msg  string
	// Parent is the broader error this one specialises, if any.
	Parent *ProgramError
}

func (e *ProgramError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Name, e.Code, e.Msg)
}

// Is matches on the error code so wrapped and decoded errors compare equal to the sentinels.
func (e *ProgramError) Is(target error) bool {
	var t *ProgramError
	if !errors.As(target, &t) {
		return false
	}
	for cur := e; cur != nil; cur = cur.Parent {
		if cur.Code == t.Code {
			return true
		}
	}
	return false
}

var (
	ErrInvalidFee                = &ProgramError{Code: ErrorCodeInvalidFee, Name: "InvalidFee", Msg: "Platform fee must not exceed 10000 basis points"}
	ErrInvalidConfig             = &ProgramError{Code: ErrorCodeInvalidConfig, Name: "InvalidConfig", Msg: "Invalid presale configuration"}
	ErrUnauthorized              = &ProgramError{Code: ErrorCodeUnauthorized, Name: "Unauthorized", Msg: "Signer is not allowed to perform this operation"}
	ErrSaleNotActive             = &ProgramError{Code: ErrorCodeSaleNotActive, Name: "SaleNotActive", Msg: "Presale is not accepting contributions"}
	ErrCapExceeded               = &ProgramError{Code: ErrorCodeCapExceeded, Name: "CapExceeded", Msg: "Contribution would exceed the hard cap"}
	ErrBelowMinBuy               = &ProgramError{Code: ErrorCodeBelowMinBuy, Name: "BelowMinBuy", Msg: "Contribution is below the minimum buy"}
	ErrAboveMaxBuy               = &ProgramError{Code: ErrorCodeAboveMaxBuy, Name: "AboveMaxBuy", Msg: "Contribution is above the maximum buy"}
	ErrNotWhitelisted            = &ProgramError{Code: ErrorCodeNotWhitelisted, Name: "NotWhitelisted", Msg: "Buyer is not whitelisted"}
	ErrAlreadyFinalized          = &ProgramError{Code: ErrorCodeAlreadyFinalized, Name: "AlreadyFinalized", Msg: "Presale is already finalized"}
	ErrSoftCapNotMet             = &ProgramError{Code: ErrorCodeSoftCapNotMet, Name: "SoftCapNotMet", Msg: "Soft cap was not reached"}
	ErrNothingToClaim            = &ProgramError{Code: ErrorCodeNothingToClaim, Name: "NothingToClaim", Msg: "Nothing to claim"}
	ErrInvalidCap                = &ProgramError{Code: ErrorCodeInvalidCap, Name: "InvalidCap", Msg: "Soft cap cannot be greater than hard cap", Parent: ErrInvalidConfig}
	ErrInvalidTime               = &ProgramError{Code: ErrorCodeInvalidTime, Name: "InvalidTime", Msg: "Start time must be before end time", Parent: ErrInvalidConfig}
	ErrInvalidMinMax             = &ProgramError{Code: ErrorCodeInvalidMinMax, Name: "InvalidMinMax", Msg: "Min buy must be less than or equal to max buy", Parent: ErrInvalidConfig}
	ErrSaleNotEnded              = &ProgramError{Code: ErrorCodeSaleNotEnded, Name: "SaleNotEnded", Msg: "Presale has not ended and the hard cap is not reached"}
	ErrNotFinalized              = &ProgramError{Code: ErrorCodeNotFinalized, Name: "NotFinalized", Msg: "Presale is not finalized"}
	ErrVestingDisabled           = &ProgramError{Code: ErrorCodeVestingDisabled, Name: "VestingDisabled", Msg: "Presale has no vesting schedule"}
	ErrInsufficientFunds         = &ProgramError{Code: ErrorCodeInsufficientFunds, Name: "InsufficientFunds", Msg: "Insufficient funds"}
	ErrMathOverflow              = &ProgramError{Code: ErrorCodeMathOverflow, Name: "MathOverflow", Msg: "Arithmetic overflow"}
	ErrAccountNotFound           = &ProgramError{Code: ErrorCodeAccountNotFound, Name: "AccountNotFound", Msg: "Account not found"}
	ErrAccountAlreadyInitialized = &ProgramError{Code: ErrorCodeAccountAlreadyInitialized, Name: "AccountAlreadyInitialized", Msg: "Account is already initialized"}
	ErrInvalidAccount            = &ProgramError{Code: ErrorCodeInvalidAccount, Name: "InvalidAccount", Msg: "Account does not match the expected address"}
)

var errorsByCode = map[ErrorCode]*ProgramError{}

func init() {
	for _, e := range []*ProgramError{
		ErrInvalidFee, ErrInvalidConfig, ErrUnauthorized, ErrSaleNotActive, ErrCapExceeded,
		ErrBelowMinBuy, ErrAboveMaxBuy, ErrNotWhitelisted, ErrAlreadyFinalized, ErrSoftCapNotMet,
		ErrNothingToClaim, ErrInvalidCap, ErrInvalidTime, ErrInvalidMinMax, ErrSaleNotEnded,
		ErrNotFinalized, ErrVestingDisabled, ErrInsufficientFunds, ErrMathOverflow,
		ErrAccountNotFound, ErrAccountAlreadyInitialized, ErrInvalidAccount,
	} {
		errorsByCode[e.Code] = e
	}
}

// ErrorFromCode returns the program error for a custom error code.
func ErrorFromCode(code uint32) (*ProgramError, bool) {
	e, ok := errorsByCode[ErrorCode(code)]
	return e, ok
}
