package presalefactory

import (
	"bytes"

	binary "github.com/gagliardetto/binary"
	solanago "github.com/gagliardetto/solana-go"
)

type InitializeFactoryArgs struct {
	PlatformFee uint64
}

type SetPlatformFeeArgs struct {
	PlatformFee uint64
}

type TransferOwnershipArgs struct {
	NewOwner solanago.PublicKey
}

// CreatePresaleArgs carries the create_presale parameters in declaration order.
type CreatePresaleArgs struct {
	Owner                solanago.PublicKey
	Token                solanago.PublicKey
	PaymentToken         solanago.PublicKey
	DexRouter            solanago.PublicKey
	PresaleRate          uint64
	SoftCap              uint64
	HardCap              uint64
	MinBuy               uint64
	MaxBuy               uint64
	StartSale            int64
	EndSale              int64
	LiquidityPercent     uint64
	IsFund               bool
	IsNative             bool
	IsWhitelist          bool
	IsAutoListing        bool
	IsVesting            bool
	FirstReleasePercent  uint64
	VestingPeriod        uint64
	TokensReleasePercent uint64
	ListingRate          uint64
	DemyAddress          solanago.PublicKey
	LiquidityTime        uint64
	Qerralock            solanago.PublicKey
	UniswapFactory       solanago.PublicKey
}

type WhitelistArgs struct {
	Buyers []solanago.PublicKey
}

type BuyTokensArgs struct {
	Amount uint64
}

type InitializeFactoryAccounts struct {
	Factory       solanago.PublicKey
	Owner         solanago.PublicKey
	SystemProgram solanago.PublicKey
}

type FactoryAdminAccounts struct {
	Factory solanago.PublicKey
	Owner   solanago.PublicKey
}

type CreatePresaleAccounts struct {
	Factory           solanago.PublicKey
	Presale           solanago.PublicKey
	Owner             solanago.PublicKey
	PresaleAuthority  solanago.PublicKey
	PresaleVault      solanago.PublicKey
	TokenVault        solanago.PublicKey
	TokenMint         solanago.PublicKey
	PaymentMint       solanago.PublicKey
	OwnerTokenAccount solanago.PublicKey
	TokenProgram      solanago.PublicKey
	SystemProgram     solanago.PublicKey
	Rent              solanago.PublicKey
}

type WhitelistAccounts struct {
	Presale       solanago.PublicKey
	Owner         solanago.PublicKey
	SystemProgram solanago.PublicKey
	// Entries are the whitelist PDAs, one per buyer in the args.
	Entries []solanago.PublicKey
}

type BuyTokensAccounts struct {
	Presale             solanago.PublicKey
	Purchase            solanago.PublicKey
	WhitelistEntry      solanago.PublicKey
	Buyer               solanago.PublicKey
	BuyerPaymentAccount solanago.PublicKey
	BuyerTokenAccount   solanago.PublicKey
	PresaleVault        solanago.PublicKey
	TokenVault          solanago.PublicKey
	PresaleAuthority    solanago.PublicKey
	TokenProgram        solanago.PublicKey
	SystemProgram       solanago.PublicKey
}

type FinalizePresaleAccounts struct {
	Factory             solanago.PublicKey
	Presale             solanago.PublicKey
	Caller              solanago.PublicKey
	PresaleAuthority    solanago.PublicKey
	PresaleVault        solanago.PublicKey
	TokenVault          solanago.PublicKey
	OwnerPaymentAccount solanago.PublicKey
	OwnerTokenAccount   solanago.PublicKey
	FeeRecipient        solanago.PublicKey
	DexPaymentAccount   solanago.PublicKey
	DexTokenAccount     solanago.PublicKey
	DexRouter           solanago.PublicKey
	Qerralock           solanago.PublicKey
	UniswapFactory      solanago.PublicKey
	TokenProgram        solanago.PublicKey
}

// Refund pairs a participant's purchase record with the account receiving the refund.
type Refund struct {
	Purchase            solanago.PublicKey
	BuyerPaymentAccount solanago.PublicKey
	BuyerTokenAccount   solanago.PublicKey
}

type CancelPresaleAccounts struct {
	Presale             solanago.PublicKey
	Caller              solanago.PublicKey
	PresaleAuthority    solanago.PublicKey
	PresaleVault        solanago.PublicKey
	TokenVault          solanago.PublicKey
	OwnerPaymentAccount solanago.PublicKey
	OwnerTokenAccount   solanago.PublicKey
	TokenProgram        solanago.PublicKey
	Refunds             []Refund
}

type ClaimTokensAccounts struct {
	Presale           solanago.PublicKey
	Purchase          solanago.PublicKey
	Buyer             solanago.PublicKey
	BuyerTokenAccount solanago.PublicKey
	TokenVault        solanago.PublicKey
	PresaleAuthority  solanago.PublicKey
	TokenProgram      solanago.PublicKey
}

func buildInstruction(disc Discriminator, args any, metas solanago.AccountMetaSlice) (solanago.Instruction, error) {
	buf := new(bytes.Buffer)
	buf.Write(disc[:])
	if args != nil {
		if err := binary.NewBorshEncoder(buf).Encode(args); err != nil {
			return nil, err
		}
	}
	return solanago.NewInstruction(ProgramID, metas, buf.Bytes()), nil
}

func NewInitializeFactoryInstruction(args InitializeFactoryArgs, accounts InitializeFactoryAccounts) (solanago.Instruction, error) {
	return buildInstruction(Instruction_InitializeFactory, args, solanago.AccountMetaSlice{
		solanago.NewAccountMeta(accounts.Factory, true, false),
		solanago.NewAccountMeta(accounts.Owner, true, true),
		solanago.NewAccountMeta(accounts.SystemProgram, false, false),
	})
}

func NewSetPlatformFeeInstruction(args SetPlatformFeeArgs, accounts FactoryAdminAccounts) (solanago.Instruction, error) {
	return buildInstruction(Instruction_SetPlatformFee, args, solanago.AccountMetaSlice{
		solanago.NewAccountMeta(accounts.Factory, true, false),
		solanago.NewAccountMeta(accounts.Owner, false, true),
	})
}

func NewTransferOwnershipInstruction(args TransferOwnershipArgs, accounts FactoryAdminAccounts) (solanago.Instruction, error) {
	return buildInstruction(Instruction_TransferOwnership, args, solanago.AccountMetaSlice{
		solanago.NewAccountMeta(accounts.Factory, true, false),
		solanago.NewAccountMeta(accounts.Owner, false, true),
	})
}

func NewCreatePresaleInstruction(args CreatePresaleArgs, accounts CreatePresaleAccounts) (solanago.Instruction, error) {
	return buildInstruction(Instruction_CreatePresale, args, solanago.AccountMetaSlice{
		solanago.NewAccountMeta(accounts.Factory, true, false),
		solanago.NewAccountMeta(accounts.Presale, true, false),
		solanago.NewAccountMeta(accounts.Owner, true, true),
		solanago.NewAccountMeta(accounts.PresaleAuthority, false, false),
		solanago.NewAccountMeta(accounts.PresaleVault, true, false),
		solanago.NewAccountMeta(accounts.TokenVault, true, false),
		solanago.NewAccountMeta(accounts.TokenMint, false, false),
		solanago.NewAccountMeta(accounts.PaymentMint, false, false),
		solanago.NewAccountMeta(accounts.OwnerTokenAccount, true, false),
		solanago.NewAccountMeta(accounts.TokenProgram, false, false),
		solanago.NewAccountMeta(accounts.SystemProgram, false, false),
		solanago.NewAccountMeta(accounts.Rent, false, false),
	})
}

func whitelistMetas(accounts WhitelistAccounts) solanago.AccountMetaSlice {
	metas := solanago.AccountMetaSlice{
		solanago.NewAccountMeta(accounts.Presale, false, false),
		solanago.NewAccountMeta(accounts.Owner, true, true),
		solanago.NewAccountMeta(accounts.SystemProgram, false, false),
	}
	for _, entry := range accounts.Entries {
		metas = append(metas, solanago.NewAccountMeta(entry, true, false))
	}
	return metas
}

func NewAddWhitelistInstruction(args WhitelistArgs, accounts WhitelistAccounts) (solanago.Instruction, error) {
	return buildInstruction(Instruction_AddWhitelist, args, whitelistMetas(accounts))
}

func NewRemoveWhitelistInstruction(args WhitelistArgs, accounts WhitelistAccounts) (solanago.Instruction, error) {
	return buildInstruction(Instruction_RemoveWhitelist, args, whitelistMetas(accounts))
}

func NewBuyTokensInstruction(args BuyTokensArgs, accounts BuyTokensAccounts) (solanago.Instruction, error) {
	return buildInstruction(Instruction_BuyTokens, args, solanago.AccountMetaSlice{
		solanago.NewAccountMeta(accounts.Presale, true, false),
		solanago.NewAccountMeta(accounts.Purchase, true, false),
		solanago.NewAccountMeta(accounts.WhitelistEntry, false, false),
		solanago.NewAccountMeta(accounts.Buyer, true, true),
		solanago.NewAccountMeta(accounts.BuyerPaymentAccount, true, false),
		solanago.NewAccountMeta(accounts.BuyerTokenAccount, true, false),
		solanago.NewAccountMeta(accounts.PresaleVault, true, false),
		solanago.NewAccountMeta(accounts.TokenVault, true, false),
		solanago.NewAccountMeta(accounts.PresaleAuthority, false, false),
		solanago.NewAccountMeta(accounts.TokenProgram, false, false),
		solanago.NewAccountMeta(accounts.SystemProgram, false, false),
	})
}

func NewFinalizePresaleInstruction(accounts FinalizePresaleAccounts) (solanago.Instruction, error) {
	return buildInstruction(Instruction_FinalizePresale, nil, solanago.AccountMetaSlice{
		solanago.NewAccountMeta(accounts.Factory, false, false),
		solanago.NewAccountMeta(accounts.Presale, true, false),
		solanago.NewAccountMeta(accounts.Caller, false, true),
		solanago.NewAccountMeta(accounts.PresaleAuthority, false, false),
		solanago.NewAccountMeta(accounts.PresaleVault, true, false),
		solanago.NewAccountMeta(accounts.TokenVault, true, false),
		solanago.NewAccountMeta(accounts.OwnerPaymentAccount, true, false),
		solanago.NewAccountMeta(accounts.OwnerTokenAccount, true, false),
		solanago.NewAccountMeta(accounts.FeeRecipient, true, false),
		solanago.NewAccountMeta(accounts.DexPaymentAccount, true, false),
		solanago.NewAccountMeta(accounts.DexTokenAccount, true, false),
		solanago.NewAccountMeta(accounts.DexRouter, false, false),
		solanago.NewAccountMeta(accounts.Qerralock, false, false),
		solanago.NewAccountMeta(accounts.UniswapFactory, false, false),
		solanago.NewAccountMeta(accounts.TokenProgram, false, false),
	})
}

func NewCancelPresaleInstruction(accounts CancelPresaleAccounts) (solanago.Instruction, error) {
	metas := solanago.AccountMetaSlice{
		solanago.NewAccountMeta(accounts.Presale, true, false),
		solanago.NewAccountMeta(accounts.Caller, false, true),
		solanago.NewAccountMeta(accounts.PresaleAuthority, false, false),
		solanago.NewAccountMeta(accounts.PresaleVault, true, false),
		solanago.NewAccountMeta(accounts.TokenVault, true, false),
		solanago.NewAccountMeta(accounts.OwnerPaymentAccount, true, false),
		solanago.NewAccountMeta(accounts.OwnerTokenAccount, true, false),
		solanago.NewAccountMeta(accounts.TokenProgram, false, false),
	}
	// remaining accounts: (purchase, payment account, token account) per participant
	for _, r := range accounts.Refunds {
		metas = append(metas,
			solanago.NewAccountMeta(r.Purchase, true, false),
			solanago.NewAccountMeta(r.BuyerPaymentAccount, true, false),
			solanago.NewAccountMeta(r.BuyerTokenAccount, true, false),
		)
	}
	return buildInstruction(Instruction_CancelPresale, nil, metas)
}

func claimMetas(accounts ClaimTokensAccounts) solanago.AccountMetaSlice {
	return solanago.AccountMetaSlice{
		solanago.NewAccountMeta(accounts.Presale, false, false),
		solanago.NewAccountMeta(accounts.Purchase, true, false),
		solanago.NewAccountMeta(accounts.Buyer, false, true),
		solanago.NewAccountMeta(accounts.BuyerTokenAccount, true, false),
		solanago.NewAccountMeta(accounts.TokenVault, true, false),
		solanago.NewAccountMeta(accounts.PresaleAuthority, false, false),
		solanago.NewAccountMeta(accounts.TokenProgram, false, false),
	}
}

func NewClaimTokensInstruction(accounts ClaimTokensAccounts) (solanago.Instruction, error) {
	return buildInstruction(Instruction_ClaimTokens, nil, claimMetas(accounts))
}

func NewClaimVestedTokensInstruction(accounts ClaimTokensAccounts) (solanago.Instruction, error) {
	return buildInstruction(Instruction_ClaimVestedTokens, nil, claimMetas(accounts))
}
