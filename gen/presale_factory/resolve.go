package presalefactory

import (
	solanago "github.com/gagliardetto/solana-go"
)

// Vaults are the custody accounts of one presale, both owned by its authority PDA.
type Vaults struct {
	Authority    solanago.PublicKey
	TokenVault   solanago.PublicKey
	PresaleVault solanago.PublicKey
}

func DeriveVaults(presale solanago.PublicKey) (Vaults, error) {
	var v Vaults
	var err error
	if v.Authority, err = DerivePresaleAuthorityPDA(presale); err != nil {
		return v, err
	}
	if v.TokenVault, err = DeriveTokenVaultPDA(presale); err != nil {
		return v, err
	}
	if v.PresaleVault, err = DerivePresaleVaultPDA(presale); err != nil {
		return v, err
	}
	return v, nil
}

func associated(owner, mint solanago.PublicKey) (solanago.PublicKey, error) {
	ata, _, err := solanago.FindAssociatedTokenAddress(owner, mint)
	return ata, err
}

// FeeRecipient is the wallet receiving the platform fee of presale.
func FeeRecipient(presale *Presale, factory *Factory) solanago.PublicKey {
	if presale.DemyAddress.IsZero() {
		return factory.Owner
	}
	return presale.DemyAddress
}

// ResolveCreatePresale derives the accounts of the presale that will get id under factory.
func ResolveCreatePresale(factory solanago.PublicKey, id uint64, creator solanago.PublicKey, args CreatePresaleArgs) (CreatePresaleAccounts, error) {
	var accounts CreatePresaleAccounts
	presale, err := DerivePresalePDA(factory, id)
	if err != nil {
		return accounts, err
	}
	vaults, err := DeriveVaults(presale)
	if err != nil {
		return accounts, err
	}
	ownerTokenAccount, err := associated(creator, args.Token)
	if err != nil {
		return accounts, err
	}
	return CreatePresaleAccounts{
		Factory:           factory,
		Presale:           presale,
		Owner:             creator,
		PresaleAuthority:  vaults.Authority,
		PresaleVault:      vaults.PresaleVault,
		TokenVault:        vaults.TokenVault,
		TokenMint:         args.Token,
		PaymentMint:       PaymentMint(args.IsNative, args.PaymentToken),
		OwnerTokenAccount: ownerTokenAccount,
		TokenProgram:      solanago.TokenProgramID,
		SystemProgram:     solanago.SystemProgramID,
		Rent:              solanago.SysVarRentPubkey,
	}, nil
}

func ResolveWhitelist(presale, owner solanago.PublicKey, buyers []solanago.PublicKey) (WhitelistAccounts, error) {
	entries := make([]solanago.PublicKey, len(buyers))
	for i, buyer := range buyers {
		entry, err := DeriveWhitelistPDA(presale, buyer)
		if err != nil {
			return WhitelistAccounts{}, err
		}
		entries[i] = entry
	}
	return WhitelistAccounts{
		Presale:       presale,
		Owner:         owner,
		SystemProgram: solanago.SystemProgramID,
		Entries:       entries,
	}, nil
}

// ResolveBuyTokens uses the buyer's associated token accounts for both mints.
func ResolveBuyTokens(presale solanago.PublicKey, obj *Presale, buyer solanago.PublicKey) (BuyTokensAccounts, error) {
	var accounts BuyTokensAccounts
	vaults, err := DeriveVaults(presale)
	if err != nil {
		return accounts, err
	}
	purchase, err := DerivePurchasePDA(presale, buyer)
	if err != nil {
		return accounts, err
	}
	entry, err := DeriveWhitelistPDA(presale, buyer)
	if err != nil {
		return accounts, err
	}
	paymentAccount, err := associated(buyer, PaymentMint(obj.IsNative, obj.PaymentToken))
	if err != nil {
		return accounts, err
	}
	tokenAccount, err := associated(buyer, obj.Token)
	if err != nil {
		return accounts, err
	}
	return BuyTokensAccounts{
		Presale:             presale,
		Purchase:            purchase,
		WhitelistEntry:      entry,
		Buyer:               buyer,
		BuyerPaymentAccount: paymentAccount,
		BuyerTokenAccount:   tokenAccount,
		PresaleVault:        vaults.PresaleVault,
		TokenVault:          vaults.TokenVault,
		PresaleAuthority:    vaults.Authority,
		TokenProgram:        solanago.TokenProgramID,
		SystemProgram:       solanago.SystemProgramID,
	}, nil
}

func ResolveFinalizePresale(presale solanago.PublicKey, obj *Presale, factory *Factory, caller solanago.PublicKey) (FinalizePresaleAccounts, error) {
	var accounts FinalizePresaleAccounts
	vaults, err := DeriveVaults(presale)
	if err != nil {
		return accounts, err
	}
	paymentMint := PaymentMint(obj.IsNative, obj.PaymentToken)

	atas := make([]solanago.PublicKey, 5)
	for i, pair := range [][2]solanago.PublicKey{
		{obj.Owner, paymentMint},
		{obj.Owner, obj.Token},
		{FeeRecipient(obj, factory), paymentMint},
		{obj.DexRouter, paymentMint},
		{obj.DexRouter, obj.Token},
	} {
		if atas[i], err = associated(pair[0], pair[1]); err != nil {
			return accounts, err
		}
	}
	return FinalizePresaleAccounts{
		Factory:             obj.Factory,
		Presale:             presale,
		Caller:              caller,
		PresaleAuthority:    vaults.Authority,
		PresaleVault:        vaults.PresaleVault,
		TokenVault:          vaults.TokenVault,
		OwnerPaymentAccount: atas[0],
		OwnerTokenAccount:   atas[1],
		FeeRecipient:        atas[2],
		DexPaymentAccount:   atas[3],
		DexTokenAccount:     atas[4],
		DexRouter:           obj.DexRouter,
		Qerralock:           obj.Qerralock,
		UniswapFactory:      obj.UniswapFactory,
		TokenProgram:        solanago.TokenProgramID,
	}, nil
}

// ResolveRefund derives the purchase record and associated token accounts of one participant.
func ResolveRefund(presale solanago.PublicKey, obj *Presale, buyer solanago.PublicKey) (Refund, error) {
	var refund Refund
	var err error
	if refund.Purchase, err = DerivePurchasePDA(presale, buyer); err != nil {
		return refund, err
	}
	if refund.BuyerPaymentAccount, err = associated(buyer, PaymentMint(obj.IsNative, obj.PaymentToken)); err != nil {
		return refund, err
	}
	if refund.BuyerTokenAccount, err = associated(buyer, obj.Token); err != nil {
		return refund, err
	}
	return refund, nil
}

// ResolveCancelPresale carries one refund triple per current participant of obj.
func ResolveCancelPresale(presale solanago.PublicKey, obj *Presale, caller solanago.PublicKey) (CancelPresaleAccounts, error) {
	var accounts CancelPresaleAccounts
	vaults, err := DeriveVaults(presale)
	if err != nil {
		return accounts, err
	}
	paymentMint := PaymentMint(obj.IsNative, obj.PaymentToken)
	ownerPayment, err := associated(obj.Owner, paymentMint)
	if err != nil {
		return accounts, err
	}
	ownerToken, err := associated(obj.Owner, obj.Token)
	if err != nil {
		return accounts, err
	}
	refunds := make([]Refund, len(obj.Participants))
	for i, buyer := range obj.Participants {
		if refunds[i], err = ResolveRefund(presale, obj, buyer); err != nil {
			return accounts, err
		}
	}
	return CancelPresaleAccounts{
		Presale:             presale,
		Caller:              caller,
		PresaleAuthority:    vaults.Authority,
		PresaleVault:        vaults.PresaleVault,
		TokenVault:          vaults.TokenVault,
		OwnerPaymentAccount: ownerPayment,
		OwnerTokenAccount:   ownerToken,
		TokenProgram:        solanago.TokenProgramID,
		Refunds:             refunds,
	}, nil
}

func ResolveClaimTokens(presale solanago.PublicKey, obj *Presale, buyer solanago.PublicKey) (ClaimTokensAccounts, error) {
	var accounts ClaimTokensAccounts
	vaults, err := DeriveVaults(presale)
	if err != nil {
		return accounts, err
	}
	purchase, err := DerivePurchasePDA(presale, buyer)
	if err != nil {
		return accounts, err
	}
	tokenAccount, err := associated(buyer, obj.Token)
	if err != nil {
		return accounts, err
	}
	return ClaimTokensAccounts{
		Presale:           presale,
		Purchase:          purchase,
		Buyer:             buyer,
		BuyerTokenAccount: tokenAccount,
		TokenVault:        vaults.TokenVault,
		PresaleAuthority:  vaults.Authority,
		TokenProgram:      solanago.TokenProgramID,
	}, nil
}
