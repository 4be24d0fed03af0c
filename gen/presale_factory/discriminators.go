package presalefactory

import "crypto/sha256"

// Account names as declared by the program.
const (
	AccountKeyFactory        = "Factory"
	AccountKeyPresale        = "Presale"
	AccountKeyPurchase       = "Purchase"
	AccountKeyWhitelistEntry = "WhitelistEntry"
)

var (
	FactoryDiscriminator        = AccountDiscriminator(AccountKeyFactory)
	PresaleDiscriminator        = AccountDiscriminator(AccountKeyPresale)
	PurchaseDiscriminator       = AccountDiscriminator(AccountKeyPurchase)
	WhitelistEntryDiscriminator = AccountDiscriminator(AccountKeyWhitelistEntry)

	Instruction_InitializeFactory = InstructionDiscriminator("initialize_factory")
	Instruction_SetPlatformFee    = InstructionDiscriminator("set_platform_fee")
	Instruction_TransferOwnership = InstructionDiscriminator("transfer_ownership")
	Instruction_CreatePresale     = InstructionDiscriminator("create_presale")
	Instruction_AddWhitelist      = InstructionDiscriminator("add_whitelist")
	Instruction_RemoveWhitelist   = InstructionDiscriminator("remove_whitelist")
	Instruction_BuyTokens         = InstructionDiscriminator("buy_tokens")
	Instruction_FinalizePresale   = InstructionDiscriminator("finalize_presale")
	Instruction_CancelPresale     = InstructionDiscriminator("cancel_presale")
	Instruction_ClaimTokens       = InstructionDiscriminator("claim_tokens")
	Instruction_ClaimVestedTokens = InstructionDiscriminator("claim_vested_tokens")
)

// Discriminator is the 8-byte prefix anchor writes in front of accounts, instructions and events.
type Discriminator [8]byte

func hashPrefix(preimage string) Discriminator {
	sum := sha256.Sum256([]byte(preimage))
	var out Discriminator
	copy(out[:], sum[:8])
	return out
}

func AccountDiscriminator(name string) Discriminator {
	return hashPrefix("account:" + name)
}

func InstructionDiscriminator(name string) Discriminator {
	return hashPrefix("global:" + name)
}

func EventDiscriminator(name string) Discriminator {
	return hashPrefix("event:" + name)
}
