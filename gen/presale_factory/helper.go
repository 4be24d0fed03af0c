package presalefactory

import (
	"encoding/binary"

	solanago "github.com/gagliardetto/solana-go"
)

// Presale account offsets used by memcmp filters (after the 8-byte discriminator).
const (
	FactoryOwnerOffset     = 8
	PresaleOwnerOffset     = 8
	PresaleTokenOffset     = 8 + 32
	PurchasePresaleOffset  = 8
	PurchaseBuyerOffset    = 8 + 32
	WhitelistPresaleOffset = 8
)

func findPDA(seeds ...[]byte) (solanago.PublicKey, error) {
	pda, _, err := solanago.FindProgramAddress(seeds, ProgramID)
	if err != nil {
		return solanago.PublicKey{}, err
	}
	return pda, nil
}

// DeriveFactoryPDA ["factory", owner]
func DeriveFactoryPDA(owner solanago.PublicKey) (solanago.PublicKey, error) {
	return findPDA([]byte("factory"), owner.Bytes())
}

// DerivePresalePDA ["presale", factory, id u64 le]
func DerivePresalePDA(factory solanago.PublicKey, id uint64) (solanago.PublicKey, error) {
	idBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(idBytes, id)
	return findPDA([]byte("presale"), factory.Bytes(), idBytes)
}

func DerivePurchasePDA(presale, buyer solanago.PublicKey) (solanago.PublicKey, error) {
	return findPDA([]byte("purchase"), presale.Bytes(), buyer.Bytes())
}

func DeriveWhitelistPDA(presale, buyer solanago.PublicKey) (solanago.PublicKey, error) {
	return findPDA([]byte("whitelist"), presale.Bytes(), buyer.Bytes())
}

// DerivePresaleAuthorityPDA is the signer owning both vaults of a presale.
func DerivePresaleAuthorityPDA(presale solanago.PublicKey) (solanago.PublicKey, error) {
	return findPDA([]byte("presale_authority"), presale.Bytes())
}

func DeriveTokenVaultPDA(presale solanago.PublicKey) (solanago.PublicKey, error) {
	return findPDA([]byte("token_vault"), presale.Bytes())
}

func DerivePresaleVaultPDA(presale solanago.PublicKey) (solanago.PublicKey, error) {
	return findPDA([]byte("presale_vault"), presale.Bytes())
}

// PaymentMint is the mint contributions are made in; native presales settle in wrapped SOL.
func PaymentMint(isNative bool, paymentToken solanago.PublicKey) solanago.PublicKey {
	if isNative {
		return solanago.WrappedSol
	}
	return paymentToken
}
