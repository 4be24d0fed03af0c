package presalefactory

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"testing"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscriminators(t *testing.T) {
	sum := sha256.Sum256([]byte("account:Factory"))
	assert.Equal(t, sum[:8], FactoryDiscriminator[:])

	sum = sha256.Sum256([]byte("global:initialize_factory"))
	assert.Equal(t, sum[:8], Instruction_InitializeFactory[:])
}

func TestPresaleAccountLayout(t *testing.T) {
	p := &Presale{
		Owner:        solanago.NewWallet().PublicKey(),
		Token:        solanago.NewWallet().PublicKey(),
		PresaleRate:  100,
		SoftCap:      50_000,
		HardCap:      100_000,
		StartSale:    1_700_000_000,
		EndSale:      1_700_086_400,
		IsNative:     true,
		Participants: []solanago.PublicKey{solanago.NewWallet().PublicKey()},
		State:        PresaleStateCancelled,
		FinalizedAt:  -1,
	}
	data, err := p.Marshal()
	require.NoError(t, err)
	assert.Equal(t, PresaleDiscriminator[:], data[:8])

	obj, err := ParseAnyAccount(data)
	require.NoError(t, err)
	got, ok := obj.(*Presale)
	require.True(t, ok)
	assert.Equal(t, p, got)

	_, err = ParseAccount_Factory(data)
	assert.ErrorContains(t, err, "discriminator mismatch")
}

func TestBuyTokensInstructionData(t *testing.T) {
	accounts := BuyTokensAccounts{
		Presale: solanago.NewWallet().PublicKey(),
		Buyer:   solanago.NewWallet().PublicKey(),
	}
	ix, err := NewBuyTokensInstruction(BuyTokensArgs{Amount: 1000}, accounts)
	require.NoError(t, err)

	data, err := ix.Data()
	require.NoError(t, err)
	require.Len(t, data, 16)
	assert.Equal(t, Instruction_BuyTokens[:], data[:8])
	assert.Equal(t, []byte{0xe8, 0x03, 0, 0, 0, 0, 0, 0}, data[8:])

	metas := ix.Accounts()
	require.Len(t, metas, 11)
	assert.True(t, metas[0].IsWritable)
	assert.True(t, metas[3].IsSigner)
	assert.Equal(t, accounts.Buyer, metas[3].PublicKey)
	assert.Equal(t, ProgramID, ix.ProgramID())
}

func TestCancelInstructionRemainingAccounts(t *testing.T) {
	ix, err := NewCancelPresaleInstruction(CancelPresaleAccounts{
		Refunds: []Refund{{}, {}},
	})
	require.NoError(t, err)
	assert.Len(t, ix.Accounts(), 8+2*3)
}

func TestProgramErrorMatching(t *testing.T) {
	wrapped := fmt.Errorf("create presale: %w", ErrInvalidCap)
	assert.True(t, errors.Is(wrapped, ErrInvalidCap))
	assert.True(t, errors.Is(wrapped, ErrInvalidConfig))
	assert.False(t, errors.Is(ErrInvalidConfig, ErrInvalidCap))
	assert.False(t, errors.Is(wrapped, ErrCapExceeded))

	e, ok := ErrorFromCode(6004)
	require.True(t, ok)
	assert.Same(t, ErrCapExceeded, e)
	assert.Equal(t, "CapExceeded (6004): Contribution would exceed the hard cap", e.Error())

	_, ok = ErrorFromCode(42)
	assert.False(t, ok)
}

func TestEventEncoding(t *testing.T) {
	ev := TokensPurchased{
		Presale:     solanago.NewWallet().PublicKey(),
		Buyer:       solanago.NewWallet().PublicKey(),
		Amount:      1000,
		TokensOwed:  1000,
		FundsRaised: 1000,
		TokensSold:  1000,
	}
	data, err := EncodeEvent(ev)
	require.NoError(t, err)

	parsed, err := ParseEvent(data)
	require.NoError(t, err)
	assert.Equal(t, &ev, parsed)

	_, err = ParseEvent([]byte{1, 2, 3, 4, 5, 6, 7, 8})
	assert.Error(t, err)
}

func TestResolveFinalizeFeeRecipient(t *testing.T) {
	factory := &Factory{Owner: solanago.NewWallet().PublicKey()}
	obj := &Presale{
		Owner:     solanago.NewWallet().PublicKey(),
		Token:     solanago.NewWallet().PublicKey(),
		IsNative:  true,
		DexRouter: solanago.NewWallet().PublicKey(),
	}
	presale := solanago.NewWallet().PublicKey()

	accounts, err := ResolveFinalizePresale(presale, obj, factory, obj.Owner)
	require.NoError(t, err)
	want, _, err := solanago.FindAssociatedTokenAddress(factory.Owner, solanago.WrappedSol)
	require.NoError(t, err)
	assert.Equal(t, want, accounts.FeeRecipient)

	obj.DemyAddress = solanago.NewWallet().PublicKey()
	accounts, err = ResolveFinalizePresale(presale, obj, factory, obj.Owner)
	require.NoError(t, err)
	want, _, err = solanago.FindAssociatedTokenAddress(obj.DemyAddress, solanago.WrappedSol)
	require.NoError(t, err)
	assert.Equal(t, want, accounts.FeeRecipient)

	vaults, err := DeriveVaults(presale)
	require.NoError(t, err)
	assert.Equal(t, vaults.PresaleVault, accounts.PresaleVault)
	assert.Equal(t, vaults.Authority, accounts.PresaleAuthority)
}
