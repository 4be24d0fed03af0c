package solana

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeInstructions(t *testing.T) {
	payer := solana.NewWallet().PublicKey()
	mint := solana.NewWallet().PublicKey()
	wsol, _, err := solana.FindAssociatedTokenAddress(payer, solana.WrappedSol)
	require.NoError(t, err)

	instructions := []solana.Instruction{
		associatedtokenaccount.NewCreateInstruction(payer, payer, mint).Build(),
		associatedtokenaccount.NewCreateInstruction(payer, payer, mint).Build(),
		system.NewTransferInstruction(100, payer, wsol).Build(),
		system.NewTransferInstruction(50, payer, wsol).Build(),
		token.NewSyncNativeInstruction(wsol).Build(),
		token.NewSyncNativeInstruction(wsol).Build(),
		token.NewCloseAccountInstruction(wsol, payer, payer, nil).Build(),
	}

	merged := MergeInstructions(instructions)
	require.Len(t, merged, 4)

	transfer, ok := merged[1].(*system.Instruction)
	require.True(t, ok)
	impl, ok := transfer.Impl.(system.Transfer)
	require.True(t, ok)
	assert.Equal(t, uint64(150), *impl.Lamports)
}

func TestGenProgramAccountFilter(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	opt := GenProgramAccountFilter("Presale", "finalized", Filter{Key: owner, Offset: 8}, Filter{Offset: 40})
	require.Len(t, opt.Filters, 2)
	assert.Equal(t, uint64(0), opt.Filters[0].Memcmp.Offset)
	assert.Len(t, []byte(opt.Filters[0].Memcmp.Bytes), 8)
	assert.Equal(t, uint64(8), opt.Filters[1].Memcmp.Offset)
	assert.Equal(t, owner.Bytes(), []byte(opt.Filters[1].Memcmp.Bytes))
}

func TestTokenUiAmount(t *testing.T) {
	tok := &Token{}
	tok.Decimals = 6
	assert.Equal(t, "1.5", tok.UiAmount(1_500_000).String())
}
