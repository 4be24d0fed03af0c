package client

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
	solanago "github.com/krazyTry/presale-go/solana"
)

func newTestClient(t *testing.T, opts ...Option) (*fakeRPC, *PresaleFactory) {
	f, rpcClient := newFakeRPC(t)
	opts = append([]Option{WithMaxRetry(0), WithLogger(zaptest.NewLogger(t))}, opts...)
	return f, NewPresaleFactory(rpcClient, opts...)
}

func putPresale(t *testing.T, f *fakeRPC, factory solana.PublicKey, id uint64, obj *presalegen.Presale) solana.PublicKey {
	t.Helper()
	address, err := presalegen.DerivePresalePDA(factory, id)
	require.NoError(t, err)
	obj.Factory = factory
	obj.ID = id
	data, err := obj.Marshal()
	require.NoError(t, err)
	f.put(address, fakeAccount{owner: presalegen.ProgramID, data: data})
	return address
}

func TestGetPresale(t *testing.T) {
	f, m := newTestClient(t)
	ctx := context.Background()
	factory := solana.NewWallet().PublicKey()
	obj := &presalegen.Presale{
		Owner:    solana.NewWallet().PublicKey(),
		Token:    solana.NewWallet().PublicKey(),
		HardCap:  5_000,
		SoftCap:  2_000,
		IsNative: true,
	}
	address := putPresale(t, f, factory, 3, obj)

	got, err := m.GetPresale(ctx, address)
	require.NoError(t, err)
	assert.Equal(t, address, got.Address)
	assert.Equal(t, obj.Owner, got.Owner)
	assert.Equal(t, uint64(3), got.ID)

	_, err = m.GetPresale(ctx, solana.NewWallet().PublicKey())
	assert.ErrorIs(t, err, presalegen.ErrAccountNotFound)

	foreign := solana.NewWallet().PublicKey()
	data, err := obj.Marshal()
	require.NoError(t, err)
	f.put(foreign, fakeAccount{owner: solana.SystemProgramID, data: data})
	_, err = m.GetPresale(ctx, foreign)
	assert.ErrorIs(t, err, presalegen.ErrInvalidAccount)
}

func TestGetPresales(t *testing.T) {
	f, m := newTestClient(t)
	ctx := context.Background()
	factoryA := solana.NewWallet().PublicKey()
	factoryB := solana.NewWallet().PublicKey()
	owner := solana.NewWallet().PublicKey()
	other := solana.NewWallet().PublicKey()

	putPresale(t, f, factoryA, 1, &presalegen.Presale{Owner: owner})
	putPresale(t, f, factoryA, 0, &presalegen.Presale{Owner: owner})
	putPresale(t, f, factoryA, 2, &presalegen.Presale{Owner: other})
	putPresale(t, f, factoryB, 0, &presalegen.Presale{Owner: owner})

	list, err := m.GetPresales(ctx, factoryA, solana.PublicKey{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	for i, p := range list {
		assert.Equal(t, uint64(i), p.ID)
	}

	list, err = m.GetPresales(ctx, solana.PublicKey{}, owner)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	list, err = m.GetPresales(ctx, factoryA, owner)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestGetPurchasesAndWhitelist(t *testing.T) {
	f, m := newTestClient(t)
	ctx := context.Background()
	presale := solana.NewWallet().PublicKey()
	buyer := solana.NewWallet().PublicKey()

	purchase := &presalegen.Purchase{Presale: presale, Buyer: buyer, Contributed: 100, TokensOwed: 100}
	address, err := presalegen.DerivePurchasePDA(presale, buyer)
	require.NoError(t, err)
	data, err := purchase.Marshal()
	require.NoError(t, err)
	f.put(address, fakeAccount{owner: presalegen.ProgramID, data: data})

	list, err := m.GetPurchases(ctx, presale)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, uint64(100), list[0].Contributed)

	got, err := m.GetPurchase(ctx, presale, buyer)
	require.NoError(t, err)
	assert.Equal(t, address, got.Address)

	ok, err := m.IsWhitelisted(ctx, presale, buyer)
	require.NoError(t, err)
	assert.False(t, ok)

	entry, err := presalegen.DeriveWhitelistPDA(presale, buyer)
	require.NoError(t, err)
	data, err = (&presalegen.WhitelistEntry{Presale: presale, Buyer: buyer}).Marshal()
	require.NoError(t, err)
	f.put(entry, fakeAccount{owner: presalegen.ProgramID, data: data})
	ok, err = m.IsWhitelisted(ctx, presale, buyer)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVaultBalances(t *testing.T) {
	f, m := newTestClient(t)
	presale := solana.NewWallet().PublicKey()
	vaults, err := presalegen.DeriveVaults(presale)
	require.NoError(t, err)
	f.put(vaults.PresaleVault, fakeAccount{owner: solana.TokenProgramID, amount: 4_000})

	payment, tokens, err := m.VaultBalances(context.Background(), presale)
	require.NoError(t, err)
	assert.Equal(t, uint64(4_000), payment)
	assert.Zero(t, tokens)
}

func TestNow(t *testing.T) {
	_, m := newTestClient(t)
	now, err := m.Now(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_000_000), now)
}

func TestBuyTokensSimulate(t *testing.T) {
	f, m := newTestClient(t, WithSimulate(true))
	ctx := context.Background()
	address := putPresale(t, f, solana.NewWallet().PublicKey(), 0, &presalegen.Presale{
		Owner:    solana.NewWallet().PublicKey(),
		Token:    solana.NewWallet().PublicKey(),
		IsNative: true,
	})
	payer := solana.NewWallet()
	buyer := solana.NewWallet()

	presale, err := m.GetPresale(ctx, address)
	require.NoError(t, err)
	instructions, err := m.BuyTokensInstructions(ctx, payer.PublicKey(), buyer.PublicKey(), presale, 1_000)
	require.NoError(t, err)
	// token ATA, wSOL ATA, wrap transfer, sync native, buy
	require.Len(t, instructions, 5)
	assert.Equal(t, presalegen.ProgramID, instructions[4].ProgramID())

	sig, err := m.BuyTokens(ctx, payer, buyer, address, 1_000)
	require.NoError(t, err)
	assert.Equal(t, solanago.SimulatedSignature, sig)
	assert.Equal(t, 1, f.callCount("simulateTransaction"))

	f.mu.Lock()
	f.simulateErr = map[string]any{"InstructionError": []any{4, map[string]any{"Custom": 6004}}}
	f.mu.Unlock()
	_, err = m.BuyTokens(ctx, payer, buyer, address, 1_000)
	assert.ErrorIs(t, err, presalegen.ErrCapExceeded)
}

func TestOwnerWalletRequired(t *testing.T) {
	_, m := newTestClient(t, WithSimulate(true))
	_, _, err := m.InitializeFactory(context.Background(), solana.NewWallet(), nil, 500)
	assert.ErrorIs(t, err, presalegen.ErrUnauthorized)
}

func TestInitializeFactorySimulate(t *testing.T) {
	owner := solana.NewWallet()
	_, m := newTestClient(t, WithSimulate(true), WithOwner(owner))
	sig, factory, err := m.InitializeFactory(context.Background(), owner, nil, 500)
	require.NoError(t, err)
	assert.Equal(t, solanago.SimulatedSignature, sig)
	want, err := presalegen.DeriveFactoryPDA(owner.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, want, factory)
}

func TestTransferOwnershipRejectsZeroKey(t *testing.T) {
	_, err := TransferOwnershipInstruction(solana.NewWallet().PublicKey(), solana.NewWallet().PublicKey(), solana.PublicKey{})
	assert.ErrorIs(t, err, presalegen.ErrInvalidAccount)
}

func TestWhitelistInstructionsChunked(t *testing.T) {
	presale := solana.NewWallet().PublicKey()
	buyers := make([]solana.PublicKey, 25)
	for i := range buyers {
		buyers[i] = solana.NewWallet().PublicKey()
	}
	buyers = append(buyers, buyers[0])

	instructions, err := WhitelistInstructions(presale, solana.NewWallet().PublicKey(), buyers, true)
	require.NoError(t, err)
	require.Len(t, instructions, 3)
	// presale, owner, system program, then one entry per buyer
	assert.Len(t, instructions[0].Accounts(), 3+whitelistChunk)
	assert.Len(t, instructions[2].Accounts(), 3+5)
}

func TestCreatePresaleInstruction(t *testing.T) {
	factory := solana.NewWallet().PublicKey()
	creator := solana.NewWallet().PublicKey()
	ix, presale, err := CreatePresaleInstruction(factory, 7, creator, presalegen.CreatePresaleArgs{
		Owner: creator,
		Token: solana.NewWallet().PublicKey(),
	})
	require.NoError(t, err)
	want, err := presalegen.DerivePresalePDA(factory, 7)
	require.NoError(t, err)
	assert.Equal(t, want, presale)
	data, err := ix.Data()
	require.NoError(t, err)
	assert.Equal(t, presalegen.Instruction_CreatePresale[:], data[:8])
}

func TestParseEvents(t *testing.T) {
	ev := presalegen.TokensPurchased{
		Presale: solana.NewWallet().PublicKey(),
		Buyer:   solana.NewWallet().PublicKey(),
		Amount:  1_000,
	}
	data, err := presalegen.EncodeEvent(ev)
	require.NoError(t, err)

	logs := []string{
		"Program " + presalegen.ProgramID.String() + " invoke [1]",
		"Program log: Instruction: BuyTokens",
		programDataPrefix + base64.StdEncoding.EncodeToString(data),
		programDataPrefix + base64.StdEncoding.EncodeToString([]byte("not an event")),
		programDataPrefix + "%%%",
	}
	events := ParseEvents(logs)
	require.Len(t, events, 1)
	assert.Equal(t, &ev, events[0])
}

func TestProgramErrorFrom(t *testing.T) {
	rpcErr := &jsonrpc.RPCError{
		Code:    -32002,
		Message: "Transaction simulation failed",
		Data: map[string]any{
			"err": map[string]any{"InstructionError": []any{0, map[string]any{"Custom": 6007}}},
		},
	}
	err := ProgramErrorFrom(rpcErr)
	assert.ErrorIs(t, err, presalegen.ErrNotWhitelisted)
	var target *jsonrpc.RPCError
	assert.True(t, errors.As(err, &target))

	plain := errors.New("connection refused")
	assert.Same(t, plain, ProgramErrorFrom(plain))
	assert.NoError(t, ProgramErrorFrom(nil))
}
