package presalego

import (
	"github.com/krazyTry/presale-go/client"
	"github.com/krazyTry/presale-go/presale"
)

// NewPresaleFactory creates a client for the deployed presale factory program.
//
// Example:
//
// factory := NewPresaleFactory(rpcClient, client.WithWSClient(wsClient), client.WithOwner(ownerWallet))
//
// sig, factoryAddress, _ := factory.InitializeFactory(ctx, payer, ownerWallet, 500)
//
// sig, presaleAddress, _ := factory.CreatePresale(ctx, payer, ownerWallet, factoryAddress, cfg)
//
// factory.BuyTokens(ctx, payer, buyer, presaleAddress, 1_000_000_000)
var NewPresaleFactory = client.NewPresaleFactory

// NewProgram creates an in-process presale factory program over its own ledger.
//
// Example:
//
// program := NewProgram(presale.WithClock(clock), presale.WithEventSink(sink))
//
// factory, _, _ := program.InitializeFactory(ctx, owner, 500)
//
// address, _, _ := program.CreatePresale(ctx, factory, owner, cfg)
var NewProgram = presale.NewProgram
