package presalefactory

import (
	"bytes"
	"fmt"

	binary "github.com/gagliardetto/binary"
	solanago "github.com/gagliardetto/solana-go"
)

// Event is any log event emitted by the program.
type Event interface {
	EventName() string
	// EventAccount is the factory or presale the event belongs to.
	EventAccount() solanago.PublicKey
}

type FactoryInitialized struct {
	Factory     solanago.PublicKey
	Owner       solanago.PublicKey
	PlatformFee uint64
}

type PlatformFeeUpdated struct {
	Factory        solanago.PublicKey
	OldPlatformFee uint64
	NewPlatformFee uint64
}

type OwnershipTransferred struct {
	Factory       solanago.PublicKey
	PreviousOwner solanago.PublicKey
	NewOwner      solanago.PublicKey
}

type PresaleCreated struct {
	Presale   solanago.PublicKey
	Owner     solanago.PublicKey
	StartSale int64
	EndSale   int64
}

type TokensPurchased struct {
	Presale     solanago.PublicKey
	Buyer       solanago.PublicKey
	Amount      uint64
	TokensOwed  uint64
	FundsRaised uint64
	TokensSold  uint64
}

type PresaleFinalized struct {
	Presale         solanago.PublicKey
	FundsRaised     uint64
	PlatformFee     uint64
	LiquidityFunds  uint64
	LiquidityTokens uint64
	OwnerProceeds   uint64
	FinalizedAt     int64
}

type PresaleCancelled struct {
	Presale     solanago.PublicKey
	Caller      solanago.PublicKey
	FundsRaised uint64
}

type Refunded struct {
	Presale solanago.PublicKey
	Buyer   solanago.PublicKey
	Amount  uint64
}

type TokensClaimed struct {
	Presale      solanago.PublicKey
	Buyer        solanago.PublicKey
	Amount       uint64
	TotalClaimed uint64
}

type WhitelistUpdated struct {
	Presale solanago.PublicKey
	Added   bool
	Buyers  []solanago.PublicKey
}

func (FactoryInitialized) EventName() string   { return "FactoryInitialized" }
func (PlatformFeeUpdated) EventName() string   { return "PlatformFeeUpdated" }
func (OwnershipTransferred) EventName() string { return "OwnershipTransferred" }
func (PresaleCreated) EventName() string       { return "PresaleCreated" }
func (TokensPurchased) EventName() string      { return "TokensPurchased" }
func (PresaleFinalized) EventName() string     { return "PresaleFinalized" }
func (PresaleCancelled) EventName() string     { return "PresaleCancelled" }
func (Refunded) EventName() string             { return "Refunded" }
func (TokensClaimed) EventName() string        { return "TokensClaimed" }
func (WhitelistUpdated) EventName() string     { return "WhitelistUpdated" }

func (e FactoryInitialized) EventAccount() solanago.PublicKey   { return e.Factory }
func (e PlatformFeeUpdated) EventAccount() solanago.PublicKey   { return e.Factory }
func (e OwnershipTransferred) EventAccount() solanago.PublicKey { return e.Factory }
func (e PresaleCreated) EventAccount() solanago.PublicKey       { return e.Presale }
func (e TokensPurchased) EventAccount() solanago.PublicKey      { return e.Presale }
func (e PresaleFinalized) EventAccount() solanago.PublicKey     { return e.Presale }
func (e PresaleCancelled) EventAccount() solanago.PublicKey     { return e.Presale }
func (e Refunded) EventAccount() solanago.PublicKey             { return e.Presale }
func (e TokensClaimed) EventAccount() solanago.PublicKey        { return e.Presale }
func (e WhitelistUpdated) EventAccount() solanago.PublicKey     { return e.Presale }

// EncodeEvent serializes an event the way anchor's emit! writes it into the program log.
func EncodeEvent(ev Event) ([]byte, error) {
	disc := EventDiscriminator(ev.EventName())
	buf := new(bytes.Buffer)
	buf.Write(disc[:])
	if err := binary.NewBorshEncoder(buf).Encode(ev); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var eventFactories = map[Discriminator]func() Event{}

func registerEvent(newFn func() Event) {
	eventFactories[EventDiscriminator(newFn().EventName())] = newFn
}

func init() {
	registerEvent(func() Event { return new(FactoryInitialized) })
	registerEvent(func() Event { return new(PlatformFeeUpdated) })
	registerEvent(func() Event { return new(OwnershipTransferred) })
	registerEvent(func() Event { return new(PresaleCreated) })
	registerEvent(func() Event { return new(TokensPurchased) })
	registerEvent(func() Event { return new(PresaleFinalized) })
	registerEvent(func() Event { return new(PresaleCancelled) })
	registerEvent(func() Event { return new(Refunded) })
	registerEvent(func() Event { return new(TokensClaimed) })
	registerEvent(func() Event { return new(WhitelistUpdated) })
}

// ParseEvent decodes a program log payload into its event type (returned as a pointer).
func ParseEvent(data []byte) (Event, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("event data too short (%d bytes)", len(data))
	}
	var disc Discriminator
	copy(disc[:], data[:8])
	newFn, ok := eventFactories[disc]
	if !ok {
		return nil, fmt.Errorf("unknown event discriminator %x", disc[:])
	}
	ev := newFn()
	if err := binary.NewBorshDecoder(data[8:]).Decode(ev); err != nil {
		return nil, fmt.Errorf("%s: %w", ev.EventName(), err)
	}
	return ev, nil
}
