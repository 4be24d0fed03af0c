package presalefactory

import (
	"bytes"
	"fmt"

	binary "github.com/gagliardetto/binary"
	solanago "github.com/gagliardetto/solana-go"
)

type PresaleState uint8

const (
	PresaleStateActive    PresaleState = 0
	PresaleStateFinalized PresaleState = 1
	PresaleStateCancelled PresaleState = 2
)

func (s PresaleState) String() string {
	switch s {
	case PresaleStateActive:
		return "active"
	case PresaleStateFinalized:
		return "finalized"
	case PresaleStateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

type Factory struct {
	Owner        solanago.PublicKey
	PresaleCount uint64
	// PlatformFee in basis points (500 = 5%).
	PlatformFee uint64
}

type Presale struct {
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
	TokensSold           uint64
	FundsRaised          uint64
	IsFinalized          bool
	// MaxPlatformFee is the fee owed if the hard cap is reached, fixed at creation.
	MaxPlatformFee  uint64
	Participants    []solanago.PublicKey
	Factory         solanago.PublicKey
	ID              uint64
	TokenVault      solanago.PublicKey
	PresaleVault    solanago.PublicKey
	State           PresaleState
	FinalizedAt     int64
	TokensDelivered uint64
}

// Purchase is a buyer's contribution record for one presale.
type Purchase struct {
	Presale       solanago.PublicKey
	Buyer         solanago.PublicKey
	Contributed   uint64
	TokensOwed    uint64
	TokensClaimed uint64
	Refunded      bool
}

type WhitelistEntry struct {
	Presale solanago.PublicKey
	Buyer   solanago.PublicKey
}

func encodeAccount(disc Discriminator, obj any) ([]byte, error) {
	buf := new(bytes.Buffer)
	buf.Write(disc[:])
	if err := binary.NewBorshEncoder(buf).Encode(obj); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func decodeAccount(data []byte, disc Discriminator, name string, obj any) error {
	if len(data) < 8 {
		return fmt.Errorf("%s: account data too short (%d bytes)", name, len(data))
	}
	if !bytes.Equal(data[:8], disc[:]) {
		return fmt.Errorf("%s: discriminator mismatch %x", name, data[:8])
	}
	if err := binary.NewBorshDecoder(data[8:]).Decode(obj); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (obj *Factory) Marshal() ([]byte, error) {
	return encodeAccount(FactoryDiscriminator, obj)
}

func (obj *Presale) Marshal() ([]byte, error) {
	return encodeAccount(PresaleDiscriminator, obj)
}

func (obj *Purchase) Marshal() ([]byte, error) {
	return encodeAccount(PurchaseDiscriminator, obj)
}

func (obj *WhitelistEntry) Marshal() ([]byte, error) {
	return encodeAccount(WhitelistEntryDiscriminator, obj)
}

func ParseAccount_Factory(data []byte) (*Factory, error) {
	obj := new(Factory)
	if err := decodeAccount(data, FactoryDiscriminator, AccountKeyFactory, obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func ParseAccount_Presale(data []byte) (*Presale, error) {
	obj := new(Presale)
	if err := decodeAccount(data, PresaleDiscriminator, AccountKeyPresale, obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func ParseAccount_Purchase(data []byte) (*Purchase, error) {
	obj := new(Purchase)
	if err := decodeAccount(data, PurchaseDiscriminator, AccountKeyPurchase, obj); err != nil {
		return nil, err
	}
	return obj, nil
}

func ParseAccount_WhitelistEntry(data []byte) (*WhitelistEntry, error) {
	obj := new(WhitelistEntry)
	if err := decodeAccount(data, WhitelistEntryDiscriminator, AccountKeyWhitelistEntry, obj); err != nil {
		return nil, err
	}
	return obj, nil
}

// ParseAnyAccount decodes any program account by its discriminator.
func ParseAnyAccount(data []byte) (any, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("account data too short (%d bytes)", len(data))
	}
	var disc Discriminator
	copy(disc[:], data[:8])
	switch disc {
	case FactoryDiscriminator:
		return ParseAccount_Factory(data)
	case PresaleDiscriminator:
		return ParseAccount_Presale(data)
	case PurchaseDiscriminator:
		return ParseAccount_Purchase(data)
	case WhitelistEntryDiscriminator:
		return ParseAccount_WhitelistEntry(data)
	default:
		return nil, fmt.Errorf("unknown account discriminator %x", disc[:])
	}
}
