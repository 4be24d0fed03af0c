package api

import (
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"

	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
	"github.com/krazyTry/presale-go/presale"
	"github.com/krazyTry/presale-go/presale/math"
	solanago "github.com/krazyTry/presale-go/solana"
)

// nativeDecimals is the lamport scale of SOL.
const nativeDecimals = 9

type FactoryView struct {
	Address      string `json:"address"`
	Owner        string `json:"owner"`
	PresaleCount uint64 `json:"presale_count"`
	PlatformFee  uint64 `json:"platform_fee_bps"`
	// PlatformFeePercent is the fee as a percent, e.g. "5" for 500 bps.
	PlatformFeePercent string `json:"platform_fee_percent"`
}

func newFactoryView(address solana.PublicKey, f *presalegen.Factory) FactoryView {
	return FactoryView{
		Address:            address.String(),
		Owner:              f.Owner.String(),
		PresaleCount:       f.PresaleCount,
		PlatformFee:        f.PlatformFee,
		PlatformFeePercent: math.BpsToPercent(f.PlatformFee).String(),
	}
}

type VestingView struct {
	FirstReleasePercent  uint64 `json:"first_release_percent"`
	VestingPeriod        uint64 `json:"vesting_period"`
	TokensReleasePercent uint64 `json:"tokens_release_percent"`
}

type PresaleView struct {
	Address      string `json:"address"`
	Factory      string `json:"factory"`
	ID           uint64 `json:"id"`
	Owner        string `json:"owner"`
	Token        string `json:"token"`
	PaymentToken string `json:"payment_token,omitempty"`
	IsNative     bool   `json:"is_native"`
	State        string `json:"state"`
	// Status is the phase at request time: upcoming, live, ended, finalized or cancelled.
	Status      string `json:"status"`
	StartSale   int64  `json:"start_sale"`
	EndSale     int64  `json:"end_sale"`
	FinalizedAt int64  `json:"finalized_at,omitempty"`

	SoftCap     uint64 `json:"soft_cap"`
	HardCap     uint64 `json:"hard_cap"`
	MinBuy      uint64 `json:"min_buy"`
	MaxBuy      uint64 `json:"max_buy"`
	FundsRaised uint64 `json:"funds_raised"`
	TokensSold  uint64 `json:"tokens_sold"`
	// FundsRaisedUI is set for native presales, in SOL, and for token presales whose payment
	// mint could be loaded.
	FundsRaisedUI string `json:"funds_raised_ui,omitempty"`
	TokensSoldUI  string `json:"tokens_sold_ui,omitempty"`
	// Rate is sale tokens per payment unit.
	Rate         string `json:"rate"`
	Progress     string `json:"progress_percent"`
	Participants int    `json:"participants"`

	IsWhitelist      bool         `json:"is_whitelist"`
	IsFund           bool         `json:"is_fund"`
	IsAutoListing    bool         `json:"is_auto_listing"`
	LiquidityPercent uint64       `json:"liquidity_percent"`
	ListingRate      string       `json:"listing_rate,omitempty"`
	Vesting          *VestingView `json:"vesting,omitempty"`
}

func status(p *presalegen.Presale, now int64) string {
	switch {
	case p.State == presalegen.PresaleStateFinalized:
		return "finalized"
	case p.State == presalegen.PresaleStateCancelled:
		return "cancelled"
	case now < p.StartSale:
		return "upcoming"
	case now < p.EndSale && p.FundsRaised < p.HardCap:
		return "live"
	}
	return "ended"
}

func rate(r uint64) string {
	return decimal.NewFromUint64(r).Div(decimal.NewFromInt(math.RatePrecision)).String()
}

// withMints fills the UI amounts from the sale and payment mints. A nil mint leaves its field empty.
func (v *PresaleView) withMints(p *presalegen.Presale, sale, payment *solanago.Token) {
	if sale != nil {
		v.TokensSoldUI = sale.UiAmount(p.TokensSold).String()
	}
	if !p.IsNative && payment != nil {
		v.FundsRaisedUI = payment.UiAmount(p.FundsRaised).String()
	}
}

func newPresaleView(address solana.PublicKey, p *presalegen.Presale, now int64) PresaleView {
	v := PresaleView{
		Address:          address.String(),
		Factory:          p.Factory.String(),
		ID:               p.ID,
		Owner:            p.Owner.String(),
		Token:            p.Token.String(),
		IsNative:         p.IsNative,
		State:            p.State.String(),
		Status:           status(p, now),
		StartSale:        p.StartSale,
		EndSale:          p.EndSale,
		FinalizedAt:      p.FinalizedAt,
		SoftCap:          p.SoftCap,
		HardCap:          p.HardCap,
		MinBuy:           p.MinBuy,
		MaxBuy:           p.MaxBuy,
		FundsRaised:      p.FundsRaised,
		TokensSold:       p.TokensSold,
		Rate:             rate(p.PresaleRate),
		Progress:         "0",
		Participants:     len(p.Participants),
		IsWhitelist:      p.IsWhitelist,
		IsFund:           p.IsFund,
		IsAutoListing:    p.IsAutoListing,
		LiquidityPercent: p.LiquidityPercent,
	}
	if !p.IsNative {
		v.PaymentToken = p.PaymentToken.String()
	} else {
		v.FundsRaisedUI = math.ToUiAmount(p.FundsRaised, nativeDecimals).String()
	}
	if p.HardCap > 0 {
		v.Progress = decimal.NewFromUint64(p.FundsRaised).
			Mul(decimal.NewFromInt(math.PercentMax)).
			DivRound(decimal.NewFromUint64(p.HardCap), 2).
			String()
	}
	if p.IsAutoListing {
		v.ListingRate = rate(p.ListingRate)
	}
	if p.IsVesting {
		v.Vesting = &VestingView{
			FirstReleasePercent:  p.FirstReleasePercent,
			VestingPeriod:        p.VestingPeriod,
			TokensReleasePercent: p.TokensReleasePercent,
		}
	}
	return v
}

type PurchaseView struct {
	Presale       string `json:"presale"`
	Buyer         string `json:"buyer"`
	Contributed   uint64 `json:"contributed"`
	TokensOwed    uint64 `json:"tokens_owed"`
	TokensClaimed uint64 `json:"tokens_claimed"`
	Claimable     uint64 `json:"claimable"`
	Refunded      bool   `json:"refunded"`
}

func newPurchaseView(p *presalegen.Presale, purchase *presalegen.Purchase, now int64) PurchaseView {
	v := PurchaseView{
		Presale:       purchase.Presale.String(),
		Buyer:         purchase.Buyer.String(),
		Contributed:   purchase.Contributed,
		TokensOwed:    purchase.TokensOwed,
		TokensClaimed: purchase.TokensClaimed,
		Refunded:      purchase.Refunded,
	}
	if p.State == presalegen.PresaleStateFinalized {
		v.Claimable = presale.Releasable(p, purchase, now)
	}
	return v
}
