package math

import (
	"github.com/krazyTry/presale-go/u128"

	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
)

func mulDiv(a, b, d uint64) (uint64, error) {
	out, err := u128.MulDivFloor(a, b, d)
	if err != nil {
		return 0, presalegen.ErrMathOverflow
	}
	return out, nil
}

// PlatformCut = funds * feeBps / 10000, rounded down.
func PlatformCut(funds, feeBps uint64) (uint64, error) {
	if feeBps > BasisPointMax {
		return 0, presalegen.ErrInvalidFee
	}
	return mulDiv(funds, feeBps, BasisPointMax)
}

// TokensForFunds converts a payment amount to sale tokens at the presale rate.
func TokensForFunds(amount, presaleRate uint64) (uint64, error) {
	return mulDiv(amount, presaleRate, RatePrecision)
}

// ListingTokens is the amount of sale tokens paired with funds when listing at listingRate.
func ListingTokens(funds, listingRate uint64) (uint64, error) {
	return mulDiv(funds, listingRate, RatePrecision)
}

// LiquidityFunds is the share of net proceeds routed to liquidity.
func LiquidityFunds(netFunds, liquidityPercent uint64) (uint64, error) {
	if liquidityPercent > PercentMax {
		return 0, presalegen.ErrInvalidConfig
	}
	return mulDiv(netFunds, liquidityPercent, PercentMax)
}

// RequiredSaleTokens is what the token vault must hold for a presale: every token that can be sold
// at the hard cap plus, for auto-listing, the tokens paired with the liquidity share of the hard cap
// (fee not deducted, so the reserve is an upper bound).
func RequiredSaleTokens(hardCap, presaleRate uint64, isAutoListing bool, liquidityPercent, listingRate uint64) (uint64, error) {
	forSale, err := TokensForFunds(hardCap, presaleRate)
	if err != nil {
		return 0, err
	}
	if !isAutoListing {
		return forSale, nil
	}
	liquidity, err := LiquidityFunds(hardCap, liquidityPercent)
	if err != nil {
		return 0, err
	}
	listing, err := ListingTokens(liquidity, listingRate)
	if err != nil {
		return 0, err
	}
	total, err := u128.CheckedAdd(forSale, listing)
	if err != nil {
		return 0, presalegen.ErrMathOverflow
	}
	return total, nil
}

// Settlement splits raised funds at finalization.
type Settlement struct {
	PlatformFee     uint64
	NetFunds        uint64
	LiquidityFunds  uint64
	LiquidityTokens uint64
	OwnerProceeds   uint64
}

// Settle computes fee, liquidity share and owner proceeds for a successful presale.
func Settle(fundsRaised, feeBps uint64, isAutoListing bool, liquidityPercent, listingRate uint64) (Settlement, error) {
	var s Settlement
	fee, err := PlatformCut(fundsRaised, feeBps)
	if err != nil {
		return s, err
	}
	s.PlatformFee = fee
	s.NetFunds = fundsRaised - fee
	s.OwnerProceeds = s.NetFunds
	if !isAutoListing {
		return s, nil
	}
	if s.LiquidityFunds, err = LiquidityFunds(s.NetFunds, liquidityPercent); err != nil {
		return s, err
	}
	if s.LiquidityTokens, err = ListingTokens(s.LiquidityFunds, listingRate); err != nil {
		return s, err
	}
	s.OwnerProceeds = s.NetFunds - s.LiquidityFunds
	return s, nil
}
