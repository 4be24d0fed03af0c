package math

import (
	"math/big"

	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
)

// ElapsedPeriods counts whole vesting periods between start and now.
func ElapsedPeriods(now, start int64, period uint64) uint64 {
	if now <= start || period == 0 {
		return 0
	}
	return uint64(now-start) / period
}

// ReleasedPercent is the cumulative percent unlocked after elapsed periods, capped at 100.
func ReleasedPercent(elapsedPeriods, firstReleasePercent, perPeriodPercent uint64) uint64 {
	pct := new(big.Int).Mul(new(big.Int).SetUint64(elapsedPeriods), new(big.Int).SetUint64(perPeriodPercent))
	pct.Add(pct, new(big.Int).SetUint64(firstReleasePercent))
	if pct.Cmp(big.NewInt(PercentMax)) > 0 {
		return PercentMax
	}
	return pct.Uint64()
}

// VestingReleasable returns what can be claimed now:
// min(total, total * min(100, first + elapsed*per) / 100) - claimed, floored at 0.
func VestingReleasable(elapsedPeriods, firstReleasePercent, perPeriodPercent, totalEntitlement, alreadyClaimed uint64) uint64 {
	pct := ReleasedPercent(elapsedPeriods, firstReleasePercent, perPeriodPercent)

	unlocked := new(big.Int).Mul(new(big.Int).SetUint64(totalEntitlement), new(big.Int).SetUint64(pct))
	unlocked.Quo(unlocked, big.NewInt(PercentMax))
	total := new(big.Int).SetUint64(totalEntitlement)
	if unlocked.Cmp(total) > 0 {
		unlocked = total
	}

	available := unlocked.Sub(unlocked, new(big.Int).SetUint64(alreadyClaimed))
	if available.Sign() <= 0 {
		return 0
	}
	return available.Uint64()
}

// PeriodsToComplete is the number of periods after the first release until 100% is unlocked.
func PeriodsToComplete(firstReleasePercent, perPeriodPercent uint64) (uint64, bool) {
	if firstReleasePercent >= PercentMax {
		return 0, true
	}
	if perPeriodPercent == 0 {
		return 0, false
	}
	remaining := PercentMax - firstReleasePercent
	return (remaining + perPeriodPercent - 1) / perPeriodPercent, true
}

// ValidateVestingSchedule rejects schedules that never (or only after MaxVestingPeriods) release
// the full entitlement.
func ValidateVestingSchedule(firstReleasePercent, vestingPeriod, perPeriodPercent uint64) error {
	if firstReleasePercent > PercentMax || perPeriodPercent > PercentMax {
		return presalegen.ErrInvalidConfig
	}
	periods, ok := PeriodsToComplete(firstReleasePercent, perPeriodPercent)
	if !ok || periods > MaxVestingPeriods {
		return presalegen.ErrInvalidConfig
	}
	if periods > 0 && vestingPeriod == 0 {
		return presalegen.ErrInvalidConfig
	}
	return nil
}

// VestingEnd is the unix time at which a schedule starting at start is fully released.
func VestingEnd(start int64, firstReleasePercent, vestingPeriod, perPeriodPercent uint64) int64 {
	periods, ok := PeriodsToComplete(firstReleasePercent, perPeriodPercent)
	if !ok {
		return 0
	}
	return start + int64(periods*vestingPeriod)
}
