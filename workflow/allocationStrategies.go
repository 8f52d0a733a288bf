package workflow

import (
	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/chargeback_backend/models"
)

// SectorShare is one consumer group's slice of a shared application's cost.
type SectorShare struct {
	SectorId int
	Amount   decimal.Decimal
}

// ProportionalShares splits totalCost across sectors in proportion to usage.
// Amounts are rounded to cents per sector, so the sum may drift from
// totalCost by up to half a cent per sector. All-zero usage returns nil:
// nothing to apportion against is a no-op, not an error.
func ProportionalShares(totalCost decimal.Decimal, usages []models.SectorUsage) []SectorShare {
	totalUsage := decimal.Zero
	for _, u := range usages {
		totalUsage = totalUsage.Add(u.Usage)
	}
	if totalUsage.IsZero() {
		return nil
	}

	shares := make([]SectorShare, 0, len(usages))
	for _, u := range usages {
		amount := totalCost.Mul(u.Usage).Div(totalUsage).Round(2)
		shares = append(shares, SectorShare{SectorId: u.SectorId, Amount: amount})
	}
	return shares
}

// EqualSplitShares gives every sector the same slice regardless of usage.
// The residual cent left by rounding goes to the last sector, so the split
// sums exactly to totalCost. No sectors returns nil.
func EqualSplitShares(totalCost decimal.Decimal, sectorIds []int) []SectorShare {
	n := len(sectorIds)
	if n == 0 {
		return nil
	}

	per := totalCost.Div(decimal.NewFromInt(int64(n))).Round(2)
	shares := make([]SectorShare, 0, n)
	allocated := decimal.Zero
	for i, sectorId := range sectorIds {
		amount := per
		if i == n-1 {
			amount = totalCost.Sub(allocated).Round(2)
		}
		allocated = allocated.Add(amount)
		shares = append(shares, SectorShare{SectorId: sectorId, Amount: amount})
	}
	return shares
}

// BlendedShares distributes usageRatio of the cost proportionally by usage
// and the remainder as an equal split over the same sectors. Either
// sub-component with a zero denominator contributes zero instead of failing
// the whole computation.
func BlendedShares(totalCost decimal.Decimal, usages []models.SectorUsage, usageRatio decimal.Decimal) []SectorShare {
	n := len(usages)
	if n == 0 {
		return nil
	}

	proportionalPortion := totalCost.Mul(usageRatio)
	equalPortion := totalCost.Sub(proportionalPortion)

	totalUsage := decimal.Zero
	for _, u := range usages {
		totalUsage = totalUsage.Add(u.Usage)
	}
	perSectorEqual := equalPortion.Div(decimal.NewFromInt(int64(n)))

	shares := make([]SectorShare, 0, n)
	for _, u := range usages {
		proportionalShare := decimal.Zero
		if !totalUsage.IsZero() {
			proportionalShare = proportionalPortion.Mul(u.Usage).Div(totalUsage)
		}
		amount := proportionalShare.Add(perSectorEqual).Round(2)
		shares = append(shares, SectorShare{SectorId: u.SectorId, Amount: amount})
	}
	return shares
}
