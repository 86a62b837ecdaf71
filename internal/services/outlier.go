package services

import (
	"math"
	"sort"
)

// minGroupSize is the smallest daily price group the IQR rule applies to.
// Below this, quartile estimation is meaningless and every price is valid.
const minGroupSize = 4

// PriceBounds is the inclusive [lower, upper] validity range computed from a
// daily price group. Validity is decided by value membership: two records
// with the same price always share a verdict.
type PriceBounds struct {
	Lower float64
	Upper float64
}

// Contains reports whether a price falls inside the bounds. Both ends are
// inclusive.
func (b PriceBounds) Contains(price int64) bool {
	p := float64(price)
	return p >= b.Lower && p <= b.Upper
}

// IQRBounds computes the Tukey fence [Q1-1.5*IQR, Q3+1.5*IQR] for a price
// group. ok is false when the group has fewer than minGroupSize values, in
// which case every value is considered valid.
func IQRBounds(prices []int64) (bounds PriceBounds, ok bool) {
	if len(prices) < minGroupSize {
		return PriceBounds{}, false
	}

	sorted := make([]float64, len(prices))
	for i, p := range prices {
		sorted[i] = float64(p)
	}
	sort.Float64s(sorted)

	q1 := percentile(sorted, 25)
	q3 := percentile(sorted, 75)
	iqr := q3 - q1

	return PriceBounds{
		Lower: q1 - 1.5*iqr,
		Upper: q3 + 1.5*iqr,
	}, true
}

// IsPriceValid applies the IQR rule for one price against its group.
func IsPriceValid(price int64, bounds PriceBounds, ok bool) bool {
	if !ok {
		return true
	}
	return bounds.Contains(price)
}

// percentile interpolates the p-th percentile of an ascending-sorted slice:
// index = p/100 * (n-1), linear interpolation between the two neighbors.
func percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	index := p / 100 * float64(n-1)
	i := int(math.Floor(index))
	frac := index - float64(i)
	if i+1 < n {
		return sorted[i] + (sorted[i+1]-sorted[i])*frac
	}
	return sorted[i]
}
