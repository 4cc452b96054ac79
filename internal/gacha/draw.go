package gacha

import "errors"

// ErrNoWeight is returned when the pool is empty or every weight is zero.
var ErrNoWeight = errors.New("gacha pool has no drawable weight")

// Weighted is anything that can be drawn from a pool
type Weighted interface {
	Weight() float64
}

// TotalWeight sums the weights of pool. Negative weights count as 0.
func TotalWeight[T Weighted](pool []T) float64 {
	var total float64
	for _, item := range pool {
		if w := item.Weight(); w > 0 {
			total += w
		}
	}
	return total
}

// DrawBatch returns n independent samples from pool, with replacement,
// each item chosen with probability weight/total. Pool order is the
// walk order, and the last item absorbs any floating point drift.
func DrawBatch[T Weighted](pool []T, n int, rng RandomSource) ([]T, error) {
	total := TotalWeight(pool)
	if len(pool) == 0 || total <= 0 {
		return nil, ErrNoWeight
	}
	if rng == nil {
		rng = DefaultRNG()
	}

	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, pick(pool, total, rng))
	}
	return out, nil
}

func pick[T Weighted](pool []T, total float64, rng RandomSource) T {
	r := rng.Float64() * total
	for _, item := range pool {
		w := item.Weight()
		if w <= 0 {
			continue
		}
		if r < w {
			return item
		}
		r -= w
	}
	return pool[len(pool)-1]
}

// PointsFor sums the tier points of a batch
func PointsFor(tiers []Tier) int {
	total := 0
	for _, t := range tiers {
		total += t.Points()
	}
	return total
}
