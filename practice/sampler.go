package practice

import "math/rand"

// Rand is the one RNG capability the sampler needs. *rand.Rand satisfies
// it; tests inject a seeded source for deterministic draws.
type Rand interface {
	Shuffle(n int, swap func(i, j int))
}

// globalRand shuffles through math/rand's locked global source, safe for
// concurrent handlers.
type globalRand struct{}

func (globalRand) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// DefaultRand is the RNG used when none is injected.
var DefaultRand Rand = globalRand{}

// Shares are the Factor-derived percentages of the requested session size
// taken from each bucket. They are used as-is: no normalization, and sums
// over or under 100 simply over- or under-fill before the backfill step.
type Shares struct {
	Unanswered float64
	Wrong      float64
	Review     float64
	Correct    float64
}

// Sample draws a working set of at most total items from the buckets.
// Per-bucket takes are floor(total*share/100), each drawn uniformly
// without replacement; shortfall backfills from the Correct bucket and
// then from the full eligible pool. The result is shuffled and capped at
// total. Fewer than total items come back only when the union of buckets
// and pool is that small; the caller decides whether that degrades or
// rejects.
func Sample(rng Rand, b Buckets, shares Shares, total int, eligible []uint) []uint {
	if rng == nil {
		rng = DefaultRand
	}
	if total <= 0 {
		return nil
	}

	picked := make([]uint, 0, total)
	seen := make(map[uint]bool, total)

	take := func(bucket []uint, n int) {
		for _, id := range takeRandom(rng, bucket, n) {
			if seen[id] {
				continue
			}
			seen[id] = true
			picked = append(picked, id)
		}
	}

	take(b.Unanswered, shareCount(total, shares.Unanswered))
	take(b.Wrong, shareCount(total, shares.Wrong))
	take(b.Review, shareCount(total, shares.Review))
	take(b.Correct, shareCount(total, shares.Correct))

	// Backfill shortfall, preferring consistently-correct items before
	// falling back to anything eligible.
	for _, fallback := range [][]uint{b.Correct, eligible} {
		if len(picked) >= total {
			break
		}
		for _, id := range takeRandom(rng, fallback, len(fallback)) {
			if len(picked) >= total {
				break
			}
			if seen[id] {
				continue
			}
			seen[id] = true
			picked = append(picked, id)
		}
	}

	rng.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})
	if len(picked) > total {
		picked = picked[:total]
	}
	return picked
}

// ReviewSample draws the review-mode working set: the whole negative pool
// shuffled and truncated. The empty-pool rejection lives in the engine.
func ReviewSample(rng Rand, pool []uint, total int) []uint {
	if rng == nil {
		rng = DefaultRand
	}
	if total <= 0 {
		return nil
	}

	picked := make([]uint, 0, len(pool))
	seen := make(map[uint]bool, len(pool))
	for _, id := range pool {
		if seen[id] {
			continue
		}
		seen[id] = true
		picked = append(picked, id)
	}

	rng.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})
	if len(picked) > total {
		picked = picked[:total]
	}
	return picked
}

func shareCount(total int, pct float64) int {
	if pct <= 0 {
		return 0
	}
	return int(float64(total) * pct / 100)
}

// takeRandom returns up to n elements of ids drawn uniformly without
// replacement. The input is never mutated.
func takeRandom(rng Rand, ids []uint, n int) []uint {
	if n <= 0 || len(ids) == 0 {
		return nil
	}
	out := make([]uint, len(ids))
	copy(out, ids)
	rng.Shuffle(len(out), func(i, j int) {
		out[i], out[j] = out[j], out[i]
	})
	if n < len(out) {
		out = out[:n]
	}
	return out
}
