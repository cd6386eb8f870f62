package opt

import "math/rand"

// newPermutation returns customer IDs 1..n uniformly shuffled.
func newPermutation(n int, rng *rand.Rand) []int {
	p := make([]int, n)
	for i := range p {
		p[i] = i + 1
	}
	rng.Shuffle(n, func(i, j int) { p[i], p[j] = p[j], p[i] })
	return p
}

// tournamentSelect draws k individuals with replacement and returns the
// index of the cheapest. Ties keep the earliest draw (strict comparison),
// so the result is fully determined by the random stream.
func tournamentSelect(costs []float64, k int, rng *rand.Rand) int {
	best := rng.Intn(len(costs))
	for i := 1; i < k; i++ {
		cand := rng.Intn(len(costs))
		if costs[cand] < costs[best] {
			best = cand
		}
	}
	return best
}

// cutPoints returns 0 <= a < b <= n uniformly over distinct pairs.
func cutPoints(n int, rng *rand.Rand) (int, int) {
	a := rng.Intn(n + 1)
	b := rng.Intn(n)
	if b >= a {
		b++
	} else {
		a, b = b, a
	}
	return a, b
}

// orderCrossover (OX) builds a child owning its own backing array: the
// segment [a,b) is copied from p1 in place, the remaining positions are
// filled with p2's genes in p2 order, scanning and writing from b with
// wrap-around. The child is a valid permutation for any cut points.
func orderCrossover(p1, p2 []int, a, b int) []int {
	n := len(p1)
	child := make([]int, n)
	used := make([]bool, n+1)
	for i := a; i < b; i++ {
		child[i] = p1[i]
		used[p1[i]] = true
	}
	// Free slots are [b,n) then [0,a); unused genes fill them in order.
	pos := b % n
	for i := 0; i < n; i++ {
		g := p2[(b+i)%n]
		if used[g] {
			continue
		}
		child[pos] = g
		used[g] = true
		pos = (pos + 1) % n
	}
	return child
}

// mutateSwap exchanges two distinct positions in place.
func mutateSwap(p []int, rng *rand.Rand) {
	if len(p) < 2 {
		return
	}
	i := rng.Intn(len(p))
	j := rng.Intn(len(p) - 1)
	if j >= i {
		j++
	}
	p[i], p[j] = p[j], p[i]
}
