package quality

import "math"

// Cosine returns the cosine similarity of two token-count maps in [0,1].
// The norms are combined under a single square root so identical maps score
// exactly 1.
func Cosine(a, b map[string]int) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	var dot float64
	for k, av := range a {
		if bv, ok := b[k]; ok {
			dot += float64(av * bv)
		}
	}
	sa := sumSquares(a)
	sb := sumSquares(b)
	if sa == 0 || sb == 0 {
		return 0
	}
	sim := dot / math.Sqrt(sa*sb)
	if sim > 1 {
		return 1
	}
	return sim
}

func sumSquares(m map[string]int) float64 {
	var sum float64
	for _, v := range m {
		sum += float64(v * v)
	}
	return sum
}

// Jaccard returns |a∩b| / |a∪b|, or 0 when either set is empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
