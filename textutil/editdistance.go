package textutil

// EditDistance computes the Levenshtein distance between two strings at the
// rune level, using the classic two-row dynamic programming formulation.
func EditDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// Closest returns up to count entries from candidates whose edit distance to
// word is at most maxDistance, closest first. Ties keep candidate order.
func Closest(word string, candidates []string, count, maxDistance int) []string {
	type scored struct {
		word string
		dist int
	}
	var hits []scored
	for _, c := range candidates {
		if d := EditDistance(word, c); d <= maxDistance {
			hits = append(hits, scored{c, d})
		}
	}
	// Insertion sort by distance; candidate sets here are small.
	for i := 1; i < len(hits); i++ {
		for j := i; j > 0 && hits[j].dist < hits[j-1].dist; j-- {
			hits[j], hits[j-1] = hits[j-1], hits[j]
		}
	}
	if len(hits) > count {
		hits = hits[:count]
	}
	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.word
	}
	return out
}
