package dedup

// Similarity scores two strings in [0,1] as 1 - levenshtein/maxLen.
// Either input being empty yields 0.0: an empty title carries no
// signal, so it never matches anything, not even another empty string.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}

	ra, rb := []rune(a), []rune(b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	return 1.0 - float64(levenshtein(ra, rb))/float64(maxLen)
}

// levenshtein computes the classic edit distance (insert/delete/
// substitute, unit cost) with a rolling single-row table.
func levenshtein(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i, ca := range a {
		curr[0] = i + 1
		for j, cb := range b {
			cost := 0
			if ca != cb {
				cost = 1
			}
			ins := prev[j+1] + 1
			del := curr[j] + 1
			sub := prev[j] + cost

			min := ins
			if del < min {
				min = del
			}
			if sub < min {
				min = sub
			}
			curr[j+1] = min
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
