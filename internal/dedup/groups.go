package dedup

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// DefaultSimilarityThreshold is the fuzzy-match cutoff used when the
// caller passes a non-positive threshold.
const DefaultSimilarityThreshold = 0.85

// Confidence tags on a duplicate group.
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Grouping methods, in the order the layers run.
const (
	MethodExact     = "exact"
	MethodBase      = "base"
	MethodISBN      = "isbn"
	MethodFuzzy     = "fuzzy"
	MethodSubstring = "substring"
)

// Removal is a group member slated for removal, with the reasons it
// was judged a duplicate of the kept member.
type Removal struct {
	Record  Record
	Reasons []string
}

// Group is a set of records believed to represent the same work. Keep
// is the most complete member; the rest carry removal reasons.
type Group struct {
	Method     string
	Confidence string
	Keep       Record
	Remove     []Removal
}

// Members returns keep plus removals, keep first.
func (g Group) Members() []Record {
	out := make([]Record, 0, len(g.Remove)+1)
	out = append(out, g.Keep)
	for _, r := range g.Remove {
		out = append(out, r.Record)
	}
	return out
}

// FindDuplicateGroups detects duplicate groups within one author's
// catalog. Layers run in order (exact-normalized, base-title, ISBN,
// fuzzy, substring); each layer only considers records not captured by
// an earlier one, so every record lands in at most one group per run.
//
// The returned groups are descriptors only: inputs are never mutated,
// and re-running on the survivors after applying the removals yields
// no further groups.
func FindDuplicateGroups(records []Record, threshold float64) []Group {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}

	grouped := make(map[string]bool, len(records))
	groupOf := make(map[string]int, len(records))
	var memberSets [][]Record
	var methods []string

	add := func(method string, members []Record) {
		idx := len(memberSets)
		memberSets = append(memberSets, members)
		methods = append(methods, method)
		for _, m := range members {
			grouped[m.ID] = true
			groupOf[m.ID] = idx
		}
	}
	join := func(idx int, m Record) {
		memberSets[idx] = append(memberSets[idx], m)
		grouped[m.ID] = true
		groupOf[m.ID] = idx
	}

	// Layer 1: exact normalized title.
	for _, members := range bucket(records, grouped, func(r Record) string {
		return NormalizeTitle(r.Title)
	}) {
		add(MethodExact, members)
	}

	// Layer 2: base title.
	for _, members := range bucket(records, grouped, func(r Record) string {
		return strings.ToLower(BaseTitle(r.Title))
	}) {
		add(MethodBase, members)
	}

	// Layer 3: ISBN.
	for _, members := range bucket(records, grouped, func(r Record) string {
		return NormalizeISBN(r.ISBN)
	}) {
		add(MethodISBN, members)
	}

	// Layer 4: fuzzy pairwise comparison over the remainder. O(n²) in
	// the author's catalog size, which is bounded per call.
	for i, a := range records {
		if grouped[a.ID] {
			continue
		}
		members := []Record{a}
		aNorm := NormalizeTitle(a.Title)
		aBase := strings.ToLower(BaseTitle(a.Title))

		for _, b := range records[i+1:] {
			if grouped[b.ID] {
				continue
			}
			bNorm := NormalizeTitle(b.Title)
			bBase := strings.ToLower(BaseTitle(b.Title))

			sim := Similarity(aNorm, bNorm)
			if baseSim := Similarity(aBase, bBase); baseSim > sim {
				sim = baseSim
			}
			if sim >= threshold {
				members = append(members, b)
				grouped[b.ID] = true
			}
		}
		if len(members) > 1 {
			add(MethodFuzzy, members)
		}
	}

	// Layer 5: substring containment on base titles. A pair where one
	// side already belongs to a group folds the other side into that
	// group instead of opening a disjoint one; only pairs with both
	// sides grouped are skipped.
	for i, a := range records {
		aBase := strings.ToLower(strings.TrimSpace(BaseTitle(a.Title)))
		if aBase == "" {
			continue
		}

		for _, b := range records[i+1:] {
			if grouped[a.ID] && grouped[b.ID] {
				continue
			}
			bBase := strings.ToLower(strings.TrimSpace(BaseTitle(b.Title)))
			if bBase == "" || !substringMatch(aBase, bBase) {
				continue
			}
			switch {
			case grouped[a.ID]:
				join(groupOf[a.ID], b)
			case grouped[b.ID]:
				join(groupOf[b.ID], a)
			default:
				add(MethodSubstring, []Record{a, b})
			}
		}
	}

	groups := make([]Group, 0, len(memberSets))
	for i, members := range memberSets {
		groups = append(groups, buildGroup(methods[i], members))
	}
	return groups
}

// substringMatch reports whether one base title contains the other,
// with the length difference bounded and the shorter side long enough
// to carry meaning.
func substringMatch(a, b string) bool {
	if a == b {
		return true
	}
	if !strings.Contains(a, b) && !strings.Contains(b, a) {
		return false
	}
	diff := len(a) - len(b)
	if diff < 0 {
		diff = -diff
	}
	if diff >= 30 {
		return false
	}
	shorter := a
	if len(b) < len(a) {
		shorter = b
	}
	return len(shorter) >= 3
}

// bucket groups not-yet-grouped records by a derived key and returns
// the buckets with at least two members, in first-seen key order.
func bucket(records []Record, grouped map[string]bool, key func(Record) string) [][]Record {
	buckets := make(map[string][]Record)
	var order []string
	for _, r := range records {
		k := key(r)
		if k == "" {
			continue
		}
		if _, seen := buckets[k]; !seen {
			order = append(order, k)
		}
		buckets[k] = append(buckets[k], r)
	}

	var out [][]Record
	for _, k := range order {
		members := buckets[k]
		remaining := members[:0:0]
		for _, m := range members {
			if !grouped[m.ID] {
				remaining = append(remaining, m)
			}
		}
		if len(remaining) > 1 {
			out = append(out, remaining)
			for _, m := range remaining {
				grouped[m.ID] = true
			}
		}
	}
	return out
}

// completenessScore ranks group members: records carrying more
// metadata win the keep slot.
func completenessScore(r Record) int {
	score := 0
	if r.ISBN != "" {
		score += 10
	}
	if r.Description != "" {
		score += 5
	}
	if r.OpenLibraryKey != "" || r.GoogleBooksID != "" {
		score += 3
	}
	if r.HasLinkedBook {
		score += 2
	}
	if r.PublicationDate != "" {
		score += 1
	}
	return score
}

func buildGroup(method string, members []Record) Group {
	sorted := make([]Record, len(members))
	copy(sorted, members)
	sort.SliceStable(sorted, func(i, j int) bool {
		si, sj := completenessScore(sorted[i]), completenessScore(sorted[j])
		if si != sj {
			return si > sj
		}
		return sorted[i].ID < sorted[j].ID
	})

	keep := sorted[0]
	removals := make([]Removal, 0, len(sorted)-1)
	for _, r := range sorted[1:] {
		removals = append(removals, Removal{Record: r, Reasons: duplicateReasons(keep, r)})
	}

	return Group{
		Method:     method,
		Confidence: groupConfidence(method),
		Keep:       keep,
		Remove:     removals,
	}
}

func groupConfidence(method string) string {
	switch method {
	case MethodExact, MethodISBN:
		return ConfidenceHigh
	case MethodBase, MethodFuzzy:
		return ConfidenceMedium
	default:
		return ConfidenceLow
	}
}

var (
	possessiveRe   = regexp.MustCompile(`s'`)
	punctuationRe  = regexp.MustCompile(`[^\w\s]`)
	seriesMarkerRe = regexp.MustCompile(`(?i)\(series`)
	editionHintRe  = regexp.MustCompile(`(?i)\b(?:edition|ed\.)`)
	volumeHintRe   = regexp.MustCompile(`(?i)\b(?:volume|vol\.?)`)
)

// duplicateReasons explains why removed is a duplicate of keep,
// checking each pairwise signal independently.
func duplicateReasons(keep, removed Record) []string {
	var reasons []string

	keepNorm := NormalizeTitle(keep.Title)
	remNorm := NormalizeTitle(removed.Title)
	keepBase := BaseTitle(keep.Title)
	remBase := BaseTitle(removed.Title)

	if keepNorm == remNorm {
		reasons = append(reasons, "exact normalized match")
	}
	if strings.EqualFold(keepBase, remBase) {
		reasons = append(reasons, "base title match")
	}
	if keep.ISBN != "" && removed.ISBN != "" && NormalizeISBN(keep.ISBN) == NormalizeISBN(removed.ISBN) {
		reasons = append(reasons, "ISBN match")
	}
	if sim := Similarity(keepNorm, remNorm); sim >= DefaultSimilarityThreshold {
		reasons = append(reasons, fmt.Sprintf("fuzzy match (%.2f)", sim))
	}

	keepLower := strings.ToLower(keep.Title)
	remLower := strings.ToLower(removed.Title)

	keepNoApos := apostropheRe.ReplaceAllString(keepLower, "")
	remNoApos := apostropheRe.ReplaceAllString(remLower, "")
	keepNoPoss := possessiveRe.ReplaceAllString(keepNoApos, "s")
	remNoPoss := possessiveRe.ReplaceAllString(remNoApos, "s")
	if (keepNoApos == remNoApos || keepNoPoss == remNoPoss) && keep.Title != removed.Title {
		reasons = append(reasons, "apostrophe variation")
	}

	if punctuationRe.ReplaceAllString(keepLower, "") == punctuationRe.ReplaceAllString(remLower, "") &&
		keep.Title != removed.Title {
		reasons = append(reasons, "punctuation variation")
	}

	baseMatch := strings.EqualFold(keepBase, remBase)
	if baseMatch && (seriesMarkerRe.MatchString(keep.Title) || seriesMarkerRe.MatchString(removed.Title)) {
		reasons = append(reasons, "series variation")
	}
	if baseMatch && (editionHintRe.MatchString(keep.Title) || editionHintRe.MatchString(removed.Title)) {
		reasons = append(reasons, "edition variation")
	}
	if volumeHintRe.MatchString(keep.Title) || volumeHintRe.MatchString(removed.Title) {
		if stripVolume(keep.Title) == stripVolume(removed.Title) && keep.Title != removed.Title {
			reasons = append(reasons, "volume variation")
		}
	}

	return reasons
}

// stripVolume removes volume markers then fully normalizes, so
// "Collected Tales Vol. 2" and "Collected Tales Volume II" compare equal.
func stripVolume(title string) string {
	t := volumeRomanRe.ReplaceAllString(strings.ToLower(title), "")
	t = volumeWordRe.ReplaceAllString(t, "")
	t = volumeAbbrevRe.ReplaceAllString(t, "")
	return NormalizeTitle(t)
}
