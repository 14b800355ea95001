package dedup

import (
	"regexp"
	"sort"
	"strings"
)

var (
	seriesSuffixRe  = regexp.MustCompile(`(?i)\s+(?:series|saga|trilogy|chronicles|cycle)$`)
	seriesArticleRe = regexp.MustCompile(`(?i)^(?:the|a|an)\s+`)
	seriesPunctRe   = regexp.MustCompile(`[^\w\s]`)
)

// NormalizeSeriesName reduces a series name to a comparison key:
// lowercase, leading article and generic suffix ("Series", "Trilogy")
// removed, all punctuation stripped, whitespace collapsed. "St. Clare's"
// and "St Clares" yield the same key.
func NormalizeSeriesName(name string) string {
	s := strings.TrimSpace(name)
	s = seriesSuffixRe.ReplaceAllString(s, "")
	s = seriesArticleRe.ReplaceAllString(s, "")
	s = seriesPunctRe.ReplaceAllString(s, "")
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// SeriesConsolidation proposes merging several spellings of one series
// under a canonical name.
type SeriesConsolidation struct {
	Canonical  string
	Variants   []string
	Records    []Record
	Positions  []int
	Confidence string
}

// ConsolidateSeries groups records whose series names normalize to the
// same key and proposes a canonical spelling for each group. Only keys
// with more than one distinct spelling produce a consolidation.
//
// Canonical preference: a variant containing "series" wins, then a
// variant starting with a capital letter, then the shortest. Confidence
// is high when the merged positions overlap or run contiguously, which
// indicates the variants really are one numbering scheme.
func ConsolidateSeries(records []Record) []SeriesConsolidation {
	type seriesGroup struct {
		variants []string
		records  []Record
	}

	groups := make(map[string]*seriesGroup)
	var keys []string
	for _, r := range records {
		if r.SeriesName == "" {
			continue
		}
		key := NormalizeSeriesName(r.SeriesName)
		if key == "" {
			continue
		}
		g, ok := groups[key]
		if !ok {
			g = &seriesGroup{}
			groups[key] = g
			keys = append(keys, key)
		}
		if !containsString(g.variants, r.SeriesName) {
			g.variants = append(g.variants, r.SeriesName)
		}
		g.records = append(g.records, r)
	}

	var out []SeriesConsolidation
	for _, key := range keys {
		g := groups[key]
		if len(g.variants) < 2 {
			continue
		}

		var positions []int
		for _, r := range g.records {
			if r.SeriesPosition > 0 {
				positions = append(positions, r.SeriesPosition)
			}
		}
		sort.Ints(positions)

		out = append(out, SeriesConsolidation{
			Canonical:  canonicalSeriesName(g.variants),
			Variants:   g.variants,
			Records:    g.records,
			Positions:  positions,
			Confidence: seriesConfidence(positions),
		})
	}
	return out
}

func canonicalSeriesName(variants []string) string {
	for _, v := range variants {
		if strings.Contains(strings.ToLower(v), "series") {
			return v
		}
	}
	for _, v := range variants {
		if v != "" && v[0] >= 'A' && v[0] <= 'Z' {
			return v
		}
	}
	best := variants[0]
	for _, v := range variants[1:] {
		if len(v) < len(best) {
			best = v
		}
	}
	return best
}

// seriesConfidence is high when the sorted positions contain a
// duplicate (two variants claiming the same slot) or the distinct
// positions form a fully contiguous run; medium otherwise, including
// when there are no positions to go on.
func seriesConfidence(positions []int) string {
	if len(positions) < 2 {
		return ConfidenceMedium
	}

	unique := make([]int, 0, len(positions))
	duplicate := false
	for i, p := range positions {
		if i > 0 && p == positions[i-1] {
			duplicate = true
			continue
		}
		unique = append(unique, p)
	}
	if duplicate {
		return ConfidenceHigh
	}

	for i := 1; i < len(unique); i++ {
		if unique[i] != unique[i-1]+1 {
			return ConfidenceMedium
		}
	}
	return ConfidenceHigh
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
