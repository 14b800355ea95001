package dedup

import (
	"fmt"
	"regexp"
	"strings"
)

// Component-match score tiers for matching a composite's parts against
// standalone siblings.
const (
	compositeExactScore     = 1.0
	compositeBaseScore      = 0.8
	compositeSubstringScore = 0.7
)

// Separators that split a composite title into component books. "&" is
// deliberately absent: it is a normal character in single titles
// ("Pride & Prejudice").
var compositeSeparators = []string{" / ", "/", " | ", "|"}

var compositeRangeRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)books?\s+\d+\s*[-–—]\s*\d+`),
	regexp.MustCompile(`(?i)volumes?\s+\d+\s*[-–—]\s*\d+`),
	regexp.MustCompile(`(?i)parts?\s+\d+\s*[-–—]\s*\d+`),
	regexp.MustCompile(`(?i)\d+\s*[-–—]\s*\d+\s+books?`),
	regexp.MustCompile(`(?i)box\s+\d+\s*[-–—]\s*\d+`),
	regexp.MustCompile(`(?i)boxed\s+set`),
	regexp.MustCompile(`(?i)collection\s*:?\s*books?\s+\d+\s*[-–—]\s*\d+`),
}

// ComponentMatch links one extracted component title to the standalone
// sibling it matched.
type ComponentMatch struct {
	ComponentTitle string
	Standalone     Record
	Score          float64
}

// CompositeMatch describes a detected composite volume and the
// standalone siblings its components map to. Matches may be empty for
// range/boxed-set titles whose component titles cannot be recovered.
type CompositeMatch struct {
	Entry           Record
	ComponentTitles []string
	Matches         []ComponentMatch
	Confidence      string
	Reason          string
}

// IsComposite reports whether a title packages several books in one
// record: separator-delimited titles, range patterns ("Books 1-5",
// "Boxed Set"), or a series-position-1 record whose title splits into
// multiple parts.
func IsComposite(r Record) bool {
	for _, re := range compositeRangeRes {
		if re.MatchString(r.Title) {
			return true
		}
	}
	for _, sep := range compositeSeparators {
		if strings.Contains(r.Title, sep) {
			return true
		}
	}
	return false
}

// SplitComposite extracts component titles by splitting on the first
// matching separator, dropping fragments of three characters or fewer.
// Range titles ("Books 1-5") yield nothing: the component titles are
// not recoverable from the packaging.
func SplitComposite(title string) []string {
	for _, sep := range compositeSeparators {
		if !strings.Contains(title, sep) {
			continue
		}
		var parts []string
		for _, p := range strings.Split(title, sep) {
			p = strings.TrimSpace(p)
			if len(p) > 3 {
				parts = append(parts, p)
			}
		}
		if len(parts) > 1 {
			return parts
		}
	}
	return nil
}

// DetectComposite checks whether entry is a composite volume and, if
// so, matches its components against the standalone siblings using the
// same normalization signals as duplicate grouping. The second return
// is false when the entry is not composite at all.
func DetectComposite(entry Record, siblings []Record) (CompositeMatch, bool) {
	if !IsComposite(entry) {
		return CompositeMatch{}, false
	}

	standalones := make([]Record, 0, len(siblings))
	for _, s := range siblings {
		if s.ID != entry.ID && !IsComposite(s) {
			standalones = append(standalones, s)
		}
	}

	components := SplitComposite(entry.Title)
	if len(components) == 0 {
		return CompositeMatch{
			Entry:      entry,
			Confidence: ConfidenceLow,
			Reason:     "composite volume (range/boxed set pattern)",
		}, true
	}

	var matches []ComponentMatch
	for _, component := range components {
		if best, score, ok := matchComponent(component, standalones); ok {
			matches = append(matches, ComponentMatch{
				ComponentTitle: component,
				Standalone:     best,
				Score:          score,
			})
		}
	}

	confidence := ConfidenceLow
	reason := "composite volume, no standalone components found"
	if len(matches) > 0 {
		confidence = ConfidenceMedium
		if len(matches) == len(components) {
			confidence = ConfidenceHigh
		}
		reason = fmt.Sprintf("found %d/%d component books as standalones", len(matches), len(components))
	}

	return CompositeMatch{
		Entry:           entry,
		ComponentTitles: components,
		Matches:         matches,
		Confidence:      confidence,
		Reason:          reason,
	}, true
}

// matchComponent finds the best standalone for one component title:
// exact normalized match wins outright, then base-title equality, then
// substring containment. Anything under the substring tier is no match.
func matchComponent(component string, standalones []Record) (Record, float64, bool) {
	compNorm := NormalizeTitle(component)
	compBase := BaseTitle(component)
	compLower := strings.ToLower(component)

	var best Record
	bestScore := 0.0

	for _, s := range standalones {
		if compNorm != "" && compNorm == NormalizeTitle(s.Title) {
			return s, compositeExactScore, true
		}
		if compBase != "" && strings.EqualFold(compBase, BaseTitle(s.Title)) && bestScore < compositeBaseScore {
			best, bestScore = s, compositeBaseScore
			continue
		}
		sLower := strings.ToLower(s.Title)
		if (strings.Contains(sLower, compLower) || strings.Contains(compLower, sLower)) && bestScore < compositeSubstringScore {
			best, bestScore = s, compositeSubstringScore
		}
	}

	if bestScore >= compositeSubstringScore {
		return best, bestScore, true
	}
	return Record{}, 0, false
}
