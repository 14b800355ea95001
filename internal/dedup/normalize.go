package dedup

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	seriesParenRe    = regexp.MustCompile(`(?i)\s*\([^)]*(?:series|book\s+\d+|#\d+)[^)]*\)`)
	editionParenRe   = regexp.MustCompile(`(?i)\s*\([^)]*(?:edition|version|translation|ed\.)[^)]*\)`)
	editionBracketRe = regexp.MustCompile(`(?i)\s*\[[^\]]*(?:edition|version|translation|ed\.)[^\]]*\]`)
	editionTokenRe   = regexp.MustCompile(`(?i)\b(?:edition\b|ed\.)`)
	volumeRomanRe    = regexp.MustCompile(`(?i)\b(?:volume|vol\.?)\s*(?:i{1,3}|iv|v{1,3}|vi{0,3}|[0-9]+)\b`)
	volumeWordRe     = regexp.MustCompile(`(?i)\bvolume\s+\d+\b`)
	volumeAbbrevRe   = regexp.MustCompile(`(?i)\bvol\.?\s*\d+\b`)
	splitMarkerRe    = regexp.MustCompile(`\s*\[\d+/\d+\]\s*`)
	leadingArticleRe = regexp.MustCompile(`(?i)^(?:the|a|an)\s+`)
	apostropheRe     = regexp.MustCompile("['’`]")

	trailingParenRe   = regexp.MustCompile(`\s*\([^)]+\)\s*$`)
	trailingBracketRe = regexp.MustCompile(`\s*\[[^\]]+\]\s*$`)

	firstParenRe     = regexp.MustCompile(`\(([^)]+)\)`)
	seriesNumberRe   = regexp.MustCompile(`(?i)(.+?)(?:\s+Book)?\s*#?\s*(\d+)`)
	trailingBookRe   = regexp.MustCompile(`(?i)\s+Book\s*$`)

	isbnSeparatorRe = regexp.MustCompile(`[-\s]`)
)

// NormalizeTitle canonicalizes a title for exact duplicate comparison:
// series/edition/volume markers stripped, split-edition markers stripped,
// a single leading article stripped, apostrophes removed, whitespace
// collapsed, lowercased. Idempotent; empty in, empty out.
func NormalizeTitle(title string) string {
	if title == "" {
		return ""
	}

	t := seriesParenRe.ReplaceAllString(title, "")
	t = editionParenRe.ReplaceAllString(t, "")
	t = editionBracketRe.ReplaceAllString(t, "")
	t = editionTokenRe.ReplaceAllString(t, "")

	t = volumeRomanRe.ReplaceAllString(t, "")
	t = volumeWordRe.ReplaceAllString(t, "")
	t = volumeAbbrevRe.ReplaceAllString(t, "")

	t = splitMarkerRe.ReplaceAllString(t, " ")

	// Whitespace must be collapsed before the article strip: a marker
	// removed above can leave a leading space that would hide the
	// article from the anchored pattern on a second pass.
	t = strings.Join(strings.Fields(t), " ")
	t = leadingArticleRe.ReplaceAllString(t, "")
	t = apostropheRe.ReplaceAllString(t, "")

	return strings.ToLower(strings.TrimSpace(t))
}

// BaseTitle strips a trailing parenthetical or bracketed annotation
// (assumed series info), series parentheticals anywhere, and
// volume/edition tokens, keeping the original casing. "Ruby (Red River
// Valley)" becomes "Ruby".
func BaseTitle(title string) string {
	if title == "" {
		return ""
	}

	b := trailingParenRe.ReplaceAllString(title, "")
	b = seriesParenRe.ReplaceAllString(b, "")

	b = volumeRomanRe.ReplaceAllString(b, "")
	b = volumeWordRe.ReplaceAllString(b, "")
	b = volumeAbbrevRe.ReplaceAllString(b, "")

	b = editionTokenRe.ReplaceAllString(b, "")
	b = trailingBracketRe.ReplaceAllString(b, "")
	b = apostropheRe.ReplaceAllString(b, "")

	return strings.TrimSpace(b)
}

// ExtractSeriesInfo parses series name and position from the first
// parenthetical span of a title, e.g. "What Comes My Way (Brookstone
// Brides Book #3)" yields ("Brookstone Brides", 3, true).
//
// Only the first parenthetical is inspected; titles carrying series
// info in a second parenthetical are not matched.
func ExtractSeriesInfo(title string) (string, int, bool) {
	if title == "" {
		return "", 0, false
	}

	paren := firstParenRe.FindStringSubmatch(title)
	if paren == nil {
		return "", 0, false
	}

	m := seriesNumberRe.FindStringSubmatch(paren[1])
	if m == nil {
		return "", 0, false
	}

	name := strings.TrimSpace(m[1])
	name = strings.TrimSpace(trailingBookRe.ReplaceAllString(name, ""))
	if len(name) <= 2 {
		return "", 0, false
	}

	pos, err := strconv.Atoi(m[2])
	if err != nil {
		return "", 0, false
	}
	return name, pos, true
}

// NormalizeISBN strips hyphens and spaces and uppercases the ISBN-10
// check digit.
func NormalizeISBN(isbn string) string {
	return strings.ToUpper(strings.TrimSpace(isbnSeparatorRe.ReplaceAllString(isbn, "")))
}
