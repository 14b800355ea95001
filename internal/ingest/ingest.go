// Package ingest imports the Libby borrowing-history CSV export into
// the books table and seeds the author roster from it.
package ingest

import (
	"strings"
	"time"
)

// audiobookPublishers are imprints that only publish audio; a
// publisher containing one of these marks the loan as an audiobook.
var audiobookPublishers = []string{
	"books on tape",
	"tantor media",
	"simon & schuster audio",
	"hachette audio",
	"penguin audio",
	"harperaudio",
	"random house audio",
	"macmillan audio",
	"recorded books",
	"blackstone audio",
	"audible",
}

// CleanAuthorName reduces an export author cell to one display name:
// whitespace collapsed, only the first of a comma-separated list,
// "et al." dropped.
func CleanAuthorName(raw string) string {
	name := strings.Join(strings.Fields(raw), " ")
	if i := strings.Index(name, ","); i >= 0 {
		name = name[:i]
	}
	name = strings.TrimSpace(name)
	for _, suffix := range []string{"et al.", "et al", "Et Al.", "Et Al"} {
		name = strings.TrimSpace(strings.TrimSuffix(name, suffix))
	}
	return name
}

// NormalizeAuthorName is the lowercased matching key for a cleaned
// author name.
func NormalizeAuthorName(raw string) string {
	return strings.ToLower(CleanAuthorName(raw))
}

// DetectFormat classifies a loan by its publisher. Unknown publishers
// default to ebook since Libby only lends digital copies.
func DetectFormat(publisher string) string {
	p := strings.ToLower(strings.TrimSpace(publisher))
	if p == "" {
		return "unknown"
	}
	for _, ap := range audiobookPublishers {
		if strings.Contains(p, ap) {
			return "audiobook"
		}
	}
	return "ebook"
}

var borrowDateLayouts = []string{
	"January 2, 2006 15:04",
	"January 2, 2006",
}

// ParseBorrowDate parses the export's timestamp column, with and
// without the time of day.
func ParseBorrowDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range borrowDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
