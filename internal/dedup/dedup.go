// Package dedup implements the duplicate/variant detection engine for
// author catalogs: title normalization, fuzzy similarity, duplicate
// grouping, and rule-based language, composite-volume, series and
// children's-book classification.
//
// Everything in this package is a pure function over caller-supplied
// records. The package never touches the database or the network;
// callers load one author's catalog, run the engine, and apply the
// returned decisions themselves.
package dedup

// Record is the catalog entry view the engine operates on. Callers map
// their persisted rows into Records before invoking the engine; titles
// are assumed non-empty (filtered upstream).
type Record struct {
	ID              string
	Title           string
	ISBN            string
	SeriesName      string
	SeriesPosition  int // 0 means unknown
	OpenLibraryKey  string
	GoogleBooksID   string
	Description     string
	Categories      string // comma-separated genre labels
	PublicationDate string
	HasLinkedBook   bool
	IsRead          bool
}
