package author

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("author not found")

// Author is a writer discovered from borrowing history. NormalizedName
// is the dedup key: lowercased, single author, honorifics stripped.
type Author struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	NormalizedName   string     `json:"normalized_name"`
	OpenLibraryKey   string     `json:"open_library_key,omitempty"`
	LastCatalogCheck *time.Time `json:"last_catalog_check,omitempty"`
	Hidden           bool       `json:"hidden"`
	HiddenAt         *time.Time `json:"hidden_at,omitempty"`
	BookCount        int        `json:"book_count"`
	CatalogCount     int        `json:"catalog_count"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Query filters author listings.
type Query struct {
	Q             string
	IncludeHidden bool
	Limit         int
	Offset        int
}
