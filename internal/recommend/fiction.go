package recommend

import "strings"

// nonFictionKeywords mark category labels that indicate non-fiction.
// Absent any of these a work is assumed to be fiction.
var nonFictionKeywords = []string{
	"biography",
	"autobiography",
	"memoir",
	"history",
	"self-help",
	"self help",
	"business",
	"economics",
	"politics",
	"science",
	"psychology",
	"philosophy",
	"religion",
	"spirituality",
	"health",
	"fitness",
	"cooking",
	"cookbook",
	"travel",
	"true crime",
	"essays",
	"journalism",
	"reference",
	"education",
	"parenting",
	"non-fiction",
	"nonfiction",
}

// IsFiction reports whether comma-separated category labels look like
// fiction. Empty categories default to fiction; "juvenile nonfiction"
// style labels flip it.
func IsFiction(categories string) bool {
	if categories == "" {
		return true
	}
	lower := strings.ToLower(categories)
	for _, kw := range nonFictionKeywords {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	return true
}
