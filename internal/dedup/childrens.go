package dedup

import (
	"fmt"
	"regexp"
	"strings"
)

var childrensTitleRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bjunior\s+fiction\b`),
	regexp.MustCompile(`(?i)\bchildren'?s\s+(?:book|fiction|novel|story)`),
	regexp.MustCompile(`(?i)\bkids\s+(?:book|fiction)`),
	regexp.MustCompile(`(?i)\byoung\s+adult\b`),
	regexp.MustCompile(`(?i)\bya\s+(?:book|fiction|novel)`),
	regexp.MustCompile(`(?i)\bmiddle\s+grade\b`),
	regexp.MustCompile(`(?i)\btween\s+(?:book|fiction)`),
}

var childrensSeriesRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(?:cul[-\s]?de[-\s]?sac\s+)?kids\b`),
	regexp.MustCompile(`(?i)\b(?:goosebumps|percy\s+jackson|diary\s+of\s+a\s+wimpy\s+kid)\b`),
}

var ageRangeRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ages?\s+\d+\s*[-–—]?\s*\d+`),
	regexp.MustCompile(`(?i)for\s+ages?\s+\d+`),
	regexp.MustCompile(`(?i)\d+\s*[-–—]\s*\d+\s+years?\s+old`),
	regexp.MustCompile(`(?i)grade\s+\d+`),
	regexp.MustCompile(`(?i)grades?\s+\d+\s*[-–—]\s*\d+`),
}

var childrensCategoryLabels = []string{
	"juvenile fiction",
	"juvenile literature",
	"children's fiction",
	"children's literature",
	"young adult fiction",
	"young adult literature",
	"middle grade",
	"picture book",
	"early reader",
	"chapter book",
}

var childrensDescriptionKeywords = []string{
	"for children",
	"for kids",
	"for young readers",
	"suitable for ages",
	"recommended for ages",
	"target audience: children",
	"target audience: kids",
}

var knownChildrensSeriesRes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bgoosebumps\b`),
	regexp.MustCompile(`(?i)\bharry potter\b`),
	regexp.MustCompile(`(?i)\bpercy jackson\b`),
	regexp.MustCompile(`(?i)\bdiary of a wimpy kid\b`),
}

var childrensContextWords = []string{"children", "kids", "young", "juvenile"}

// ChildrensVerdict reports whether an entry looks like a children's
// book and the first rule that decided it.
type ChildrensVerdict struct {
	Childrens bool
	Reason    string
}

// ClassifyChildrens runs an ordered rule chain: explicit markers in the
// title, children's series names (series field first, then title), age
// ranges anywhere in the combined title/categories/description text,
// category labels, audience phrases in the description, and finally
// known children's series backed by context words. The first rule that
// fires wins.
func ClassifyChildrens(r Record) ChildrensVerdict {
	title := strings.ToLower(r.Title)
	categories := strings.ToLower(r.Categories)
	description := strings.ToLower(r.Description)
	allText := title + " " + categories + " " + description

	for _, re := range childrensTitleRes {
		if m := re.FindString(title); m != "" {
			return ChildrensVerdict{true, fmt.Sprintf("children's indicator in title: '%s'", m)}
		}
	}

	for _, re := range childrensSeriesRes {
		if !re.MatchString(title) {
			continue
		}
		if m := re.FindString(strings.ToLower(r.SeriesName)); m != "" {
			return ChildrensVerdict{true, fmt.Sprintf("children's series name: '%s'", m)}
		}
		return ChildrensVerdict{true, fmt.Sprintf("children's series in title: '%s'", re.FindString(title))}
	}

	for _, re := range ageRangeRes {
		if m := re.FindString(allText); m != "" {
			return ChildrensVerdict{true, fmt.Sprintf("age range indicator: '%s'", m)}
		}
	}

	for _, label := range childrensCategoryLabels {
		if strings.Contains(categories, label) {
			return ChildrensVerdict{true, fmt.Sprintf("children's category: '%s'", label)}
		}
	}

	for _, kw := range childrensDescriptionKeywords {
		if strings.Contains(description, kw) {
			return ChildrensVerdict{true, fmt.Sprintf("children's keyword in description: '%s'", kw)}
		}
	}

	for _, re := range knownChildrensSeriesRes {
		if !re.MatchString(allText) {
			continue
		}
		for _, word := range childrensContextWords {
			if strings.Contains(allText, word) {
				return ChildrensVerdict{true, "known children's series with children's context"}
			}
		}
	}

	return ChildrensVerdict{}
}
