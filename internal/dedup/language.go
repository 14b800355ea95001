package dedup

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// LanguageVerdict reports whether a title looks non-English and why.
type LanguageVerdict struct {
	NonEnglish bool
	Reasons    []string
}

// AccentConfig holds the thresholds for the accented-character
// heuristic. The defaults were tuned against one personal library and
// can misfire on short English titles with incidental accents.
type AccentConfig struct {
	// MaxRatio flags a title when accented/alpha exceeds it.
	MaxRatio float64
	// ShortTitleLen and ShortTitleMin flag short titles (rune count
	// below ShortTitleLen) carrying at least ShortTitleMin accents.
	ShortTitleLen int
	ShortTitleMin int
	// AbsoluteMin flags any title with this many accents regardless of
	// ratio.
	AbsoluteMin int
}

// DefaultAccentConfig returns the tuned thresholds.
func DefaultAccentConfig() AccentConfig {
	return AccentConfig{
		MaxRatio:      0.05,
		ShortTitleLen: 15,
		ShortTitleMin: 2,
		AbsoluteMin:   3,
	}
}

// languageNames is the disjunction of language names recognized in
// edition markers like "(French Edition)" or "Spanish translation".
const languageNames = `french|russian|spanish|german|italian|portuguese|chinese|japanese|korean|arabic|hebrew|` +
	`polish|dutch|swedish|norwegian|danish|finnish|greek|turkish|hindi|thai|vietnamese|` +
	`indonesian|malay|tagalog|romanian|hungarian|czech|slovak|croatian|serbian|bulgarian|` +
	`ukrainian|persian|urdu|bengali|tamil|telugu|marathi|gujarati|kannada|malayalam|` +
	`punjabi|nepali|sinhala|myanmar|khmer|lao|mongolian|georgian|armenian|azerbaijani|` +
	`kazakh|uzbek|turkmen|kyrgyz|tajik|afrikaans|swahili|zulu|xhosa|amharic|hausa|` +
	`yoruba|igbo|somali|maltese|icelandic|basque|catalan|galician|welsh|irish|scottish|` +
	`breton|cornish|manx`

var (
	nonEnglishScriptRe = regexp.MustCompile(`[\x{4e00}-\x{9fff}\x{3040}-\x{30ff}\x{0400}-\x{04ff}\x{0600}-\x{06ff}\x{0590}-\x{05ff}]`)

	hebrewTransliterationRes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\bsheloshah\b`),
		regexp.MustCompile(`(?i)\bshel\b`),
		regexp.MustCompile(`(?i)\bbe-`),
		regexp.MustCompile(`(?i)\bve-`),
	}

	languageParenRe      = regexp.MustCompile(`(?i)\([^)]*(?:` + languageNames + `)\s*(?:edition|version|translation)?[^)]*\)`)
	languageBracketRe    = regexp.MustCompile(`(?i)\[[^\]]*(?:` + languageNames + `)\s*(?:edition|version|translation)?[^\]]*\]`)
	languageStandaloneRe = regexp.MustCompile(`(?i)\b(?:` + languageNames + `)\s+(?:edition|version|translation)\b`)

	spanishIndicatorRe = regexp.MustCompile(`(?i)\b(?:edici[oó]n|colecci[oó]n|estuche|libro|libros|misterio|pr[ií]ncipe)\b`)
	spanishPunctRe     = regexp.MustCompile(`[¿¡]`)
	germanEszettRe     = regexp.MustCompile(`ß`)

	// Latin-extended characters carrying diacritics, lowercase and
	// uppercase spelled out separately: a case-insensitive class would
	// fold dotless i onto plain i and misfire on English titles.
	accentedCharRe = regexp.MustCompile(`[àáâãäåæçèéêëìíîïðñòóôõöøùúûüýþÿąćčđęěğłńňřśşšťůźżžÀÁÂÃÄÅÆÇÈÉÊËÌÍÎÏÐÑÒÓÔÕÖØÙÚÛÜÝÞŸĄĆČĐĘĚĞŁŃŇŘŚŞŠŤŮŹŻŽ]`)
)

// languageRule is one step of the classification chain. The first rule
// to report a reason decides the verdict.
type languageRule struct {
	name  string
	check func(title string, cfg AccentConfig) (string, bool)
}

var languageRules = []languageRule{
	{"script", checkScript},
	{"hebrew-transliteration", checkHebrewTransliteration},
	{"edition-marker", checkEditionMarker},
	{"spanish-words", checkSpanishWords},
	{"definite-punctuation", checkDefinitePunctuation},
	{"accent-ratio", checkAccentRatio},
}

// ClassifyLanguage decides whether a title is likely non-English,
// using the default accent thresholds.
func ClassifyLanguage(title string) LanguageVerdict {
	return ClassifyLanguageWith(title, DefaultAccentConfig())
}

// ClassifyLanguageWith runs the ordered rule chain with explicit
// accent thresholds. Rules are evaluated in order and the first match
// short-circuits; an empty title is English by convention.
func ClassifyLanguageWith(title string, cfg AccentConfig) LanguageVerdict {
	if title == "" {
		return LanguageVerdict{}
	}
	for _, rule := range languageRules {
		if reason, ok := rule.check(title, cfg); ok {
			return LanguageVerdict{NonEnglish: true, Reasons: []string{reason}}
		}
	}
	return LanguageVerdict{}
}

func checkScript(title string, _ AccentConfig) (string, bool) {
	if nonEnglishScriptRe.MatchString(title) {
		return "Non-English script detected (CJK/Cyrillic/Arabic/Hebrew)", true
	}
	return "", false
}

func checkHebrewTransliteration(title string, _ AccentConfig) (string, bool) {
	for _, re := range hebrewTransliterationRes {
		if re.MatchString(title) {
			return "Hebrew transliteration pattern detected", true
		}
	}
	return "", false
}

func checkEditionMarker(title string, _ AccentConfig) (string, bool) {
	if m := languageParenRe.FindString(title); m != "" {
		return fmt.Sprintf("Language edition in parentheses: '%s'", m), true
	}
	if m := languageBracketRe.FindString(title); m != "" {
		return fmt.Sprintf("Language edition in brackets: '%s'", m), true
	}
	if m := languageStandaloneRe.FindString(title); m != "" {
		return fmt.Sprintf("Standalone language edition: '%s'", m), true
	}
	return "", false
}

func checkSpanishWords(title string, _ AccentConfig) (string, bool) {
	// "house edition" titles are English despite matching "edición"-family
	// stems once normalized by upstream sources.
	if strings.Contains(strings.ToLower(title), "house edition") {
		return "", false
	}
	if m := spanishIndicatorRe.FindString(title); m != "" {
		return fmt.Sprintf("Spanish text indicator: '%s'", m), true
	}
	return "", false
}

func checkDefinitePunctuation(title string, _ AccentConfig) (string, bool) {
	if spanishPunctRe.MatchString(title) {
		return "Spanish punctuation (¿ or ¡)", true
	}
	if germanEszettRe.MatchString(title) {
		return "German ß character", true
	}
	return "", false
}

func checkAccentRatio(title string, cfg AccentConfig) (string, bool) {
	count := len(accentedCharRe.FindAllString(title, -1))
	if count == 0 {
		return "", false
	}

	alpha := 0
	for _, r := range title {
		if unicode.IsLetter(r) {
			alpha++
		}
	}
	if alpha == 0 {
		return "", false
	}

	ratio := float64(count) / float64(alpha)
	short := utf8.RuneCountInString(title) < cfg.ShortTitleLen && count >= cfg.ShortTitleMin
	if ratio > cfg.MaxRatio || short || count >= cfg.AbsoluteMin {
		return fmt.Sprintf("High accented character ratio (%d accented)", count), true
	}
	return "", false
}
