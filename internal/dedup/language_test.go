package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyLanguage(t *testing.T) {
	tests := []struct {
		name       string
		title      string
		nonEnglish bool
		reason     string
	}{
		{"plain english", "The Great Gatsby", false, ""},
		{"cjk script", "李白诗选", true, "Non-English script detected (CJK/Cyrillic/Arabic/Hebrew)"},
		{"cyrillic script", "Война и мир", true, "Non-English script detected (CJK/Cyrillic/Arabic/Hebrew)"},
		{"hebrew script", "שלושה ימים", true, "Non-English script detected (CJK/Cyrillic/Arabic/Hebrew)"},
		{"hebrew transliteration", "Sheloshah Yamim", true, "Hebrew transliteration pattern detected"},
		{"french edition paren", "Anne of Green Gables (French Edition)", true, "Language edition in parentheses: '(French Edition)'"},
		{"spanish edition bracket", "Don Quixote [Spanish Edition]", true, "Language edition in brackets: '[Spanish Edition]'"},
		{"standalone marker", "Der Prozess German Edition", true, "Standalone language edition: 'German Edition'"},
		{"spanish indicator word", "El misterio de la cripta embrujada", true, "Spanish text indicator: 'misterio'"},
		{"spanish libro", "El libro de la selva", true, "Spanish text indicator: 'libro'"},
		{"inverted question mark", "¿Dónde está el sol?", true, "Spanish punctuation (¿ or ¡)"},
		{"eszett", "Die Straße", true, "German ß character"},
		{"short title two accents", "Café Olé", true, "High accented character ratio (2 accented)"},
		{"single accent long title stays english", "The Extraordinary Life of Frida Kahlo in América Today", false, ""},
		{"empty title", "", false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := ClassifyLanguage(tt.title)
			assert.Equal(t, tt.nonEnglish, v.NonEnglish)
			if tt.reason == "" {
				assert.Empty(t, v.Reasons)
			} else {
				assert.Equal(t, []string{tt.reason}, v.Reasons)
			}
		})
	}
}

func TestClassifyLanguageAccentThresholds(t *testing.T) {
	// Three accents anywhere trip the absolute floor even in long titles.
	v := ClassifyLanguage("Lé pétit príncipe and the long tail of english words")
	assert.True(t, v.NonEnglish)

	// Ratio above the default 0.05 flags on its own.
	assert.True(t, ClassifyLanguage("Café Society").NonEnglish)
}

func TestClassifyLanguageWithConfig(t *testing.T) {
	cfg := DefaultAccentConfig()
	cfg.MaxRatio = 0.5
	cfg.ShortTitleMin = 3

	// Looser thresholds let an accent-light short title through.
	assert.False(t, ClassifyLanguageWith("Café", cfg).NonEnglish)
}
