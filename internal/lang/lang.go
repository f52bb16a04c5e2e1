package lang

import "unicode"

type Language string

const (
	Arabic  Language = "arabic"
	English Language = "english"
)

// Detect classifies a question as Arabic or English. A single rune from the
// Arabic script block is enough to classify the whole string as Arabic.
func Detect(text string) Language {
	for _, r := range text {
		if unicode.Is(unicode.Arabic, r) {
			return Arabic
		}
	}
	return English
}
