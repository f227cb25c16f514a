// Package language identifies the language of a question so the assistant
// can be told to answer in kind.
package language

import (
	"strings"
	"unicode"
)

// DefaultTag is the tag reported when detection finds no usable signal.
const DefaultTag = "fr"

// Detector maps text to a language tag, falling back to DefaultTag when
// the text carries no signal.
type Detector interface {
	Detect(text string) string
}

// Static always reports the same tag. Useful for tests and for
// deployments serving a single-language population.
type Static string

func (s Static) Detect(string) string { return string(s) }

// Heuristic classifies by script first (Arabic), then by stopword hits
// (French vs English), defaulting to DefaultTag. It is deliberately
// coarse: the consumer only uses the tag to phrase a reply-language
// directive.
type Heuristic struct{}

var (
	frenchStopwords  = wordSet("le", "la", "les", "des", "une", "est", "que", "qui", "pour", "dans", "mon", "mes", "avec", "droit", "congé", "salaire", "combien", "quels", "quelle")
	englishStopwords = wordSet("the", "is", "are", "what", "how", "my", "can", "with", "for", "and", "do", "does", "have", "rights", "salary", "leave")
)

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func (Heuristic) Detect(text string) string {
	if strings.TrimSpace(text) == "" {
		return DefaultTag
	}

	var arabic, letters int
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.Is(unicode.Arabic, r) {
				arabic++
			}
		}
	}
	if letters == 0 {
		return DefaultTag
	}
	if arabic*2 > letters {
		return "ar"
	}

	var french, english int
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, ".,;:!?'\"()")
		if _, ok := frenchStopwords[word]; ok {
			french++
		}
		if _, ok := englishStopwords[word]; ok {
			english++
		}
	}
	if english > french {
		return "en"
	}
	return DefaultTag
}

// Name returns a human-readable language name for a tag, used when
// phrasing the reply directive. Unknown tags are returned as-is.
func Name(tag string) string {
	switch tag {
	case "fr":
		return "French"
	case "ar":
		return "Arabic"
	case "en":
		return "English"
	}
	return tag
}
