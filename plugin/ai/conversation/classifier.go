// Package conversation implements the confirm-before-execute loop that sits
// between the interpreter and the action executor.
package conversation

import (
	"strings"
	"unicode"
)

// Confirmation is the reading of a yes/no answer.
type Confirmation int

const (
	Ambiguous Confirmation = iota
	Affirmative
	Negative
)

func (c Confirmation) String() string {
	switch c {
	case Affirmative:
		return "affirmative"
	case Negative:
		return "negative"
	default:
		return "ambiguous"
	}
}

var affirmativeWords = map[string]struct{}{
	"yes": {}, "yeah": {}, "yep": {}, "yup": {}, "y": {},
	"correct": {}, "right": {}, "sure": {}, "ok": {}, "okay": {},
	"confirm": {}, "confirmed": {}, "absolutely": {}, "definitely": {},
}

var negativeWords = map[string]struct{}{
	"no": {}, "nope": {}, "nah": {},
	"wrong": {}, "incorrect": {}, "cancel": {},
}

var affirmativePhrases = []string{"sounds good", "go ahead", "do it", "looks good", "that's it"}

var negativePhrases = []string{"never mind", "nevermind", "not now", "forget it", "not right", "not correct", "don't do it", "don't save"}

// ClassifyConfirmation reads a reply to a confirmation prompt. Matching is
// on whole words, so "incorrect" never counts as "correct". When both sets
// match, the answer is negative.
func ClassifyConfirmation(text string) Confirmation {
	words := tokenize(text)
	if len(words) == 0 {
		return Ambiguous
	}
	joined := " " + strings.Join(words, " ") + " "

	negative := containsWord(words, negativeWords) || containsPhrase(joined, negativePhrases)
	if negative {
		return Negative
	}
	if containsWord(words, affirmativeWords) || containsPhrase(joined, affirmativePhrases) {
		return Affirmative
	}
	return Ambiguous
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

func containsWord(words []string, set map[string]struct{}) bool {
	for _, w := range words {
		if _, ok := set[strings.Trim(w, "'")]; ok {
			return true
		}
		if _, ok := set[w]; ok {
			return true
		}
	}
	return false
}

func containsPhrase(joined string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(joined, " "+p+" ") {
			return true
		}
	}
	return false
}
