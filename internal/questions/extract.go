// Package questions finds interview questions in round text and sorts them
// into categories.
package questions

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/interview-insights/internal/terms"
)

// enumeration matches list and question numbering at the start of a line.
var enumeration = regexp.MustCompile(`(?i)^(?:[-*•·>]+\s*|\(?\d{1,3}[.)](?:\s+|$)|q\d{0,3}\s*[:.)\-]\s*)`)

// Extractor separates questions from narrative prose.
type Extractor struct {
	cues   *terms.Matcher
	minLen int
}

// NewExtractor builds an Extractor from compiled term tables.
func NewExtractor(tables *terms.Tables) *Extractor {
	return &Extractor{
		cues:   tables.QuestionCues(),
		minLen: tables.MinQuestionLength(),
	}
}

// Extract returns the questions in text, in order of first appearance.
func (e *Extractor) Extract(text string) []string {
	out := []string{}
	seen := make(map[string]bool)

	for _, line := range strings.Split(text, "\n") {
		line = stripEnumeration(line)
		for _, sentence := range SplitSentences(line) {
			sentence = stripEnumeration(sentence)
			if !e.isQuestion(sentence) || seen[sentence] {
				continue
			}
			seen[sentence] = true
			out = append(out, sentence)
		}
	}
	return out
}

func (e *Extractor) isQuestion(sentence string) bool {
	if sentence == "" {
		return false
	}
	if strings.HasSuffix(strings.TrimRight(sentence, `"')”’`), "?") {
		return strings.IndexFunc(sentence, isAlnum) >= 0
	}
	if utf8.RuneCountInString(sentence) < e.minLen {
		return false
	}
	_, ok := e.cues.MatchPrefix(sentence)
	return ok
}

// SplitSentences breaks a line after '.', '?' or '!' when followed by whitespace.
func SplitSentences(line string) []string {
	var out []string
	start := 0
	for i, r := range line {
		if r != '.' && r != '?' && r != '!' {
			continue
		}
		next := i + utf8.RuneLen(r)
		if next < len(line) {
			after, _ := utf8.DecodeRuneInString(line[next:])
			if !unicode.IsSpace(after) {
				continue
			}
		}
		if s := strings.TrimSpace(line[start:next]); s != "" {
			out = append(out, s)
		}
		start = next
	}
	if s := strings.TrimSpace(line[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func stripEnumeration(s string) string {
	s = strings.TrimSpace(s)
	for i := 0; i < 3; i++ {
		loc := enumeration.FindStringIndex(s)
		if loc == nil || loc[1] == 0 {
			break
		}
		s = strings.TrimSpace(s[loc[1]:])
	}
	return s
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
