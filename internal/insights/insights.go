// Package insights pulls skills, technologies, difficulty signals, tips,
// red flags and positive aspects out of a full narrative.
package insights

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/interview-insights/internal/terms"
	"github.com/jonathan/interview-insights/internal/types"
)

// Extractor matches the configured insight term lists against text.
type Extractor struct {
	matchers map[types.InsightKind]*terms.Matcher
	prepCues *terms.Matcher
	maxTip   int
}

// New builds an Extractor from compiled term tables.
func New(tables *terms.Tables) *Extractor {
	e := &Extractor{
		matchers: make(map[types.InsightKind]*terms.Matcher),
		prepCues: tables.PreparationCues(),
		maxTip:   tables.MaxTipLength(),
	}
	for _, kind := range types.InsightKinds {
		if m := tables.InsightMatcher(kind); m != nil {
			e.matchers[kind] = m
		}
	}
	return e
}

// Extract returns every insight kind, each in order of first occurrence.
func (e *Extractor) Extract(text string) types.Insights {
	out := types.NewInsights()
	for kind, m := range e.matchers {
		out[kind] = terms.Canonicals(m.FindAll(text))
	}
	out[types.InsightPreparationTips] = e.tips(text)
	return out
}

// tips captures each preparation cue through the end of its sentence,
// keeping the writer's casing.
func (e *Extractor) tips(text string) []string {
	out := []string{}
	seen := make(map[string]bool)
	covered := 0

	for _, m := range e.prepCues.FindAll(text) {
		// A cue inside an already captured tip adds nothing.
		if m.Start < covered {
			continue
		}
		end := sentenceEnd(text, m.End)
		covered = end
		tip := text[m.Start:end]
		tip = strings.TrimRightFunc(tip, func(r rune) bool {
			return unicode.IsSpace(r) || strings.ContainsRune(".!?;,", r)
		})
		tip = truncate(tip, e.maxTip)
		if tip == "" {
			continue
		}
		key := strings.ToLower(tip)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, tip)
	}
	return out
}

// sentenceEnd returns the offset of the first sentence terminator at or after from.
func sentenceEnd(text string, from int) int {
	for i := from; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		switch r {
		case '\n':
			return i
		case '.', '!', '?':
			next := i + size
			if next >= len(text) {
				return i
			}
			after, _ := utf8.DecodeRuneInString(text[next:])
			if unicode.IsSpace(after) {
				return i
			}
		}
		i += size
	}
	return len(text)
}

func truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return strings.TrimRightFunc(string(runes[:max]), unicode.IsSpace)
}
