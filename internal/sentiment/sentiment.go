// Package sentiment scores narrative polarity from a cue lexicon.
package sentiment

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/interview-insights/internal/terms"
	"github.com/jonathan/interview-insights/internal/types"
)

// clauseBreaks end the negation window.
const clauseBreaks = ".!?;,\n"

// Detail is a scored text before it is reduced to a label.
type Detail struct {
	Positive int
	Negative int
	Score    float64
	Result   types.SentimentResult
}

// Scorer counts positive and negative cues, honouring nearby negators.
type Scorer struct {
	tables   *terms.Tables
	lexicon  *terms.Matcher
	window   int
	negative float64
	positive float64
}

// New builds a Scorer from compiled term tables.
func New(tables *terms.Tables) *Scorer {
	neg, pos := tables.Thresholds()
	return &Scorer{
		tables:   tables,
		lexicon:  tables.Lexicon(),
		window:   tables.NegationWindow(),
		negative: neg,
		positive: pos,
	}
}

// Score labels text positive, negative or neutral.
func (s *Scorer) Score(text string) types.SentimentResult {
	return s.Detail(text).Result
}

// Detail returns the cue counts and normalized score alongside the result.
func (s *Scorer) Detail(text string) Detail {
	var d Detail
	for _, m := range s.lexicon.FindAll(text) {
		positive := m.Group == terms.GroupPositive
		if s.negated(text, m.Start) {
			positive = !positive
		}
		if positive {
			d.Positive++
		} else {
			d.Negative++
		}
	}

	total := d.Positive + d.Negative
	if total == 0 {
		d.Result = types.NeutralSentiment()
		return d
	}

	d.Score = float64(d.Positive-d.Negative) / float64(total)
	label := types.SentimentNeutral
	switch {
	case d.Score > s.positive:
		label = types.SentimentPositive
	case d.Score < s.negative:
		label = types.SentimentNegative
	}
	d.Result = types.SentimentResult{Label: label, Confidence: confidence(d.Score)}
	return d
}

func confidence(score float64) float64 {
	c := 0.5 + 0.5*math.Abs(score)
	c = math.Max(0, math.Min(1, c))
	return math.Round(c*100) / 100
}

func (s *Scorer) negated(text string, start int) bool {
	if s.window <= 0 {
		return false
	}
	for _, w := range precedingWords(text[:start], s.window) {
		if s.tables.IsNegator(w) {
			return true
		}
	}
	return false
}

// precedingWords returns up to n words before the end of prefix, nearest
// first, without crossing a clause break.
func precedingWords(prefix string, n int) []string {
	var words []string
	i := len(prefix)
	for len(words) < n && i > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:i])
		if !isWordish(r) {
			if strings.ContainsRune(clauseBreaks, r) {
				break
			}
			i -= size
			continue
		}
		end := i
		for i > 0 {
			r, size = utf8.DecodeLastRuneInString(prefix[:i])
			if !isWordish(r) {
				break
			}
			i -= size
		}
		words = append(words, prefix[i:end])
	}
	return words
}

func isWordish(r rune) bool {
	return terms.IsWordRune(r) || r == '\'' || r == '’'
}
