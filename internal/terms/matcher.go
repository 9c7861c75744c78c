package terms

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Term is one configured phrase and the spellings that count as it.
// Config entries use "canonical|variant|variant".
type Term struct {
	Canonical string
	Group     string
	variants  []string
}

// Match is one accepted occurrence of a term in a text.
// Start and End are byte offsets into the searched text.
type Match struct {
	Term  string
	Group string
	Start int
	End   int
}

// Matcher finds case-insensitive, word-bounded phrase matches.
// It is immutable after construction and safe for concurrent use.
type Matcher struct {
	terms []Term
}

// ParseTerms turns config entries into Terms tagged with group.
func ParseTerms(entries []string, group string) []Term {
	out := make([]Term, 0, len(entries))
	for _, entry := range entries {
		parts := strings.Split(entry, "|")
		term := Term{Canonical: strings.TrimSpace(parts[0]), Group: group}
		seen := make(map[string]bool, len(parts))
		for _, p := range parts {
			v := Fold(strings.TrimSpace(p))
			if v == "" || seen[v] {
				continue
			}
			seen[v] = true
			term.variants = append(term.variants, v)
		}
		if term.Canonical == "" || len(term.variants) == 0 {
			continue
		}
		out = append(out, term)
	}
	return out
}

// NewMatcher builds a matcher over terms.
func NewMatcher(terms ...[]Term) *Matcher {
	m := &Matcher{}
	for _, group := range terms {
		m.terms = append(m.terms, group...)
	}
	return m
}

// Len returns the number of terms.
func (m *Matcher) Len() int {
	return len(m.terms)
}

// FindAll returns matches ordered by position. A match that lies inside a
// longer accepted match is dropped, so "hard" does not also fire inside
// "very hard".
func (m *Matcher) FindAll(text string) []Match {
	if m == nil || len(m.terms) == 0 || text == "" {
		return nil
	}
	folded := Fold(text)

	var candidates []Match
	for _, term := range m.terms {
		for _, v := range term.variants {
			for _, start := range occurrences(folded, v) {
				candidates = append(candidates, Match{
					Term:  term.Canonical,
					Group: term.Group,
					Start: start,
					End:   start + len(v),
				})
			}
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	return suppressContained(candidates)
}

// Contains reports whether any term occurs in text.
func (m *Matcher) Contains(text string) bool {
	if m == nil || text == "" {
		return false
	}
	folded := Fold(text)
	for _, term := range m.terms {
		for _, v := range term.variants {
			if len(occurrences(folded, v)) > 0 {
				return true
			}
		}
	}
	return false
}

// MatchPrefix returns the longest term that starts text.
func (m *Matcher) MatchPrefix(text string) (Match, bool) {
	if m == nil || text == "" {
		return Match{}, false
	}
	folded := Fold(text)

	var best Match
	found := false
	for _, term := range m.terms {
		for _, v := range term.variants {
			if !strings.HasPrefix(folded, v) || !bounded(folded, 0, len(v)) {
				continue
			}
			if !found || len(v) > best.End {
				best = Match{Term: term.Canonical, Group: term.Group, Start: 0, End: len(v)}
				found = true
			}
		}
	}
	return best, found
}

// Canonicals returns the de-duplicated canonical names of matches, in order.
func Canonicals(matches []Match) []string {
	out := make([]string, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, match := range matches {
		key := strings.ToLower(match.Term)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, match.Term)
	}
	return out
}

func suppressContained(candidates []Match) []Match {
	sort.SliceStable(candidates, func(i, j int) bool {
		li := candidates[i].End - candidates[i].Start
		lj := candidates[j].End - candidates[j].Start
		if li != lj {
			return li > lj
		}
		return candidates[i].Start < candidates[j].Start
	})

	accepted := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		contained := false
		for _, a := range accepted {
			if c.Start >= a.Start && c.End <= a.End {
				contained = true
				break
			}
		}
		if !contained {
			accepted = append(accepted, c)
		}
	}

	sort.SliceStable(accepted, func(i, j int) bool {
		return accepted[i].Start < accepted[j].Start
	})
	return accepted
}

// occurrences returns the word-bounded start offsets of needle in haystack.
func occurrences(haystack, needle string) []int {
	var starts []int
	offset := 0
	for offset <= len(haystack)-len(needle) {
		idx := strings.Index(haystack[offset:], needle)
		if idx < 0 {
			break
		}
		start := offset + idx
		if bounded(haystack, start, start+len(needle)) {
			starts = append(starts, start)
		}
		_, size := utf8.DecodeRuneInString(haystack[start:])
		offset = start + size
	}
	return starts
}

// bounded checks that a match does not continue a word on either side.
// Edges of the needle that are punctuation (c++, .net) need no boundary.
func bounded(s string, start, end int) bool {
	first, _ := utf8.DecodeRuneInString(s[start:])
	if IsWordRune(first) && start > 0 {
		before, _ := utf8.DecodeLastRuneInString(s[:start])
		if IsWordRune(before) {
			return false
		}
	}
	last, _ := utf8.DecodeLastRuneInString(s[:end])
	if IsWordRune(last) && end < len(s) {
		after, _ := utf8.DecodeRuneInString(s[end:])
		if IsWordRune(after) {
			return false
		}
	}
	return true
}

// IsWordRune reports whether r can be part of a word.
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

// Fold lowercases s without changing its byte length, so offsets found in
// the folded text index the original.
func Fold(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			sb.WriteByte(s[i])
			i++
			continue
		}
		l := unicode.ToLower(r)
		if utf8.RuneLen(l) != size {
			l = r
		}
		sb.WriteRune(l)
		i += size
	}
	return sb.String()
}
