// Package segment splits an interview narrative into rounds.
package segment

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/interview-insights/internal/terms"
	"github.com/jonathan/interview-insights/internal/types"
)

// ErrMalformedText is returned for text that cannot be segmented.
var ErrMalformedText = errors.New("malformed text")

// KindGeneral marks a segment that was not introduced by a header.
const KindGeneral = "general"

const (
	// listMarkers are stripped from the start of a line before header matching.
	listMarkers = "-*#•>"
	// separators split a header from the text that follows it on the line.
	separators = ":-\u2013\u2014|"
	headTrim   = " \t:-\u2013\u2014|(*_"

	maxDescriptorWords = 3
)

var sentenceBreak = regexp.MustCompile(`[.?!]\s+`)

// Segmenter detects round headers line by line.
type Segmenter struct {
	patterns []terms.HeaderPattern
	maxLen   int
	cues     *terms.Matcher
}

// New builds a Segmenter from compiled term tables.
func New(tables *terms.Tables) *Segmenter {
	return &Segmenter{
		patterns: tables.HeaderPatterns(),
		maxLen:   tables.MaxHeaderLength(),
		cues:     tables.QuestionCues(),
	}
}

// Segment returns the rounds of text in order. Text without any header
// becomes a single General segment; blank text yields no segments.
func (s *Segmenter) Segment(text string) ([]types.RoundSegment, error) {
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("%w: invalid UTF-8", ErrMalformedText)
	}
	if strings.TrimSpace(text) == "" {
		return []types.RoundSegment{}, nil
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	lines := strings.Split(text, "\n")

	var (
		segments []types.RoundSegment
		body     []string
		label    = types.GeneralRound
		kind     = KindGeneral
		used     = make(map[string]bool)
	)

	flush := func(keepEmpty bool) {
		content := strings.TrimSpace(strings.Join(body, "\n"))
		body = body[:0]
		if content == "" && !keepEmpty {
			return
		}
		unique := label
		for n := 2; used[unique]; n++ {
			unique = fmt.Sprintf("%s (%d)", label, n)
		}
		used[unique] = true
		segments = append(segments, types.RoundSegment{
			Label:   unique,
			Ordinal: len(segments),
			Kind:    kind,
			Text:    content,
		})
	}

	// The General preamble is only kept when it has content; a header
	// always opens a segment, even an empty one. Headers are recognized at
	// the start of any sentence, so one line can open several rounds.
	inHeader := false
	for _, line := range lines {
		from := 0
		for _, start := range sentenceStarts(line) {
			hdr, name, rest, ok := s.header(line[start:sentenceEnd(line, start)])
			if !ok {
				continue
			}
			if pending := strings.TrimSpace(line[from:start]); pending != "" {
				body = append(body, pending)
			}
			flush(inHeader)
			label, kind, inHeader = hdr, name, true
			if rest != "" {
				body = append(body, rest)
			}
			from = sentenceEnd(line, start)
		}
		if from == 0 {
			body = append(body, line)
		} else if tail := strings.TrimSpace(line[from:]); tail != "" {
			body = append(body, tail)
		}
	}
	flush(inHeader)

	return segments, nil
}

// sentenceStarts returns the byte offsets where sentences begin in line:
// the start of the line and every position after ".", "?" or "!" plus
// whitespace.
func sentenceStarts(line string) []int {
	starts := []int{0}
	for _, loc := range sentenceBreak.FindAllStringIndex(line, -1) {
		if loc[1] < len(line) {
			starts = append(starts, loc[1])
		}
	}
	return starts
}

// sentenceEnd returns the end of the sentence that begins at start.
func sentenceEnd(line string, start int) int {
	if loc := sentenceBreak.FindStringIndex(line[start:]); loc != nil {
		return start + loc[0] + 1
	}
	return len(line)
}

// header reports whether sentence opens a round. The label is the matched
// header plus an optional short stage descriptor ("Round 1: Technical",
// "HR (2)"); anything else on the sentence is returned as rest and belongs
// to the new round's body.
func (s *Segmenter) header(sentence string) (label, kind, rest string, ok bool) {
	candidate := strings.TrimSpace(sentence)
	candidate = strings.TrimLeft(candidate, listMarkers+" \t")
	candidate = strings.TrimRight(candidate, "*# \t")
	if candidate == "" {
		return "", "", "", false
	}

	best := 0
	for _, p := range s.patterns {
		loc := p.Re.FindStringIndex(candidate)
		if loc == nil || loc[1] <= best {
			continue
		}
		best = loc[1]
		kind = p.Name
	}
	if best == 0 {
		return "", "", "", false
	}

	head := strings.TrimRight(candidate[:best], headTrim)
	if head == "" {
		return "", "", "", false
	}
	remainder := strings.TrimLeft(candidate[len(head):], " \t*_")

	sep := ""
	if r, size := utf8.DecodeRuneInString(remainder); size > 0 && strings.ContainsRune(separators, r) {
		sep = string(r)
		remainder = strings.TrimLeft(remainder[size:], " \t*_")
	}
	remainder = strings.TrimSpace(strings.TrimRight(remainder, "*_ \t"))

	switch {
	case remainder == "":
		label = head
	case s.isDescriptor(remainder):
		label = joinLabel(head, sep, remainder)
	case sep != "":
		// "Round 2: What is a deadlock?" opens round 2 with the question as its body.
		label, rest = head, remainder
	default:
		// Prose such as "Round 1 was hard." opens a round and stays in its
		// body; a bare question about rounds is not a header.
		if strings.HasSuffix(candidate, "?") || utf8.RuneCountInString(candidate) > s.maxLen {
			return "", "", "", false
		}
		label, rest = head, candidate
	}

	if utf8.RuneCountInString(label) > s.maxLen {
		return "", "", "", false
	}
	return label, kind, rest, true
}

// isDescriptor reports whether text is a short stage name that belongs in
// the label rather than the body. Text that reads like a question
// ("Reverse a linked list") is never a descriptor.
func (s *Segmenter) isDescriptor(text string) bool {
	if strings.ContainsAny(text[len(text)-1:], ".?!,;") {
		return false
	}
	if len(strings.Fields(text)) > maxDescriptorWords {
		return false
	}
	_, cue := s.cues.MatchPrefix(text)
	return !cue
}

func joinLabel(head, sep, descriptor string) string {
	switch sep {
	case "":
		return head + " " + descriptor
	case ":":
		return head + ": " + descriptor
	default:
		return head + " " + sep + " " + descriptor
	}
}
