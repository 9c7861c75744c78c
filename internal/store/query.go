package store

import (
	"encoding/json"
	"strings"

	"github.com/jonathan/interview-insights/internal/types"
)

// All disables a filter field.
const All = "all"

// Query narrows a listing. Empty fields and "all" match everything.
// Company and Role match case-insensitive substrings; Difficulty and
// Sentiment match case-insensitively in full.
type Query struct {
	Company    string `json:"company,omitempty"`
	Role       string `json:"role,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
	Sentiment  string `json:"sentiment,omitempty"`
}

// Filter returns the records matching q, in their original order.
func Filter(records []types.ProcessedExperience, q Query) []types.ProcessedExperience {
	out := make([]types.ProcessedExperience, 0, len(records))
	for _, r := range records {
		if q.matches(r) {
			out = append(out, r)
		}
	}
	return out
}

func (q Query) matches(r types.ProcessedExperience) bool {
	return substring(r.Company, q.Company) &&
		substring(r.Role, q.Role) &&
		exact(r.Difficulty, q.Difficulty) &&
		exact(r.FeedbackSentiment, q.Sentiment)
}

func active(want string) bool {
	return want != "" && want != All
}

func substring(value, want string) bool {
	if !active(want) {
		return true
	}
	return value != "" && strings.Contains(strings.ToLower(value), strings.ToLower(want))
}

func exact(value, want string) bool {
	if !active(want) {
		return true
	}
	return value != "" && strings.EqualFold(value, want)
}

// SentimentCounts tallies records by feedback sentiment.
type SentimentCounts struct {
	Positive int `json:"positive"`
	Negative int `json:"negative"`
	Neutral  int `json:"neutral"`
}

// Stats summarizes the stored records.
type Stats struct {
	Total            int             `json:"total"`
	Companies        []string        `json:"companies"`
	Roles            []string        `json:"roles"`
	Difficulties     []string        `json:"difficulties"`
	Sentiments       []string        `json:"sentiments"`
	Verdicts         []string        `json:"verdicts"`
	AverageSentiment SentimentCounts `json:"average_sentiment"`
}

// MarshalBinary encodes s for caching.
func (s *Stats) MarshalBinary() ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalBinary decodes a cached Stats.
func (s *Stats) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, s)
}

// ComputeStats summarizes records. Distinct values keep first-seen order and
// skip empty strings; a missing sentiment counts as neutral.
func ComputeStats(records []types.ProcessedExperience) Stats {
	companies := newDistinct()
	roles := newDistinct()
	difficulties := newDistinct()
	sentiments := newDistinct()
	verdicts := newDistinct()

	var counts SentimentCounts
	for _, r := range records {
		companies.add(r.Company)
		roles.add(r.Role)
		difficulties.add(r.Difficulty)
		sentiments.add(r.FeedbackSentiment)
		verdicts.add(r.Verdict)

		switch r.FeedbackSentiment {
		case types.SentimentPositive:
			counts.Positive++
		case types.SentimentNegative:
			counts.Negative++
		default:
			counts.Neutral++
		}
	}

	return Stats{
		Total:            len(records),
		Companies:        companies.values,
		Roles:            roles.values,
		Difficulties:     difficulties.values,
		Sentiments:       sentiments.values,
		Verdicts:         verdicts.values,
		AverageSentiment: counts,
	}
}

type distinct struct {
	seen   map[string]bool
	values []string
}

func newDistinct() *distinct {
	return &distinct{seen: make(map[string]bool), values: []string{}}
}

func (d *distinct) add(v string) {
	if v == "" || d.seen[v] {
		return
	}
	d.seen[v] = true
	d.values = append(d.values, v)
}
