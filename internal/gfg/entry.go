// Package gfg scrapes interview experiences from GeeksforGeeks and derives
// metadata from their titles and text.
package gfg

import "github.com/jonathan/interview-insights/internal/types"

// Source tags entries and records that came from GeeksforGeeks.
const Source = "GeeksforGeeks"

// Entry is one scraped article. The metadata fields are empty until Enrich.
type Entry struct {
	Title         string   `json:"title"`
	URL           string   `json:"url"`
	Content       string   `json:"content"`
	Source        string   `json:"source"`
	Company       string   `json:"company"`
	Role          string   `json:"role"`
	Rounds        []string `json:"rounds"`
	Difficulty    string   `json:"difficulty"`
	QuestionCount int      `json:"question_count"`
	RawQuestions  []string `json:"raw_questions"`

	// Analysis is set when the entry was run through the pipeline.
	Analysis *types.ProcessedExperience `json:"analysis,omitempty"`
}

func newEntry(title, url, content string) Entry {
	return Entry{
		Title:        title,
		URL:          url,
		Content:      content,
		Source:       Source,
		Rounds:       []string{},
		RawQuestions: []string{},
	}
}
