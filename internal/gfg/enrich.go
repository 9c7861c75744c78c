package gfg

import (
	"regexp"
	"strings"

	"github.com/jonathan/interview-insights/internal/types"
)

// UnspecifiedRole stands in for titles that do not name a role.
const UnspecifiedRole = "Unspecified"

// RoundKeywords are the round kinds recognized in article text, in output order.
var RoundKeywords = []string{"Online Assessment", "Technical", "HR", "Managerial", "Coding", "Aptitude", "Telephonic"}

var (
	titleSplit   = "Interview Experience"
	rolePattern  = regexp.MustCompile(`(?i)for ([A-Za-z0-9()+\- ]+)`)
	diffPattern  = regexp.MustCompile(`easy|medium|moderate|hard|difficult|tough`)
	questionHint = regexp.MustCompile(`\bQ\d\b|question[:\-]|\?|solve|implement`)

	roundPatterns = func() []*regexp.Regexp {
		out := make([]*regexp.Regexp, len(RoundKeywords))
		for i, kw := range RoundKeywords {
			out[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(kw) + `\b`)
		}
		return out
	}()

	difficultyNames = map[string]string{
		"easy":      "Easy",
		"medium":    "Medium",
		"moderate":  "Medium",
		"hard":      "Hard",
		"difficult": "Hard",
		"tough":     "Hard",
	}

	// Lines that look like questions but only introduce them.
	excludedLines = map[string]bool{
		"questions":                 true,
		"questions included:":       true,
		"questions asked included:": true,
		"round 1:":                  true,
		"interview process":         true,
	}
)

// Metadata is what can be read off an article without the NLP pipeline.
type Metadata struct {
	Company       string
	Role          string
	Rounds        []string
	Difficulty    string
	QuestionCount int
	RawQuestions  []string
}

// ExtractMetadata derives company, role, rounds, difficulty and question
// hints from an article's title and content.
func ExtractMetadata(title, content string) Metadata {
	return Metadata{
		Company:       companyFromTitle(title),
		Role:          roleFromTitle(title),
		Rounds:        rounds(content),
		Difficulty:    difficulty(content),
		QuestionCount: len(questionHint.FindAllStringIndex(content, -1)),
		RawQuestions:  rawQuestions(content),
	}
}

// Enrich returns e with its metadata fields filled in.
func Enrich(e Entry) Entry {
	m := ExtractMetadata(e.Title, e.Content)
	e.Company = m.Company
	e.Role = m.Role
	e.Rounds = m.Rounds
	e.Difficulty = m.Difficulty
	e.QuestionCount = m.QuestionCount
	e.RawQuestions = m.RawQuestions
	if e.Source == "" {
		e.Source = Source
	}
	return e
}

// ToSubmission turns an enriched entry into a submission for the pipeline.
// A missing role becomes UnspecifiedRole; a missing company is left blank
// and fails validation.
func ToSubmission(e Entry) *types.RawSubmission {
	role := e.Role
	if strings.TrimSpace(role) == "" {
		role = UnspecifiedRole
	}
	return &types.RawSubmission{
		Company:    e.Company,
		Role:       role,
		Experience: e.Content,
		Difficulty: e.Difficulty,
		Tags:       append([]string(nil), e.Rounds...),
		Source:     Source,
	}
}

func companyFromTitle(title string) string {
	company, _, _ := strings.Cut(title, titleSplit)
	return strings.TrimSpace(company)
}

func roleFromTitle(title string) string {
	m := rolePattern.FindStringSubmatch(title)
	if m == nil {
		return ""
	}
	role := strings.TrimSpace(m[1])
	if strings.HasSuffix(strings.ToLower(role), "role") {
		role = strings.TrimSpace(role[:len(role)-len("role")])
	}
	return role
}

func rounds(content string) []string {
	found := []string{}
	for i, re := range roundPatterns {
		if re.MatchString(content) {
			found = append(found, RoundKeywords[i])
		}
	}
	return found
}

func difficulty(content string) string {
	m := diffPattern.FindString(strings.ToLower(content))
	return difficultyNames[m]
}

func rawQuestions(content string) []string {
	out := []string{}
	for _, line := range strings.Split(content, "\n") {
		if !strings.Contains(line, "?") && !strings.Contains(firstRunes(line, 5), "Q") {
			continue
		}
		trimmed := strings.TrimSpace(line)
		if excludedLines[strings.ToLower(trimmed)] {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}

func firstRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
