// Package highlights turns structured analysis into short summary bullets.
package highlights

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/jonathan/interview-insights/internal/terms"
	"github.com/jonathan/interview-insights/internal/types"
)

// Input is the structured analysis the rules inspect.
type Input struct {
	Sentiment types.SentimentResult
	Insights  types.Insights
	Questions types.CategorizedQuestions
	Rounds    int
	Verdict   string
}

// values are the fields a rule template can reference.
type values struct {
	Count  int
	Noun   string
	Value  string
	Values string
	First  string
	Label  string
}

type rule struct {
	terms.HighlightRule
	tmpl *template.Template
}

// Synthesizer runs the configured rule table in order.
type Synthesizer struct {
	rules    []rule
	fallback string
}

// New compiles the rule templates. Each template is executed once against
// sample values so a reference to an unknown field fails here, not per record.
func New(tables *terms.Tables) (*Synthesizer, error) {
	s := &Synthesizer{fallback: tables.DefaultHighlight()}
	sample := values{Count: 2, Noun: "questions", Value: "x", Values: "x, y", First: "x", Label: "x"}

	for i, r := range tables.HighlightRules() {
		tmpl, err := template.New(fmt.Sprintf("rule%d", i)).Option("missingkey=error").Parse(r.Template)
		if err != nil {
			return nil, fmt.Errorf("highlight rule %d: %w", i, err)
		}
		if err := tmpl.Execute(&strings.Builder{}, sample); err != nil {
			return nil, fmt.Errorf("highlight rule %d: %w", i, err)
		}
		s.rules = append(s.rules, rule{HighlightRule: r, tmpl: tmpl})
	}
	return s, nil
}

// Synthesize returns the highlights for in, or the default highlight alone
// when no rule fires.
func (s *Synthesizer) Synthesize(in Input) ([]string, error) {
	out := []string{}
	for _, r := range s.rules {
		v, ok := r.evaluate(in)
		if !ok {
			continue
		}
		var sb strings.Builder
		if err := r.tmpl.Execute(&sb, v); err != nil {
			return nil, fmt.Errorf("highlight %s rule: %w", r.Kind, err)
		}
		if text := strings.TrimSpace(sb.String()); text != "" {
			out = append(out, text)
		}
	}
	if len(out) == 0 {
		out = append(out, s.fallback)
	}
	return out, nil
}

func (r rule) evaluate(in Input) (values, bool) {
	switch r.Kind {
	case terms.RuleSentiment:
		if in.Sentiment.Label != r.Label {
			return values{}, false
		}
		return values{Label: r.Label, Value: r.Label}, true

	case terms.RuleVerdict:
		verdict := strings.TrimSpace(in.Verdict)
		if verdict == "" {
			return values{}, false
		}
		return values{Value: verdict}, true

	case terms.RuleInsight:
		found := in.Insights[r.Insight]
		if len(found) == 0 {
			return values{}, false
		}
		for _, kind := range r.Unless {
			if len(in.Insights[kind]) > 0 {
				return values{}, false
			}
		}
		shown := found
		if r.Limit > 0 && len(shown) > r.Limit {
			shown = shown[:r.Limit]
		}
		return values{
			Count:  len(found),
			Noun:   noun(len(found), "item"),
			First:  found[0],
			Value:  found[0],
			Values: strings.Join(shown, ", "),
		}, true

	case terms.RuleCategoryCount:
		n := len(in.Questions[r.Category])
		if n < max(1, r.Min) {
			return values{}, false
		}
		return values{Count: n, Noun: noun(n, "question"), Label: string(r.Category)}, true

	case terms.RuleRoundCount:
		if in.Rounds < max(1, r.Min) {
			return values{}, false
		}
		return values{Count: in.Rounds, Noun: noun(in.Rounds, "round")}, true
	}
	return values{}, false
}

func noun(n int, singular string) string {
	if n == 1 {
		return singular
	}
	return singular + "s"
}
