// Package terms loads the keyword tables that drive segmentation, classification,
// insight extraction, sentiment scoring and highlights.
// Defaults are embedded at compile time; an external file can replace them.
// A loaded Tables value is validated, compiled and never mutated afterwards.
package terms

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sync"
	"text/template"

	"github.com/jonathan/interview-insights/internal/schemas"
	"github.com/jonathan/interview-insights/internal/types"
	schemafiles "github.com/jonathan/interview-insights/schemas"
)

//go:embed default_terms.json
var defaultTerms []byte

// EmbeddedPath names the built-in configuration in errors and logs.
const EmbeddedPath = "(embedded)"

// File is the on-disk shape of a term configuration.
type File struct {
	Version    int            `json:"version"`
	Segmenter  SegmenterFile  `json:"segmenter"`
	Questions  QuestionsFile  `json:"questions"`
	Classifier ClassifierFile `json:"classifier"`
	Insights   InsightsFile   `json:"insights"`
	Sentiment  SentimentFile  `json:"sentiment"`
	Highlights HighlightsFile `json:"highlights"`
}

type SegmenterFile struct {
	MaxHeaderLength int           `json:"max_header_length"`
	HeaderPatterns  []PatternFile `json:"header_patterns"`
}

type PatternFile struct {
	Name    string `json:"name"`
	Pattern string `json:"pattern"`
}

type QuestionsFile struct {
	MinLength int      `json:"min_length"`
	CueWords  []string `json:"cue_words"`
}

type ClassifierFile struct {
	Precedence []types.Category            `json:"precedence"`
	Keywords   map[types.Category][]string `json:"keywords"`
}

type InsightsFile struct {
	Terms           map[types.InsightKind][]string `json:"terms"`
	PreparationCues []string                       `json:"preparation_cues"`
	MaxTipLength    int                            `json:"max_tip_length"`
}

type SentimentFile struct {
	Positive          []string `json:"positive"`
	Negative          []string `json:"negative"`
	Negators          []string `json:"negators"`
	NegationWindow    int      `json:"negation_window"`
	PositiveThreshold float64  `json:"positive_threshold"`
	NegativeThreshold float64  `json:"negative_threshold"`
}

type HighlightsFile struct {
	Default string          `json:"default"`
	Rules   []HighlightRule `json:"rules"`
}

// RuleKind selects which structured field a highlight rule inspects.
type RuleKind string

const (
	RuleSentiment     RuleKind = "sentiment"
	RuleVerdict       RuleKind = "verdict"
	RuleInsight       RuleKind = "insight"
	RuleCategoryCount RuleKind = "category_count"
	RuleRoundCount    RuleKind = "round_count"
)

// HighlightRule emits Template when its condition holds.
type HighlightRule struct {
	Kind     RuleKind            `json:"kind"`
	Template string              `json:"template"`
	Label    string              `json:"label,omitempty"`
	Insight  types.InsightKind   `json:"insight,omitempty"`
	Category types.Category      `json:"category,omitempty"`
	Unless   []types.InsightKind `json:"unless,omitempty"`
	Limit    int                 `json:"limit,omitempty"`
	Min      int                 `json:"min,omitempty"`
}

// HeaderPattern is a compiled round header pattern.
type HeaderPattern struct {
	Name string
	Re   *regexp.Regexp
}

// CategoryKeywords pairs a category with its keyword matcher.
type CategoryKeywords struct {
	Category types.Category
	Matcher  *Matcher
}

// Sentiment lexicon groups.
const (
	GroupPositive = "positive"
	GroupNegative = "negative"
)

// Tables is a compiled, frozen term configuration.
type Tables struct {
	source string

	maxHeaderLength int
	headerPatterns  []HeaderPattern

	minQuestionLength int
	questionCues      *Matcher

	categories []CategoryKeywords

	insightMatchers map[types.InsightKind]*Matcher
	prepCues        *Matcher
	maxTipLength    int

	lexicon           *Matcher
	negators          map[string]bool
	negationWindow    int
	positiveThreshold float64
	negativeThreshold float64

	defaultHighlight string
	rules            []HighlightRule
}

var (
	defaultTables *Tables
	defaultErr    error
	defaultMu     sync.RWMutex
	defaultLoaded bool
)

// Default returns the embedded configuration, compiled once per process.
func Default() (*Tables, error) {
	defaultMu.RLock()
	if defaultLoaded {
		defer defaultMu.RUnlock()
		return defaultTables, defaultErr
	}
	defaultMu.RUnlock()

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if !defaultLoaded {
		defaultTables, defaultErr = Parse(EmbeddedPath, defaultTerms)
		defaultLoaded = true
	}
	return defaultTables, defaultErr
}

// MustDefault returns the embedded configuration, panicking if it does not compile.
// Use this where the built-in tables are required at initialization time.
func MustDefault() *Tables {
	tables, err := Default()
	if err != nil {
		panic(fmt.Sprintf("failed to load embedded terms: %v", err))
	}
	return tables
}

// ClearCache drops the compiled default configuration. Useful for testing.
func ClearCache() {
	defaultMu.Lock()
	defaultTables, defaultErr, defaultLoaded = nil, nil, false
	defaultMu.Unlock()
}

// DefaultJSON returns a copy of the embedded configuration document.
func DefaultJSON() []byte {
	out := make([]byte, len(defaultTerms))
	copy(out, defaultTerms)
	return out
}

// Load returns the configuration at path, or the embedded one when path is empty.
func Load(path string) (*Tables, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

// LoadFile reads, validates and compiles a configuration file.
func LoadFile(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Message: "failed to read file", Cause: err}
	}
	return Parse(path, data)
}

// Parse validates data against the term schema and compiles it.
func Parse(source string, data []byte) (*Tables, error) {
	if err := schemas.ValidateBytes(schemafiles.Terms, data); err != nil {
		return nil, &LoadError{Path: source, Message: "schema validation failed", Cause: err}
	}

	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, &LoadError{Path: source, Message: "failed to parse JSON", Cause: err}
	}

	tables, err := compile(&file)
	if err != nil {
		return nil, &LoadError{Path: source, Message: "failed to compile", Cause: err}
	}
	tables.source = source
	return tables, nil
}

func compile(f *File) (*Tables, error) {
	t := &Tables{
		maxHeaderLength:   f.Segmenter.MaxHeaderLength,
		minQuestionLength: f.Questions.MinLength,
		maxTipLength:      f.Insights.MaxTipLength,
		negationWindow:    f.Sentiment.NegationWindow,
		positiveThreshold: f.Sentiment.PositiveThreshold,
		negativeThreshold: f.Sentiment.NegativeThreshold,
		defaultHighlight:  f.Highlights.Default,
		insightMatchers:   make(map[types.InsightKind]*Matcher),
		negators:          make(map[string]bool),
	}

	for _, p := range f.Segmenter.HeaderPatterns {
		re, err := regexp.Compile(`(?i)^(?:` + p.Pattern + `)`)
		if err != nil {
			return nil, fmt.Errorf("header pattern %q: %w", p.Name, err)
		}
		t.headerPatterns = append(t.headerPatterns, HeaderPattern{Name: p.Name, Re: re})
	}

	cues := ParseTerms(f.Questions.CueWords, "cue")
	if len(cues) == 0 {
		return nil, fmt.Errorf("questions.cue_words is empty")
	}
	t.questionCues = NewMatcher(cues)

	for _, category := range f.Classifier.Precedence {
		keywords := ParseTerms(f.Classifier.Keywords[category], string(category))
		if len(keywords) == 0 {
			return nil, fmt.Errorf("classifier.keywords.%s is empty", category)
		}
		t.categories = append(t.categories, CategoryKeywords{Category: category, Matcher: NewMatcher(keywords)})
	}

	for kind, entries := range f.Insights.Terms {
		if kind == types.InsightPreparationTips {
			return nil, fmt.Errorf("insights.terms.%s is built from preparation_cues", kind)
		}
		t.insightMatchers[kind] = NewMatcher(ParseTerms(entries, string(kind)))
	}
	t.prepCues = NewMatcher(ParseTerms(f.Insights.PreparationCues, string(types.InsightPreparationTips)))

	t.lexicon = NewMatcher(
		ParseTerms(f.Sentiment.Positive, GroupPositive),
		ParseTerms(f.Sentiment.Negative, GroupNegative),
	)
	for _, n := range f.Sentiment.Negators {
		t.negators[Fold(n)] = true
	}
	if t.negativeThreshold > t.positiveThreshold {
		return nil, fmt.Errorf("sentiment.negative_threshold %.2f is above positive_threshold %.2f",
			t.negativeThreshold, t.positiveThreshold)
	}

	for i, rule := range f.Highlights.Rules {
		if err := checkRule(rule); err != nil {
			return nil, fmt.Errorf("highlights.rules[%d]: %w", i, err)
		}
		rule.Unless = append([]types.InsightKind(nil), rule.Unless...)
		t.rules = append(t.rules, rule)
	}

	return t, nil
}

func checkRule(rule HighlightRule) error {
	if _, err := template.New("rule").Option("missingkey=error").Parse(rule.Template); err != nil {
		return fmt.Errorf("template: %w", err)
	}
	switch rule.Kind {
	case RuleSentiment:
		if rule.Label == "" {
			return fmt.Errorf("sentiment rule needs a label")
		}
	case RuleInsight:
		if rule.Insight == "" {
			return fmt.Errorf("insight rule needs an insight kind")
		}
	case RuleCategoryCount:
		if rule.Category == "" {
			return fmt.Errorf("category_count rule needs a category")
		}
	case RuleVerdict, RuleRoundCount:
	default:
		return fmt.Errorf("unknown rule kind %q", rule.Kind)
	}
	return nil
}

// Source names where the tables were loaded from.
func (t *Tables) Source() string { return t.source }

// MaxHeaderLength is the longest line, in runes, that can be a round header.
func (t *Tables) MaxHeaderLength() int { return t.maxHeaderLength }

// HeaderPatterns returns the round header patterns in config order.
func (t *Tables) HeaderPatterns() []HeaderPattern {
	return append([]HeaderPattern(nil), t.headerPatterns...)
}

func (t *Tables) MinQuestionLength() int { return t.minQuestionLength }

func (t *Tables) QuestionCues() *Matcher { return t.questionCues }

// Categories returns keyword matchers in precedence order.
func (t *Tables) Categories() []CategoryKeywords {
	return append([]CategoryKeywords(nil), t.categories...)
}

// InsightMatcher returns the matcher for kind, or nil when none is configured.
func (t *Tables) InsightMatcher(kind types.InsightKind) *Matcher {
	return t.insightMatchers[kind]
}

func (t *Tables) PreparationCues() *Matcher { return t.prepCues }

func (t *Tables) MaxTipLength() int { return t.maxTipLength }

// Lexicon holds positive and negative sentiment cues, grouped by polarity.
func (t *Tables) Lexicon() *Matcher { return t.lexicon }

// IsNegator reports whether word flips the polarity of a following cue.
func (t *Tables) IsNegator(word string) bool { return t.negators[Fold(word)] }

func (t *Tables) NegationWindow() int { return t.negationWindow }

// Thresholds returns the negative and positive label cut-offs.
func (t *Tables) Thresholds() (negative, positive float64) {
	return t.negativeThreshold, t.positiveThreshold
}

func (t *Tables) DefaultHighlight() string { return t.defaultHighlight }

// HighlightRules returns the rules in priority order.
func (t *Tables) HighlightRules() []HighlightRule {
	out := make([]HighlightRule, len(t.rules))
	for i, rule := range t.rules {
		rule.Unless = append([]types.InsightKind(nil), rule.Unless...)
		out[i] = rule
	}
	return out
}
