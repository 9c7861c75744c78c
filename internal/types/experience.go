// Package types provides the data model shared by the extraction pipeline and its hosts.
package types

// Category is the kind of question asked in an interview.
type Category string

const (
	CategoryTechnical    Category = "technical"
	CategoryBehavioral   Category = "behavioral"
	CategorySystemDesign Category = "system_design"
	CategoryCoding       Category = "coding"
	CategoryOther        Category = "other"
)

// Categories lists every category in persisted key order.
var Categories = []Category{
	CategoryTechnical,
	CategoryBehavioral,
	CategorySystemDesign,
	CategoryCoding,
	CategoryOther,
}

// InsightKind names one group of extracted signals.
type InsightKind string

const (
	InsightTopics               InsightKind = "topics"
	InsightSkills               InsightKind = "skills"
	InsightTechnologies         InsightKind = "technologies"
	InsightDifficultyIndicators InsightKind = "difficulty_indicators"
	InsightPreparationTips      InsightKind = "preparation_tips"
	InsightRedFlags             InsightKind = "red_flags"
	InsightPositiveAspects      InsightKind = "positive_aspects"
)

// InsightKinds lists every insight kind.
var InsightKinds = []InsightKind{
	InsightTopics,
	InsightSkills,
	InsightTechnologies,
	InsightDifficultyIndicators,
	InsightPreparationTips,
	InsightRedFlags,
	InsightPositiveAspects,
}

// Sentiment labels.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// DefaultHighlight is emitted when nothing else is worth saying.
const DefaultHighlight = "Experience submitted successfully"

// GeneralRound labels text that does not belong to a detected round.
const GeneralRound = "General"

// Insights maps each insight kind to its ordered, deduplicated matches.
type Insights map[InsightKind][]string

// NewInsights returns Insights with every kind present and empty.
func NewInsights() Insights {
	in := make(Insights, len(InsightKinds))
	for _, kind := range InsightKinds {
		in[kind] = []string{}
	}
	return in
}

// SentimentResult is a polarity label with a confidence in [0,1].
type SentimentResult struct {
	Label      string  `json:"sentiment"`
	Confidence float64 `json:"confidence"`
}

// NeutralSentiment is the result used when no polarity can be established.
func NeutralSentiment() SentimentResult {
	return SentimentResult{Label: SentimentNeutral, Confidence: 0.5}
}

// RoundSegment is one detected interview round and the text that belongs to it.
type RoundSegment struct {
	Label   string `json:"label"`
	Ordinal int    `json:"ordinal"`
	Kind    string `json:"kind"`
	Text    string `json:"text"`
}

// ExtractedQuestion is a question found in a round.
type ExtractedQuestion struct {
	Text     string   `json:"text"`
	Round    string   `json:"round"`
	Category Category `json:"category"`
}

// CategorizedQuestions maps each category to question texts.
type CategorizedQuestions map[Category][]string

// NewCategorizedQuestions returns a map with every category present and empty.
func NewCategorizedQuestions() CategorizedQuestions {
	cq := make(CategorizedQuestions, len(Categories))
	for _, c := range Categories {
		cq[c] = []string{}
	}
	return cq
}

// ProcessedExperience is the persisted record.
type ProcessedExperience struct {
	ID                   string               `json:"id"`
	Company              string               `json:"company"`
	Role                 string               `json:"role"`
	Experience           string               `json:"experience"`
	Verdict              string               `json:"verdict"`
	Difficulty           string               `json:"difficulty"`
	Tags                 []string             `json:"tags"`
	Name                 string               `json:"name"`
	Email                string               `json:"email"`
	SubmittedAt          string               `json:"submitted_at"`
	NLPProcessed         bool                 `json:"nlp_processed"`
	SentimentAnalysis    SentimentResult      `json:"sentiment_analysis"`
	CategorizedQuestions CategorizedQuestions `json:"categorized_questions"`
	ExtractedInsights    Insights             `json:"extracted_insights"`
	InterviewRounds      []string             `json:"interview_rounds"`
	Highlights           []string             `json:"highlights"`
	FeedbackSentiment    string               `json:"feedback_sentiment"`
	RawQuestions         []string             `json:"raw_questions"`
	RoundwiseQuestions   map[string][]string  `json:"roundwise_questions"`
	Source               string               `json:"source"`
}

// NewRecord copies the caller-supplied fields of sub into a record whose
// analysis fields hold the neutral defaults.
func NewRecord(sub *RawSubmission, id, submittedAt string) ProcessedExperience {
	tags := make([]string, len(sub.Tags))
	copy(tags, sub.Tags)

	return ProcessedExperience{
		ID:                   id,
		Company:              sub.Company,
		Role:                 sub.Role,
		Experience:           sub.Experience,
		Verdict:              sub.Verdict,
		Difficulty:           sub.Difficulty,
		Tags:                 tags,
		Name:                 sub.Name,
		Email:                sub.Email,
		SubmittedAt:          submittedAt,
		NLPProcessed:         false,
		SentimentAnalysis:    NeutralSentiment(),
		CategorizedQuestions: NewCategorizedQuestions(),
		ExtractedInsights:    NewInsights(),
		InterviewRounds:      []string{},
		Highlights:           []string{DefaultHighlight},
		FeedbackSentiment:    SentimentNeutral,
		RawQuestions:         []string{},
		RoundwiseQuestions:   map[string][]string{},
		Source:               sub.SourceOrDefault(),
	}
}
