package questions

import (
	"github.com/jonathan/interview-insights/internal/terms"
	"github.com/jonathan/interview-insights/internal/types"
)

// Classifier assigns a question to the first category, in precedence order,
// whose keyword table matches it.
type Classifier struct {
	categories []terms.CategoryKeywords
}

func NewClassifier(tables *terms.Tables) *Classifier {
	return &Classifier{categories: tables.Categories()}
}

// Classify returns the category of question, or CategoryOther.
func (c *Classifier) Classify(question string) types.Category {
	for _, ck := range c.categories {
		if ck.Matcher.Contains(question) {
			return ck.Category
		}
	}
	return types.CategoryOther
}
