package types

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// SourceUserSubmission tags records that came through the submission API.
const SourceUserSubmission = "User Submission"

// Verdicts accepted on a submission.
var Verdicts = []string{"Selected", "Rejected", "Shortlisted", "Pending", "Withdrawn", "Other"}

// Difficulties accepted on a submission.
var Difficulties = []string{"Easy", "Medium", "Hard", "Very Hard"}

// RawSubmission is an interview experience as handed in by a submitter.
// The pipeline treats it as read-only.
type RawSubmission struct {
	ID         string   `json:"id,omitempty"`
	Company    string   `json:"company" validate:"required,notblank"`
	Role       string   `json:"role" validate:"required,notblank"`
	Experience string   `json:"experience" validate:"required,notblank"`
	Verdict    string   `json:"verdict,omitempty" validate:"omitempty,oneof=Selected Rejected Shortlisted Pending Withdrawn Other"`
	Difficulty string   `json:"difficulty,omitempty" validate:"omitempty,difficulty"`
	Tags       []string `json:"tags,omitempty"`
	Name       string   `json:"name,omitempty"`
	Email      string   `json:"email,omitempty" validate:"omitempty,email"`
	Source     string   `json:"source,omitempty"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func submissionValidator() *validator.Validate {
	validateOnce.Do(func() {
		v, err := newSubmissionValidator()
		if err != nil {
			panic(fmt.Sprintf("failed to register submission rules: %v", err))
		}
		validate = v
	})
	return validate
}

// newSubmissionValidator builds a validator with the custom notblank and
// difficulty rules registered.
func newSubmissionValidator() (*validator.Validate, error) {
	v := validator.New()
	if err := v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		return nil, fmt.Errorf("notblank: %w", err)
	}
	if err := v.RegisterValidation("difficulty", func(fl validator.FieldLevel) bool {
		return contains(Difficulties, fl.Field().String())
	}); err != nil {
		return nil, fmt.Errorf("difficulty: %w", err)
	}
	return v, nil
}

// Validate checks required fields and enum values.
func (s *RawSubmission) Validate() error {
	return submissionValidator().Struct(s)
}

// SourceOrDefault returns the provenance tag for records built from s.
func (s *RawSubmission) SourceOrDefault() string {
	if strings.TrimSpace(s.Source) == "" {
		return SourceUserSubmission
	}
	return s.Source
}

// FieldErrors flattens a validation error into field -> message pairs,
// using the JSON field names. Other errors yield nil.
func FieldErrors(err error) map[string]string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := jsonName(fe.Field())
		switch fe.Tag() {
		case "required", "notblank":
			out[name] = name + " is required"
		case "oneof":
			out[name] = name + " must be one of: " + strings.Join(Verdicts, ", ")
		case "difficulty":
			out[name] = name + " must be one of: " + strings.Join(Difficulties, ", ")
		case "email":
			out[name] = name + " must be a valid email address"
		default:
			out[name] = name + " is invalid"
		}
	}
	return out
}

func jsonName(field string) string {
	return strings.ToLower(field)
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
