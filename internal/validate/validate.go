// Package validate checks extracted records for structural and semantic
// problems and produces a per-field confidence breakdown. A record is
// valid exactly when it carries zero error-severity findings; warnings
// never block a job.
package validate

import (
	"fmt"
	"log/slog"

	"github.com/talahq/docintake/constants"
	"github.com/talahq/docintake/internal/common"
	"github.com/talahq/docintake/internal/fields"
)

type Result struct {
	IsValid         bool               `json:"is_valid"`
	Errors          []string           `json:"errors,omitempty"`
	Warnings        []string           `json:"warnings,omitempty"`
	FieldConfidence map[string]float32 `json:"field_confidence,omitempty"`
	Normalized      *fields.Record     `json:"normalized,omitempty"`
}

func (r *Result) addError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Result) addWarning(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validator normalizes and validates extraction records per document type.
type Validator struct {
	countryCode string
	logger      *slog.Logger
}

func NewValidator(defaultCountryCode string, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{countryCode: defaultCountryCode, logger: logger}
}

// Validate dispatches on the record's document type. The returned result
// holds a normalized copy of the record; the input is not mutated.
func (v *Validator) Validate(rec fields.Record) (*Result, error) {
	res := &Result{FieldConfidence: map[string]float32{}}

	switch rec.Type {
	case constants.TypeCV:
		if rec.CV == nil {
			return nil, fmt.Errorf("%w: cv record missing payload", common.ErrValidation)
		}
		cv := *rec.CV
		cv.Skills = append([]string(nil), cv.Skills...)
		cv.Languages = append([]string(nil), cv.Languages...)
		cv.Experience = append([]fields.ExperienceEntry(nil), cv.Experience...)
		cv.Education = append([]fields.EducationEntry(nil), cv.Education...)
		rec.CV = &cv
		v.validateCV(&cv, res)
	case constants.TypeAssessment:
		if rec.Assessment == nil {
			return nil, fmt.Errorf("%w: assessment record missing payload", common.ErrValidation)
		}
		a := *rec.Assessment
		a.Dimensions = append([]fields.DimensionScore(nil), a.Dimensions...)
		rec.Assessment = &a
		v.validateAssessment(&a, res)
	case constants.TypeInterview:
		if rec.Interview == nil {
			return nil, fmt.Errorf("%w: interview record missing payload", common.ErrValidation)
		}
		iv := *rec.Interview
		rec.Interview = &iv
		v.validateInterview(&iv, res)
	case constants.TypeOther:
		res.addWarning("document type is OTHER, no field validation applied")
	default:
		return nil, fmt.Errorf("%w: unknown document type %q", common.ErrValidation, rec.Type)
	}

	res.IsValid = len(res.Errors) == 0
	res.Normalized = &rec

	v.logger.Debug("validation finished",
		"type", rec.Type, "valid", res.IsValid,
		"errors", len(res.Errors), "warnings", len(res.Warnings))
	return res, nil
}
