package constants

import "strings"

// Category is the owning bucket assigned to a document at upload time.
type Category string

const (
	CategoryResume         Category = "RESUME"
	CategoryJobDescription Category = "JOB_DESCRIPTION"
	CategoryOther          Category = "OTHER"
)

// Categories holds the allowed values for the category field in Document.
var Categories = []string{
	string(CategoryResume),
	string(CategoryJobDescription),
	string(CategoryOther),
}

// DocumentType is the classifier's verdict about what a document contains.
type DocumentType string

const (
	TypeCV         DocumentType = "CV"
	TypeAssessment DocumentType = "ASSESSMENT"
	TypeInterview  DocumentType = "INTERVIEW"
	TypeOther      DocumentType = "OTHER"
)

// DocumentTypes holds the allowed values for the document_type field.
var DocumentTypes = []string{
	string(TypeCV),
	string(TypeAssessment),
	string(TypeInterview),
	string(TypeOther),
}

// CanonicalDocumentType maps free-form labels (as stored upstream or supplied
// by callers) onto the canonical type, reporting whether the label was known.
func CanonicalDocumentType(input string) (DocumentType, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(input))

	synonyms := map[string]DocumentType{
		"RESUME":     TypeCV,
		"CURRICULUM": TypeCV,
		"HOJA DE VIDA": TypeCV,
		"PSYCHOMETRIC": TypeAssessment,
		"TEST":         TypeAssessment,
		"TRANSCRIPT":   TypeInterview,
	}
	if t, ok := synonyms[normalized]; ok {
		return t, true
	}
	for _, t := range DocumentTypes {
		if normalized == t {
			return DocumentType(t), true
		}
	}
	return TypeOther, false
}
