package fields

import "github.com/talahq/docintake/constants"

// OtherExtractor handles documents that matched no known category. It keeps
// an excerpt for the reviewer and nothing else.
type OtherExtractor struct{}

func NewOtherExtractor() *OtherExtractor { return &OtherExtractor{} }

func (e *OtherExtractor) Type() constants.DocumentType { return constants.TypeOther }

func (e *OtherExtractor) Extract(text string) (Record, error) {
	return Record{
		Type:       constants.TypeOther,
		RawExcerpt: excerpt(text),
		Confidence: 0.2,
	}, nil
}
