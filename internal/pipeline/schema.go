package pipeline

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/talahq/docintake/constants"
	"github.com/talahq/docintake/internal/common"
)

//go:embed schemas/*.schema.json
var schemaFS embed.FS

var confirmSchemaFiles = map[constants.DocumentType]string{
	constants.TypeCV:         "schemas/cv.schema.json",
	constants.TypeAssessment: "schemas/assessment.schema.json",
	constants.TypeInterview:  "schemas/interview.schema.json",
}

// compileConfirmSchemas loads the per-type review payload schemas once at
// startup. A broken embedded schema is a programming error.
func compileConfirmSchemas() (map[constants.DocumentType]*jsonschema.Schema, error) {
	out := make(map[constants.DocumentType]*jsonschema.Schema, len(confirmSchemaFiles))
	for docType, file := range confirmSchemaFiles {
		raw, err := schemaFS.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", file, err)
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(file, bytes.NewReader(raw)); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", file, err)
		}
		schema, err := compiler.Compile(file)
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", file, err)
		}
		out[docType] = schema
	}
	return out, nil
}

// validateConfirmPayload checks the shape of a manual-review payload for the
// given document type. The payload is stored verbatim on success; only its
// shape is checked, values are trusted as reviewed.
func (o *Orchestrator) validateConfirmPayload(docType constants.DocumentType, payload json.RawMessage) error {
	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return fmt.Errorf("%w: payload is not valid JSON: %v", common.ErrInvalidInput, err)
	}
	schema, ok := o.confirmSchemas[docType]
	if !ok {
		// OTHER documents have no fixed shape; any JSON object is accepted.
		if _, isObject := v.(map[string]any); !isObject {
			return fmt.Errorf("%w: payload for %q must be a JSON object", common.ErrValidation, docType)
		}
		return nil
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("%w: payload does not match %s schema: %v", common.ErrValidation, docType, err)
	}
	return nil
}
