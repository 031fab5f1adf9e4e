package semantics

import (
	"fmt"
	"strings"

	"github.com/TerraMA2/terrama2-sub002/internal/common"

	"github.com/xeipuuv/gojsonschema"
)

// Validator checks data set format mappings against a descriptor's GUI schema.
type Validator struct {
	schema *gojsonschema.Schema
}

// NewValidator compiles a JSON-schema-like property map.
func NewValidator(rawSchema map[string]interface{}) (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(rawSchema))
	if err != nil {
		return nil, fmt.Errorf("compile format schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate validates a decoded document.
// Returns a common.ValidationError with field-level details on failure.
func (v *Validator) Validate(document interface{}) error {
	result, err := v.schema.Validate(gojsonschema.NewGoLoader(document))
	if err != nil {
		return fmt.Errorf("%w: format validation: %v", common.ErrValidation, err)
	}

	if result.Valid() {
		return nil
	}

	fieldErrors := make([]common.FieldError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		path := "$"
		if field := desc.Field(); field != "" && field != "(root)" {
			path = "$." + strings.TrimPrefix(field, "(root).")
		}
		fieldErrors = append(fieldErrors, common.FieldError{
			Path:       path,
			Message:    desc.Description(),
			SchemaPath: desc.Context().String(),
		})
	}

	return common.NewValidationError(fieldErrors...)
}
