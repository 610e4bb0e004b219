package manifest

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Schema returns the JSON Schema (Draft 2020-12) describing the
// manifest document, for editor integration and external validation.
func Schema() ([]byte, error) {
	reflector := jsonschema.Reflector{
		ExpandedStruct: true,
	}
	schema := reflector.Reflect(&Manifest{})
	return json.MarshalIndent(schema, "", "  ")
}
