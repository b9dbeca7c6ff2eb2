package configmanager

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/devantler-tech/kubepack/pkg/apis/build/v1alpha1"
	"github.com/invopop/jsonschema"
)

// SchemaTitle is the title of the generated configuration schema.
const SchemaTitle = "kubepack Project Configuration"

// JSONSchema returns the indented JSON schema of kubepack.yaml.
func JSONSchema() ([]byte, error) {
	reflector := &jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
		Mapper:                    enumMapper,
	}
	schema := reflector.Reflect(&v1alpha1.Project{})

	schema.ID = ""
	schema.Version = ""
	schema.Title = SchemaTitle
	schema.Description = "JSON schema for kubepack project configuration (kubepack.yaml)"

	// Every field is optional; defaults fill the gaps.
	walkSchema(schema, func(s *jsonschema.Schema) { s.Required = nil })

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}

	return data, nil
}

func walkSchema(schema *jsonschema.Schema, fn func(*jsonschema.Schema)) {
	if schema == nil {
		return
	}

	fn(schema)

	if schema.Properties != nil {
		for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
			walkSchema(pair.Value, fn)
		}
	}

	walkSchema(schema.Items, fn)
	walkSchema(schema.AdditionalProperties, fn)
}

// enumMapper renders v1alpha1 enum types as string enums.
func enumMapper(t reflect.Type) *jsonschema.Schema {
	valuer, ok := reflect.New(t).Interface().(v1alpha1.EnumValuer)
	if !ok {
		return nil
	}

	values := valuer.ValidValues()

	enum := make([]any, 0, len(values))
	for _, value := range values {
		enum = append(enum, value)
	}

	return &jsonschema.Schema{Type: "string", Enum: enum}
}
