package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// SchemaFormat identifies the representation a schema document encodes.
type SchemaFormat string

// SchemaFormatDescriptors represents the flattened field descriptors.
const SchemaFormatDescriptors SchemaFormat = "descriptors"

// SchemaDocument describes the shape of a store's state for introspection
// and devtools. Implementations must ensure Document is JSON-serialisable.
type SchemaDocument struct {
	Format   SchemaFormat `json:"format"`
	Store    string       `json:"store,omitempty"`
	Document any          `json:"document"`
}

// SchemaGenerator transforms a state value into a schema document. All
// implementations MUST be safe for concurrent use and handle nil inputs by
// returning an empty schema document.
type SchemaGenerator interface {
	Generate(value any) (SchemaDocument, error)
}

// FieldDescriptor describes a path and the inferred type.
type FieldDescriptor struct {
	Path string `json:"path"`
	Type string `json:"type"`
}

// Schema derives a schema document from the current state using the
// configured generator.
func (s *Store[T]) Schema() (SchemaDocument, error) {
	doc, err := s.schemaGenerator().Generate(s.GetState())
	if err != nil {
		return SchemaDocument{}, err
	}
	if doc.Store == "" {
		doc.Store = s.cfg.name
	}
	return doc, nil
}

// DefaultSchemaGenerator returns the built-in descriptor-based generator.
func DefaultSchemaGenerator() SchemaGenerator {
	return descriptorGenerator{}
}

type descriptorGenerator struct{}

func (descriptorGenerator) Generate(value any) (SchemaDocument, error) {
	descriptors := deriveFieldDescriptors(normalizeForSchema(value), "")
	if descriptors == nil {
		descriptors = []FieldDescriptor{}
	}
	return SchemaDocument{
		Format:   SchemaFormatDescriptors,
		Document: descriptors,
	}, nil
}

// normalizeForSchema reduces struct states to their JSON object form so the
// descriptor walk only handles maps, slices, and scalars.
func normalizeForSchema(value any) any {
	switch value.(type) {
	case nil, map[string]any, []any, string, bool, float64, int, int64:
		return value
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return value
	}
	var normalized any
	if err := json.Unmarshal(payload, &normalized); err != nil {
		return value
	}
	return normalized
}

func deriveFieldDescriptors(value any, prefix string) []FieldDescriptor {
	if value == nil {
		return nil
	}

	switch typed := value.(type) {
	case map[string]any:
		if len(typed) == 0 {
			return []FieldDescriptor{{
				Path: prefix,
				Type: "map[string]any",
			}}
		}
		keys := make([]string, 0, len(typed))
		for key := range typed {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		var fields []FieldDescriptor
		for _, key := range keys {
			nextPrefix := joinPath(prefix, key)
			fields = append(fields, deriveFieldDescriptors(typed[key], nextPrefix)...)
		}
		return fields
	case []any:
		elementType := "any"
		if len(typed) > 0 {
			elementType = typeName(typed[0])
		}
		return []FieldDescriptor{{
			Path: prefix,
			Type: "[]" + elementType,
		}}
	default:
		if prefix == "" {
			return []FieldDescriptor{{
				Path: ".",
				Type: typeName(typed),
			}}
		}
		return []FieldDescriptor{{
			Path: prefix,
			Type: typeName(typed),
		}}
	}
}

func typeName(value any) string {
	if value == nil {
		return "nil"
	}
	return fmt.Sprintf("%T", value)
}

func joinPath(prefix, segment string) string {
	if prefix == "" {
		return segment
	}
	return strings.Join([]string{prefix, segment}, ".")
}
