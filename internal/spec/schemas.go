package spec

import (
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// IndexSchemas flattens every named component schema into field -> {type, required}.
// A schema without properties yields an empty field map; without a required
// list no field is required.
func IndexSchemas(schemas openapi3.Schemas) SchemaIndex {
	index := make(SchemaIndex, len(schemas))
	for name, ref := range schemas {
		fields := map[string]FieldDescriptor{}
		index[name] = fields
		if ref == nil || ref.Value == nil {
			continue
		}
		required := make(map[string]struct{}, len(ref.Value.Required))
		for _, r := range ref.Value.Required {
			required[r] = struct{}{}
		}
		for field, prop := range ref.Value.Properties {
			_, req := required[field]
			fields[field] = FieldDescriptor{Type: propertyType(prop), Required: req}
		}
	}
	return index
}

func propertyType(ref *openapi3.SchemaRef) string {
	if ref == nil {
		return "any"
	}
	// A $ref property is named, never resolved further.
	if name := RefName(ref.Ref); name != "" {
		return name
	}
	if ref.Value != nil {
		if t := safeStr(ref.Value.Type); t != "" {
			return t
		}
	}
	return "any"
}

// RefName returns the last "/"-delimited segment of a $ref.
func RefName(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	return ref[strings.LastIndex(ref, "/")+1:]
}

func safeStr(s string) string { return strings.TrimSpace(s) }
