package spec

import (
	"strings"

	"gopkg.in/yaml.v3"
)

// preprocessV2ForCompatibility rewrites Swagger v2 operations kin-openapi
// refuses to convert:
//   - several body parameters are merged into one body parameter whose schema
//     is an object with one property per original parameter;
//   - body parameters mixed with formData are turned into formData fields and
//     the operation consumes multipart/form-data.
//
// The original bytes are returned with changed=false when nothing was rewritten
// or the document could not be round-tripped.
func preprocessV2ForCompatibility(data []byte) ([]byte, bool, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return data, false, err
	}
	paths, ok := doc["paths"].(map[string]any)
	if !ok || len(paths) == 0 {
		return data, false, nil
	}

	changed := false
	for _, rawItem := range paths {
		item, ok := rawItem.(map[string]any)
		if !ok {
			continue
		}
		for method, rawOp := range item {
			if !isSupportedMethod(method) {
				continue
			}
			op, ok := rawOp.(map[string]any)
			if !ok {
				continue
			}
			if rewriteBodyParams(op) {
				changed = true
			}
		}
	}
	if !changed {
		return data, false, nil
	}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return data, false, err
	}
	return out, true, nil
}

func isSupportedMethod(name string) bool {
	for _, m := range Methods {
		if strings.EqualFold(name, string(m)) {
			return true
		}
	}
	return false
}

// rewriteBodyParams reports whether op's parameter list was changed.
func rewriteBodyParams(op map[string]any) bool {
	params, ok := op["parameters"].([]any)
	if !ok || len(params) == 0 {
		return false
	}

	var bodies, rest []map[string]any
	hasFormData := false
	for _, p := range params {
		pm, _ := p.(map[string]any)
		if pm == nil {
			continue
		}
		switch in := asString(pm["in"]); {
		case strings.EqualFold(in, "body"):
			bodies = append(bodies, pm)
		case strings.EqualFold(in, "formData"):
			hasFormData = true
			rest = append(rest, pm)
		default:
			rest = append(rest, pm)
		}
	}

	switch {
	case len(bodies) == 0:
		return false
	case hasFormData:
		out := make([]any, 0, len(params))
		for _, pm := range rest {
			out = append(out, pm)
		}
		for _, b := range bodies {
			out = append(out, formDataFromBody(b))
		}
		op["parameters"] = out
		consumes, _ := op["consumes"].([]any)
		if !containsString(consumes, "multipart/form-data") {
			op["consumes"] = append(consumes, "multipart/form-data")
		}
		return true
	case len(bodies) > 1:
		props := map[string]any{}
		var required []any
		for _, b := range bodies {
			name := asString(b["name"])
			if name == "" {
				name = "field"
			}
			schema, _ := b["schema"].(map[string]any)
			if schema == nil {
				schema = map[string]any{"type": "string"}
			}
			props[name] = schema
			if req, _ := b["required"].(bool); req {
				required = append(required, name)
			}
		}
		bodySchema := map[string]any{"type": "object", "properties": props}
		if len(required) > 0 {
			bodySchema["required"] = required
		}
		out := []any{map[string]any{"in": "body", "name": "body", "schema": bodySchema}}
		for _, pm := range rest {
			out = append(out, pm)
		}
		op["parameters"] = out
		return true
	}
	return false
}

func formDataFromBody(pm map[string]any) map[string]any {
	name := asString(pm["name"])
	if name == "" {
		name = "field"
	}
	out := map[string]any{"in": "formData", "name": name, "type": "string"}
	if req, ok := pm["required"].(bool); ok {
		out["required"] = req
	}
	if sch, ok := pm["schema"].(map[string]any); ok {
		if t := asString(sch["type"]); t != "" && t != "object" {
			out["type"] = t
		}
		if it, ok := sch["items"].(map[string]any); ok {
			out["items"] = it
		}
	}
	return out
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func containsString(list []any, want string) bool {
	for _, v := range list {
		if s, ok := v.(string); ok && s == want {
			return true
		}
	}
	return false
}
