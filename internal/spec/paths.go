package spec

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/mark3labs/swagger2req/internal/generrors"
)

const jsonMime = "application/json"

var (
	bracePlaceholderRe = regexp.MustCompile(`\{([^{}/]+)\}`)
	dynamicTokenRe     = regexp.MustCompile(`\$\{(.*?)\}`)
)

// RequestPath rewrites every {name} placeholder of a raw path into ${name},
// leaving the rest of each segment and the slash structure untouched.
func RequestPath(path string) string {
	segments := strings.Split(path, "/")
	for i, seg := range segments {
		segments[i] = bracePlaceholderRe.ReplaceAllStringFunc(seg, func(m string) string {
			return "$" + m
		})
	}
	return strings.Join(segments, "/")
}

// DynamicTokens extracts the ${name} tokens of a rewritten path, left to right.
func DynamicTokens(requestPath string) []string {
	matches := dynamicTokenRe.FindAllStringSubmatch(requestPath, -1)
	if len(matches) == 0 {
		return nil
	}
	tokens := make([]string, 0, len(matches))
	for _, m := range matches {
		tokens = append(tokens, m[1])
	}
	return tokens
}

// AnalyzeOperation normalizes one path+method entry into a route descriptor.
// Path-item parameters come first; an operation parameter with the same
// (in, name) replaces its path-level counterpart in place. Interface is left
// empty for Assemble to fill.
func AnalyzeOperation(path string, method HttpMethod, pathParams openapi3.Parameters, op *openapi3.Operation) (RouteDescriptor, error) {
	malformed := func(field, format string, args ...any) error {
		return &generrors.MalformedDocumentError{
			Path:    path,
			Method:  string(method),
			Field:   field,
			Message: fmt.Sprintf(format, args...),
		}
	}

	if op == nil {
		return RouteDescriptor{}, malformed("", "operation is empty")
	}
	opID := safeStr(op.OperationID)
	if opID == "" {
		return RouteDescriptor{}, malformed("operationId", "missing operationId")
	}

	trait, err := referencedSchemaNames(op)
	if err != nil {
		return RouteDescriptor{}, malformed("requestBody", "%v", err)
	}

	params := make([]ParamModel, 0, len(pathParams)+len(op.Parameters))
	positions := make(map[string]int)
	add := func(prefix string, list openapi3.Parameters) error {
		for i, pref := range list {
			pm, err := toParamModel(pref)
			if err != nil {
				return malformed(fmt.Sprintf("%s[%d]", prefix, i), "%v", err)
			}
			key := pm.In + ":" + pm.Field
			if at, ok := positions[key]; ok {
				params[at] = pm
				continue
			}
			positions[key] = len(params)
			params = append(params, pm)
		}
		return nil
	}
	if err := add("pathParameters", pathParams); err != nil {
		return RouteDescriptor{}, err
	}
	if err := add("parameters", op.Parameters); err != nil {
		return RouteDescriptor{}, err
	}

	tags := make([]string, 0, len(op.Tags))
	for _, t := range op.Tags {
		if t = safeStr(t); t != "" {
			tags = append(tags, t)
		}
	}

	return RouteDescriptor{
		Path:        path,
		RequestPath: RequestPath(path),
		Method:      method,
		OperationID: opID,
		Tags:        tags,
		Params:      params,
		Trait:       trait,
		Interface:   map[string]FieldDescriptor{},
	}, nil
}

// referencedSchemaNames reads requestBody.content['application/json'].schema.$ref.
// Inline JSON schemas carry no reference.
func referencedSchemaNames(op *openapi3.Operation) ([]string, error) {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return []string{}, nil
	}
	media, ok := op.RequestBody.Value.Content[jsonMime]
	if !ok {
		return []string{}, nil
	}
	if media == nil || media.Schema == nil {
		return nil, fmt.Errorf("%s body has no schema", jsonMime)
	}
	ref := safeStr(media.Schema.Ref)
	if ref == "" {
		return []string{}, nil
	}
	name := RefName(ref)
	if name == "" {
		return nil, fmt.Errorf("$ref %q does not name a schema", ref)
	}
	return []string{name}, nil
}

func toParamModel(pref *openapi3.ParameterRef) (ParamModel, error) {
	if pref == nil || pref.Value == nil {
		if pref != nil && pref.Ref != "" {
			return ParamModel{}, fmt.Errorf("unresolved parameter $ref %q", pref.Ref)
		}
		return ParamModel{}, fmt.Errorf("empty parameter")
	}
	p := pref.Value
	name := safeStr(p.Name)
	if name == "" {
		return ParamModel{}, fmt.Errorf("parameter has no name")
	}
	if p.Schema == nil {
		return ParamModel{}, fmt.Errorf("parameter %q has no schema", name)
	}
	typ := "any"
	if p.Schema.Value != nil && safeStr(p.Schema.Value.Type) != "" {
		typ = safeStr(p.Schema.Value.Type)
	}
	return ParamModel{
		Field:    name,
		In:       safeStr(p.In),
		Required: p.Required,
		Type:     typ,
	}, nil
}
