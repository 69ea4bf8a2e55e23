package codegen

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	genspec "github.com/mark3labs/swagger2req/internal/spec"
)

// DefaultImportPath is the module generated files import transport helpers from.
const DefaultImportPath = "@/request"

// VerbTransform names how an HTTP verb becomes the imported helper's identifier.
type VerbTransform string

const (
	VerbCapitalize VerbTransform = "capitalize" // patch -> Patch
	VerbUpper      VerbTransform = "upper"      // patch -> PATCH
	VerbLower      VerbTransform = "lower"      // PATCH -> patch
	VerbNone       VerbTransform = "none"
)

// ParseVerbTransform validates a transform name; empty selects capitalize.
func ParseVerbTransform(s string) (VerbTransform, error) {
	switch v := VerbTransform(strings.ToLower(strings.TrimSpace(s))); v {
	case "":
		return VerbCapitalize, nil
	case VerbCapitalize, VerbUpper, VerbLower, VerbNone:
		return v, nil
	default:
		return "", fmt.Errorf("unknown verb transform %q (want capitalize, upper, lower or none)", s)
	}
}

// Apply transforms name.
func (t VerbTransform) Apply(name string) string {
	switch t {
	case VerbUpper:
		return strings.ToUpper(name)
	case VerbLower:
		return strings.ToLower(name)
	case VerbNone:
		return name
	default:
		// Casers carry state; one per call keeps concurrent groups independent.
		return cases.Title(language.Und).String(name)
	}
}

// ContextOptions configures how render contexts are built.
type ContextOptions struct {
	ImportPath    string        // defaults to DefaultImportPath
	VerbTransform VerbTransform // defaults to VerbCapitalize
}

func (o ContextOptions) withDefaults() ContextOptions {
	if o.ImportPath == "" {
		o.ImportPath = DefaultImportPath
	}
	if o.VerbTransform == "" {
		o.VerbTransform = VerbCapitalize
	}
	return o
}

// RenderContext is everything a template needs to render one route.
type RenderContext struct {
	Controller string
	// Name is the generated function name.
	Name string
	// Params is the declaration list, e.g. "data: T, id: string".
	Params string
	// RequestParams is the argument passed after the path, possibly empty.
	RequestParams string
	// CallbackParams is the full argument list of the helper call.
	CallbackParams string
	// Method is the transformed verb used as the helper's identifier.
	Method     string
	HTTPMethod string
	// Path is the interpolation-ready request path.
	Path       string
	Imports    []string
	ImportPath string
	// FirstInUnit marks the route that carries the import statement.
	FirstInUnit bool
	// HasBody marks routes declared with a generic body parameter.
	HasBody bool
	Fields  map[string]genspec.FieldDescriptor
}

// BuildContexts assembles one RenderContext per route of g, in group order.
func BuildContexts(g *ControllerGroup, opts ContextOptions) []RenderContext {
	opts = opts.withDefaults()
	entries := g.Entries()

	var imports []string
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		alias := opts.VerbTransform.Apply(string(e.Route.Method))
		if _, ok := seen[alias]; ok {
			continue
		}
		seen[alias] = struct{}{}
		imports = append(imports, alias)
	}

	out := make([]RenderContext, 0, len(entries))
	for i, e := range entries {
		r := e.Route
		hasBody := r.Method.HasBody()
		tokens := genspec.DynamicTokens(r.RequestPath)
		requestParams := CompileRequestParams(hasBody, r.Params, tokens)

		callback := "`" + r.RequestPath + "`"
		if requestParams != "" {
			callback += ", " + requestParams
		}

		out = append(out, RenderContext{
			Controller:     g.Name,
			Name:           e.MethodName,
			Params:         CompileParams(hasBody, r.Params, tokens),
			RequestParams:  requestParams,
			CallbackParams: callback,
			Method:         opts.VerbTransform.Apply(string(r.Method)),
			HTTPMethod:     strings.ToUpper(string(r.Method)),
			Path:           r.RequestPath,
			Imports:        imports,
			ImportPath:     opts.ImportPath,
			FirstInUnit:    i == 0,
			HasBody:        hasBody,
			Fields:         r.Interface,
		})
	}
	return out
}
