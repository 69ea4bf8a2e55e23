package codegen

import (
	"strings"

	genspec "github.com/mark3labs/swagger2req/internal/spec"
)

const (
	bodyParamDecl = "data: T"
	bodyForward   = "data"
	bodySpread    = "...data"
)

// CompileParams renders the parameter declaration list of a generated function:
// the body argument first, then declared parameters in order, then any path
// token no declared parameter already covers (typed any).
func CompileParams(hasBody bool, params []genspec.ParamModel, dynamicTokens []string) string {
	remaining := append([]string(nil), dynamicTokens...)
	out := make([]string, 0, len(params)+len(remaining)+1)
	if hasBody {
		out = append(out, bodyParamDecl)
	}
	for _, p := range params {
		for i, tok := range remaining {
			if tok == p.Field {
				remaining = append(remaining[:i], remaining[i+1:]...)
				break
			}
		}
		if p.Required {
			out = append(out, p.Field+": "+p.Type)
		} else {
			out = append(out, p.Field+"?: "+p.Type)
		}
	}
	for _, tok := range remaining {
		out = append(out, tok+": any")
	}
	return strings.Join(out, ", ")
}

// CompileRequestParams renders the argument handed to the transport helper
// after the path: exactly the values not already interpolated into the path.
func CompileRequestParams(hasBody bool, params []genspec.ParamModel, dynamicTokens []string) string {
	if len(params) == 0 {
		if hasBody {
			return bodyForward
		}
		return ""
	}
	inPath := make(map[string]struct{}, len(dynamicTokens))
	for _, tok := range dynamicTokens {
		inPath[tok] = struct{}{}
	}
	names := make([]string, 0, len(params)+1)
	if hasBody {
		names = append(names, bodySpread)
	}
	for _, p := range params {
		if _, ok := inPath[p.Field]; ok {
			continue
		}
		names = append(names, p.Field)
	}
	if len(names) == 0 {
		return ""
	}
	return "{ " + strings.Join(names, ", ") + " }"
}
