package codegen

import (
	"testing"

	"github.com/stretchr/testify/assert"

	genspec "github.com/mark3labs/swagger2req/internal/spec"
)

func TestCompileParams(t *testing.T) {
	t.Parallel()

	id := genspec.ParamModel{Field: "id", In: "path", Required: true, Type: "string"}
	limit := genspec.ParamModel{Field: "limit", In: "query", Type: "number"}

	cases := []struct {
		name    string
		hasBody bool
		params  []genspec.ParamModel
		tokens  []string
		want    string
	}{
		{"token consumed by declared param", false, []genspec.ParamModel{id}, []string{"id"}, "id: string"},
		{"body only", true, nil, nil, "data: T"},
		{"nothing", false, nil, nil, ""},
		{"body then params", true, []genspec.ParamModel{id}, []string{"id"}, "data: T, id: string"},
		{"optional param", false, []genspec.ParamModel{limit}, nil, "limit?: number"},
		{"undeclared token appended as any", false, []genspec.ParamModel{limit}, []string{"orgId"}, "limit?: number, orgId: any"},
		{"several leftover tokens keep order", true, nil, []string{"a", "b"}, "data: T, a: any, b: any"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, CompileParams(tc.hasBody, tc.params, tc.tokens))
		})
	}
}

func TestCompileParams_DoesNotMutateTokens(t *testing.T) {
	t.Parallel()

	tokens := []string{"id", "slug"}
	params := []genspec.ParamModel{{Field: "id", Required: true, Type: "string"}}
	CompileParams(false, params, tokens)
	assert.Equal(t, []string{"id", "slug"}, tokens)
}

func TestCompileRequestParams(t *testing.T) {
	t.Parallel()

	id := genspec.ParamModel{Field: "id", In: "path", Required: true, Type: "string"}
	q := genspec.ParamModel{Field: "q", In: "query", Type: "string"}

	cases := []struct {
		name    string
		hasBody bool
		params  []genspec.ParamModel
		tokens  []string
		want    string
	}{
		{"body forwarded when no params", true, nil, nil, "data"},
		{"empty without body or params", false, nil, nil, ""},
		{"body spread with path param skipped", true, []genspec.ParamModel{id}, []string{"id"}, "{ ...data }"},
		{"only path params", false, []genspec.ParamModel{id}, []string{"id"}, ""},
		{"query param collected", false, []genspec.ParamModel{id, q}, []string{"id"}, "{ q }"},
		{"body and query", true, []genspec.ParamModel{q}, nil, "{ ...data, q }"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, CompileRequestParams(tc.hasBody, tc.params, tc.tokens))
		})
	}
}
