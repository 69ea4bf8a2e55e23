// Package render turns codegen render contexts into TypeScript source using
// pongo2 templates.
package render

import (
	_ "embed"
	"fmt"
	"path/filepath"

	"github.com/flosch/pongo2/v6"

	"github.com/mark3labs/swagger2req/internal/codegen"
	"github.com/mark3labs/swagger2req/internal/generrors"
)

//go:embed templates/route.ts.tpl
var defaultRouteTemplate string

// Template renders one route per call. It is safe for concurrent use.
type Template struct {
	name string
	tpl  *pongo2.Template
}

var _ codegen.Renderer = (*Template)(nil)

// Default returns the built-in route template.
func Default() (*Template, error) {
	return New("route.ts.tpl", defaultRouteTemplate)
}

// New parses template text.
func New(name, text string) (*Template, error) {
	set := pongo2.NewSet("swagger2req", pongo2.MustNewLocalFileSystemLoader(""))
	tpl, err := set.FromString(text)
	if err != nil {
		return nil, &generrors.CollaboratorError{Stage: "template", Unit: name, Cause: err}
	}
	return &Template{name: name, tpl: tpl}, nil
}

// FromFile parses the template at path. Includes resolve relative to its directory.
func FromFile(path string) (*Template, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve template path: %w", err)
	}
	loader, err := pongo2.NewLocalFileSystemLoader(filepath.Dir(abs))
	if err != nil {
		return nil, &generrors.CollaboratorError{Stage: "template", Unit: path, Cause: err}
	}
	set := pongo2.NewSet("swagger2req", loader)
	tpl, err := set.FromFile(filepath.Base(abs))
	if err != nil {
		return nil, &generrors.CollaboratorError{Stage: "template", Unit: path, Cause: err}
	}
	return &Template{name: path, tpl: tpl}, nil
}

// Render executes the template for one route.
func (t *Template) Render(c codegen.RenderContext) (string, error) {
	out, err := t.tpl.Execute(contextFor(c))
	if err != nil {
		return "", fmt.Errorf("execute %s: %w", t.name, err)
	}
	return out, nil
}

func contextFor(c codegen.RenderContext) pongo2.Context {
	return pongo2.Context{
		"controller":      c.Controller,
		"name":            c.Name,
		"params":          c.Params,
		"request_params":  c.RequestParams,
		"callback_params": c.CallbackParams,
		"method":          c.Method,
		"http_method":     c.HTTPMethod,
		"path":            c.Path,
		"imports":         c.Imports,
		"import_path":     c.ImportPath,
		"first_in_unit":   c.FirstInUnit,
		"has_body":        c.HasBody,
		"fields":          c.Fields,
	}
}
