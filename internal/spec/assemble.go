package spec

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/zap"

	"github.com/mark3labs/swagger2req/internal/logging"
)

// BuildOption configures how routes are assembled from an OpenAPI doc.
type BuildOption func(*buildConfig)

type buildConfig struct {
	includeTags map[string]struct{}
	excludeTags map[string]struct{}
	methods     map[HttpMethod]struct{}
	pathRes     []*regexp.Regexp
	logger      *zap.Logger
}

// WithIncludeTags keeps only routes that have at least one of the given tags.
func WithIncludeTags(tags []string) BuildOption {
	return func(c *buildConfig) {
		c.includeTags = addTags(c.includeTags, tags)
	}
}

// WithExcludeTags removes routes that have any of the given tags.
func WithExcludeTags(tags []string) BuildOption {
	return func(c *buildConfig) {
		c.excludeTags = addTags(c.excludeTags, tags)
	}
}

func addTags(set map[string]struct{}, tags []string) map[string]struct{} {
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if set == nil {
			set = make(map[string]struct{}, len(tags))
		}
		set[t] = struct{}{}
	}
	return set
}

// WithMethods keeps only routes using one of the provided HTTP methods.
func WithMethods(methods []HttpMethod) BuildOption {
	return func(c *buildConfig) {
		if len(methods) == 0 {
			return
		}
		if c.methods == nil {
			c.methods = make(map[HttpMethod]struct{}, len(methods))
		}
		for _, m := range methods {
			c.methods[m] = struct{}{}
		}
	}
}

// WithPathPatterns keeps only routes whose raw path matches at least one of
// the provided regular expressions. Invalid patterns never match.
func WithPathPatterns(patterns []string) BuildOption {
	return func(c *buildConfig) {
		for _, p := range patterns {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			re, err := regexp.Compile(p)
			if err != nil {
				re = regexp.MustCompile("a^$")
			}
			c.pathRes = append(c.pathRes, re)
		}
	}
}

// WithLogger routes assembly diagnostics to l.
func WithLogger(l *zap.Logger) BuildOption {
	return func(c *buildConfig) { c.logger = l }
}

// Assemble indexes the document's schemas, analyzes every supported
// path+method entry and merges referenced schema fields into each route.
//
// Routes are ordered by raw path, then by the Methods order. Fields of later
// references overwrite same-named fields of earlier ones; references to
// unknown schemas are skipped.
func Assemble(ctx context.Context, doc *openapi3.T, opts ...BuildOption) ([]RouteDescriptor, error) {
	if doc == nil {
		return nil, fmt.Errorf("nil document")
	}

	cfg := &buildConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	log := logging.OrNop(cfg.logger)

	var index SchemaIndex
	if doc.Components != nil {
		index = IndexSchemas(doc.Components.Schemas)
	} else {
		index = SchemaIndex{}
	}
	log.Debug("indexed schemas", zap.Int("count", len(index)))

	pathKeys := make([]string, 0, len(doc.Paths))
	for p := range doc.Paths {
		pathKeys = append(pathKeys, p)
	}
	sort.Strings(pathKeys)

	var routes []RouteDescriptor
	for _, p := range pathKeys {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item := doc.Paths[p]
		if item == nil || !cfg.allowPath(p) {
			continue
		}
		for _, m := range Methods {
			op := operationFor(item, m)
			if op == nil || !cfg.allowMethod(m) || !cfg.allowTags(op.Tags) {
				continue
			}
			route, err := AnalyzeOperation(p, m, item.Parameters, op)
			if err != nil {
				return nil, err
			}
			for _, name := range route.Trait {
				fields, ok := index[name]
				if !ok {
					log.Debug("skipping unknown body schema",
						zap.String("schema", name),
						zap.String("method", string(m)),
						zap.String("path", p))
					continue
				}
				for field, fd := range fields {
					route.Interface[field] = fd
				}
			}
			routes = append(routes, route)
		}
	}

	log.Debug("assembled routes", zap.Int("count", len(routes)))
	return routes, nil
}

func operationFor(item *openapi3.PathItem, m HttpMethod) *openapi3.Operation {
	switch m {
	case POST:
		return item.Post
	case GET:
		return item.Get
	case PUT:
		return item.Put
	case DELETE:
		return item.Delete
	case PATCH:
		return item.Patch
	}
	return nil
}

func (c *buildConfig) allowMethod(m HttpMethod) bool {
	if len(c.methods) == 0 {
		return true
	}
	_, ok := c.methods[m]
	return ok
}

func (c *buildConfig) allowPath(p string) bool {
	if len(c.pathRes) == 0 {
		return true
	}
	for _, re := range c.pathRes {
		if re.MatchString(p) {
			return true
		}
	}
	return false
}

func (c *buildConfig) allowTags(tags []string) bool {
	if len(c.includeTags) > 0 {
		ok := false
		for _, t := range tags {
			if _, yes := c.includeTags[t]; yes {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, t := range tags {
		if _, blocked := c.excludeTags[t]; blocked {
			return false
		}
	}
	return true
}
