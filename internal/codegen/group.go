package codegen

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mark3labs/swagger2req/internal/generrors"
	"github.com/mark3labs/swagger2req/internal/logging"
	genspec "github.com/mark3labs/swagger2req/internal/spec"
)

// DefaultSeparator splits an operationId into controller and method names.
const DefaultSeparator = "_"

// CollisionPolicy decides what happens when two routes of one controller
// resolve to the same method name.
type CollisionPolicy string

const (
	// CollisionOverwrite keeps the later route at the earlier route's position.
	CollisionOverwrite CollisionPolicy = "overwrite"
	// CollisionError rejects the document.
	CollisionError CollisionPolicy = "error"
)

// GroupOptions configures Group.
type GroupOptions struct {
	Separator   string          // defaults to DefaultSeparator
	OnCollision CollisionPolicy // defaults to CollisionOverwrite
	Logger      *zap.Logger
}

// GroupedRoute is a route stored under its method name.
type GroupedRoute struct {
	MethodName string
	Route      genspec.RouteDescriptor
}

// ControllerGroup is the bucket of routes rendered into one output unit.
type ControllerGroup struct {
	Name    string
	entries []GroupedRoute
	index   map[string]int
}

func newControllerGroup(name string) *ControllerGroup {
	return &ControllerGroup{Name: name, index: make(map[string]int)}
}

// Entries returns the group's routes in first-insertion order.
func (g *ControllerGroup) Entries() []GroupedRoute {
	return append([]GroupedRoute(nil), g.entries...)
}

// Route looks up the route stored under methodName.
func (g *ControllerGroup) Route(methodName string) (genspec.RouteDescriptor, bool) {
	at, ok := g.index[methodName]
	if !ok {
		return genspec.RouteDescriptor{}, false
	}
	return g.entries[at].Route, true
}

// Len reports how many method names the group holds.
func (g *ControllerGroup) Len() int { return len(g.entries) }

// put stores r under methodName and reports whether it replaced an entry.
func (g *ControllerGroup) put(methodName string, r genspec.RouteDescriptor) bool {
	if at, ok := g.index[methodName]; ok {
		g.entries[at].Route = r
		return true
	}
	g.index[methodName] = len(g.entries)
	g.entries = append(g.entries, GroupedRoute{MethodName: methodName, Route: r})
	return false
}

// SplitOperationID splits id on sep into exactly two non-empty tokens.
func SplitOperationID(id, sep string) (controller, method string, err error) {
	if sep == "" {
		sep = DefaultSeparator
	}
	parts := strings.Split(id, sep)
	if len(parts) != 2 {
		return "", "", fmt.Errorf("operationId %q must contain separator %q exactly once", id, sep)
	}
	controller, method = strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if controller == "" || method == "" {
		return "", "", fmt.Errorf("operationId %q has an empty controller or method name", id)
	}
	return controller, method, nil
}

// Group buckets routes by the controller name derived from their operationId.
// Groups are returned in the order their controller was first seen.
func Group(routes []genspec.RouteDescriptor, opts GroupOptions) ([]*ControllerGroup, error) {
	log := logging.OrNop(opts.Logger)
	policy := opts.OnCollision
	if policy == "" {
		policy = CollisionOverwrite
	}

	var groups []*ControllerGroup
	byName := make(map[string]*ControllerGroup)
	for _, r := range routes {
		controller, method, err := SplitOperationID(r.OperationID, opts.Separator)
		if err != nil {
			return nil, &generrors.MalformedDocumentError{
				Path:    r.Path,
				Method:  string(r.Method),
				Field:   "operationId",
				Message: err.Error(),
			}
		}

		g, ok := byName[controller]
		if !ok {
			g = newControllerGroup(controller)
			byName[controller] = g
			groups = append(groups, g)
		}

		if policy == CollisionError {
			if prev, dup := g.Route(method); dup {
				return nil, &generrors.MalformedDocumentError{
					Path:   r.Path,
					Method: string(r.Method),
					Field:  "operationId",
					Message: fmt.Sprintf("method %q of %s already used by %s %s",
						method, controller, strings.ToUpper(string(prev.Method)), prev.Path),
				}
			}
		}
		if g.put(method, r) {
			log.Warn("operationId collision; later route wins",
				zap.String("controller", controller),
				zap.String("method", method),
				zap.String("path", r.Path))
		}
	}
	return groups, nil
}
