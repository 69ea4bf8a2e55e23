package codegen

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mark3labs/swagger2req/internal/generrors"
	"github.com/mark3labs/swagger2req/internal/logging"
)

// Renderer turns one route context into source text. Implementations must be
// safe for concurrent use.
type Renderer interface {
	Render(RenderContext) (string, error)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(RenderContext) (string, error)

func (f RendererFunc) Render(c RenderContext) (string, error) { return f(c) }

// Source is the rendered text of one controller.
type Source struct {
	Controller string
	Text       string
}

// GenerateOptions configures Generate.
type GenerateOptions struct {
	Context ContextOptions
	// Concurrency bounds simultaneous group renders; <= 0 means unbounded.
	Concurrency int
	Logger      *zap.Logger
}

// Generate renders every group concurrently. Results keep group order; the
// first failure cancels the remaining tasks and nothing is returned.
func Generate(ctx context.Context, groups []*ControllerGroup, r Renderer, opts GenerateOptions) ([]Source, error) {
	log := logging.OrNop(opts.Logger)
	out := make([]Source, len(groups))

	eg, ctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		eg.SetLimit(opts.Concurrency)
	}
	for i, g := range groups {
		i, g := i, g
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			contexts := BuildContexts(g, opts.Context)
			texts := make([]string, 0, len(contexts))
			for _, c := range contexts {
				text, err := r.Render(c)
				if err != nil {
					return &generrors.CollaboratorError{Stage: "render", Unit: g.Name + "." + c.Name, Cause: err}
				}
				texts = append(texts, text)
			}
			out[i] = Source{Controller: g.Name, Text: strings.Join(texts, "\n")}
			log.Debug("rendered controller", zap.String("controller", g.Name), zap.Int("routes", len(texts)))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
