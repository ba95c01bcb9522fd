package ai

import "context"

// Generator is the port to an external text-generation provider. One
// request, one response; implementations return the raw response text.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}
