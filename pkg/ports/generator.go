package ports

import "context"

// Generator sends a prompt to a remote text-generation service.
type Generator interface {
	// Generate returns the service answer for the prompt, unmodified.
	// Non-success responses are reported as errors wrapping domain.ErrUpstream.
	Generate(ctx context.Context, prompt string) (string, error)
}
