// Package provider defines the boundary to the natural-language completion
// services that back specialists. The engine treats a backend as an opaque
// request/response service: it sends a role, its instructions, and a prompt,
// and receives text back. Two implementations exist: an HTTP client for
// remote backends and a deterministic rule-based local backend.
package provider

import (
	"context"
	"fmt"
)

// Request is one completion call on behalf of a specialist role.
type Request struct {
	// Role is the specialist role tag issuing the call (e.g. "config-specialist").
	Role string `json:"role"`

	// Instructions is the role's system-instruction template.
	Instructions string `json:"instructions"`

	// Prompt is the fully rendered task prompt.
	Prompt string `json:"prompt"`
}

// Response is the raw completion produced by a backend. Structure is imposed
// downstream: the engine parses the machine-readable action block out of
// Content.
type Response struct {
	// Content is the full completion text.
	Content string `json:"content"`

	// Model identifies the backing model when the backend reports one.
	Model string `json:"model,omitempty"`
}

// Client is a completion backend. Implementations must be safe for
// concurrent use: the engine issues one call per specialist in parallel.
type Client interface {
	// Complete performs a single completion call. It honors ctx for
	// cancellation and deadlines.
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Error wraps a failed backend call with the role that issued it.
type Error struct {
	Role string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider: call for role %q failed: %v", e.Role, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
