package actor

import (
	"context"
)

type contextKey struct{}

// Actor identifies the authenticated principal performing an operation,
// together with the capabilities granted to it.
type Actor struct {
	ID           string   `json:"id"`
	Capabilities []string `json:"capabilities"`
}

// Has reports whether the actor holds a capability.
func (a Actor) Has(capability string) bool {
	for _, c := range a.Capabilities {
		if c == capability {
			return true
		}
	}
	return false
}

// System is the actor used by background jobs.
func System() Actor {
	return Actor{ID: "system"}
}

// WithActor stores the actor on the context.
func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, contextKey{}, a)
}

// FromContext reads the actor from the context.
func FromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(contextKey{}).(Actor)
	return a, ok
}
