package settings

import (
	"context"
)

type contextKey string

const (
	settingsContextKey contextKey = "settings"
)

// IntoContext stores the run settings in the context.
func IntoContext(ctx context.Context, s *Run) context.Context {
	return context.WithValue(ctx, settingsContextKey, s)
}

// FromContext retrieves the run settings from the context.
func FromContext(ctx context.Context) (*Run, bool) {
	val := ctx.Value(settingsContextKey)
	s, ok := val.(*Run)
	return s, ok && s != nil
}

// FromContextOrDefault retrieves the run settings, falling back to the CLI
// defaults when the context carries none.
func FromContextOrDefault(ctx context.Context) *Run {
	if s, ok := FromContext(ctx); ok {
		return s
	}
	return NewCliParams()
}
