package geo

import "context"

// Provider is one step in an ordered fallback chain. The same shape covers
// geocoding (address in, coordinate out) and routing (waypoints in, route out):
// a provider that is unavailable (missing credential) is skipped without a
// request, and a provider that fails in any way simply yields ok=false so the
// chain can advance.
type Provider[In, Out any] struct {
	Name      string
	Available func() bool
	Attempt   func(ctx context.Context, in In) (Out, bool)
}

// FirstOf tries providers strictly in order and returns the first hit along
// with the name of the provider that produced it.
func FirstOf[In, Out any](ctx context.Context, providers []Provider[In, Out], in In) (Out, string, bool) {
	for _, p := range providers {
		if p.Available != nil && !p.Available() {
			continue
		}
		if out, ok := p.Attempt(ctx, in); ok {
			return out, p.Name, true
		}
	}
	var zero Out
	return zero, "", false
}
