package resilience

import "golang.org/x/sync/singleflight"

// SingleFlight collapses concurrent loads of the same key into one call.
type SingleFlight[T any] struct {
	group singleflight.Group
}

func (g *SingleFlight[T]) Do(key string, fn func() (T, error)) (T, error, bool) {
	v, err, shared := g.group.Do(key, func() (any, error) {
		return fn()
	})
	out, _ := v.(T)
	return out, err, shared
}

func (g *SingleFlight[T]) Forget(key string) {
	g.group.Forget(key)
}
