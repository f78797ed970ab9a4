// Package driver selects platform-specific implementations at runtime.
//
// Providers register themselves from init functions. Get picks, among the
// providers registered for an interface type, the compatible one with the
// highest weight. Weights can be overridden per provider ID from settings.
package driver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"sync"
)

// DefaultWeight is the weight of a provider that has no reason to be preferred.
const DefaultWeight = 50

var (
	// ErrIncompatible marks a provider as not applicable in the current environment.
	ErrIncompatible = errors.New("component is incompatible")
	// ErrNoDriver is returned when no registered provider is compatible.
	ErrNoDriver = errors.New("no compatible driver")
)

// Provider builds drivers of type T.
type Provider[T any] interface {
	ID() string
	Name() string
	DefaultWeight() int
	CheckCompatibility(ctx context.Context) error
	New(ctx context.Context) (T, error)
}

var (
	mu        sync.Mutex
	providers = map[reflect.Type][]any{}
	weights   = map[string]int{}
)

// Register adds a provider for driver type T.
func Register[T any](p Provider[T]) {
	mu.Lock()
	defer mu.Unlock()
	key := reflect.TypeFor[T]()
	providers[key] = append(providers[key], p)
}

// SetWeight overrides the weight of the provider with the given ID.
func SetWeight(id string, weight int) {
	mu.Lock()
	defer mu.Unlock()
	weights[id] = weight
}

// Get returns a driver of type T from the best compatible provider.
func Get[T any](ctx context.Context) (T, error) {
	var zero T
	candidates := sortedProviders[T]()
	if len(candidates) == 0 {
		return zero, fmt.Errorf("%w: nothing registered for %s", ErrNoDriver, reflect.TypeFor[T]())
	}
	for _, p := range candidates {
		if err := p.CheckCompatibility(ctx); err != nil {
			slog.Debug("driver skipped", "id", p.ID(), "reason", err)
			continue
		}
		d, err := p.New(ctx)
		if err != nil {
			return zero, fmt.Errorf("failed to create driver %s: %w", p.ID(), err)
		}
		slog.Debug("driver selected", "id", p.ID(), "name", p.Name())
		return d, nil
	}
	return zero, fmt.Errorf("%w for %s", ErrNoDriver, reflect.TypeFor[T]())
}

func sortedProviders[T any]() []Provider[T] {
	mu.Lock()
	defer mu.Unlock()
	var out []Provider[T]
	for _, p := range providers[reflect.TypeFor[T]()] {
		out = append(out, p.(Provider[T]))
	}
	weightOf := func(p Provider[T]) int {
		if w, ok := weights[p.ID()]; ok {
			return w
		}
		return p.DefaultWeight()
	}
	sort.SliceStable(out, func(i, j int) bool {
		return weightOf(out[i]) > weightOf(out[j])
	})
	return out
}
