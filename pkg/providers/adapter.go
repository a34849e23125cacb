// Package providers holds the pluggable execution backends runs are
// dispatched to. Adapters receive the resolved profile's raw config;
// that config stays server side and never enters run evidence.
package providers

import (
	"context"
	"fmt"
)

// ExecuteInput is everything an adapter needs for one run.
type ExecuteInput struct {
	RunID      string
	RunType    string
	Prompt     string
	ConfigJSON string
	Inputs     map[string]any
}

// Result is what an adapter produced. ResultRefs are storage:// URIs
// or remote URLs; Summary is a short human-readable outcome line.
type Result struct {
	ResultRefs []string
	Summary    string
}

// Adapter executes runs against one provider type.
type Adapter interface {
	Name() string
	Execute(ctx context.Context, in ExecuteInput) (*Result, error)
}

// Registry maps provider types to adapters.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry creates a registry over the given adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	r := &Registry{adapters: make(map[string]Adapter, len(adapters))}
	for _, a := range adapters {
		r.adapters[a.Name()] = a
	}
	return r
}

// Get returns the adapter for a provider type.
func (r *Registry) Get(providerType string) (Adapter, error) {
	a, ok := r.adapters[providerType]
	if !ok {
		return nil, fmt.Errorf("no adapter registered for provider type %q", providerType)
	}
	return a, nil
}
