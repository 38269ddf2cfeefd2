package engine

import (
	"context"
	"fmt"
)

// RodFetchFunc is the callback type that wraps the browser package's page
// rendering. It is injected from main.go to avoid a circular import
// (engine/ -> browser/).
type RodFetchFunc func(ctx context.Context, req *FetchRequest) (*FetchResult, error)

// RodEngine is a browser-based engine that delegates to a headless Chrome
// via a callback function.
type RodEngine struct {
	fetchFunc RodFetchFunc
}

// NewRodEngine creates a RodEngine. fetchFunc invokes the rod-based renderer
// (injected from main.go).
func NewRodEngine(fetchFunc RodFetchFunc) *RodEngine {
	return &RodEngine{fetchFunc: fetchFunc}
}

func (e *RodEngine) Name() string { return "browser" }

func (e *RodEngine) Fetch(ctx context.Context, req *FetchRequest) (*FetchResult, error) {
	if e.fetchFunc == nil {
		return nil, fmt.Errorf("%s: fetchFunc not configured", e.Name())
	}

	// Clone the request so the callback cannot mutate the caller's copy.
	r := *req

	result, err := e.fetchFunc(ctx, &r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.Name(), err)
	}

	result.EngineName = e.Name()
	return result, nil
}
