package fetcher

import (
	"context"

	"github.com/use-agent/linkcard/engine"
	"github.com/use-agent/linkcard/extractor"
	"github.com/use-agent/linkcard/models"
)

// Modes holds one Fetcher per registered fetch mode.
type Modes struct {
	registry *engine.Registry
	fetchers map[string]*Fetcher
}

// NewModes builds a Fetcher for every engine in reg. Pages rendered by the
// browser engine are read with extractor.DOMStrategy, everything else with
// extractor.HTMLStrategy.
func NewModes(reg *engine.Registry, opts ...Option) *Modes {
	m := &Modes{registry: reg, fetchers: make(map[string]*Fetcher)}
	for _, mode := range reg.Modes() {
		eng, _ := reg.Select(mode)
		modeOpts := opts
		if mode == models.FetchModeBrowser {
			modeOpts = append(append([]Option(nil), opts...), WithStrategy(extractor.DOMStrategy))
		}
		m.fetchers[mode] = New(eng, modeOpts...)
	}
	return m
}

// FetchAndExtract runs the Fetcher for mode. An empty mode selects the
// registry default. A mode with no engine fails with INVALID_INPUT.
func (m *Modes) FetchAndExtract(ctx context.Context, mode, rawURL, cookie string) (models.ProductMetadata, error) {
	eng, err := m.registry.Select(mode)
	if err != nil {
		return models.ProductMetadata{}, models.NewLinkCardError(models.ErrCodeInvalidInput, "fetch mode not available", err)
	}
	return m.fetchers[eng.Name()].FetchAndExtract(ctx, rawURL, cookie)
}

// Available reports whether mode can be served.
func (m *Modes) Available(mode string) bool {
	return m.registry.Has(mode)
}
