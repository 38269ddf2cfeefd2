package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/use-agent/linkcard/extractor"
	"github.com/use-agent/linkcard/models"
	"github.com/use-agent/linkcard/state"
)

// Run executes the extract command.
func (c *ExtractCmd) Run(deps *Dependencies) error {
	var (
		meta models.ProductMetadata
		tr   extractor.Trace
		err  error
	)
	if c.File != "" {
		meta, tr, err = c.extractFile()
	} else {
		var cookie string
		if cookie, err = resolveCookie(deps, c.Cookie, c.NoCookie); err != nil {
			return err
		}
		meta, tr, err = deps.Fetcher.FetchAndExtractTrace(deps.Ctx, c.URL, cookie)
	}

	if c.Trace {
		printTrace(deps, tr)
	}
	if err != nil {
		reportFailure(deps, state.LinkCard{}.Fail(err))
		return err
	}

	enc := json.NewEncoder(deps.Stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func (c *ExtractCmd) extractFile() (models.ProductMetadata, extractor.Trace, error) {
	page, err := os.ReadFile(c.File)
	if err != nil {
		return models.ProductMetadata{}, extractor.Trace{}, fmt.Errorf("read %s: %w", c.File, err)
	}

	if c.Strategy == extractor.DOMStrategy.Name {
		return extractor.ExtractTrace(extractor.NewDOM(extractor.ParseString(string(page))), extractor.DOMStrategy, c.URL)
	}
	return extractor.ExtractTrace(extractor.NewRawHTML(string(page)), extractor.HTMLStrategy, c.URL)
}

func printTrace(deps *Dependencies, tr extractor.Trace) {
	for _, f := range []struct {
		name string
		tier int
	}{
		{"title", tr.Title},
		{"image", tr.Image},
		{"description", tr.Description},
		{"price", tr.Price},
	} {
		if f.tier == 0 {
			fmt.Fprintf(deps.Stderr, "%-12s none\n", f.name)
			continue
		}
		fmt.Fprintf(deps.Stderr, "%-12s tier %d\n", f.name, f.tier)
	}
}
