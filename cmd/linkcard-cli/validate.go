package main

import (
	"fmt"

	"github.com/use-agent/linkcard/models"
	"github.com/use-agent/linkcard/urlnorm"
)

// Run executes the validate command.
func (c *ValidateCmd) Run(deps *Dependencies) error {
	v := urlnorm.Validate(c.URL)
	if !v.Valid {
		fmt.Fprintf(deps.Stderr, "invalid: %s\n", v.Reason)
		return models.NewLinkCardError(models.ErrCodeInvalidURL, v.Reason, nil)
	}

	normalized, err := urlnorm.Normalize(c.URL)
	if err != nil {
		return err
	}
	fmt.Fprintf(deps.Stdout, "valid\nnormalized: %s\n", normalized)
	if asin, ok := urlnorm.ExtractASIN(c.URL); ok {
		fmt.Fprintf(deps.Stdout, "asin: %s\n", asin)
	}
	return nil
}
