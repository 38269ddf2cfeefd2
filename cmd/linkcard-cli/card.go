package main

import (
	"encoding/json"
	"fmt"

	"github.com/use-agent/linkcard/card"
	"github.com/use-agent/linkcard/models"
	"github.com/use-agent/linkcard/state"
	"github.com/use-agent/linkcard/urlnorm"
)

// noAffiliateTag disables the affiliate rewrite.
const noAffiliateTag = "-"

// cardOutput is the --json shape of the card command.
type cardOutput struct {
	Metadata models.ProductMetadata `json:"metadata"`
	HTML     string                 `json:"html"`
}

// Run executes the card command.
func (c *CardCmd) Run(deps *Dependencies) error {
	s := state.LinkCard{}.SetURL(c.URL)

	if v := urlnorm.Validate(c.URL); !v.Valid {
		fmt.Fprintf(deps.Stderr, "error: %s\n", v.Reason)
		return models.NewLinkCardError(models.ErrCodeInvalidURL, v.Reason, nil)
	}

	cookie, err := resolveCookie(deps, c.Cookie, c.NoCookie)
	if err != nil {
		return err
	}

	s = s.BeginFetch()
	meta, _, err := deps.Fetcher.FetchAndExtractTrace(deps.Ctx, c.URL, cookie)
	if err != nil {
		s = s.Fail(err)
		reportFailure(deps, s)
		return err
	}

	tag := c.Tag
	if tag == "" {
		tag = deps.AffiliateTag
	}
	if tag != "" && tag != noAffiliateTag {
		meta.URL = urlnorm.ToAffiliateLink(meta.URL, tag)
	}

	s = s.Succeed(meta, card.Render(meta))

	if c.JSON {
		enc := json.NewEncoder(deps.Stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(cardOutput{Metadata: *s.Metadata, HTML: s.HTML})
	}
	fmt.Fprintln(deps.Stdout, s.HTML)
	return nil
}

// reportFailure prints the user-facing message of a failed state, with a
// hint when a cookie would help.
func reportFailure(deps *Dependencies, s state.LinkCard) {
	fmt.Fprintf(deps.Stderr, "error: %s\n", s.Err)
	if s.Code == models.ErrCodeCredentialRequired {
		fmt.Fprintln(deps.Stderr, "Hint: save a session cookie with 'linkcard-cli cookie set <value>'")
	}
}
