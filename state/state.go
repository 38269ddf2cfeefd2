// Package state holds the link card generation state as an explicit value.
//
// Transitions return a new LinkCard; nothing is shared between values, so a
// caller owns its state and passes it where it is needed.
package state

import (
	"github.com/use-agent/linkcard/models"
)

// LinkCard is the state of one link card generation.
type LinkCard struct {
	URL      string
	Metadata *models.ProductMetadata
	HTML     string
	Loading  bool

	// Err is the user-facing message of the last failure, "" when none.
	Err string

	// Code is the classification of the last failure.
	Code string
}

// SetURL starts over with a new input URL.
func (s LinkCard) SetURL(url string) LinkCard {
	return LinkCard{URL: url}
}

// BeginFetch marks a fetch in flight and clears the previous failure.
func (s LinkCard) BeginFetch() LinkCard {
	s.Loading = true
	s.Err = ""
	s.Code = ""
	return s
}

// Succeed records the extracted metadata and the rendered card.
func (s LinkCard) Succeed(m models.ProductMetadata, html string) LinkCard {
	s.Metadata = &m
	s.HTML = html
	s.Loading = false
	s.Err = ""
	s.Code = ""
	return s
}

// Fail records err. The metadata and card of an earlier success are dropped.
func (s LinkCard) Fail(err error) LinkCard {
	code := models.CodeOf(err)
	s.Metadata = nil
	s.HTML = ""
	s.Loading = false
	s.Code = code
	s.Err = models.UserMessage(code)
	return s
}

// Reset returns the zero state.
func (s LinkCard) Reset() LinkCard {
	return LinkCard{}
}

// Done reports whether a card is ready.
func (s LinkCard) Done() bool {
	return !s.Loading && s.HTML != ""
}

// Failed reports whether the last fetch failed.
func (s LinkCard) Failed() bool {
	return s.Err != ""
}
