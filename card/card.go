// Package card renders product metadata as a self-contained HTML link card
// suitable for pasting into a CMS HTML block.
package card

import (
	"strings"
	"text/template"

	"github.com/use-agent/linkcard/models"
)

// CTA is the call-to-action label shown on every card.
const CTA = "Amazonで見る →"

// escaper covers exactly the five characters that matter in both text and
// quoted attribute positions.
var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// Escape replaces & < > " ' with their HTML entities.
func Escape(s string) string {
	return escaper.Replace(s)
}

// Every interpolation goes through esc, in attributes and text alike.
var cardTemplate = template.Must(template.New("card").
	Funcs(template.FuncMap{"esc": Escape, "cta": func() string { return CTA }}).
	Parse(`
<div class="amazon-link-card" style="
  max-width: 600px;
  border: 1px solid #ddd;
  border-radius: 8px;
  overflow: hidden;
  display: flex;
  font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
  box-shadow: 0 2px 8px rgba(0,0,0,0.1);
  margin: 20px auto;
">
  <a href="{{esc .URL}}"
     target="_blank"
     rel="noopener noreferrer"
     style="text-decoration: none; color: inherit; display: flex; flex-direction: row;">

    <div style="flex: 0 0 180px; background: #f7f7f7; display: flex; align-items: center; justify-content: center; padding: 16px;">
      <img src="{{esc .Image}}"
           alt="{{esc .Title}}"
           style="max-width: 100%; max-height: 200px; object-fit: contain;">
    </div>

    <div style="flex: 1; padding: 16px; display: flex; flex-direction: column; justify-content: space-between;">
      <div>
        <h3 style="margin: 0 0 8px 0; font-size: 16px; font-weight: 600; line-height: 1.4; color: #111;">
          {{esc .Title}}
        </h3>
        <p style="margin: 0 0 12px 0; font-size: 14px; color: #666; line-height: 1.5;">
          {{esc .Description}}
        </p>
      </div>
{{if .HasPrice}}
      <div style="display: flex; align-items: center; justify-content: space-between;">
        <span style="font-size: 18px; font-weight: 700; color: #B12704;">
          {{esc .Price}}
        </span>
        <span style="font-size: 12px; color: #0066c0; font-weight: 500;">
          {{cta}}
        </span>
      </div>
{{else}}
      <div style="text-align: right;">
        <span style="font-size: 12px; color: #0066c0; font-weight: 500;">
          {{cta}}
        </span>
      </div>
{{end}}
    </div>
  </a>
</div>

<style>
@media (max-width: 600px) {
  .amazon-link-card a {
    flex-direction: column !important;
  }
  .amazon-link-card a > div:first-child {
    flex: 0 0 auto !important;
    padding: 20px !important;
  }
}
</style>
`))

// Render returns the card markup for m with no leading or trailing
// whitespace. It is deterministic and never fails.
func Render(m models.ProductMetadata) string {
	var b strings.Builder
	// Execution over a fixed template and a plain struct cannot fail.
	_ = cardTemplate.Execute(&b, m)
	return strings.TrimSpace(b.String())
}
