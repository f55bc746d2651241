// Package render builds the small set of HTML pages the service serves when
// it cannot redirect: the not-found page and the two error pages. Everything
// else is a 302 to REDCap.
package render

import (
	"fmt"
	"html"
)

const supportHTML = `Please contact Husky Coronavirus Testing support by emailing ` +
	`<a href="mailto:huskytest@uw.edu">huskytest@uw.edu</a> or by calling ` +
	`<a href="tel:+12066162414">(206) 616-2414</a>.`

// NotFoundPage is the 404 page.
func NotFoundPage() string {
	return buildHTML("Page Not Found",
		`<p>The page you were looking for does not exist.</p>
    <p><a href="/">Go to your survey</a></p>`)
}

// InvalidNetIDPage is the 400 page shown when the SSO identity carries a
// malformed NetID. The NetID is escaped because it is user-controlled.
func InvalidNetIDPage(netid string) string {
	return buildHTML("Invalid NetID",
		fmt.Sprintf(`<p>The NetID <code>%s</code> is not a valid UW NetID, so we can't look up your surveys.</p>
    <p>%s</p>`, html.EscapeString(netid), supportHTML))
}

// ErrorPage is the generic 500 page.
func ErrorPage() string {
	return buildHTML("Something Went Wrong",
		fmt.Sprintf(`<p>Sorry, something went wrong on our end.</p>
    <p>%s</p>`, supportHTML))
}

// buildHTML creates the full HTML document structure
func buildHTML(title, bodyContent string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>%s - Husky Musher</title>
  <style>
    body { font-family: system-ui, -apple-system, sans-serif; max-width: 640px; margin: 2rem auto; padding: 0 1rem; line-height: 1.6; }
    h1 { color: #333; margin-bottom: 0.5rem; }
    code { background: #f4f4f4; padding: 0.1rem 0.3rem; border-radius: 3px; }
    footer { margin-top: 3rem; padding-top: 2rem; border-top: 1px solid #ddd; color: #666; font-size: 0.9rem; }
  </style>
</head>
<body>
  <h1>%s</h1>
  <div class="content">
    %s
  </div>
  <footer>Husky Coronavirus Testing &mdash; University of Washington</footer>
</body>
</html>
`, html.EscapeString(title), html.EscapeString(title), bodyContent)
}
