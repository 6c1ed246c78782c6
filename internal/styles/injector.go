// Package styles owns the single stylesheet shared by every widget on a host page.
package styles

import (
	"fmt"
	"html"
	"strings"

	"github.com/MarkoPoloResearchLab/reviewhub/internal/dom"
)

const (
	// StyleElementID marks the injected style element.
	StyleElementID = "reviewhub-widget-styles"
)

type externalStylesheet struct {
	href       string
	hrefMarker string
}

var externalStylesheets = []externalStylesheet{
	{href: FontStylesheetURL, hrefMarker: FontHrefMarker},
	{href: IconStylesheetURL, hrefMarker: IconHrefMarker},
}

// Inject adds the shared stylesheet and the external font and icon links to the
// document. It reports whether a new style element was created; calling it again
// is a no-op.
func Inject(document *dom.Document) (bool, error) {
	target := document.Head()
	if target == nil {
		target = document.Body()
	}
	if target == nil {
		return false, fmt.Errorf("styles: document has neither head nor body")
	}

	for _, stylesheet := range externalStylesheets {
		if hasLinkContaining(document, stylesheet.hrefMarker) {
			continue
		}
		linkMarkup := fmt.Sprintf(`<link rel="stylesheet" href="%s">`, html.EscapeString(stylesheet.href))
		if _, appendErr := document.AppendHTML(target, linkMarkup); appendErr != nil {
			return false, appendErr
		}
	}

	if document.ElementByID(StyleElementID) != nil {
		return false, nil
	}
	styleMarkup := fmt.Sprintf(`<style id="%s">%s</style>`, StyleElementID, Stylesheet())
	if _, appendErr := document.AppendHTML(target, styleMarkup); appendErr != nil {
		return false, appendErr
	}
	return true, nil
}

func hasLinkContaining(document *dom.Document, hrefMarker string) bool {
	for _, link := range document.Find("link") {
		href, found := document.Attribute(link, "href")
		if found && strings.Contains(href, hrefMarker) {
			return true
		}
	}
	return false
}
