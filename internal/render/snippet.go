package render

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/MarkoPoloResearchLab/reviewhub/internal/widget"
)

// ScriptPath is the path the runtime bundle is served from on the API origin.
const ScriptPath = "/widget.js"

var snippetTemplate = template.Must(template.New("snippet").Parse(
	`<div id="{{.ContainerID}}"></div>
<script src="{{.ScriptURL}}" {{if .Carousel}}data-reviewhub-widget-id{{else}}data-widget-id{{end}}="{{.WidgetID}}" data-container-id="{{.ContainerID}}"{{if .Layout}} data-layout="{{.Layout}}"{{end}}{{if .ThemeColor}} data-theme-color="{{.ThemeColor}}"{{end}}{{if .Name}} data-name="{{.Name}}"{{end}} async></script>`,
))

type snippetView struct {
	ContainerID string
	ScriptURL   string
	Carousel    bool
	WidgetID    string
	Layout      string
	ThemeColor  string
	Name        string
}

// EmbedSnippet renders the host page markup for a script-tag embed. Carousel
// embeds use the carousel identifier attribute and container.
func EmbedSnippet(config widget.Config, scriptURL string) (string, error) {
	if validationErr := config.Validate(); validationErr != nil {
		return "", validationErr
	}
	view := snippetView{
		ContainerID: strings.TrimSpace(config.ContainerID),
		ScriptURL:   scriptURL,
		WidgetID:    config.WidgetID,
		ThemeColor:  strings.TrimSpace(config.ThemeColor),
		Name:        strings.TrimSpace(config.Name),
	}
	if config.Layout == widget.LayoutCarousel {
		view.Carousel = true
		if view.ContainerID == "" {
			view.ContainerID = widget.DefaultCarouselContainerID
		}
	} else if config.Layout != "" {
		view.Layout = config.Layout.String()
	}
	if view.ContainerID == "" {
		view.ContainerID = widget.DefaultContainerID
	}
	if view.ThemeColor != "" {
		view.ThemeColor = SanitizeThemeColor(view.ThemeColor)
	}
	var buffer bytes.Buffer
	if executeErr := snippetTemplate.Execute(&buffer, view); executeErr != nil {
		return "", fmt.Errorf("%w snippet: %w", ErrRenderTemplate, executeErr)
	}
	return buffer.String(), nil
}
