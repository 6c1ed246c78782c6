package widget

import (
	"errors"
	"strings"
)

const (
	// AttributeWidgetID carries the widget identifier on generic embeds.
	AttributeWidgetID = "data-widget-id"
	// AttributeCarouselWidgetID carries the widget identifier on carousel embeds.
	AttributeCarouselWidgetID = "data-reviewhub-widget-id"
	AttributeContainerID      = "data-container-id"
	AttributeThemeColor       = "data-theme-color"
	AttributeLayout           = "data-layout"
	AttributeName             = "data-name"

	// DefaultContainerID is used when an embed does not name its container.
	DefaultContainerID = "reviewhub-widget"
	// DefaultCarouselContainerID is used for carousel embeds without a container id.
	DefaultCarouselContainerID = "reviewhub-carousel-widget"

	errorMessageMissingWidgetID = "widget: missing widget id"
)

// ErrMissingWidgetID indicates an embed without a widget identifier.
var ErrMissingWidgetID = errors.New(errorMessageMissingWidgetID)

// Config describes one embedded widget. It is built once per embed and not mutated afterwards.
type Config struct {
	WidgetID    string
	ContainerID string
	ThemeColor  string
	Layout      Layout
	Name        string
	APIOrigin   string
}

// AttributeSource exposes element attributes.
type AttributeSource interface {
	Attribute(name string) (string, bool)
}

// AttributeMap adapts a plain map to AttributeSource.
type AttributeMap map[string]string

func (attributes AttributeMap) Attribute(name string) (string, bool) {
	value, found := attributes[name]
	return value, found
}

// ConfigFromAttributes builds a Config from embed attributes.
// Unknown layouts are dropped so the server setting or DefaultLayout applies.
func ConfigFromAttributes(source AttributeSource) (Config, error) {
	config := Config{}
	carouselEmbed := false

	if widgetID, found := source.Attribute(AttributeWidgetID); found && strings.TrimSpace(widgetID) != "" {
		config.WidgetID = strings.TrimSpace(widgetID)
	} else if carouselWidgetID, carouselFound := source.Attribute(AttributeCarouselWidgetID); carouselFound && strings.TrimSpace(carouselWidgetID) != "" {
		config.WidgetID = strings.TrimSpace(carouselWidgetID)
		carouselEmbed = true
	}

	if containerID, found := source.Attribute(AttributeContainerID); found {
		config.ContainerID = strings.TrimSpace(containerID)
	}
	if themeColor, found := source.Attribute(AttributeThemeColor); found {
		config.ThemeColor = strings.TrimSpace(themeColor)
	}
	if name, found := source.Attribute(AttributeName); found {
		config.Name = strings.TrimSpace(name)
	}
	if rawLayout, found := source.Attribute(AttributeLayout); found {
		if layout, ok := ParseLayout(rawLayout); ok {
			config.Layout = layout
		}
	}
	if carouselEmbed && config.Layout == "" {
		config.Layout = LayoutCarousel
	}

	if config.ContainerID == "" {
		config.ContainerID = DefaultContainerID
		if carouselEmbed {
			config.ContainerID = DefaultCarouselContainerID
		}
	}

	if validationErr := config.Validate(); validationErr != nil {
		return Config{}, validationErr
	}
	return config, nil
}

// Validate reports configuration errors that prevent rendering.
func (config Config) Validate() error {
	if strings.TrimSpace(config.WidgetID) == "" {
		return ErrMissingWidgetID
	}
	return nil
}

// EffectiveLayout resolves the embed override against the server setting.
func (config Config) EffectiveLayout(settings Settings) Layout {
	return ResolveLayout(string(config.Layout), settings.Layout)
}

// EffectiveThemeColor resolves the embed override against the server setting.
func (config Config) EffectiveThemeColor(settings Settings) string {
	if trimmed := strings.TrimSpace(config.ThemeColor); trimmed != "" {
		return trimmed
	}
	return strings.TrimSpace(settings.ThemeColor)
}
