package httpapi

import (
	"strconv"
	"strings"

	"github.com/MarkoPoloResearchLab/reviewhub/internal/widget"
)

func normalizeBaseURL(value string) string {
	trimmed := strings.TrimSpace(value)
	return strings.TrimRight(trimmed, "/")
}

func joinBaseURL(baseURL string, path string) string {
	normalizedBaseURL := normalizeBaseURL(baseURL)
	if normalizedBaseURL == "" {
		return path
	}
	if path == "" {
		return normalizedBaseURL
	}
	if strings.HasPrefix(path, "/") {
		return normalizedBaseURL + path
	}
	return normalizedBaseURL + "/" + path
}

// parseLayoutParameter accepts an empty value as "no override".
func parseLayoutParameter(rawValue string) (widget.Layout, bool) {
	if strings.TrimSpace(rawValue) == "" {
		return "", true
	}
	return widget.ParseLayout(rawValue)
}

// parseViewportParameter accepts an empty value as "default viewport".
func parseViewportParameter(rawValue string) (float64, bool) {
	trimmed := strings.TrimSpace(rawValue)
	if trimmed == "" {
		return 0, true
	}
	width, parseErr := strconv.ParseFloat(trimmed, 64)
	if parseErr != nil || width <= 0 || width > maximumViewportWidth {
		return 0, false
	}
	return width, true
}
