package runtime

import (
	"net/url"
	"strings"
)

// DefaultProductionOrigin is the API origin used when nothing on the page names one.
const DefaultProductionOrigin = "https://api.reviewhub.app"

const localHostnameSuffix = ".local"

var localDevHostnames = map[string]struct{}{
	"localhost": {},
	"127.0.0.1": {},
	"0.0.0.0":   {},
}

// ResolveAPIOrigin picks the API origin in priority order: the origin of the
// embedding script's src, the page-level override, the page origin on a local
// development hostname, and finally the production origin.
func ResolveAPIOrigin(scriptSource string, override string, pageOrigin string, pageHostname string, productionOrigin string) string {
	if origin := originOf(scriptSource, pageOrigin); origin != "" {
		return origin
	}
	if normalizedOverride := normalizeBaseURL(override); normalizedOverride != "" {
		return normalizedOverride
	}
	if isLocalDevHostname(pageHostname) {
		if normalizedPageOrigin := normalizeBaseURL(pageOrigin); normalizedPageOrigin != "" {
			return normalizedPageOrigin
		}
	}
	if normalizedProduction := normalizeBaseURL(productionOrigin); normalizedProduction != "" {
		return normalizedProduction
	}
	return DefaultProductionOrigin
}

// originOf resolves a script src against the page the way a browser reports
// script.src, then keeps scheme and host.
func originOf(rawSource string, pageOrigin string) string {
	trimmed := strings.TrimSpace(rawSource)
	if trimmed == "" {
		return ""
	}
	parsedSource, parseErr := url.Parse(trimmed)
	if parseErr != nil {
		return ""
	}
	if !parsedSource.IsAbs() && parsedSource.Host == "" {
		base, baseErr := url.Parse(normalizeBaseURL(pageOrigin))
		if baseErr != nil || base.Scheme == "" || base.Host == "" {
			return ""
		}
		parsedSource = base.ResolveReference(parsedSource)
	}
	if parsedSource.Scheme == "" && parsedSource.Host != "" {
		base, baseErr := url.Parse(normalizeBaseURL(pageOrigin))
		if baseErr != nil || base.Scheme == "" {
			return ""
		}
		parsedSource.Scheme = base.Scheme
	}
	if parsedSource.Scheme != "http" && parsedSource.Scheme != "https" {
		return ""
	}
	if parsedSource.Host == "" {
		return ""
	}
	return parsedSource.Scheme + "://" + parsedSource.Host
}

func isLocalDevHostname(hostname string) bool {
	normalized := strings.ToLower(strings.TrimSpace(hostname))
	if normalized == "" {
		return false
	}
	if _, found := localDevHostnames[normalized]; found {
		return true
	}
	return strings.HasSuffix(normalized, localHostnameSuffix)
}

func normalizeBaseURL(value string) string {
	return strings.TrimRight(strings.TrimSpace(value), "/")
}
