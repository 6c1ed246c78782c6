package widget

import "strings"

// Layout names one of the supported widget renderings.
type Layout string

const (
	LayoutGrid     Layout = "grid"
	LayoutList     Layout = "list"
	LayoutCarousel Layout = "carousel"
	LayoutMasonry  Layout = "masonry"
	LayoutBadge    Layout = "badge"

	// DefaultLayout is used when neither the embed nor the server names a valid layout.
	DefaultLayout = LayoutGrid

	defaultBatchSize = 12
	badgeBatchSize   = 8
)

var knownLayouts = map[Layout]struct{}{
	LayoutGrid:     {},
	LayoutList:     {},
	LayoutCarousel: {},
	LayoutMasonry:  {},
	LayoutBadge:    {},
}

// ParseLayout normalizes a raw layout value and reports whether it is supported.
func ParseLayout(rawInput string) (Layout, bool) {
	normalized := Layout(strings.ToLower(strings.TrimSpace(rawInput)))
	if _, known := knownLayouts[normalized]; !known {
		return "", false
	}
	return normalized, true
}

// ResolveLayout returns the first supported layout among the candidates or DefaultLayout.
func ResolveLayout(candidates ...string) Layout {
	for _, candidate := range candidates {
		if layout, ok := ParseLayout(candidate); ok {
			return layout
		}
	}
	return DefaultLayout
}

// InitialBatchSize is the number of reviews requested on first load.
func InitialBatchSize(layout Layout) int {
	if layout == LayoutBadge {
		return badgeBatchSize
	}
	return defaultBatchSize
}

func (layout Layout) String() string {
	return string(layout)
}
