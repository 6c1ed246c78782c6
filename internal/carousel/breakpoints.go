package carousel

const (
	breakpointExtraSmall = 576
	breakpointSmall      = 768
	breakpointMedium     = 992
	breakpointLarge      = 1200
)

// VisibleCountForWidth returns how many slides fit side by side at a viewport width.
func VisibleCountForWidth(width float64) int {
	switch {
	case width < breakpointExtraSmall:
		return 1
	case width < breakpointSmall:
		return 1
	case width < breakpointMedium:
		return 2
	case width < breakpointLarge:
		return 3
	default:
		return 4
	}
}
