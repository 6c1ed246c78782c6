package render

import "html/template"

const (
	AttributeAction      = "data-action"
	AttributeReviewIndex = "data-review-index"
	AttributeDotIndex    = "data-index"
	AttributeState       = "data-reviewhub-state"

	ActionReadMore        = "read-more"
	ActionCloseModal      = "close-modal"
	ActionRetry           = "retry"
	ActionTogglePanel     = "toggle-panel"
	ActionClosePanel      = "close-panel"
	ActionLoadMore        = "load-more"
	ActionCarouselPrev    = "carousel-prev"
	ActionCarouselNext    = "carousel-next"
	ActionCarouselDot     = "carousel-dot"
	ActionCarouselRestart = "carousel-restart"

	StateLoading = "loading"
	StateEmpty   = "empty"
	StateError   = "error"
	StateReady   = "ready"

	SelectorCard            = ".reviewhub-card"
	SelectorModalOverlay    = ".reviewhub-modal-overlay"
	SelectorSidePanel       = ".reviewhub-side-panel"
	SelectorPanelList       = ".reviewhub-side-panel-body"
	SelectorLoadMore        = ".reviewhub-load-more"
	SelectorCarousel        = ".reviewhub-carousel"
	SelectorCarouselView    = ".reviewhub-carousel-viewport"
	SelectorCarouselTrack   = ".reviewhub-carousel-track"
	SelectorCarouselSlide   = ".reviewhub-carousel-slide"
	SelectorCarouselArrow   = ".reviewhub-carousel-arrow"
	SelectorCarouselDots    = ".reviewhub-carousel-dots"
	SelectorCarouselRestart = ".reviewhub-carousel-restart"

	ClassOpen     = "open"
	ClassActive   = "active"
	ClassVisible  = "visible"
	ClassHidden   = "reviewhub-hidden"
	ClassDragging = "dragging"

	LoadMoreLabel        = "Load More"
	LoadMoreLoadingLabel = "Loading..."
)

var widgetTemplates = template.Must(template.New("widget").Parse(`
{{define "root-open"}}<div class="reviewhub-widget reviewhub-layout-{{.Layout}}" data-reviewhub-state="{{.State}}" style="{{.ThemeStyle}}">{{end}}

{{define "header"}}{{if .Title}}<div class="reviewhub-header"><div class="reviewhub-title">{{.Title}}</div><div class="reviewhub-summary">{{.AverageStars}}<span>{{.AverageLabel}}</span><span>{{.CountLabel}}</span></div></div>{{end}}{{end}}

{{define "avatar"}}<div class="reviewhub-avatar">{{if .AvatarURL}}<img src="{{.AvatarURL}}" alt="{{.Author}}" loading="lazy" referrerpolicy="no-referrer">{{else}}{{.Initials}}{{end}}</div>{{end}}

{{define "card"}}<article class="reviewhub-card" data-review-index="{{.Index}}">
<div class="reviewhub-card-header">{{template "avatar" .}}<div class="reviewhub-meta"><span class="reviewhub-author">{{.Author}}</span>{{if .Date}}<span class="reviewhub-date">{{.Date}}</span>{{end}}</div><span class="reviewhub-platform reviewhub-platform-{{.Source}}" title="{{.SourceLabel}}"><i class="fab fa-{{.Source}}"></i></span></div>
{{if .Stars}}<div class="reviewhub-rating">{{.Stars}}</div>{{else if .Recommendation}}<div class="reviewhub-recommendation reviewhub-recommendation-{{.RecommendationTone}}"><i class="fas {{.RecommendationIcon}}"></i>{{.Recommendation}}</div>{{end}}
<p class="reviewhub-content">{{.Content}}</p>
{{if .Truncated}}<button type="button" class="reviewhub-read-more" data-action="read-more" data-review-index="{{.Index}}">Read more</button>{{end}}
</article>{{end}}

{{define "cards"}}{{range .}}{{template "card" .}}{{end}}{{end}}

{{define "collection"}}{{template "root-open" .}}{{template "header" .}}<div class="reviewhub-{{.Layout}}">{{template "cards" .Cards}}</div></div>{{end}}

{{define "badge"}}{{template "root-open" .}}
<div class="reviewhub-badge" data-action="toggle-panel" role="button" tabindex="0">
<span class="reviewhub-platform reviewhub-platform-{{.Source}}"><i class="fab fa-{{.Source}}"></i></span>
<span class="reviewhub-badge-score">{{.AverageLabel}}</span>
<span class="reviewhub-badge-details">{{.AverageStars}}<span class="reviewhub-badge-count">{{.CountLabel}}</span></span>
</div>
<aside class="reviewhub-side-panel" aria-hidden="true">
<div class="reviewhub-side-panel-header"><div><div class="reviewhub-title">{{if .Title}}{{.Title}}{{else}}Reviews{{end}}</div><div class="reviewhub-summary">{{.AverageStars}}<span>{{.AverageLabel}}</span><span>{{.CountLabel}}</span>{{if .Link}}<a href="{{.Link}}" target="_blank" rel="noopener noreferrer">View all</a>{{end}}</div></div><button type="button" class="reviewhub-modal-close" data-action="close-panel" aria-label="Close">&times;</button></div>
<div class="reviewhub-side-panel-body">{{template "cards" .Cards}}</div>
<button type="button" class="reviewhub-load-more{{if not .HasMore}} reviewhub-hidden{{end}}" data-action="load-more">Load More</button>
</aside></div>{{end}}

{{define "dots"}}{{range .}}<button type="button" class="reviewhub-carousel-dot{{if .Active}} active{{end}}" data-action="carousel-dot" data-index="{{.Index}}" aria-label="Go to slide {{.Label}}"></button>{{end}}{{end}}

{{define "carousel"}}{{template "root-open" .}}{{template "header" .}}
<div class="reviewhub-carousel">
<button type="button" class="reviewhub-carousel-arrow reviewhub-carousel-prev{{if not .ShowArrows}} reviewhub-hidden{{end}}" data-action="carousel-prev" aria-label="Previous"><i class="fas fa-chevron-left"></i></button>
<div class="reviewhub-carousel-viewport"><div class="reviewhub-carousel-track" style="transform: translateX(0%)">{{range .Cards}}<div class="reviewhub-carousel-slide">{{template "card" .}}</div>{{end}}</div></div>
<button type="button" class="reviewhub-carousel-arrow reviewhub-carousel-next{{if not .ShowArrows}} reviewhub-hidden{{end}}" data-action="carousel-next" aria-label="Next"><i class="fas fa-chevron-right"></i></button>
<div class="reviewhub-carousel-dots{{if not .ShowArrows}} reviewhub-hidden{{end}}">{{template "dots" .Dots}}</div>
<button type="button" class="reviewhub-carousel-restart" data-action="carousel-restart"><i class="fas fa-redo"></i> Start over</button>
</div></div>{{end}}

{{define "modal"}}<div class="reviewhub-modal-overlay"><div class="reviewhub-modal" role="dialog" aria-modal="true">
<button type="button" class="reviewhub-modal-close" data-action="close-modal" aria-label="Close">&times;</button>
<div class="reviewhub-card-header">{{template "avatar" .}}<div class="reviewhub-meta"><span class="reviewhub-author">{{.Author}}</span>{{if .Date}}<span class="reviewhub-date">{{.Date}}</span>{{end}}</div></div>
{{if .Stars}}<div class="reviewhub-rating">{{.Stars}}</div>{{end}}
<p class="reviewhub-content">{{.FullContent}}</p>
</div></div>{{end}}

{{define "panel"}}{{template "root-open" .}}<div class="reviewhub-panel{{if eq .State "error"}} reviewhub-panel-error{{end}}">{{if eq .State "loading"}}<div class="reviewhub-spinner"></div>{{end}}<div class="reviewhub-panel-title">{{.Title}}</div><div class="reviewhub-panel-message">{{.Message}}</div>{{if .Retry}}<button type="button" class="reviewhub-retry" data-action="retry">Try Again</button>{{end}}</div></div>{{end}}
`))
