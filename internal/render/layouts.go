package render

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/MarkoPoloResearchLab/reviewhub/internal/styles"
	"github.com/MarkoPoloResearchLab/reviewhub/internal/widget"
)

const (
	EmptyPanelTitle    = "No reviews yet"
	EmptyPanelMessage  = "Reviews will appear here once customers share their experience."
	ErrorPanelTitle    = "Unable to load reviews"
	LoadingPanelTitle  = "Loading reviews"
	loadingPanelDetail = "Fetching the latest reviews..."

	recommendationPositiveLabel = "Recommends"
	recommendationNegativeLabel = "Doesn't recommend"

	templateNameCollection = "collection"
	templateNameBadge      = "badge"
	templateNameCarousel   = "carousel"
	templateNameCards      = "cards"
	templateNameDots       = "dots"
	templateNameModal      = "modal"
	templateNamePanel      = "panel"

	errorMessageRenderTemplate = "render: execute template"
)

// ErrRenderTemplate wraps template execution failures.
var ErrRenderTemplate = errors.New(errorMessageRenderTemplate)

// Options carries render-time inputs that are not part of the widget payload.
type Options struct {
	Now          time.Time
	VisibleCount int
}

func (options Options) now() time.Time {
	if options.Now.IsZero() {
		return time.Now()
	}
	return options.Now
}

func (options Options) visibleCount() int {
	if options.VisibleCount < 1 {
		return 1
	}
	return options.VisibleCount
}

// Renderable is the markup produced for one widget together with the reviews
// its cards index into.
type Renderable struct {
	Layout    widget.Layout
	HTML      template.HTML
	CardCount int
	Reviews   []widget.Review
	Empty     bool
}

type cardView struct {
	Index              int
	Author             string
	AvatarURL          string
	Initials           string
	Date               string
	Source             string
	SourceLabel        string
	Stars              template.HTML
	Recommendation     string
	RecommendationTone string
	RecommendationIcon string
	Content            string
	FullContent        string
	Truncated          bool
}

type dotView struct {
	Index  int
	Label  int
	Active bool
}

type rootView struct {
	Layout       widget.Layout
	State        string
	ThemeStyle   template.CSS
	Title        string
	AverageStars template.HTML
	AverageLabel string
	CountLabel   string
	Link         string
	Source       string
	Cards        []cardView
	HasMore      bool
	ShowArrows   bool
	Dots         []dotView
	Message      string
	Retry        bool
}

// Dispatch filters reviews by the minimum rating and renders the layout.
func Dispatch(layout widget.Layout, data widget.Data, config widget.Config, options Options) (Renderable, error) {
	reviews := widget.FilterByMinRating(data.Reviews, data.Settings.MinRating)
	if layout == widget.LayoutCarousel {
		reviews = widget.WithContent(reviews)
	}
	if len(reviews) == 0 {
		return Renderable{
			Layout: layout,
			HTML:   EmptyPanel(layout, config.EffectiveThemeColor(data.Settings)),
			Empty:  true,
		}, nil
	}
	switch layout {
	case widget.LayoutBadge:
		return Badge(data, reviews, config, options)
	case widget.LayoutCarousel:
		return Carousel(data, reviews, config, options)
	case widget.LayoutList:
		return List(data, reviews, config, options)
	case widget.LayoutMasonry:
		return Masonry(data, reviews, config, options)
	default:
		return Grid(data, reviews, config, options)
	}
}

// Grid renders cards in a responsive grid.
func Grid(data widget.Data, reviews []widget.Review, config widget.Config, options Options) (Renderable, error) {
	return renderCollection(widget.LayoutGrid, data, reviews, config, options)
}

// List renders cards in a single column.
func List(data widget.Data, reviews []widget.Review, config widget.Config, options Options) (Renderable, error) {
	return renderCollection(widget.LayoutList, data, reviews, config, options)
}

// Masonry renders cards in CSS columns.
func Masonry(data widget.Data, reviews []widget.Review, config widget.Config, options Options) (Renderable, error) {
	return renderCollection(widget.LayoutMasonry, data, reviews, config, options)
}

func renderCollection(layout widget.Layout, data widget.Data, reviews []widget.Review, config widget.Config, options Options) (Renderable, error) {
	view := newRootView(layout, data, config)
	view.Cards = cardViews(reviews, data.Settings, 0, options.now())
	markup, renderErr := execute(templateNameCollection, view)
	if renderErr != nil {
		return Renderable{}, renderErr
	}
	return Renderable{Layout: layout, HTML: markup, CardCount: len(view.Cards), Reviews: reviews}, nil
}

// Badge renders the summary badge and its side panel. Load More stays visible
// while fewer reviews than the server total have been fetched.
func Badge(data widget.Data, reviews []widget.Review, config widget.Config, options Options) (Renderable, error) {
	view := newRootView(widget.LayoutBadge, data, config)
	view.Cards = cardViews(reviews, data.Settings, 0, options.now())
	view.HasMore = len(data.Reviews) < data.TotalCount()
	markup, renderErr := execute(templateNameBadge, view)
	if renderErr != nil {
		return Renderable{}, renderErr
	}
	return Renderable{Layout: widget.LayoutBadge, HTML: markup, CardCount: len(view.Cards), Reviews: reviews}, nil
}

// BadgeCards renders a batch of cards appended to an open badge panel.
func BadgeCards(reviews []widget.Review, settings widget.Settings, startIndex int, options Options) (template.HTML, error) {
	return execute(templateNameCards, cardViews(reviews, settings, startIndex, options.now()))
}

// Carousel renders the slide track, arrows, dots and restart control.
func Carousel(data widget.Data, reviews []widget.Review, config widget.Config, options Options) (Renderable, error) {
	view := newRootView(widget.LayoutCarousel, data, config)
	view.Cards = cardViews(reviews, data.Settings, 0, options.now())
	visibleCount := options.visibleCount()
	view.ShowArrows = len(reviews) > visibleCount
	view.Dots = dotViews(max(0, len(reviews)-visibleCount)+1, 0)
	markup, renderErr := execute(templateNameCarousel, view)
	if renderErr != nil {
		return Renderable{}, renderErr
	}
	return Renderable{Layout: widget.LayoutCarousel, HTML: markup, CardCount: len(view.Cards), Reviews: reviews}, nil
}

// CarouselDots renders count dot buttons with the active one highlighted.
func CarouselDots(count int, active int) template.HTML {
	markup, renderErr := execute(templateNameDots, dotViews(count, active))
	if renderErr != nil {
		return ""
	}
	return markup
}

// Modal renders the full-text overlay for one review.
func Modal(review widget.Review, settings widget.Settings, now time.Time) template.HTML {
	views := cardViews([]widget.Review{review}, settings, 0, now)
	markup, renderErr := execute(templateNameModal, views[0])
	if renderErr != nil {
		return ""
	}
	return markup
}

// LoadingPanel is shown while the first batch is fetched.
func LoadingPanel(layout widget.Layout, themeColor string) template.HTML {
	return panel(layout, themeColor, StateLoading, LoadingPanelTitle, loadingPanelDetail, false)
}

// EmptyPanel is shown when no review passes the filters.
func EmptyPanel(layout widget.Layout, themeColor string) template.HTML {
	return panel(layout, themeColor, StateEmpty, EmptyPanelTitle, EmptyPanelMessage, false)
}

// ErrorPanel is shown when fetching failed. retry adds the Try Again action.
func ErrorPanel(layout widget.Layout, themeColor string, message string, retry bool) template.HTML {
	return panel(layout, themeColor, StateError, ErrorPanelTitle, message, retry)
}

func panel(layout widget.Layout, themeColor string, state string, title string, message string, retry bool) template.HTML {
	view := rootView{
		Layout:     layout,
		State:      state,
		ThemeStyle: themeStyle(themeColor),
		Title:      title,
		Message:    message,
		Retry:      retry,
	}
	markup, renderErr := execute(templateNamePanel, view)
	if renderErr != nil {
		return ""
	}
	return markup
}

func newRootView(layout widget.Layout, data widget.Data, config widget.Config) rootView {
	average := data.AverageRatingValue()
	return rootView{
		Layout:       layout,
		State:        StateReady,
		ThemeStyle:   themeStyle(config.EffectiveThemeColor(data.Settings)),
		Title:        data.DisplayName(config),
		AverageStars: StarsHTML(average),
		AverageLabel: formatRating(average),
		CountLabel:   reviewCountLabel(data.TotalCount()),
		Link:         data.BusinessLink(),
		Source:       widget.NormalizeSource(data.Settings.BusinessURL.Source),
	}
}

func cardViews(reviews []widget.Review, settings widget.Settings, startIndex int, now time.Time) []cardView {
	views := make([]cardView, 0, len(reviews))
	for offset, review := range reviews {
		content, truncated := Truncate(review.Content)
		view := cardView{
			Index:       startIndex + offset,
			Author:      review.Author,
			Initials:    Initials(review.Author),
			Source:      widget.NormalizeSource(review.Source),
			Content:     content,
			FullContent: review.Content,
			Truncated:   truncated,
		}
		view.SourceLabel = sourceLabel(view.Source)
		if settings.ShowProfilePictures {
			view.AvatarURL = review.ProfilePicture
		}
		if settings.ShowDates {
			view.Date = RelativeTime(review.PostedAt, now)
		}
		if settings.ShowRatings {
			applyRating(&view, review)
		}
		views = append(views, view)
	}
	return views
}

func applyRating(view *cardView, review widget.Review) {
	if review.Rating != nil {
		view.Stars = StarsHTML(*review.Rating)
		return
	}
	switch review.RecommendationStatus {
	case widget.RecommendationPositive:
		view.Recommendation = recommendationPositiveLabel
		view.RecommendationTone = "positive"
		view.RecommendationIcon = "fa-thumbs-up"
	case widget.RecommendationNegative:
		view.Recommendation = recommendationNegativeLabel
		view.RecommendationTone = "negative"
		view.RecommendationIcon = "fa-thumbs-down"
	}
}

func dotViews(count int, active int) []dotView {
	views := make([]dotView, 0, count)
	for index := 0; index < count; index++ {
		views = append(views, dotView{Index: index, Label: index + 1, Active: index == active})
	}
	return views
}

func sourceLabel(source string) string {
	if source == widget.SourceFacebook {
		return "Facebook"
	}
	return "Google"
}

func reviewCountLabel(count int) string {
	if count == 1 {
		return "1 review"
	}
	return fmt.Sprintf("%d reviews", count)
}

// ThemeStyle returns the inline declaration that scopes the theme color to one widget root.
func ThemeStyle(themeColor string) string {
	return fmt.Sprintf("%s: %s", styles.ThemeVariable, SanitizeThemeColor(themeColor))
}

func themeStyle(themeColor string) template.CSS {
	// The color passed the SanitizeThemeColor pattern, so it cannot close the declaration.
	return template.CSS(ThemeStyle(themeColor))
}

func execute(name string, view any) (template.HTML, error) {
	var buffer bytes.Buffer
	if executeErr := widgetTemplates.ExecuteTemplate(&buffer, name, view); executeErr != nil {
		return "", fmt.Errorf("%w %s: %w", ErrRenderTemplate, name, executeErr)
	}
	return template.HTML(strings.TrimSpace(buffer.String())), nil
}
