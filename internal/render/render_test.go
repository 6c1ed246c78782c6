package render_test

import (
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/MarkoPoloResearchLab/reviewhub/internal/render"
	"github.com/MarkoPoloResearchLab/reviewhub/internal/widget"
)

var testNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func parseMarkup(testingT *testing.T, markup string) *goquery.Document {
	testingT.Helper()
	document, parseErr := goquery.NewDocumentFromReader(strings.NewReader(markup))
	require.NoError(testingT, parseErr)
	return document
}

func ratedReviews(ratings ...float64) []widget.Review {
	reviews := make([]widget.Review, 0, len(ratings))
	for index, rating := range ratings {
		reviews = append(reviews, widget.Review{
			Author:   "Reviewer " + string(rune('A'+index)),
			Content:  "Review body",
			Rating:   widget.RatingPointer(rating),
			PostedAt: "2024-06-01",
			Source:   widget.SourceGoogle,
		})
	}
	return reviews
}

func TestStarsThresholds(testingT *testing.T) {
	testCases := []struct {
		name     string
		rating   float64
		expected render.StarCounts
	}{
		{name: "rounds up at 0.8", rating: 4.85, expected: render.StarCounts{Full: 5}},
		{name: "half star between thresholds", rating: 4.5, expected: render.StarCounts{Full: 4, Half: 1}},
		{name: "rounds down below 0.3", rating: 4.1, expected: render.StarCounts{Full: 4, Empty: 1}},
		{name: "half star at 0.3", rating: 3.3, expected: render.StarCounts{Full: 3, Half: 1, Empty: 1}},
		{name: "exactly 0.8", rating: 2.8, expected: render.StarCounts{Full: 3, Empty: 2}},
		{name: "zero", rating: 0, expected: render.StarCounts{Empty: 5}},
		{name: "clamped above five", rating: 7, expected: render.StarCounts{Full: 5}},
		{name: "clamped below zero", rating: -2, expected: render.StarCounts{Empty: 5}},
	}
	for _, testCase := range testCases {
		testingT.Run(testCase.name, func(testingT *testing.T) {
			counts := render.Stars(testCase.rating)
			require.Equal(testingT, testCase.expected, counts)
			require.Equal(testingT, render.MaxStars, counts.Full+counts.Half+counts.Empty)
		})
	}
}

func TestStarsHTMLRendersFiveGlyphs(testingT *testing.T) {
	document := parseMarkup(testingT, string(render.StarsHTML(4.5)))
	require.Equal(testingT, 5, document.Find(".reviewhub-stars i").Length())
	require.Equal(testingT, 4, document.Find(".reviewhub-star-full").Length())
	require.Equal(testingT, 1, document.Find(".reviewhub-star-half").Length())
	label, _ := document.Find(".reviewhub-stars").Attr("aria-label")
	require.Equal(testingT, "Rated 4.5 out of 5", label)
}

func TestRelativeTimeBuckets(testingT *testing.T) {
	testCases := []struct {
		name     string
		raw      string
		expected string
	}{
		{name: "empty", raw: "", expected: "Recently"},
		{name: "seconds", raw: testNow.Add(-20 * time.Second).Format(time.RFC3339), expected: "just now"},
		{name: "one minute", raw: testNow.Add(-time.Minute).Format(time.RFC3339), expected: "1 minute ago"},
		{name: "minutes", raw: testNow.Add(-5 * time.Minute).Format(time.RFC3339), expected: "5 minutes ago"},
		{name: "one hour", raw: testNow.Add(-time.Hour).Format(time.RFC3339), expected: "1 hour ago"},
		{name: "hours", raw: testNow.Add(-5 * time.Hour).Format(time.RFC3339), expected: "5 hours ago"},
		{name: "future", raw: testNow.Add(2 * time.Hour).Format(time.RFC3339), expected: "just now"},
		{name: "days", raw: testNow.Add(-3 * 24 * time.Hour).Format(time.RFC3339), expected: "3 days ago"},
		{name: "weeks", raw: testNow.Add(-14 * 24 * time.Hour).Format(time.RFC3339), expected: "2 weeks ago"},
		{name: "one month", raw: testNow.Add(-45 * 24 * time.Hour).Format(time.RFC3339), expected: "1 month ago"},
		{name: "months", raw: testNow.Add(-100 * 24 * time.Hour).Format(time.RFC3339), expected: "3 months ago"},
		{name: "one year", raw: testNow.Add(-400 * 24 * time.Hour).Format(time.RFC3339), expected: "1 year ago"},
		{name: "years", raw: testNow.Add(-800 * 24 * time.Hour).Format(time.RFC3339), expected: "2 years ago"},
		{name: "date only", raw: "2024-06-14", expected: "1 day ago"},
		{name: "epoch millis", raw: "1718366400000", expected: "1 day ago"},
		{name: "already human readable", raw: "a week ago", expected: "a week ago"},
		{name: "unparseable", raw: "sometime in spring", expected: "sometime in spring"},
	}
	for _, testCase := range testCases {
		testingT.Run(testCase.name, func(testingT *testing.T) {
			require.Equal(testingT, testCase.expected, render.RelativeTime(testCase.raw, testNow))
		})
	}
}

func TestInitials(testingT *testing.T) {
	require.Equal(testingT, "JD", render.Initials("jane middle doe"))
	require.Equal(testingT, "C", render.Initials("cher"))
	require.Equal(testingT, "?", render.Initials("   "))
	require.Equal(testingT, "ÉZ", render.Initials("élodie zola"))
}

func TestTruncate(testingT *testing.T) {
	short, shortTruncated := render.Truncate("brief")
	require.Equal(testingT, "brief", short)
	require.False(testingT, shortTruncated)

	long, longTruncated := render.Truncate(strings.Repeat("a", render.TruncateLength+20))
	require.True(testingT, longTruncated)
	require.Equal(testingT, strings.Repeat("a", render.TruncateLength)+"...", long)

	exact, exactTruncated := render.Truncate(strings.Repeat("b", render.TruncateLength))
	require.False(testingT, exactTruncated)
	require.Len(testingT, exact, render.TruncateLength)
}

func TestSanitizeThemeColor(testingT *testing.T) {
	require.Equal(testingT, "#ff0000", render.SanitizeThemeColor("#ff0000"))
	require.Equal(testingT, "rgb(10, 20, 30)", render.SanitizeThemeColor(" rgb(10, 20, 30) "))
	require.Equal(testingT, "teal", render.SanitizeThemeColor("teal"))
	require.Equal(testingT, "#4f46e5", render.SanitizeThemeColor("red; background: url(x)"))
	require.Equal(testingT, "#4f46e5", render.SanitizeThemeColor(""))
}

func TestDispatchGridAppliesMinimumRating(testingT *testing.T) {
	data := widget.Data{
		Settings: widget.DefaultSettings(),
		Reviews:  ratedReviews(5, 4, 3, 5, 2, 4),
	}
	data.Settings.MinRating = 4
	data.Settings.Layout = "grid"

	renderable, renderErr := render.Dispatch(widget.LayoutGrid, data, widget.Config{WidgetID: "w1", ThemeColor: "#123456"}, render.Options{Now: testNow})
	require.NoError(testingT, renderErr)
	require.False(testingT, renderable.Empty)
	require.Equal(testingT, 4, renderable.CardCount)
	require.Len(testingT, renderable.Reviews, 4)

	document := parseMarkup(testingT, string(renderable.HTML))
	require.Equal(testingT, 4, document.Find(".reviewhub-grid .reviewhub-card").Length())
	root := document.Find(".reviewhub-widget")
	require.True(testingT, root.HasClass("reviewhub-layout-grid"))
	style, _ := root.Attr("style")
	require.Contains(testingT, style, "--reviewhub-theme: #123456")
	document.Find(".reviewhub-card").Each(func(index int, card *goquery.Selection) {
		reviewIndex, _ := card.Attr("data-review-index")
		require.Equal(testingT, string(rune('0'+index)), reviewIndex)
	})
}

func TestDispatchHonoursDisplayToggles(testingT *testing.T) {
	data := widget.Data{Settings: widget.DefaultSettings(), Reviews: ratedReviews(5)}
	data.Reviews[0].ProfilePicture = "https://cdn.example.test/a.png"

	visible, renderErr := render.Dispatch(widget.LayoutList, data, widget.Config{WidgetID: "w1"}, render.Options{Now: testNow})
	require.NoError(testingT, renderErr)
	visibleDocument := parseMarkup(testingT, string(visible.HTML))
	require.Equal(testingT, 1, visibleDocument.Find(".reviewhub-avatar img").Length())
	require.Equal(testingT, 1, visibleDocument.Find(".reviewhub-card .reviewhub-stars").Length())
	require.Equal(testingT, "2 weeks ago", visibleDocument.Find(".reviewhub-date").Text())

	data.Settings.ShowRatings = false
	data.Settings.ShowDates = false
	data.Settings.ShowProfilePictures = false
	hidden, renderErr := render.Dispatch(widget.LayoutList, data, widget.Config{WidgetID: "w1"}, render.Options{Now: testNow})
	require.NoError(testingT, renderErr)
	hiddenDocument := parseMarkup(testingT, string(hidden.HTML))
	require.Equal(testingT, 0, hiddenDocument.Find(".reviewhub-avatar img").Length())
	require.Equal(testingT, "RA", hiddenDocument.Find(".reviewhub-avatar").Text())
	require.Equal(testingT, 0, hiddenDocument.Find(".reviewhub-card .reviewhub-stars").Length())
	require.Equal(testingT, 0, hiddenDocument.Find(".reviewhub-date").Length())
}

func TestDispatchRendersRecommendationWithoutRating(testingT *testing.T) {
	data := widget.Data{
		Settings: widget.DefaultSettings(),
		Reviews: []widget.Review{
			{Author: "Fan", Content: "Loved it", RecommendationStatus: widget.RecommendationPositive, Source: widget.SourceFacebook},
		},
	}
	renderable, renderErr := render.Dispatch(widget.LayoutMasonry, data, widget.Config{WidgetID: "w1"}, render.Options{Now: testNow})
	require.NoError(testingT, renderErr)
	document := parseMarkup(testingT, string(renderable.HTML))
	require.Equal(testingT, 1, document.Find(".reviewhub-recommendation-positive").Length())
	require.Equal(testingT, 1, document.Find(".reviewhub-platform-facebook").Length())
}

func TestDispatchAddsReadMoreForLongContent(testingT *testing.T) {
	data := widget.Data{Settings: widget.DefaultSettings(), Reviews: ratedReviews(5, 4)}
	data.Reviews[1].Content = strings.Repeat("long text ", 40)

	renderable, renderErr := render.Dispatch(widget.LayoutGrid, data, widget.Config{WidgetID: "w1"}, render.Options{Now: testNow})
	require.NoError(testingT, renderErr)
	document := parseMarkup(testingT, string(renderable.HTML))
	readMore := document.Find(`[data-action="read-more"]`)
	require.Equal(testingT, 1, readMore.Length())
	index, _ := readMore.Attr("data-review-index")
	require.Equal(testingT, "1", index)
}

func TestDispatchEmptyPanelDiffersFromErrorPanel(testingT *testing.T) {
	data := widget.Data{Settings: widget.DefaultSettings(), Reviews: ratedReviews(2)}
	data.Settings.MinRating = 4

	renderable, renderErr := render.Dispatch(widget.LayoutGrid, data, widget.Config{WidgetID: "w1"}, render.Options{Now: testNow})
	require.NoError(testingT, renderErr)
	require.True(testingT, renderable.Empty)
	emptyDocument := parseMarkup(testingT, string(renderable.HTML))
	state, _ := emptyDocument.Find(".reviewhub-widget").Attr("data-reviewhub-state")
	require.Equal(testingT, render.StateEmpty, state)
	require.Equal(testingT, 0, emptyDocument.Find(`[data-action="retry"]`).Length())

	errorDocument := parseMarkup(testingT, string(render.ErrorPanel(widget.LayoutGrid, "", "Network unavailable", true)))
	errorState, _ := errorDocument.Find(".reviewhub-widget").Attr("data-reviewhub-state")
	require.Equal(testingT, render.StateError, errorState)
	require.Equal(testingT, 1, errorDocument.Find(`[data-action="retry"]`).Length())
	require.Contains(testingT, errorDocument.Text(), "Network unavailable")

	withoutRetry := parseMarkup(testingT, string(render.ErrorPanel(widget.LayoutGrid, "", "Network unavailable", false)))
	require.Equal(testingT, 0, withoutRetry.Find(`[data-action="retry"]`).Length())
}

func TestDispatchCarouselDropsEmptyContent(testingT *testing.T) {
	data := widget.Data{Settings: widget.DefaultSettings(), Reviews: ratedReviews(5, 5, 5, 5, 5, 5)}
	data.Reviews[2].Content = "   "

	renderable, renderErr := render.Dispatch(widget.LayoutCarousel, data, widget.Config{WidgetID: "w1"}, render.Options{Now: testNow, VisibleCount: 2})
	require.NoError(testingT, renderErr)
	require.Equal(testingT, 5, renderable.CardCount)

	document := parseMarkup(testingT, string(renderable.HTML))
	require.Equal(testingT, 5, document.Find(".reviewhub-carousel-slide").Length())
	require.Equal(testingT, 4, document.Find(".reviewhub-carousel-dot").Length())
	require.True(testingT, document.Find(".reviewhub-carousel-dot").First().HasClass("active"))
	require.False(testingT, document.Find(".reviewhub-carousel-prev").HasClass("reviewhub-hidden"))
}

func TestDispatchCarouselHidesControlsWhenEverythingFits(testingT *testing.T) {
	data := widget.Data{Settings: widget.DefaultSettings(), Reviews: ratedReviews(5, 4)}

	renderable, renderErr := render.Dispatch(widget.LayoutCarousel, data, widget.Config{WidgetID: "w1"}, render.Options{Now: testNow, VisibleCount: 4})
	require.NoError(testingT, renderErr)
	document := parseMarkup(testingT, string(renderable.HTML))
	require.True(testingT, document.Find(".reviewhub-carousel-next").HasClass("reviewhub-hidden"))
	require.Equal(testingT, 1, document.Find(".reviewhub-carousel-dot").Length())
}

func TestDispatchBadgeShowsSummaryAndLoadMore(testingT *testing.T) {
	total := 20
	data := widget.Data{
		Settings:         widget.DefaultSettings(),
		Reviews:          ratedReviews(5, 4, 4, 3),
		BusinessName:     "Corner Bakery",
		BusinessURLLink:  "https://maps.example.test/bakery",
		TotalReviewCount: &total,
		AverageRating:    widget.FlexibleRating{Value: 4.26, Valid: true},
	}

	renderable, renderErr := render.Dispatch(widget.LayoutBadge, data, widget.Config{WidgetID: "w1"}, render.Options{Now: testNow})
	require.NoError(testingT, renderErr)
	document := parseMarkup(testingT, string(renderable.HTML))
	require.Equal(testingT, "4.3", document.Find(".reviewhub-badge-score").Text())
	require.Equal(testingT, "20 reviews", document.Find(".reviewhub-badge-count").Text())
	require.Equal(testingT, 4, document.Find(".reviewhub-side-panel-body .reviewhub-card").Length())
	require.False(testingT, document.Find(".reviewhub-load-more").HasClass("reviewhub-hidden"))
	require.Contains(testingT, document.Find(".reviewhub-side-panel-header").Text(), "Corner Bakery")

	total = 4
	complete, renderErr := render.Dispatch(widget.LayoutBadge, data, widget.Config{WidgetID: "w1"}, render.Options{Now: testNow})
	require.NoError(testingT, renderErr)
	completeDocument := parseMarkup(testingT, string(complete.HTML))
	require.True(testingT, completeDocument.Find(".reviewhub-load-more").HasClass("reviewhub-hidden"))
}

func TestBadgeCardsContinueIndexing(testingT *testing.T) {
	markup, renderErr := render.BadgeCards(ratedReviews(5, 4), widget.DefaultSettings(), 8, render.Options{Now: testNow})
	require.NoError(testingT, renderErr)
	document := parseMarkup(testingT, string(markup))
	indexes := make([]string, 0, 2)
	document.Find(".reviewhub-card").Each(func(_ int, card *goquery.Selection) {
		index, _ := card.Attr("data-review-index")
		indexes = append(indexes, index)
	})
	require.Equal(testingT, []string{"8", "9"}, indexes)
}

func TestModalCarriesFullContent(testingT *testing.T) {
	fullContent := strings.Repeat("detailed feedback ", 30)
	review := widget.Review{Author: "Sam", Content: fullContent, Rating: widget.RatingPointer(5)}

	document := parseMarkup(testingT, string(render.Modal(review, widget.DefaultSettings(), testNow)))
	require.Equal(testingT, 1, document.Find(`.reviewhub-modal-overlay [data-action="close-modal"]`).Length())
	require.Equal(testingT, fullContent, document.Find(".reviewhub-modal .reviewhub-content").Text())
}

func TestContentIsEscaped(testingT *testing.T) {
	data := widget.Data{Settings: widget.DefaultSettings(), Reviews: ratedReviews(5)}
	data.Reviews[0].Content = `<script>alert("x")</script>`

	renderable, renderErr := render.Dispatch(widget.LayoutGrid, data, widget.Config{WidgetID: "w1", ThemeColor: `red;}</style>`}, render.Options{Now: testNow})
	require.NoError(testingT, renderErr)
	require.NotContains(testingT, string(renderable.HTML), "<script>")
	require.Contains(testingT, string(renderable.HTML), "--reviewhub-theme: #4f46e5")
}

func TestEmbedSnippet(testingT *testing.T) {
	snippet, snippetErr := render.EmbedSnippet(widget.Config{WidgetID: "abc", Layout: widget.LayoutBadge, ThemeColor: "#112233"}, "https://api.example.test/widget.js")
	require.NoError(testingT, snippetErr)
	document := parseMarkup(testingT, snippet)
	script := document.Find("script")
	widgetID, _ := script.Attr("data-widget-id")
	layout, _ := script.Attr("data-layout")
	containerID, _ := script.Attr("data-container-id")
	require.Equal(testingT, "abc", widgetID)
	require.Equal(testingT, "badge", layout)
	require.Equal(testingT, widget.DefaultContainerID, containerID)
	require.Equal(testingT, 1, document.Find("#"+widget.DefaultContainerID).Length())

	carouselSnippet, carouselErr := render.EmbedSnippet(widget.Config{WidgetID: "abc", Layout: widget.LayoutCarousel}, "https://api.example.test/widget.js")
	require.NoError(testingT, carouselErr)
	carouselScript := parseMarkup(testingT, carouselSnippet).Find("script")
	carouselID, _ := carouselScript.Attr("data-reviewhub-widget-id")
	carouselContainer, _ := carouselScript.Attr("data-container-id")
	require.Equal(testingT, "abc", carouselID)
	require.Equal(testingT, widget.DefaultCarouselContainerID, carouselContainer)

	_, missingErr := render.EmbedSnippet(widget.Config{}, "https://api.example.test/widget.js")
	require.ErrorIs(testingT, missingErr, widget.ErrMissingWidgetID)
}
