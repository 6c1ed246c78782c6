package snapshot_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/MarkoPoloResearchLab/reviewhub/internal/runtime"
	"github.com/MarkoPoloResearchLab/reviewhub/internal/snapshot"
	"github.com/MarkoPoloResearchLab/reviewhub/internal/widget"
)

const (
	testAPIOrigin     = "https://api.reviews.example.test"
	testWidgetID      = "acme-widget"
	testPageURL       = "https://shop.example.test/"
	testDesktopWidth  = 1280.0
	cardMarker        = `class="reviewhub-card"`
	slideMarker       = `class="reviewhub-carousel-slide"`
	errorStateMarker  = `data-reviewhub-state="error"`
	readyStateMarker  = `data-reviewhub-state="ready"`
	styleElementID    = `id="reviewhub-widget-styles"`
	testFetchFailure  = "upstream unavailable"
	testWidgetLayout  = "grid"
	testCarouselPages = 6
)

type stubFetcher struct {
	mutex   sync.Mutex
	calls   int
	origins []string
	data    widget.Data
	err     error
}

func (stub *stubFetcher) factory(origin string) runtime.Fetcher {
	stub.mutex.Lock()
	defer stub.mutex.Unlock()
	stub.origins = append(stub.origins, origin)
	return stub
}

func (stub *stubFetcher) FetchReviewsWithPagination(_ context.Context, _ string, _ int, _ int) (widget.Data, error) {
	stub.mutex.Lock()
	defer stub.mutex.Unlock()
	stub.calls++
	if stub.err != nil {
		return widget.Data{}, stub.err
	}
	return stub.data, nil
}

func (stub *stubFetcher) callCount() int {
	stub.mutex.Lock()
	defer stub.mutex.Unlock()
	return stub.calls
}

func sampleData(layout string, count int) widget.Data {
	settings := widget.DefaultSettings()
	settings.Layout = layout
	reviews := make([]widget.Review, 0, count)
	for index := 0; index < count; index++ {
		reviews = append(reviews, widget.Review{
			Author:   fmt.Sprintf("Customer %d", index+1),
			Content:  fmt.Sprintf("Great service %d", index+1),
			Rating:   widget.RatingPointer(5),
			PostedAt: "2024-05-01",
		})
	}
	return widget.Data{Settings: settings, Reviews: reviews}
}

func counterValue(testingT *testing.T, counter prometheus.Counter) float64 {
	testingT.Helper()
	var metric dto.Metric
	require.NoError(testingT, counter.Write(&metric))
	return metric.GetCounter().GetValue()
}

func fixedClock() time.Time {
	return time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)
}

func TestRenderProducesWidgetMarkupAndCaches(testingT *testing.T) {
	stub := &stubFetcher{data: sampleData(testWidgetLayout, 3)}
	registry := prometheus.NewRegistry()
	metrics, metricsErr := snapshot.NewMetrics(registry)
	require.NoError(testingT, metricsErr)

	renderer := snapshot.NewRenderer(testAPIOrigin,
		snapshot.WithFetcherFactory(stub.factory),
		snapshot.WithMetrics(metrics),
		snapshot.WithClock(fixedClock),
	)

	request := snapshot.Request{WidgetID: testWidgetID, ViewportWidth: testDesktopWidth}
	result, renderErr := renderer.Render(context.Background(), request)
	require.NoError(testingT, renderErr)
	require.False(testingT, result.Cached)
	require.Equal(testingT, 1, result.Widgets)
	require.Zero(testingT, result.Failed)
	require.Equal(testingT, 3, strings.Count(result.HTML, cardMarker))
	require.Contains(testingT, result.HTML, readyStateMarker)
	require.Equal(testingT, 1, strings.Count(result.HTML, styleElementID))
	require.Equal(testingT, []string{testAPIOrigin}, stub.origins)

	cached, cachedErr := renderer.Render(context.Background(), request)
	require.NoError(testingT, cachedErr)
	require.True(testingT, cached.Cached)
	require.Equal(testingT, result.HTML, cached.HTML)
	require.Equal(testingT, 1, stub.callCount())

	require.Equal(testingT, 1.0, counterValue(testingT, metrics.CacheLookups.WithLabelValues("hit")))
	require.Equal(testingT, 1.0, counterValue(testingT, metrics.CacheLookups.WithLabelValues("miss")))
	require.Equal(testingT, 1.0, counterValue(testingT, metrics.Renders.WithLabelValues("ok")))
}

func TestRenderDoesNotCacheFailedWidgets(testingT *testing.T) {
	stub := &stubFetcher{err: errors.New(testFetchFailure)}
	renderer := snapshot.NewRenderer(testAPIOrigin, snapshot.WithFetcherFactory(stub.factory))

	request := snapshot.Request{WidgetID: testWidgetID}
	result, renderErr := renderer.Render(context.Background(), request)
	require.ErrorIs(testingT, renderErr, snapshot.ErrWidgetUnavailable)
	require.Equal(testingT, 1, result.Failed)
	require.Contains(testingT, result.HTML, errorStateMarker)

	_, secondErr := renderer.Render(context.Background(), request)
	require.ErrorIs(testingT, secondErr, snapshot.ErrWidgetUnavailable)
	require.Equal(testingT, 2, stub.callCount())
}

func TestRenderWithoutCacheAlwaysFetches(testingT *testing.T) {
	stub := &stubFetcher{data: sampleData(testWidgetLayout, 2)}
	renderer := snapshot.NewRenderer(testAPIOrigin,
		snapshot.WithFetcherFactory(stub.factory),
		snapshot.WithCache(0, 0),
	)

	for attempt := 0; attempt < 2; attempt++ {
		result, renderErr := renderer.Render(context.Background(), snapshot.Request{WidgetID: testWidgetID})
		require.NoError(testingT, renderErr)
		require.False(testingT, result.Cached)
	}
	require.Equal(testingT, 2, stub.callCount())
}

func TestRenderCacheExpires(testingT *testing.T) {
	stub := &stubFetcher{data: sampleData(testWidgetLayout, 2)}
	renderer := snapshot.NewRenderer(testAPIOrigin,
		snapshot.WithFetcherFactory(stub.factory),
		snapshot.WithCache(4, 20*time.Millisecond),
	)
	request := snapshot.Request{WidgetID: testWidgetID}

	_, firstErr := renderer.Render(context.Background(), request)
	require.NoError(testingT, firstErr)

	require.Eventually(testingT, func() bool {
		result, renderErr := renderer.Render(context.Background(), request)
		return renderErr == nil && !result.Cached
	}, time.Second, 10*time.Millisecond)
	require.GreaterOrEqual(testingT, stub.callCount(), 2)
}

func TestRenderRejectsMissingWidgetID(testingT *testing.T) {
	stub := &stubFetcher{data: sampleData(testWidgetLayout, 1)}
	renderer := snapshot.NewRenderer(testAPIOrigin, snapshot.WithFetcherFactory(stub.factory))

	_, renderErr := renderer.Render(context.Background(), snapshot.Request{WidgetID: "  "})
	require.ErrorIs(testingT, renderErr, widget.ErrMissingWidgetID)
	require.Zero(testingT, stub.callCount())
}

func TestRenderCarouselLayoutOverride(testingT *testing.T) {
	stub := &stubFetcher{data: sampleData(testWidgetLayout, testCarouselPages)}
	renderer := snapshot.NewRenderer(testAPIOrigin, snapshot.WithFetcherFactory(stub.factory))

	result, renderErr := renderer.Render(context.Background(), snapshot.Request{
		WidgetID:      testWidgetID,
		Layout:        widget.LayoutCarousel,
		ViewportWidth: testDesktopWidth,
	})
	require.NoError(testingT, renderErr)
	require.Equal(testingT, testCarouselPages, strings.Count(result.HTML, slideMarker))
	require.Contains(testingT, result.HTML, `id="reviewhub-carousel-widget"`)
}

func TestPrerenderBootsEveryEmbed(testingT *testing.T) {
	stub := &stubFetcher{data: sampleData(testWidgetLayout, 2)}
	renderer := snapshot.NewRenderer(testAPIOrigin, snapshot.WithFetcherFactory(stub.factory))

	page := `<!doctype html><html><head><title>Shop</title></head><body>
<div id="first"></div><div id="second"></div>
<script src="/widget.js" data-widget-id="one" data-container-id="first"></script>
<script src="/widget.js" data-widget-id="two" data-container-id="second" data-layout="list"></script>
</body></html>`

	result, renderErr := renderer.Prerender(context.Background(), strings.NewReader(page), testPageURL, testDesktopWidth)
	require.NoError(testingT, renderErr)
	require.Equal(testingT, 2, result.Widgets)
	require.Equal(testingT, 4, strings.Count(result.HTML, cardMarker))
	require.Contains(testingT, result.HTML, "reviewhub-layout-list")
	require.ElementsMatch(testingT, []string{"https://shop.example.test", "https://shop.example.test"}, stub.origins)
}

func TestPrerenderWithoutEmbedsReportsNoWidgets(testingT *testing.T) {
	renderer := snapshot.NewRenderer(testAPIOrigin)

	result, renderErr := renderer.Prerender(context.Background(), strings.NewReader(`<html><body><p>Hello</p></body></html>`), testPageURL, testDesktopWidth)
	require.ErrorIs(testingT, renderErr, snapshot.ErrNoWidgets)
	require.Contains(testingT, result.HTML, "<p>Hello</p>")
}
