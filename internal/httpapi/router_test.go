package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/MarkoPoloResearchLab/reviewhub/internal/httpapi"
	"github.com/MarkoPoloResearchLab/reviewhub/internal/runtime"
	"github.com/MarkoPoloResearchLab/reviewhub/internal/snapshot"
	"github.com/MarkoPoloResearchLab/reviewhub/internal/styles"
	"github.com/MarkoPoloResearchLab/reviewhub/internal/widget"
)

const (
	testPublicBaseURL   = "https://cdn.reviews.example.test/"
	testWidgetID        = "acme-widget"
	testSnapshotMarkup  = "<html><body><div id=\"reviewhub-widget\">cards</div></body></html>"
	testFailedMarkup    = "<html><body><div data-reviewhub-state=\"error\"></div></body></html>"
	testRequestID       = "req-123"
	testCORSOrigin      = "https://shop.example.test"
	testMetricName      = "reviewhub_test_requests_total"
	headerAllowOrigin   = "Access-Control-Allow-Origin"
	contentTypeHeader   = "Content-Type"
	expectedCSSType     = "text/css; charset=utf-8"
	expectedHTMLType    = "text/html; charset=utf-8"
	snapshotRoutePrefix = "/snapshots/"
)

type stubSnapshotRenderer struct {
	mutex    sync.Mutex
	requests []snapshot.Request
	result   snapshot.Result
	err      error
}

func (stub *stubSnapshotRenderer) Render(_ context.Context, request snapshot.Request) (snapshot.Result, error) {
	stub.mutex.Lock()
	defer stub.mutex.Unlock()
	stub.requests = append(stub.requests, request)
	return stub.result, stub.err
}

func (stub *stubSnapshotRenderer) lastRequest(testingT *testing.T) snapshot.Request {
	testingT.Helper()
	stub.mutex.Lock()
	defer stub.mutex.Unlock()
	require.NotEmpty(testingT, stub.requests)
	return stub.requests[len(stub.requests)-1]
}

type recordingFetcher struct {
	data   widget.Data
	record func(widgetID string)
}

func (fetcher recordingFetcher) FetchReviewsWithPagination(_ context.Context, widgetID string, _ int, _ int) (widget.Data, error) {
	fetcher.record(widgetID)
	return fetcher.data, nil
}

type routerHarness struct {
	router   *gin.Engine
	renderer *stubSnapshotRenderer
	logs     *observer.ObservedLogs
	registry *prometheus.Registry
}

func newRouterHarness(testingT *testing.T) *routerHarness {
	testingT.Helper()
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)
	renderer := &stubSnapshotRenderer{result: snapshot.Result{HTML: testSnapshotMarkup, Widgets: 1}}
	registry := prometheus.NewRegistry()
	router := httpapi.NewRouter(httpapi.RouterConfig{
		Logger:        zap.New(core),
		Snapshots:     renderer,
		PublicBaseURL: testPublicBaseURL,
		Gatherer:      registry,
	})
	return &routerHarness{router: router, renderer: renderer, logs: logs, registry: registry}
}

func (harness *routerHarness) get(target string, headers map[string]string) *httptest.ResponseRecorder {
	request := httptest.NewRequest(http.MethodGet, target, nil)
	for name, value := range headers {
		request.Header.Set(name, value)
	}
	recorder := httptest.NewRecorder()
	harness.router.ServeHTTP(recorder, request)
	return recorder
}

func decodeJSON(testingT *testing.T, recorder *httptest.ResponseRecorder) map[string]string {
	testingT.Helper()
	var payload map[string]string
	require.NoError(testingT, json.Unmarshal(recorder.Body.Bytes(), &payload))
	return payload
}

func TestStylesheetRouteServesSharedStylesheet(testingT *testing.T) {
	harness := newRouterHarness(testingT)

	recorder := harness.get(httpapi.StylesheetPath, nil)
	require.Equal(testingT, http.StatusOK, recorder.Code)
	require.Equal(testingT, expectedCSSType, recorder.Header().Get(contentTypeHeader))
	require.Equal(testingT, styles.Stylesheet(), recorder.Body.String())
}

func TestEmbedSnippetRoute(testingT *testing.T) {
	testCases := []struct {
		name            string
		query           string
		expectedStatus  int
		expectedError   string
		expectedContent []string
	}{
		{
			name:           "list layout",
			query:          "?widget_id=" + testWidgetID + "&layout=list&container_id=reviews&theme_color=%23112233",
			expectedStatus: http.StatusOK,
			expectedContent: []string{
				`src="https://cdn.reviews.example.test/widget.js"`,
				`data-widget-id="acme-widget"`,
				`data-container-id="reviews"`,
				`data-layout="list"`,
				`data-theme-color="#112233"`,
				`<div id="reviews"></div>`,
			},
		},
		{
			name:           "carousel layout",
			query:          "?widget_id=" + testWidgetID + "&layout=carousel",
			expectedStatus: http.StatusOK,
			expectedContent: []string{
				`data-reviewhub-widget-id="acme-widget"`,
				`<div id="` + widget.DefaultCarouselContainerID + `"></div>`,
			},
		},
		{
			name:           "missing widget id",
			query:          "?layout=grid",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "missing_widget_id",
		},
		{
			name:           "unknown layout",
			query:          "?widget_id=" + testWidgetID + "&layout=spiral",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid_layout",
		},
	}

	for _, testCase := range testCases {
		testingT.Run(testCase.name, func(testingT *testing.T) {
			harness := newRouterHarness(testingT)

			recorder := harness.get(httpapi.EmbedSnippetPath+testCase.query, nil)
			require.Equal(testingT, testCase.expectedStatus, recorder.Code)
			payload := decodeJSON(testingT, recorder)
			if testCase.expectedError != "" {
				require.Equal(testingT, testCase.expectedError, payload["error"])
				return
			}
			for _, fragment := range testCase.expectedContent {
				require.Contains(testingT, payload["snippet"], fragment)
			}
		})
	}
}

func TestEmbedSnippetBootsInPrerenderer(testingT *testing.T) {
	harness := newRouterHarness(testingT)
	recorder := harness.get(httpapi.EmbedSnippetPath+"?widget_id="+testWidgetID+"&layout=list&container_id=reviews", nil)
	require.Equal(testingT, http.StatusOK, recorder.Code)
	snippet := decodeJSON(testingT, recorder)["snippet"]

	var requestedWidgetIDs []string
	renderer := snapshot.NewRenderer(testPublicBaseURL,
		snapshot.WithCache(0, 0),
		snapshot.WithFetcherFactory(func(string) runtime.Fetcher {
			return recordingFetcher{
				data: widget.Data{Settings: widget.DefaultSettings(), Reviews: []widget.Review{{Author: "Ann", Content: "Lovely"}}},
				record: func(widgetID string) {
					requestedWidgetIDs = append(requestedWidgetIDs, widgetID)
				},
			}
		}),
	)
	page := "<!doctype html><html><head></head><body>" + snippet + "</body></html>"
	result, renderErr := renderer.Prerender(context.Background(), strings.NewReader(page), "https://shop.example.test/", 1280)
	require.NoError(testingT, renderErr)
	require.Equal(testingT, 1, result.Widgets)
	require.Zero(testingT, result.Failed)
	require.Equal(testingT, []string{testWidgetID}, requestedWidgetIDs)
	require.Contains(testingT, result.HTML, `class="reviewhub-card"`)
}

func TestSnapshotRouteForwardsRequest(testingT *testing.T) {
	harness := newRouterHarness(testingT)

	recorder := harness.get(snapshotRoutePrefix+testWidgetID+"?layout=masonry&theme_color=%23ff0000&viewport=800", nil)
	require.Equal(testingT, http.StatusOK, recorder.Code)
	require.Equal(testingT, expectedHTMLType, recorder.Header().Get(contentTypeHeader))
	require.Equal(testingT, "miss", recorder.Header().Get(httpapi.HeaderSnapshotCache))
	require.Equal(testingT, testSnapshotMarkup, recorder.Body.String())

	request := harness.renderer.lastRequest(testingT)
	require.Equal(testingT, snapshot.Request{
		WidgetID:      testWidgetID,
		Layout:        widget.LayoutMasonry,
		ThemeColor:    "#ff0000",
		ViewportWidth: 800,
	}, request)
}

func TestSnapshotRouteReportsCacheHits(testingT *testing.T) {
	harness := newRouterHarness(testingT)
	harness.renderer.result.Cached = true

	recorder := harness.get(snapshotRoutePrefix+testWidgetID, nil)
	require.Equal(testingT, http.StatusOK, recorder.Code)
	require.Equal(testingT, "hit", recorder.Header().Get(httpapi.HeaderSnapshotCache))
}

func TestSnapshotRouteErrors(testingT *testing.T) {
	testCases := []struct {
		name           string
		target         string
		renderResult   snapshot.Result
		renderErr      error
		expectedStatus int
		expectedBody   string
		expectedError  string
		expectRender   bool
	}{
		{
			name:           "invalid layout",
			target:         snapshotRoutePrefix + testWidgetID + "?layout=spiral",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid_layout",
		},
		{
			name:           "invalid viewport",
			target:         snapshotRoutePrefix + testWidgetID + "?viewport=-4",
			expectedStatus: http.StatusBadRequest,
			expectedError:  "invalid_viewport",
		},
		{
			name:           "blank widget id",
			target:         snapshotRoutePrefix + "%20",
			renderErr:      widget.ErrMissingWidgetID,
			expectedStatus: http.StatusBadRequest,
			expectedError:  "missing_widget_id",
			expectRender:   true,
		},
		{
			name:           "widget data unavailable",
			target:         snapshotRoutePrefix + testWidgetID,
			renderResult:   snapshot.Result{HTML: testFailedMarkup, Failed: 1},
			renderErr:      snapshot.ErrWidgetUnavailable,
			expectedStatus: http.StatusBadGateway,
			expectedBody:   testFailedMarkup,
			expectRender:   true,
		},
		{
			name:           "unexpected failure",
			target:         snapshotRoutePrefix + testWidgetID,
			renderErr:      errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
			expectedError:  "render_failed",
			expectRender:   true,
		},
	}

	for _, testCase := range testCases {
		testingT.Run(testCase.name, func(testingT *testing.T) {
			harness := newRouterHarness(testingT)
			harness.renderer.result = testCase.renderResult
			harness.renderer.err = testCase.renderErr

			recorder := harness.get(testCase.target, nil)
			require.Equal(testingT, testCase.expectedStatus, recorder.Code)
			if testCase.expectedError != "" {
				require.Equal(testingT, testCase.expectedError, decodeJSON(testingT, recorder)["error"])
			}
			if testCase.expectedBody != "" {
				require.Equal(testingT, testCase.expectedBody, recorder.Body.String())
			}
			require.Equal(testingT, testCase.expectRender, len(harness.renderer.requests) > 0)
		})
	}
}

func TestHealthzAndMetricsRoutes(testingT *testing.T) {
	harness := newRouterHarness(testingT)
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: testMetricName, Help: "test counter"})
	harness.registry.MustRegister(counter)
	counter.Inc()

	health := harness.get(httpapi.HealthzPath, nil)
	require.Equal(testingT, http.StatusOK, health.Code)
	require.Equal(testingT, "ok", decodeJSON(testingT, health)["status"])

	metrics := harness.get(httpapi.MetricsPath, nil)
	require.Equal(testingT, http.StatusOK, metrics.Code)
	body, readErr := io.ReadAll(metrics.Body)
	require.NoError(testingT, readErr)
	require.Contains(testingT, string(body), testMetricName+" 1")
}

func TestCORSAllowsAnyOrigin(testingT *testing.T) {
	harness := newRouterHarness(testingT)

	recorder := harness.get(httpapi.StylesheetPath, map[string]string{"Origin": testCORSOrigin})
	require.Equal(testingT, http.StatusOK, recorder.Code)
	require.Equal(testingT, "*", recorder.Header().Get(headerAllowOrigin))
}

func TestRequestIDAndRequestLogger(testingT *testing.T) {
	harness := newRouterHarness(testingT)

	provided := harness.get(httpapi.HealthzPath, map[string]string{httpapi.HeaderRequestID: testRequestID})
	require.Equal(testingT, testRequestID, provided.Header().Get(httpapi.HeaderRequestID))

	generated := harness.get(httpapi.HealthzPath, nil)
	require.NotEmpty(testingT, generated.Header().Get(httpapi.HeaderRequestID))
	require.NotEqual(testingT, testRequestID, generated.Header().Get(httpapi.HeaderRequestID))

	entries := harness.logs.FilterMessage("http").All()
	require.Len(testingT, entries, 2)
	fields := entries[0].ContextMap()
	require.Equal(testingT, http.MethodGet, fields["method"])
	require.Equal(testingT, httpapi.HealthzPath, fields["path"])
	require.EqualValues(testingT, http.StatusOK, fields["status"])
	require.Equal(testingT, testRequestID, fields["request_id"])
}
