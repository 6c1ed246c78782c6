package httpapi_test

import (
	"context"
	"errors"
	"fmt"
	"net/http/httptest"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/MarkoPoloResearchLab/reviewhub/internal/httpapi"
	"github.com/MarkoPoloResearchLab/reviewhub/internal/runtime"
	"github.com/MarkoPoloResearchLab/reviewhub/internal/snapshot"
	"github.com/MarkoPoloResearchLab/reviewhub/internal/widget"
)

const (
	browserTestTimeout                   = 20 * time.Second
	headlessBrowserSkipReason            = "chromedp headless browser not available"
	headlessBrowserLocateErrorMessage    = "locate headless browser executable"
	headlessBrowserEnvironmentChromedp   = "CHROMEDP_BROWSER"
	headlessBrowserEnvironmentChromePath = "CHROME_PATH"
	browserCardSelector                  = ".reviewhub-card"
	browserWidgetSelector                = ".reviewhub-widget"
	browserReviewCount                   = 3
)

var headlessBrowserExecutableNames = []string{
	"chromium",
	"chromium-browser",
	"google-chrome",
	"google-chrome-stable",
	"chrome",
	"headless-shell",
}

var errHeadlessBrowserNotFound = errors.New("headless browser executable not found")

type staticFetcher struct {
	data widget.Data
}

func (fetcher staticFetcher) FetchReviewsWithPagination(context.Context, string, int, int) (widget.Data, error) {
	return fetcher.data, nil
}

func locateHeadlessBrowserExecutable() (string, error) {
	for _, environmentVariableName := range []string{headlessBrowserEnvironmentChromedp, headlessBrowserEnvironmentChromePath} {
		environmentValue := strings.TrimSpace(os.Getenv(environmentVariableName))
		if environmentValue != "" {
			return environmentValue, nil
		}
	}

	for _, executableName := range headlessBrowserExecutableNames {
		executablePath, lookupErr := exec.LookPath(executableName)
		if lookupErr == nil {
			return executablePath, nil
		}
	}

	return "", fmt.Errorf("%s: %w", headlessBrowserLocateErrorMessage, errHeadlessBrowserNotFound)
}

func buildHeadlessBrowserContext(testingT *testing.T) context.Context {
	testingT.Helper()

	browserExecutablePath, locateBrowserErr := locateHeadlessBrowserExecutable()
	if locateBrowserErr != nil {
		testingT.Skipf("%s: %v", headlessBrowserSkipReason, locateBrowserErr)
	}

	headlessAllocatorOptions := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.ExecPath(browserExecutablePath),
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	allocatorContext, allocatorCancel := chromedp.NewExecAllocator(context.Background(), headlessAllocatorOptions...)
	testingT.Cleanup(allocatorCancel)

	browserContext, browserCancel := chromedp.NewContext(allocatorContext)
	testingT.Cleanup(browserCancel)

	contextWithTimeout, timeoutCancel := context.WithTimeout(browserContext, browserTestTimeout)
	testingT.Cleanup(timeoutCancel)

	return contextWithTimeout
}

func TestSnapshotRendersInHeadlessBrowser(testingT *testing.T) {
	gin.SetMode(gin.TestMode)
	browserContext := buildHeadlessBrowserContext(testingT)

	settings := widget.DefaultSettings()
	settings.Name = "Acme Bakery"
	reviews := make([]widget.Review, 0, browserReviewCount)
	for index := 0; index < browserReviewCount; index++ {
		reviews = append(reviews, widget.Review{
			Author:  fmt.Sprintf("Guest %d", index+1),
			Content: "Fresh bread every morning",
			Rating:  widget.RatingPointer(5),
		})
	}
	renderer := snapshot.NewRenderer("https://api.reviews.example.test",
		snapshot.WithFetcherFactory(func(string) runtime.Fetcher {
			return staticFetcher{data: widget.Data{Settings: settings, Reviews: reviews}}
		}),
	)
	server := httptest.NewServer(httpapi.NewRouter(httpapi.RouterConfig{Snapshots: renderer}))
	testingT.Cleanup(server.Close)

	var cardCount int
	var widgetState string
	runErr := chromedp.Run(browserContext,
		chromedp.Navigate(server.URL+"/snapshots/"+testWidgetID),
		chromedp.WaitVisible(browserWidgetSelector, chromedp.ByQuery),
		chromedp.Evaluate(fmt.Sprintf(`document.querySelectorAll(%q).length`, browserCardSelector), &cardCount),
		chromedp.Evaluate(fmt.Sprintf(`document.querySelector(%q).getAttribute("data-reviewhub-state")`, browserWidgetSelector), &widgetState),
	)
	require.NoError(testingT, runErr)
	require.Equal(testingT, browserReviewCount, cardCount)
	require.Equal(testingT, "ready", widgetState)
}
