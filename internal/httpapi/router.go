package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const (
	StylesheetPath   = "/reviewhub.css"
	EmbedSnippetPath = "/api/embed-snippet"
	SnapshotPath     = "/snapshots/:" + paramWidgetID
	MetricsPath      = "/metrics"
	HealthzPath      = "/healthz"

	corsOriginWildcard = "*"
	corsMaxAge         = 12 * time.Hour
)

var (
	corsAllowedMethods = []string{http.MethodGet, http.MethodOptions}
	corsAllowedHeaders = []string{"Content-Type", HeaderRequestID}
	corsExposedHeaders = []string{"Content-Type", HeaderRequestID, HeaderSnapshotCache}
)

// RouterConfig wires the HTTP surface.
type RouterConfig struct {
	Logger        *zap.Logger
	Snapshots     SnapshotRenderer
	PublicBaseURL string
	Gatherer      prometheus.Gatherer
}

// NewRouter builds the gin engine. Every route is public and read-only, so
// CORS allows any origin without credentials.
func NewRouter(config RouterConfig) *gin.Engine {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	gatherer := config.Gatherer
	if gatherer == nil {
		gatherer = prometheus.NewRegistry()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestID())
	router.Use(RequestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{corsOriginWildcard},
		AllowMethods:     corsAllowedMethods,
		AllowHeaders:     corsAllowedHeaders,
		ExposeHeaders:    corsExposedHeaders,
		AllowCredentials: false,
		MaxAge:           corsMaxAge,
	}))

	widgetHandlers := NewWidgetHandlers(logger, config.Snapshots, config.PublicBaseURL)
	router.GET(StylesheetPath, widgetHandlers.Stylesheet)
	router.GET(EmbedSnippetPath, widgetHandlers.EmbedSnippet)
	router.GET(SnapshotPath, widgetHandlers.Snapshot)
	router.GET(MetricsPath, gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	router.GET(HealthzPath, Healthz)
	return router
}
