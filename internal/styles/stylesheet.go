package styles

import "strings"

const (
	// RootClass scopes every rule of the shared stylesheet.
	RootClass = "reviewhub-widget"
	// ThemeVariable is the custom property carrying the widget theme color.
	ThemeVariable = "--reviewhub-theme"
	// DefaultThemeColor applies when neither the embed nor the server provide one.
	DefaultThemeColor = "#4f46e5"

	FontStylesheetURL = "https://fonts.googleapis.com/css2?family=Inter:wght@400;500;600;700&display=swap"
	FontHrefMarker    = "fonts.googleapis.com/css2?family=Inter"
	IconStylesheetURL = "https://cdnjs.cloudflare.com/ajax/libs/font-awesome/6.5.1/css/all.min.css"
	IconHrefMarker    = "font-awesome"
)

var stylesheetReplacer = strings.NewReplacer(
	"{{root}}", "."+RootClass,
	"{{theme}}", "var("+ThemeVariable+", "+DefaultThemeColor+")",
)

// Stylesheet returns the shared widget CSS.
func Stylesheet() string {
	return stylesheetReplacer.Replace(stylesheetTemplate)
}

const stylesheetTemplate = `{{root}} {
  all: initial !important;
  display: block !important;
  box-sizing: border-box !important;
  width: 100% !important;
  font-family: "Inter", -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif !important;
  font-size: 15px !important;
  line-height: 1.5 !important;
  color: #1f2937 !important;
  position: relative !important;
}
{{root}} *, {{root}} *::before, {{root}} *::after {
  box-sizing: border-box !important;
  margin: 0 !important;
  padding: 0 !important;
  font-family: inherit !important;
  line-height: inherit !important;
}
{{root}} a { color: {{theme}} !important; text-decoration: none !important; }
{{root}} button { cursor: pointer !important; border: none !important; background: none !important; font: inherit !important; color: inherit !important; }
{{root}} .reviewhub-header { display: flex !important; align-items: center !important; justify-content: space-between !important; margin-bottom: 16px !important; }
{{root}} .reviewhub-title { font-size: 20px !important; font-weight: 700 !important; color: #111827 !important; }
{{root}} .reviewhub-summary { display: flex !important; align-items: center !important; gap: 8px !important; color: #4b5563 !important; font-size: 14px !important; }

{{root}} .reviewhub-grid { display: grid !important; grid-template-columns: repeat(auto-fill, minmax(280px, 1fr)) !important; gap: 16px !important; }
{{root}} .reviewhub-list { display: flex !important; flex-direction: column !important; gap: 12px !important; }
{{root}} .reviewhub-masonry { column-count: 3 !important; column-gap: 16px !important; }
{{root}} .reviewhub-masonry .reviewhub-card { break-inside: avoid !important; margin-bottom: 16px !important; display: inline-block !important; width: 100% !important; }

{{root}} .reviewhub-card {
  background: #ffffff !important;
  border: 1px solid #e5e7eb !important;
  border-radius: 12px !important;
  padding: 18px !important;
  box-shadow: 0 1px 3px rgba(0, 0, 0, 0.06) !important;
  display: flex !important;
  flex-direction: column !important;
  gap: 10px !important;
  transition: box-shadow 0.2s ease, transform 0.2s ease !important;
}
{{root}} .reviewhub-card:hover { box-shadow: 0 6px 18px rgba(0, 0, 0, 0.08) !important; transform: translateY(-2px) !important; }
{{root}} .reviewhub-card-header { display: flex !important; align-items: center !important; gap: 12px !important; }
{{root}} .reviewhub-avatar {
  width: 40px !important;
  height: 40px !important;
  border-radius: 50% !important;
  overflow: hidden !important;
  flex-shrink: 0 !important;
  display: flex !important;
  align-items: center !important;
  justify-content: center !important;
  background: {{theme}} !important;
  color: #ffffff !important;
  font-weight: 600 !important;
  font-size: 15px !important;
}
{{root}} .reviewhub-avatar img { width: 100% !important; height: 100% !important; object-fit: cover !important; display: block !important; }
{{root}} .reviewhub-author { font-weight: 600 !important; color: #111827 !important; font-size: 15px !important; }
{{root}} .reviewhub-meta { display: flex !important; flex-direction: column !important; min-width: 0 !important; flex: 1 !important; }
{{root}} .reviewhub-date { color: #6b7280 !important; font-size: 13px !important; }
{{root}} .reviewhub-platform { margin-left: auto !important; font-size: 18px !important; }
{{root}} .reviewhub-platform-google { color: #4285f4 !important; }
{{root}} .reviewhub-platform-facebook { color: #1877f2 !important; }
{{root}} .reviewhub-stars { display: inline-flex !important; gap: 2px !important; color: #fbbf24 !important; font-size: 15px !important; }
{{root}} .reviewhub-star-empty { color: #d1d5db !important; }
{{root}} .reviewhub-recommendation { display: inline-flex !important; align-items: center !important; gap: 6px !important; font-size: 13px !important; font-weight: 500 !important; }
{{root}} .reviewhub-recommendation-positive { color: #16a34a !important; }
{{root}} .reviewhub-recommendation-negative { color: #dc2626 !important; }
{{root}} .reviewhub-content { color: #374151 !important; font-size: 14px !important; white-space: pre-line !important; word-break: break-word !important; }
{{root}} .reviewhub-read-more { color: {{theme}} !important; font-weight: 600 !important; font-size: 13px !important; margin-top: 4px !important; align-self: flex-start !important; }

{{root}} .reviewhub-panel { padding: 32px 16px !important; text-align: center !important; border-radius: 12px !important; background: #f9fafb !important; color: #4b5563 !important; }
{{root}} .reviewhub-panel-error { background: #fef2f2 !important; color: #991b1b !important; }
{{root}} .reviewhub-panel-title { font-weight: 600 !important; font-size: 16px !important; margin-bottom: 6px !important; }
{{root}} .reviewhub-retry { margin-top: 12px !important; padding: 8px 18px !important; border-radius: 8px !important; background: {{theme}} !important; color: #ffffff !important; font-weight: 600 !important; }
{{root}} .reviewhub-spinner { width: 28px !important; height: 28px !important; border: 3px solid #e5e7eb !important; border-top-color: {{theme}} !important; border-radius: 50% !important; margin: 0 auto 10px !important; animation: reviewhub-spin 0.8s linear infinite !important; }
@keyframes reviewhub-spin { to { transform: rotate(360deg); } }

{{root}} .reviewhub-modal-overlay {
  position: fixed !important;
  inset: 0 !important;
  background: rgba(17, 24, 39, 0.55) !important;
  display: flex !important;
  align-items: center !important;
  justify-content: center !important;
  z-index: 2147483000 !important;
  padding: 16px !important;
}
{{root}} .reviewhub-modal { background: #ffffff !important; border-radius: 14px !important; max-width: 560px !important; width: 100% !important; max-height: 80vh !important; overflow-y: auto !important; padding: 24px !important; position: relative !important; }
{{root}} .reviewhub-modal-close { position: absolute !important; top: 12px !important; right: 14px !important; font-size: 22px !important; color: #6b7280 !important; }

{{root}} .reviewhub-badge { display: inline-flex !important; align-items: center !important; gap: 12px !important; padding: 12px 18px !important; border-radius: 14px !important; background: #ffffff !important; border: 1px solid #e5e7eb !important; box-shadow: 0 4px 14px rgba(0, 0, 0, 0.08) !important; cursor: pointer !important; }
{{root}} .reviewhub-badge-score { font-size: 26px !important; font-weight: 700 !important; color: #111827 !important; }
{{root}} .reviewhub-badge-count { font-size: 13px !important; color: #6b7280 !important; }
{{root}} .reviewhub-side-panel { position: fixed !important; top: 0 !important; right: 0 !important; height: 100% !important; width: 400px !important; max-width: 100% !important; background: #f9fafb !important; box-shadow: -8px 0 24px rgba(0, 0, 0, 0.12) !important; transform: translateX(100%) !important; transition: transform 0.3s ease !important; z-index: 2147482000 !important; display: flex !important; flex-direction: column !important; }
{{root}} .reviewhub-side-panel.open { transform: translateX(0) !important; }
{{root}} .reviewhub-side-panel-header { display: flex !important; align-items: center !important; justify-content: space-between !important; padding: 18px !important; border-bottom: 1px solid #e5e7eb !important; background: #ffffff !important; }
{{root}} .reviewhub-side-panel-body { flex: 1 !important; overflow-y: auto !important; padding: 16px !important; display: flex !important; flex-direction: column !important; gap: 12px !important; }
{{root}} .reviewhub-load-more { margin: 4px auto 16px !important; padding: 10px 22px !important; border-radius: 8px !important; background: {{theme}} !important; color: #ffffff !important; font-weight: 600 !important; }
{{root}} .reviewhub-load-more[disabled] { opacity: 0.6 !important; cursor: wait !important; }

{{root}} .reviewhub-carousel { position: relative !important; padding: 0 44px !important; }
{{root}} .reviewhub-carousel-viewport { overflow: hidden !important; touch-action: pan-y !important; user-select: none !important; }
{{root}} .reviewhub-carousel-track { display: flex !important; transition: transform 0.45s ease !important; will-change: transform !important; }
{{root}} .reviewhub-carousel.dragging .reviewhub-carousel-track { transition: none !important; }
{{root}} .reviewhub-carousel-slide { flex: 0 0 25% !important; max-width: 25% !important; padding: 0 8px !important; }
{{root}} .reviewhub-carousel-slide .reviewhub-card { height: 100% !important; }
{{root}} .reviewhub-carousel-arrow { position: absolute !important; top: 50% !important; transform: translateY(-50%) !important; width: 36px !important; height: 36px !important; border-radius: 50% !important; background: #ffffff !important; box-shadow: 0 2px 8px rgba(0, 0, 0, 0.15) !important; display: flex !important; align-items: center !important; justify-content: center !important; color: #374151 !important; }
{{root}} .reviewhub-carousel-prev { left: 0 !important; }
{{root}} .reviewhub-carousel-next { right: 0 !important; }
{{root}} .reviewhub-carousel-dots { display: flex !important; justify-content: center !important; gap: 8px !important; margin-top: 16px !important; }
{{root}} .reviewhub-carousel-dot { width: 9px !important; height: 9px !important; border-radius: 50% !important; background: #d1d5db !important; }
{{root}} .reviewhub-carousel-dot.active { background: {{theme}} !important; width: 22px !important; border-radius: 5px !important; }
{{root}} .reviewhub-carousel-restart { display: none !important; margin: 14px auto 0 !important; padding: 8px 16px !important; border-radius: 8px !important; border: 1px solid {{theme}} !important; color: {{theme}} !important; font-weight: 600 !important; }
{{root}} .reviewhub-carousel-restart.visible { display: block !important; }
{{root}} .reviewhub-hidden { display: none !important; }

@media (max-width: 1199px) {
  {{root}} .reviewhub-carousel-slide { flex: 0 0 33.3333% !important; max-width: 33.3333% !important; }
}
@media (max-width: 991px) {
  {{root}} .reviewhub-carousel-slide { flex: 0 0 50% !important; max-width: 50% !important; }
  {{root}} .reviewhub-masonry { column-count: 2 !important; }
}
@media (max-width: 767px) {
  {{root}} .reviewhub-carousel { padding: 0 !important; }
  {{root}} .reviewhub-carousel-slide { flex: 0 0 100% !important; max-width: 100% !important; }
  {{root}} .reviewhub-carousel-arrow { display: none !important; }
  {{root}} .reviewhub-masonry { column-count: 1 !important; }
  {{root}} .reviewhub-side-panel { width: 100% !important; }
}
@media (max-width: 575px) {
  {{root}} .reviewhub-grid { grid-template-columns: 1fr !important; }
  {{root}} .reviewhub-card { padding: 14px !important; }
}
`
