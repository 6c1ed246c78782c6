package dom

import (
	"math"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Measurer reports the rendered height of an element in CSS pixels.
type Measurer interface {
	Height(document *Document, node *html.Node) float64
}

// MeasurerFunc adapts a function to Measurer.
type MeasurerFunc func(document *Document, node *html.Node) float64

func (measure MeasurerFunc) Height(document *Document, node *html.Node) float64 {
	return measure(document, node)
}

// TextMeasurer estimates element heights from their text length. It stands in
// for layout when the runtime drives a document without a rendering engine.
type TextMeasurer struct {
	LineHeight   float64
	CharsPerLine int
	Padding      float64
}

// NewTextMeasurer returns a measurer tuned for the default card typography.
func NewTextMeasurer() TextMeasurer {
	return TextMeasurer{LineHeight: 22, CharsPerLine: 42, Padding: 96}
}

func (measurer TextMeasurer) Height(document *Document, node *html.Node) float64 {
	if node == nil {
		return 0
	}
	charsPerLine := measurer.CharsPerLine
	if charsPerLine <= 0 {
		charsPerLine = 1
	}
	characterCount := utf8.RuneCountInString(document.Text(node))
	lineCount := math.Ceil(float64(characterCount) / float64(charsPerLine))
	return measurer.Padding + lineCount*measurer.LineHeight
}
