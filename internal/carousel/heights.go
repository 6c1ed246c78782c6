package carousel

import (
	"fmt"

	"golang.org/x/net/html"

	"github.com/MarkoPoloResearchLab/reviewhub/internal/dom"
)

const (
	styleHeight = "height"
	heightAuto  = "auto"
)

// NormalizeHeights resets card heights to auto, measures them and pins every
// card to the tallest one. It returns the pinned height.
func NormalizeHeights(document *dom.Document, cards []*html.Node, measurer dom.Measurer) float64 {
	if document == nil || len(cards) == 0 {
		return 0
	}
	if measurer == nil {
		measurer = dom.NewTextMeasurer()
	}
	tallest := 0.0
	for _, card := range cards {
		document.SetStyle(card, styleHeight, heightAuto)
		if height := measurer.Height(document, card); height > tallest {
			tallest = height
		}
	}
	if tallest <= 0 {
		return 0
	}
	pinned := fmt.Sprintf("%.0fpx", tallest)
	for _, card := range cards {
		document.SetStyle(card, styleHeight, pinned)
	}
	return tallest
}
