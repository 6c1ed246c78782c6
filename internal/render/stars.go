package render

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
)

const (
	// MaxStars is the number of glyphs in every rating row.
	MaxStars = 5

	halfStarThreshold = 0.3
	fullStarThreshold = 0.8
)

// StarCounts splits a rating into full, half and empty glyphs summing to MaxStars.
type StarCounts struct {
	Full  int
	Half  int
	Empty int
}

// Stars converts a rating using the 0.3/0.8 thresholds: below 0.3 rounds down,
// 0.3 up to 0.8 adds a half star, 0.8 and above rounds up.
func Stars(rating float64) StarCounts {
	if math.IsNaN(rating) || rating < 0 {
		rating = 0
	}
	if rating > MaxStars {
		rating = MaxStars
	}
	whole := math.Floor(rating)
	fraction := math.Round((rating-whole)*1000) / 1000
	counts := StarCounts{Full: int(whole)}
	switch {
	case fraction >= fullStarThreshold:
		counts.Full++
	case fraction >= halfStarThreshold:
		counts.Half = 1
	}
	if counts.Full > MaxStars {
		counts.Full = MaxStars
		counts.Half = 0
	}
	counts.Empty = MaxStars - counts.Full - counts.Half
	return counts
}

type starGlyph struct {
	Class string
}

type starsView struct {
	Label  string
	Glyphs []starGlyph
}

var starsTemplate = template.Must(template.New("stars").Parse(
	`<span class="reviewhub-stars" role="img" aria-label="{{.Label}}">{{range .Glyphs}}<i class="{{.Class}}"></i>{{end}}</span>`,
))

// StarsHTML renders the star row for a rating.
func StarsHTML(rating float64) template.HTML {
	counts := Stars(rating)
	view := starsView{
		Label:  fmt.Sprintf("Rated %s out of %d", formatRating(rating), MaxStars),
		Glyphs: make([]starGlyph, 0, MaxStars),
	}
	for index := 0; index < counts.Full; index++ {
		view.Glyphs = append(view.Glyphs, starGlyph{Class: "fas fa-star reviewhub-star-full"})
	}
	for index := 0; index < counts.Half; index++ {
		view.Glyphs = append(view.Glyphs, starGlyph{Class: "fas fa-star-half-alt reviewhub-star-half"})
	}
	for index := 0; index < counts.Empty; index++ {
		view.Glyphs = append(view.Glyphs, starGlyph{Class: "far fa-star reviewhub-star-empty"})
	}
	var buffer bytes.Buffer
	if executeErr := starsTemplate.Execute(&buffer, view); executeErr != nil {
		return ""
	}
	return template.HTML(buffer.String())
}

func formatRating(rating float64) string {
	return fmt.Sprintf("%.1f", rating)
}
