package widget

import "strings"

// FilterByMinRating keeps unrated reviews and reviews rated at or above minRating.
func FilterByMinRating(reviews []Review, minRating float64) []Review {
	filtered := make([]Review, 0, len(reviews))
	for _, review := range reviews {
		if review.Rating == nil || *review.Rating >= minRating {
			filtered = append(filtered, review)
		}
	}
	return filtered
}

// WithContent drops reviews whose content is blank.
func WithContent(reviews []Review) []Review {
	filtered := make([]Review, 0, len(reviews))
	for _, review := range reviews {
		if strings.TrimSpace(review.Content) == "" {
			continue
		}
		filtered = append(filtered, review)
	}
	return filtered
}

// RatingPointer is a convenience for building reviews with a rating.
func RatingPointer(value float64) *float64 {
	return &value
}
