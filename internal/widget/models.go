package widget

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	SourceGoogle   = "google"
	SourceFacebook = "facebook"

	defaultAuthorName = "Anonymous"
	defaultPostedAt   = "Recently"

	RecommendationPositive = "recommended"
	RecommendationNegative = "not_recommended"
)

type BusinessURL struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Source string `json:"source"`
	URL    string `json:"url"`
}

// Settings is the server-side widget configuration snapshot used for one render cycle.
type Settings struct {
	Name                string      `json:"name"`
	ThemeColor          string      `json:"themeColor"`
	Layout              string      `json:"layout"`
	MinRating           float64     `json:"minRating"`
	ShowRatings         bool        `json:"showRatings"`
	ShowDates           bool        `json:"showDates"`
	ShowProfilePictures bool        `json:"showProfilePictures"`
	BusinessURL         BusinessURL `json:"businessUrl"`
}

// UnmarshalJSON keeps the display toggles enabled unless the payload disables them.
func (settings *Settings) UnmarshalJSON(payload []byte) error {
	type settingsAlias Settings
	decoded := settingsAlias{
		ShowRatings:         true,
		ShowDates:           true,
		ShowProfilePictures: true,
	}
	if decodeErr := json.Unmarshal(payload, &decoded); decodeErr != nil {
		return decodeErr
	}
	*settings = Settings(decoded)
	return nil
}

// DefaultSettings mirrors the toggles applied when the server omits them.
func DefaultSettings() Settings {
	return Settings{
		ShowRatings:         true,
		ShowDates:           true,
		ShowProfilePictures: true,
	}
}

type Review struct {
	Author               string   `json:"author"`
	Content              string   `json:"content"`
	Rating               *float64 `json:"rating,omitempty"`
	PostedAt             string   `json:"postedAt"`
	ProfilePicture       string   `json:"profilePicture,omitempty"`
	RecommendationStatus string   `json:"recommendationStatus,omitempty"`
	Source               string   `json:"source,omitempty"`
}

// FlexibleRating accepts an average rating encoded either as a JSON number or a numeric string.
type FlexibleRating struct {
	Value float64
	Valid bool
}

func (rating *FlexibleRating) UnmarshalJSON(payload []byte) error {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*rating = FlexibleRating{}
		return nil
	}
	if trimmed[0] == '"' {
		var rawValue string
		if decodeErr := json.Unmarshal(trimmed, &rawValue); decodeErr != nil {
			return decodeErr
		}
		rawValue = strings.TrimSpace(rawValue)
		if rawValue == "" {
			*rating = FlexibleRating{}
			return nil
		}
		parsedValue, parseErr := strconv.ParseFloat(rawValue, 64)
		if parseErr != nil {
			return fmt.Errorf("widget: average rating %q: %w", rawValue, parseErr)
		}
		*rating = FlexibleRating{Value: parsedValue, Valid: true}
		return nil
	}
	var numericValue float64
	if decodeErr := json.Unmarshal(trimmed, &numericValue); decodeErr != nil {
		return decodeErr
	}
	*rating = FlexibleRating{Value: numericValue, Valid: true}
	return nil
}

func (rating FlexibleRating) MarshalJSON() ([]byte, error) {
	if !rating.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(rating.Value)
}

// Data is the widget-data endpoint payload.
type Data struct {
	Settings         Settings       `json:"widgetSettings"`
	Reviews          []Review       `json:"reviews"`
	BusinessName     string         `json:"businessName,omitempty"`
	BusinessURLLink  string         `json:"businessUrlLink,omitempty"`
	TotalReviewCount *int           `json:"totalReviewCount,omitempty"`
	AverageRating    FlexibleRating `json:"averageRating"`
}

// Normalize fills defaults for malformed review fields. Reviews keep their order.
func (data Data) Normalize() Data {
	normalized := data
	normalized.Reviews = make([]Review, 0, len(data.Reviews))
	fallbackSource := NormalizeSource(data.Settings.BusinessURL.Source)
	for _, review := range data.Reviews {
		normalized.Reviews = append(normalized.Reviews, review.normalize(fallbackSource))
	}
	return normalized
}

func (review Review) normalize(fallbackSource string) Review {
	normalized := review
	normalized.Author = strings.TrimSpace(review.Author)
	if normalized.Author == "" {
		normalized.Author = defaultAuthorName
	}
	normalized.PostedAt = strings.TrimSpace(review.PostedAt)
	if normalized.PostedAt == "" {
		normalized.PostedAt = defaultPostedAt
	}
	normalized.ProfilePicture = strings.TrimSpace(review.ProfilePicture)
	normalized.RecommendationStatus = strings.ToLower(strings.TrimSpace(review.RecommendationStatus))
	if strings.TrimSpace(review.Source) == "" {
		normalized.Source = fallbackSource
	} else {
		normalized.Source = NormalizeSource(review.Source)
	}
	return normalized
}

// NormalizeSource maps a platform name onto google or facebook.
func NormalizeSource(rawSource string) string {
	if strings.Contains(strings.ToLower(rawSource), SourceFacebook) {
		return SourceFacebook
	}
	return SourceGoogle
}

// DisplayName prefers the embed override, then the business name, then the widget name.
func (data Data) DisplayName(config Config) string {
	for _, candidate := range []string{config.Name, data.BusinessName, data.Settings.BusinessURL.Name, data.Settings.Name} {
		if trimmed := strings.TrimSpace(candidate); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

// BusinessLink returns the link shown on summary cards.
func (data Data) BusinessLink() string {
	if trimmed := strings.TrimSpace(data.BusinessURLLink); trimmed != "" {
		return trimmed
	}
	return strings.TrimSpace(data.Settings.BusinessURL.URL)
}

// TotalCount returns the server total or the number of loaded reviews.
func (data Data) TotalCount() int {
	if data.TotalReviewCount != nil && *data.TotalReviewCount >= 0 {
		return *data.TotalReviewCount
	}
	return len(data.Reviews)
}

// AverageRatingValue returns the server average or the mean of rated loaded reviews.
func (data Data) AverageRatingValue() float64 {
	if data.AverageRating.Valid {
		return data.AverageRating.Value
	}
	ratedCount := 0
	ratingSum := 0.0
	for _, review := range data.Reviews {
		if review.Rating == nil {
			continue
		}
		ratingSum += *review.Rating
		ratedCount++
	}
	if ratedCount == 0 {
		return 0
	}
	return ratingSum / float64(ratedCount)
}
