package models

import (
	"strings"
	"time"
)

// Sentiment values
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Urgency values
const (
	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
)

// ThemeFallback is assigned when classification yields no recognized theme.
const ThemeFallback = "general"

// Themes is the closed tag vocabulary for feedback classification.
var Themes = []string{
	"bug",
	"feature-request",
	"performance",
	"ux",
	"documentation",
	"pricing",
	"security",
	"integration",
	"mobile",
	"accessibility",
	"api",
	"support",
	ThemeFallback,
}

// Feedback represents a single customer-feedback entry from any source.
// Sentiment, Themes and Urgency are set together by analysis; a row with
// nil Sentiment is unanalyzed.
type Feedback struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	Source    string    `gorm:"index;not null" json:"source"` // GitHub, Email, App Store etc
	Text      string    `gorm:"type:text;not null" json:"text"`
	Sentiment *string   `gorm:"index" json:"sentiment"`
	Themes    *string   `json:"themes"` // comma-joined tags, e.g. "bug, performance"
	Urgency   *string   `gorm:"index" json:"urgency"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// Analyzed reports whether the entry carries a label triple.
func (f *Feedback) Analyzed() bool {
	return f.Sentiment != nil
}

// ThemeList splits the comma-joined themes field into trimmed tags.
func (f *Feedback) ThemeList() []string {
	if f.Themes == nil {
		return nil
	}
	var tags []string
	for _, raw := range strings.Split(*f.Themes, ",") {
		if tag := strings.TrimSpace(raw); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// HasTheme reports whether the entry's theme list contains the given tag.
func (f *Feedback) HasTheme(tag string) bool {
	for _, t := range f.ThemeList() {
		if t == tag {
			return true
		}
	}
	return false
}

// ValidSentiment reports whether s is in the sentiment vocabulary.
func ValidSentiment(s string) bool {
	return s == SentimentPositive || s == SentimentNegative || s == SentimentNeutral
}

// ValidUrgency reports whether u is in the urgency vocabulary.
func ValidUrgency(u string) bool {
	return u == UrgencyLow || u == UrgencyMedium || u == UrgencyHigh
}

// ValidTheme reports whether tag is in the theme vocabulary.
func ValidTheme(tag string) bool {
	for _, t := range Themes {
		if t == tag {
			return true
		}
	}
	return false
}
