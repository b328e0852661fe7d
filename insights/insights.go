package insights

import (
	"fmt"
	"math"
	"sort"

	"feedbacklens/models"
)

const (
	previewLength = 100

	topPriorityLimit    = 5
	featureRequestLimit = 5
	painPointLimit      = 5
	quickWinLimit       = 3
	themeBreakdownLimit = 10

	// Action-item thresholds. These are contract, not tuning knobs.
	bugVolumeThreshold      = 5
	featureBacklogThreshold = 3
	performanceThreshold    = 2
	documentationThreshold  = 2
)

// EntryPreview is a feedback entry rendered for the insights report, with
// its text truncated for display.
type EntryPreview struct {
	ID        uint   `json:"id"`
	Source    string `json:"source"`
	Text      string `json:"text"`
	Sentiment string `json:"sentiment"`
	Themes    string `json:"themes"`
	Urgency   string `json:"urgency"`
}

// PainPoint is a theme ranked by its negative-sentiment occurrence count.
type PainPoint struct {
	Theme    string `json:"theme"`
	Count    int    `json:"count"`
	Severity string `json:"severity"`
}

// ThemeStat is a theme ranked by occurrence count over all analyzed entries.
type ThemeStat struct {
	Theme     string `json:"theme"`
	Count     int    `json:"count"`
	Sentiment string `json:"sentiment"`
}

// Report is the PM-facing insights artifact.
type Report struct {
	TopPriorityIssues  []EntryPreview `json:"top_priority_issues"`
	TopFeatureRequests []EntryPreview `json:"top_feature_requests"`
	PainPoints         []PainPoint    `json:"pain_points"`
	QuickWins          []EntryPreview `json:"quick_wins"`
	SentimentScore     int            `json:"sentiment_score"`
	ActionItems        []string       `json:"action_items"`
	ThemeBreakdown     []ThemeStat    `json:"theme_breakdown"`
}

// EmptyState is served instead of a Report when nothing has been analyzed.
type EmptyState struct {
	Message string `json:"message"`
}

// ComputeInsights derives the full report from the analyzed entries, which
// are expected in most-recent-first store order. Returns nil when entries is
// empty; callers render the EmptyState sentinel in that case, never a
// zero-filled report.
func ComputeInsights(entries []models.Feedback) *Report {
	if len(entries) == 0 {
		return nil
	}

	report := &Report{
		TopPriorityIssues:  []EntryPreview{},
		TopFeatureRequests: []EntryPreview{},
		QuickWins:          []EntryPreview{},
	}

	var scoreSum, highUrgency, negative int
	themeTagged := make(map[string]int) // entries carrying each tag

	type painAgg struct{ count, high int }
	type themeAgg struct{ count, negative int }
	pains := make(map[string]*painAgg)
	themes := make(map[string]*themeAgg)

	for i := range entries {
		entry := &entries[i]
		sentiment := deref(entry.Sentiment)
		urgency := deref(entry.Urgency)
		tags := entry.ThemeList()

		switch sentiment {
		case models.SentimentPositive:
			scoreSum++
			if len(report.QuickWins) < quickWinLimit {
				report.QuickWins = append(report.QuickWins, preview(entry))
			}
		case models.SentimentNegative:
			scoreSum--
			negative++
		}

		if urgency == models.UrgencyHigh {
			highUrgency++
			if sentiment == models.SentimentNegative && len(report.TopPriorityIssues) < topPriorityLimit {
				report.TopPriorityIssues = append(report.TopPriorityIssues, preview(entry))
			}
		}

		for _, tag := range tags {
			themeTagged[tag]++

			agg := themes[tag]
			if agg == nil {
				agg = &themeAgg{}
				themes[tag] = agg
			}
			agg.count++
			if sentiment == models.SentimentNegative {
				agg.negative++

				pain := pains[tag]
				if pain == nil {
					pain = &painAgg{}
					pains[tag] = pain
				}
				pain.count++
				if urgency == models.UrgencyHigh {
					pain.high++
				}
			}
		}

		if entry.HasTheme("feature-request") && len(report.TopFeatureRequests) < featureRequestLimit {
			report.TopFeatureRequests = append(report.TopFeatureRequests, preview(entry))
		}
	}

	report.SentimentScore = int(math.Round(100 * float64(scoreSum) / float64(len(entries))))

	for tag, pain := range pains {
		severity := models.UrgencyMedium
		if pain.high*2 > pain.count {
			severity = models.UrgencyHigh
		}
		report.PainPoints = append(report.PainPoints, PainPoint{Theme: tag, Count: pain.count, Severity: severity})
	}
	sort.Slice(report.PainPoints, func(i, j int) bool {
		if report.PainPoints[i].Count != report.PainPoints[j].Count {
			return report.PainPoints[i].Count > report.PainPoints[j].Count
		}
		return report.PainPoints[i].Theme < report.PainPoints[j].Theme
	})
	if len(report.PainPoints) > painPointLimit {
		report.PainPoints = report.PainPoints[:painPointLimit]
	}

	for tag, agg := range themes {
		sentiment := models.SentimentNeutral
		if agg.negative*2 > agg.count {
			sentiment = models.SentimentNegative
		}
		report.ThemeBreakdown = append(report.ThemeBreakdown, ThemeStat{Theme: tag, Count: agg.count, Sentiment: sentiment})
	}
	sort.Slice(report.ThemeBreakdown, func(i, j int) bool {
		if report.ThemeBreakdown[i].Count != report.ThemeBreakdown[j].Count {
			return report.ThemeBreakdown[i].Count > report.ThemeBreakdown[j].Count
		}
		return report.ThemeBreakdown[i].Theme < report.ThemeBreakdown[j].Theme
	})
	if len(report.ThemeBreakdown) > themeBreakdownLimit {
		report.ThemeBreakdown = report.ThemeBreakdown[:themeBreakdownLimit]
	}

	if report.PainPoints == nil {
		report.PainPoints = []PainPoint{}
	}
	if report.ThemeBreakdown == nil {
		report.ThemeBreakdown = []ThemeStat{}
	}

	report.ActionItems = buildActionItems(
		len(entries), highUrgency, negative,
		themeTagged["bug"], themeTagged["feature-request"],
		themeTagged["performance"], themeTagged["documentation"],
	)
	return report
}

// buildActionItems applies the fixed recommendation rules in order. The
// thresholds and ordering are part of the report contract.
func buildActionItems(total, highUrgency, negative, bugs, features, performance, docs int) []string {
	var items []string

	if highUrgency > 0 {
		items = append(items, fmt.Sprintf("Address %d high-urgency feedback items immediately", highUrgency))
	}
	if bugs > bugVolumeThreshold {
		items = append(items, fmt.Sprintf("High bug volume (%d reports) - consider allocating more capacity to stability work", bugs))
	}
	if features > featureBacklogThreshold {
		items = append(items, fmt.Sprintf("%d feature requests pending - review and prioritize the most requested", features))
	}
	if float64(total-negative)/float64(total) < 0.5 {
		items = append(items, "Overall sentiment is trending negative - investigate the top pain points")
	}
	if performance > performanceThreshold {
		items = append(items, fmt.Sprintf("Multiple performance complaints (%d) - schedule a performance audit", performance))
	}
	if docs > documentationThreshold {
		items = append(items, fmt.Sprintf("Documentation gaps reported (%d) - review and update the docs", docs))
	}
	if len(items) == 0 {
		items = append(items, "No critical issues detected - keep monitoring incoming feedback")
	}
	return items
}

func preview(entry *models.Feedback) EntryPreview {
	return EntryPreview{
		ID:        entry.ID,
		Source:    entry.Source,
		Text:      truncate(entry.Text, previewLength),
		Sentiment: deref(entry.Sentiment),
		Themes:    deref(entry.Themes),
		Urgency:   deref(entry.Urgency),
	}
}

// truncate bounds s to max runes, appending an ellipsis marker when cut.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
