package main

import (
	"context"
	"log"
	"math/rand"
	"time"

	"feedbacklens/config"
	"feedbacklens/db"
	"feedbacklens/models"
)

var sources = []string{"GitHub", "Email", "App Store", "Intercom", "Twitter"}

var feedbackTemplates = []string{
	"The app crashes every time I try to export my report. Please fix this, it's blocking my whole team.",
	"Would love to see a dark mode option. The white background is hard on the eyes at night.",
	"Dashboard takes over 10 seconds to load since the last update. It used to be instant.",
	"Great product overall! The new filtering feature saved me hours this week.",
	"Your API documentation is missing the pagination parameters. Had to guess them from the responses.",
	"Pricing jumped 40% without any notice. Seriously considering alternatives.",
	"Can you add webhook support for the integration with our CI pipeline?",
	"Login keeps failing on mobile Safari. Works fine on desktop.",
	"The onboarding flow is confusing - took me three tries to invite my team.",
	"Love the keyboard shortcuts, but they are not documented anywhere I can find.",
	"Getting 500 errors from the /v2/events endpoint since this morning.",
	"The accessibility of the charts is poor - screen readers cannot read any values.",
	"Support took five days to answer a billing question. That is too slow.",
	"Really impressed with the uptime lately. Keep it up!",
	"Export to CSV silently drops rows beyond 10k. That is a data-loss bug.",
}

// seed inserts demo feedback spread over the past 30 days so the dashboard
// has data before any real ingestion.
func main() {
	cfg := config.Load()

	database, err := db.InitDB(cfg)
	if err != nil {
		log.Fatal("Database initialization failed:", err)
	}

	store, err := db.NewFeedbackStore(database)
	if err != nil {
		log.Fatal("Store initialization failed:", err)
	}

	ctx := context.Background()
	now := time.Now().UTC()
	count := 0

	for i, text := range feedbackTemplates {
		feedback := &models.Feedback{
			Source:    sources[i%len(sources)],
			Text:      text,
			CreatedAt: now.Add(-time.Duration(rand.Intn(30*24)) * time.Hour),
		}
		if err := store.Create(ctx, feedback); err != nil {
			log.Printf("Failed to seed entry %d: %v", i, err)
			continue
		}
		count++
	}

	log.Printf("Seeded %d feedback entries", count)
}
