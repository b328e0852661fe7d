package main

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"feedbacklens/analyze"
	"feedbacklens/cache"
	"feedbacklens/classify"
	"feedbacklens/config"
	"feedbacklens/db"
	"feedbacklens/feed"
	"feedbacklens/insights"

	"github.com/gin-gonic/gin"
)

type submitRequest struct {
	Source string `json:"source"`
	Text   string `json:"text"`
}

func main() {
	cfg := config.Load()

	database, err := db.InitDB(cfg)
	if err != nil {
		log.Fatal("Database initialization failed:", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		log.Fatal("Failed to get underlying *sql.DB:", err)
	}
	defer sqlDB.Close()

	store, err := db.NewFeedbackStore(database)
	if err != nil {
		log.Fatal("Store initialization failed:", err)
	}

	memCache := cache.NewMemory()
	extractor := classify.NewOpenAIExtractor(cfg)

	feedService := feed.NewService(store, memCache)
	insightsService := insights.NewService(store, memCache)
	analyzer := analyze.NewAnalyzer(store, extractor, memCache)

	r := gin.Default()

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/api/v1/feedback", func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
		entries, err := feedService.ListFeedback(c.Request.Context(), limit)
		if err != nil {
			serverError(c, err)
			return
		}
		c.JSON(http.StatusOK, entries)
	})

	r.POST("/api/v1/feedback", func(c *gin.Context) {
		var req submitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		entry, err := feedService.SubmitFeedback(c.Request.Context(), req.Source, req.Text)
		var vErr *feed.ValidationError
		if errors.As(err, &vErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
			return
		}
		if err != nil {
			serverError(c, err)
			return
		}
		c.JSON(http.StatusCreated, entry)
	})

	r.GET("/api/v1/feedback/stats", func(c *gin.Context) {
		data, err := insightsService.GetStats(c.Request.Context())
		if err != nil {
			serverError(c, err)
			return
		}
		c.Data(http.StatusOK, "application/json", data)
	})

	r.GET("/api/v1/feedback/insights", func(c *gin.Context) {
		data, err := insightsService.GetInsights(c.Request.Context())
		if err != nil {
			serverError(c, err)
			return
		}
		c.Data(http.StatusOK, "application/json", data)
	})

	r.POST("/api/v1/feedback/analyze", func(c *gin.Context) {
		result, err := analyzer.AnalyzeAll(c.Request.Context())
		if err != nil {
			serverError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	})

	r.POST("/api/v1/feedback/:id/analyze", func(c *gin.Context) {
		id, err := strconv.ParseUint(c.Param("id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid feedback id"})
			return
		}

		entry, err := analyzer.AnalyzeOne(c.Request.Context(), uint(id))
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "feedback not found"})
			return
		}
		if err != nil {
			serverError(c, err)
			return
		}
		c.JSON(http.StatusOK, entry)
	})

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	log.Printf("Server starting on %s", cfg.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Server failed to start: %v", err)
	}
}

func serverError(c *gin.Context, err error) {
	log.Printf("Request failed: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
