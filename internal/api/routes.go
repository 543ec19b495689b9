package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fitweek/planner/internal/service"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	planService service.PlanService,
	trackingService service.TrackingService,
) {
	planHandler := NewPlanHandler(planService)
	trackingHandler := NewTrackingHandler(trackingService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		// --- Plan Routes ---
		planGroup := protected.Group("/plans")
		{
			// POST /api/v1/plans/generate
			planGroup.POST("/generate", planHandler.GeneratePlan)
			// GET /api/v1/plans/current
			planGroup.GET("/current", planHandler.GetCurrentPlan)
			// POST /api/v1/plans/modify
			planGroup.POST("/modify", planHandler.ModifyPlan)
			// GET /api/v1/plans/archive/{planId}/url
			planGroup.GET("/archive/:planId/url", planHandler.GetArchiveURL)
		}

		// --- Completion Tracking Routes ---
		completionGroup := protected.Group("/completions")
		{
			// GET /api/v1/completions/{date}
			completionGroup.GET("/:date", trackingHandler.GetCompletion)
			// POST /api/v1/completions/{date}/meals/{id}/toggle
			completionGroup.POST("/:date/meals/:id/toggle", trackingHandler.ToggleMeal)
			// POST /api/v1/completions/{date}/exercises/{id}/toggle
			completionGroup.POST("/:date/exercises/:id/toggle", trackingHandler.ToggleExercise)
		}

		// --- Streak Routes ---
		streakGroup := protected.Group("/streak")
		{
			// GET /api/v1/streak
			streakGroup.GET("", trackingHandler.GetStreak)
			// POST /api/v1/streak/check
			streakGroup.POST("/check", trackingHandler.CheckStreak)
		}

		// --- Coach Chat ---
		// POST /api/v1/chat
		protected.POST("/chat", planHandler.Chat)
	}
}
