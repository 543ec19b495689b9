package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fitweek/planner/internal/domain"
	"fitweek/planner/internal/service"
)

// TrackingHandler holds the tracking service dependency.
type TrackingHandler struct {
	trackingService service.TrackingService
}

// NewTrackingHandler creates a new TrackingHandler.
func NewTrackingHandler(trackingService service.TrackingService) *TrackingHandler {
	return &TrackingHandler{trackingService: trackingService}
}

// --- DTOs for API (Data Transfer Objects) ---

// CompletionResponse is the DTO for one day's completion record.
type CompletionResponse struct {
	UserID               string    `json:"userId"`
	Date                 string    `json:"date"`
	CompletedMealIDs     []string  `json:"completedMealIds"`
	CompletedExerciseIDs []string  `json:"completedExerciseIds"`
	UpdatedAt            time.Time `json:"updatedAt"`
}

// StreakResponse is the DTO for the user's streak state.
type StreakResponse struct {
	CurrentStreak     int    `json:"currentStreak"`
	LongestStreak     int    `json:"longestStreak"`
	LastCompletedDate string `json:"lastCompletedDate,omitempty"`
	StreakStartDate   string `json:"streakStartDate,omitempty"`
}

// MapCompletionToResponse converts a domain.DailyCompletion to its DTO.
func MapCompletionToResponse(rec *domain.DailyCompletion) CompletionResponse {
	if rec == nil {
		return CompletionResponse{}
	}
	return CompletionResponse{
		UserID:               rec.UserID,
		Date:                 rec.DateKey,
		CompletedMealIDs:     rec.CompletedMealIDs,
		CompletedExerciseIDs: rec.CompletedExerciseIDs,
		UpdatedAt:            rec.UpdatedAt,
	}
}

// MapStreakToResponse converts a domain.StreakData to its DTO.
func MapStreakToResponse(data domain.StreakData) StreakResponse {
	resp := StreakResponse{
		CurrentStreak: data.CurrentStreak,
		LongestStreak: data.LongestStreak,
	}
	if data.LastCompletedDate != nil {
		resp.LastCompletedDate = domain.DateKey(*data.LastCompletedDate)
	}
	if data.StreakStartDate != nil {
		resp.StreakStartDate = domain.DateKey(*data.StreakStartDate)
	}
	return resp
}

// parseDateParam parses the :date path parameter as an ISO date.
func parseDateParam(c *gin.Context) (time.Time, bool) {
	date, err := time.Parse(domain.DateKeyLayout, c.Param("date"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Date must be formatted as YYYY-MM-DD.")
		return time.Time{}, false
	}
	return date, true
}

// --- Handler Methods ---

// GetCompletion godoc
// @Summary Get the completion record for a date
// @Description Returns which meals and exercises are marked done on the given date. An empty record is returned for untouched dates.
// @Tags Tracking
// @Produce json
// @Security BearerAuth
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} CompletionResponse "Completion record"
// @Failure 400 {object} gin.H "Invalid date"
// @Failure 401 {object} gin.H "Unauthorized"
// @Router /completions/{date} [get]
func (h *TrackingHandler) GetCompletion(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	date, ok := parseDateParam(c)
	if !ok {
		return
	}

	rec, err := h.trackingService.GetCompletion(c.Request.Context(), userID, date)
	if err != nil {
		abortWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, MapCompletionToResponse(rec))
}

// ToggleMeal godoc
// @Summary Toggle a meal's completion state
// @Description Flips whether the meal is marked done on the given date and returns the updated record.
// @Tags Tracking
// @Produce json
// @Security BearerAuth
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param id path string true "Meal ID"
// @Success 200 {object} CompletionResponse "Updated record"
// @Failure 400 {object} gin.H "Invalid date"
// @Failure 401 {object} gin.H "Unauthorized"
// @Router /completions/{date}/meals/{id}/toggle [post]
func (h *TrackingHandler) ToggleMeal(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	date, ok := parseDateParam(c)
	if !ok {
		return
	}
	mealID := c.Param("id")
	if mealID == "" {
		abortWithError(c, http.StatusBadRequest, "Meal ID is required.")
		return
	}

	rec, err := h.trackingService.ToggleMeal(c.Request.Context(), userID, date, mealID)
	if err != nil {
		abortWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, MapCompletionToResponse(rec))
}

// ToggleExercise godoc
// @Summary Toggle an exercise's completion state
// @Description Flips whether the exercise is marked done on the given date and returns the updated record.
// @Tags Tracking
// @Produce json
// @Security BearerAuth
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param id path string true "Exercise ID"
// @Success 200 {object} CompletionResponse "Updated record"
// @Failure 400 {object} gin.H "Invalid date"
// @Failure 401 {object} gin.H "Unauthorized"
// @Router /completions/{date}/exercises/{id}/toggle [post]
func (h *TrackingHandler) ToggleExercise(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}
	date, ok := parseDateParam(c)
	if !ok {
		return
	}
	exerciseID := c.Param("id")
	if exerciseID == "" {
		abortWithError(c, http.StatusBadRequest, "Exercise ID is required.")
		return
	}

	rec, err := h.trackingService.ToggleExercise(c.Request.Context(), userID, date, exerciseID)
	if err != nil {
		abortWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, MapCompletionToResponse(rec))
}

// GetStreak godoc
// @Summary Get the current streak
// @Description Returns the user's current and longest consecutive-day streaks.
// @Tags Streak
// @Produce json
// @Security BearerAuth
// @Success 200 {object} StreakResponse "Streak state"
// @Failure 401 {object} gin.H "Unauthorized"
// @Router /streak [get]
func (h *TrackingHandler) GetStreak(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	data, err := h.trackingService.GetStreak(c.Request.Context(), userID)
	if err != nil {
		abortWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, MapStreakToResponse(data))
}

// CheckStreak godoc
// @Summary Check and reset a lapsed streak
// @Description Zeroes the current streak if more than one day has passed without a completed day. Called by the client on startup.
// @Tags Streak
// @Produce json
// @Security BearerAuth
// @Success 200 {object} StreakResponse "Streak state after the check"
// @Failure 401 {object} gin.H "Unauthorized"
// @Router /streak/check [post]
func (h *TrackingHandler) CheckStreak(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	data, err := h.trackingService.CheckAndResetStreak(c.Request.Context(), userID)
	if err != nil {
		abortWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, MapStreakToResponse(data))
}
