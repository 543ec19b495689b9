package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"fitweek/planner/internal/domain"
	"fitweek/planner/internal/service"
	"fitweek/planner/internal/storage"
)

// PlanHandler holds the plan service dependency.
type PlanHandler struct {
	planService service.PlanService
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(planService service.PlanService) *PlanHandler {
	return &PlanHandler{planService: planService}
}

// --- DTOs for API (Data Transfer Objects) ---

// GeneratePlanRequest carries the profile snapshot the plan is generated for.
type GeneratePlanRequest struct {
	Age                 int      `json:"age" binding:"required,gt=0"`
	Gender              string   `json:"gender" binding:"omitempty"`
	HeightCm            float64  `json:"heightCm" binding:"required,gt=0"`
	WeightKg            float64  `json:"weightKg" binding:"required,gt=0"`
	Goal                string   `json:"goal" binding:"required"`
	ActivityLevel       string   `json:"activityLevel" binding:"omitempty"`
	Equipment           []string `json:"equipment" binding:"omitempty"`
	DietaryRestrictions []string `json:"dietaryRestrictions" binding:"omitempty"`
}

// ModifyPlanRequest is the free-text change request against the current plan.
type ModifyPlanRequest struct {
	Request string `json:"request" binding:"required"`
}

// ChatRequest is a single coach question.
type ChatRequest struct {
	Message string `json:"message" binding:"required"`
}

// PlanResponse is the DTO for returning a weekly plan.
type PlanResponse struct {
	ID        string        `json:"id"`
	UserID    string        `json:"userId"`
	CreatedAt time.Time     `json:"createdAt"`
	StartDate time.Time     `json:"startDate"`
	Days      []DayResponse `json:"days"`
	IsActive  bool          `json:"isActive"`
}

// DayResponse is one day of the plan.
type DayResponse struct {
	DayIndex int              `json:"dayIndex"`
	Date     string           `json:"date,omitempty"`
	Workout  *WorkoutResponse `json:"workout,omitempty"`
	Meals    []MealResponse   `json:"meals"`
}

// WorkoutResponse is the day's training session.
type WorkoutResponse struct {
	Type      string             `json:"type"`
	Exercises []ExerciseResponse `json:"exercises"`
}

// ExerciseResponse is one movement inside a workout.
type ExerciseResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Sets        int    `json:"sets"`
	Reps        int    `json:"reps"`
	RestSeconds int    `json:"restSeconds"`
	IsComplete  bool   `json:"isComplete"`
}

// MealResponse is one meal of a day.
type MealResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Ingredients []string `json:"ingredients"`
	IsComplete  bool     `json:"isComplete"`
}

// ChatResponse carries the coach's reply.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// ArchiveURLResponse carries a temporary snapshot download link.
type ArchiveURLResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// MapPlanToResponse converts a domain.WeeklyPlan to PlanResponse DTO.
func MapPlanToResponse(p *domain.WeeklyPlan) PlanResponse {
	if p == nil {
		return PlanResponse{}
	}
	days := make([]DayResponse, len(p.Days))
	for i, d := range p.Days {
		days[i] = mapDayToResponse(d)
	}
	return PlanResponse{
		ID:        p.ID,
		UserID:    p.UserID,
		CreatedAt: p.CreatedAt,
		StartDate: p.StartDate,
		Days:      days,
		IsActive:  p.IsActive,
	}
}

func mapDayToResponse(d domain.DayPlan) DayResponse {
	resp := DayResponse{DayIndex: d.DayIndex, Meals: make([]MealResponse, len(d.Meals))}
	if !d.Date.IsZero() {
		resp.Date = domain.DateKey(d.Date)
	}
	if d.Workout != nil {
		workout := &WorkoutResponse{
			Type:      string(d.Workout.Type),
			Exercises: make([]ExerciseResponse, len(d.Workout.Exercises)),
		}
		for i, ex := range d.Workout.Exercises {
			workout.Exercises[i] = ExerciseResponse(ex)
		}
		resp.Workout = workout
	}
	for i, m := range d.Meals {
		resp.Meals[i] = MealResponse(m)
	}
	return resp
}

// --- Handler Methods ---

// GeneratePlan godoc
// @Summary Generate a new weekly plan
// @Description Generates a full 7-day workout and meal plan for the authenticated user. The previous plan, if any, is archived.
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param profile body GeneratePlanRequest true "User profile"
// @Success 201 {object} PlanResponse "Plan generated"
// @Failure 400 {object} gin.H "Invalid input (validation error)"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 429 {object} gin.H "AI rate limit reached"
// @Failure 502 {object} gin.H "AI returned an unusable response"
// @Router /plans/generate [post]
func (h *PlanHandler) GeneratePlan(c *gin.Context) {
	var req GeneratePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	goal := domain.FitnessGoal(req.Goal)
	if !goal.IsValid() {
		abortWithError(c, http.StatusBadRequest, "Unknown fitness goal: "+req.Goal)
		return
	}

	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	profile := domain.UserProfileSnapshot{
		Age:                 req.Age,
		Gender:              req.Gender,
		HeightCm:            req.HeightCm,
		WeightKg:            req.WeightKg,
		Goal:                goal,
		ActivityLevel:       req.ActivityLevel,
		Equipment:           req.Equipment,
		DietaryRestrictions: req.DietaryRestrictions,
	}

	plan, err := h.planService.GeneratePlan(c.Request.Context(), userID, profile)
	if err != nil {
		abortWithAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, MapPlanToResponse(plan))
}

// GetCurrentPlan godoc
// @Summary Get the active weekly plan
// @Description Returns the authenticated user's active plan, or 404 if none exists.
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Success 200 {object} PlanResponse "Active plan"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 404 {object} gin.H "No active plan"
// @Router /plans/current [get]
func (h *PlanHandler) GetCurrentPlan(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	plan, err := h.planService.GetCurrentPlan(c.Request.Context(), userID)
	if err != nil {
		abortWithAppError(c, err)
		return
	}
	if plan == nil {
		abortWithError(c, http.StatusNotFound, "No active plan. Generate one first.")
		return
	}

	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

// ModifyPlan godoc
// @Summary Modify the active plan
// @Description Applies a free-text change request to the active plan. The AI may reject unsafe or unrelated requests.
// @Tags Plans
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param modification body ModifyPlanRequest true "Change request"
// @Success 200 {object} PlanResponse "Modified plan"
// @Failure 400 {object} gin.H "Invalid input or rejected modification"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 502 {object} gin.H "AI returned an unusable response"
// @Router /plans/modify [post]
func (h *PlanHandler) ModifyPlan(c *gin.Context) {
	var req ModifyPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	plan, err := h.planService.ModifyPlan(c.Request.Context(), userID, req.Request)
	if err != nil {
		abortWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, MapPlanToResponse(plan))
}

// Chat godoc
// @Summary Ask the coach a question
// @Description Sends one question to the AI coach. The reply is plain text, not a plan change.
// @Tags Chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param message body ChatRequest true "Question"
// @Success 200 {object} ChatResponse "Coach reply"
// @Failure 400 {object} gin.H "Invalid input"
// @Failure 401 {object} gin.H "Unauthorized"
// @Router /chat [post]
func (h *PlanHandler) Chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	reply, err := h.planService.Chat(c.Request.Context(), userID, req.Message)
	if err != nil {
		abortWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, ChatResponse{Reply: reply})
}

// GetArchiveURL godoc
// @Summary Get a download link for an archived plan snapshot
// @Description Returns a temporary presigned URL for the JSON snapshot of one of the user's plans.
// @Tags Plans
// @Produce json
// @Security BearerAuth
// @Param planId path string true "Plan ID"
// @Success 200 {object} ArchiveURLResponse "Download link"
// @Failure 401 {object} gin.H "Unauthorized"
// @Failure 403 {object} gin.H "Plan belongs to another user"
// @Failure 404 {object} gin.H "Plan not found"
// @Router /plans/archive/{planId}/url [get]
func (h *PlanHandler) GetArchiveURL(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify user from token.")
		return
	}

	planID := c.Param("planId")
	if planID == "" {
		abortWithError(c, http.StatusBadRequest, "Plan ID is required.")
		return
	}

	url, err := h.planService.ArchiveDownloadURL(c.Request.Context(), userID, planID)
	if err != nil {
		abortWithAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, ArchiveURLResponse{
		URL:       url,
		ExpiresAt: time.Now().Add(storage.DefaultPresignedURLExpiry),
	})
}
