package ai

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"fitweek/planner/internal/apperrors"
	"fitweek/planner/internal/domain"
)

// The AI answers with one of four response kinds, discriminated by call site.
// Each kind has its own payload struct and validation function; nothing
// crosses into the domain layer before it has been validated here.

// Outline is the validated 7-entry skeleton produced before full-day content
// generation. The orchestrator checks every generated day against it.
type Outline struct {
	PlanID        string
	WeekStartDate time.Time
	Days          [7]OutlineDay
}

// OutlineDay declares one day's workout type and intensity.
type OutlineDay struct {
	DayIndex    int
	WorkoutType domain.WorkoutType
	Intensity   string
}

// --- Raw payloads as the AI emits them ---

type outlinePayload struct {
	PlanID        string              `json:"planId"`
	WeekStartDate string              `json:"weekStartDate"`
	DayOutline    []outlineDayPayload `json:"dayOutline"`
}

type outlineDayPayload struct {
	DayIndex    int    `json:"dayIndex"`
	WorkoutType string `json:"workoutType"`
	Intensity   string `json:"intensity"`
}

type batchPayload struct {
	Days []dayPayload `json:"days"`
}

type fullPlanPayload struct {
	ID   string       `json:"id"`
	Days []dayPayload `json:"days"`
}

type modificationPayload struct {
	ModificationType string       `json:"modificationType"`
	ModifiedDays     []dayPayload `json:"modifiedDays"`
	Explanation      string       `json:"explanation"`
}

type dayPayload struct {
	DayIndex int             `json:"dayIndex"`
	Date     string          `json:"date,omitempty"`
	Workout  *workoutPayload `json:"workout,omitempty"`
	Meals    []mealPayload   `json:"meals"`
}

type workoutPayload struct {
	Type      string            `json:"type"`
	Exercises []exercisePayload `json:"exercises"`
}

type exercisePayload struct {
	ID          string `json:"id,omitempty"`
	Name        string `json:"name"`
	Sets        int    `json:"sets"`
	Reps        int    `json:"reps"`
	RestSeconds int    `json:"restSeconds"`
}

type mealPayload struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Ingredients []string `json:"ingredients"`
}

// ParseOutline validates an outline response: exactly 7 entries covering day
// indices 0-6 once each, every entry carrying a known workout type.
func ParseOutline(raw string) (*Outline, error) {
	var payload outlinePayload
	if err := unmarshalResponse(raw, &payload); err != nil {
		return nil, err
	}

	if len(payload.DayOutline) != 7 {
		return nil, schemaViolation(fmt.Sprintf("outline has %d entries, expected 7", len(payload.DayOutline)))
	}

	outline := &Outline{PlanID: payload.PlanID}
	if payload.WeekStartDate != "" {
		start, err := time.Parse(domain.DateKeyLayout, payload.WeekStartDate)
		if err != nil {
			return nil, schemaViolation(fmt.Sprintf("outline weekStartDate %q is not a date", payload.WeekStartDate))
		}
		outline.WeekStartDate = start
	}

	seen := [7]bool{}
	for _, entry := range payload.DayOutline {
		if entry.DayIndex < 0 || entry.DayIndex > 6 {
			return nil, schemaViolation(fmt.Sprintf("outline day index %d out of range", entry.DayIndex))
		}
		if seen[entry.DayIndex] {
			return nil, schemaViolation(fmt.Sprintf("outline declares day index %d twice", entry.DayIndex))
		}
		seen[entry.DayIndex] = true

		workoutType := domain.WorkoutType(entry.WorkoutType)
		if !workoutType.IsValid() {
			return nil, schemaViolation(fmt.Sprintf("outline day %d has unknown workout type %q", entry.DayIndex, entry.WorkoutType))
		}
		outline.Days[entry.DayIndex] = OutlineDay{
			DayIndex:    entry.DayIndex,
			WorkoutType: workoutType,
			Intensity:   entry.Intensity,
		}
	}
	return outline, nil
}

// ParseBatch validates a batch response against its assigned day range: 1 to
// 3 days, every index inside [lo, hi], no duplicates within the batch.
func ParseBatch(raw string, lo, hi int) ([]domain.DayPlan, error) {
	var payload batchPayload
	if err := unmarshalResponse(raw, &payload); err != nil {
		return nil, err
	}

	if len(payload.Days) < 1 || len(payload.Days) > 3 {
		return nil, schemaViolation(fmt.Sprintf("batch returned %d days, expected 1 to 3", len(payload.Days)))
	}

	seen := map[int]bool{}
	days := make([]domain.DayPlan, 0, len(payload.Days))
	for _, d := range payload.Days {
		if d.DayIndex < lo || d.DayIndex > hi {
			return nil, schemaViolation(fmt.Sprintf("batch day index %d outside assigned range [%d,%d]", d.DayIndex, lo, hi))
		}
		if seen[d.DayIndex] {
			return nil, schemaViolation(fmt.Sprintf("batch declares day index %d twice", d.DayIndex))
		}
		seen[d.DayIndex] = true

		day, err := convertDay(d)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, nil
}

// ParseFullPlan validates the single-shot response kind: exactly 7 days.
func ParseFullPlan(raw string) ([]domain.DayPlan, error) {
	var payload fullPlanPayload
	if err := unmarshalResponse(raw, &payload); err != nil {
		return nil, err
	}

	if len(payload.Days) != 7 {
		return nil, schemaViolation(fmt.Sprintf("full plan has %d days, expected 7", len(payload.Days)))
	}

	seen := [7]bool{}
	days := make([]domain.DayPlan, 0, 7)
	for _, d := range payload.Days {
		if d.DayIndex < 0 || d.DayIndex > 6 {
			return nil, schemaViolation(fmt.Sprintf("full plan day index %d out of range", d.DayIndex))
		}
		if seen[d.DayIndex] {
			return nil, schemaViolation(fmt.Sprintf("full plan declares day index %d twice", d.DayIndex))
		}
		seen[d.DayIndex] = true

		day, err := convertDay(d)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return days, nil
}

// ParseModification validates a partial modification response. ModifiedDays
// may be empty only when the modification was rejected.
func ParseModification(raw string) (*domain.PlanModification, error) {
	var payload modificationPayload
	if err := unmarshalResponse(raw, &payload); err != nil {
		return nil, err
	}

	modType := domain.ModificationType(payload.ModificationType)
	if !modType.IsValid() {
		return nil, schemaViolation(fmt.Sprintf("unknown modification type %q", payload.ModificationType))
	}

	if modType == domain.ModificationRejected {
		if len(payload.ModifiedDays) != 0 {
			return nil, schemaViolation("rejected modification must not carry modified days")
		}
		return &domain.PlanModification{Type: modType, Explanation: payload.Explanation}, nil
	}

	if len(payload.ModifiedDays) == 0 {
		return nil, schemaViolation("modification carries no modified days and was not rejected")
	}
	if len(payload.ModifiedDays) > 7 {
		return nil, schemaViolation(fmt.Sprintf("modification touches %d days, a week only has 7", len(payload.ModifiedDays)))
	}

	seen := [7]bool{}
	days := make([]domain.DayPlan, 0, len(payload.ModifiedDays))
	for _, d := range payload.ModifiedDays {
		if d.DayIndex < 0 || d.DayIndex > 6 {
			return nil, schemaViolation(fmt.Sprintf("modified day index %d out of range", d.DayIndex))
		}
		if seen[d.DayIndex] {
			return nil, schemaViolation(fmt.Sprintf("modification declares day index %d twice", d.DayIndex))
		}
		seen[d.DayIndex] = true

		day, err := convertDay(d)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	return &domain.PlanModification{Type: modType, ModifiedDays: days, Explanation: payload.Explanation}, nil
}

// convertDay turns a validated payload day into a domain day. Meals without a
// stable id get a fresh one so completion records can reference them.
func convertDay(d dayPayload) (domain.DayPlan, error) {
	day := domain.DayPlan{DayIndex: d.DayIndex, Meals: []domain.Meal{}}

	if d.Date != "" {
		date, err := time.Parse(domain.DateKeyLayout, d.Date)
		if err != nil {
			return domain.DayPlan{}, schemaViolation(fmt.Sprintf("day %d date %q is not a date", d.DayIndex, d.Date))
		}
		day.Date = date
	}

	if d.Workout != nil {
		workoutType := domain.WorkoutType(d.Workout.Type)
		if !workoutType.IsValid() {
			return domain.DayPlan{}, schemaViolation(fmt.Sprintf("day %d has unknown workout type %q", d.DayIndex, d.Workout.Type))
		}
		workout := &domain.Workout{Type: workoutType, Exercises: []domain.Exercise{}}
		for _, ex := range d.Workout.Exercises {
			if ex.Name == "" {
				return domain.DayPlan{}, schemaViolation(fmt.Sprintf("day %d has an exercise without a name", d.DayIndex))
			}
			exID := ex.ID
			if exID == "" {
				exID = uuid.NewString()
			}
			workout.Exercises = append(workout.Exercises, domain.Exercise{
				ID:          exID,
				Name:        ex.Name,
				Sets:        ex.Sets,
				Reps:        ex.Reps,
				RestSeconds: ex.RestSeconds,
			})
		}
		day.Workout = workout
	}

	for _, m := range d.Meals {
		if m.Name == "" {
			return domain.DayPlan{}, schemaViolation(fmt.Sprintf("day %d has a meal without a name", d.DayIndex))
		}
		id := m.ID
		if id == "" {
			id = uuid.NewString()
		}
		ingredients := m.Ingredients
		if ingredients == nil {
			ingredients = []string{}
		}
		day.Meals = append(day.Meals, domain.Meal{ID: id, Name: m.Name, Ingredients: ingredients})
	}
	return day, nil
}

// unmarshalResponse extracts the JSON object from raw text (the model tends
// to wrap it in code fences or prose) and decodes it into v.
func unmarshalResponse(raw string, v any) error {
	jsonStr := extractJSON(raw)
	if jsonStr == "" {
		return apperrors.New(apperrors.KindParseError, "The AI response contained no JSON object.")
	}
	if err := json.Unmarshal([]byte(jsonStr), v); err != nil {
		return apperrors.Wrap(err, apperrors.KindParseError, "The AI response was not valid JSON.")
	}
	return nil
}

// extractJSON returns the outermost JSON object in s, or "" if none exists.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	if start == -1 {
		return ""
	}
	end := strings.LastIndex(s, "}")
	if end == -1 || end <= start {
		return ""
	}
	return s[start : end+1]
}

func schemaViolation(detail string) error {
	return apperrors.Wrap(fmt.Errorf("%s", detail), apperrors.KindInvalidResponse, "The AI response did not match the expected schema.")
}
