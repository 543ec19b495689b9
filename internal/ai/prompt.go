package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"fitweek/planner/internal/domain"
)

// Prompt builders are pure functions from domain values to request text.
// They perform no I/O; the JSON contract embedded in each prompt mirrors the
// payload structs in schema.go exactly.

const jsonOnlyRules = `CRITICAL JSON FORMAT REQUIREMENTS:
- Your response MUST be a single valid JSON object
- Do not include markdown formatting or code fences
- Do not include any explanatory text before or after the JSON`

// BuildOutlinePrompt requests the 7-entry skeleton: per-day workout type and
// intensity honoring the user's equipment and dietary constraints.
func BuildOutlinePrompt(profile domain.UserProfileSnapshot, weekStartDate string) string {
	var sb strings.Builder
	sb.WriteString("You are a certified personal trainer and nutrition coach designing a 7-day fitness and nutrition plan.\n\n")
	sb.WriteString("TASK: Produce ONLY the weekly outline: one entry per day declaring the workout type and intensity. Do not generate exercises or meals yet.\n\n")
	writeProfile(&sb, profile)
	sb.WriteString(fmt.Sprintf("\nThe week starts on %s.\n\n", weekStartDate))
	sb.WriteString(`REQUIREMENTS:
- Exactly 7 entries with dayIndex 0 through 6
- workoutType must be one of: strength, cardio, mobility, mixed, rest
- Include at least one rest day
- intensity must be one of: low, moderate, high
- Respect the available equipment when choosing workout types

`)
	sb.WriteString(jsonOnlyRules)
	sb.WriteString(fmt.Sprintf(`
The JSON must have these exact fields:
{
  "planId": "a short identifier",
  "weekStartDate": "%s",
  "dayOutline": [
    {"dayIndex": 0, "workoutType": "strength", "intensity": "moderate"}
  ]
}`, weekStartDate))
	return sb.String()
}

// BuildBatchPrompt requests fully detailed days for the index range [lo, hi],
// carrying the outline plus a short rolling summary of previously generated
// days for narrative continuity.
func BuildBatchPrompt(profile domain.UserProfileSnapshot, outline *Outline, lo, hi int, previous []domain.DayPlan) string {
	var sb strings.Builder
	sb.WriteString("You are a certified personal trainer and nutrition coach filling in a 7-day fitness and nutrition plan.\n\n")
	sb.WriteString(fmt.Sprintf("TASK: Generate the full details for days %d through %d ONLY.\n\n", lo, hi))
	writeProfile(&sb, profile)

	sb.WriteString("\nWEEKLY OUTLINE (already decided, do not deviate):\n")
	for _, day := range outline.Days {
		sb.WriteString(fmt.Sprintf("- Day %d: %s (%s intensity)\n", day.DayIndex, day.WorkoutType, day.Intensity))
	}

	if summary := SummarizeDays(previous); summary != "" {
		sb.WriteString("\nDAYS ALREADY GENERATED (keep meals and training varied relative to these):\n")
		sb.WriteString(summary)
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf(`
REQUIREMENTS:
- Return only days with dayIndex between %d and %d
- Each day's workout type MUST match the outline exactly
- A rest day carries a workout with type "rest" and an empty exercises list
- Every non-rest day needs 3 to 6 exercises with sets, reps and restSeconds
- Every day needs 3 to 5 meals with ingredient lists
- Honor the dietary restrictions in every meal

`, lo, hi))
	sb.WriteString(jsonOnlyRules)
	sb.WriteString(`
The JSON must have these exact fields:
{
  "days": [
    {
      "dayIndex": 0,
      "workout": {"type": "strength", "exercises": [{"name": "Push-up", "sets": 3, "reps": 12, "restSeconds": 60}]},
      "meals": [{"name": "Oatmeal with berries", "ingredients": ["oats", "milk", "blueberries"]}]
    }
  ]
}`)
	return sb.String()
}

// BuildModificationPrompt embeds the current plan and the user's free-text
// request, instructing the AI to return only changed days or a rejection.
func BuildModificationPrompt(current *domain.WeeklyPlan, request string) string {
	planJSON, err := json.Marshal(current.Days)
	if err != nil {
		// Days always marshal; keep the prompt usable regardless.
		planJSON = []byte("[]")
	}

	var sb strings.Builder
	sb.WriteString("You are a certified personal trainer and nutrition coach. A user wants to modify their existing 7-day plan.\n\n")
	writeProfile(&sb, current.ProfileSnapshot)
	sb.WriteString("\nCURRENT PLAN:\n")
	sb.Write(planJSON)
	sb.WriteString("\n\nUSER REQUEST:\n")
	sb.WriteString(request)
	sb.WriteString(`

TASK: Apply the request by replacing whole days. Return ONLY the days that change.

REQUIREMENTS:
- modificationType is one of: dayReplacement, workoutUpdate, mealUpdate, rejected
- If the request is unsafe, contradictory or impossible, use "rejected" with an empty modifiedDays and explain why in "explanation"
- Keep the "id" of any meal you did not change so progress tracking still works
- A rest day carries a workout with type "rest" and an empty exercises list
- Keep every unaffected aspect of a modified day consistent with the current plan

`)
	sb.WriteString(jsonOnlyRules)
	sb.WriteString(`
The JSON must have these exact fields:
{
  "modificationType": "dayReplacement",
  "modifiedDays": [
    {
      "dayIndex": 2,
      "workout": {"type": "cardio", "exercises": [{"name": "Interval run", "sets": 1, "reps": 6, "restSeconds": 90}]},
      "meals": [{"id": "keep-existing-id", "name": "Chicken salad", "ingredients": ["chicken", "lettuce"]}]
    }
  ],
  "explanation": "One sentence describing the change"
}`)
	return sb.String()
}

// BuildChatPrompt wraps a free-form user message in the coach persona for the
// lightweight chat call.
func BuildChatPrompt(profile domain.UserProfileSnapshot, message string) string {
	var sb strings.Builder
	sb.WriteString("You are a friendly, concise fitness and nutrition coach. Answer the user's question in a few sentences. Do not prescribe medication or diagnose conditions.\n\n")
	writeProfile(&sb, profile)
	sb.WriteString("\nUSER QUESTION:\n")
	sb.WriteString(message)
	return sb.String()
}

// SummarizeDays produces the short rolling summary of already-generated days
// carried into the next batch prompt.
func SummarizeDays(days []domain.DayPlan) string {
	if len(days) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, day := range days {
		sb.WriteString(fmt.Sprintf("- Day %d: ", day.DayIndex))
		if day.IsRestDay() {
			sb.WriteString("rest")
		} else {
			names := make([]string, 0, len(day.Workout.Exercises))
			for _, ex := range day.Workout.Exercises {
				names = append(names, ex.Name)
			}
			sb.WriteString(fmt.Sprintf("%s (%s)", day.Workout.Type, strings.Join(names, ", ")))
		}
		if len(day.Meals) > 0 {
			meals := make([]string, 0, len(day.Meals))
			for _, m := range day.Meals {
				meals = append(meals, m.Name)
			}
			sb.WriteString("; meals: " + strings.Join(meals, ", "))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func writeProfile(sb *strings.Builder, profile domain.UserProfileSnapshot) {
	sb.WriteString("USER PROFILE:\n")
	sb.WriteString(fmt.Sprintf("- Age %d, %s, %.0f cm, %.1f kg\n", profile.Age, profile.Gender, profile.HeightCm, profile.WeightKg))
	sb.WriteString(fmt.Sprintf("- Goal: %s\n", profile.Goal))
	sb.WriteString(fmt.Sprintf("- Activity level: %s\n", profile.ActivityLevel))
	if len(profile.Equipment) > 0 {
		sb.WriteString(fmt.Sprintf("- Available equipment: %s\n", strings.Join(profile.Equipment, ", ")))
	} else {
		sb.WriteString("- Available equipment: none (bodyweight only)\n")
	}
	if len(profile.DietaryRestrictions) > 0 {
		sb.WriteString(fmt.Sprintf("- Dietary restrictions: %s\n", strings.Join(profile.DietaryRestrictions, ", ")))
	}
}
