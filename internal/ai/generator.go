package ai

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fitweek/planner/internal/apperrors"
	"fitweek/planner/internal/domain"
	"fitweek/planner/internal/plan"
)

// batchRanges are the fixed day-index ranges requested per batch. They are
// issued strictly sequentially because each batch's prompt carries a summary
// of the days produced by the previous batches.
var batchRanges = [3]struct{ lo, hi int }{
	{0, 2},
	{3, 5},
	{6, 6},
}

// Generator sequences prompt building, AI calls and schema validation into a
// complete weekly plan: one outline call, then three day-batches. Any call
// failure or schema violation aborts the entire generation; nothing partial
// is ever returned.
type Generator struct {
	client TextGenerator
}

// NewGenerator creates a plan generator on top of the given AI client.
func NewGenerator(client TextGenerator) *Generator {
	return &Generator{client: client}
}

// GeneratePlan builds a full 7-day plan for the user. The profile snapshot is
// embedded in the result; startDate anchors each day's date.
func (g *Generator) GeneratePlan(ctx context.Context, userID string, profile domain.UserProfileSnapshot, startDate time.Time) (*domain.WeeklyPlan, error) {
	slog.Info("starting plan generation", "user_id", userID)

	outline, err := g.requestOutline(ctx, profile, startDate)
	if err != nil {
		return nil, err
	}

	days := make([]*domain.DayPlan, plan.DaysPerWeek)
	assembled := make([]domain.DayPlan, 0, plan.DaysPerWeek)

	for i, r := range batchRanges {
		slog.Info("requesting generation batch", "user_id", userID, "batch", i+1, "range_lo", r.lo, "range_hi", r.hi)

		raw, err := g.client.Generate(ctx, BuildBatchPrompt(profile, outline, r.lo, r.hi, assembled))
		if err != nil {
			return nil, err
		}
		batch, err := ParseBatch(raw, r.lo, r.hi)
		if err != nil {
			return nil, err
		}

		for _, day := range batch {
			if days[day.DayIndex] != nil {
				return nil, assemblyViolation(fmt.Sprintf("day index %d returned by more than one batch", day.DayIndex))
			}
			if err := checkAgainstOutline(outline, day); err != nil {
				return nil, err
			}
			d := day
			days[day.DayIndex] = &d
			assembled = append(assembled, d)
		}
	}

	// After three batches exactly the indices 0-6 must be covered.
	result := make([]domain.DayPlan, 0, plan.DaysPerWeek)
	for i, day := range days {
		if day == nil {
			return nil, assemblyViolation(fmt.Sprintf("no batch produced day index %d", i))
		}
		day.Date = startDate.AddDate(0, 0, i)
		result = append(result, *day)
	}

	weekly := &domain.WeeklyPlan{
		ID:              uuid.NewString(),
		UserID:          userID,
		CreatedAt:       time.Now().UTC(),
		StartDate:       startDate,
		Days:            result,
		ProfileSnapshot: profile,
		IsActive:        true,
	}
	if err := plan.ValidateStructure(weekly); err != nil {
		return nil, err
	}

	slog.Info("plan generation complete", "user_id", userID, "plan_id", weekly.ID)
	return weekly, nil
}

func (g *Generator) requestOutline(ctx context.Context, profile domain.UserProfileSnapshot, startDate time.Time) (*Outline, error) {
	raw, err := g.client.Generate(ctx, BuildOutlinePrompt(profile, startDate.Format(domain.DateKeyLayout)))
	if err != nil {
		return nil, err
	}
	return ParseOutline(raw)
}

// checkAgainstOutline rejects any day whose workout disagrees with the
// outline's declared type. Mismatches fail the generation; there is no silent
// correction.
func checkAgainstOutline(outline *Outline, day domain.DayPlan) error {
	declared := outline.Days[day.DayIndex].WorkoutType

	actual := domain.WorkoutRest
	if day.Workout != nil {
		actual = day.Workout.Type
	}
	if actual != declared {
		return assemblyViolation(fmt.Sprintf("day %d workout type %q does not match outline type %q", day.DayIndex, actual, declared))
	}
	if declared == domain.WorkoutRest && day.Workout != nil && len(day.Workout.Exercises) > 0 {
		return assemblyViolation(fmt.Sprintf("day %d is declared a rest day but carries %d exercises", day.DayIndex, len(day.Workout.Exercises)))
	}
	return nil
}

func assemblyViolation(detail string) error {
	return apperrors.Wrap(fmt.Errorf("%s", detail), apperrors.KindInvalidResponse, "The AI produced an inconsistent plan.")
}
