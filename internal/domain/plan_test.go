package domain

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"
)

func samplePlan() *WeeklyPlan {
	start := time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)
	days := make([]DayPlan, 7)
	for i := range days {
		days[i] = DayPlan{
			DayIndex: i,
			Date:     start.AddDate(0, 0, i),
			Meals: []Meal{
				{ID: "m1", Name: "Oatmeal", Ingredients: []string{"oats", "milk"}},
			},
		}
		if i%3 == 2 {
			days[i].Workout = &Workout{Type: WorkoutRest, Exercises: []Exercise{}}
		} else {
			days[i].Workout = &Workout{
				Type: WorkoutStrength,
				Exercises: []Exercise{
					{ID: "e1", Name: "Squat", Sets: 3, Reps: 8, RestSeconds: 90, IsComplete: true},
				},
			}
		}
	}
	return &WeeklyPlan{
		ID:        "plan-1",
		UserID:    "user-1",
		CreatedAt: start,
		StartDate: start,
		Days:      days,
		ProfileSnapshot: UserProfileSnapshot{
			Age:                 31,
			HeightCm:            178,
			WeightKg:            74.5,
			Goal:                GoalBuildMuscle,
			Equipment:           []string{"dumbbells"},
			DietaryRestrictions: []string{"vegetarian"},
		},
		IsActive: true,
	}
}

func TestWeeklyPlan_JSONRoundTrip(t *testing.T) {
	original := samplePlan()

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded WeeklyPlan
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if !reflect.DeepEqual(*original, decoded) {
		t.Errorf("round trip changed the plan:\n got %+v\nwant %+v", decoded, *original)
	}
}

func TestWeeklyPlan_Day(t *testing.T) {
	p := samplePlan()

	if d := p.Day(3); d == nil || d.DayIndex != 3 {
		t.Errorf("Day(3) = %+v, want day index 3", d)
	}
	if d := p.Day(7); d != nil {
		t.Errorf("Day(7) = %+v, want nil", d)
	}
}

func TestDayPlan_IsRestDay(t *testing.T) {
	rest := DayPlan{Workout: &Workout{Type: WorkoutRest}}
	if !rest.IsRestDay() {
		t.Error("rest workout not treated as rest day")
	}
	noWorkout := DayPlan{}
	if !noWorkout.IsRestDay() {
		t.Error("missing workout not treated as rest day")
	}
	training := DayPlan{Workout: &Workout{Type: WorkoutCardio}}
	if training.IsRestDay() {
		t.Error("cardio day treated as rest day")
	}
}

func TestWorkoutType_IsValid(t *testing.T) {
	for _, valid := range []WorkoutType{WorkoutStrength, WorkoutCardio, WorkoutMobility, WorkoutMixed, WorkoutRest} {
		if !valid.IsValid() {
			t.Errorf("%q should be valid", valid)
		}
	}
	if WorkoutType("yoga").IsValid() {
		t.Error("unknown type accepted")
	}
}
