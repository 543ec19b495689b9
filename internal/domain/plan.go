package domain

import (
	"time"
)

// WorkoutType classifies an entire day's training focus.
type WorkoutType string

const (
	WorkoutStrength WorkoutType = "strength"
	WorkoutCardio   WorkoutType = "cardio"
	WorkoutMobility WorkoutType = "mobility"
	WorkoutMixed    WorkoutType = "mixed"
	WorkoutRest     WorkoutType = "rest"
)

// IsValid reports whether t is one of the known workout types.
func (t WorkoutType) IsValid() bool {
	switch t {
	case WorkoutStrength, WorkoutCardio, WorkoutMobility, WorkoutMixed, WorkoutRest:
		return true
	}
	return false
}

// WeeklyPlan is the 7-day bundle of workouts and meals produced by the
// generation pipeline. Exactly one plan per user is active in the remote
// store at any time; superseding a plan flips the prior one to archived.
type WeeklyPlan struct {
	ID              string              `bson:"_id" json:"id"`
	UserID          string              `bson:"userId" json:"userId"`
	CreatedAt       time.Time           `bson:"createdAt" json:"createdAt"`
	StartDate       time.Time           `bson:"startDate" json:"startDate"`
	Days            []DayPlan           `bson:"days" json:"days"`
	ProfileSnapshot UserProfileSnapshot `bson:"profileSnapshot" json:"profileSnapshot"`
	IsActive        bool                `bson:"isActive" json:"isActive"`
}

// DayPlan holds one day's workout and meals. Date is derived from the plan's
// start date plus the day index.
type DayPlan struct {
	DayIndex int       `bson:"dayIndex" json:"dayIndex"`
	Date     time.Time `bson:"date" json:"date"`
	Workout  *Workout  `bson:"workout,omitempty" json:"workout,omitempty"`
	Meals    []Meal    `bson:"meals" json:"meals"`
}

// Workout is a single day's training session. Type "rest" implies an empty
// exercise list.
type Workout struct {
	Type      WorkoutType `bson:"type" json:"type"`
	Exercises []Exercise  `bson:"exercises" json:"exercises"`
}

// Exercise is one movement inside a workout. The ID is stable and referenced
// by completion records, like Meal.ID.
type Exercise struct {
	ID          string `bson:"id" json:"id"`
	Name        string `bson:"name" json:"name"`
	Sets        int    `bson:"sets" json:"sets"`
	Reps        int    `bson:"reps" json:"reps"`
	RestSeconds int    `bson:"restSeconds" json:"restSeconds"`
	IsComplete  bool   `bson:"isComplete" json:"isComplete"`
}

// Meal is one meal of a day. The ID is stable and referenced by completion
// records, so it must survive partial plan modifications.
type Meal struct {
	ID          string   `bson:"id" json:"id"`
	Name        string   `bson:"name" json:"name"`
	Ingredients []string `bson:"ingredients" json:"ingredients"`
	IsComplete  bool     `bson:"isComplete" json:"isComplete"`
}

// Day returns the day plan for the given index, or nil if out of range.
func (p *WeeklyPlan) Day(index int) *DayPlan {
	for i := range p.Days {
		if p.Days[i].DayIndex == index {
			return &p.Days[i]
		}
	}
	return nil
}

// IsRestDay reports whether the day carries no workout or a rest workout.
func (d *DayPlan) IsRestDay() bool {
	return d.Workout == nil || d.Workout.Type == WorkoutRest
}
