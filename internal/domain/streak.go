package domain

import "time"

// StreakData tracks the user's run of consecutive fully-completed days.
// Invariant: LongestStreak >= CurrentStreak after every calculator
// transition. Stored directly on the user's root record.
type StreakData struct {
	CurrentStreak     int        `bson:"currentStreak" json:"currentStreak"`
	LongestStreak     int        `bson:"longestStreak" json:"longestStreak"`
	LastCompletedDate *time.Time `bson:"lastCompletedDate,omitempty" json:"lastCompletedDate,omitempty"`
	StreakStartDate   *time.Time `bson:"streakStartDate,omitempty" json:"streakStartDate,omitempty"`
}
