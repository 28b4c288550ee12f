// Package progress reduces a task list into completion metrics and a
// tri-state health classification.
//
// Calculate is a pure function: no I/O, no clock access; callers pass
// the current time explicitly so the staleness rule stays testable.
package progress

import (
	"math"
	"time"

	"github.com/fyrsmithlabs/repotrackr/internal/plan"
)

// Classification is the tri-state project health signal.
type Classification string

const (
	Green  Classification = "green"
	Yellow Classification = "yellow"
	Red    Classification = "red"
)

// Thresholds for the classification rules.
const (
	greenPercent  = 70.0
	yellowPercent = 30.0
)

// Snapshot holds the aggregate completion state of one pipeline run.
// The four counts always sum to Total.
type Snapshot struct {
	// Percentage is done/(todo+doing+done)*100, one decimal place.
	// Blocked tasks are excluded from the denominator.
	Percentage float64

	Total   int
	Done    int
	Doing   int
	Todo    int
	Blocked int

	Classification Classification
}

// Calculate reduces tasks into a snapshot and health classification.
//
// Classification rules, first match wins:
//  1. lastUpdate older than staleDays (or zero) -> red
//  2. percentage >= 70 and no blocked tasks     -> green
//  3. percentage >= 30 and at most one blocked  -> yellow
//  4. otherwise                                 -> red
//
// A task list with no actionable tasks (empty, or blocked-only) has
// percentage 0 and is red: no actionable work is unhealthy, not
// undefined.
func Calculate(tasks []plan.Task, lastUpdate, now time.Time, staleDays int) Snapshot {
	s := Snapshot{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case plan.StatusDone:
			s.Done++
		case plan.StatusDoing:
			s.Doing++
		case plan.StatusTodo:
			s.Todo++
		case plan.StatusBlocked:
			s.Blocked++
		}
	}

	denominator := s.Done + s.Doing + s.Todo
	if denominator > 0 {
		s.Percentage = round1(float64(s.Done) / float64(denominator) * 100)
	}

	s.Classification = classify(s, denominator, lastUpdate, now, staleDays)
	return s
}

func classify(s Snapshot, denominator int, lastUpdate, now time.Time, staleDays int) Classification {
	if isStale(lastUpdate, now, staleDays) {
		return Red
	}
	if denominator == 0 {
		return Red
	}
	if s.Percentage >= greenPercent && s.Blocked == 0 {
		return Green
	}
	if s.Percentage >= yellowPercent && s.Blocked <= 1 {
		return Yellow
	}
	return Red
}

// isStale reports whether the plan has not moved within staleDays.
// A zero lastUpdate counts as stale: a project that never updated has
// no evidence of life.
func isStale(lastUpdate, now time.Time, staleDays int) bool {
	if lastUpdate.IsZero() {
		return true
	}
	return now.Sub(lastUpdate) > time.Duration(staleDays)*24*time.Hour
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
