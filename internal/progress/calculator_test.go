package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/repotrackr/internal/plan"
)

func makeTasks(done, doing, todo, blocked int) []plan.Task {
	var tasks []plan.Task
	add := func(n int, status plan.TaskStatus) {
		for i := 0; i < n; i++ {
			tasks = append(tasks, plan.Task{Title: "t", Status: status})
		}
	}
	add(done, plan.StatusDone)
	add(doing, plan.StatusDoing)
	add(todo, plan.StatusTodo)
	add(blocked, plan.StatusBlocked)
	return tasks
}

func TestCalculate_CountsSumToTotal(t *testing.T) {
	now := time.Now()
	for _, counts := range [][4]int{{0, 0, 0, 0}, {1, 2, 3, 4}, {10, 0, 0, 0}, {0, 0, 0, 7}} {
		tasks := makeTasks(counts[0], counts[1], counts[2], counts[3])
		s := Calculate(tasks, now, now, 30)
		assert.Equal(t, s.Total, s.Done+s.Doing+s.Todo+s.Blocked)
	}
}

func TestCalculate_EmptyTasks(t *testing.T) {
	now := time.Now()
	s := Calculate(nil, now, now, 30)

	assert.Equal(t, 0.0, s.Percentage)
	assert.Equal(t, Red, s.Classification)
	assert.Equal(t, 0, s.Total)
}

func TestCalculate_SeventyPercentGreen(t *testing.T) {
	now := time.Now()
	// 7 done, 2 doing, 1 todo, 0 blocked -> 70.0%, green
	s := Calculate(makeTasks(7, 2, 1, 0), now.Add(-time.Hour), now, 30)

	assert.Equal(t, 70.0, s.Percentage)
	assert.Equal(t, Green, s.Classification)
}

func TestCalculate_BlockedGatesClassification(t *testing.T) {
	now := time.Now()
	// same completion but two blocked tasks: not green, not yellow
	s := Calculate(makeTasks(7, 2, 1, 2), now.Add(-time.Hour), now, 30)

	assert.Equal(t, Red, s.Classification)

	// exactly one blocked drops green to yellow
	s = Calculate(makeTasks(7, 2, 1, 1), now.Add(-time.Hour), now, 30)
	assert.Equal(t, Yellow, s.Classification)
}

func TestCalculate_BlockedExcludedFromDenominator(t *testing.T) {
	now := time.Now()
	// 7 done out of 10 actionable; 5 blocked on top do not dilute
	s := Calculate(makeTasks(7, 2, 1, 5), now.Add(-time.Hour), now, 30)
	assert.Equal(t, 70.0, s.Percentage)
}

func TestCalculate_StaleOverridesEverything(t *testing.T) {
	now := time.Now()
	s := Calculate(makeTasks(10, 0, 0, 0), now.Add(-31*24*time.Hour), now, 30)

	assert.Equal(t, 100.0, s.Percentage)
	assert.Equal(t, Red, s.Classification)
}

func TestCalculate_ZeroLastUpdateIsStale(t *testing.T) {
	s := Calculate(makeTasks(10, 0, 0, 0), time.Time{}, time.Now(), 30)
	assert.Equal(t, Red, s.Classification)
}

func TestCalculate_BlockedOnlyIsRed(t *testing.T) {
	now := time.Now()
	s := Calculate(makeTasks(0, 0, 0, 3), now, now, 30)

	assert.Equal(t, 0.0, s.Percentage)
	assert.Equal(t, Red, s.Classification)
}

func TestCalculate_OneDecimalRounding(t *testing.T) {
	now := time.Now()
	// 1/3 -> 33.3, 2/3 -> 66.7
	s := Calculate(makeTasks(1, 0, 2, 0), now, now, 30)
	assert.Equal(t, 33.3, s.Percentage)

	s = Calculate(makeTasks(2, 0, 1, 0), now, now, 30)
	assert.Equal(t, 66.7, s.Percentage)
}

func TestCalculate_YellowBand(t *testing.T) {
	now := time.Now()
	// 3 done of 10 actionable -> 30.0%, one blocked allowed
	s := Calculate(makeTasks(3, 3, 4, 1), now, now, 30)
	assert.Equal(t, Yellow, s.Classification)

	// below 30% -> red
	s = Calculate(makeTasks(2, 3, 5, 0), now, now, 30)
	assert.Equal(t, Red, s.Classification)
}
