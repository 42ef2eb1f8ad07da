package planner

import (
	"fmt"
	"sync"
)

type Phase string

const (
	PhaseDay      Phase = "day"
	PhaseExercise Phase = "exercise"
)

// Progress is reported after every stored document. Created never decreases
// within a phase.
type Progress struct {
	Phase   Phase  `json:"phase"`
	Created int    `json:"created"`
	Total   int    `json:"total"`
	Message string `json:"message"`
}

// tracker counts stored documents for a single run. Counting and reporting
// happen under one lock so callbacks observe counts in order.
type tracker struct {
	mu        sync.Mutex
	totals    Totals
	days      int
	exercises int
	report    func(Progress)
}

func newTracker(totals Totals, report func(Progress)) *tracker {
	return &tracker{totals: totals, report: report}
}

func (t *tracker) dayCreated(label string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.days++
	if t.report != nil {
		t.report(Progress{
			Phase:   PhaseDay,
			Created: t.days,
			Total:   t.totals.Days,
			Message: fmt.Sprintf("Created %s", label),
		})
	}
}

func (t *tracker) exerciseCreated(day, name string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.exercises++
	if t.report != nil {
		t.report(Progress{
			Phase:   PhaseExercise,
			Created: t.exercises,
			Total:   t.totals.Exercises,
			Message: fmt.Sprintf("Added %s to %s", name, day),
		})
	}
}
