package planner

import (
	"errors"
	"time"

	"github.com/opoquest/opoquest-api/models"
)

var ErrExamInPast = errors.New("exam date already passed")

// Week is one study week of the plan.
type Week struct {
	Number int       `json:"number"`
	Start  time.Time `json:"start"`
	Topics []string  `json:"topics"`
}

// Plan spreads the syllabus over the weeks left before an exam.
type Plan struct {
	ExamDate time.Time `json:"examDate"`
	Weeks    []Week    `json:"weeks"`
}

// Build distributes topics in syllabus order across the full weeks
// remaining until examDate. Fewer than seven days still yields a single
// week holding everything. Deterministic for a fixed now.
func Build(topics []models.Topic, examDate, now time.Time) (*Plan, error) {
	if !examDate.After(now) {
		return nil, ErrExamInPast
	}

	weeks := int(examDate.Sub(now).Hours() / (24 * 7))
	if weeks < 1 {
		weeks = 1
	}
	if weeks > len(topics) && len(topics) > 0 {
		weeks = len(topics)
	}

	plan := &Plan{ExamDate: examDate, Weeks: make([]Week, weeks)}
	for i := range plan.Weeks {
		plan.Weeks[i] = Week{
			Number: i + 1,
			Start:  now.AddDate(0, 0, i*7),
		}
	}

	// Spread topics evenly: earlier weeks absorb the remainder so the plan
	// front-loads rather than cramming the last week.
	if len(topics) > 0 {
		per := len(topics) / weeks
		extra := len(topics) % weeks
		idx := 0
		for w := 0; w < weeks; w++ {
			count := per
			if w < extra {
				count++
			}
			for i := 0; i < count && idx < len(topics); i++ {
				plan.Weeks[w].Topics = append(plan.Weeks[w].Topics, topics[idx].Code)
				idx++
			}
		}
	}

	return plan, nil
}
