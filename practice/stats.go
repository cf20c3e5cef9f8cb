package practice

import (
	"github.com/opoquest/opoquest-api/models"
)

// ConfidenceCell is one cell of the confidence-by-correctness matrix.
type ConfidenceCell struct {
	Correct int `json:"correct"`
	Wrong   int `json:"wrong"`
}

// SessionStats aggregates a finished session's responses. Questions fill
// the confidence matrix (key -1 collects answers sent without a
// confidence level); flashcards fill the result counters.
type SessionStats struct {
	Kind       models.ItemKind        `json:"kind"`
	Total      int                    `json:"total"`
	Answered   int                    `json:"answered"`
	Correct    int                    `json:"correct"`
	Wrong      int                    `json:"wrong"`
	Review     int                    `json:"review,omitempty"`
	Skipped    int                    `json:"skipped"`
	Unanswered int                    `json:"unanswered"`
	Confidence map[int]ConfidenceCell `json:"confidence,omitempty"`
}

// Stats computes the aggregate view for a finished session. Requesting
// stats on a running session fails with ErrSessionNotFinished.
func (e *Engine) Stats(userID uint, publicID string) (*SessionStats, error) {
	session, err := e.loadOwned(userID, publicID)
	if err != nil {
		return nil, err
	}
	if err := e.ensureNotExpired(session); err != nil {
		return nil, err
	}
	if session.Status != models.SessionFinished {
		return nil, ErrSessionNotFinished
	}

	var itemCount int64
	if err := e.db.Model(&models.SessionItem{}).
		Where("session_id = ?", session.ID).Count(&itemCount).Error; err != nil {
		return nil, err
	}
	var responses []models.Response
	if err := e.db.Where("session_id = ?", session.ID).Find(&responses).Error; err != nil {
		return nil, err
	}

	stats := &SessionStats{Kind: session.Kind, Total: int(itemCount)}
	if session.Kind == models.KindQuestion {
		stats.Confidence = make(map[int]ConfidenceCell)
	}

	for i := range responses {
		r := &responses[i]
		switch r.State {
		case models.StateSkipped:
			stats.Skipped++
			continue
		case models.StateUnanswered:
			stats.Unanswered++
			continue
		}

		stats.Answered++
		switch r.Result {
		case models.ResultCorrect:
			stats.Correct++
		case models.ResultWrong:
			stats.Wrong++
		case models.ResultReview:
			stats.Review++
		}

		if session.Kind != models.KindQuestion {
			continue
		}
		level := -1
		if r.Confidence != nil {
			level = *r.Confidence
		}
		cell := stats.Confidence[level]
		switch r.Result {
		case models.ResultCorrect:
			cell.Correct++
		case models.ResultWrong:
			cell.Wrong++
		}
		stats.Confidence[level] = cell
	}

	return stats, nil
}
