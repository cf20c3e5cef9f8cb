package practice

import (
	"github.com/opoquest/opoquest-api/models"
	"gorm.io/gorm"
)

// Buckets partitions a candidate pool by the user's answer history.
// Review is only populated for flashcards; question history has no
// flag-for-review state.
type Buckets struct {
	Unanswered []uint
	Wrong      []uint
	Review     []uint
	Correct    []uint
}

type itemHistory struct {
	answered  bool
	anyWrong  bool
	anyReview bool
	latest    string
}

// Classify buckets candidateIDs by the user's recorded responses across
// finished sessions. Questions: Wrong holds items with any incorrect
// response ever, Correct holds answered items whose history is all
// correct. Flashcards: Wrong/Review follow the latest recorded result,
// Correct requires an all-correct history; a flashcard whose latest
// result is correct but whose history holds older negatives lands in no
// bucket and stays reachable only through the sampler's fallback pool.
func Classify(tx *gorm.DB, userID uint, kind models.ItemKind, candidateIDs []uint) (Buckets, error) {
	history, err := loadHistory(tx, userID, kind, candidateIDs)
	if err != nil {
		return Buckets{}, err
	}

	var b Buckets
	for _, id := range candidateIDs {
		h, ok := history[id]
		if !ok || !h.answered {
			b.Unanswered = append(b.Unanswered, id)
			continue
		}
		if kind == models.KindQuestion {
			if h.anyWrong {
				b.Wrong = append(b.Wrong, id)
			} else {
				b.Correct = append(b.Correct, id)
			}
			continue
		}
		switch {
		case h.latest == models.ResultWrong:
			b.Wrong = append(b.Wrong, id)
		case h.latest == models.ResultReview:
			b.Review = append(b.Review, id)
		case !h.anyWrong && !h.anyReview:
			b.Correct = append(b.Correct, id)
		}
	}
	return b, nil
}

// NegativePool returns every candidate carrying a negative mark (an
// incorrect response, or for flashcards also a flag-for-review), the pool
// review-mode sessions draw from. The mastery rule purges those marks, so
// promoted items drop out of this pool on their own.
func NegativePool(tx *gorm.DB, userID uint, kind models.ItemKind, candidateIDs []uint) ([]uint, error) {
	history, err := loadHistory(tx, userID, kind, candidateIDs)
	if err != nil {
		return nil, err
	}

	var pool []uint
	for _, id := range candidateIDs {
		h, ok := history[id]
		if !ok {
			continue
		}
		if h.anyWrong || (kind == models.KindFlashcard && h.anyReview) {
			pool = append(pool, id)
		}
	}
	return pool, nil
}

// loadHistory aggregates the user's responded answers within finished
// sessions, per candidate item. Skipped and backfilled unanswered markers
// are not history: they neither answer an item nor mark it negative.
func loadHistory(tx *gorm.DB, userID uint, kind models.ItemKind, candidateIDs []uint) (map[uint]itemHistory, error) {
	if len(candidateIDs) == 0 {
		return map[uint]itemHistory{}, nil
	}

	type row struct {
		ItemID uint
		Result string
	}
	var rows []row
	err := tx.Model(&models.Response{}).
		Select("responses.item_id, responses.result").
		Joins("JOIN practice_sessions ON practice_sessions.id = responses.session_id").
		Where("responses.user_id = ? AND responses.item_kind = ? AND responses.state = ?",
			userID, kind, models.StateResponded).
		Where("practice_sessions.status = ?", models.SessionFinished).
		Where("responses.item_id IN ?", candidateIDs).
		Order("responses.id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	history := make(map[uint]itemHistory, len(rows))
	for _, r := range rows {
		h := history[r.ItemID]
		h.answered = true
		h.latest = r.Result
		switch r.Result {
		case models.ResultWrong:
			h.anyWrong = true
		case models.ResultReview:
			h.anyReview = true
		}
		history[r.ItemID] = h
	}
	return history, nil
}
