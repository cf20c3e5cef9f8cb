package practice

import (
	"github.com/opoquest/opoquest-api/models"
	"gorm.io/gorm"
)

// applyMastery runs after every recorded response. When a (user, item)
// pair's most recent window of answers is all correct, its older negative
// marks are purged so the classifier stops treating the item as remedial.
// Questions clear incorrect marks behind one window; flashcards run two
// independent windows, one clearing flag-for-review marks and one
// clearing incorrect marks. Re-running on a purged history deletes
// nothing, so the rule is idempotent.
func (e *Engine) applyMastery(tx *gorm.DB, userID uint, kind models.ItemKind, itemID uint) error {
	if kind == models.KindQuestion {
		w, err := e.factors.GetWindow(tx, models.FactorQuestionMasteryWindow)
		if err != nil {
			return err
		}
		return e.clearOnStreak(tx, userID, kind, itemID, w, models.ResultWrong)
	}

	reviewW, err := e.factors.GetWindow(tx, models.FactorFlashcardReviewWindow)
	if err != nil {
		return err
	}
	if err := e.clearOnStreak(tx, userID, kind, itemID, reviewW, models.ResultReview); err != nil {
		return err
	}

	wrongW, err := e.factors.GetWindow(tx, models.FactorFlashcardWrongWindow)
	if err != nil {
		return err
	}
	return e.clearOnStreak(tx, userID, kind, itemID, wrongW, models.ResultWrong)
}

// clearOnStreak deletes every response with the given negative result for
// the pair, provided the last window recorded answers are exactly window
// long and all correct. The window spans the user's whole history, the
// in-flight session included, so a streak pays off as soon as it lands.
func (e *Engine) clearOnStreak(tx *gorm.DB, userID uint, kind models.ItemKind, itemID uint, window int, result string) error {
	var recent []models.Response
	err := tx.Where("user_id = ? AND item_kind = ? AND item_id = ? AND state = ?",
		userID, kind, itemID, models.StateResponded).
		Order("id DESC").
		Limit(window).
		Find(&recent).Error
	if err != nil {
		return err
	}

	if len(recent) < window {
		return nil
	}
	for i := range recent {
		if !recent[i].Positive() {
			return nil
		}
	}

	// Hard delete: a soft-deleted negative would still occupy the
	// (session, item) unique index.
	return tx.Unscoped().
		Where("user_id = ? AND item_kind = ? AND item_id = ? AND result = ?",
			userID, kind, itemID, result).
		Delete(&models.Response{}).Error
}
