package models

import "gorm.io/gorm"

// Response results. Questions compute correct/wrong from the stored answer
// index; flashcards are self-graded and may also be flagged for review.
const (
	ResultCorrect = "correct"
	ResultWrong   = "wrong"
	ResultReview  = "review"
)

// Response states.
const (
	StateResponded  = "responded"
	StateSkipped    = "skipped"
	StateUnanswered = "unanswered"
)

// ConfidenceLevels are the only accepted confidence values (questions only).
var ConfidenceLevels = []int{0, 50, 75, 100}

func ValidConfidence(c int) bool {
	for _, v := range ConfidenceLevels {
		if c == v {
			return true
		}
	}
	return false
}

// Response is one user's answer to one item within one session. The
// (session, item) pair is unique: answering again overwrites, answering
// with the unselect sentinel deletes.
type Response struct {
	gorm.Model
	SessionID uint            `gorm:"not null;uniqueIndex:idx_response_session_item"`
	Session   PracticeSession `gorm:"foreignKey:SessionID" json:"-"`
	// UserID and ItemKind are denormalized from the session so the mastery
	// rule can scan a user's history for one item without joining.
	UserID      uint     `gorm:"not null;index:idx_response_history,priority:1"`
	ItemKind    ItemKind `gorm:"not null;size:20;index:idx_response_history,priority:2"`
	ItemID      uint     `gorm:"not null;uniqueIndex:idx_response_session_item;index:idx_response_history,priority:3"`
	ChosenIndex *int     `gorm:"default:null"`
	Result      string   `gorm:"not null;size:20"`
	State       string   `gorm:"not null;default:responded;size:20"`
	Confidence  *int     `gorm:"default:null"`
}

// Positive reports whether the response counts toward mastery promotion.
func (r *Response) Positive() bool {
	return r.State == StateResponded && r.Result == ResultCorrect
}
