package models

import "gorm.io/gorm"

// Factor names. Percentages size the sampler's bucket takes; windows size
// the mastery promotion rule. Every name must have a row in the factors
// table: a missing factor is a configuration error, never defaulted.
const (
	FactorQuestionPctUnanswered  = "questions.pct_unanswered"
	FactorQuestionPctWrong       = "questions.pct_wrong"
	FactorQuestionPctCorrect     = "questions.pct_correct"
	FactorQuestionMasteryWindow  = "questions.mastery_window"
	FactorFlashcardPctUnanswered = "flashcards.pct_unanswered"
	FactorFlashcardPctWrong      = "flashcards.pct_wrong"
	FactorFlashcardPctReview     = "flashcards.pct_review"
	FactorFlashcardPctCorrect    = "flashcards.pct_correct"
	FactorFlashcardWrongWindow   = "flashcards.wrong_clear_window"
	FactorFlashcardReviewWindow  = "flashcards.review_clear_window"
)

// FactorNames lists every factor the engine reads, used by admin seeding.
var FactorNames = []string{
	FactorQuestionPctUnanswered,
	FactorQuestionPctWrong,
	FactorQuestionPctCorrect,
	FactorQuestionMasteryWindow,
	FactorFlashcardPctUnanswered,
	FactorFlashcardPctWrong,
	FactorFlashcardPctReview,
	FactorFlashcardPctCorrect,
	FactorFlashcardWrongWindow,
	FactorFlashcardReviewWindow,
}

// Factor is a named numeric tuning constant, upserted by admins and read
// by the practice engine.
type Factor struct {
	gorm.Model
	Name  string  `gorm:"not null;uniqueIndex;size:100"`
	Value float64 `gorm:"not null"`
}
