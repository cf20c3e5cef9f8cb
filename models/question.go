package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Difficulty tiers shared by questions and flashcards.
const (
	DifficultyBasic        = "basic"
	DifficultyIntermediate = "intermediate"
	DifficultyHard         = "hard"
	DifficultyExam         = "exam"
	DifficultyPrivate      = "private"
	DifficultyPublic       = "public"
)

// Difficulties lists every valid tier, used for request validation.
var Difficulties = []string{
	DifficultyBasic,
	DifficultyIntermediate,
	DifficultyHard,
	DifficultyExam,
	DifficultyPrivate,
	DifficultyPublic,
}

// Question is an immutable multiple-choice item. Code is a human-readable
// identifier encoding topic/role/sequence, assigned by the authoring flow.
type Question struct {
	gorm.Model
	Code       string `gorm:"not null;uniqueIndex;size:100"`
	TopicID    uint   `gorm:"not null;index"`
	Topic      Topic  `gorm:"foreignKey:TopicID" json:"-"`
	Difficulty string `gorm:"not null;size:20;index"`
	// Region codes this question is relevant for, JSON array of strings.
	Regions     datatypes.JSON `gorm:"type:json"`
	Prompt      string         `gorm:"not null;size:2000"`
	Explanation string         `gorm:"size:4000"`
	// Answers is a JSON array of answer texts; CorrectIndex points into it.
	Answers      datatypes.JSON `gorm:"type:json;not null"`
	CorrectIndex int            `gorm:"not null"`
}
