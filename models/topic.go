package models

import "gorm.io/gorm"

// Topic groups questions and flashcards into syllabus units
type Topic struct {
	gorm.Model
	Name     string `gorm:"not null;size:200"`
	Code     string `gorm:"not null;uniqueIndex;size:50"`
	Position int    `gorm:"not null;default:0"`

	Questions  []Question  `gorm:"foreignKey:TopicID"`
	Flashcards []Flashcard `gorm:"foreignKey:TopicID"`
	Documents  []Document  `gorm:"foreignKey:TopicID"`
}
