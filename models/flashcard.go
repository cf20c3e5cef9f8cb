package models

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Flashcard is an immutable self-graded item: the user reads the prompt,
// reveals the solution and reports how it went.
type Flashcard struct {
	gorm.Model
	Code       string         `gorm:"not null;uniqueIndex;size:100"`
	TopicID    uint           `gorm:"not null;index"`
	Topic      Topic          `gorm:"foreignKey:TopicID" json:"-"`
	Difficulty string         `gorm:"not null;size:20;index"`
	Regions    datatypes.JSON `gorm:"type:json"`
	Prompt     string         `gorm:"not null;size:2000"`
	Solution   string         `gorm:"not null;size:4000"`
}
