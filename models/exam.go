package models

import (
	"time"

	"gorm.io/gorm"
)

// ScheduledExam is an official exam call (convocatoria) students plan
// their preparation around.
type ScheduledExam struct {
	gorm.Model
	Name     string    `gorm:"not null;size:200"`
	Region   string    `gorm:"size:50;index"`
	ExamDate time.Time `gorm:"not null"`
}
