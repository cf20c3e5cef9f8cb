package models

import "gorm.io/gorm"

// Document is stored study material attached to a topic. Only metadata
// lives here; the binary sits in external storage under StorageKey.
type Document struct {
	gorm.Model
	Title       string `gorm:"not null;size:200"`
	TopicID     uint   `gorm:"not null;index"`
	Topic       Topic  `gorm:"foreignKey:TopicID" json:"-"`
	StorageKey  string `gorm:"not null;uniqueIndex;size:100"`
	ContentType string `gorm:"not null;size:100"`
	SizeBytes   int64  `gorm:"not null;default:0"`
}
