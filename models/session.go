package models

import (
	"time"

	"gorm.io/gorm"
)

// ItemKind discriminates the two practice item types a session can hold.
type ItemKind string

const (
	KindQuestion  ItemKind = "question"
	KindFlashcard ItemKind = "flashcard"
)

// Session statuses. Transitions are monotonic:
// CREATED -> STARTED -> FINISHED.
const (
	SessionCreated  = "created"
	SessionStarted  = "started"
	SessionFinished = "finished"
)

// PracticeSession is one attempt by one user over a fixed item set chosen
// at creation time. At most one non-finished session may exist per
// (user, kind).
type PracticeSession struct {
	gorm.Model
	PublicID string   `gorm:"not null;uniqueIndex;size:100"`
	UserID   uint     `gorm:"not null;index"`
	User     User     `gorm:"foreignKey:UserID" json:"-"`
	Kind     ItemKind `gorm:"not null;size:20;index"`
	Status   string   `gorm:"not null;default:created;size:20;index"`
	IsReview bool     `gorm:"not null;default:false"`
	// DurationMin and ExpiresAt are set together when the session is timed.
	DurationMin *int       `gorm:"default:null"`
	ExpiresAt   *time.Time `gorm:"default:null"`

	Items     []SessionItem `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	Responses []Response    `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

// Expired reports whether the session's deadline has passed. Sessions
// without a duration never expire.
func (s *PracticeSession) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && now.After(*s.ExpiresAt)
}

// SessionItem associates one item with one session. Rank preserves the
// selection order; Reserve marks spare items in the exam variant.
type SessionItem struct {
	gorm.Model
	SessionID uint `gorm:"not null;uniqueIndex:idx_session_item"`
	ItemID    uint `gorm:"not null;uniqueIndex:idx_session_item"`
	Rank      int  `gorm:"not null"`
	Reserve   bool `gorm:"not null;default:false"`
}
