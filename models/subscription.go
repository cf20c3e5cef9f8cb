package models

import (
	"time"

	"gorm.io/gorm"
)

// Subscription statuses driven by the billing webhook state machine.
const (
	SubTrialing = "trialing"
	SubActive   = "active"
	SubPastDue  = "past_due"
	SubCanceled = "canceled"
)

// Subscription mirrors the billing provider's view of one user's plan.
type Subscription struct {
	gorm.Model
	UserID uint `gorm:"not null;uniqueIndex"`
	User   User `gorm:"foreignKey:UserID" json:"-"`
	// Provider-side identifiers, opaque to us.
	CustomerRef      string     `gorm:"not null;index;size:100"`
	SubscriptionRef  string     `gorm:"not null;uniqueIndex;size:100"`
	Plan             string     `gorm:"size:50"`
	Status           string     `gorm:"not null;default:trialing;size:20"`
	CurrentPeriodEnd *time.Time `gorm:"default:null"`
}

// WebhookEvent records billing events already applied, so a redelivered
// event is a no-op.
type WebhookEvent struct {
	gorm.Model
	EventRef string `gorm:"not null;uniqueIndex;size:100"`
	Type     string `gorm:"not null;size:100"`
}
