package billing

import (
	"errors"
	"time"

	"github.com/opoquest/opoquest-api/logger"
	"github.com/opoquest/opoquest-api/models"
	"gorm.io/gorm"
)

// Provider event types we act on. Anything else is acknowledged and
// dropped so the provider stops redelivering it.
const (
	EventCheckoutCompleted = "checkout.completed"
	EventInvoicePaid       = "invoice.paid"
	EventPaymentFailed     = "invoice.payment_failed"
	EventCanceled          = "subscription.canceled"
)

var ErrUnknownSubscription = errors.New("event references an unknown subscription")

// Event is the decoded webhook payload. UserID only arrives on checkout
// events, carried in the provider's checkout metadata.
type Event struct {
	Ref             string
	Type            string
	CustomerRef     string
	SubscriptionRef string
	Plan            string
	UserID          uint
	PeriodEnd       *time.Time
}

// Processor applies billing events to subscription rows, exactly once per
// event ref.
type Processor struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProcessor(db *gorm.DB, log *logger.Logger) *Processor {
	return &Processor{db: db, log: log.With("component", "billing")}
}

// Process records the event and runs the state machine. Redelivered
// events (same ref) are no-ops; out-of-order events that would move the
// subscription backwards are dropped rather than failed, since the
// provider retries on error.
func (p *Processor) Process(event Event) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		var seen int64
		err := tx.Model(&models.WebhookEvent{}).
			Where("event_ref = ?", event.Ref).Count(&seen).Error
		if err != nil {
			return err
		}
		if seen > 0 {
			p.log.Debug("duplicate billing event", "ref", event.Ref)
			return nil
		}
		record := models.WebhookEvent{EventRef: event.Ref, Type: event.Type}
		if err := tx.Create(&record).Error; err != nil {
			return err
		}

		if event.Type == EventCheckoutCompleted {
			return p.applyCheckout(tx, event)
		}

		var sub models.Subscription
		err = tx.Where("subscription_ref = ?", event.SubscriptionRef).First(&sub).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return ErrUnknownSubscription
			}
			return err
		}

		next, ok := Transition(sub.Status, event.Type)
		if !ok {
			p.log.Warn("dropping billing event with no valid transition",
				"ref", event.Ref, "type", event.Type, "status", sub.Status)
			return nil
		}

		sub.Status = next
		if event.PeriodEnd != nil {
			sub.CurrentPeriodEnd = event.PeriodEnd
		}
		if err := tx.Save(&sub).Error; err != nil {
			return err
		}
		p.log.Info("subscription updated",
			"subscription", sub.SubscriptionRef, "status", sub.Status)
		return nil
	})
}

// applyCheckout creates the subscription row, or reactivates the user's
// existing one when they checked out again after canceling.
func (p *Processor) applyCheckout(tx *gorm.DB, event Event) error {
	if event.UserID == 0 {
		return errors.New("checkout event carries no user id")
	}

	var sub models.Subscription
	err := tx.Where("user_id = ?", event.UserID).First(&sub).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		return err
	}
	if err == gorm.ErrRecordNotFound {
		sub = models.Subscription{UserID: event.UserID}
	}

	sub.CustomerRef = event.CustomerRef
	sub.SubscriptionRef = event.SubscriptionRef
	sub.Plan = event.Plan
	sub.Status = models.SubActive
	if event.PeriodEnd != nil {
		sub.CurrentPeriodEnd = event.PeriodEnd
	}
	return tx.Save(&sub).Error
}

// Transition returns the next subscription status for an event type, and
// whether the move is legal. Canceled is terminal except through a fresh
// checkout.
func Transition(current, eventType string) (string, bool) {
	switch eventType {
	case EventInvoicePaid:
		switch current {
		case models.SubTrialing, models.SubActive, models.SubPastDue:
			return models.SubActive, true
		}
	case EventPaymentFailed:
		switch current {
		case models.SubTrialing, models.SubActive, models.SubPastDue:
			return models.SubPastDue, true
		}
	case EventCanceled:
		if current != models.SubCanceled {
			return models.SubCanceled, true
		}
	}
	return current, false
}
