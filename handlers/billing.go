package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/opoquest/opoquest-api/billing"
)

// POST /api/billing/webhook receives provider events. Signature
// verification happens at the edge proxy; here the payload is trusted.
// The provider retries anything but a 2xx, so unknown event types are
// acknowledged and dropped.
func (h *DBHandler) BillingWebhook(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			CustomerRef     string     `json:"customer"`
			SubscriptionRef string     `json:"subscription"`
			Plan            string     `json:"plan,omitempty"`
			UserID          uint       `json:"userId,omitempty"`
			PeriodEnd       *time.Time `json:"periodEnd,omitempty"`
		} `json:"data"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "Invalid webhook payload", http.StatusBadRequest)
		return
	}
	if payload.ID == "" || payload.Type == "" {
		http.Error(w, "Webhook payload needs id and type", http.StatusBadRequest)
		return
	}

	switch payload.Type {
	case billing.EventCheckoutCompleted, billing.EventInvoicePaid,
		billing.EventPaymentFailed, billing.EventCanceled:
	default:
		h.Log.Debug("ignoring billing event", "type", payload.Type)
		w.WriteHeader(http.StatusOK)
		return
	}

	err := h.Billing.Process(billing.Event{
		Ref:             payload.ID,
		Type:            payload.Type,
		CustomerRef:     payload.Data.CustomerRef,
		SubscriptionRef: payload.Data.SubscriptionRef,
		Plan:            payload.Data.Plan,
		UserID:          payload.Data.UserID,
		PeriodEnd:       payload.Data.PeriodEnd,
	})
	if err != nil {
		if errors.Is(err, billing.ErrUnknownSubscription) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.Log.Error("processing billing event", "ref", payload.ID, "error", err)
		http.Error(w, "Failed to process event", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}
