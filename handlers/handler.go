package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/opoquest/opoquest-api/billing"
	"github.com/opoquest/opoquest-api/logger"
	"github.com/opoquest/opoquest-api/practice"
	"gorm.io/gorm"
)

type DBHandler struct {
	*gorm.DB
	Log     *logger.Logger
	Engine  *practice.Engine
	Billing *billing.Processor
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// writeEngineError maps the practice error taxonomy onto HTTP statuses.
func (h *DBHandler) writeEngineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, practice.ErrSessionInProgress):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, practice.ErrSessionNotFound),
		errors.Is(err, practice.ErrItemNotInSession):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, practice.ErrSessionFinished),
		errors.Is(err, practice.ErrSessionNotFinished),
		errors.Is(err, practice.ErrNoEligibleItems),
		errors.Is(err, practice.ErrNoReviewItems):
		http.Error(w, err.Error(), http.StatusPreconditionFailed)
	case errors.Is(err, practice.ErrFactorMissing):
		h.Log.Error("factor misconfiguration", "error", err)
		http.Error(w, "Server is misconfigured", http.StatusInternalServerError)
	default:
		h.Log.Error("practice engine error", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}
