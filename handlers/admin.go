package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/opoquest/opoquest-api/models"
)

// GET /api/admin/users/pending
func (h *DBHandler) GetPendingUsers(w http.ResponseWriter, r *http.Request) {
	var users []models.User
	if err := h.Where("status = ?", models.UserPending).Order("created_at").Find(&users).Error; err != nil {
		h.Log.Error("fetching pending users", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, users)
}

// POST /api/admin/users/{userID}/review
func (h *DBHandler) ReviewUser(w http.ResponseWriter, r *http.Request) {
	var user models.User
	if err := h.First(&user, r.PathValue("userID")).Error; err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Status != models.UserApproved && req.Status != models.UserRejected {
		http.Error(w, "status must be approved or rejected", http.StatusBadRequest)
		return
	}

	user.Status = req.Status
	if err := h.Save(&user).Error; err != nil {
		h.Log.Error("reviewing user", "id", user.ID, "error", err)
		http.Error(w, "Failed to update user", http.StatusInternalServerError)
		return
	}
	h.Log.Info("user reviewed", "id", user.ID, "status", user.Status)
	respondJSON(w, http.StatusOK, user)
}

// GET /api/admin/factors
func (h *DBHandler) GetFactors(w http.ResponseWriter, r *http.Request) {
	var factors []models.Factor
	if err := h.Order("name").Find(&factors).Error; err != nil {
		h.Log.Error("fetching factors", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, factors)
}

// PUT /api/admin/factors upserts one factor row. Unknown names are
// rejected so a typo cannot silently leave the real factor missing.
func (h *DBHandler) UpsertFactor(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string  `json:"name"`
		Value float64 `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	known := false
	for _, name := range models.FactorNames {
		if req.Name == name {
			known = true
			break
		}
	}
	if !known {
		http.Error(w, "Unknown factor name", http.StatusBadRequest)
		return
	}

	var factor models.Factor
	err := h.Where("name = ?", req.Name).First(&factor).Error
	if err == nil {
		factor.Value = req.Value
		err = h.Save(&factor).Error
	} else {
		factor = models.Factor{Name: req.Name, Value: req.Value}
		err = h.Create(&factor).Error
	}
	if err != nil {
		h.Log.Error("upserting factor", "name", req.Name, "error", err)
		http.Error(w, "Failed to save factor", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, factor)
}
