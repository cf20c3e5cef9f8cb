package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/opoquest/opoquest-api/models"
)

// GET /api/topics
func (h *DBHandler) GetTopics(w http.ResponseWriter, r *http.Request) {
	var topics []models.Topic
	if err := h.Order("position").Find(&topics).Error; err != nil {
		h.Log.Error("fetching topics", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, topics)
}

// POST /api/topics
func (h *DBHandler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Code     string `json:"code"`
		Position int    `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.Code == "" {
		http.Error(w, "name and code are required", http.StatusBadRequest)
		return
	}

	topic := models.Topic{Name: req.Name, Code: req.Code, Position: req.Position}
	if err := h.Create(&topic).Error; err != nil {
		h.Log.Error("creating topic", "code", req.Code, "error", err)
		http.Error(w, "Failed to create topic", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, topic)
}

// PUT /api/topics/{topicID}
func (h *DBHandler) UpdateTopic(w http.ResponseWriter, r *http.Request) {
	var topic models.Topic
	if err := h.First(&topic, r.PathValue("topicID")).Error; err != nil {
		http.Error(w, fmt.Sprintf("Topic %s not found", r.PathValue("topicID")), http.StatusNotFound)
		return
	}

	var req struct {
		Name     *string `json:"name,omitempty"`
		Position *int    `json:"position,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name != nil {
		topic.Name = *req.Name
	}
	if req.Position != nil {
		topic.Position = *req.Position
	}
	if err := h.Save(&topic).Error; err != nil {
		h.Log.Error("updating topic", "id", topic.ID, "error", err)
		http.Error(w, "Failed to update topic", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, topic)
}

// DELETE /api/topics/{topicID}
func (h *DBHandler) DeleteTopic(w http.ResponseWriter, r *http.Request) {
	result := h.Delete(&models.Topic{}, r.PathValue("topicID"))
	if result.Error != nil {
		h.Log.Error("deleting topic", "id", r.PathValue("topicID"), "error", result.Error)
		http.Error(w, "Failed to delete topic", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "Topic not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
