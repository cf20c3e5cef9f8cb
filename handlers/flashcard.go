package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/opoquest/opoquest-api/models"
	"gorm.io/datatypes"
)

// GET /api/topics/{topicID}/flashcards
func (h *DBHandler) GetFlashcardsForTopic(w http.ResponseWriter, r *http.Request) {
	var topic models.Topic
	if err := h.First(&topic, r.PathValue("topicID")).Error; err != nil {
		http.Error(w, "Topic not found", http.StatusNotFound)
		return
	}

	var cards []models.Flashcard
	if err := h.Where("topic_id = ?", topic.ID).Order("code").Find(&cards).Error; err != nil {
		h.Log.Error("fetching flashcards", "topic", topic.ID, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, cards)
}

// POST /api/topics/{topicID}/flashcards
func (h *DBHandler) CreateFlashcard(w http.ResponseWriter, r *http.Request) {
	var topic models.Topic
	if err := h.First(&topic, r.PathValue("topicID")).Error; err != nil {
		http.Error(w, "Topic not found", http.StatusNotFound)
		return
	}

	var req struct {
		Code       string   `json:"code"`
		Difficulty string   `json:"difficulty"`
		Regions    []string `json:"regions,omitempty"`
		Prompt     string   `json:"prompt"`
		Solution   string   `json:"solution"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Code == "" || req.Prompt == "" || req.Solution == "" {
		http.Error(w, "code, prompt and solution are required", http.StatusBadRequest)
		return
	}
	if !validDifficulty(req.Difficulty) {
		http.Error(w, fmt.Sprintf("unknown difficulty tier %q", req.Difficulty), http.StatusBadRequest)
		return
	}

	regions, _ := json.Marshal(req.Regions)
	card := models.Flashcard{
		Code:       req.Code,
		TopicID:    topic.ID,
		Difficulty: req.Difficulty,
		Regions:    datatypes.JSON(regions),
		Prompt:     req.Prompt,
		Solution:   req.Solution,
	}
	if err := h.Create(&card).Error; err != nil {
		h.Log.Error("creating flashcard", "code", req.Code, "error", err)
		http.Error(w, "Failed to create flashcard", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, card)
}

// DELETE /api/flashcards/{flashcardID}
func (h *DBHandler) DeleteFlashcard(w http.ResponseWriter, r *http.Request) {
	result := h.Delete(&models.Flashcard{}, r.PathValue("flashcardID"))
	if result.Error != nil {
		h.Log.Error("deleting flashcard", "id", r.PathValue("flashcardID"), "error", result.Error)
		http.Error(w, "Failed to delete flashcard", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "Flashcard not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
