package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/opoquest/opoquest-api/auth"
	"github.com/opoquest/opoquest-api/models"
)

// How long a minted download token stays valid.
const downloadTokenTTL = 15 * time.Minute

// GET /api/topics/{topicID}/documents
func (h *DBHandler) GetDocumentsForTopic(w http.ResponseWriter, r *http.Request) {
	var topic models.Topic
	if err := h.First(&topic, r.PathValue("topicID")).Error; err != nil {
		http.Error(w, "Topic not found", http.StatusNotFound)
		return
	}

	var documents []models.Document
	if err := h.Where("topic_id = ?", topic.ID).Order("title").Find(&documents).Error; err != nil {
		h.Log.Error("fetching documents", "topic", topic.ID, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, documents)
}

// POST /api/topics/{topicID}/documents registers the metadata of a file
// already pushed to external storage; the storage key is minted here and
// returned so the uploader can place the binary.
func (h *DBHandler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var topic models.Topic
	if err := h.First(&topic, r.PathValue("topicID")).Error; err != nil {
		http.Error(w, "Topic not found", http.StatusNotFound)
		return
	}

	var req struct {
		Title       string `json:"title"`
		ContentType string `json:"contentType"`
		SizeBytes   int64  `json:"sizeBytes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Title == "" || req.ContentType == "" {
		http.Error(w, "title and contentType are required", http.StatusBadRequest)
		return
	}

	document := models.Document{
		Title:       req.Title,
		TopicID:     topic.ID,
		StorageKey:  uuid.NewString(),
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
	}
	if err := h.Create(&document).Error; err != nil {
		h.Log.Error("creating document", "title", req.Title, "error", err)
		http.Error(w, "Failed to create document", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, document)
}

// GET /api/documents/{documentID}/download-token
func (h *DBHandler) GetDownloadToken(w http.ResponseWriter, r *http.Request) {
	var document models.Document
	if err := h.First(&document, r.PathValue("documentID")).Error; err != nil {
		http.Error(w, "Document not found", http.StatusNotFound)
		return
	}

	token, err := auth.CreateDownloadToken(document.StorageKey, downloadTokenTTL)
	if err != nil {
		h.Log.Error("minting download token", "document", document.ID, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// DELETE /api/documents/{documentID}
func (h *DBHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	result := h.Delete(&models.Document{}, r.PathValue("documentID"))
	if result.Error != nil {
		h.Log.Error("deleting document", "id", r.PathValue("documentID"), "error", result.Error)
		http.Error(w, "Failed to delete document", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "Document not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
