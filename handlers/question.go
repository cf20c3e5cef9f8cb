package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/opoquest/opoquest-api/models"
	"gorm.io/datatypes"
)

type questionPayload struct {
	Code         string   `json:"code"`
	Difficulty   string   `json:"difficulty"`
	Regions      []string `json:"regions,omitempty"`
	Prompt       string   `json:"prompt"`
	Explanation  string   `json:"explanation,omitempty"`
	Answers      []string `json:"answers"`
	CorrectIndex int      `json:"correctIndex"`
}

func (p *questionPayload) validate() error {
	if p.Code == "" || p.Prompt == "" {
		return fmt.Errorf("code and prompt are required")
	}
	if !validDifficulty(p.Difficulty) {
		return fmt.Errorf("unknown difficulty tier %q", p.Difficulty)
	}
	if len(p.Answers) < 2 {
		return fmt.Errorf("a question needs at least two answers")
	}
	if p.CorrectIndex < 0 || p.CorrectIndex >= len(p.Answers) {
		return fmt.Errorf("correctIndex out of range")
	}
	return nil
}

func validDifficulty(d string) bool {
	for _, known := range models.Difficulties {
		if d == known {
			return true
		}
	}
	return false
}

// GET /api/topics/{topicID}/questions
func (h *DBHandler) GetQuestionsForTopic(w http.ResponseWriter, r *http.Request) {
	var topic models.Topic
	if err := h.First(&topic, r.PathValue("topicID")).Error; err != nil {
		http.Error(w, "Topic not found", http.StatusNotFound)
		return
	}

	var questions []models.Question
	query := h.Where("topic_id = ?", topic.ID)
	if d := r.URL.Query().Get("difficulty"); d != "" {
		query = query.Where("difficulty = ?", d)
	}
	if err := query.Order("code").Find(&questions).Error; err != nil {
		h.Log.Error("fetching questions", "topic", topic.ID, "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, questions)
}

// POST /api/topics/{topicID}/questions
func (h *DBHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var topic models.Topic
	if err := h.First(&topic, r.PathValue("topicID")).Error; err != nil {
		http.Error(w, "Topic not found", http.StatusNotFound)
		return
	}

	var req questionPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	answers, _ := json.Marshal(req.Answers)
	regions, _ := json.Marshal(req.Regions)
	question := models.Question{
		Code:         req.Code,
		TopicID:      topic.ID,
		Difficulty:   req.Difficulty,
		Regions:      datatypes.JSON(regions),
		Prompt:       req.Prompt,
		Explanation:  req.Explanation,
		Answers:      datatypes.JSON(answers),
		CorrectIndex: req.CorrectIndex,
	}
	if err := h.Create(&question).Error; err != nil {
		h.Log.Error("creating question", "code", req.Code, "error", err)
		http.Error(w, "Failed to create question", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, question)
}

// DELETE /api/questions/{questionID}
func (h *DBHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	result := h.Delete(&models.Question{}, r.PathValue("questionID"))
	if result.Error != nil {
		h.Log.Error("deleting question", "id", r.PathValue("questionID"), "error", result.Error)
		http.Error(w, "Failed to delete question", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "Question not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
