package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/opoquest/opoquest-api/models"
	"github.com/opoquest/opoquest-api/planner"
)

// GET /api/exams
func (h *DBHandler) GetExams(w http.ResponseWriter, r *http.Request) {
	var exams []models.ScheduledExam
	query := h.Order("exam_date")
	if region := r.URL.Query().Get("region"); region != "" {
		query = query.Where("region = ?", region)
	}
	if err := query.Find(&exams).Error; err != nil {
		h.Log.Error("fetching exams", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, exams)
}

// POST /api/exams
func (h *DBHandler) CreateExam(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string    `json:"name"`
		Region   string    `json:"region,omitempty"`
		ExamDate time.Time `json:"examDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.ExamDate.IsZero() {
		http.Error(w, "name and examDate are required", http.StatusBadRequest)
		return
	}

	exam := models.ScheduledExam{Name: req.Name, Region: req.Region, ExamDate: req.ExamDate}
	if err := h.Create(&exam).Error; err != nil {
		h.Log.Error("creating exam", "name", req.Name, "error", err)
		http.Error(w, "Failed to create exam", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, exam)
}

// DELETE /api/exams/{examID}
func (h *DBHandler) DeleteExam(w http.ResponseWriter, r *http.Request) {
	result := h.Delete(&models.ScheduledExam{}, r.PathValue("examID"))
	if result.Error != nil {
		h.Log.Error("deleting exam", "id", r.PathValue("examID"), "error", result.Error)
		http.Error(w, "Failed to delete exam", http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "Exam not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/exams/{examID}/plan spreads the syllabus over the weeks left
// before the exam.
func (h *DBHandler) GetExamPlan(w http.ResponseWriter, r *http.Request) {
	var exam models.ScheduledExam
	if err := h.First(&exam, r.PathValue("examID")).Error; err != nil {
		http.Error(w, "Exam not found", http.StatusNotFound)
		return
	}

	var topics []models.Topic
	if err := h.Order("position").Find(&topics).Error; err != nil {
		h.Log.Error("fetching topics for plan", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}

	plan, err := planner.Build(topics, exam.ExamDate, time.Now())
	if err != nil {
		http.Error(w, err.Error(), http.StatusPreconditionFailed)
		return
	}
	respondJSON(w, http.StatusOK, plan)
}
