package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/opoquest/opoquest-api/middleware"
	"github.com/opoquest/opoquest-api/models"
	"github.com/opoquest/opoquest-api/practice"
)

func parseKind(raw string) (models.ItemKind, bool) {
	switch raw {
	case "questions":
		return models.KindQuestion, true
	case "flashcards":
		return models.KindFlashcard, true
	}
	return "", false
}

// POST /api/practice/{kind}/sessions
func (h *DBHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	kind, ok := parseKind(r.PathValue("kind"))
	if !ok {
		http.Error(w, "Unknown practice kind", http.StatusBadRequest)
		return
	}

	var req struct {
		Count        int      `json:"count"`
		DurationMin  *int     `json:"durationMin,omitempty"`
		IsReview     bool     `json:"isReview"`
		TopicIDs     []uint   `json:"topicIds,omitempty"`
		Difficulties []string `json:"difficulties,omitempty"`
		Region       string   `json:"region,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Count <= 0 {
		http.Error(w, "count must be positive", http.StatusBadRequest)
		return
	}
	for _, d := range req.Difficulties {
		valid := false
		for _, known := range models.Difficulties {
			if d == known {
				valid = true
				break
			}
		}
		if !valid {
			http.Error(w, "Unknown difficulty tier: "+d, http.StatusBadRequest)
			return
		}
	}

	session, err := h.Engine.StartSession(user.ID, practice.StartParams{
		Kind:        kind,
		Count:       req.Count,
		DurationMin: req.DurationMin,
		IsReview:    req.IsReview,
		Filters: practice.Filters{
			TopicIDs:     req.TopicIDs,
			Difficulties: req.Difficulties,
			Region:       req.Region,
		},
	})
	if err != nil {
		h.writeEngineError(w, err)
		return
	}

	view, err := h.sessionView(session)
	if err != nil {
		h.Log.Error("building session view", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

// GET /api/practice/sessions/{sessionID}
func (h *DBHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	session, err := h.Engine.GetSession(user.ID, r.PathValue("sessionID"))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	view, err := h.sessionView(session)
	if err != nil {
		h.Log.Error("building session view", "error", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// POST /api/practice/sessions/{sessionID}/answers
func (h *DBHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		ItemID      uint   `json:"itemId"`
		ChosenIndex *int   `json:"chosenIndex,omitempty"`
		Result      string `json:"result,omitempty"`
		Confidence  *int   `json:"confidence,omitempty"`
		Skipped     bool   `json:"skipped,omitempty"`
	}
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.ItemID == 0 {
		http.Error(w, "itemId is required", http.StatusBadRequest)
		return
	}

	response, err := h.Engine.SubmitAnswer(user.ID, r.PathValue("sessionID"), req.ItemID, practice.Submission{
		ChosenIndex: req.ChosenIndex,
		Result:      req.Result,
		Confidence:  req.Confidence,
		Skipped:     req.Skipped,
	})
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	if response == nil {
		// Unselect removed the answer.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, response)
}

// POST /api/practice/sessions/{sessionID}/finish
func (h *DBHandler) FinishSession(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	session, err := h.Engine.FinishSession(user.ID, r.PathValue("sessionID"))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, session)
}

// DELETE /api/practice/sessions/{sessionID}
func (h *DBHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	if err := h.Engine.DeleteSession(user.ID, r.PathValue("sessionID")); err != nil {
		h.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/practice/sessions/{sessionID}/stats
func (h *DBHandler) GetSessionStats(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	stats, err := h.Engine.Stats(user.ID, r.PathValue("sessionID"))
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

type sessionItemView struct {
	ItemID  uint            `json:"itemId"`
	Rank    int             `json:"rank"`
	Code    string          `json:"code"`
	Prompt  string          `json:"prompt"`
	Answers json.RawMessage `json:"answers,omitempty"`
	// Solution and the answer key stay hidden on question sessions until
	// the session finishes.
	Solution     string `json:"solution,omitempty"`
	CorrectIndex *int   `json:"correctIndex,omitempty"`
	Explanation  string `json:"explanation,omitempty"`
}

type sessionView struct {
	PublicID  string            `json:"id"`
	Kind      models.ItemKind   `json:"kind"`
	Status    string            `json:"status"`
	IsReview  bool              `json:"isReview"`
	ExpiresAt *time.Time        `json:"expiresAt,omitempty"`
	Items     []sessionItemView `json:"items"`
	Responses []models.Response `json:"responses"`
}

func (h *DBHandler) sessionView(session *models.PracticeSession) (*sessionView, error) {
	var items []models.SessionItem
	if err := h.Where("session_id = ?", session.ID).Order("rank").Find(&items).Error; err != nil {
		return nil, err
	}
	ids := make([]uint, len(items))
	for i := range items {
		ids[i] = items[i].ItemID
	}

	finished := session.Status == models.SessionFinished
	views := make([]sessionItemView, 0, len(items))

	if session.Kind == models.KindQuestion {
		var questions []models.Question
		if len(ids) > 0 {
			if err := h.Where("id IN ?", ids).Find(&questions).Error; err != nil {
				return nil, err
			}
		}
		byID := make(map[uint]*models.Question, len(questions))
		for i := range questions {
			byID[questions[i].ID] = &questions[i]
		}
		for _, item := range items {
			q, ok := byID[item.ItemID]
			if !ok {
				continue
			}
			view := sessionItemView{
				ItemID:  q.ID,
				Rank:    item.Rank,
				Code:    q.Code,
				Prompt:  q.Prompt,
				Answers: json.RawMessage(q.Answers),
			}
			if finished {
				correct := q.CorrectIndex
				view.CorrectIndex = &correct
				view.Explanation = q.Explanation
			}
			views = append(views, view)
		}
	} else {
		var cards []models.Flashcard
		if len(ids) > 0 {
			if err := h.Where("id IN ?", ids).Find(&cards).Error; err != nil {
				return nil, err
			}
		}
		byID := make(map[uint]*models.Flashcard, len(cards))
		for i := range cards {
			byID[cards[i].ID] = &cards[i]
		}
		for _, item := range items {
			c, ok := byID[item.ItemID]
			if !ok {
				continue
			}
			views = append(views, sessionItemView{
				ItemID:   c.ID,
				Rank:     item.Rank,
				Code:     c.Code,
				Prompt:   c.Prompt,
				Solution: c.Solution,
			})
		}
	}

	var responses []models.Response
	if err := h.Where("session_id = ?", session.ID).Find(&responses).Error; err != nil {
		return nil, err
	}

	return &sessionView{
		PublicID:  session.PublicID,
		Kind:      session.Kind,
		Status:    session.Status,
		IsReview:  session.IsReview,
		ExpiresAt: session.ExpiresAt,
		Items:     views,
		Responses: responses,
	}, nil
}
