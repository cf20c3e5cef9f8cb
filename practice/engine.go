package practice

import (
	"encoding/json"
	"fmt"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/opoquest/opoquest-api/logger"
	"github.com/opoquest/opoquest-api/models"
	"gorm.io/gorm"
)

// UnselectIndex is the sentinel chosen-answer value that withdraws a
// previously submitted answer instead of recording one.
const UnselectIndex = -1

// UnselectResult is the flashcard equivalent of UnselectIndex.
const UnselectResult = "unselect"

// Engine owns the practice session lifecycle for both item kinds:
// selection at creation, answer upserts, mastery promotion and
// expiry-driven finalization.
type Engine struct {
	db      *gorm.DB
	log     *logger.Logger
	factors *FactorStore
	rng     Rand
	now     func() time.Time
}

func NewEngine(db *gorm.DB, log *logger.Logger, rng Rand) *Engine {
	if rng == nil {
		rng = DefaultRand
	}
	return &Engine{
		db:      db,
		log:     log.With("component", "practice"),
		factors: NewFactorStore(db),
		rng:     rng,
		now:     time.Now,
	}
}

// Filters narrow the eligible item pool before classification.
type Filters struct {
	TopicIDs     []uint
	Difficulties []string
	Region       string
}

// StartParams describes a requested session.
type StartParams struct {
	Kind        models.ItemKind
	Count       int
	DurationMin *int
	IsReview    bool
	Filters     Filters
}

// Submission is one answer to one item. Questions send ChosenIndex and
// optionally Confidence; flashcards are self-graded and send Result.
// Skipped marks the item as seen-but-passed without recording an answer.
type Submission struct {
	ChosenIndex *int
	Result      string
	Confidence  *int
	Skipped     bool
}

// StartSession builds and persists a new session for the user. It fails
// with ErrSessionInProgress while a non-finished session of the same kind
// exists, and with ErrNoEligibleItems / ErrNoReviewItems when the filters
// yield nothing to practice.
func (e *Engine) StartSession(userID uint, p StartParams) (*models.PracticeSession, error) {
	if p.Kind != models.KindQuestion && p.Kind != models.KindFlashcard {
		return nil, fmt.Errorf("unknown item kind %q", p.Kind)
	}
	if p.Count <= 0 {
		return nil, fmt.Errorf("item count must be positive, got %d", p.Count)
	}

	// Expired leftovers must not block a new session; settle them first.
	if err := e.finalizeExpiredFor(userID, p.Kind); err != nil {
		return nil, err
	}

	var session models.PracticeSession
	err := e.db.Transaction(func(tx *gorm.DB) error {
		var inProgress int64
		err := tx.Model(&models.PracticeSession{}).
			Where("user_id = ? AND kind = ? AND status <> ?", userID, p.Kind, models.SessionFinished).
			Count(&inProgress).Error
		if err != nil {
			return err
		}
		if inProgress > 0 {
			return ErrSessionInProgress
		}

		eligible, err := e.eligibleItemIDs(tx, p.Kind, p.Filters)
		if err != nil {
			return err
		}
		if len(eligible) == 0 {
			return ErrNoEligibleItems
		}

		var selected []uint
		if p.IsReview {
			pool, err := NegativePool(tx, userID, p.Kind, eligible)
			if err != nil {
				return err
			}
			if len(pool) == 0 {
				return ErrNoReviewItems
			}
			selected = ReviewSample(e.rng, pool, p.Count)
		} else {
			buckets, err := Classify(tx, userID, p.Kind, eligible)
			if err != nil {
				return err
			}
			shares, err := e.readShares(tx, p.Kind)
			if err != nil {
				return err
			}
			selected = Sample(e.rng, buckets, shares, p.Count, eligible)
		}
		if len(selected) == 0 {
			return ErrNoEligibleItems
		}

		publicID, err := gonanoid.New()
		if err != nil {
			return err
		}

		session = models.PracticeSession{
			PublicID: publicID,
			UserID:   userID,
			Kind:     p.Kind,
			Status:   models.SessionCreated,
			IsReview: p.IsReview,
		}
		if p.DurationMin != nil && *p.DurationMin > 0 {
			session.DurationMin = p.DurationMin
			expires := e.now().Add(time.Duration(*p.DurationMin) * time.Minute)
			session.ExpiresAt = &expires
		}
		if err := tx.Create(&session).Error; err != nil {
			return err
		}

		items := make([]models.SessionItem, len(selected))
		for i, id := range selected {
			items[i] = models.SessionItem{SessionID: session.ID, ItemID: id, Rank: i}
		}
		if err := tx.Create(&items).Error; err != nil {
			return err
		}
		session.Items = items
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("session started",
		"session", session.PublicID, "kind", session.Kind,
		"items", len(session.Items), "review", session.IsReview)
	return &session, nil
}

// GetSession returns the user's session, settling expiry first so a stale
// session comes back FINISHED with the store already updated.
func (e *Engine) GetSession(userID uint, publicID string) (*models.PracticeSession, error) {
	session, err := e.loadOwned(userID, publicID)
	if err != nil {
		return nil, err
	}
	if err := e.ensureNotExpired(session); err != nil {
		return nil, err
	}
	err = e.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("session_items.rank")
	}).Preload("Responses").First(session, session.ID).Error
	if err != nil {
		return nil, err
	}
	return session, nil
}

// SubmitAnswer upserts the user's answer for one session item: new
// answers insert, repeats overwrite, the unselect sentinel deletes. The
// returned response is nil on unselect. Recording the final missing
// answer finishes the session.
func (e *Engine) SubmitAnswer(userID uint, publicID string, itemID uint, sub Submission) (*models.Response, error) {
	session, err := e.loadOwned(userID, publicID)
	if err != nil {
		return nil, err
	}
	if err := e.ensureNotExpired(session); err != nil {
		return nil, err
	}
	if session.Status == models.SessionFinished {
		return nil, ErrSessionFinished
	}

	var inSession int64
	err = e.db.Model(&models.SessionItem{}).
		Where("session_id = ? AND item_id = ?", session.ID, itemID).
		Count(&inSession).Error
	if err != nil {
		return nil, err
	}
	if inSession == 0 {
		return nil, ErrItemNotInSession
	}

	if isUnselect(sub) {
		// Hard delete: the (session, item) unique index must be free for a
		// later re-answer.
		err := e.db.Transaction(func(tx *gorm.DB) error {
			return tx.Unscoped().
				Where("session_id = ? AND item_id = ?", session.ID, itemID).
				Delete(&models.Response{}).Error
		})
		return nil, err
	}

	var response models.Response
	err = e.db.Transaction(func(tx *gorm.DB) error {
		response = models.Response{
			SessionID: session.ID,
			UserID:    userID,
			ItemKind:  session.Kind,
			ItemID:    itemID,
			State:     models.StateResponded,
		}
		if sub.Skipped {
			response.State = models.StateSkipped
		} else if session.Kind == models.KindQuestion {
			if err := e.gradeQuestion(tx, &response, sub); err != nil {
				return err
			}
		} else {
			if err := gradeFlashcard(&response, sub); err != nil {
				return err
			}
		}

		var existing models.Response
		found := tx.Where("session_id = ? AND item_id = ?", session.ID, itemID).
			First(&existing).Error
		if found == nil {
			response.ID = existing.ID
			response.CreatedAt = existing.CreatedAt
			if err := tx.Save(&response).Error; err != nil {
				return err
			}
		} else if found == gorm.ErrRecordNotFound {
			if err := tx.Create(&response).Error; err != nil {
				return err
			}
		} else {
			return found
		}

		if session.Status == models.SessionCreated {
			session.Status = models.SessionStarted
			if err := tx.Model(session).Update("status", models.SessionStarted).Error; err != nil {
				return err
			}
		}

		if response.State == models.StateResponded {
			if err := e.applyMastery(tx, userID, session.Kind, itemID); err != nil {
				return err
			}
		}

		return e.finishWhenComplete(tx, session)
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// FinishSession finalizes early on the user's request, backfilling
// unanswered markers. Finishing a finished session is a no-op.
func (e *Engine) FinishSession(userID uint, publicID string) (*models.PracticeSession, error) {
	session, err := e.loadOwned(userID, publicID)
	if err != nil {
		return nil, err
	}
	err = e.db.Transaction(func(tx *gorm.DB) error {
		return e.finalize(tx, session)
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// DeleteSession removes the user's session together with its item
// associations and responses. Sessions owned by someone else read as
// missing.
func (e *Engine) DeleteSession(userID uint, publicID string) error {
	session, err := e.loadOwned(userID, publicID)
	if err != nil {
		return err
	}
	return e.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Where("session_id = ?", session.ID).Delete(&models.Response{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("session_id = ?", session.ID).Delete(&models.SessionItem{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(session).Error
	})
}

// FinalizeExpired applies the expiry gate batch-wise, for the background
// sweep. Returns how many sessions it settled.
func (e *Engine) FinalizeExpired() (int, error) {
	var stale []models.PracticeSession
	err := e.db.Where("status <> ? AND expires_at IS NOT NULL AND expires_at < ?",
		models.SessionFinished, e.now()).
		Find(&stale).Error
	if err != nil {
		return 0, err
	}
	for i := range stale {
		err := e.db.Transaction(func(tx *gorm.DB) error {
			return e.finalize(tx, &stale[i])
		})
		if err != nil {
			return i, err
		}
	}
	if len(stale) > 0 {
		e.log.Info("finalized expired sessions", "count", len(stale))
	}
	return len(stale), nil
}

// finalizeExpiredFor settles the user's own stale sessions of one kind,
// so an expired session never blocks starting the next one.
func (e *Engine) finalizeExpiredFor(userID uint, kind models.ItemKind) error {
	var stale []models.PracticeSession
	err := e.db.Where("user_id = ? AND kind = ? AND status <> ? AND expires_at IS NOT NULL AND expires_at < ?",
		userID, kind, models.SessionFinished, e.now()).
		Find(&stale).Error
	if err != nil {
		return err
	}
	for i := range stale {
		err := e.db.Transaction(func(tx *gorm.DB) error {
			return e.finalize(tx, &stale[i])
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) loadOwned(userID uint, publicID string) (*models.PracticeSession, error) {
	var session models.PracticeSession
	err := e.db.Where("public_id = ?", publicID).First(&session).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	// Not-yours reads as not-found on purpose.
	if session.UserID != userID {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

// ensureNotExpired is the single expiry gate: every read or mutation of a
// session passes through here before acting. The finalization commits in
// its own transaction so the corrected status survives even when the
// caller's operation is subsequently rejected.
func (e *Engine) ensureNotExpired(session *models.PracticeSession) error {
	if session.Status == models.SessionFinished || !session.Expired(e.now()) {
		return nil
	}
	return e.db.Transaction(func(tx *gorm.DB) error {
		return e.finalize(tx, session)
	})
}

// finalize marks the session finished, backfilling an unanswered marker
// for every item without a response. Safe to call on a finished session:
// concurrent expiry checks may both get here, and the second must change
// nothing.
func (e *Engine) finalize(tx *gorm.DB, session *models.PracticeSession) error {
	var current models.PracticeSession
	if err := tx.First(&current, session.ID).Error; err != nil {
		return err
	}
	if current.Status == models.SessionFinished {
		session.Status = models.SessionFinished
		return nil
	}

	var items []models.SessionItem
	if err := tx.Where("session_id = ?", session.ID).Find(&items).Error; err != nil {
		return err
	}
	var answered []models.Response
	if err := tx.Where("session_id = ?", session.ID).Find(&answered).Error; err != nil {
		return err
	}
	hasResponse := make(map[uint]bool, len(answered))
	for i := range answered {
		hasResponse[answered[i].ItemID] = true
	}

	for i := range items {
		if hasResponse[items[i].ItemID] {
			continue
		}
		marker := models.Response{
			SessionID: session.ID,
			UserID:    session.UserID,
			ItemKind:  session.Kind,
			ItemID:    items[i].ItemID,
			State:     models.StateUnanswered,
		}
		if err := tx.Create(&marker).Error; err != nil {
			return err
		}
	}

	session.Status = models.SessionFinished
	return tx.Model(session).Update("status", models.SessionFinished).Error
}

// finishWhenComplete flips the session to finished once every item has a
// response.
func (e *Engine) finishWhenComplete(tx *gorm.DB, session *models.PracticeSession) error {
	var itemCount, responseCount int64
	if err := tx.Model(&models.SessionItem{}).
		Where("session_id = ?", session.ID).Count(&itemCount).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.Response{}).
		Where("session_id = ?", session.ID).Count(&responseCount).Error; err != nil {
		return err
	}
	if itemCount > 0 && responseCount >= itemCount {
		session.Status = models.SessionFinished
		return tx.Model(session).Update("status", models.SessionFinished).Error
	}
	return nil
}

// gradeQuestion computes correctness against the stored answer key and
// validates the chosen index and confidence level.
func (e *Engine) gradeQuestion(tx *gorm.DB, response *models.Response, sub Submission) error {
	if sub.ChosenIndex == nil {
		return fmt.Errorf("question answers require a chosen index")
	}
	var question models.Question
	if err := tx.First(&question, response.ItemID).Error; err != nil {
		return err
	}
	var answers []string
	if err := json.Unmarshal(question.Answers, &answers); err != nil {
		return fmt.Errorf("question %d has malformed answers: %w", question.ID, err)
	}
	if *sub.ChosenIndex < 0 || *sub.ChosenIndex >= len(answers) {
		return fmt.Errorf("chosen index %d out of range", *sub.ChosenIndex)
	}
	if sub.Confidence != nil && !models.ValidConfidence(*sub.Confidence) {
		return fmt.Errorf("invalid confidence level %d", *sub.Confidence)
	}

	response.ChosenIndex = sub.ChosenIndex
	response.Confidence = sub.Confidence
	if *sub.ChosenIndex == question.CorrectIndex {
		response.Result = models.ResultCorrect
	} else {
		response.Result = models.ResultWrong
	}
	return nil
}

// gradeFlashcard accepts the self-graded result as-is.
func gradeFlashcard(response *models.Response, sub Submission) error {
	switch sub.Result {
	case models.ResultCorrect, models.ResultWrong, models.ResultReview:
		response.Result = sub.Result
		return nil
	default:
		return fmt.Errorf("invalid flashcard result %q", sub.Result)
	}
}

func isUnselect(sub Submission) bool {
	if sub.ChosenIndex != nil && *sub.ChosenIndex == UnselectIndex {
		return true
	}
	return sub.Result == UnselectResult
}

func (e *Engine) readShares(tx *gorm.DB, kind models.ItemKind) (Shares, error) {
	var names [4]string
	if kind == models.KindQuestion {
		// Questions have no review bucket; its share stays zero.
		names = [4]string{
			models.FactorQuestionPctUnanswered,
			models.FactorQuestionPctWrong,
			"",
			models.FactorQuestionPctCorrect,
		}
	} else {
		names = [4]string{
			models.FactorFlashcardPctUnanswered,
			models.FactorFlashcardPctWrong,
			models.FactorFlashcardPctReview,
			models.FactorFlashcardPctCorrect,
		}
	}

	var shares Shares
	dst := [4]*float64{&shares.Unanswered, &shares.Wrong, &shares.Review, &shares.Correct}
	for i, name := range names {
		if name == "" {
			continue
		}
		v, err := e.factors.Get(tx, name)
		if err != nil {
			return Shares{}, err
		}
		*dst[i] = v
	}
	return shares, nil
}

// eligibleItemIDs queries the item table for the session kind, applying
// topic and difficulty filters in SQL and the region filter in memory
// (region tags are a JSON array; items without tags are relevant
// everywhere).
func (e *Engine) eligibleItemIDs(tx *gorm.DB, kind models.ItemKind, f Filters) ([]uint, error) {
	type itemRow struct {
		ID      uint
		Regions []byte
	}

	query := tx.Select("id, regions")
	if kind == models.KindQuestion {
		query = query.Model(&models.Question{})
	} else {
		query = query.Model(&models.Flashcard{})
	}
	if len(f.TopicIDs) > 0 {
		query = query.Where("topic_id IN ?", f.TopicIDs)
	}
	if len(f.Difficulties) > 0 {
		query = query.Where("difficulty IN ?", f.Difficulties)
	}

	var rows []itemRow
	if err := query.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(rows))
	for _, row := range rows {
		if f.Region != "" && !regionMatches(row.Regions, f.Region) {
			continue
		}
		ids = append(ids, row.ID)
	}
	return ids, nil
}

func regionMatches(regions []byte, region string) bool {
	if len(regions) == 0 {
		return true
	}
	var tags []string
	if err := json.Unmarshal(regions, &tags); err != nil || len(tags) == 0 {
		return true
	}
	for _, tag := range tags {
		if tag == region {
			return true
		}
	}
	return false
}
