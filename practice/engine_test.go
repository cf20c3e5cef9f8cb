package practice

import (
	"testing"
	"time"

	"github.com/opoquest/opoquest-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSessionConflict(t *testing.T) {
	engine, db := newTestEngine(t)
	seedFactors(t, db, nil)
	userID := seedUser(t, db, "auth0|alice")
	topicID := seedTopic(t, db)
	seedQuestions(t, db, topicID, 10)

	params := StartParams{Kind: models.KindQuestion, Count: 5}
	_, err := engine.StartSession(userID, params)
	require.NoError(t, err)

	_, err = engine.StartSession(userID, params)
	require.ErrorIs(t, err, ErrSessionInProgress)

	var count int64
	require.NoError(t, db.Model(&models.PracticeSession{}).Count(&count).Error)
	assert.EqualValues(t, 1, count, "conflicting start must not write anything")

	// A different item kind is unaffected.
	seedFlashcards(t, db, topicID, 5)
	_, err = engine.StartSession(userID, StartParams{Kind: models.KindFlashcard, Count: 3})
	require.NoError(t, err)
}

func TestStartSessionEmptyPool(t *testing.T) {
	engine, db := newTestEngine(t)
	seedFactors(t, db, nil)
	userID := seedUser(t, db, "auth0|alice")
	seedTopic(t, db)

	_, err := engine.StartSession(userID, StartParams{Kind: models.KindQuestion, Count: 5})
	require.ErrorIs(t, err, ErrNoEligibleItems)
}

func TestStartSessionFiltersPool(t *testing.T) {
	engine, db := newTestEngine(t)
	seedFactors(t, db, nil)
	userID := seedUser(t, db, "auth0|alice")
	topicID := seedTopic(t, db)
	ids := seedQuestions(t, db, topicID, 8)

	other := models.Topic{Name: "Administrative Law", Code: "T02"}
	require.NoError(t, db.Create(&other).Error)

	session, err := engine.StartSession(userID, StartParams{
		Kind:    models.KindQuestion,
		Count:   20,
		Filters: Filters{TopicIDs: []uint{topicID}},
	})
	require.NoError(t, err)
	// Pool smaller than requested degrades, it does not fail.
	assert.Len(t, session.Items, len(ids))

	_, err = engine.FinishSession(userID, session.PublicID)
	require.NoError(t, err)

	_, err = engine.StartSession(userID, StartParams{
		Kind:    models.KindQuestion,
		Count:   5,
		Filters: Filters{TopicIDs: []uint{other.ID}},
	})
	require.ErrorIs(t, err, ErrNoEligibleItems)
}

func TestReviewSessionRequiresNegativeHistory(t *testing.T) {
	engine, db := newTestEngine(t)
	seedFactors(t, db, nil)
	userID := seedUser(t, db, "auth0|alice")
	topicID := seedTopic(t, db)
	ids := seedQuestions(t, db, topicID, 6)

	_, err := engine.StartSession(userID, StartParams{Kind: models.KindQuestion, Count: 5, IsReview: true})
	require.ErrorIs(t, err, ErrNoReviewItems)

	recordHistory(t, db, userID, models.KindQuestion, ids[0], models.ResultWrong)
	recordHistory(t, db, userID, models.KindQuestion, ids[1], models.ResultWrong)

	session, err := engine.StartSession(userID, StartParams{Kind: models.KindQuestion, Count: 5, IsReview: true})
	require.NoError(t, err)
	require.Len(t, session.Items, 2)
	for _, item := range session.Items {
		assert.Contains(t, []uint{ids[0], ids[1]}, item.ItemID)
	}
}

func TestSubmitAnswerLifecycle(t *testing.T) {
	engine, db := newTestEngine(t)
	seedFactors(t, db, nil)
	userID := seedUser(t, db, "auth0|alice")
	topicID := seedTopic(t, db)
	ids := seedQuestions(t, db, topicID, 2)
	publicID := makeSession(t, db, userID, models.KindQuestion, ids, nil)

	// Correctness is graded against the stored answer key (index 0).
	response, err := engine.SubmitAnswer(userID, publicID, ids[0], Submission{ChosenIndex: intPtr(0), Confidence: intPtr(100)})
	require.NoError(t, err)
	assert.Equal(t, models.ResultCorrect, response.Result)

	var session models.PracticeSession
	require.NoError(t, db.Where("public_id = ?", publicID).First(&session).Error)
	assert.Equal(t, models.SessionStarted, session.Status, "first answer starts the session")

	// Overwrite: answering the same item again keeps one row.
	response, err = engine.SubmitAnswer(userID, publicID, ids[0], Submission{ChosenIndex: intPtr(2)})
	require.NoError(t, err)
	assert.Equal(t, models.ResultWrong, response.Result)
	var rows int64
	require.NoError(t, db.Model(&models.Response{}).
		Where("session_id = ? AND item_id = ?", session.ID, ids[0]).Count(&rows).Error)
	assert.EqualValues(t, 1, rows)

	// Answering the last open item finishes the session.
	_, err = engine.SubmitAnswer(userID, publicID, ids[1], Submission{ChosenIndex: intPtr(0)})
	require.NoError(t, err)
	require.NoError(t, db.Where("public_id = ?", publicID).First(&session).Error)
	assert.Equal(t, models.SessionFinished, session.Status)

	_, err = engine.SubmitAnswer(userID, publicID, ids[1], Submission{ChosenIndex: intPtr(1)})
	require.ErrorIs(t, err, ErrSessionFinished)
}

func TestSubmitAnswerValidation(t *testing.T) {
	engine, db := newTestEngine(t)
	seedFactors(t, db, nil)
	userID := seedUser(t, db, "auth0|alice")
	otherID := seedUser(t, db, "auth0|mallory")
	topicID := seedTopic(t, db)
	ids := seedQuestions(t, db, topicID, 3)
	publicID := makeSession(t, db, userID, models.KindQuestion, ids[:2], nil)

	_, err := engine.SubmitAnswer(userID, "nope", ids[0], Submission{ChosenIndex: intPtr(0)})
	require.ErrorIs(t, err, ErrSessionNotFound)

	// Someone else's session reads as missing, not forbidden.
	_, err = engine.SubmitAnswer(otherID, publicID, ids[0], Submission{ChosenIndex: intPtr(0)})
	require.ErrorIs(t, err, ErrSessionNotFound)

	_, err = engine.SubmitAnswer(userID, publicID, ids[2], Submission{ChosenIndex: intPtr(0)})
	require.ErrorIs(t, err, ErrItemNotInSession)

	_, err = engine.SubmitAnswer(userID, publicID, ids[0], Submission{ChosenIndex: intPtr(9)})
	require.Error(t, err)

	_, err = engine.SubmitAnswer(userID, publicID, ids[0], Submission{ChosenIndex: intPtr(0), Confidence: intPtr(60)})
	require.Error(t, err)
}

func TestUnselectDeletesResponse(t *testing.T) {
	engine, db := newTestEngine(t)
	seedFactors(t, db, nil)
	userID := seedUser(t, db, "auth0|alice")
	topicID := seedTopic(t, db)
	ids := seedQuestions(t, db, topicID, 2)
	publicID := makeSession(t, db, userID, models.KindQuestion, ids, nil)

	_, err := engine.SubmitAnswer(userID, publicID, ids[0], Submission{ChosenIndex: intPtr(1)})
	require.NoError(t, err)

	response, err := engine.SubmitAnswer(userID, publicID, ids[0], Submission{ChosenIndex: intPtr(UnselectIndex)})
	require.NoError(t, err)
	assert.Nil(t, response)

	var rows int64
	require.NoError(t, db.Model(&models.Response{}).Where("item_id = ?", ids[0]).Count(&rows).Error)
	assert.EqualValues(t, 0, rows)

	// The slot is reusable after the unselect.
	_, err = engine.SubmitAnswer(userID, publicID, ids[0], Submission{ChosenIndex: intPtr(0)})
	require.NoError(t, err)
}

func TestExpiredSessionFinalizesLazily(t *testing.T) {
	engine, db := newTestEngine(t)
	seedFactors(t, db, nil)
	userID := seedUser(t, db, "auth0|alice")
	topicID := seedTopic(t, db)
	ids := seedQuestions(t, db, topicID, 2)

	past := time.Now().Add(-time.Minute)
	publicID := makeSession(t, db, userID, models.KindQuestion, ids, &past)

	session, err := engine.GetSession(userID, publicID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionFinished, session.Status)

	var markers int64
	require.NoError(t, db.Model(&models.Response{}).
		Where("session_id = ? AND state = ?", session.ID, models.StateUnanswered).
		Count(&markers).Error)
	assert.EqualValues(t, 2, markers, "every open item gets an unanswered marker")

	// Reading again must not duplicate markers.
	_, err = engine.GetSession(userID, publicID)
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Response{}).
		Where("session_id = ? AND state = ?", session.ID, models.StateUnanswered).
		Count(&markers).Error)
	assert.EqualValues(t, 2, markers)

	_, err = engine.SubmitAnswer(userID, publicID, ids[0], Submission{ChosenIndex: intPtr(0)})
	require.ErrorIs(t, err, ErrSessionFinished)
}

func TestExpiredSessionDoesNotBlockNewOne(t *testing.T) {
	engine, db := newTestEngine(t)
	seedFactors(t, db, nil)
	userID := seedUser(t, db, "auth0|alice")
	topicID := seedTopic(t, db)
	ids := seedQuestions(t, db, topicID, 4)

	past := time.Now().Add(-time.Minute)
	makeSession(t, db, userID, models.KindQuestion, ids[:2], &past)

	_, err := engine.StartSession(userID, StartParams{Kind: models.KindQuestion, Count: 2})
	require.NoError(t, err)
}

func TestFinishSessionIdempotent(t *testing.T) {
	engine, db := newTestEngine(t)
	seedFactors(t, db, nil)
	userID := seedUser(t, db, "auth0|alice")
	topicID := seedTopic(t, db)
	ids := seedQuestions(t, db, topicID, 3)
	publicID := makeSession(t, db, userID, models.KindQuestion, ids, nil)

	_, err := engine.SubmitAnswer(userID, publicID, ids[0], Submission{ChosenIndex: intPtr(0)})
	require.NoError(t, err)

	session, err := engine.FinishSession(userID, publicID)
	require.NoError(t, err)
	assert.Equal(t, models.SessionFinished, session.Status)

	_, err = engine.FinishSession(userID, publicID)
	require.NoError(t, err)

	var markers int64
	require.NoError(t, db.Model(&models.Response{}).
		Where("state = ?", models.StateUnanswered).Count(&markers).Error)
	assert.EqualValues(t, 2, markers, "second finish must not add markers")
}

func TestDeleteSessionOwnership(t *testing.T) {
	engine, db := newTestEngine(t)
	seedFactors(t, db, nil)
	userID := seedUser(t, db, "auth0|alice")
	otherID := seedUser(t, db, "auth0|mallory")
	topicID := seedTopic(t, db)
	ids := seedQuestions(t, db, topicID, 2)
	publicID := makeSession(t, db, userID, models.KindQuestion, ids, nil)

	_, err := engine.SubmitAnswer(userID, publicID, ids[0], Submission{ChosenIndex: intPtr(0)})
	require.NoError(t, err)

	require.ErrorIs(t, engine.DeleteSession(otherID, publicID), ErrSessionNotFound)

	require.NoError(t, engine.DeleteSession(userID, publicID))
	var sessions, items, responses int64
	require.NoError(t, db.Model(&models.PracticeSession{}).Count(&sessions).Error)
	require.NoError(t, db.Model(&models.SessionItem{}).Count(&items).Error)
	require.NoError(t, db.Model(&models.Response{}).Count(&responses).Error)
	assert.Zero(t, sessions)
	assert.Zero(t, items)
	assert.Zero(t, responses)
}

func TestStatsRequireFinishedSession(t *testing.T) {
	engine, db := newTestEngine(t)
	seedFactors(t, db, nil)
	userID := seedUser(t, db, "auth0|alice")
	topicID := seedTopic(t, db)
	ids := seedQuestions(t, db, topicID, 3)
	publicID := makeSession(t, db, userID, models.KindQuestion, ids, nil)

	_, err := engine.Stats(userID, publicID)
	require.ErrorIs(t, err, ErrSessionNotFinished)

	_, err = engine.SubmitAnswer(userID, publicID, ids[0], Submission{ChosenIndex: intPtr(0), Confidence: intPtr(100)})
	require.NoError(t, err)
	_, err = engine.SubmitAnswer(userID, publicID, ids[1], Submission{ChosenIndex: intPtr(3), Confidence: intPtr(50)})
	require.NoError(t, err)
	_, err = engine.SubmitAnswer(userID, publicID, ids[2], Submission{Skipped: true})
	require.NoError(t, err)

	stats, err := engine.Stats(userID, publicID)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Answered)
	assert.Equal(t, 1, stats.Correct)
	assert.Equal(t, 1, stats.Wrong)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, ConfidenceCell{Correct: 1}, stats.Confidence[100])
	assert.Equal(t, ConfidenceCell{Wrong: 1}, stats.Confidence[50])
}

func TestMissingFactorIsAnError(t *testing.T) {
	engine, db := newTestEngine(t)
	// No factors seeded at all.
	userID := seedUser(t, db, "auth0|alice")
	topicID := seedTopic(t, db)
	seedQuestions(t, db, topicID, 5)

	_, err := engine.StartSession(userID, StartParams{Kind: models.KindQuestion, Count: 3})
	require.ErrorIs(t, err, ErrFactorMissing)
}
