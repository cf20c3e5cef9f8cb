package practice

import (
	"testing"

	"github.com/opoquest/opoquest-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyQuestions(t *testing.T) {
	_, db := newTestEngine(t)
	userID := seedUser(t, db, "auth0|alice")
	topicID := seedTopic(t, db)
	ids := seedQuestions(t, db, topicID, 4)

	// ids[0]: untouched. ids[1]: one wrong among corrects, and any
	// incorrect ever marks a question wrong. ids[2]: spotless. ids[3]:
	// untouched.
	recordHistory(t, db, userID, models.KindQuestion, ids[1],
		models.ResultCorrect, models.ResultWrong, models.ResultCorrect)
	recordHistory(t, db, userID, models.KindQuestion, ids[2],
		models.ResultCorrect, models.ResultCorrect)

	buckets, err := Classify(db, userID, models.KindQuestion, ids)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{ids[0], ids[3]}, buckets.Unanswered)
	assert.ElementsMatch(t, []uint{ids[1]}, buckets.Wrong)
	assert.Empty(t, buckets.Review)
	assert.ElementsMatch(t, []uint{ids[2]}, buckets.Correct)
}

func TestClassifyFlashcardsUsesLatestResult(t *testing.T) {
	_, db := newTestEngine(t)
	userID := seedUser(t, db, "auth0|alice")
	topicID := seedTopic(t, db)
	ids := seedFlashcards(t, db, topicID, 5)

	// ids[0]: wrong then correct; latest is correct but history is not
	// spotless, so it lands in no bucket.
	recordHistory(t, db, userID, models.KindFlashcard, ids[0],
		models.ResultWrong, models.ResultCorrect)
	// ids[1]: latest flagged for review.
	recordHistory(t, db, userID, models.KindFlashcard, ids[1],
		models.ResultCorrect, models.ResultReview)
	// ids[2]: spotless.
	recordHistory(t, db, userID, models.KindFlashcard, ids[2], models.ResultCorrect)
	// ids[3]: latest wrong.
	recordHistory(t, db, userID, models.KindFlashcard, ids[3],
		models.ResultReview, models.ResultWrong)

	buckets, err := Classify(db, userID, models.KindFlashcard, ids)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{ids[4]}, buckets.Unanswered)
	assert.ElementsMatch(t, []uint{ids[3]}, buckets.Wrong)
	assert.ElementsMatch(t, []uint{ids[1]}, buckets.Review)
	assert.ElementsMatch(t, []uint{ids[2]}, buckets.Correct)
}

func TestClassifyIgnoresUnfinishedSessions(t *testing.T) {
	_, db := newTestEngine(t)
	userID := seedUser(t, db, "auth0|alice")
	topicID := seedTopic(t, db)
	ids := seedQuestions(t, db, topicID, 1)

	// A wrong answer inside a still-running session is not history yet.
	publicID := makeSession(t, db, userID, models.KindQuestion, ids, nil)
	var session models.PracticeSession
	require.NoError(t, db.Where("public_id = ?", publicID).First(&session).Error)
	require.NoError(t, db.Create(&models.Response{
		SessionID: session.ID,
		UserID:    userID,
		ItemKind:  models.KindQuestion,
		ItemID:    ids[0],
		Result:    models.ResultWrong,
		State:     models.StateResponded,
	}).Error)

	buckets, err := Classify(db, userID, models.KindQuestion, ids)
	require.NoError(t, err)
	assert.ElementsMatch(t, ids, buckets.Unanswered)
}

func TestNegativePool(t *testing.T) {
	_, db := newTestEngine(t)
	userID := seedUser(t, db, "auth0|alice")
	topicID := seedTopic(t, db)
	qids := seedQuestions(t, db, topicID, 3)
	fids := seedFlashcards(t, db, topicID, 3)

	recordHistory(t, db, userID, models.KindQuestion, qids[0], models.ResultWrong)
	recordHistory(t, db, userID, models.KindQuestion, qids[1], models.ResultCorrect)

	pool, err := NegativePool(db, userID, models.KindQuestion, qids)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{qids[0]}, pool)

	// Flashcards also qualify through review flags.
	recordHistory(t, db, userID, models.KindFlashcard, fids[0], models.ResultReview)
	recordHistory(t, db, userID, models.KindFlashcard, fids[1], models.ResultWrong)

	pool, err = NegativePool(db, userID, models.KindFlashcard, fids)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{fids[0], fids[1]}, pool)
}
