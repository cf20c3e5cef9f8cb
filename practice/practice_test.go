package practice

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/opoquest/opoquest-api/config"
	"github.com/opoquest/opoquest-api/logger"
	"github.com/opoquest/opoquest-api/models"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestEngine(t *testing.T) (*Engine, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection keeps the in-memory database alive for the whole test.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, config.Migrate(db))

	engine := NewEngine(db, logger.NewNop(), rand.New(rand.NewSource(1)))
	return engine, db
}

func seedFactors(t *testing.T, db *gorm.DB, overrides map[string]float64) {
	t.Helper()
	defaults := map[string]float64{
		models.FactorQuestionPctUnanswered:  25,
		models.FactorQuestionPctWrong:       50,
		models.FactorQuestionPctCorrect:     25,
		models.FactorQuestionMasteryWindow:  3,
		models.FactorFlashcardPctUnanswered: 25,
		models.FactorFlashcardPctWrong:      25,
		models.FactorFlashcardPctReview:     25,
		models.FactorFlashcardPctCorrect:    25,
		models.FactorFlashcardWrongWindow:   3,
		models.FactorFlashcardReviewWindow:  2,
	}
	for name, value := range overrides {
		defaults[name] = value
	}
	for _, name := range models.FactorNames {
		require.NoError(t, db.Create(&models.Factor{Name: name, Value: defaults[name]}).Error)
	}
}

func seedUser(t *testing.T, db *gorm.DB, auth0ID string) uint {
	t.Helper()
	user := models.User{Auth0ID: auth0ID, Status: models.UserApproved, Role: models.RoleStudent}
	require.NoError(t, db.Create(&user).Error)
	return user.ID
}

func seedTopic(t *testing.T, db *gorm.DB) uint {
	t.Helper()
	topic := models.Topic{Name: "Constitutional Law", Code: "T01"}
	require.NoError(t, db.Create(&topic).Error)
	return topic.ID
}

func seedQuestions(t *testing.T, db *gorm.DB, topicID uint, n int) []uint {
	t.Helper()
	answers, _ := json.Marshal([]string{"a", "b", "c", "d"})
	ids := make([]uint, n)
	for i := 0; i < n; i++ {
		q := models.Question{
			Code:         fmt.Sprintf("T01-Q%03d", i+1),
			TopicID:      topicID,
			Difficulty:   models.DifficultyBasic,
			Prompt:       fmt.Sprintf("question %d", i+1),
			Answers:      datatypes.JSON(answers),
			CorrectIndex: 0,
		}
		require.NoError(t, db.Create(&q).Error)
		ids[i] = q.ID
	}
	return ids
}

func seedFlashcards(t *testing.T, db *gorm.DB, topicID uint, n int) []uint {
	t.Helper()
	ids := make([]uint, n)
	for i := 0; i < n; i++ {
		c := models.Flashcard{
			Code:       fmt.Sprintf("T01-F%03d", i+1),
			TopicID:    topicID,
			Difficulty: models.DifficultyBasic,
			Prompt:     fmt.Sprintf("card %d", i+1),
			Solution:   "because",
		}
		require.NoError(t, db.Create(&c).Error)
		ids[i] = c.ID
	}
	return ids
}

var histCounter int

// recordHistory writes one finished single-item session per result, in
// order, so the latest element of results is the most recent response.
func recordHistory(t *testing.T, db *gorm.DB, userID uint, kind models.ItemKind, itemID uint, results ...string) {
	t.Helper()
	for _, result := range results {
		histCounter++
		session := models.PracticeSession{
			PublicID: fmt.Sprintf("hist-%d", histCounter),
			UserID:   userID,
			Kind:     kind,
			Status:   models.SessionFinished,
		}
		require.NoError(t, db.Create(&session).Error)
		require.NoError(t, db.Create(&models.SessionItem{SessionID: session.ID, ItemID: itemID}).Error)
		require.NoError(t, db.Create(&models.Response{
			SessionID: session.ID,
			UserID:    userID,
			ItemKind:  kind,
			ItemID:    itemID,
			Result:    result,
			State:     models.StateResponded,
		}).Error)
	}
}

// makeSession inserts a live session with a fixed item set, bypassing the
// sampler, so answer-flow tests are deterministic.
func makeSession(t *testing.T, db *gorm.DB, userID uint, kind models.ItemKind, itemIDs []uint, expiresAt *time.Time) string {
	t.Helper()
	histCounter++
	session := models.PracticeSession{
		PublicID:  fmt.Sprintf("live-%d", histCounter),
		UserID:    userID,
		Kind:      kind,
		Status:    models.SessionCreated,
		ExpiresAt: expiresAt,
	}
	require.NoError(t, db.Create(&session).Error)
	for i, id := range itemIDs {
		require.NoError(t, db.Create(&models.SessionItem{SessionID: session.ID, ItemID: id, Rank: i}).Error)
	}
	return session.PublicID
}

func intPtr(v int) *int { return &v }
