package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/opoquest/opoquest-api/billing"
	"github.com/opoquest/opoquest-api/config"
	"github.com/opoquest/opoquest-api/handlers"
	"github.com/opoquest/opoquest-api/logger"
	"github.com/opoquest/opoquest-api/middleware"
	"github.com/opoquest/opoquest-api/practice"
	"github.com/opoquest/opoquest-api/sweeper"
	"github.com/rs/cors"
)

func init() {
	// Load .env file if not in production environment
	if os.Getenv("RAILWAY_ENVIRONMENT_NAME") == "" {
		err := godotenv.Load()
		if err != nil {
			log.Printf("Warning: .env file not found, environment variables might not be loaded: %v", err)
		}
	}
}

func main() {
	zlog, err := logger.New(config.Env.LogMode)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zlog.Sync()

	// Initialize database connection
	config.Connect()
	authMiddleware := middleware.EnsureValidToken()

	engine := practice.NewEngine(config.Database, zlog, nil)
	h := &handlers.DBHandler{
		DB:      config.Database,
		Log:     zlog,
		Engine:  engine,
		Billing: billing.NewProcessor(config.Database, zlog),
	}

	mux := http.NewServeMux()

	// Practice sessions
	mux.HandleFunc("POST /api/practice/{kind}/sessions", middleware.RequireApproved(h.StartSession))
	mux.HandleFunc("GET /api/practice/sessions/{sessionID}", middleware.RequireApproved(h.GetSession))
	mux.HandleFunc("POST /api/practice/sessions/{sessionID}/answers", middleware.RequireApproved(h.SubmitAnswer))
	mux.HandleFunc("POST /api/practice/sessions/{sessionID}/finish", middleware.RequireApproved(h.FinishSession))
	mux.HandleFunc("DELETE /api/practice/sessions/{sessionID}", middleware.RequireApproved(h.DeleteSession))
	mux.HandleFunc("GET /api/practice/sessions/{sessionID}/stats", middleware.RequireApproved(h.GetSessionStats))

	// Syllabus
	mux.HandleFunc("GET /api/topics", middleware.WithUser(h.GetTopics))
	mux.HandleFunc("POST /api/topics", middleware.RequireAdmin(h.CreateTopic))
	mux.HandleFunc("PUT /api/topics/{topicID}", middleware.RequireAdmin(h.UpdateTopic))
	mux.HandleFunc("DELETE /api/topics/{topicID}", middleware.RequireAdmin(h.DeleteTopic))

	// Question bank
	mux.HandleFunc("GET /api/topics/{topicID}/questions", middleware.RequireAdmin(h.GetQuestionsForTopic))
	mux.HandleFunc("POST /api/topics/{topicID}/questions", middleware.RequireAdmin(h.CreateQuestion))
	mux.HandleFunc("DELETE /api/questions/{questionID}", middleware.RequireAdmin(h.DeleteQuestion))
	mux.HandleFunc("GET /api/topics/{topicID}/flashcards", middleware.RequireAdmin(h.GetFlashcardsForTopic))
	mux.HandleFunc("POST /api/topics/{topicID}/flashcards", middleware.RequireAdmin(h.CreateFlashcard))
	mux.HandleFunc("DELETE /api/flashcards/{flashcardID}", middleware.RequireAdmin(h.DeleteFlashcard))

	// Documents
	mux.HandleFunc("GET /api/topics/{topicID}/documents", middleware.RequireApproved(h.GetDocumentsForTopic))
	mux.HandleFunc("POST /api/topics/{topicID}/documents", middleware.RequireAdmin(h.CreateDocument))
	mux.HandleFunc("GET /api/documents/{documentID}/download-token", middleware.RequireApproved(h.GetDownloadToken))
	mux.HandleFunc("DELETE /api/documents/{documentID}", middleware.RequireAdmin(h.DeleteDocument))

	// Exam scheduling
	mux.HandleFunc("GET /api/exams", middleware.WithUser(h.GetExams))
	mux.HandleFunc("POST /api/exams", middleware.RequireAdmin(h.CreateExam))
	mux.HandleFunc("DELETE /api/exams/{examID}", middleware.RequireAdmin(h.DeleteExam))
	mux.HandleFunc("GET /api/exams/{examID}/plan", middleware.RequireApproved(h.GetExamPlan))

	// User approval + tuning factors
	mux.HandleFunc("GET /api/admin/users/pending", middleware.RequireAdmin(h.GetPendingUsers))
	mux.HandleFunc("POST /api/admin/users/{userID}/review", middleware.RequireAdmin(h.ReviewUser))
	mux.HandleFunc("GET /api/admin/factors", middleware.RequireAdmin(h.GetFactors))
	mux.HandleFunc("PUT /api/admin/factors", middleware.RequireAdmin(h.UpsertFactor))

	// Billing provider callback, no user identity attached
	mux.HandleFunc("POST /api/billing/webhook", h.BillingWebhook)

	// Background sweep for sessions nobody comes back to
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sweeper.New(engine, config.Env.SweepInterval, zlog).Run(ctx)

	// Configure CORS with specific options
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000", "https://app.opoquest.com"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With", "Accept", "Origin"},
		AllowCredentials: true,
		MaxAge:           86400,
	}).Handler(authMiddleware(mux))

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080" // fallback port for local development
	}
	serverAddr := "0.0.0.0:" + port

	zlog.Info("listening", "addr", serverAddr)
	http.ListenAndServe(serverAddr, corsHandler)
}
