package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"popquiz"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

func main() {
	configDir := flag.String("config", ".", "Directory containing config.yaml")
	flag.Parse()

	cfg, err := popquiz.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := popquiz.InitLogger(cfg.Log); err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	logger := popquiz.Log
	defer logger.Sync()

	db, err := popquiz.OpenDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.CloseDB()

	if err := db.CreateTables(context.Background()); err != nil {
		logger.Fatal("failed to create tables", zap.Error(err))
	}

	transcript := popquiz.OpenTranscript(cfg.Log.TranscriptFile)
	defer transcript.Close()

	completer := popquiz.NewOpenAICompleter(cfg.LLM)
	generator := popquiz.NewQuizGenerator(completer,
		popquiz.WithTimeout(cfg.LLM.GenerationTimeout),
		popquiz.WithMaxQuestions(cfg.Generation.MaxQuestions),
		popquiz.WithSourceTextLimit(cfg.Generation.SourceTextLimit),
		popquiz.WithTranscript(transcript),
	)
	grader := popquiz.NewGrader(completer, cfg.LLM.GradingTimeout)
	grader.SetTranscript(transcript)

	secret := []byte(cfg.Server.SessionSecret)
	if len(secret) == 0 {
		logger.Warn("no session secret configured, sessions will not survive a restart")
		secret = securecookie.GenerateRandomKey(32)
	}
	store := sessions.NewCookieStore(secret)
	store.Options.HttpOnly = true
	store.Options.SameSite = http.SameSiteLaxMode

	server := &Server{
		generator: generator,
		quizzes:   popquiz.NewQuizService(db, generator),
		guard:     popquiz.NewSubmissionGuard(db, grader),
		store:     store,
		limiter:   newUserLimiter(cfg.Server.RateLimit, time.Minute),
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           server.routes(cfg.Server.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
		// generation and grading wait on the model
		WriteTimeout: cfg.LLM.GradingTimeout + 30*time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", srv.Addr), zap.String("model", cfg.LLM.Model))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}
}
