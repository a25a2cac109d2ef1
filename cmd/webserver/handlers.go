package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"unicode/utf8"

	"popquiz"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/sessions"
	"go.uber.org/zap"
)

// maxSourceBytes bounds an uploaded source document before truncation
const maxSourceBytes = 1 << 20

// Server holds the services behind the HTTP API
type Server struct {
	generator *popquiz.QuizGenerator
	quizzes   *popquiz.QuizService
	guard     *popquiz.SubmissionGuard
	store     sessions.Store
	limiter   *userLimiter
}

func (s *Server) routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireUser)

		r.With(s.rateLimited).Post("/questions/generate", s.handleGenerate)

		r.Route("/quizzes", func(r chi.Router) {
			r.With(requireRole(roleTeacher), s.rateLimited).Post("/", s.handleCreateQuiz)
			r.With(requireRole(roleTeacher)).Get("/", s.handleListQuizzes)
			r.Get("/{quizID}", s.handleGetQuiz)
			r.With(requireRole(roleTeacher)).Delete("/{quizID}", s.handleDeleteQuiz)
			r.With(requireRole(roleTeacher)).Put("/{quizID}/questions/{index}", s.handleUpdateQuestion)
			r.With(requireRole(roleStudent), s.rateLimited).Post("/{quizID}/submissions", s.handleSubmit)
			r.With(requireRole(roleTeacher)).Get("/{quizID}/submissions", s.handleListSubmissions)
		})

		r.With(requireRole(roleStudent), s.rateLimited).Post("/me/regrade", s.handleRegrade)
	})

	return r
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	req, err := decodeGenerationRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	questions, err := s.generator.Generate(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"questions": questions})
}

func (s *Server) handleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	req, err := decodeGenerationRequest(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	quiz, err := s.quizzes.CreateQuiz(r.Context(), identityFrom(r.Context()).UserID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, quiz)
}

func (s *Server) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := s.quizzes.ListQuizzes(r.Context(), identityFrom(r.Context()).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quizzes)
}

func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, err := pathInt(r, "quizID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	quiz, err := s.quizzes.GetQuiz(r.Context(), quizID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (s *Server) handleDeleteQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, err := pathInt(r, "quizID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := s.quizzes.DeleteQuiz(r.Context(), identityFrom(r.Context()).UserID, quizID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	quizID, err := pathInt(r, "quizID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	index, err := pathInt(r, "index")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var body struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", popquiz.ErrInvalidRequest, err))
		return
	}

	quiz, err := s.quizzes.UpdateQuestion(r.Context(), identityFrom(r.Context()).UserID, quizID, int(index), body.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quiz)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	quizID, err := pathInt(r, "quizID")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var body struct {
		Answers map[string]string `json:"answers"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, fmt.Errorf("%w: %v", popquiz.ErrInvalidRequest, err))
		return
	}

	sub, err := s.guard.Submit(r.Context(), quizID, identityFrom(r.Context()).UserID, body.Answers)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"submission_id": sub.ID,
		"score":         sub.Score,
	})
}

func (s *Server) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	quizID, err := pathInt(r, "quizID")
	if err != nil {
		writeError(w, r, err)
		return
	}
	submissions, err := s.quizzes.ListSubmissions(r.Context(), identityFrom(r.Context()).UserID, quizID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, submissions)
}

func (s *Server) handleRegrade(w http.ResponseWriter, r *http.Request) {
	regraded, err := s.guard.RegradeAll(r.Context(), identityFrom(r.Context()).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"regraded": regraded})
}

// decodeGenerationRequest accepts a JSON body or a multipart form whose
// optional "source" file holds plain-text source material.
func decodeGenerationRequest(r *http.Request) (popquiz.GenerationRequest, error) {
	var req popquiz.GenerationRequest

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, fmt.Errorf("%w: %v", popquiz.ErrInvalidRequest, err)
		}
		return req, nil
	}

	if err := r.ParseMultipartForm(2 * maxSourceBytes); err != nil {
		return req, fmt.Errorf("%w: %v", popquiz.ErrInvalidRequest, err)
	}
	req.Topic = r.FormValue("topic")
	req.CognitiveLevel = popquiz.CognitiveLevel(r.FormValue("cognitive_level"))
	req.QuestionType = popquiz.QuestionType(r.FormValue("question_type"))
	count, err := strconv.Atoi(r.FormValue("num_questions"))
	if err != nil {
		return req, fmt.Errorf("%w: num_questions must be a number", popquiz.ErrInvalidRequest)
	}
	req.Count = count
	req.SourceText = r.FormValue("source_text")

	file, _, err := r.FormFile("source")
	if errors.Is(err, http.ErrMissingFile) {
		return req, nil
	}
	if err != nil {
		return req, fmt.Errorf("%w: %v", popquiz.ErrInvalidRequest, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxSourceBytes+utf8.UTFMax))
	if err != nil {
		return req, fmt.Errorf("%w: failed to read source: %v", popquiz.ErrInvalidRequest, err)
	}
	data = truncateUTF8(data, maxSourceBytes)
	if !utf8.Valid(data) {
		return req, fmt.Errorf("%w: source must be a plain text document", popquiz.ErrInvalidRequest)
	}
	req.SourceText = string(data)
	return req, nil
}

// truncateUTF8 cuts data to at most n bytes without splitting a character
func truncateUTF8(data []byte, n int) []byte {
	if len(data) <= n {
		return data
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(data[cut]) {
		cut--
	}
	return data[:cut]
}

func pathInt(r *http.Request, name string) (int64, error) {
	n, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", popquiz.ErrInvalidRequest, name)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		popquiz.Log.Error("failed to encode response", zap.Error(err))
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps domain errors to status codes
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, popquiz.ErrInvalidRequest), errors.Is(err, popquiz.ErrInvalidIndex):
		status = http.StatusBadRequest
	case errors.Is(err, popquiz.ErrQuizNotFound):
		status = http.StatusNotFound
	case errors.Is(err, popquiz.ErrNotAuthorized):
		status = http.StatusForbidden
	case errors.Is(err, popquiz.ErrDuplicateSubmission):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		popquiz.Log.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		writeJSONError(w, status, "internal error")
		return
	}
	writeJSONError(w, status, err.Error())
}
