package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"trivia-stats-service/internal/app"
	"trivia-stats-service/internal/domain"
)

// Handler exposes the game backend over JSON endpoints. All gameplay routes
// are POST with the player id in the body, matching the mobile client
// protocol; status mapping is 400 for caller errors, 404 for unknown players
// (and an empty ranking population), 401 for bad credentials, 500 for storage
// failures.
type Handler struct {
	auth      *app.AuthService
	stats     *app.StatsService
	rankings  *app.RankingService
	questions *app.QuestionService
}

func NewHandler(auth *app.AuthService, stats *app.StatsService, rankings *app.RankingService, questions *app.QuestionService) *Handler {
	return &Handler{auth: auth, stats: stats, rankings: rankings, questions: questions}
}

// Register wires every route onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/players", h.handleRegister)
	mux.HandleFunc("/sessions", h.handleSignIn)
	mux.HandleFunc("/questions", h.handleQuestions)
	mux.HandleFunc("/players/streak", h.handleStreak)
	mux.HandleFunc("/players/progress", h.handleProgress)
	mux.HandleFunc("/players/powerups", h.handlePowerUp)
	mux.HandleFunc("/players/games/played", h.handleGamePlayed)
	mux.HandleFunc("/players/games/won", h.handleGameWon)
	mux.HandleFunc("/players/statistics", h.handleStatistics)
	mux.HandleFunc("/ranking", h.handleRanking)
}

type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type registerResponse struct {
	PlayerID    string `json:"playerId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type questionsRequest struct {
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count"`
}

type streakRequest struct {
	PlayerID string `json:"playerId"`
	Correct  bool   `json:"correct"`
}

type progressRequest struct {
	PlayerID string `json:"playerId"`
	Answered *int64 `json:"answered"`
	Correct  *int64 `json:"correct"`
}

type playerRequest struct {
	PlayerID string `json:"playerId"`
}

type rankingRequest struct {
	Limit int `json:"limit"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	record, err := h.auth.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, registerResponse{
		PlayerID:    record.ID,
		Email:       record.Email,
		DisplayName: record.DisplayName,
	})
}

func (h *Handler) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !decodeBody(w, r, &req) {
		return
	}
	session, err := h.auth.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) handleQuestions(w http.ResponseWriter, r *http.Request) {
	var req questionsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	questions, err := h.questions.RandomQuestions(r.Context(), req.Difficulty, req.Count)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, questions)
}

func (h *Handler) handleStreak(w http.ResponseWriter, r *http.Request) {
	var req streakRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.stats.UpdateStreak(r.Context(), req.PlayerID, req.Correct); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.stats.RecordProgress(r.Context(), req.PlayerID, req.Answered, req.Correct); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePowerUp(w http.ResponseWriter, r *http.Request) {
	h.handleIncrement(w, r, h.stats.RecordPowerUpUsed)
}

func (h *Handler) handleGamePlayed(w http.ResponseWriter, r *http.Request) {
	h.handleIncrement(w, r, h.stats.RecordGameCompleted)
}

func (h *Handler) handleGameWon(w http.ResponseWriter, r *http.Request) {
	h.handleIncrement(w, r, h.stats.RecordGameWon)
}

func (h *Handler) handleIncrement(w http.ResponseWriter, r *http.Request, op func(context.Context, string) error) {
	var req playerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := op(r.Context(), req.PlayerID); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleStatistics(w http.ResponseWriter, r *http.Request) {
	var req playerRequest
	if !decodeBody(w, r, &req) {
		return
	}
	stats, err := h.stats.Statistics(r.Context(), req.PlayerID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) handleRanking(w http.ResponseWriter, r *http.Request) {
	var req rankingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	entries, err := h.rankings.Ranking(r.Context(), req.Limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// decodeBody enforces POST and parses the JSON body; it writes the failure
// response itself and reports whether the handler should continue.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed"})
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrMissingPlayerID),
		errors.Is(err, domain.ErrMissingField),
		errors.Is(err, domain.ErrPasswordTooShort),
		errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrDisplayNameTaken),
		errors.Is(err, domain.ErrNotEnoughQuestions):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrPlayerNotFound), errors.Is(err, domain.ErrNoPlayers):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: err.Error()})
	default:
		log.Printf("request failed: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}
