package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rocketscienceinc/tictactoe-history/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-history/internal/entity"
	"github.com/rocketscienceinc/tictactoe-history/internal/view"
)

type sessionUseCase interface {
	CreateSession(ctx context.Context) (*entity.Session, error)
	GetSession(ctx context.Context, id string) (*entity.Session, error)
	DeleteSession(ctx context.Context, id string) error

	Play(ctx context.Context, id string, cell int) (*entity.Session, error)
	JumpTo(ctx context.Context, id string, move int) (*entity.Session, error)
	Reset(ctx context.Context, id string) (*entity.Session, error)
	ToggleAI(ctx context.Context, id string) (*entity.Session, error)
}

type playRequest struct {
	Cell *int `json:"cell"`
}

type jumpRequest struct {
	Move *int `json:"move"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handlers struct {
	logger   *slog.Logger
	sessions sessionUseCase
}

func newHandlers(logger *slog.Logger, sessions sessionUseCase) *handlers {
	return &handlers{
		logger:   logger.With("component", "rest"),
		sessions: sessions,
	}
}

// ping - liveness check; it does not touch storage.
func (that *handlers) ping(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte("pong")); err != nil {
		that.logger.With("method", "ping").Error("failed to write response", "error", err)
	}
}

func (that *handlers) createSession(w http.ResponseWriter, r *http.Request) {
	session, err := that.sessions.CreateSession(r.Context())
	if err != nil {
		that.writeError(w, "createSession", err)
		return
	}

	writeJSON(w, http.StatusCreated, view.New(session))
}

func (that *handlers) getSession(w http.ResponseWriter, r *http.Request) {
	session, err := that.sessions.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, "getSession", err)
		return
	}

	writeJSON(w, http.StatusOK, view.New(session))
}

func (that *handlers) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := that.sessions.DeleteSession(r.Context(), chi.URLParam(r, "id")); err != nil {
		that.writeError(w, "deleteSession", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (that *handlers) play(w http.ResponseWriter, r *http.Request) {
	var req playRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Cell == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "cell is required"})
		return
	}

	session, err := that.sessions.Play(r.Context(), chi.URLParam(r, "id"), *req.Cell)
	if err != nil {
		that.writeError(w, "play", err)
		return
	}

	writeJSON(w, http.StatusOK, view.New(session))
}

func (that *handlers) jumpTo(w http.ResponseWriter, r *http.Request) {
	var req jumpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Move == nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "move is required"})
		return
	}

	session, err := that.sessions.JumpTo(r.Context(), chi.URLParam(r, "id"), *req.Move)
	if err != nil {
		that.writeError(w, "jumpTo", err)
		return
	}

	writeJSON(w, http.StatusOK, view.New(session))
}

func (that *handlers) reset(w http.ResponseWriter, r *http.Request) {
	session, err := that.sessions.Reset(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, "reset", err)
		return
	}

	writeJSON(w, http.StatusOK, view.New(session))
}

func (that *handlers) toggleAI(w http.ResponseWriter, r *http.Request) {
	session, err := that.sessions.ToggleAI(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		that.writeError(w, "toggleAI", err)
		return
	}

	writeJSON(w, http.StatusOK, view.New(session))
}

func (that *handlers) writeError(w http.ResponseWriter, method string, err error) {
	status := StatusFromError(err)
	if status == http.StatusInternalServerError {
		that.logger.Error("request failed", "method", method, "error", err)
		writeJSON(w, status, errorResponse{Error: "internal server error"})
		return
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// StatusFromError maps session errors onto HTTP status codes.
func StatusFromError(err error) int {
	switch {
	case errors.Is(err, apperror.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrInvalidCell), errors.Is(err, apperror.ErrInvalidMove):
		return http.StatusBadRequest
	case errors.Is(err, apperror.ErrCellOccupied),
		errors.Is(err, apperror.ErrGameFinished),
		errors.Is(err, apperror.ErrNotYourTurn),
		errors.Is(err, apperror.ErrNotAITurn),
		errors.Is(err, apperror.ErrAIDisabled),
		errors.Is(err, apperror.ErrStaleMove):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
