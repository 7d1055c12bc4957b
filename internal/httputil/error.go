package httputil

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Oozturn/oozturn-sub001/internal/bracket"
	"github.com/Oozturn/oozturn-sub001/internal/engine"
	"github.com/Oozturn/oozturn-sub001/internal/service"
)

type errorBody struct {
	Error  string `json:"error"`
	Match  string `json:"match,omitempty"`
	Reason string `json:"reason,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to write response", "error", err)
	}
}

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	WriteJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal Server Error"})
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	WriteJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("not found", "message", msg, "error", err)
	} else {
		slog.Warn("not found", "message", msg)
	}
	WriteJSON(w, http.StatusNotFound, errorBody{Error: msg})
}

var notFoundErrors = []error{
	bracket.ErrMatchNotFound,
	engine.ErrPlayerNotFound,
	engine.ErrTeamNotFound,
	engine.ErrBracketNotFound,
	engine.ErrMatchNotFound,
}

var badRequestErrors = []error{
	bracket.ErrInvalidConfig,
	engine.ErrNotEditable,
	engine.ErrNotRunning,
	engine.ErrInvalidTransition,
	engine.ErrNoSettings,
	engine.ErrPlayerExists,
	engine.ErrTeamExists,
	engine.ErrEmptyTeam,
	engine.ErrIndexOutOfRange,
	engine.ErrStageClosed,
	engine.ErrOpponentNotInMatch,
}

// Error writes err with the status that matches its kind. Score
// rejections carry the offending match and the reason.
func Error(w http.ResponseWriter, err error) {
	var verr *bracket.ValidationError
	if errors.As(err, &verr) {
		slog.Warn("bad request", "error", err)
		WriteJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Match: verr.ID.String(), Reason: verr.Reason})
		return
	}
	if errors.Is(err, service.ErrTournamentNotFound) || errors.Is(err, sql.ErrNoRows) {
		NotFound(w, "Tournament not found", err)
		return
	}
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			NotFound(w, err.Error(), err)
			return
		}
	}
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			BadRequest(w, err.Error(), err)
			return
		}
	}
	InternalServerError(w, "request failed", err)
}
