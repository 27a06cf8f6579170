package httperrors

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sir_venger/media_lite/internal/models"
	"github.com/sir_venger/media_lite/pkg/mediaproto"
)

// Status сопоставляет доменную ошибку с HTTP-статусом.
func Status(err error) int {
	switch {
	case errors.Is(err, models.ErrTraversal):
		return http.StatusForbidden
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrEmptyInput), errors.Is(err, models.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrRangeUnsatisfiable):
		return http.StatusRequestedRangeNotSatisfiable
	default:
		return http.StatusInternalServerError
	}
}

// Message возвращает текст для клиента. Внутренние ошибки не раскрываются:
// в них могут быть абсолютные пути на диске.
func Message(err error) string {
	switch Status(err) {
	case http.StatusForbidden:
		return "access denied: path is outside the storage directory"
	case http.StatusInternalServerError:
		return "internal error"
	default:
		return err.Error()
	}
}

// Write отвечает JSON-телом {"error": "..."} с подходящим статусом.
func Write(w http.ResponseWriter, err error) {
	WriteMessage(w, Status(err), Message(err))
}

// WriteMessage отвечает произвольным статусом и текстом ошибки.
func WriteMessage(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(mediaproto.ErrorResponse{Error: msg})
}
