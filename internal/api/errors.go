package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/headunit-core/internal/board"
	"github.com/nerrad567/headunit-core/internal/radio"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes.
const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeNotFound     = "not_found"
	ErrCodeUnauthorized = "unauthorised"
	ErrCodeInternal     = "internal_error"
	ErrCodeUnsupported  = "unsupported"
	ErrCodeBusError     = "bus_error"
	ErrCodeUnavailable  = "unavailable"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeRadioError maps a radio service error to a response:
//
//	board.ErrUnsupportedStep           422 unsupported
//	board.ErrWriteFailed, ErrLineFailed 502 bus_error
//	closed service or board, no store  503 unavailable
//	anything else                      500 internal_error
func writeRadioError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, board.ErrUnsupportedStep):
		writeError(w, http.StatusUnprocessableEntity, ErrCodeUnsupported, err.Error())
	case errors.Is(err, board.ErrWriteFailed), errors.Is(err, board.ErrLineFailed):
		writeError(w, http.StatusBadGateway, ErrCodeBusError, err.Error())
	case errors.Is(err, radio.ErrClosed), errors.Is(err, board.ErrClosed), errors.Is(err, radio.ErrNoStore):
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, err.Error())
	default:
		writeInternalError(w, err.Error())
	}
}
