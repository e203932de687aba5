package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/MrSnakeDoc/giftgate/internal/domain"
	"github.com/MrSnakeDoc/giftgate/internal/logger"
)

const maxBodyBytes = 1 << 20

// Error types that do not come from the verification pipeline.
const (
	errTypeInvalidInit   = "invalid_init"
	errTypeMissingParams = "missing_params"
	errTypeInvalidBody   = "invalid_body"
	errTypeServer        = "server_error"
)

type errorResponse struct {
	Error     string `json:"error"`
	ErrorType string `json:"errorType"`
}

type successResponse struct {
	Success bool `json:"success"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, errType string) {
	writeJSON(w, status, errorResponse{Error: msg, ErrorType: errType})
}

// writeDomainError maps a pipeline error kind to its status code. Anything
// else is reported as a generic server error carrying only the message.
func writeDomainError(w http.ResponseWriter, err error, log logger.Logger) {
	var e *domain.Error
	if !errors.As(err, &e) {
		log.Error("unexpected error", logger.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error(), errTypeServer)
		return
	}

	status := statusFor(e.Kind)
	if status >= http.StatusInternalServerError {
		log.Error("upstream failure", logger.String("kind", string(e.Kind)), logger.Error(err))
	}
	writeError(w, status, e.Msg, string(e.Kind))
}

func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindInvalidURL:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindHidden, domain.KindNotOwner:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a single JSON object from the request body into dst.
// Unknown fields are ignored; wrong types and trailing data are not.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("decode body: trailing data after JSON object")
	}
	return nil
}
