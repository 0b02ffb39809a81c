package http

import (
	"errors"
	"net/http"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/ledger"
	"fintrack/internal/services"
	"fintrack/internal/sources"
)

// sanitizeInput removes control characters except tab, newline and carriage return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// statusForError maps domain errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, core.ErrUnknownKind),
		errors.Is(err, core.ErrUnknownDirection),
		errors.Is(err, ledger.ErrUnknownSort),
		errors.Is(err, services.ErrEmptyBatch),
		errors.Is(err, services.ErrInvalidRecord),
		errors.Is(err, ErrEmptyBody),
		errors.Is(err, ErrInvalidLimit):
		return http.StatusBadRequest
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, services.ErrNoDestination):
		return http.StatusServiceUnavailable
	case errors.Is(err, sources.ErrNoCollections):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage hides internal error details from clients.
func publicMessage(status int, err error) string {
	if status >= 500 {
		switch status {
		case http.StatusBadGateway:
			return "record sources are unavailable"
		case http.StatusServiceUnavailable:
			return "ingest is not configured"
		}
		return "internal server error"
	}
	return err.Error()
}
