package shared

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"leadtrack/internal/domain/tracking"
	"leadtrack/internal/transport/http/api"
)

// WriteError maps a tracking error onto the response envelope. Anything
// unrecognized is logged and reported as a 500 with the given code.
func WriteError(w http.ResponseWriter, err error, code, requestID string) {
	var validation *tracking.ValidationError
	var notFound *tracking.NotFoundError
	switch {
	case errors.As(err, &validation):
		issues := make([]ValidationIssue, 0, len(validation.Issues))
		for _, issue := range validation.Issues {
			issues = append(issues, ValidationIssue{Field: issue.Field, Reason: issue.Reason})
		}
		FailValidation(w, requestID, issues)
	case errors.Is(err, tracking.ErrValidation):
		api.Fail(w, http.StatusBadRequest, "validation_error", err.Error(), requestID)
	case errors.Is(err, tracking.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), requestID)
	case errors.As(err, &notFound):
		api.Fail(w, http.StatusNotFound, "not_found", notFound.Kind+" not found", requestID)
	case errors.Is(err, tracking.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "not found", requestID)
	default:
		slog.Error("request failed", "err", err, "code", code, "requestId", requestID)
		api.Fail(w, http.StatusInternalServerError, code, "internal error", requestID)
	}
}

// DecodeJSON reads a JSON body, rejecting unknown fields and trailing data.
func DecodeJSON(r io.Reader, dst any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected trailing data")
	}
	return nil
}

func InvalidPayload(w http.ResponseWriter, err error, requestID string) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		api.Fail(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large", requestID)
		return
	}
	api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestID)
}
