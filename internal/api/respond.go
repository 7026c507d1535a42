package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"builder-maps/internal/spots"
	errs "builder-maps/pkg/errors"
	"builder-maps/pkg/logging"
)

const maxBodyBytes = 1 << 20

// ErrorResponse is the JSON body of every non-2xx reply.
type ErrorResponse struct {
	Error      string            `json:"error"`
	Fields     map[string]string `json:"fields,omitempty"`
	Duplicates any               `json:"duplicates,omitempty"`
	RequestID  string            `json:"requestId,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a single JSON object into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return errs.NewValidation("api.decodeJSON", "request body too large", err)
		case errors.Is(err, io.EOF):
			return errs.NewValidation("api.decodeJSON", "request body is empty", err)
		default:
			return errs.NewValidation("api.decodeJSON", fmt.Sprintf("invalid JSON body: %v", err), err)
		}
	}
	if dec.More() {
		return errs.NewValidation("api.decodeJSON", "request body must contain a single JSON object", nil)
	}
	return nil
}

// statusFor maps error kinds onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errs.Is(err, errs.ErrValidation):
		return http.StatusBadRequest
	case errs.Is(err, errs.ErrNotFound):
		return http.StatusNotFound
	case errs.Is(err, errs.ErrBiz):
		return http.StatusConflict
	case errs.Is(err, errs.ErrExternal):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage hides internal details of server-side failures.
func publicMessage(err error, status int) string {
	switch status {
	case http.StatusInternalServerError:
		return "internal server error"
	case http.StatusBadGateway:
		return "upstream service unavailable"
	}
	var (
		v *errs.ValidationError
		n *errs.NotFoundError
		b *errs.BizError
	)
	switch {
	case errors.As(err, &v):
		return v.Msg
	case errors.As(err, &n):
		return n.Resource + " not found"
	case errors.As(err, &b):
		return b.Msg
	}
	return http.StatusText(status)
}

func writeError(w http.ResponseWriter, r *http.Request, log *logging.ComponentLogger, err error) {
	status := statusFor(err)
	resp := ErrorResponse{
		Error:     publicMessage(err, status),
		Fields:    errs.FieldsOf(err),
		RequestID: logging.RequestIDFrom(r.Context()),
	}
	if res, ok := spots.DuplicateResultOf(err); ok {
		resp.Duplicates = res
	}
	if status >= 500 {
		log.Error(r.Context(), "request failed", err, logging.Int("status", status))
	} else {
		log.Debug(r.Context(), "request rejected", logging.Int("status", status), logging.String("error", err.Error()))
	}
	writeJSON(w, status, resp)
}
