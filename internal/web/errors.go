package web

// errors.go maps component errors to status codes and JSON bodies.
// The technical error is logged with the request id; the client gets the
// same message the dashboard would show.

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/KaramelBytes/tablelens/internal/chart"
	"github.com/KaramelBytes/tablelens/internal/dataset"
	"github.com/KaramelBytes/tablelens/internal/logging"
	"github.com/KaramelBytes/tablelens/internal/render"
	"github.com/KaramelBytes/tablelens/internal/session"
)

var (
	errNoDataset = errors.New("no dataset loaded")
	errNoFile    = errors.New("no file provided")
)

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// classify returns the status, machine code and user message for err.
func classify(err error) (int, string, string) {
	var (
		fe *dataset.FormatError
		pe *dataset.ParseError
		tm *dataset.TypeMismatchError
		ne *dataset.NoEligibleColumnsError
		nf *dataset.ColumnNotFoundError
		mb *http.MaxBytesError
	)
	switch {
	case errors.Is(err, errNoDataset):
		return http.StatusConflict, "no_dataset", session.EmptyMessage
	case errors.Is(err, errNoFile):
		return http.StatusBadRequest, "no_file", "Choose a CSV or Excel file to upload."
	case errors.As(err, &mb):
		return http.StatusRequestEntityTooLarge, "upload_too_large", "The file is larger than the upload limit."
	case errors.As(err, &fe):
		return http.StatusBadRequest, "unsupported_format", session.Message(err)
	case errors.As(err, &pe):
		return http.StatusBadRequest, "parse_error", session.Message(err)
	case errors.As(err, &tm):
		return http.StatusUnprocessableEntity, "type_mismatch", session.Message(err)
	case errors.As(err, &ne):
		return http.StatusUnprocessableEntity, "no_eligible_columns", session.Message(err)
	case errors.As(err, &nf):
		return http.StatusNotFound, "column_not_found", session.Message(err)
	case errors.Is(err, chart.ErrInvalidOption):
		return http.StatusBadRequest, "invalid_option", err.Error()
	case errors.Is(err, render.ErrUnsupported):
		return http.StatusUnprocessableEntity, "unsupported_chart", err.Error()
	case errors.Is(err, render.ErrNoData):
		return http.StatusUnprocessableEntity, "empty_chart", "The chart has no values to draw."
	}
	return http.StatusInternalServerError, "internal", "Something went wrong. Please try again."
}

// respondError logs err and writes the mapped JSON error.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, msg := classify(err)
	logger := logging.FromContext(r.Context(), s.log)
	fields := []zap.Field{
		zap.String("path", r.URL.Path),
		zap.String("method", r.Method),
		zap.Int("status", status),
		zap.String("code", code),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", fields...)
	} else {
		logger.Warn("request error", fields...)
	}
	writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}

// writeJSON writes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
