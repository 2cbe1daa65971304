// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"codeberg.org/walletsurance/nominee/internal/i18n"
	"codeberg.org/walletsurance/nominee/internal/repository"
	"codeberg.org/walletsurance/nominee/internal/services/claim"
	"codeberg.org/walletsurance/nominee/internal/services/escrow"
	"codeberg.org/walletsurance/nominee/internal/services/ledger"
	"codeberg.org/walletsurance/nominee/internal/services/nominee"
	"codeberg.org/walletsurance/nominee/internal/services/offramp"
	"github.com/labstack/echo/v4"
)

// Error codes returned in the "code" field.
const (
	CodeValidation              = "validation_error"
	CodeNotFound                = "not_found"
	CodeCollaboratorUnavailable = "collaborator_unavailable"
	CodeUpstreamRejected        = "upstream_rejected"
	CodeCryptoConfiguration     = "crypto_configuration"
	CodeInternal                = "internal"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error    string          `json:"error"`
	Code     string          `json:"code"`
	Field    string          `json:"field,omitempty"`
	Upstream json.RawMessage `json:"upstream,omitempty"`
	Detail   string          `json:"detail,omitempty"`
}

// classify maps a service error onto a status and response body.
func classify(c echo.Context, err error) (int, ErrorResponse) {
	ctx := c.Request().Context()

	var vErr *nominee.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest, ErrorResponse{Error: vErr.Error(), Code: CodeValidation, Field: vErr.Field}
	}

	var upstream *ledger.UpstreamError
	if errors.As(err, &upstream) {
		msg := upstream.Detail
		if msg == "" {
			msg = i18n.T(ctx, "error_upstream")
		}
		return http.StatusBadRequest, ErrorResponse{Error: msg, Code: CodeUpstreamRejected, Upstream: upstream.Body}
	}

	switch {
	case errors.Is(err, nominee.ErrValidation),
		errors.Is(err, claim.ErrValidation),
		errors.Is(err, offramp.ErrValidation):
		return http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: CodeValidation}
	case errors.Is(err, claim.ErrNotFound),
		errors.Is(err, nominee.ErrNotFound),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, ErrorResponse{Error: i18n.T(ctx, "error_not_found"), Code: CodeNotFound}
	case errors.Is(err, ledger.ErrAccountNotFound):
		return http.StatusNotFound, ErrorResponse{Error: i18n.T(ctx, "error_account_not_found"), Code: CodeNotFound}
	case errors.Is(err, ledger.ErrUnavailable):
		return http.StatusServiceUnavailable, ErrorResponse{Error: i18n.T(ctx, "error_unavailable"), Code: CodeCollaboratorUnavailable}
	case errors.Is(err, escrow.ErrCryptoConfiguration):
		return http.StatusInternalServerError, ErrorResponse{Error: i18n.T(ctx, "error_crypto"), Code: CodeCryptoConfiguration}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: i18n.T(ctx, "error_internal"), Code: CodeInternal}
	}
}

// respondError logs err and writes the error envelope.
func (h *Handlers) respondError(c echo.Context, err error) error {
	status, body := classify(c, err)
	if h.errorDetail {
		body.Detail = err.Error()
	}
	logError(c, status, body.Code, err)
	return c.JSON(status, body)
}

func logError(c echo.Context, status int, code string, err error) {
	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(c.Request().Context(), level, "request_failed",
		"method", c.Request().Method,
		"path", c.Path(),
		"status", status,
		"code", code,
		"request_id", c.Response().Header().Get(echo.HeaderXRequestID),
		"error", err,
	)
}

// ErrorHandler renders errors that escape handlers, including echo's own
// routing and body limit errors, in the same envelope.
func ErrorHandler(errorDetail bool) echo.HTTPErrorHandler {
	h := &Handlers{errorDetail: errorDetail}
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if !errors.As(err, &he) {
			_ = h.respondError(c, err)
			return
		}

		body := ErrorResponse{Error: http.StatusText(he.Code), Code: httpCode(he.Code)}
		if msg, ok := he.Message.(string); ok && msg != "" {
			body.Error = msg
		}
		if he.Code >= http.StatusInternalServerError {
			body.Error = i18n.T(c.Request().Context(), "error_internal")
			logError(c, he.Code, body.Code, err)
		}
		if errorDetail && he.Internal != nil {
			body.Detail = he.Internal.Error()
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(he.Code)
			return
		}
		_ = c.JSON(he.Code, body)
	}
}

func httpCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType:
		return CodeValidation
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	default:
		if status >= http.StatusInternalServerError {
			return CodeInternal
		}
		return "http_error"
	}
}
