package auth

import (
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// ErrorResponse is the JSON error envelope every endpoint returns.
type ErrorResponse struct {
	Message   string            `json:"message"`
	TextCode  string            `json:"text_code,omitempty"`
	Metadata  map[string]any    `json:"metadata,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// RenderError maps domain errors to HTTP responses. Validation errors carry a
// per-field map; rich errors use their embedded status code; anything else is
// a 500 with a generic message so internals never leak.
func RenderError(ctx router.Context, err error, logger Logger) error {
	if logger == nil {
		logger = defLogger{}
	}

	var validationErrs validation.Errors
	if errors.As(err, &validationErrs) {
		return ctx.JSON(router.StatusBadRequest, map[string]any{
			"error": ErrorResponse{
				Message:  "validation failed",
				TextCode: "VALIDATION_ERROR",
				Fields:   FormatValidationErrorToMap(validationErrs),
			},
		})
	}

	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		logger.Error("unexpected error", "error", err)
		return ctx.JSON(router.StatusInternalServerError, map[string]any{
			"error": ErrorResponse{
				Message: "an unexpected server error occurred",
			},
		})
	}

	logger.Info(
		"request error",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	status := richErr.Code
	if status == 0 {
		status = statusFromCategory(richErr.Category)
	}

	return ctx.JSON(status, map[string]any{
		"error": ErrorResponse{
			Message:  richErr.Message,
			TextCode: richErr.TextCode,
			Metadata: richErr.Metadata,
		},
	})
}

func statusFromCategory(category errors.Category) int {
	switch category {
	case errors.CategoryAuth:
		return router.StatusUnauthorized
	case errors.CategoryAuthz:
		return router.StatusForbidden
	case errors.CategoryBadInput, errors.CategoryValidation:
		return router.StatusBadRequest
	case errors.CategoryNotFound:
		return router.StatusNotFound
	case errors.CategoryConflict:
		return router.StatusConflict
	default:
		return router.StatusInternalServerError
	}
}

// FormatValidationErrorToMap flattens ozzo validation errors into a field map.
func FormatValidationErrorToMap(err error) map[string]string {
	out := map[string]string{}

	var validationErrs validation.Errors
	if !errors.As(err, &validationErrs) {
		if err != nil {
			out["error"] = err.Error()
		}
		return out
	}

	for field, fieldErr := range validationErrs {
		if fieldErr != nil {
			out[field] = fieldErr.Error()
		}
	}

	return out
}
