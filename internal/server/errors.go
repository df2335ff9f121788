package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	alertdomain "github.com/homewatt/homewatt/internal/alert/domain"
	authdomain "github.com/homewatt/homewatt/internal/auth/domain"
	"github.com/homewatt/homewatt/internal/authorization"
	goaldomain "github.com/homewatt/homewatt/internal/goal/domain"
	householddomain "github.com/homewatt/homewatt/internal/household/domain"
	meterdomain "github.com/homewatt/homewatt/internal/meter/domain"
	readingdomain "github.com/homewatt/homewatt/internal/reading/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrInternal           = errors.New("internal_error")
	ErrNotFound           = errors.New("not_found")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrRateLimited        = errors.New("rate_limited")
	ErrServiceUnavailable = errors.New("service_unavailable")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		code := validationErrorCode(err)
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authdomain.ErrInvalidCredentials),
		errors.Is(err, authdomain.ErrInvalidSession),
		errors.Is(err, authdomain.ErrSessionExpired),
		errors.Is(err, authdomain.ErrSessionRevoked),
		errors.Is(err, authdomain.ErrSessionNotFound):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case isForbiddenError(err):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, ErrConflict),
		errors.Is(err, authdomain.ErrUserExists),
		errors.Is(err, householddomain.ErrAlreadyMember),
		errors.Is(err, meterdomain.ErrDuplicateLabel):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "conflict",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable, errorPayload{
			Type:    "service_unavailable",
			Message: "service unavailable",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, authdomain.ErrInvalidRole):
		return true
	case isHouseholdValidationError(err),
		isMeterValidationError(err),
		isReadingValidationError(err),
		isGoalValidationError(err),
		isAlertValidationError(err):
		return true
	default:
		return false
	}
}

func isHouseholdValidationError(err error) bool {
	return errors.Is(err, householddomain.ErrInvalidName) ||
		errors.Is(err, householddomain.ErrInvalidID) ||
		errors.Is(err, householddomain.ErrInvalidUser)
}

func isMeterValidationError(err error) bool {
	return errors.Is(err, meterdomain.ErrInvalidHousehold) ||
		errors.Is(err, meterdomain.ErrInvalidLabel) ||
		errors.Is(err, meterdomain.ErrInvalidType) ||
		errors.Is(err, meterdomain.ErrInvalidID)
}

func isReadingValidationError(err error) bool {
	return errors.Is(err, readingdomain.ErrInvalidMeter) ||
		errors.Is(err, readingdomain.ErrInvalidValue) ||
		errors.Is(err, readingdomain.ErrInvalidRecordedAt) ||
		errors.Is(err, readingdomain.ErrInvalidID) ||
		errors.Is(err, readingdomain.ErrInvalidPageToken)
}

func isGoalValidationError(err error) bool {
	return errors.Is(err, goaldomain.ErrInvalidHousehold) ||
		errors.Is(err, goaldomain.ErrInvalidMeterType) ||
		errors.Is(err, goaldomain.ErrInvalidPeriod) ||
		errors.Is(err, goaldomain.ErrInvalidLimit) ||
		errors.Is(err, goaldomain.ErrNoMeterOfType) ||
		errors.Is(err, goaldomain.ErrInvalidID)
}

func isAlertValidationError(err error) bool {
	return errors.Is(err, alertdomain.ErrInvalidHousehold) ||
		errors.Is(err, alertdomain.ErrInvalidStatus) ||
		errors.Is(err, alertdomain.ErrInvalidID)
}

func isForbiddenError(err error) bool {
	return errors.Is(err, ErrForbidden) ||
		errors.Is(err, authorization.ErrForbidden) ||
		errors.Is(err, householddomain.ErrForbidden) ||
		errors.Is(err, meterdomain.ErrForbidden) ||
		errors.Is(err, readingdomain.ErrForbidden) ||
		errors.Is(err, goaldomain.ErrForbidden) ||
		errors.Is(err, alertdomain.ErrForbidden)
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, authdomain.ErrUserNotFound),
		errors.Is(err, householddomain.ErrNotFound),
		errors.Is(err, householddomain.ErrNotMember),
		errors.Is(err, meterdomain.ErrNotFound),
		errors.Is(err, readingdomain.ErrNotFound),
		errors.Is(err, readingdomain.ErrMeterNotFound),
		errors.Is(err, goaldomain.ErrNotFound),
		errors.Is(err, alertdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func validationErrorCode(err error) string {
	if errors.Is(err, ErrInvalidRequest) {
		return "invalid_request"
	}
	return err.Error()
}

func validationErrorField(code string) string {
	if code == "invalid_request" {
		return "request"
	}
	if strings.HasPrefix(code, "invalid_") {
		return strings.TrimPrefix(code, "invalid_")
	}
	return ""
}

func validationErrorMessage(code string) string {
	switch code {
	case "invalid_request":
		return "invalid request"
	default:
		return "invalid value"
	}
}

// classifyErrorForLog keeps request logs terse for expected failures.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	if vErr := asValidationErrors(err); vErr != nil {
		code := ""
		if len(vErr.Errors) > 0 {
			code = vErr.Errors[0].Code
		}
		return "validation_error", code
	}
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError {
		return "internal_error", payload.Type
	}
	return payload.Type, payload.Type
}
