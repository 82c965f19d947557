package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/servicehub/service-booking/pkg/domain"
)

// Envelope is the JSON body returned by every endpoint.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorBody  `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// ErrorBody describes a failed request.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Meta carries pagination metadata.
type Meta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// Success writes a 200 response.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Created writes a 201 response.
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

// Paginated writes a 200 response with pagination metadata.
func Paginated(c *gin.Context, data interface{}, total int64, page, limit int) {
	totalPages := 0
	if limit > 0 {
		totalPages = int((total + int64(limit) - 1) / int64(limit))
	}
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    data,
		Meta:    &Meta{Total: total, Page: page, Limit: limit, TotalPages: totalPages},
	})
}

// BadRequest writes a 400 response.
func BadRequest(c *gin.Context, message string) {
	abort(c, http.StatusBadRequest, "bad_request", message, nil)
}

// Unauthorized writes a 401 response.
func Unauthorized(c *gin.Context, message string) {
	abort(c, http.StatusUnauthorized, "unauthorized", message, nil)
}

// Forbidden writes a 403 response.
func Forbidden(c *gin.Context, message string) {
	abort(c, http.StatusForbidden, "forbidden", message, nil)
}

// TooManyRequests writes a 429 response.
func TooManyRequests(c *gin.Context, message string) {
	abort(c, http.StatusTooManyRequests, "rate_limited", message, nil)
}

// Error maps a domain error to its HTTP status and writes it.
func Error(c *gin.Context, err error) {
	var (
		notFound   *domain.NotFoundError
		forbidden  *domain.ForbiddenError
		validation *domain.ValidationError
		transition *domain.InvalidTransitionError
		conflict   *domain.ConflictError
	)

	switch {
	case errors.As(err, &notFound):
		abort(c, http.StatusNotFound, "not_found", notFound.Error(), nil)
	case errors.As(err, &forbidden):
		abort(c, http.StatusForbidden, "forbidden", forbidden.Error(), nil)
	case errors.As(err, &validation):
		abort(c, http.StatusBadRequest, "validation_error", validation.Error(), nil)
	case errors.As(err, &transition):
		abort(c, http.StatusConflict, "invalid_transition", transition.Reason, gin.H{
			"from": transition.From,
			"to":   transition.To,
		})
	case errors.As(err, &conflict):
		abort(c, http.StatusConflict, "conflict", conflict.Error(), nil)
	default:
		_ = c.Error(err)
		abort(c, http.StatusInternalServerError, "internal_error", "internal server error", nil)
	}
}

func abort(c *gin.Context, status int, code, message string, details interface{}) {
	c.AbortWithStatusJSON(status, Envelope{
		Success: false,
		Error:   &ErrorBody{Code: code, Message: message, Details: details},
	})
}
