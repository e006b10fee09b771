package response

import (
	"fmt"
	"time"

	"github.com/kuntalKnight/cpftw-problems-service/pkg/errors"
)

// isoMillis matches the ISO-8601 layout clients already parse (UTC, millisecond precision).
const isoMillis = "2006-01-02T15:04:05.000Z"

// Now is the clock used for envelope timestamps.
var Now = time.Now

// Envelope is the uniform JSON wrapper returned by every endpoint.
type Envelope struct {
	Success        bool            `json:"success"`
	Message        string          `json:"message"`
	Data           interface{}     `json:"data,omitempty"`
	Error          string          `json:"error,omitempty"`
	Errors         []string        `json:"errors,omitempty"`
	Pagination     *Pagination     `json:"pagination,omitempty"`
	SearchMetadata *SearchMetadata `json:"searchMetadata,omitempty"`
	Timestamp      string          `json:"timestamp"`
	StatusCode     int             `json:"statusCode"`
	TraceID        string          `json:"traceId,omitempty"`
	RequestedURL   string          `json:"requestedUrl,omitempty"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// SearchMetadata is attached to search results.
type SearchMetadata struct {
	Query        string `json:"query"`
	ResultsCount int    `json:"resultsCount"`
	TotalResults int64  `json:"totalResults"`
}

// TotalPages returns ceil(total/limit); a non-positive limit yields 0.
func TotalPages(total int64, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	pages := total / int64(limit)
	if total%int64(limit) != 0 {
		pages++
	}
	return int(pages)
}

func timestamp() string {
	return Now().UTC().Format(isoMillis)
}

// NewSuccess builds a success envelope. A zero status defaults to 200.
func NewSuccess(data interface{}, message string, statusCode int) Envelope {
	if message == "" {
		message = "Success"
	}
	if statusCode == 0 {
		statusCode = 200
	}
	return Envelope{
		Success:    true,
		Message:    message,
		Data:       data,
		Timestamp:  timestamp(),
		StatusCode: statusCode,
	}
}

// NewPaginated builds a 200 envelope with pagination metadata.
func NewPaginated(items interface{}, page, limit int, total int64, message string) Envelope {
	env := NewSuccess(items, message, 200)
	env.Pagination = &Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: TotalPages(total, limit),
	}
	return env
}

// NewFailure builds an error envelope with a machine-readable error name.
func NewFailure(statusCode int, errName, message string) Envelope {
	return Envelope{
		Success:    false,
		Message:    message,
		Error:      errName,
		Timestamp:  timestamp(),
		StatusCode: statusCode,
	}
}

// NewInternalError builds the generic 500 envelope.
func NewInternalError(message string) Envelope {
	if message == "" {
		message = "Error occurred"
	}
	return NewFailure(500, errors.InternalServerError.Name(), message)
}

// NewValidationError builds the 400 envelope listing every violation.
func NewValidationError(errs []string, message string) Envelope {
	if message == "" {
		message = "Validation failed"
	}
	env := NewFailure(400, errors.ValidationFailed.Name(), message)
	env.Errors = append([]string(nil), errs...)
	if env.Errors == nil {
		env.Errors = []string{}
	}
	return env
}

// NewNotFound builds the 404 envelope for a missing resource.
func NewNotFound(resource string) Envelope {
	if resource == "" {
		resource = "Resource"
	}
	return NewFailure(404, errors.NotFound.Name(), fmt.Sprintf("%s not found", resource))
}

// NewUnauthorized builds the 401 envelope.
func NewUnauthorized(message string) Envelope {
	if message == "" {
		message = errors.Unauthorized.Message()
	}
	return NewFailure(401, errors.Unauthorized.Name(), message)
}

// NewForbidden builds the 403 envelope.
func NewForbidden(message string) Envelope {
	if message == "" {
		message = errors.Forbidden.Message()
	}
	return NewFailure(403, errors.Forbidden.Name(), message)
}

// NewConflict builds the 409 envelope.
func NewConflict(message string) Envelope {
	if message == "" {
		message = errors.Conflict.Message()
	}
	return NewFailure(409, errors.Conflict.Name(), message)
}

// FromError maps a coded error onto its envelope. 5xx envelopes carry only the
// code's default message so driver errors never reach clients.
func FromError(err error) Envelope {
	code := errors.GetCode(err)
	status := code.HTTPStatus()
	switch {
	case status == 400:
		return NewValidationError(errors.Messages(err), err.Error())
	case status >= 500:
		return NewFailure(status, code.Name(), code.Message())
	}
	return NewFailure(status, code.Name(), err.Error())
}
