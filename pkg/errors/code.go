package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 11000-11999: Auth errors
// 12000-12999: Problem module errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	Unauthorized        ErrorCode = 10004
	Forbidden           ErrorCode = 10005
	TooManyRequests     ErrorCode = 10006
	ServiceUnavailable  ErrorCode = 10007
	Timeout             ErrorCode = 10008
	Conflict            ErrorCode = 10009
	PayloadTooLarge     ErrorCode = 10010

	// Database errors (10100-10199)
	DatabaseError       ErrorCode = 10100
	RecordNotFound      ErrorCode = 10101
	RecordAlreadyExists ErrorCode = 10102

	// Cache errors (10200-10299)
	CacheError ErrorCode = 10200

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	InvalidFormat      ErrorCode = 10301
	InvalidValue       ErrorCode = 10302
	RequiredFieldEmpty ErrorCode = 10303

	// ========== Auth Errors (11000-11999) ==========

	TokenExpired ErrorCode = 11003
	TokenInvalid ErrorCode = 11004

	// ========== Problem Module Errors (12000-12999) ==========

	// Problem basic (12000-12099)
	ProblemNotFound      ErrorCode = 12000
	ProblemAccessDenied  ErrorCode = 12001
	ProblemCreateFailed  ErrorCode = 12002
	ProblemUpdateFailed  ErrorCode = 12003
	ProblemDeleteFailed  ErrorCode = 12004
	ProblemAlreadyExists ErrorCode = 12006
	ProblemQueryFailed   ErrorCode = 12007

	// Test cases (12100-12199)
	TestCaseInvalid ErrorCode = 12102
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	Unauthorized:        "Unauthorized access",
	Forbidden:           "Access forbidden",
	TooManyRequests:     "Too many requests from this IP, please try again later.",
	ServiceUnavailable:  "Service temporarily unavailable",
	Timeout:             "Request timeout",
	Conflict:            "Resource conflict",
	PayloadTooLarge:     "Request entity too large",

	// Database
	DatabaseError:       "Database operation failed",
	RecordNotFound:      "Record not found in database",
	RecordAlreadyExists: "Record already exists",

	// Cache
	CacheError: "Cache operation failed",

	// Validation
	ValidationFailed:   "Validation failed",
	InvalidFormat:      "Invalid format",
	InvalidValue:       "Invalid value",
	RequiredFieldEmpty: "Required field is empty",

	// Auth
	TokenExpired: "Token has expired",
	TokenInvalid: "Invalid token",

	// Problem
	ProblemNotFound:      "Problem not found",
	ProblemAccessDenied:  "Access to this problem is denied",
	ProblemCreateFailed:  "Failed to create problem",
	ProblemUpdateFailed:  "Failed to update problem",
	ProblemDeleteFailed:  "Failed to delete problem",
	ProblemAlreadyExists: "Problem with this title already exists",
	ProblemQueryFailed:   "Failed to retrieve problems",

	// Test cases
	TestCaseInvalid: "Invalid test case format",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == Unauthorized, c == TokenExpired, c == TokenInvalid:
		return 401
	case c == Forbidden, c == ProblemAccessDenied:
		return 403
	case c == NotFound, c == RecordNotFound, c == ProblemNotFound:
		return 404
	case c == Conflict, c == RecordAlreadyExists, c == ProblemAlreadyExists:
		return 409
	case c == PayloadTooLarge:
		return 413
	case c == TooManyRequests:
		return 429
	case c == ServiceUnavailable:
		return 503
	case c >= 10300 && c < 10400: // Validation errors
		return 400
	case c == InvalidParams, c == TestCaseInvalid:
		return 400
	default:
		return 500
	}
}

// Name returns the machine-readable error name written to the "error" field
// of response envelopes.
func (c ErrorCode) Name() string {
	switch c.HTTPStatus() {
	case 200:
		return "SUCCESS"
	case 400:
		return "VALIDATION_ERROR"
	case 401:
		if c == TokenExpired || c == TokenInvalid {
			return "INVALID_TOKEN"
		}
		return "UNAUTHORIZED"
	case 403:
		return "FORBIDDEN"
	case 404:
		return "NOT_FOUND"
	case 409:
		return "CONFLICT"
	case 413:
		return "PAYLOAD_TOO_LARGE"
	case 429:
		return "RATE_LIMIT_EXCEEDED"
	case 503:
		return "SERVICE_UNAVAILABLE"
	default:
		return "INTERNAL_ERROR"
	}
}
