/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the user message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidParams:     {Code: ErrInvalidParams, Message: "Invalid request parameters."},
	ErrInvalidJSONFormat: {Code: ErrInvalidJSONFormat, Message: "Unsupported request format."},
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Hub and Dispatch Errors
	ErrUnknownMethod:     {Code: ErrUnknownMethod, Message: "Unknown method: %s."},
	ErrUnknownConnection: {Code: ErrUnknownConnection, Message: "Connection is no longer live."},
	ErrGroupNameInvalid:  {Code: ErrGroupNameInvalid, Message: "Group name must not be empty."},
	ErrRegistryFull:      {Code: ErrRegistryFull, Message: "Server is at connection capacity. Please try again later.", Status: http.StatusServiceUnavailable},

	// 3xxx: Identity and Token Errors
	ErrTokenRequired: {Code: ErrTokenRequired, Message: "An access token is required. Call /negotiate first.", Status: http.StatusUnauthorized},
	ErrTokenInvalid:  {Code: ErrTokenInvalid, Message: "Access token is invalid or expired.", Status: http.StatusUnauthorized},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
