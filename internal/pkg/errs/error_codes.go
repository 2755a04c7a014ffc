/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific business or system errors
both internally within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrInvalidJSONFormat indicates that a request or wire frame contained malformed JSON.
	ErrInvalidJSONFormat = 1002

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1003
)

// 2xxx: Hub and Dispatch Errors
const (
	// ErrUnknownMethod indicates that an invocation named a method with no registered handler.
	ErrUnknownMethod = 2101

	// ErrUnknownConnection indicates that an operation referenced a connection id that is no longer live.
	ErrUnknownConnection = 2102

	// ErrGroupNameInvalid indicates that a group operation was given an empty group name.
	ErrGroupNameInvalid = 2103

	// ErrRegistryFull indicates that the connection registry has reached its configured capacity.
	ErrRegistryFull = 2104
)

// 3xxx: Identity and Token Errors
const (
	// ErrTokenRequired indicates that the connection attempt did not carry an access token.
	ErrTokenRequired = 3001

	// ErrTokenInvalid indicates that the provided access token failed validation or expired.
	ErrTokenInvalid = 3002
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
