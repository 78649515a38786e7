/*
Package errs provides custom error types and application-level error code constants.

These error codes identify specific business or system errors both internally
within the server and in communication with clients.
*/
package errs

// 1xxx: General Request Handling and Validation Errors
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrUnsupportedMediaType indicates that the request header Content-Type is not supported.
	ErrUnsupportedMediaType = 1002

	// ErrInvalidJSONFormat indicates that the request body JSON format is incorrect.
	ErrInvalidJSONFormat = 1003

	// ErrExtraContentInBody indicates that the request body contained extra content after valid JSON data.
	ErrExtraContentInBody = 1004

	// ErrFormParseFailed indicates failure to parse URL-encoded form data.
	ErrFormParseFailed = 1005

	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007

	// ErrRoomNameRequired indicates that room creation was attempted without the required name field.
	ErrRoomNameRequired = 1101
)

// 2xxx: Room and Conversation Business Logic Errors
const (
	// ErrRoomNotFound indicates that the requested room does not exist.
	ErrRoomNotFound = 2101

	// ErrConversationNotFound indicates that no conversation block qualifies for the requested page.
	ErrConversationNotFound = 2102
)

// 3xxx: Session and Security Errors
const (
	// ErrAuthenticationRequired indicates a missing, invalid, or expired session token.
	ErrAuthenticationRequired = 3001

	// ErrConnectionRefused indicates that the relay rejected an unauthenticated connection.
	// Login failures carry no code of their own: the form flow answers every
	// failure with the same redirect.
	ErrConnectionRefused = 3003
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrPersistenceFailure indicates that a write to the document store failed.
	ErrPersistenceFailure = 5001
)
