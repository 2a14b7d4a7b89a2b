package errors

import "errors"

// This package defines a centralized set of sentinel errors for the application.
// Services return these (usually wrapped with %w) and the API layer maps them to
// HTTP responses with `errors.Is()`.

var (
	// ErrNotFound signifies that a requested resource could not be located, or
	// that it exists but belongs to another user. Mapped to 404.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation signifies that input data provided by a client failed
	// business rule validation. Mapped to 400.
	ErrValidation = errors.New("validation failed")

	// ErrConflict signifies that an operation conflicts with the current state
	// of a resource (e.g. reusing a message id). Mapped to 409.
	ErrConflict = errors.New("resource conflict")

	// ErrPermission signifies that the authenticated user is not authorized
	// to perform the requested action. Mapped to 403.
	ErrPermission = errors.New("permission denied")

	// ErrUnauthorized signifies a missing, expired or revoked session. Mapped to 401.
	ErrUnauthorized = errors.New("authentication required")

	// ErrInvalidCredentials is returned by sign-in when the email/password pair
	// does not match. Mapped to 401.
	ErrInvalidCredentials = errors.New("invalid login credentials")

	// ErrAlreadyRegistered is returned by sign-up for an email that already has
	// an account. Mapped to 409.
	ErrAlreadyRegistered = errors.New("user already registered")

	// ErrRateLimited is returned when auth attempts for an email exceed the
	// configured rate. Mapped to 429.
	ErrRateLimited = errors.New("too many requests")

	// ErrSaveFailed signifies that a write to the data store failed and nothing
	// was persisted. Mapped to 500 with a descriptive message.
	ErrSaveFailed = errors.New("save failed")

	// ErrCompletion signifies that the generative AI endpoint failed to produce
	// a reply. Data written before the call is kept. Mapped to 502.
	ErrCompletion = errors.New("ai completion failed")

	// ErrUnavailable signifies that an optional backing service (e.g. avatar
	// storage) is not configured. Mapped to 503.
	ErrUnavailable = errors.New("service unavailable")

	// ErrInternal signifies an unexpected error on the server. Mapped to 500.
	ErrInternal = errors.New("internal server error")
)
