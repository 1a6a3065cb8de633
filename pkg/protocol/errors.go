package protocol

// Error codes returned in response frames.
const (
	ErrInvalidRequest = "INVALID_REQUEST"
	ErrUnavailable    = "UNAVAILABLE"
	ErrNotPaired      = "NOT_PAIRED"
	ErrUnauthorized   = "UNAUTHORIZED"
	ErrNotFound       = "NOT_FOUND"
	ErrRateLimited    = "RESOURCE_EXHAUSTED"
	ErrInternal       = "INTERNAL"
)
