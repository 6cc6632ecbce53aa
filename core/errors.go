package core

import "errors"

// Authentication Related Errors
var (
	// User errors
	ErrDuplicateEmail     = errors.New("email is already registered")          // 409 Conflict
	ErrUserNotFound       = errors.New("user not found")                       // 404 Not Found
	ErrInvalidCredentials = errors.New("invalid email or password")            // 401 Unauthorized
	ErrAccountDeactivated = errors.New("account has been deactivated")         // 403 Forbidden
	ErrNoValidFields      = errors.New("no valid fields to update")            // 400 Bad Request
	ErrForbidden          = errors.New("insufficient role for this operation") // 403 Forbidden
)

// Session errors
var (
	ErrMissingAuthHeader     = errors.New("missing authorization header") // 401
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")     // 401
	ErrSessionNotFound       = errors.New("session not found")
	ErrCacheNotFound         = errors.New("session not found in cache")
)

// Validation errors (client input)
var (
	ErrInvalidRequestBody  = errors.New("invalid request body")                  // 400
	ErrNameRequired        = errors.New("name is required")                      // 400
	ErrEmailRequired       = errors.New("email is required")                     // 400
	ErrPasswordRequired    = errors.New("password is required")                  // 400
	ErrPasswordTooLong     = errors.New("password is too long")                  // 400
	ErrInvalidEmail        = errors.New("invalid email format")                  // 400
	ErrInvalidRole         = errors.New("invalid role")                          // 400
	ErrInvalidProfileField = errors.New("invalid profile field")                 // 400
	ErrRoleNotSelfAssigned = errors.New("role cannot be chosen at registration") // 400
)

// Config errors (server-side configuration)
var (
	ErrDBAdapterRequired = errors.New("database adapter is required") // 500
	ErrSecretRequired    = errors.New("secret is required")           // 500
	ErrSecretTooShort    = errors.New("secret too short")             // 500
)
