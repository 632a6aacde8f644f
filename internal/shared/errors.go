package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrTokenExpired     = fmt.Errorf("access token expired")
	ErrSessionInvalid   = fmt.Errorf("session invalid")

	// API and service errors
	ErrAPIRequest       = fmt.Errorf("API request failed")
	ErrBadResponse      = fmt.Errorf("malformed API response")
	ErrRateLimited      = fmt.Errorf("rate limited")
	ErrNotFound         = fmt.Errorf("not found")
	ErrNoActiveDevice   = fmt.Errorf("no active device")
	ErrNoActivePlayback = fmt.Errorf("no active playback")

	// Input validation errors
	ErrInvalidRequest  = fmt.Errorf("invalid request")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
