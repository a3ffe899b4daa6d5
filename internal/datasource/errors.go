// Package datasource provides clients for the upstream REST providers.
package datasource

import "errors"

// Provider names used in errors, logs and metric labels
const (
	ProviderStatsAPI = "statsapi"
	ProviderOddsAPI  = "oddsapi"
	ProviderWeather  = "weather"
)

// ProviderError represents errors from upstream provider operations
type ProviderError struct {
	Provider string // Provider name (statsapi, oddsapi, weather)
	Code     string // Error code (e.g., "upstream_unavailable")
	Message  string // Error message
	Err      error  // Underlying error
}

func (e ProviderError) Error() string {
	if e.Err != nil {
		return e.Provider + ": " + e.Code + ": " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Provider + ": " + e.Code + ": " + e.Message
}

func (e ProviderError) Unwrap() error {
	return e.Err
}

// Error codes forming the provider error taxonomy. Upstream-unavailable
// covers network failures and 5xx after retries; malformed-response covers
// undecodable payloads; missing-required-field covers payloads that decoded
// but lack a field the caller cannot tolerate as null.
const (
	ErrCodeUpstreamUnavailable  = "upstream_unavailable"
	ErrCodeMalformedResponse    = "malformed_response"
	ErrCodeMissingRequiredField = "missing_required_field"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeNotFound             = "not_found"
)

// Sentinel errors for matching with errors.Is
var (
	ErrUpstreamUnavailable  = errors.New("upstream unavailable")
	ErrMalformedResponse    = errors.New("malformed response")
	ErrMissingRequiredField = errors.New("missing required field")
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRateLimitExceeded    = errors.New("rate limit exceeded")
	ErrNotFound             = errors.New("data not found")
)

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, err error) ProviderError {
	return ProviderError{
		Provider: provider,
		Code:     code,
		Message:  message,
		Err:      err,
	}
}
