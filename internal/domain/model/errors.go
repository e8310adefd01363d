package model

import "fmt"

// ValidationError is bad caller input. It stops at the HTTP boundary as a 422
// and never reaches the storage layer.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// UpstreamError is a non-2xx answer from the market data source. It fails the
// whole sync run; API clients keep reading last-known-good data.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream returned status %d", e.Status)
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.Status, e.Body)
}
