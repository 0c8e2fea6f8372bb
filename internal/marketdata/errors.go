package marketdata

import (
	"errors"
	"fmt"
)

// ErrNoData marks a symbol for which the provider has no price history.
// The quote endpoint surfaces it as 404; batch callers skip the symbol.
var ErrNoData = errors.New("no price data")

// UpstreamError wraps a provider network, status or decode failure.
// Single-entity endpoints surface it as a gateway error with the message;
// batch endpoints degrade to partial or empty results instead.
type UpstreamError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("upstream %s: status %d: %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("upstream %s: %v", e.Endpoint, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
