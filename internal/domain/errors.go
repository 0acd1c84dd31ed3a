package domain

import "errors"

// Sentinel errors shared across the pipeline. Wrap with fmt.Errorf("...: %w")
// and test with errors.Is at the boundary that cares.
var (
	// ErrNotFound means an integration or campaign does not exist (or the
	// platform tag does not match). 404-equivalent.
	ErrNotFound = errors.New("not found")

	// ErrAuth means the provider rejected a token refresh or exchange.
	// 401-equivalent; the integration likely needs to be reconnected.
	ErrAuth = errors.New("authentication rejected by provider")
)
