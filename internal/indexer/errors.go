package indexer

import "errors"

// Failure modes a source can report. Callers distinguish them with
// errors.Is: authentication and configuration problems are fatal and
// require a human fix, connection problems are transient.
var (
	ErrNotConfigured  = errors.New("source is not configured")
	ErrAuthentication = errors.New("source rejected credentials")
	ErrConnection     = errors.New("could not reach source")
	ErrRateLimited    = errors.New("source rate limit exceeded")
)

// Fatal reports whether a search error cannot be healed by retrying.
func Fatal(err error) bool {
	return errors.Is(err, ErrNotConfigured) || errors.Is(err, ErrAuthentication)
}
