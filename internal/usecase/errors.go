package usecase

import crerr "github.com/cockroachdb/errors"

var (
	ErrInvalidInput          = crerr.New("invalid input")
	ErrNotFound              = crerr.New("resource not found")
	ErrDependencyUnavailable = crerr.New("dependency unavailable")
	ErrLegacyFormat          = crerr.New("unrecognized artifact format")

	// ErrNavigation marks a page that could not be reached or whose selector never appeared.
	ErrNavigation = crerr.New("page navigation failed")

	// ErrExtraction marks a page whose DOM matched no known layout.
	ErrExtraction = crerr.New("page extraction failed")

	// ErrPersistence marks a failed artifact write. It propagates out of a run.
	ErrPersistence = crerr.New("artifact persistence failed")
)
