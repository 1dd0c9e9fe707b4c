package export

import "errors"

var (
	// ErrInvalidTier indicates an unknown resolution tier.
	ErrInvalidTier = errors.New("invalid resolution tier")
	// ErrInvalidContainer indicates an unknown container format.
	ErrInvalidContainer = errors.New("invalid container format")
	// ErrOutputPathRequired indicates no output destination was given.
	ErrOutputPathRequired = errors.New("output path required")
	// ErrExportFailed indicates the render did not produce a complete file.
	// Export failures are never auto-recovered: a partially wrong merged
	// file is worse than no file.
	ErrExportFailed = errors.New("export failed")
)
