package resolve

import "errors"

var (
	// ErrAssetUnavailable indicates the clip's source media is missing or
	// unreadable.
	ErrAssetUnavailable = errors.New("asset unavailable")
	// ErrResolutionTimeout indicates resolution exceeded its deadline.
	ErrResolutionTimeout = errors.New("resolution timed out")
	// ErrIndexOutOfRange indicates a segment index outside the timeline.
	ErrIndexOutOfRange = errors.New("segment index out of range")
	// ErrCacheClosed indicates the cache was closed while resolving.
	ErrCacheClosed = errors.New("resolution cache closed")
)
