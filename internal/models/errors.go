package models

import "errors"

// Common validation errors for models.
var (
	// ErrNameRequired indicates a required name field is empty.
	ErrNameRequired = errors.New("name is required")

	// ErrInvalidMediaKind indicates an unknown clip media kind.
	ErrInvalidMediaKind = errors.New("invalid media kind: must be 'video' or 'photo'")

	// ErrInvalidOrientation indicates an unknown tape orientation.
	ErrInvalidOrientation = errors.New("invalid orientation: must be 'portrait' or 'landscape'")

	// ErrInvalidScaleMode indicates an unknown scale mode.
	ErrInvalidScaleMode = errors.New("invalid scale mode: must be 'fit' or 'fill'")

	// ErrInvalidTransitionStyle indicates an unknown transition style.
	ErrInvalidTransitionStyle = errors.New("invalid transition style")

	// ErrClipSourceRequired indicates a clip has neither a local path nor an asset URL.
	ErrClipSourceRequired = errors.New("clip requires a source path or asset URL")

	// ErrClipSourceAmbiguous indicates a clip has both a local path and an asset URL.
	ErrClipSourceAmbiguous = errors.New("clip must not set both source path and asset URL")

	// ErrTapeNotFound indicates a tape was not found.
	ErrTapeNotFound = errors.New("tape not found")

	// ErrClipNotFound indicates a clip was not found.
	ErrClipNotFound = errors.New("clip not found")

	// ErrTapeEmpty indicates an operation requires at least one clip.
	ErrTapeEmpty = errors.New("tape has no clips")
)
