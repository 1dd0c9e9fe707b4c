package synth

import "errors"

var (
	// ErrUnsupportedImage indicates the photo format could not be decoded.
	ErrUnsupportedImage = errors.New("unsupported image format")
	// ErrSynthesisFailed indicates the encode step did not produce a clip.
	ErrSynthesisFailed = errors.New("photo synthesis failed")
)
