package exchange

import "errors"

// Client-input errors. The HTTP layer maps these to 400 responses;
// anything else is an upstream provider failure.
var (
	// ErrMissingInput means the request carried neither audio nor text.
	ErrMissingInput = errors.New(`provide at least one of: text field or audio file (multipart field name "audio")`)

	// ErrEmptyTranscript means no usable text remained after
	// transcription.
	ErrEmptyTranscript = errors.New("no user text after transcription")
)
