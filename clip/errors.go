package clip

import "errors"

var (
	// ErrUnknownFormat is returned for file extensions no decoder handles.
	ErrUnknownFormat = errors.New("clip: unknown format")
	// ErrUnsupported is returned for valid files with an encoding the
	// decoders do not handle.
	ErrUnsupported = errors.New("clip: unsupported encoding")
	// ErrEmpty is returned for files without audio frames.
	ErrEmpty = errors.New("clip: no audio data")
)
