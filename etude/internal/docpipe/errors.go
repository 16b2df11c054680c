package docpipe

import "errors"

// ErrUnsupportedFormat is returned when the input bytes are neither PDF,
// HTML, nor valid UTF-8 text.
var ErrUnsupportedFormat = errors.New("docpipe: unsupported format")

// ErrInsufficientContent is returned when extraction succeeds mechanically
// but yields too little text to analyze.
var ErrInsufficientContent = errors.New("docpipe: insufficient content")
