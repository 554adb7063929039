package arris

import (
	"errors"
	"fmt"
)

// Contract violations. These abort the offending call.
var (
	ErrIndexOutOfRange  = errors.New("file index out of range")
	ErrUnknownField     = errors.New("unknown field")
	ErrInvalidValue     = errors.New("invalid value for field")
	ErrInvalidAngle     = errors.New("rotation only by multiples of 90 degrees is supported")
	ErrInvalidTimestamp = errors.New("invalid timestamp")
	ErrNoDirectory      = errors.New("no directory loaded")
)

// External tool failures, used as the Kind of a ToolError.
var (
	ErrXMPRead   = errors.New("reading XMP metadata")
	ErrXMPWrite  = errors.New("writing XMP metadata")
	ErrEXIFRead  = errors.New("reading EXIF metadata")
	ErrEXIFWrite = errors.New("writing EXIF metadata")
	ErrTransform = errors.New("transforming image")
)

// ToolError reports a failure of an external metadata or image tool for a
// single file. errors.Is matches it against its Kind.
type ToolError struct {
	Kind    error
	File    string
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("while %s of file '%s', the following error occurred: '%s'", e.Kind, e.File, e.Message)
}

func (e *ToolError) Unwrap() error {
	return e.Kind
}
