package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a per-file failure. Kinds are comparable with
// errors.Is through any wrapping.
type ErrorKind string

func (k ErrorKind) Error() string { return string(k) }

const (
	ErrDecodeFailure        ErrorKind = "DecodeFailure"
	ErrUnsupportedFormat    ErrorKind = "UnsupportedFormat"
	ErrEncodeFailure        ErrorKind = "EncodeFailure"
	ErrMetadataWriteFailure ErrorKind = "MetadataWriteFailure"
	ErrOutputWriteFailure   ErrorKind = "OutputWriteFailure"
	ErrTimeout              ErrorKind = "Timeout"
)

// FileError is the typed result of a failed file. It never aborts a batch.
type FileError struct {
	Kind ErrorKind
	Path string
	Err  error
}

func (e *FileError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Path)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
}

// Unwrap exposes both the kind and the underlying cause.
func (e *FileError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// KindOf extracts the failure kind from err. Errors carrying no kind are
// reported as fallback.
func KindOf(err error, fallback ErrorKind) ErrorKind {
	var fe *FileError
	if errors.As(err, &fe) {
		return fe.Kind
	}

	var kind ErrorKind
	if errors.As(err, &kind) {
		return kind
	}

	return fallback
}

// Fail wraps err into a FileError of the given kind, keeping an already
// classified kind when err carries one.
func Fail(kind ErrorKind, path string, err error) *FileError {
	return &FileError{Kind: KindOf(err, kind), Path: path, Err: err}
}
