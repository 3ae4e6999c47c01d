package api

import (
	"errors"
	"fmt"
)

// Sentinel errors for the import pipeline. Row-level failures are absorbed
// by parsers as skip counts and never surface as errors; these cover
// document-level and format-resolution failures.
var (
	// ErrDocumentOpen means a document could not be opened at all (missing
	// file, wrong password, corrupt data). It aborts that document only.
	ErrDocumentOpen = errors.New("cannot open document")

	// ErrUnsupportedFormat means no registered format matches the requested
	// bank name or the document's file extension.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrAmbiguousFormat means more than one registered format is plausible
	// for the document; the caller must name the bank explicitly rather
	// than have finsight guess and mis-parse.
	ErrAmbiguousFormat = errors.New("ambiguous format")
)

// DocumentError is a document-level failure carrying the originating path,
// so callers processing multiple documents can report which one failed.
type DocumentError struct {
	Path string
	Err  error
}

func (e *DocumentError) Error() string {
	return fmt.Sprintf("document %s: %v", e.Path, e.Err)
}

func (e *DocumentError) Unwrap() error { return e.Err }

// OpenFailure wraps err as a *DocumentError chained to ErrDocumentOpen.
func OpenFailure(path string, err error) error {
	return &DocumentError{Path: path, Err: fmt.Errorf("%w: %v", ErrDocumentOpen, err)}
}
