package builder

import (
	"errors"
	"fmt"
)

// ErrSectionNotFound is returned by section-addressed store operations when
// no section carries the requested id. The store never falls back to an
// index: a stale id must not mutate an unrelated section.
var ErrSectionNotFound = errors.New("section not found")

// ErrNoDocument is returned by operations that require a loaded document
// when the store is empty or has been reset.
var ErrNoDocument = errors.New("no document loaded")

// ErrSessionSuperseded is returned by a save whose edit session was reset or
// replaced while the save was in flight. The result is discarded; nothing is
// written back into the store that owns a different session.
var ErrSessionSuperseded = errors.New("edit session superseded")

// ErrUnknownTemplate is returned for template ids with no registry entry.
var ErrUnknownTemplate = errors.New("unknown template")

// UploadError reports that a specific section's pending image could not be
// persisted during save. The save attempt is aborted as a whole; the
// in-memory document is untouched and the user may retry.
type UploadError struct {
	SectionID string
	Err       error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("uploading image for section %s: %v", e.SectionID, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// SubmitError reports that the final document upsert failed after all
// uploads succeeded. No partial state is persisted server-side because the
// upsert is a whole-document replace.
type SubmitError struct {
	Err error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("submitting document: %v", e.Err)
}

func (e *SubmitError) Unwrap() error { return e.Err }

// SectionValidationError reports that a section failed its template schema
// when the save pipeline gates submission on validity.
type SectionValidationError struct {
	SectionID string
	Errors    []ValidationError
}

func (e *SectionValidationError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("section %s failed validation", e.SectionID)
	}
	return fmt.Sprintf("section %s failed validation: %s: %s",
		e.SectionID, e.Errors[0].Field, e.Errors[0].Message)
}
