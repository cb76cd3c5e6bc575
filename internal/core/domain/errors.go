package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidCoordinate   = errors.New("invalid coordinate")
	ErrDegenerateSurface   = errors.New("drawing surface has zero width or height")
	ErrFrameUnavailable    = errors.New("reference frame unavailable: map bounds not measured yet")
	ErrSessionNotFound     = errors.New("session not found")
	ErrArtifactNotFound    = errors.New("artifact not found")
	ErrArtifactRevoked     = errors.New("artifact handle revoked")
	ErrInvalidTrack        = errors.New("invalid track payload")
	ErrLocationUnavailable = errors.New("location unavailable")
	ErrCandidateNotFound   = errors.New("search candidate not found")
	ErrTooManySessions     = errors.New("session limit reached")
	ErrSessionClosed       = errors.New("session closed")
)

// Geolocation error codes, mirroring the browser Geolocation API.
const (
	LocatePermissionDenied    = 1
	LocatePositionUnavailable = 2
	LocateTimeout             = 3
)

// LocateError is a geolocation failure with a code and message.
type LocateError struct {
	Code    int
	Message string
}

func (e *LocateError) Error() string {
	return fmt.Sprintf("geolocation error %d: %s", e.Code, e.Message)
}

// Unwrap lets callers match any LocateError with ErrLocationUnavailable.
func (e *LocateError) Unwrap() error { return ErrLocationUnavailable }
