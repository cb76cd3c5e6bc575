package geolocation

import (
	"context"

	"github.com/samirrijal/sketchroute/internal/core/domain"
)

// Reported replays the result the browser Geolocation API produced on the
// client: either a position or an error code with its message.
type Reported struct {
	point domain.GeoPoint
	err   *domain.LocateError
}

// FromPosition wraps a client-reported position.
func FromPosition(p domain.GeoPoint) *Reported {
	return &Reported{point: p}
}

// FromError wraps a client-reported failure. Unknown codes are treated as
// position unavailable.
func FromError(code int, message string) *Reported {
	switch code {
	case domain.LocatePermissionDenied, domain.LocatePositionUnavailable, domain.LocateTimeout:
	default:
		code = domain.LocatePositionUnavailable
	}
	return &Reported{err: &domain.LocateError{Code: code, Message: message}}
}

// Locate implements ports.Locator.
func (r *Reported) Locate(ctx context.Context, _ domain.LocateOptions) (domain.GeoPoint, error) {
	if err := ctx.Err(); err != nil {
		return domain.GeoPoint{}, &domain.LocateError{Code: domain.LocateTimeout, Message: err.Error()}
	}
	if r.err != nil {
		return domain.GeoPoint{}, r.err
	}
	if !r.point.Valid() {
		return domain.GeoPoint{}, &domain.LocateError{Code: domain.LocatePositionUnavailable, Message: "reported position out of range"}
	}
	return r.point, nil
}
