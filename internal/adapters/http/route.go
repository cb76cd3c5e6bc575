package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/sketchroute/internal/core/domain"
	"github.com/samirrijal/sketchroute/internal/core/usecases"
)

// TransformHandler previews a drawing as geographic points without calling
// the snapping service.
func TransformHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		e, err := engineFor(c, deps)
		if err != nil {
			return errFromDomain(c, err)
		}
		var req drawingRequest
		if err := bind(c, deps, &req); err != nil {
			return errBadRequest(c, err.Error())
		}

		path, frame, err := e.Preview(req.elements(), req.Surface.toDomain())
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(transformResponse{
			Frame:    frame,
			Corners:  frame.Corners(),
			Points:   path,
			Segments: path.Segments(),
		})
	}
}

// SubmitRouteHandler runs the route pipeline and returns the new artifact.
// Upstream failures answer 502 and leave the previous route in place. An
// empty drawing answers 200 with no points and the route unchanged.
func SubmitRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		e, err := engineFor(c, deps)
		if err != nil {
			return errFromDomain(c, err)
		}
		var req submitRequest
		if err := bind(c, deps, &req); err != nil {
			return errBadRequest(c, err.Error())
		}
		// Nothing to snap: the current route stays as it is.
		if len(req.Elements) == 0 {
			return c.JSON(fiber.Map{
				"route":  e.Route(),
				"points": domain.GeoPath{},
				"status": e.Status(),
			})
		}

		snap := true
		if req.Snap != nil {
			snap = *req.Snap
		}

		artifact, err := e.Submit(c.UserContext(), usecases.SubmitRequest{
			Elements:  req.elements(),
			Surface:   req.Surface.toDomain(),
			Snap:      snap,
			MaxPoints: req.MaxPoints,
		})
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"route":  artifact,
			"status": e.Status(),
		})
	}
}

// GetRouteHandler returns the current artifact and pipeline state.
func GetRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		e, err := engineFor(c, deps)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{
			"route":  e.Route(),
			"status": e.Status(),
		})
	}
}

// RouteSegmentsHandler returns the current route's segments as a GeoJSON
// FeatureCollection of two-point line strings.
func RouteSegmentsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		e, err := engineFor(c, deps)
		if err != nil {
			return errFromDomain(c, err)
		}
		var path domain.GeoPath
		if r := e.Route(); r != nil {
			path = r.Points
		}

		data, err := segmentsFeatureCollection(path).MarshalJSON()
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return c.Send(data)
	}
}

// DownloadRouteHandler serves the track file behind a live handle.
func DownloadRouteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		e, err := engineFor(c, deps)
		if err != nil {
			return errFromDomain(c, err)
		}
		stored, err := e.OpenArtifact(c.UserContext(), c.Params("handle"))
		if err != nil {
			return errFromDomain(c, err)
		}

		c.Set(fiber.HeaderContentType, stored.ContentType)
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, stored.Filename))
		c.Set(fiber.HeaderCacheControl, "private, no-store")
		return c.Send(stored.Data)
	}
}
