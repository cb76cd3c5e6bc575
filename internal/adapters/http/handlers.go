package http

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/sketchroute/internal/adapters/geolocation"
	"github.com/samirrijal/sketchroute/internal/core/ports"
	"github.com/samirrijal/sketchroute/internal/core/usecases"
	"github.com/samirrijal/sketchroute/internal/pkg/validation"
)

// bind parses the JSON body into dst and validates it. An empty body leaves
// dst at its zero value.
func bind(c *fiber.Ctx, deps *Dependencies, dst any) error {
	if len(c.Body()) > 0 {
		if err := c.BodyParser(dst); err != nil {
			return errors.New("invalid request body")
		}
	}
	v := deps.Validator
	if v == nil {
		v = defaultValidator
	}
	return v.Struct(dst)
}

var defaultValidator = validation.New()

// engineFor resolves the :id path parameter to a live session.
func engineFor(c *fiber.Ctx, deps *Dependencies) (*usecases.Engine, error) {
	return deps.Sessions.Get(c.Params("id"))
}

// CreateSessionHandler opens a session and seeds its viewport.
func CreateSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createSessionRequest
		if err := bind(c, deps, &req); err != nil {
			return errBadRequest(c, err.Error())
		}

		var locator ports.Locator
		switch {
		case req.Position != nil:
			locator = geolocation.FromPosition(req.Position.toDomain())
		case req.LocateError != nil:
			locator = geolocation.FromError(req.LocateError.Code, req.LocateError.Message)
		case deps.IPLocator != nil:
			locator = deps.IPLocator.ForIP(c.IP())
		}

		e, err := deps.Sessions.Create(c.UserContext(), usecases.CreateSessionRequest{
			Locator: locator,
			Surface: req.Surface.toDomain(),
			Zoom:    req.Zoom,
		})
		if err != nil {
			return errFromDomain(c, err)
		}

		c.Location("/v1/sessions/" + e.ID())
		return c.Status(fiber.StatusCreated).JSON(e.Snapshot())
	}
}

// GetSessionHandler returns the session snapshot.
func GetSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		e, err := engineFor(c, deps)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(e.Snapshot())
	}
}

// ListSessionsHandler returns the IDs of live sessions.
func ListSessionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ids := deps.Sessions.List()
		return c.JSON(fiber.Map{"sessions": ids, "total": len(ids)})
	}
}

// DeleteSessionHandler tears a session down, revoking its track handle.
func DeleteSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Sessions.Close(c.UserContext(), c.Params("id")); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// MapEventHandler applies a click, drag, zoom or load event.
func MapEventHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		e, err := engineFor(c, deps)
		if err != nil {
			return errFromDomain(c, err)
		}
		var req mapEventRequest
		if err := bind(c, deps, &req); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(e.HandleMapEvent(c.UserContext(), req.toDomain()))
	}
}

// UpdateCenterHandler writes the viewport center.
func UpdateCenterHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		e, err := engineFor(c, deps)
		if err != nil {
			return errFromDomain(c, err)
		}
		var req pointDTO
		if err := bind(c, deps, &req); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(e.UpdateCenter(c.UserContext(), req.toDomain()))
	}
}

// UpdateBoundsHandler records measured map bounds.
func UpdateBoundsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		e, err := engineFor(c, deps)
		if err != nil {
			return errFromDomain(c, err)
		}
		var req boundsDTO
		if err := bind(c, deps, &req); err != nil {
			return errBadRequest(c, err.Error())
		}
		return c.JSON(e.UpdateBounds(c.UserContext(), req.toDomain()))
	}
}

// SearchInputHandler feeds a keystroke into the debounced search. Results
// arrive later as a search.results event on the session's WebSocket.
func SearchInputHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		e, err := engineFor(c, deps)
		if err != nil {
			return errFromDomain(c, err)
		}
		var req searchInputRequest
		if err := bind(c, deps, &req); err != nil {
			return errBadRequest(c, err.Error())
		}
		e.SearchInput(req.Query)
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"query": req.Query})
	}
}

// SearchHandler runs an immediate search on the session's search box.
func SearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		e, err := engineFor(c, deps)
		if err != nil {
			return errFromDomain(c, err)
		}
		query := c.Query("q")
		if len(query) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}
		return c.JSON(e.Search(c.UserContext(), query))
	}
}

// SelectHandler picks a candidate and flies the map to it.
func SelectHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		e, err := engineFor(c, deps)
		if err != nil {
			return errFromDomain(c, err)
		}
		var req selectRequest
		if err := bind(c, deps, &req); err != nil {
			return errBadRequest(c, err.Error())
		}
		chosen, err := e.Select(c.UserContext(), req.ID)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{
			"selected": chosen,
			"viewport": e.Viewport(),
		})
	}
}

// GeocodeHandler is a stateless, cached address search.
func GeocodeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := strings.TrimSpace(c.Query("q"))
		if query == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(query) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}
		limit := c.QueryInt("limit", deps.GeocodeLimit)
		if limit <= 0 || limit > 20 {
			limit = 5
		}

		candidates, err := deps.Geocoder.Search(c.UserContext(), query, limit)
		if err != nil {
			return errBadGateway(c, err.Error())
		}
		return c.JSON(fiber.Map{"query": query, "candidates": candidates})
	}
}
