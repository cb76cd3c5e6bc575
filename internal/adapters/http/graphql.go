package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/sketchroute/internal/core/domain"
)

// buildSchema creates the read-only GraphQL schema over live sessions.
// Field names follow the JSON tags of the domain types, which the default
// resolver reads.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bounds",
		Fields: graphql.Fields{
			"min_lat": &graphql.Field{Type: graphql.Float},
			"min_lon": &graphql.Field{Type: graphql.Float},
			"max_lat": &graphql.Field{Type: graphql.Float},
			"max_lon": &graphql.Field{Type: graphql.Float},
		},
	})

	viewportType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Viewport",
		Fields: graphql.Fields{
			"center": &graphql.Field{Type: geoPointType},
			"zoom":   &graphql.Field{Type: graphql.Int},
			"bounds": &graphql.Field{Type: boundsType},
		},
	})

	candidateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SearchCandidate",
		Fields: graphql.Fields{
			"id":       &graphql.Field{Type: graphql.String},
			"label":    &graphql.Field{Type: graphql.String},
			"location": &graphql.Field{Type: geoPointType},
		},
	})

	routeType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Route",
		Fields: graphql.Fields{
			"id":            &graphql.Field{Type: graphql.String},
			"handle":        &graphql.Field{Type: graphql.String},
			"filename":      &graphql.Field{Type: graphql.String},
			"length_meters": &graphql.Field{Type: graphql.Float},
			"points":        &graphql.Field{Type: graphql.NewList(geoPointType)},
			"created_at":    &graphql.Field{Type: graphql.DateTime},
			"segment_count": &graphql.Field{
				Type: graphql.Int,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					r, ok := p.Source.(*domain.RouteArtifact)
					if !ok || r == nil {
						return 0, nil
					}
					return len(r.Segments), nil
				},
			},
		},
	})

	statusType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PipelineStatus",
		Fields: graphql.Fields{
			"state":      &graphql.Field{Type: graphql.String},
			"loading":    &graphql.Field{Type: graphql.Boolean},
			"in_flight":  &graphql.Field{Type: graphql.Int},
			"last_error": &graphql.Field{Type: graphql.String},
		},
	})

	sessionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Session",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"viewport":   &graphql.Field{Type: viewportType},
			"query":      &graphql.Field{Type: graphql.String},
			"candidates": &graphql.Field{Type: graphql.NewList(candidateType)},
			"route":      &graphql.Field{Type: routeType},
			"status":     &graphql.Field{Type: statusType},
			"created_at": &graphql.Field{Type: graphql.DateTime},
			"last_seen":  &graphql.Field{Type: graphql.DateTime},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"session": &graphql.Field{
				Type:        sessionType,
				Description: "Get a live session by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					e, err := deps.Sessions.Get(p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					snap := e.Snapshot()
					return &snap, nil
				},
			},
			"sessions": &graphql.Field{
				Type:        graphql.NewList(graphql.String),
				Description: "IDs of live sessions",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Sessions.List(), nil
				},
			},
			"geocode": &graphql.Field{
				Type:        graphql.NewList(candidateType),
				Description: "Resolve an address to candidate locations",
				Args: graphql.FieldConfigArgument{
					"q":     &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 5},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					q := strings.TrimSpace(p.Args["q"].(string))
					if q == "" {
						return []domain.SearchCandidate{}, nil
					}
					return deps.Geocoder.Search(p.Context, q, p.Args["limit"].(int))
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
