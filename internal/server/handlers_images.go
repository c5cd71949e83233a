package server

import (
	"context"

	"github.com/promptdeck/promptdeck/internal/ai"
	"github.com/promptdeck/promptdeck/internal/auth"
	"github.com/promptdeck/promptdeck/internal/jsonrpc"
	"github.com/promptdeck/promptdeck/internal/metrics"
	"github.com/promptdeck/promptdeck/internal/points"
)

// imageMethods is the metered method family. Metering is per-user balance,
// so generate always requires a user principal; the admin capability has no
// balance to charge.
func (s *Server) imageMethods() methodTable {
	return methodTable{
		"generate": {require: auth.RequireUser, handler: typed(s.generate)},
	}
}

type generateParams struct {
	Parts []ai.Part `json:"parts"`
}

type generateResult struct {
	Contents []ai.Content `json:"contents"`
	Points   int64        `json:"points"`
}

func (s *Server) generate(ctx context.Context, principal auth.Principal, params generateParams) (any, error) {
	u, ok := principal.(auth.User)
	if !ok {
		return nil, jsonrpc.AuthorizationError("user authorization required")
	}
	if len(params.Parts) == 0 {
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "parts must not be empty")
	}
	for _, part := range params.Parts {
		if part.Text == "" && part.InlineData == nil {
			return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "each part needs text or inlineData")
		}
	}

	contents, remaining, err := s.ledger.Generate(ctx, u.ID, params.Parts)
	if err != nil {
		return nil, err
	}
	metrics.PointsCharged(points.CostPerGeneration)

	return generateResult{Contents: contents, Points: remaining}, nil
}
