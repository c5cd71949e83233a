package server

import (
	"context"

	"github.com/promptdeck/promptdeck/internal/auth"
	"github.com/promptdeck/promptdeck/internal/jsonrpc"
)

// userMethods is the admin console surface. Every method requires the admin
// capability; there are no self-service user mutations here.
func (s *Server) userMethods() methodTable {
	return methodTable{
		"list":      {require: auth.RequireAdmin, handler: typed(s.listUsers)},
		"get":       {require: auth.RequireAdmin, handler: typed(s.getUser)},
		"update":    {require: auth.RequireAdmin, handler: typed(s.updateUser)},
		"delete":    {require: auth.RequireAdmin, handler: typed(s.deleteUser)},
		"setPoints": {require: auth.RequireAdmin, handler: typed(s.setPoints)},
		"addPoints": {require: auth.RequireAdmin, handler: typed(s.addPoints)},
	}
}

type listUsersParams struct{}

func (s *Server) listUsers(ctx context.Context, _ auth.Principal, _ listUsersParams) (any, error) {
	return s.store.ListUsers(ctx)
}

type userIDParams struct {
	UserID string `json:"userId"`
}

func (s *Server) getUser(ctx context.Context, _ auth.Principal, params userIDParams) (any, error) {
	if params.UserID == "" {
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "userId is required")
	}
	return s.store.GetUser(ctx, params.UserID)
}

type updateUserParams struct {
	UserID    string  `json:"userId"`
	Nickname  *string `json:"nickname,omitempty"`
	AvatarURL *string `json:"avatarUrl,omitempty"`
}

func (s *Server) updateUser(ctx context.Context, _ auth.Principal, params updateUserParams) (any, error) {
	if params.UserID == "" {
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "userId is required")
	}

	u, err := s.store.GetUser(ctx, params.UserID)
	if err != nil {
		return nil, err
	}
	if params.Nickname != nil {
		u.Nickname = *params.Nickname
	}
	if params.AvatarURL != nil {
		u.AvatarURL = *params.AvatarURL
	}
	return s.store.UpdateUser(ctx, u)
}

func (s *Server) deleteUser(ctx context.Context, _ auth.Principal, params userIDParams) (any, error) {
	if params.UserID == "" {
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "userId is required")
	}
	if err := s.store.DeleteUser(ctx, params.UserID); err != nil {
		return nil, err
	}
	return map[string]bool{"deleted": true}, nil
}

type setPointsParams struct {
	UserID string `json:"userId"`
	Points int64  `json:"points"`
}

type pointsResult struct {
	Points int64 `json:"points"`
}

func (s *Server) setPoints(ctx context.Context, _ auth.Principal, params setPointsParams) (any, error) {
	if params.UserID == "" {
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "userId is required")
	}
	if params.Points < 0 {
		return nil, jsonrpc.ValidationError("points must not be negative")
	}

	balance, err := s.store.UpdatePoints(ctx, params.UserID, params.Points)
	if err != nil {
		return nil, err
	}
	return pointsResult{Points: balance}, nil
}

type addPointsParams struct {
	UserID string `json:"userId"`
	Delta  int64  `json:"delta"`
}

func (s *Server) addPoints(ctx context.Context, _ auth.Principal, params addPointsParams) (any, error) {
	if params.UserID == "" {
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "userId is required")
	}

	balance, err := s.store.AddPoints(ctx, params.UserID, params.Delta)
	if err != nil {
		return nil, err
	}
	return pointsResult{Points: balance}, nil
}
