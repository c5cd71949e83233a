package server

import (
	"context"

	"github.com/promptdeck/promptdeck/internal/auth"
	"github.com/promptdeck/promptdeck/internal/domain/prompt"
	"github.com/promptdeck/promptdeck/internal/jsonrpc"
)

// promptMethods: reads are public, mutations are admin-only.
func (s *Server) promptMethods() methodTable {
	return methodTable{
		"list":   {require: auth.RequireNone, handler: typed(s.listPrompts)},
		"get":    {require: auth.RequireNone, handler: typed(s.getPrompt)},
		"create": {require: auth.RequireAdmin, handler: typed(s.createPrompt)},
		"update": {require: auth.RequireAdmin, handler: typed(s.updatePrompt)},
		"delete": {require: auth.RequireAdmin, handler: typed(s.deletePrompt)},
	}
}

type listPromptsParams struct{}

func (s *Server) listPrompts(ctx context.Context, _ auth.Principal, _ listPromptsParams) (any, error) {
	return s.store.ListPrompts(ctx)
}

type promptIDParams struct {
	PromptID string `json:"promptId"`
}

func (s *Server) getPrompt(ctx context.Context, _ auth.Principal, params promptIDParams) (any, error) {
	if params.PromptID == "" {
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "promptId is required")
	}
	return s.store.GetPrompt(ctx, params.PromptID)
}

type createPromptParams struct {
	Title string   `json:"title"`
	Body  string   `json:"body"`
	Tags  []string `json:"tags,omitempty"`
}

func (s *Server) createPrompt(ctx context.Context, _ auth.Principal, params createPromptParams) (any, error) {
	if params.Title == "" || params.Body == "" {
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "title and body are required")
	}
	return s.store.CreatePrompt(ctx, prompt.Prompt{
		Title: params.Title,
		Body:  params.Body,
		Tags:  params.Tags,
	})
}

type updatePromptParams struct {
	PromptID string    `json:"promptId"`
	Title    *string   `json:"title,omitempty"`
	Body     *string   `json:"body,omitempty"`
	Tags     *[]string `json:"tags,omitempty"`
}

func (s *Server) updatePrompt(ctx context.Context, _ auth.Principal, params updatePromptParams) (any, error) {
	if params.PromptID == "" {
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "promptId is required")
	}

	p, err := s.store.GetPrompt(ctx, params.PromptID)
	if err != nil {
		return nil, err
	}
	if params.Title != nil {
		p.Title = *params.Title
	}
	if params.Body != nil {
		p.Body = *params.Body
	}
	if params.Tags != nil {
		p.Tags = *params.Tags
	}
	if p.Title == "" || p.Body == "" {
		return nil, jsonrpc.ValidationError("title and body must not be empty")
	}
	return s.store.UpdatePrompt(ctx, p)
}

func (s *Server) deletePrompt(ctx context.Context, _ auth.Principal, params promptIDParams) (any, error) {
	if params.PromptID == "" {
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "promptId is required")
	}
	if err := s.store.DeletePrompt(ctx, params.PromptID); err != nil {
		return nil, err
	}
	return map[string]bool{"deleted": true}, nil
}
