package server

import (
	"context"
	"testing"

	"github.com/promptdeck/promptdeck/internal/auth"
	"github.com/promptdeck/promptdeck/internal/domain/prompt"
	"github.com/promptdeck/promptdeck/internal/domain/user"
	"github.com/promptdeck/promptdeck/internal/jsonrpc"
)

func TestPromptCRUDAsAdmin(t *testing.T) {
	env := newTestEnv(t)

	var created prompt.Prompt
	env.mustResult(env.rpc("prompts", "create", map[string]any{
		"title": "greeting", "body": "say hi", "tags": []string{"intro"},
	}, testAdminSecret), &created)
	if created.ID == "" {
		t.Fatalf("expected generated id")
	}

	// Reads are public.
	var listed []prompt.Prompt
	env.mustResult(env.rpc("prompts", "list", nil, ""), &listed)
	if len(listed) != 1 {
		t.Fatalf("expected one prompt, got %d", len(listed))
	}

	var fetched prompt.Prompt
	env.mustResult(env.rpc("prompts", "get", map[string]any{"promptId": created.ID}, ""), &fetched)
	if fetched.Title != "greeting" {
		t.Fatalf("unexpected prompt: %+v", fetched)
	}

	var updated prompt.Prompt
	env.mustResult(env.rpc("prompts", "update", map[string]any{
		"promptId": created.ID, "body": "say hello",
	}, testAdminSecret), &updated)
	if updated.Body != "say hello" || updated.Title != "greeting" {
		t.Fatalf("partial update went wrong: %+v", updated)
	}

	env.mustResult(env.rpc("prompts", "delete", map[string]any{"promptId": created.ID}, testAdminSecret), &struct{}{})

	missing := env.rpc("prompts", "get", map[string]any{"promptId": created.ID}, "")
	if missing.Err == nil || missing.Err.Code != jsonrpc.CodeNotFound {
		t.Fatalf("expected not found, got %+v", missing.Err)
	}
}

func TestPromptCreateWithoutAdminNeverTouchesStore(t *testing.T) {
	env := newTestEnv(t)

	noHeader := env.rpc("prompts", "create", map[string]any{"title": "t", "body": "b"}, "")
	if noHeader.Err == nil || noHeader.Err.Code != jsonrpc.CodeAuthentication {
		t.Fatalf("missing header: expected authentication error, got %+v", noHeader.Err)
	}

	wrongSecret := env.rpc("prompts", "create", map[string]any{"title": "t", "body": "b"}, "not-the-secret")
	if wrongSecret.Err == nil || wrongSecret.Err.Code != jsonrpc.CodeAuthorization {
		t.Fatalf("wrong secret: expected authorization error, got %+v", wrongSecret.Err)
	}

	// A user token is not the admin capability.
	_, token := env.seedUser("dave", 0)
	asUser := env.rpc("prompts", "create", map[string]any{"title": "t", "body": "b"}, token)
	if asUser.Err == nil || asUser.Err.Code != jsonrpc.CodeAuthorization {
		t.Fatalf("user token: expected authorization error, got %+v", asUser.Err)
	}

	prompts, _ := env.store.ListPrompts(context.Background())
	if len(prompts) != 0 {
		t.Fatalf("handler must never run on failed principal check; found %d records", len(prompts))
	}
}

func TestAdminUnconfiguredSecretIsInternalError(t *testing.T) {
	env := newTestEnv(t, func(opts *Options) {
		opts.Resolver = auth.NewResolver("", opts.Tokens)
	})

	resp := env.rpc("prompts", "create", map[string]any{"title": "t", "body": "b"}, "anything")
	if resp.Err == nil || resp.Err.Code != jsonrpc.CodeInternalError {
		t.Fatalf("unconfigured admin secret is a server fault, got %+v", resp.Err)
	}
}

func TestUserAdminMethods(t *testing.T) {
	env := newTestEnv(t)
	seeded, _ := env.seedUser("erin", 2)

	var users []user.User
	env.mustResult(env.rpc("users", "list", nil, testAdminSecret), &users)
	if len(users) != 1 || users[0].ID != seeded.ID {
		t.Fatalf("unexpected users: %+v", users)
	}

	var updated user.User
	env.mustResult(env.rpc("users", "update", map[string]any{
		"userId": seeded.ID, "nickname": "Erin",
	}, testAdminSecret), &updated)
	if updated.Nickname != "Erin" {
		t.Fatalf("expected nickname update, got %+v", updated)
	}

	var balance struct {
		Points int64 `json:"points"`
	}
	env.mustResult(env.rpc("users", "setPoints", map[string]any{"userId": seeded.ID, "points": 10}, testAdminSecret), &balance)
	if balance.Points != 10 {
		t.Fatalf("expected 10 points, got %d", balance.Points)
	}

	env.mustResult(env.rpc("users", "addPoints", map[string]any{"userId": seeded.ID, "delta": -4}, testAdminSecret), &balance)
	if balance.Points != 6 {
		t.Fatalf("expected 6 points, got %d", balance.Points)
	}

	negative := env.rpc("users", "setPoints", map[string]any{"userId": seeded.ID, "points": -1}, testAdminSecret)
	if negative.Err == nil || negative.Err.Code != jsonrpc.CodeValidation {
		t.Fatalf("negative balance must be rejected, got %+v", negative.Err)
	}

	env.mustResult(env.rpc("users", "delete", map[string]any{"userId": seeded.ID}, testAdminSecret), &struct{}{})
	gone := env.rpc("users", "get", map[string]any{"userId": seeded.ID}, testAdminSecret)
	if gone.Err == nil || gone.Err.Code != jsonrpc.CodeNotFound {
		t.Fatalf("expected not found, got %+v", gone.Err)
	}
}

func TestUserListRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.seedUser("frank", 0)

	resp := env.rpc("users", "list", nil, token)
	if resp.Err == nil || resp.Err.Code != jsonrpc.CodeAuthorization {
		t.Fatalf("expected authorization error, got %+v", resp.Err)
	}
}
