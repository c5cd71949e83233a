package server

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/promptdeck/promptdeck/internal/domain/user"
	"github.com/promptdeck/promptdeck/internal/jsonrpc"
)

type sessionPayload struct {
	Token string    `json:"token"`
	User  user.User `json:"user"`
}

func TestRegisterLoginRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	var registered sessionPayload
	env.mustResult(env.rpc("auth", "register", map[string]any{"username": "alice", "password": "pw-1234"}, ""), &registered)
	if registered.Token == "" {
		t.Fatalf("expected a token")
	}
	if registered.User.Points != testSignupPts {
		t.Fatalf("expected signup points %d, got %d", testSignupPts, registered.User.Points)
	}

	var loggedIn sessionPayload
	env.mustResult(env.rpc("auth", "login", map[string]any{"username": "alice", "password": "pw-1234"}, ""), &loggedIn)
	if loggedIn.User.ID != registered.User.ID {
		t.Fatalf("login must return the same user")
	}

	// The issued token works for authenticated methods.
	var me user.User
	env.mustResult(env.rpc("auth", "me", nil, loggedIn.Token), &me)
	if me.Username != "alice" {
		t.Fatalf("expected alice, got %q", me.Username)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("alice", 0)

	resp := env.rpc("auth", "register", map[string]any{"username": "alice", "password": "pw"}, "")
	if resp.Err == nil || resp.Err.Code != jsonrpc.CodeValidation {
		t.Fatalf("expected validation error, got %+v", resp.Err)
	}
}

func TestLoginUnknownUserIsGenericAuthenticationError(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser("bob", 0)

	unknown := env.rpc("auth", "login", map[string]any{"username": "nobody", "password": "pw"}, "")
	if unknown.Err == nil || unknown.Err.Code != jsonrpc.CodeAuthentication {
		t.Fatalf("unknown user must be authentication error, got %+v", unknown.Err)
	}

	wrongPassword := env.rpc("auth", "login", map[string]any{"username": "bob", "password": "pw"}, "")
	if wrongPassword.Err == nil || wrongPassword.Err.Code != jsonrpc.CodeAuthentication {
		t.Fatalf("wrong password must be authentication error, got %+v", wrongPassword.Err)
	}

	// Same message both ways: no username oracle.
	if unknown.Err.Message != wrongPassword.Err.Message {
		t.Fatalf("login errors must not reveal which part failed: %q vs %q", unknown.Err.Message, wrongPassword.Err.Message)
	}
}

func TestLoginMissingParams(t *testing.T) {
	env := newTestEnv(t)

	resp := env.rpc("auth", "login", map[string]any{"username": "alice"}, "")
	if resp.Err == nil || resp.Err.Code != jsonrpc.CodeInvalidParams {
		t.Fatalf("expected invalid params, got %+v", resp.Err)
	}
}

func TestWeChatLoginCreatesUserOnce(t *testing.T) {
	env := newTestEnv(t)

	var first sessionPayload
	env.mustResult(env.rpc("auth", "wechat.login", map[string]any{"code": "c1"}, ""), &first)
	if first.User.Nickname != "Wexley" {
		t.Fatalf("expected profile nickname, got %q", first.User.Nickname)
	}
	if first.User.Points != testSignupPts {
		t.Fatalf("expected signup points, got %d", first.User.Points)
	}

	var second sessionPayload
	env.mustResult(env.rpc("auth", "wechat.login", map[string]any{"code": "c1"}, ""), &second)
	if second.User.ID != first.User.ID {
		t.Fatalf("repeat login must reuse the account")
	}

	users, _ := env.store.ListUsers(context.Background())
	if len(users) != 1 {
		t.Fatalf("expected one user, got %d", len(users))
	}
}

func TestWeChatLoginErrcodeMapsToAuthenticationError(t *testing.T) {
	env := newTestEnv(t)
	env.wechatErr.Store(true)

	resp := env.rpc("auth", "wechat.login", map[string]any{"code": "bad"}, "")
	if resp.Err == nil || resp.Err.Code != jsonrpc.CodeAuthentication {
		t.Fatalf("expected authentication error, got %+v", resp.Err)
	}

	data, err := json.Marshal(resp.Err.Data)
	if err != nil {
		t.Fatalf("marshal error data: %v", err)
	}
	var detail struct {
		Errcode int64  `json:"errcode"`
		Errmsg  string `json:"errmsg"`
	}
	if err := json.Unmarshal(data, &detail); err != nil {
		t.Fatalf("unmarshal error data: %v", err)
	}
	if detail.Errcode != 40029 || detail.Errmsg != "invalid code" {
		t.Fatalf("provider code/message must be preserved, got %+v", detail)
	}
}

func TestMeRequiresUserToken(t *testing.T) {
	env := newTestEnv(t)

	missing := env.rpc("auth", "me", nil, "")
	if missing.Err == nil || missing.Err.Code != jsonrpc.CodeAuthentication {
		t.Fatalf("missing credential must be authentication error, got %+v", missing.Err)
	}

	invalid := env.rpc("auth", "me", nil, "garbage-token")
	if invalid.Err == nil || invalid.Err.Code != jsonrpc.CodeAuthorization {
		t.Fatalf("bad credential must be authorization error, got %+v", invalid.Err)
	}
}
