package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/promptdeck/promptdeck/internal/auth"
	"github.com/promptdeck/promptdeck/internal/domain/user"
	"github.com/promptdeck/promptdeck/internal/jsonrpc"
	"github.com/promptdeck/promptdeck/internal/storage"
	"github.com/promptdeck/promptdeck/internal/wechat"
)

// invalidCredentials is the single error for both unknown usernames and
// wrong passwords, so login never reveals whether a username exists.
var invalidCredentials = jsonrpc.AuthenticationError("invalid username or password")

func (s *Server) authMethods() methodTable {
	return methodTable{
		"register":     {require: auth.RequireNone, handler: typed(s.register)},
		"login":        {require: auth.RequireNone, handler: typed(s.login)},
		"wechat.login": {require: auth.RequireNone, handler: typed(s.wechatLogin)},
		"me":           {require: auth.RequireUser, handler: typed(s.me)},
	}
}

type registerParams struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResult struct {
	Token string    `json:"token"`
	User  user.User `json:"user"`
}

func (s *Server) register(ctx context.Context, _ auth.Principal, params registerParams) (any, error) {
	if params.Username == "" || params.Password == "" {
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "username and password are required")
	}

	if _, err := s.store.GetUserByUsername(ctx, params.Username); err == nil {
		return nil, jsonrpc.ValidationError("username already taken")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	digest, err := s.hasher.Hash(params.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.store.CreateUser(ctx, user.User{
		Username:     params.Username,
		PasswordHash: digest,
		Points:       s.signupPoints,
	})
	if err != nil {
		return nil, err
	}

	return s.session(created)
}

type loginParams struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) login(ctx context.Context, _ auth.Principal, params loginParams) (any, error) {
	if params.Username == "" || params.Password == "" {
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "username and password are required")
	}

	u, err := s.store.GetUserByUsername(ctx, params.Username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, invalidCredentials
		}
		return nil, err
	}

	if u.PasswordHash == "" || !s.hasher.Compare(params.Password, u.PasswordHash) {
		return nil, invalidCredentials
	}

	return s.session(u)
}

type wechatLoginParams struct {
	Code string `json:"code"`
}

func (s *Server) wechatLogin(ctx context.Context, _ auth.Principal, params wechatLoginParams) (any, error) {
	if params.Code == "" {
		return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "code is required")
	}

	session, err := s.wechat.ExchangeCode(ctx, params.Code)
	if err != nil {
		return nil, err
	}

	u, err := s.store.GetUserByWeChatOpenID(ctx, session.OpenID)
	if errors.Is(err, storage.ErrNotFound) {
		u, err = s.createWeChatUser(ctx, session)
	}
	if err != nil {
		return nil, err
	}

	return s.session(u)
}

// createWeChatUser provisions an account on first WeChat login. The profile
// fetch is best effort; login proceeds without nickname or avatar.
func (s *Server) createWeChatUser(ctx context.Context, session *wechat.Session) (user.User, error) {
	u := user.User{
		Username:     "wx_" + session.OpenID,
		WeChatOpenID: session.OpenID,
		Points:       s.signupPoints,
	}

	if session.AccessToken != "" {
		if profile, err := s.wechat.FetchProfile(ctx, session.AccessToken, session.OpenID); err == nil {
			u.Nickname = profile.Nickname
			u.AvatarURL = profile.AvatarURL
		}
	}

	return s.store.CreateUser(ctx, u)
}

type meParams struct{}

func (s *Server) me(ctx context.Context, principal auth.Principal, _ meParams) (any, error) {
	u, ok := principal.(auth.User)
	if !ok {
		return nil, jsonrpc.AuthorizationError("user authorization required")
	}
	return s.store.GetUser(ctx, u.ID)
}

func (s *Server) session(u user.User) (any, error) {
	token, err := s.tokens.Sign(u.ID, u.Username)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return sessionResult{Token: token, User: u}, nil
}
