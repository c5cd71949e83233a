// Package server wires the JSON-RPC method tables to HTTP transport:
// envelope validation, principal enforcement, typed param decoding, and
// response encoding for every namespace the gateway exposes.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/promptdeck/promptdeck/internal/auth"
	"github.com/promptdeck/promptdeck/internal/jsonrpc"
	"github.com/promptdeck/promptdeck/internal/logging"
	"github.com/promptdeck/promptdeck/internal/metrics"
	"github.com/promptdeck/promptdeck/internal/points"
	"github.com/promptdeck/promptdeck/internal/storage"
	"github.com/promptdeck/promptdeck/internal/wechat"
)

const maxBodyBytes = 1 << 20

// WeChatClient is the narrow slice of the WeChat API the auth handlers use.
type WeChatClient interface {
	ExchangeCode(ctx context.Context, code string) (*wechat.Session, error)
	FetchProfile(ctx context.Context, accessToken, openID string) (*wechat.Profile, error)
}

// Server holds the collaborators shared by all method handlers.
type Server struct {
	store    storage.Store
	resolver *auth.Resolver
	tokens   *auth.TokenManager
	hasher   *auth.Hasher
	ledger   *points.Ledger
	wechat   WeChatClient
	logger   *logging.Logger

	signupPoints int64
	limiter      *clientLimiter

	tables map[string]methodTable
}

// Options configures a Server.
type Options struct {
	Store        storage.Store
	Resolver     *auth.Resolver
	Tokens       *auth.TokenManager
	Hasher       *auth.Hasher
	Ledger       *points.Ledger
	WeChat       WeChatClient
	Logger       *logging.Logger
	SignupPoints int64

	// RatePerSecond/RateBurst bound per-client RPC throughput. Zero
	// disables limiting.
	RatePerSecond float64
	RateBurst     int
}

// New creates a Server with its method tables registered.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}

	s := &Server{
		store:        opts.Store,
		resolver:     opts.Resolver,
		tokens:       opts.Tokens,
		hasher:       opts.Hasher,
		ledger:       opts.Ledger,
		wechat:       opts.WeChat,
		logger:       logger,
		signupPoints: opts.SignupPoints,
		limiter:      newClientLimiter(opts.RatePerSecond, opts.RateBurst),
	}

	s.tables = map[string]methodTable{
		"auth":    s.authMethods(),
		"users":   s.userMethods(),
		"prompts": s.promptMethods(),
		"images":  s.imageMethods(),
	}
	return s
}

// handlerFunc runs a method body with an already-resolved principal and
// raw params. Implementations are produced by typed, which decodes params
// once before the body runs.
type handlerFunc func(ctx context.Context, principal auth.Principal, params json.RawMessage) (any, error)

// methodSpec binds a method to its required principal class and handler.
// The mapping is static configuration: it never changes at runtime.
type methodSpec struct {
	require auth.Requirement
	handler handlerFunc
}

type methodTable map[string]methodSpec

// typed adapts a handler with a typed params struct. The schema is decoded
// and checked exactly once, before the handler body executes.
func typed[T any](fn func(ctx context.Context, principal auth.Principal, params T) (any, error)) handlerFunc {
	return func(ctx context.Context, principal auth.Principal, raw json.RawMessage) (any, error) {
		var params T
		if len(raw) > 0 && string(raw) != "null" {
			if err := json.Unmarshal(raw, &params); err != nil {
				return nil, jsonrpc.NewError(jsonrpc.CodeInvalidParams, "invalid params")
			}
		}
		return fn(ctx, principal, params)
	}
}

// Handler returns the HTTP handler for the gateway. Application errors are
// always JSON-RPC bodies over HTTP 200; only unrouted paths produce other
// statuses.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	rpc := router.PathPrefix("/rpc").Subrouter()
	rpc.Use(s.requestLogMiddleware, s.rateLimitMiddleware)
	for name := range s.tables {
		rpc.HandleFunc("/"+name, s.rpcEndpoint(name)).Methods(http.MethodPost)
	}
	return router
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "healthy",
		"service":   "gateway",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// rpcEndpoint dispatches one namespace: validate the envelope, resolve the
// principal for the chosen method, then run its handler. A failed principal
// check short-circuits; the handler never runs.
func (s *Server) rpcEndpoint(namespace string) http.HandlerFunc {
	table := s.tables[namespace]

	return func(w http.ResponseWriter, r *http.Request) {
		done := metrics.RPCStarted()
		defer done()

		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
		if err != nil {
			jsonrpc.WriteError(w, nil, jsonrpc.NewError(jsonrpc.CodeParseError, "parse error"))
			return
		}

		req, rpcErr := jsonrpc.ParseRequest(body)
		if rpcErr != nil {
			// The id of a malformed envelope cannot be trusted.
			jsonrpc.WriteError(w, nil, rpcErr)
			return
		}

		start := time.Now()
		result, rpcErr := s.dispatch(r, table, req)
		code := 0
		if rpcErr != nil {
			code = rpcErr.Code
		}
		metrics.ObserveRPC(namespace, req.Method, code, time.Since(start))

		if rpcErr != nil {
			s.logger.WithContext(r.Context()).WithFields(map[string]interface{}{
				"namespace": namespace,
				"method":    req.Method,
				"code":      rpcErr.Code,
			}).Debug("rpc call failed")
			jsonrpc.WriteError(w, req.ID, rpcErr)
			return
		}
		jsonrpc.WriteResult(w, req.ID, result)
	}
}

func (s *Server) dispatch(r *http.Request, table methodTable, req *jsonrpc.Request) (any, *jsonrpc.Error) {
	spec, ok := table[req.Method]
	if !ok {
		return nil, jsonrpc.NewError(jsonrpc.CodeMethodNotFound, "method not found: "+req.Method)
	}

	principal, rpcErr := s.resolver.Resolve(r.Header.Get("Authorization"), spec.require)
	if rpcErr != nil {
		return nil, rpcErr
	}

	ctx := r.Context()
	if u, ok := principal.(auth.User); ok {
		ctx = logging.WithUserID(ctx, u.ID)
	}

	result, err := spec.handler(ctx, principal, req.Params)
	if err != nil {
		return nil, toRPCError(err)
	}
	return result, nil
}

// toRPCError maps handler and collaborator failures onto the fixed
// taxonomy. Handlers never invent codes; anything unrecognized becomes an
// internal error with the underlying message in data.
func toRPCError(err error) *jsonrpc.Error {
	var rpcErr *jsonrpc.Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	var insufficient *points.InsufficientPointsError
	if errors.As(err, &insufficient) {
		return jsonrpc.ValidationError("insufficient points").WithData(insufficient)
	}

	var wechatErr *wechat.APIError
	if errors.As(err, &wechatErr) {
		return jsonrpc.AuthenticationError("wechat login failed").WithData(map[string]any{
			"errcode": wechatErr.Code,
			"errmsg":  wechatErr.Message,
		})
	}

	if errors.Is(err, storage.ErrNotFound) {
		return jsonrpc.NotFoundError("not found")
	}
	return jsonrpc.AsError(err)
}
