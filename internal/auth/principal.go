package auth

import (
	"strings"

	"github.com/promptdeck/promptdeck/internal/jsonrpc"
)

// Requirement declares which principal class a method demands.
type Requirement int

const (
	// RequireNone resolves every caller to Anonymous without inspecting
	// the Authorization header.
	RequireNone Requirement = iota
	// RequireUser demands a valid signed user token.
	RequireUser
	// RequireAdmin demands the configured admin secret.
	RequireAdmin
	// RequireUserOrAdmin accepts either, checking the admin secret first.
	RequireUserOrAdmin
)

// Principal is the resolved identity class of a caller for one request.
// It is a sealed variant: Anonymous, User, or Admin. Callers switch on the
// concrete type rather than re-deriving capability from strings.
type Principal interface {
	principal()
}

// Anonymous is an unauthenticated caller.
type Anonymous struct{}

// User is an authenticated user principal.
type User struct {
	ID       string
	Username string
}

// Admin is the shared-secret admin capability. It deliberately carries no
// identity fields; there is no admin account table.
type Admin struct{}

func (Anonymous) principal() {}
func (User) principal()      {}
func (Admin) principal()     {}

// Resolver classifies bearer credentials into principals.
type Resolver struct {
	adminSecret string
	tokens      *TokenManager
}

// NewResolver creates a resolver. An empty adminSecret disables the admin
// capability: RequireAdmin then fails as a server misconfiguration.
func NewResolver(adminSecret string, tokens *TokenManager) *Resolver {
	return &Resolver{adminSecret: adminSecret, tokens: tokens}
}

// Resolve inspects the Authorization header value against the requirement
// and returns the caller's principal, or a taxonomy error. Handlers never
// run when this fails.
func (r *Resolver) Resolve(authHeader string, req Requirement) (Principal, *jsonrpc.Error) {
	if req == RequireNone {
		return Anonymous{}, nil
	}

	// Server misconfiguration, not a caller error: report it even when the
	// caller sent no credential at all.
	if req == RequireAdmin && r.adminSecret == "" {
		return nil, jsonrpc.NewError(jsonrpc.CodeInternalError, "admin secret is not configured")
	}

	credential, ok := bearerCredential(authHeader)
	if !ok {
		return nil, jsonrpc.AuthenticationError("authorization required")
	}

	switch req {
	case RequireUser:
		return r.resolveUser(credential)

	case RequireAdmin:
		return r.resolveAdmin(credential)

	case RequireUserOrAdmin:
		// Admin secret first: a plain string compare is cheaper than
		// signature verification.
		if r.adminSecret != "" && credential == r.adminSecret {
			return Admin{}, nil
		}
		return r.resolveUser(credential)

	default:
		return nil, jsonrpc.InternalError(nil)
	}
}

func (r *Resolver) resolveUser(credential string) (Principal, *jsonrpc.Error) {
	claims, err := r.tokens.Verify(credential)
	if err != nil {
		return nil, jsonrpc.AuthorizationError("invalid or expired token")
	}
	return User{ID: claims.UserID, Username: claims.Username}, nil
}

func (r *Resolver) resolveAdmin(credential string) (Principal, *jsonrpc.Error) {
	if credential != r.adminSecret {
		return nil, jsonrpc.AuthorizationError("admin authorization required")
	}
	return Admin{}, nil
}

// bearerCredential extracts the credential from an Authorization header.
func bearerCredential(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
