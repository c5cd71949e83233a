package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptdeck/promptdeck/internal/jsonrpc"
)

const testAdminSecret = "admin-secret-value"

func newTestResolver(t *testing.T, adminSecret string) (*Resolver, string) {
	t.Helper()
	tm := newTestTokenManager("signing-key", 0)
	token, err := tm.Sign("user-1", "alice")
	require.NoError(t, err)
	return NewResolver(adminSecret, tm), token
}

func TestResolveNoneIgnoresHeader(t *testing.T) {
	resolver, _ := newTestResolver(t, testAdminSecret)

	principal, rpcErr := resolver.Resolve("Bearer complete-garbage", RequireNone)
	require.Nil(t, rpcErr)
	assert.IsType(t, Anonymous{}, principal)

	principal, rpcErr = resolver.Resolve("", RequireNone)
	require.Nil(t, rpcErr)
	assert.IsType(t, Anonymous{}, principal)
}

func TestResolveUser(t *testing.T) {
	resolver, token := newTestResolver(t, testAdminSecret)

	principal, rpcErr := resolver.Resolve("Bearer "+token, RequireUser)
	require.Nil(t, rpcErr)
	u, ok := principal.(User)
	require.True(t, ok, "expected User principal, got %T", principal)
	assert.Equal(t, "user-1", u.ID)
	assert.Equal(t, "alice", u.Username)
}

func TestResolveUserMissingHeaderIsAuthentication(t *testing.T) {
	resolver, _ := newTestResolver(t, testAdminSecret)

	_, rpcErr := resolver.Resolve("", RequireUser)
	require.NotNil(t, rpcErr)
	assert.Equal(t, jsonrpc.CodeAuthentication, rpcErr.Code)
}

func TestResolveUserBadTokenIsAuthorization(t *testing.T) {
	resolver, _ := newTestResolver(t, testAdminSecret)

	_, rpcErr := resolver.Resolve("Bearer bogus", RequireUser)
	require.NotNil(t, rpcErr)
	assert.Equal(t, jsonrpc.CodeAuthorization, rpcErr.Code)
}

func TestResolveAdmin(t *testing.T) {
	resolver, _ := newTestResolver(t, testAdminSecret)

	principal, rpcErr := resolver.Resolve("Bearer "+testAdminSecret, RequireAdmin)
	require.Nil(t, rpcErr)
	assert.IsType(t, Admin{}, principal)

	_, rpcErr = resolver.Resolve("Bearer wrong-secret", RequireAdmin)
	require.NotNil(t, rpcErr)
	assert.Equal(t, jsonrpc.CodeAuthorization, rpcErr.Code)
}

func TestResolveAdminUnconfiguredSecretIsServerFault(t *testing.T) {
	resolver, token := newTestResolver(t, "")

	_, rpcErr := resolver.Resolve("Bearer "+token, RequireAdmin)
	require.NotNil(t, rpcErr)
	assert.Equal(t, jsonrpc.CodeInternalError, rpcErr.Code)

	// The fault is reported even when the caller sent no credential at all.
	_, rpcErr = resolver.Resolve("", RequireAdmin)
	require.NotNil(t, rpcErr)
	assert.Equal(t, jsonrpc.CodeInternalError, rpcErr.Code)
}

func TestResolveUserOrAdmin(t *testing.T) {
	resolver, token := newTestResolver(t, testAdminSecret)

	principal, rpcErr := resolver.Resolve("Bearer "+testAdminSecret, RequireUserOrAdmin)
	require.Nil(t, rpcErr)
	assert.IsType(t, Admin{}, principal)

	principal, rpcErr = resolver.Resolve("Bearer "+token, RequireUserOrAdmin)
	require.Nil(t, rpcErr)
	assert.IsType(t, User{}, principal)

	_, rpcErr = resolver.Resolve("Bearer neither", RequireUserOrAdmin)
	require.NotNil(t, rpcErr)
	assert.Equal(t, jsonrpc.CodeAuthorization, rpcErr.Code)
}

func TestBearerCredential(t *testing.T) {
	for header, want := range map[string]bool{
		"Bearer token-value": true,
		"bearer token-value": false,
		"Basic dXNlcg==":     false,
		"Bearer ":            false,
		"Bearer":             false,
		"":                   false,
	} {
		_, ok := bearerCredential(header)
		assert.Equal(t, want, ok, "header %q", header)
	}
}
