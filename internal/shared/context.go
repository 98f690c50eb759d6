package shared

import "context"

// Identity is the caller identity injected by the external auth layer.
// The engine treats it as opaque: it only forwards it into change records
// and uses Role for route gating.
type Identity struct {
	UserID   int64
	UserName string
	Role     string
}

// Well-known roles carried by Identity.Role.
const (
	RoleAdmin     = "Admin"
	RolePrincipal = "Principal"
	RoleEmployee  = "Employee"
)

type identityContextKey struct{}

// ContextWithIdentity stores the caller identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the caller identity from context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey{}).(Identity)
	return id, ok
}
