package auth

import "context"

type contextKey string

const (
	contextKeyPlaza   contextKey = "auth.plaza_id"
	contextKeyRole    contextKey = "auth.role"
	contextKeySubject contextKey = "auth.subject"
)

// Identity is the authenticated caller.
type Identity struct {
	UserID  string
	Role    Role
	PlazaID string
}

// WithIdentity stores auth identity details in context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	ctx = context.WithValue(ctx, contextKeyPlaza, id.PlazaID)
	ctx = context.WithValue(ctx, contextKeyRole, id.Role)
	ctx = context.WithValue(ctx, contextKeySubject, id.UserID)
	return ctx
}

// IdentityFromContext extracts the caller identity. ok is false when the
// request was not authenticated.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id := Identity{
		UserID:  SubjectFromContext(ctx),
		Role:    RoleFromContext(ctx),
		PlazaID: PlazaIDFromContext(ctx),
	}
	return id, id.UserID != "" && id.Role != ""
}

// PlazaIDFromContext extracts the caller's plaza id from context.
func PlazaIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if plazaID, ok := ctx.Value(contextKeyPlaza).(string); ok {
		return plazaID
	}
	return ""
}

// RoleFromContext extracts role from context.
func RoleFromContext(ctx context.Context) Role {
	if ctx == nil {
		return ""
	}
	value := ctx.Value(contextKeyRole)
	if role, ok := value.(Role); ok {
		return role
	}
	if role, ok := value.(string); ok {
		if normalized, valid := NormalizeRole(role); valid {
			return normalized
		}
	}
	return ""
}

// SubjectFromContext extracts subject from context.
func SubjectFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	value := ctx.Value(contextKeySubject)
	if subject, ok := value.(string); ok {
		return subject
	}
	return ""
}
