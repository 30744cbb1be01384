// Package permission holds the access policies of the API as pure
// functions of the caller, the HTTP method and, for object checks, the
// owner of the target object.
package permission

import (
	"context"
	"net/http"

	"yamdb/internal/microservices/http-api/models"
)

// Principal is the authenticated caller of a request. A nil *Principal is
// an anonymous caller.
type Principal struct {
	UserID      string
	Username    string
	Role        models.Role
	IsSuperuser bool
}

// FromUser builds the principal for a loaded user.
func FromUser(u *models.User) *Principal {
	return &Principal{
		UserID:      u.ID,
		Username:    u.Username,
		Role:        u.Role,
		IsSuperuser: u.IsSuperuser,
	}
}

func (p *Principal) IsAdmin() bool {
	return p != nil && (p.IsSuperuser || p.Role.IsAdmin())
}

func (p *Principal) IsModerator() bool {
	return p != nil && p.Role.IsModerator()
}

// IsSafeMethod reports read-only HTTP methods.
func IsSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// AdminOnly allows admins and superusers.
func AdminOnly(p *Principal) bool {
	return p.IsAdmin()
}

// AdminOrReadOnly allows reads to everyone and writes to admins.
func AdminOrReadOnly(p *Principal, method string) bool {
	return IsSafeMethod(method) || p.IsAdmin()
}

// AuthorModeratorAdminOrReadOnly allows reads to everyone; writes need the
// object's author, a moderator or an admin. An empty ownerID is the
// collection-level check (creating), which any authenticated caller passes.
func AuthorModeratorAdminOrReadOnly(p *Principal, method, ownerID string) bool {
	if IsSafeMethod(method) {
		return true
	}
	if p == nil {
		return false
	}
	if ownerID == "" {
		return true
	}
	return p.UserID == ownerID || p.IsModerator() || p.IsAdmin()
}

type principalKey struct{}

// WithPrincipal stores p in ctx for the rest of the request.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the request principal, nil when anonymous.
func FromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalKey{}).(*Principal)
	return p
}
