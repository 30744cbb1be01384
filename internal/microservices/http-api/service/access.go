package service

import (
	"errors"

	"yamdb/internal/microservices/http-api/permission"
	"yamdb/internal/microservices/http-api/repository"
)

// authorizeWrite maps a failed object check to 401 for anonymous callers
// and 403 for everyone else.
func authorizeWrite(p *permission.Principal, method, ownerID string) error {
	if permission.AuthorModeratorAdminOrReadOnly(p, method, ownerID) {
		return nil
	}
	if p == nil {
		return ErrUnauthenticated
	}
	return ErrForbidden
}

// authorizeAdmin guards writes to admin-managed resources.
func authorizeAdmin(p *permission.Principal) error {
	if permission.AdminOnly(p) {
		return nil
	}
	if p == nil {
		return ErrUnauthenticated
	}
	return ErrForbidden
}

// notFound swaps repository.ErrNotFound for the domain error.
func notFound(err, domain error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return domain
	}
	return err
}
