package service

import (
	"errors"

	"shop-api/internal/domain"
)

var (
	ErrForbidden = errors.New("not authorized")
)

// Caller is the identity resolved from a request's access token
type Caller struct {
	ID   string
	Role domain.Role
}

// IsAdmin reports whether the caller holds the admin role
func (c Caller) IsAdmin() bool {
	return c.Role == domain.RoleAdmin
}

// canAccess reports whether the caller owns the order or is an admin
func (c Caller) canAccess(order *domain.Order) bool {
	return c.IsAdmin() || order.IsOwnedBy(c.ID)
}
