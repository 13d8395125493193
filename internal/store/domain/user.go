package domain

import "context"

const RoleAdmin = "admin"

// User is the subset of the user document the store reads
type User struct {
	ID             string
	Role           string
	FavoriteStores []string
}

// IsAdmin checks if user has admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasFavorite reports whether productID is in the favorite set
func (u *User) HasFavorite(productID string) bool {
	for _, id := range u.FavoriteStores {
		if id == productID {
			return true
		}
	}
	return false
}

// UserRepository persists the favorite set on the user document. Updates
// touch only the favorite field.
type UserRepository interface {
	FindByID(ctx context.Context, userID string) (*User, error)
	AddFavorite(ctx context.Context, userID, productID string) error
	RemoveFavorite(ctx context.Context, userID, productID string) error
}
