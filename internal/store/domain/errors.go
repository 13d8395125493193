package domain

import "errors"

var (
	ErrInvalidCategory  = errors.New("invalid category")
	ErrInvalidProductID = errors.New("invalid product id")
	ErrInvalidPage      = errors.New("page out of range")
	ErrUserNotFound     = errors.New("user not found")
	ErrForbidden        = errors.New("admin access required")

	// ErrIndexNotFound means the search index has not been built
	ErrIndexNotFound = errors.New("search index not found")
	// ErrSearchUnavailable means no search backend is configured or reachable
	ErrSearchUnavailable = errors.New("search backend unavailable")
)
