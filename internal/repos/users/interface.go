package users

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrPhoneTaken   = errors.New("phone already registered")
)

// Role values mirror the storefront's back-office roles.
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
	RoleModerator  = "moderator"
	RoleSupport    = "support"
)

type User struct {
	ID                 string
	Phone              string
	Roles              []string
	NationalID         *string
	PhoneVerifiedAt    *time.Time
	IdentityVerifiedAt *time.Time
	LoginAttempts      int
	LockUntil          *time.Time
	CreatedAt          time.Time
}

// HasRole reports whether the user carries any of the given roles.
func (u *User) HasRole(roles ...string) bool {
	for _, want := range roles {
		for _, have := range u.Roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

type Users interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)

	MarkPhoneVerified(ctx context.Context, id string) error
	MarkIdentityVerified(ctx context.Context, id, nationalID string) error

	// IncLoginAttempts bumps the failed-attempt counter and returns the new
	// value so the caller can decide whether to lock the account.
	IncLoginAttempts(ctx context.Context, id string) (int, error)
	ResetLoginAttempts(ctx context.Context, id string) error
	Lock(ctx context.Context, id string, until time.Time) error
}
