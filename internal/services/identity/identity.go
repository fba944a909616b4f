// Package identity confirms through Shahkar that a user's national ID and
// registered mobile number belong to the same person.
package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/sarrafio/api/internal/repos/users"
	pgusers "github.com/sarrafio/api/internal/repos/users/postgres"
)

var (
	ErrInvalidNationalID = errors.New("invalid national id")
	ErrNoMatch           = errors.New("national id does not match the phone number")
)

// Matcher is the Shahkar client surface.
type Matcher interface {
	Match(ctx context.Context, nationalID, mobile string) (bool, error)
}

type Service struct {
	users   users.Users
	matcher Matcher
}

func New(db *sql.DB, matcher Matcher) *Service {
	return &Service{users: pgusers.New(db), matcher: matcher}
}

// Verify checks the national ID against the user's registered phone and
// stamps the user identity-verified on a positive match.
func (s *Service) Verify(ctx context.Context, userID, nationalID string) error {
	if len(nationalID) != 10 {
		return ErrInvalidNationalID
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user: %w", err)
	}

	matched, err := s.matcher.Match(ctx, nationalID, u.Phone)
	if err != nil {
		return fmt.Errorf("identity match: %w", err)
	}

	if !matched {
		return ErrNoMatch
	}

	err = s.users.MarkIdentityVerified(ctx, u.ID, nationalID)
	if err != nil {
		return fmt.Errorf("mark identity verified: %w", err)
	}

	return nil
}
