package profile

import (
	"context"
	"strings"

	"bookshelf/internal/apperr"
	"bookshelf/internal/user"
)

type Service struct {
	users user.Repository
}

func NewService(users user.Repository) *Service {
	return &Service{users: users}
}

func (s *Service) Get(ctx context.Context, userID string) (Profile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return Profile{}, err
	}
	return fromUser(u), nil
}

// UpdateBio replaces the user's bio. Blank bios are rejected.
func (s *Service) UpdateBio(ctx context.Context, userID, bio string) error {
	bio = strings.TrimSpace(bio)
	if bio == "" {
		return apperr.Validation("Bio is required.")
	}
	return s.users.UpdateBio(ctx, userID, bio)
}
