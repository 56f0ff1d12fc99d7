package auth

import (
	"context"
	"strings"
	"time"

	"bookshelf/internal/apperr"
	"bookshelf/internal/platform/crypto"
	"bookshelf/internal/user"
)

// ErrInvalidCredentials is returned for an unknown email and for a wrong
// password alike.
var ErrInvalidCredentials = apperr.Auth("Invalid credentials.")

type Service struct {
	users    user.Repository
	secret   string
	tokenTTL time.Duration
}

func NewService(users user.Repository, secret string, tokenTTL time.Duration) *Service {
	return &Service{users: users, secret: secret, tokenTTL: tokenTTL}
}

type SignupInput struct {
	FullName string
	Email    string
	Password string
}

type LoginResult struct {
	Token     string
	ExpiresIn int
}

// Signup registers a new user with an empty collection and no bio.
func (s *Service) Signup(ctx context.Context, in SignupInput) error {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Email = user.NormalizeEmail(in.Email)
	if in.FullName == "" || in.Email == "" || in.Password == "" {
		return apperr.Validation("All fields are required.")
	}

	hash, err := crypto.HashPassword(in.Password)
	if err != nil {
		return apperr.Internal("hash password", err)
	}

	u := &user.User{FullName: in.FullName, Email: in.Email, PasswordHash: hash}
	return s.users.Create(ctx, u)
}

// Login checks the credentials and issues a session token.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	email = user.NormalizeEmail(email)
	if email == "" || password == "" {
		return LoginResult{}, apperr.Validation("All fields are required.")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, err
	}
	if !crypto.VerifyPassword(u.PasswordHash, password) {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, _, err := crypto.GenerateToken(s.secret, u.ID, u.Email, s.tokenTTL)
	if err != nil {
		return LoginResult{}, apperr.Internal("sign token", err)
	}
	return LoginResult{Token: token, ExpiresIn: int(s.tokenTTL.Seconds())}, nil
}
