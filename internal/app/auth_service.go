package app

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"avatar-chat/internal/model"
	"avatar-chat/internal/repository"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrEmailExists       = errors.New("email already exists")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrUserNotFound      = errors.New("user not found")
)

type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

type AuthService struct {
	users       UserStore
	bcryptCost  int
	redirectURL string
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
}

type LoginInput struct {
	Email    string
	Password string
}

// LoginResult carries no token: the caller is expected to follow RedirectURL.
type LoginResult struct {
	User        *model.User
	RedirectURL string
}

func NewAuthService(users UserStore, bcryptCost int, redirectURL string) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	if redirectURL == "" {
		redirectURL = "/chat"
	}
	return &AuthService{
		users:       users,
		bcryptCost:  bcryptCost,
		redirectURL: redirectURL,
	}
}

func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*model.User, error) {
	if missing(input.Name) || missing(input.Email) || missing(input.Password) {
		return nil, ErrInvalidInput
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), s.bcryptCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, ErrInvalidInput
		}
		return nil, fmt.Errorf("hash password failed: %w", err)
	}

	user := &model.User{
		Name:         input.Name,
		Email:        input.Email,
		PasswordHash: string(hash),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailExists
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if missing(input.Email) || missing(input.Password) {
		return nil, ErrInvalidCredential
	}

	user, err := s.users.GetByEmail(ctx, input.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredential
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredential
	}
	return &LoginResult{User: user, RedirectURL: s.redirectURL}, nil
}

// missing matches absent JSON fields and empty strings. Whitespace counts as
// a value.
func missing(s string) bool {
	return s == ""
}
