package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/example/candleshop/pkg/auth"
	"github.com/example/candleshop/pkg/models"
	"github.com/example/candleshop/pkg/repository"
)

type RegisterInput struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileInput holds the profile fields to change; nil fields are kept.
type ProfileInput struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,min=1"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
	City    *string `json:"city,omitempty"`
	Country *string `json:"country,omitempty"`
}

type PasswordInput struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// Session is returned by register and login.
type Session struct {
	User  *models.User `json:"user"`
	Token string       `json:"token"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Email = normalizeEmail(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if err := s.check(in); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, s.fail(ctx, "hash password", err)
	}

	now := s.now()
	user := &models.User{
		ID:        repository.NewID(),
		Name:      in.Name,
		Email:     in.Email,
		Password:  hash,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(KindConflict, "User already exists")
		}
		return nil, s.fail(ctx, "register", err)
	}

	s.log(ctx).Info("User registered", zap.String("user_id", user.ID))
	return s.session(ctx, user)
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}

	invalid := newError(KindUnauthorized, "Invalid email or password")
	user, err := s.store.GetUserByEmail(ctx, normalizeEmail(in.Email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, invalid
	}
	if err != nil {
		return nil, s.fail(ctx, "login", err)
	}

	if err := auth.ComparePassword(user.Password, in.Password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.log(ctx).Warn("Stored password hash is unusable", zap.String("user_id", user.ID), zap.Error(err))
		}
		return nil, invalid
	}
	return s.session(ctx, user)
}

func (s *Service) session(ctx context.Context, user *models.User) (*Session, error) {
	token, err := s.tokens.IssueToken(user)
	if err != nil {
		return nil, s.fail(ctx, "issue token", err)
	}
	return &Session{User: user, Token: token}, nil
}

// Authenticate resolves a bearer token to a current user record, so deleted
// accounts and role changes take effect immediately.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, newError(KindUnauthorized, "Not authorized, no token")
	}
	claims, err := s.tokens.VerifyToken(token)
	if err != nil {
		return nil, &Error{Kind: KindUnauthorized, Message: "Not authorized, token failed", Err: err}
	}

	user, err := s.store.GetUser(ctx, claims.UserID())
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(KindUnauthorized, "Not authorized, token failed")
	}
	if err != nil {
		return nil, s.fail(ctx, "authenticate", err)
	}
	return user, nil
}

func (s *Service) Me(ctx context.Context, caller *models.User) (*models.User, error) {
	if err := requireUser(caller); err != nil {
		return nil, err
	}
	user, err := s.store.GetUser(ctx, caller.ID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, newError(KindNotFound, "User not found")
	}
	if err != nil {
		return nil, s.fail(ctx, "get user", err)
	}
	return user, nil
}

func (s *Service) UpdateProfile(ctx context.Context, caller *models.User, in ProfileInput) (*models.User, error) {
	if in.Email != nil {
		email := normalizeEmail(*in.Email)
		in.Email = &email
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	if err := s.check(in); err != nil {
		return nil, err
	}

	user, err := s.Me(ctx, caller)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Email != nil {
		user.Email = *in.Email
	}
	if in.Phone != nil {
		user.Phone = *in.Phone
	}
	if in.Address != nil {
		user.Address = *in.Address
	}
	if in.City != nil {
		user.City = *in.City
	}
	if in.Country != nil {
		user.Country = *in.Country
	}
	user.UpdatedAt = s.now()

	if err := s.store.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, newError(KindConflict, "Email is already in use")
		}
		return nil, s.fail(ctx, "update profile", err)
	}
	return user, nil
}

func (s *Service) ChangePassword(ctx context.Context, caller *models.User, in PasswordInput) error {
	if err := s.check(in); err != nil {
		return err
	}
	user, err := s.Me(ctx, caller)
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(user.Password, in.CurrentPassword); err != nil {
		return newError(KindValidation, "Current password is incorrect")
	}

	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		return s.fail(ctx, "hash password", err)
	}
	user.Password = hash
	user.UpdatedAt = s.now()
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return s.fail(ctx, "change password", err)
	}
	s.log(ctx).Info("Password changed", zap.String("user_id", user.ID))
	return nil
}
