package service

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hecopilot/copilot-backend/internal/apperr"
	"github.com/hecopilot/copilot-backend/internal/logging"
	"github.com/hecopilot/copilot-backend/internal/users/domain"
)

type Repository interface {
	Upsert(ctx context.Context, req domain.RegisterRequest) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, email string, req domain.UpdateUserRequest) (*domain.User, error)
}

type UserService struct {
	repo     Repository
	validate *validator.Validate
}

func NewUserService(repo Repository) *UserService {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names so errors match the request body
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return &UserService{repo: repo, validate: v}
}

// Register creates the user or refreshes the non-blank fields of an existing one.
func (s *UserService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	req.Institution = strings.TrimSpace(req.Institution)
	req.Role = strings.ToLower(strings.TrimSpace(req.Role))

	if err := s.check(req); err != nil {
		return nil, err
	}

	u, err := s.repo.Upsert(ctx, req)
	if err != nil {
		logging.New(ctx).LogError("users.register", err)
		return nil, apperr.Propagate("register user", err)
	}
	return u, nil
}

// GetByEmail retrieves a user by email
func (s *UserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, apperr.Unauthorized("token has no email claim")
	}

	u, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, apperr.NotFound("user not found", err)
	}
	if err != nil {
		return nil, apperr.Propagate("load user", err)
	}
	return u, nil
}

// Update updates user information
func (s *UserService) Update(ctx context.Context, email string, req domain.UpdateUserRequest) (*domain.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, apperr.Unauthorized("token has no email claim")
	}
	if req.Role != nil {
		role := strings.ToLower(strings.TrimSpace(*req.Role))
		req.Role = &role
	}
	if err := s.check(req); err != nil {
		return nil, err
	}

	u, err := s.repo.Update(ctx, email, req)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, apperr.NotFound("user not found", err)
	}
	if err != nil {
		return nil, apperr.Propagate("update user", err)
	}
	return u, nil
}

func (s *UserService) check(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := fe.Field()
		if fe.Tag() == "required" {
			return apperr.InvalidInput("Missing %s", field)
		}
		return apperr.InvalidInput("Invalid %s", field)
	}
	return apperr.InvalidInput("%v", err)
}
