package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/Skotchmaster/order_backend/internal/events"
	"github.com/Skotchmaster/order_backend/internal/models"
	"github.com/Skotchmaster/order_backend/internal/repo"
	"github.com/Skotchmaster/order_backend/internal/transport"
	pkg_hash "github.com/Skotchmaster/order_backend/pkg/hash"
	"github.com/Skotchmaster/order_backend/pkg/logging"
	"gorm.io/gorm"
)

const minPasswordLen = 6

type UserService struct {
	Repo        *repo.GormRepo
	Events      events.Publisher
	BcryptCost  int
	AdminEmails []string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkEmail(email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return fmt.Errorf("%w: invalid email", ErrValidation)
	}
	return nil
}

func checkPassword(password string) error {
	if len(password) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}
	return nil
}

func (s *UserService) roleFor(email string) string {
	if slices.ContainsFunc(s.AdminEmails, func(a string) bool { return strings.EqualFold(a, email) }) {
		return models.RoleAdmin
	}
	return models.RoleUser
}

func (s *UserService) Register(ctx context.Context, req transport.RegisterRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "user.register")

	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)
	if err := checkEmail(email); err != nil {
		return nil, err
	}
	if err := checkPassword(req.Password); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}

	pwHash, err := pkg_hash.HashPassword(req.Password, s.BcryptCost)
	if err != nil {
		l.Error("register_error", "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := models.User{
		Email:        email,
		PasswordHash: pwHash,
		Name:         name,
		Role:         s.roleFor(email),
	}

	err = s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		taken, err := tx.EmailTaken(ctx, email, 0)
		if err != nil {
			return err
		}
		if taken {
			return fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return tx.CreateUser(ctx, &user)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, err
	}

	publish(ctx, s.Events, events.TopicUsers, strconv.FormatUint(uint64(user.ID), 10), map[string]any{
		"type":   "user_registered",
		"userID": user.ID,
		"email":  user.Email,
	})
	l.Info("user_registered", "user_id", user.ID)

	user.PasswordHash = ""
	return &user, nil
}

// FindByEmail returns the full record including the password hash.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := s.Repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user", ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) FindByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.Repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// UpdateUser applies only the supplied fields. The password is re-hashed only when present.
func (s *UserService) UpdateUser(ctx context.Context, callerID, id uint, req transport.UpdateUserRequest) (*transport.UpdatedUserResponse, error) {
	l := logging.FromContext(ctx).With("svc", "user.update", "user_id", id)

	if callerID != id {
		return nil, fmt.Errorf("%w: cannot modify another user", ErrForbidden)
	}

	fields := map[string]any{}
	var email string
	if req.Email != nil {
		email = normalizeEmail(*req.Email)
		if err := checkEmail(email); err != nil {
			return nil, err
		}
		fields["email"] = email
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrValidation)
		}
		fields["name"] = name
	}
	if req.Password != nil {
		if err := checkPassword(*req.Password); err != nil {
			return nil, err
		}
		pwHash, err := pkg_hash.HashPassword(*req.Password, s.BcryptCost)
		if err != nil {
			l.Error("update_user_error", "reason", "cannot hash the password", "error", err)
			return nil, err
		}
		fields["password_hash"] = pwHash
	}

	var user *models.User
	err := s.Repo.InTx(ctx, func(tx *repo.GormRepo) error {
		if email != "" {
			taken, err := tx.EmailTaken(ctx, email, id)
			if err != nil {
				return err
			}
			if taken {
				return fmt.Errorf("%w: email already registered", ErrConflict)
			}
		}

		updated, err := tx.UpdateUserFields(ctx, id, fields)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: user %d", ErrNotFound, id)
			}
			return err
		}
		user = updated
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("%w: email already registered", ErrConflict)
		}
		return nil, err
	}

	changed := make([]string, 0, len(fields))
	for k := range fields {
		if k != "password_hash" {
			changed = append(changed, k)
		}
	}
	slices.Sort(changed)
	publish(ctx, s.Events, events.TopicUsers, strconv.FormatUint(uint64(user.ID), 10), map[string]any{
		"type":            "user_updated",
		"userID":          user.ID,
		"fields":          changed,
		"passwordChanged": req.Password != nil,
	})

	return &transport.UpdatedUserResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
	}, nil
}
