package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Skotchmaster/order_backend/internal/models"
	pkg_hash "github.com/Skotchmaster/order_backend/pkg/hash"
	"github.com/Skotchmaster/order_backend/pkg/logging"
	"github.com/Skotchmaster/order_backend/pkg/tokens"
)

const defaultAccessTTL = time.Hour

type AuthService struct {
	Users     *UserService
	JWTSecret []byte
	AccessTTL time.Duration
}

type LoginResult struct {
	AccessToken string
	AccessExp   time.Time
	UserID      uint
	IsAdmin     bool
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login")

	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password required", ErrValidation)
	}

	user, err := s.Users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			l.Warn("login failed", "reason", "unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, password) {
		l.Warn("login failed", "reason", "wrong password", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	ttl := s.AccessTTL
	if ttl <= 0 {
		ttl = defaultAccessTTL
	}
	accessExp := time.Now().Add(ttl)
	accessToken, err := tokens.CreateAccessToken(s.JWTSecret, user.Role, strconv.FormatUint(uint64(user.ID), 10), accessExp)
	if err != nil {
		l.Error("login failed", "reason", "cannot sign token", "error", err)
		return nil, err
	}

	return &LoginResult{
		AccessToken: accessToken,
		AccessExp:   accessExp,
		UserID:      user.ID,
		IsAdmin:     user.Role == models.RoleAdmin,
	}, nil
}
