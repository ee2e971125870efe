package service

import (
	"context"
	"testing"

	"github.com/Skotchmaster/order_backend/internal/events"
	"github.com/Skotchmaster/order_backend/internal/models"
	"github.com/Skotchmaster/order_backend/internal/transport"
	pkg_hash "github.com/Skotchmaster/order_backend/pkg/hash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestRegister(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.Users.Register(ctx, transport.RegisterRequest{
		Email:    "  Alice@Example.com ",
		Password: "secret1",
		Name:     " Alice ",
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, "Alice", user.Name)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Empty(t, user.PasswordHash)

	var stored models.User
	require.NoError(t, env.DB.First(&stored, user.ID).Error)
	assert.NotEqual(t, "secret1", stored.PasswordHash)
	assert.True(t, pkg_hash.CheckPassword(stored.PasswordHash, "secret1"))

	ev, ok := env.Events.Last(events.TopicUsers)
	require.True(t, ok)
	assert.Equal(t, "user_registered", ev.Event["type"])
	assert.Equal(t, "alice@example.com", ev.Event["email"])
}

func TestRegister_AdminEmailGetsAdminRole(t *testing.T) {
	env := newTestEnv(t)

	user, err := env.Users.Register(context.Background(), transport.RegisterRequest{
		Email:    "ADMIN@example.com",
		Password: "secret1",
		Name:     "Root",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := transport.RegisterRequest{Email: "dup@example.com", Password: "secret1", Name: "Dup"}
	_, err := env.Users.Register(ctx, req)
	require.NoError(t, err)

	req.Email = "DUP@example.com"
	_, err = env.Users.Register(ctx, req)
	assert.ErrorIs(t, err, ErrConflict)
	assert.EqualValues(t, 1, env.count(t, &models.User{}))
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		req  transport.RegisterRequest
	}{
		{name: "bad email", req: transport.RegisterRequest{Email: "nope", Password: "secret1", Name: "N"}},
		{name: "empty email", req: transport.RegisterRequest{Password: "secret1", Name: "N"}},
		{name: "short password", req: transport.RegisterRequest{Email: "a@example.com", Password: "123", Name: "N"}},
		{name: "blank name", req: transport.RegisterRequest{Email: "a@example.com", Password: "secret1", Name: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.Users.Register(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
	assert.Zero(t, env.count(t, &models.User{}))
}

func TestFindByID(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seeded := env.seedUser(t, "who@example.com")

	user, err := env.Users.FindByID(ctx, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "who@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)

	_, err = env.Users.FindByID(ctx, seeded.ID+1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	user, err := env.Users.Register(ctx, transport.RegisterRequest{Email: "me@example.com", Password: "secret1", Name: "Me"})
	require.NoError(t, err)

	resp, err := env.Users.UpdateUser(ctx, user.ID, user.ID, transport.UpdateUserRequest{
		Name:     ptr("New Me"),
		Password: ptr("another-secret"),
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, resp.ID)
	assert.Equal(t, "New Me", resp.Name)
	assert.Equal(t, "me@example.com", resp.Email)

	var stored models.User
	require.NoError(t, env.DB.First(&stored, user.ID).Error)
	assert.True(t, pkg_hash.CheckPassword(stored.PasswordHash, "another-secret"))
	assert.False(t, pkg_hash.CheckPassword(stored.PasswordHash, "secret1"))

	ev, ok := env.Events.Last(events.TopicUsers)
	require.True(t, ok)
	assert.Equal(t, "user_updated", ev.Event["type"])
	assert.Equal(t, []any{"name"}, ev.Event["fields"])
	assert.Equal(t, true, ev.Event["passwordChanged"])
}

func TestUpdateUser_OnlySuppliedFieldsChange(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	seeded := env.seedUser(t, "keep@example.com")

	resp, err := env.Users.UpdateUser(ctx, seeded.ID, seeded.ID, transport.UpdateUserRequest{})
	require.NoError(t, err)
	assert.Equal(t, seeded.Email, resp.Email)
	assert.Equal(t, seeded.Name, resp.Name)

	var stored models.User
	require.NoError(t, env.DB.First(&stored, seeded.ID).Error)
	assert.Equal(t, "x", stored.PasswordHash)
}

func TestUpdateUser_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	me := env.seedUser(t, "me@example.com")
	other := env.seedUser(t, "other@example.com")

	t.Run("another user", func(t *testing.T) {
		_, err := env.Users.UpdateUser(ctx, me.ID, other.ID, transport.UpdateUserRequest{Name: ptr("hijack")})
		assert.ErrorIs(t, err, ErrForbidden)

		var stored models.User
		require.NoError(t, env.DB.First(&stored, other.ID).Error)
		assert.Equal(t, other.Name, stored.Name)
	})

	t.Run("email in use", func(t *testing.T) {
		_, err := env.Users.UpdateUser(ctx, me.ID, me.ID, transport.UpdateUserRequest{Email: ptr("Other@Example.com")})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("own email again", func(t *testing.T) {
		resp, err := env.Users.UpdateUser(ctx, me.ID, me.ID, transport.UpdateUserRequest{Email: ptr("me@example.com")})
		require.NoError(t, err)
		assert.Equal(t, "me@example.com", resp.Email)
	})

	t.Run("invalid email", func(t *testing.T) {
		_, err := env.Users.UpdateUser(ctx, me.ID, me.ID, transport.UpdateUserRequest{Email: ptr("broken")})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("short password", func(t *testing.T) {
		_, err := env.Users.UpdateUser(ctx, me.ID, me.ID, transport.UpdateUserRequest{Password: ptr("abc")})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("empty name", func(t *testing.T) {
		_, err := env.Users.UpdateUser(ctx, me.ID, me.ID, transport.UpdateUserRequest{Name: ptr(" ")})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("deleted account", func(t *testing.T) {
		_, err := env.Users.UpdateUser(ctx, 777, 777, transport.UpdateUserRequest{Name: ptr("ghost")})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
