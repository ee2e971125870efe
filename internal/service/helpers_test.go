package service

import (
	"fmt"
	"testing"

	"github.com/Skotchmaster/order_backend/internal/events"
	"github.com/Skotchmaster/order_backend/internal/models"
	"github.com/Skotchmaster/order_backend/internal/repo"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func InitTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to ":memory:" is a fresh database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

type testEnv struct {
	DB       *gorm.DB
	Repo     *repo.GormRepo
	Events   *events.Recorder
	Orders   *OrderService
	Users    *UserService
	Products *ProductService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := InitTestDB(t)
	r := &repo.GormRepo{DB: db}
	rec := &events.Recorder{}

	users := &UserService{Repo: r, Events: rec, BcryptCost: 4, AdminEmails: []string{"admin@example.com"}}
	return &testEnv{
		DB:       db,
		Repo:     r,
		Events:   rec,
		Orders:   &OrderService{Repo: r, Events: rec},
		Users:    users,
		Products: &ProductService{Repo: r, Events: rec},
	}
}

func (env *testEnv) seedUser(t *testing.T, email string) models.User {
	t.Helper()
	u := models.User{Email: email, Name: "user " + email, PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, env.DB.Create(&u).Error)
	return u
}

func (env *testEnv) seedProduct(t *testing.T, name, price string) models.Product {
	t.Helper()
	p := models.Product{Name: name, Description: fmt.Sprintf("%s description", name), Price: decimal.RequireFromString(price), Stock: 10}
	require.NoError(t, env.DB.Create(&p).Error)
	return p
}

func (env *testEnv) count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.DB.Model(model).Count(&n).Error)
	return n
}
