package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/Skotchmaster/order_backend/internal/events"
	"github.com/Skotchmaster/order_backend/internal/models"
	"github.com/Skotchmaster/order_backend/internal/repo"
	"github.com/Skotchmaster/order_backend/internal/service"
	"github.com/Skotchmaster/order_backend/pkg/tokens"
	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testSecret = []byte("http-test-secret")

func InitTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect to in-memory db: %v", err)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate tables: %v", err)
	}
	return db
}

type testServer struct {
	e      *echo.Echo
	db     *gorm.DB
	events *events.Recorder
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := InitTestDB(t)
	r := &repo.GormRepo{DB: db}
	rec := &events.Recorder{}

	users := &service.UserService{Repo: r, Events: rec, BcryptCost: 4, AdminEmails: []string{"admin@example.com"}}

	e := NewEcho()
	Register(e, &Deps{
		AuthHandler:    &AuthHTTP{Svc: &service.AuthService{Users: users, JWTSecret: testSecret, AccessTTL: time.Hour}},
		UserHandler:    &UserHTTP{Svc: users},
		OrderHandler:   &OrderHTTP{Svc: &service.OrderService{Repo: r, Events: rec}},
		ProductHandler: &ProductHTTP{Svc: &service.ProductService{Repo: r, Events: rec}},
		JWTSecret:      testSecret,
		Ready:          r.Ping,
	})

	return &testServer{e: e, db: db, events: rec}
}

func (s *testServer) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) user(t *testing.T, email string) (models.User, string) {
	t.Helper()
	u := models.User{Email: email, Name: "name " + email, PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, s.db.Create(&u).Error)
	return u, tokenFor(t, u.ID, u.Role)
}

func (s *testServer) product(t *testing.T, name, price string) models.Product {
	t.Helper()
	p := models.Product{Name: name, Price: decimal.RequireFromString(price), Stock: 5}
	require.NoError(t, s.db.Create(&p).Error)
	return p
}

func tokenFor(t *testing.T, userID uint, role string) string {
	t.Helper()
	tok, err := tokens.CreateAccessToken(testSecret, role, strconv.FormatUint(uint64(userID), 10), time.Now().Add(time.Hour))
	require.NoError(t, err)
	return tok
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/live", "", "").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/ready", "", "").Code)
}

func TestHealthReady_DatabaseDown(t *testing.T) {
	e := NewEcho()
	Register(e, &Deps{
		AuthHandler:    &AuthHTTP{},
		UserHandler:    &UserHTTP{},
		OrderHandler:   &OrderHTTP{},
		ProductHandler: &ProductHTTP{},
		JWTSecret:      testSecret,
		Ready:          func(context.Context) error { return errors.New("connection refused") },
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestOrders_RequireToken(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/orders/list", "/orders/1"} {
		rec := s.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
	rec := s.do(t, http.MethodPost, "/orders/create", `{"items":[]}`, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateOrder_HTTP(t *testing.T) {
	s := newTestServer(t)
	u, tok := s.user(t, "buyer@example.com")
	p1 := s.product(t, "keyboard", "10.00")
	p2 := s.product(t, "cable", "5.50")

	body := fmt.Sprintf(`{"items":[{"productId":%d,"quantity":2},{"productId":%d,"quantity":1}]}`, p1.ID, p2.ID)
	rec := s.do(t, http.MethodPost, "/orders/create", body, tok)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	out := decode(t, rec)
	assert.Equal(t, 25.5, out["totalPrice"])
	assert.Equal(t, "pending", out["status"])
	assert.NotContains(t, out, "userId")

	user := out["user"].(map[string]any)
	assert.EqualValues(t, u.ID, user["id"])
	assert.Equal(t, u.Email, user["email"])
	assert.NotContains(t, user, "passwordHash")

	items := out["items"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.EqualValues(t, p1.ID, first["productId"])
	assert.Equal(t, 10.0, first["price"])
	assert.Equal(t, "keyboard", first["product"].(map[string]any)["name"])
}

func TestCreateOrder_BadRequests(t *testing.T) {
	s := newTestServer(t)
	_, tok := s.user(t, "buyer@example.com")
	p := s.product(t, "mouse", "3.00")

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{name: "empty items", body: `{"items":[]}`, wantCode: http.StatusBadRequest},
		{name: "no body", body: "", wantCode: http.StatusBadRequest},
		{name: "zero quantity", body: fmt.Sprintf(`{"items":[{"productId":%d,"quantity":0}]}`, p.ID), wantCode: http.StatusBadRequest},
		{name: "unknown field", body: fmt.Sprintf(`{"items":[{"productId":%d,"quantity":1}],"userId":99}`, p.ID), wantCode: http.StatusBadRequest},
		{name: "malformed", body: `{"items":`, wantCode: http.StatusBadRequest},
		{name: "unknown product", body: `{"items":[{"productId":4242,"quantity":1}]}`, wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/orders/create", tt.body, tok)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}

	var n int64
	require.NoError(t, s.db.Model(&models.Order{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCreateOrder_ValidationDetails(t *testing.T) {
	s := newTestServer(t)
	_, tok := s.user(t, "buyer@example.com")

	rec := s.do(t, http.MethodPost, "/orders/create", `{"items":[{"productId":1,"quantity":-1}]}`, tok)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	out := decode(t, rec)
	assert.Equal(t, "validation failed", out["error"])
	details := out["details"].([]any)
	require.NotEmpty(t, details)
	assert.Contains(t, details[0], "items[0].quantity")
}

func TestOrderLifecycle_HTTP(t *testing.T) {
	s := newTestServer(t)
	owner, ownerTok := s.user(t, "owner@example.com")
	_, otherTok := s.user(t, "other@example.com")
	p := s.product(t, "lamp", "12.00")

	rec := s.do(t, http.MethodPost, "/orders/create", fmt.Sprintf(`{"items":[{"productId":%d,"quantity":3}]}`, p.ID), ownerTok)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	orderID := uint(decode(t, rec)["id"].(float64))
	orderPath := fmt.Sprintf("/orders/%d", orderID)

	t.Run("get", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, orderPath, "", ownerTok)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 36.0, decode(t, rec)["totalPrice"])
	})

	t.Run("foreign get", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, orderPath, "", otherTok).Code)
	})

	t.Run("non numeric id", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/orders/abc", "", ownerTok).Code)
	})

	t.Run("list", func(t *testing.T) {
		rec := s.do(t, http.MethodGet, "/orders/list", "", ownerTok)
		require.Equal(t, http.StatusOK, rec.Code)
		var list []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
		require.Len(t, list, 1)

		rec = s.do(t, http.MethodGet, "/orders/list", "", otherTok)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("patch status", func(t *testing.T) {
		rec := s.do(t, http.MethodPatch, orderPath, `{"status":"shipped"}`, ownerTok)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		out := decode(t, rec)
		assert.Equal(t, "shipped", out["status"])
		assert.EqualValues(t, owner.ID, out["userId"])
		assert.Equal(t, 36.0, out["totalPrice"])
	})

	t.Run("patch invalid status", func(t *testing.T) {
		rec := s.do(t, http.MethodPatch, orderPath, `{"status":"lost"}`, ownerTok)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("patch foreign", func(t *testing.T) {
		rec := s.do(t, http.MethodPatch, orderPath, `{"status":"cancelled"}`, otherTok)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("delete foreign", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, orderPath, "", otherTok).Code)
	})

	t.Run("delete", func(t *testing.T) {
		rec := s.do(t, http.MethodDelete, orderPath, "", ownerTok)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, orderID, decode(t, rec)["id"])

		assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, orderPath, "", ownerTok).Code)

		var items int64
		require.NoError(t, s.db.Model(&models.OrderItem{}).Count(&items).Error)
		assert.Zero(t, items)
	})
}

func TestGetOrder_HandlerDirect(t *testing.T) {
	s := newTestServer(t)
	h := &OrderHTTP{Svc: &service.OrderService{Repo: &repo.GormRepo{DB: s.db}}}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := s.e.NewContext(req, rec)
	c.SetPath("/orders/:id")
	c.SetParamNames("id")
	c.SetParamValues("0")
	c.Set("user_id", "1")

	err := h.GetOrder(c)
	require.Error(t, err)
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he))
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestRegisterLoginProfile_HTTP(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/users/register", `{"email":"new@example.com","password":"secret1","name":"New"}`, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	assert.Equal(t, "new@example.com", created["email"])
	assert.Equal(t, "user", created["role"])
	assert.NotContains(t, created, "password")
	assert.NotContains(t, created, "passwordHash")

	rec = s.do(t, http.MethodPost, "/users/register", `{"email":"new@example.com","password":"secret1","name":"Again"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPost, "/users/register", `{"email":"bad","password":"1","name":""}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/login", `{"email":"new@example.com","password":"wrong-pass"}`, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodPost, "/auth/login", `{"email":"new@example.com","password":"secret1"}`, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decode(t, rec)
	assert.Equal(t, "Bearer", login["tokenType"])
	tok, _ := login["accessToken"].(string)
	require.NotEmpty(t, tok)

	var cookie *http.Cookie
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == accessCookieName {
			cookie = ck
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	rec = s.do(t, http.MethodGet, "/users/profile", "", tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "New", decode(t, rec)["name"])

	req := httptest.NewRequest(http.MethodGet, "/users/profile", nil)
	req.AddCookie(&http.Cookie{Name: accessCookieName, Value: cookie.Value})
	cookieRec := httptest.NewRecorder()
	s.e.ServeHTTP(cookieRec, req)
	assert.Equal(t, http.StatusOK, cookieRec.Code)
}

func TestUpdateUser_HTTP(t *testing.T) {
	s := newTestServer(t)
	me, myTok := s.user(t, "me@example.com")
	other, _ := s.user(t, "other@example.com")

	rec := s.do(t, http.MethodPatch, fmt.Sprintf("/users/%d", me.ID), `{"name":"Renamed"}`, myTok)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Renamed", decode(t, rec)["name"])

	rec = s.do(t, http.MethodPatch, fmt.Sprintf("/users/%d", other.ID), `{"name":"Hijack"}`, myTok)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPatch, fmt.Sprintf("/users/%d", me.ID), `{"email":"other@example.com"}`, myTok)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodPatch, fmt.Sprintf("/users/%d", me.ID), `{"role":"admin"}`, myTok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProducts_HTTP(t *testing.T) {
	s := newTestServer(t)
	_, userTok := s.user(t, "shopper@example.com")
	adminTok := tokenFor(t, 999, models.RoleAdmin)

	rec := s.do(t, http.MethodPost, "/products", `{"name":"Kettle","price":19.99,"stock":3}`, userTok)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPost, "/products", `{"name":"Kettle","description":"steel","price":19.99,"stock":3}`, adminTok)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode(t, rec)
	assert.Equal(t, 19.99, created["price"])
	productPath := fmt.Sprintf("/products/%d", uint(created["id"].(float64)))

	for i := 0; i < 4; i++ {
		s.product(t, fmt.Sprintf("mug %d", i), "4.00")
	}

	rec = s.do(t, http.MethodGet, "/products?page=2&size=2", "", userTok)
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode(t, rec)
	meta := page["meta"].(map[string]any)
	assert.EqualValues(t, 5, meta["total"])
	assert.EqualValues(t, 3, meta["total_pages"])
	assert.Equal(t, true, meta["has_prev"])
	assert.Equal(t, true, meta["has_next"])
	assert.Len(t, page["data"], 2)

	rec = s.do(t, http.MethodGet, "/products/search?q=MUG", "", userTok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 4, decode(t, rec)["meta"].(map[string]any)["total"])

	rec = s.do(t, http.MethodGet, "/products/search", "", userTok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPatch, productPath, `{"price":"21.50"}`, adminTok)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 21.5, decode(t, rec)["price"])
	assert.Equal(t, "Kettle", decode(t, rec)["name"])

	rec = s.do(t, http.MethodDelete, productPath, "", adminTok)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, productPath, "", userTok).Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, productPath, "", adminTok).Code)

	ev, ok := s.events.Last(events.TopicProducts)
	require.True(t, ok)
	assert.Equal(t, "product_deleted", ev.Event["type"])
}
