package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/expensio/expensio-be/internal/auth"
	"github.com/expensio/expensio-be/internal/config"
	"github.com/expensio/expensio-be/internal/database"
	"github.com/expensio/expensio-be/internal/services"
)

func newTestRouter(t *testing.T) http.Handler {
	db, err := database.New(":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { db.Close() })

	issuer := auth.NewIssuer("test-secret", time.Hour)
	cfg := &config.Config{AllowedOrigins: []string{"*"}}
	return NewRouter(cfg, services.NewAuthService(db, issuer), services.NewExpenseService(db))
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, payload interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	decoded := map[string]interface{}{}
	if rec.Body.Len() > 0 {
		_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	}
	return rec, decoded
}

func registerUser(t *testing.T, router http.Handler, name, email string) string {
	rec, body := doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t)

	rec, body := doJSON(t, router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestRegisterAndDuplicate(t *testing.T) {
	router := newTestRouter(t)

	registerUser(t, router, "Alice", "alice@example.com")

	rec, body := doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Alice Again", "email": "alice@example.com", "password": "password456",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NotEmpty(t, body["error"])
}

func TestRegisterValidation(t *testing.T) {
	router := newTestRouter(t)

	rec, body := doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "A", "email": "not-an-email", "password": "123",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	details, _ := body["details"].([]interface{})
	assert.Len(t, details, 3)
}

func TestLoginFailure(t *testing.T) {
	router := newTestRouter(t)
	registerUser(t, router, "Alice", "alice@example.com")

	rec, _ := doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExpenseRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t)

	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/expenses"},
		{http.MethodPost, "/api/expenses"},
		{http.MethodGet, "/api/expenses/analytics"},
		{http.MethodGet, "/api/expenses/some-id"},
		{http.MethodGet, "/api/auth/profile"},
	}
	for _, p := range paths {
		rec, _ := doJSON(t, router, p.method, p.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", p.method, p.path)
	}
}

func TestExpenseLifecycle(t *testing.T) {
	router := newTestRouter(t)
	token := registerUser(t, router, "Alice", "alice@example.com")

	rec, body := doJSON(t, router, http.MethodPost, "/api/expenses", token, map[string]interface{}{
		"amount":      120.5,
		"category":    "Groceries",
		"paymentMode": "UPI",
		"date":        "2024-03-10",
		"notes":       "weekly shop",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	data := body["data"].(map[string]interface{})
	id := data["id"].(string)
	require.NotEmpty(t, id)

	rec, body = doJSON(t, router, http.MethodGet, "/api/expenses?page=1&limit=10", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	items := body["data"].([]interface{})
	assert.Len(t, items, 1)
	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(1), pagination["totalRecords"])

	rec, body = doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/expenses/%s", id), token, map[string]interface{}{
		"amount": 99.0,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	data = body["data"].(map[string]interface{})
	assert.Equal(t, 99.0, data["amount"])
	assert.Equal(t, "Groceries", data["category"])

	rec, body = doJSON(t, router, http.MethodGet, "/api/expenses/analytics", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	analytics := body["data"].(map[string]interface{})
	summary := analytics["summary"].(map[string]interface{})
	assert.Equal(t, 99.0, summary["totalExpenses"])

	rec, _ = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/expenses/%s", id), token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/expenses/%s", id), token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExpenseValidation(t *testing.T) {
	router := newTestRouter(t)
	token := registerUser(t, router, "Alice", "alice@example.com")

	rec, body := doJSON(t, router, http.MethodPost, "/api/expenses", token, map[string]interface{}{
		"amount":      -5,
		"category":    "Gadgets",
		"paymentMode": "Barter",
		"date":        "2024-03-10",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Validation failed", body["error"])

	rec, _ = doJSON(t, router, http.MethodGet, "/api/expenses?dateFilter=lastCentury", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCrossUserAccessIsNotFound(t *testing.T) {
	router := newTestRouter(t)
	tokenA := registerUser(t, router, "Alice", "alice@example.com")
	tokenB := registerUser(t, router, "Bob", "bob@example.com")

	rec, body := doJSON(t, router, http.MethodPost, "/api/expenses", tokenA, map[string]interface{}{
		"amount": 10.0, "category": "Travel", "paymentMode": "Cash", "date": "2024-01-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	id := body["data"].(map[string]interface{})["id"].(string)

	rec, _ = doJSON(t, router, http.MethodGet, "/api/expenses/"+id, tokenB, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = doJSON(t, router, http.MethodDelete, "/api/expenses/"+id, tokenB, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Still intact for the owner.
	rec, _ = doJSON(t, router, http.MethodGet, "/api/expenses/"+id, tokenA, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestProfileFlow(t *testing.T) {
	router := newTestRouter(t)
	token := registerUser(t, router, "Alice", "alice@example.com")

	rec, body := doJSON(t, router, http.MethodGet, "/api/auth/profile", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alice", body["name"])

	// Unknown fields are dropped, not rejected; email stays put.
	rec, body = doJSON(t, router, http.MethodPut, "/api/auth/profile", token, map[string]string{
		"name": "Alicia", "email": "evil@example.com", "role": "admin",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Alicia", body["name"])
	assert.Equal(t, "alice@example.com", body["email"])
	assert.Equal(t, "user", body["role"])
}

func TestChangePasswordAndRefresh(t *testing.T) {
	router := newTestRouter(t)
	token := registerUser(t, router, "Alice", "alice@example.com")

	rec, _ := doJSON(t, router, http.MethodPost, "/api/auth/change-password", token, map[string]string{
		"currentPassword": "wrong", "newPassword": "newpassword1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = doJSON(t, router, http.MethodPost, "/api/auth/change-password", token, map[string]string{
		"currentPassword": "password123", "newPassword": "newpassword1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body := doJSON(t, router, http.MethodPost, "/api/auth/refresh", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	newToken, _ := body["token"].(string)
	require.NotEmpty(t, newToken)

	rec, _ = doJSON(t, router, http.MethodGet, "/api/auth/profile", newToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = doJSON(t, router, http.MethodPost, "/api/auth/logout", newToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
