package fakeapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jrsteele09/go-storefront-client/storefront/fakeapi"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func do(t *testing.T, h http.Handler, method, path, bearer string, body any) (int, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	out := map[string]any{}
	if strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec.Code, out
}

func TestLoginAndRefresh(t *testing.T) {
	api := fakeapi.New()
	h := api.Handler()

	status, body := do(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": fakeapi.AdminUsername, "password": fakeapi.AdminPassword,
	})
	require.Equal(t, http.StatusOK, status)
	access, _ := body["access_token"].(string)
	refresh, _ := body["refresh_token"].(string)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)

	status, _ = do(t, h, http.MethodPost, "/api/auth/refresh", access, nil)
	require.Equal(t, http.StatusUnauthorized, status, "an access token cannot refresh")

	status, body = do(t, h, http.MethodPost, "/api/auth/refresh", refresh, nil)
	require.Equal(t, http.StatusOK, status)
	require.NotEmpty(t, body["access_token"])

	status, _ = do(t, h, http.MethodGet, "/api/cart", refresh, nil)
	require.Equal(t, http.StatusUnauthorized, status, "a refresh token cannot call the API")
	require.Equal(t, 2, api.Calls("POST /api/auth/refresh"))
}

func TestLoginValidation(t *testing.T) {
	h := fakeapi.New().Handler()

	status, body := do(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "admin"})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "Username and password are required", body["error"])

	status, body = do(t, h, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": "fresh", "email": "admin@example.com", "password": "x",
	})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "Email already exists", body["error"])
}

func TestAccessTokenExpiry(t *testing.T) {
	now := time.Now()
	api := fakeapi.New(fakeapi.WithNowTime(func() time.Time { return now }), fakeapi.WithAccessTTL(time.Minute))
	h := api.Handler()

	access, refresh, err := api.IssueTokens(fakeapi.TestUsername)
	require.NoError(t, err)

	status, _ := do(t, h, http.MethodGet, "/api/cart", access, nil)
	require.Equal(t, http.StatusOK, status)

	now = now.Add(2 * time.Minute)
	status, body := do(t, h, http.MethodGet, "/api/cart", access, nil)
	require.Equal(t, http.StatusUnauthorized, status)
	require.Equal(t, "Token has expired or is invalid", body["error"])

	status, _ = do(t, h, http.MethodPost, "/api/auth/refresh", refresh, nil)
	require.Equal(t, http.StatusOK, status)
}

func TestSwitches(t *testing.T) {
	api := fakeapi.New()
	h := api.Handler()
	access, refresh, err := api.IssueTokens(fakeapi.TestUsername)
	require.NoError(t, err)

	api.RejectAllAccessTokens(true)
	status, _ := do(t, h, http.MethodGet, "/api/products/my", access, nil)
	require.Equal(t, http.StatusUnauthorized, status)
	api.RejectAllAccessTokens(false)

	api.ExpireAccessTokens()
	status, _ = do(t, h, http.MethodGet, "/api/products/my", access, nil)
	require.Equal(t, http.StatusUnauthorized, status)

	api.RejectRefresh(true)
	status, _ = do(t, h, http.MethodPost, "/api/auth/refresh", refresh, nil)
	require.Equal(t, http.StatusUnauthorized, status)

	require.Equal(t, []string{"Bearer " + access, "Bearer " + access}, api.AuthHeaders("GET /api/products/my"))
	api.ResetCalls()
	require.Zero(t, api.Calls("GET /api/products/my"))
}

func TestProductRules(t *testing.T) {
	api := fakeapi.New()
	h := api.Handler()
	admin, _, err := api.IssueTokens(fakeapi.AdminUsername)
	require.NoError(t, err)
	user, _, err := api.IssueTokens(fakeapi.TestUsername)
	require.NoError(t, err)

	status, body := do(t, h, http.MethodPost, "/api/products", user, map[string]any{"name": "Tea", "price": 2})
	require.Equal(t, http.StatusForbidden, status)
	require.Equal(t, "Only admins can create products", body["error"])

	status, body = do(t, h, http.MethodPost, "/api/products", admin, map[string]any{"name": "Tea", "price": "two"})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "Invalid price format", body["error"])

	status, body = do(t, h, http.MethodPost, "/api/products", admin, map[string]any{"name": "Tea", "price": "2.50"})
	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, 2.5, body["price"])

	status, _ = do(t, h, http.MethodPost, "/api/cart", user, map[string]any{"product_id": 1})
	require.Equal(t, http.StatusOK, status)

	status, _ = do(t, h, http.MethodDelete, "/api/products/1", user, nil)
	require.Equal(t, http.StatusForbidden, status)
	status, _ = do(t, h, http.MethodDelete, "/api/products/1", admin, nil)
	require.Equal(t, http.StatusOK, status)

	status, body = do(t, h, http.MethodPost, "/api/cart", user, map[string]any{})
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "Product ID is required", body["error"])
}
