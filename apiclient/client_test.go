package apiclient_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/jrsteele09/go-storefront-client/apiclient"
	"github.com/jrsteele09/go-storefront-client/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type recordedCall struct {
	Auth      string
	Body      string
	RequestID string
}

// scriptedAPI accepts a fixed set of access tokens and exchanges known refresh
// tokens for new access tokens
type scriptedAPI struct {
	mu            sync.Mutex
	valid         map[string]bool
	refreshes     map[string]string
	rejectAll     bool
	refreshStatus int
	refreshCalls  []recordedCall
	calls         map[string][]recordedCall
}

func newScriptedAPI() *scriptedAPI {
	return &scriptedAPI{
		valid:     map[string]bool{},
		refreshes: map[string]string{"r1": "t2"},
		calls:     map[string][]recordedCall{},
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *scriptedAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)
	call := recordedCall{
		Auth:      r.Header.Get("Authorization"),
		Body:      string(raw),
		RequestID: r.Header.Get("X-Request-ID"),
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	switch r.URL.Path {
	case "/api/auth/refresh":
		a.refreshCalls = append(a.refreshCalls, call)
		if a.refreshStatus != 0 {
			writeJSON(w, a.refreshStatus, map[string]string{"error": "refresh rejected"})
			return
		}
		next, ok := a.refreshes[strings.TrimPrefix(call.Auth, "Bearer ")]
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "bad refresh token"})
			return
		}
		a.valid[next] = true
		writeJSON(w, http.StatusOK, map[string]string{"access_token": next})
		return
	case "/api/auth/refresh-broken":
		a.refreshCalls = append(a.refreshCalls, call)
		hj, _ := w.(http.Hijacker)
		conn, _, _ := hj.Hijack()
		_ = conn.Close()
		return
	}

	a.calls[r.URL.Path] = append(a.calls[r.URL.Path], call)

	switch r.URL.Path {
	case "/api/public":
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid username or password"})
		return
	case "/api/boom":
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "database down"})
		return
	case "/api/aborted":
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Product ID is required"})
		return
	case "/api/plain":
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>upstream</html>"))
		return
	case "/api/empty":
		w.WriteHeader(http.StatusNoContent)
		return
	}

	token := strings.TrimPrefix(call.Auth, "Bearer ")
	if a.rejectAll || !a.valid[token] {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Token has expired"})
		return
	}
	writeJSON(w, http.StatusOK, []map[string]any{{"id": 1, "name": "Premium Coffee", "price": 12.99}})
}

func (a *scriptedAPI) callsTo(path string) []recordedCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]recordedCall(nil), a.calls[path]...)
}

// set mutates the script under its lock
func (a *scriptedAPI) set(fn func(a *scriptedAPI)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn(a)
}

func (a *scriptedAPI) refreshAuth(i int) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.refreshCalls[i].Auth
}

func (a *scriptedAPI) refreshCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.refreshCalls)
}

type fixture struct {
	api    *scriptedAPI
	server *httptest.Server
	store  *session.MemoryStore
	client *apiclient.Client
}

func newFixture(t *testing.T, opts ...apiclient.Option) *fixture {
	t.Helper()

	api := newScriptedAPI()
	server := httptest.NewServer(api)
	t.Cleanup(server.Close)

	store := session.NewMemoryStore()
	opts = append([]apiclient.Option{apiclient.WithLogger(zerolog.Nop())}, opts...)
	client, err := apiclient.New(server.URL, store, opts...)
	require.NoError(t, err)

	return &fixture{api: api, server: server, store: store, client: client}
}

type product struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

func TestBearerHeader(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.api.set(func(a *scriptedAPI) { a.valid["t1"] = true })

	var out []product
	require.ErrorIs(t, f.client.Get(ctx, "/api/products", &out), apiclient.ErrUnauthenticated)
	require.Equal(t, "", f.api.callsTo("/api/products")[0].Auth, "no header without a token")

	f.store.Set(ctx, "t1", "r1")
	require.NoError(t, f.client.Get(ctx, "/api/products", &out))
	require.Equal(t, "Bearer t1", f.api.callsTo("/api/products")[1].Auth)
	require.Equal(t, []product{{ID: 1, Name: "Premium Coffee", Price: 12.99}}, out)
}

func TestExpiredAccessTokenRefreshesAndReplays(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.Set(ctx, "t1", "r1")

	var out []product
	require.NoError(t, f.client.Get(ctx, "/api/products", &out))
	require.Len(t, out, 1)

	require.Equal(t, 1, f.api.refreshCount())
	require.Equal(t, "Bearer r1", f.api.refreshAuth(0))
	require.Equal(t, session.Session{AccessToken: "t2", RefreshToken: "r1"}, f.store.Get(ctx))

	calls := f.api.callsTo("/api/products")
	require.Len(t, calls, 2, "original request plus exactly one replay")
	require.Equal(t, "Bearer t1", calls[0].Auth)
	require.Equal(t, "Bearer t2", calls[1].Auth)
	require.Equal(t, calls[0].RequestID, calls[1].RequestID)
	require.NotEmpty(t, calls[0].RequestID)
}

func TestReplaySendsSameBody(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.Set(ctx, "t1", "r1")

	body := map[string]any{"product_id": 5, "quantity": 2}
	require.NoError(t, f.client.Post(ctx, "/api/cart", body, nil))

	calls := f.api.callsTo("/api/cart")
	require.Len(t, calls, 2)
	require.JSONEq(t, `{"product_id":5,"quantity":2}`, calls[0].Body)
	require.Equal(t, calls[0].Body, calls[1].Body)
}

func TestUnauthorizedWithoutRefreshToken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.Set(ctx, "t1", "")

	err := f.client.Get(ctx, "/api/cart", nil)
	require.ErrorIs(t, err, apiclient.ErrUnauthenticated)
	require.Equal(t, 0, f.api.refreshCount())
	require.Len(t, f.api.callsTo("/api/cart"), 1)
	require.True(t, f.store.Get(ctx).IsEmpty())
}

func TestRefreshRejectedClearsSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.api.set(func(a *scriptedAPI) { a.refreshStatus = http.StatusUnauthorized })
	f.store.Set(ctx, "t1", "r1")

	err := f.client.Get(ctx, "/api/cart", nil)
	require.ErrorIs(t, err, apiclient.ErrUnauthenticated)
	require.Equal(t, 1, f.api.refreshCount())
	require.Len(t, f.api.callsTo("/api/cart"), 1, "no replay after a failed refresh")
	require.True(t, f.store.Get(ctx).IsEmpty())
}

func TestRefreshNetworkErrorClearsSession(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, apiclient.WithRefreshPath("/api/auth/refresh-broken"))
	f.store.Set(ctx, "t1", "r1")

	err := f.client.Get(ctx, "/api/cart", nil)
	require.ErrorIs(t, err, apiclient.ErrUnauthenticated)

	var netErr *apiclient.NetworkError
	require.ErrorAs(t, err, &netErr)
	require.True(t, f.store.Get(ctx).IsEmpty())
}

func TestReplayRejectedDoesNotLoop(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.api.set(func(a *scriptedAPI) { a.rejectAll = true })
	f.store.Set(ctx, "t1", "r1")

	err := f.client.Get(ctx, "/api/cart", nil)
	require.ErrorIs(t, err, apiclient.ErrUnauthenticated)
	require.Equal(t, 1, f.api.refreshCount())
	require.Len(t, f.api.callsTo("/api/cart"), 2)
	require.True(t, f.store.Get(ctx).IsEmpty())
}

func TestNon401ErrorsAreNotRefreshed(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		status   int
		message  string
		fromBody bool
	}{
		{name: "error field", path: "/api/boom", status: http.StatusInternalServerError, message: "database down", fromBody: true},
		{name: "message field", path: "/api/aborted", status: http.StatusBadRequest, message: "Product ID is required", fromBody: true},
		{name: "non json body", path: "/api/plain", status: http.StatusBadGateway, message: "Bad Gateway"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			f.store.Set(ctx, "t1", "r1")

			err := f.client.Get(ctx, tt.path, nil)
			var httpErr *apiclient.HTTPError
			require.ErrorAs(t, err, &httpErr)
			require.Equal(t, tt.status, httpErr.Status)
			require.Equal(t, tt.message, httpErr.Message)
			require.Equal(t, tt.fromBody, httpErr.FromBody)
			require.True(t, apiclient.IsStatus(err, tt.status))
			require.Equal(t, 0, f.api.refreshCount())
			require.Equal(t, session.Session{AccessToken: "t1", RefreshToken: "r1"}, f.store.Get(ctx))
		})
	}
}

func TestNoContentResponse(t *testing.T) {
	f := newFixture(t)
	var out map[string]any
	require.NoError(t, f.client.Delete(context.Background(), "/api/empty", &out))
	require.Nil(t, out)
}

func TestAnonymousRequestNeverRefreshes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.Set(ctx, "t1", "r1")

	err := f.client.Post(ctx, "/api/public", map[string]string{"username": "a"}, nil, apiclient.Anonymous())
	require.False(t, errors.Is(err, apiclient.ErrUnauthenticated))
	require.True(t, apiclient.IsStatus(err, http.StatusUnauthorized))
	require.Equal(t, "", f.api.callsTo("/api/public")[0].Auth)
	require.Equal(t, 0, f.api.refreshCount())
	require.False(t, f.store.Get(ctx).IsEmpty())
}

func TestRequireSessionSkipsRequest(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	err := f.client.Post(ctx, "/api/cart", map[string]int{"product_id": 5}, nil, apiclient.RequireSession())
	require.ErrorIs(t, err, apiclient.ErrUnauthenticated)
	require.Empty(t, f.api.callsTo("/api/cart"))
	require.Equal(t, 0, f.api.refreshCount())
}

func TestNetworkError(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.server.Close()

	err := f.client.Get(ctx, "/api/products", nil)
	var netErr *apiclient.NetworkError
	require.ErrorAs(t, err, &netErr)
	require.Equal(t, http.MethodGet, netErr.Method)
	require.Equal(t, "/api/products", netErr.Path)
}

func TestConcurrentExpiryRefreshesOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.store.Set(ctx, "t1", "r1")

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- f.client.Get(ctx, "/api/products", nil)
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	require.Equal(t, 1, f.api.refreshCount())
	require.Equal(t, session.Session{AccessToken: "t2", RefreshToken: "r1"}, f.store.Get(ctx))
}

func TestNewValidatesArguments(t *testing.T) {
	_, err := apiclient.New("not a url", session.NewMemoryStore())
	require.Error(t, err)

	_, err = apiclient.New("http://localhost:5000", nil)
	require.Error(t, err)

	c, err := apiclient.New("http://localhost:5000/", session.NewMemoryStore())
	require.NoError(t, err)
	require.NotNil(t, c.Store())
}
