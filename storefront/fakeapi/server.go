// Package fakeapi is an in-process stand-in for the ShopSphere backend. It
// implements the HTTP contract the client consumes (auth, products, cart) and
// exposes switches for driving the client's token refresh paths.
package fakeapi

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Seeded accounts, matching the backend's development data
const (
	AdminUsername = "admin"
	AdminPassword = "admin123"
	TestUsername  = "test"
	TestPassword  = "test123"
)

const (
	roleAdmin = "admin"
	roleUser  = "user"
)

type user struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash []byte
	Role         string
}

type product struct {
	ID          int64
	Name        string
	Description string
	Price       float64
	UserID      int64
}

type cartItem struct {
	ID        int64
	UserID    int64
	ProductID int64
	Quantity  int
}

// Server holds the fake backend state. All methods are safe for concurrent use.
type Server struct {
	mu        sync.Mutex
	secret    []byte
	now       func() time.Time
	accessTTL time.Duration
	hashCost  int
	engine    *gin.Engine

	users      map[int64]*user
	usernames  map[string]int64
	products   map[int64]*product
	cart       map[int64]*cartItem
	nextUserID int64
	nextProdID int64
	nextCartID int64

	issuedAccess  map[string]struct{}
	revokedAccess map[string]struct{}
	rejectAccess  bool
	rejectRefresh bool

	calls       map[string]int
	authHeaders map[string][]string
}

type Option func(*Server)

// WithNowTime sets the clock used for token issue and validation
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Server) {
		s.now = nowFunc
	}
}

// WithAccessTTL sets the lifetime of issued access tokens (default 1h)
func WithAccessTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.accessTTL = ttl
	}
}

// WithSecret sets the HS256 signing key (random by default)
func WithSecret(secret []byte) Option {
	return func(s *Server) {
		s.secret = secret
	}
}

// New creates a fake backend seeded with the admin and test accounts
func New(opts ...Option) *Server {
	s := &Server{
		secret:        []byte(uuid.NewString()),
		now:           time.Now,
		accessTTL:     defaultAccessTTL,
		hashCost:      bcrypt.MinCost,
		users:         make(map[int64]*user),
		usernames:     make(map[string]int64),
		products:      make(map[int64]*product),
		cart:          make(map[int64]*cartItem),
		issuedAccess:  make(map[string]struct{}),
		revokedAccess: make(map[string]struct{}),
		calls:         make(map[string]int),
		authHeaders:   make(map[string][]string),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mustAddUser(AdminUsername, "admin@example.com", AdminPassword, roleAdmin)
	s.mustAddUser(TestUsername, "test@example.com", TestPassword, roleUser)

	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), s.recordCall)
	s.initRoutes()
	return s
}

// Handler returns the gin engine serving the API
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start serves the API on a loopback listener. Close the returned server when done.
func (s *Server) Start() *httptest.Server {
	return httptest.NewServer(s.engine)
}

func (s *Server) initRoutes() {
	api := s.engine.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/signup", s.signup)
	authGroup.POST("/login", s.login)
	authGroup.POST("/refresh", s.refresh)

	api.GET("/products", s.listProducts)
	api.POST("/products", s.requireAccess, s.addProduct)
	api.GET("/products/my", s.requireAccess, s.myProducts)
	api.DELETE("/products/:id", s.requireAccess, s.deleteProduct)

	api.GET("/cart", s.requireAccess, s.getCart)
	api.POST("/cart", s.requireAccess, s.addToCart)
	api.DELETE("/cart/:id", s.requireAccess, s.removeFromCart)
}

// recordCall counts requests per route ("POST /api/auth/refresh") and keeps the
// Authorization header each one carried
func (s *Server) recordCall(c *gin.Context) {
	route := c.Request.Method + " " + c.FullPath()
	if c.FullPath() == "" {
		route = c.Request.Method + " " + c.Request.URL.Path
	}

	s.mu.Lock()
	s.calls[route]++
	s.authHeaders[route] = append(s.authHeaders[route], c.GetHeader("Authorization"))
	s.mu.Unlock()

	c.Next()
}

func (s *Server) mustAddUser(username, email, password, role string) *user {
	u, err := s.addUser(username, email, password, role)
	if err != nil {
		panic(err)
	}
	return u
}

// addUser stores a new account. Callers hold s.mu or own s exclusively.
func (s *Server) addUser(username, email, password, role string) (*user, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, err
	}
	s.nextUserID++
	u := &user{
		ID:           s.nextUserID,
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	s.users[u.ID] = u
	s.usernames[username] = u.ID
	return u, nil
}

// Calls returns how many requests reached route, e.g. "POST /api/auth/refresh"
// or "DELETE /api/cart/:id"
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

// AuthHeaders returns the Authorization header of every request to route, in arrival order
func (s *Server) AuthHeaders(route string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.authHeaders[route]...)
}

// ResetCalls clears the request counters and recorded headers
func (s *Server) ResetCalls() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = make(map[string]int)
	s.authHeaders = make(map[string][]string)
}

// ExpireAccessTokens makes every access token issued so far fail with 401.
// Tokens issued afterwards (for example by a refresh) are accepted.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for jti := range s.issuedAccess {
		s.revokedAccess[jti] = struct{}{}
	}
}

// RejectAllAccessTokens makes every authenticated endpoint answer 401 regardless of token
func (s *Server) RejectAllAccessTokens(reject bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectAccess = reject
}

// RejectRefresh makes the refresh endpoint answer 401
func (s *Server) RejectRefresh(reject bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejectRefresh = reject
}

// IssueTokens returns a valid pair for an existing account without a login request
func (s *Server) IssueTokens(username string) (accessToken, refreshToken string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.usernames[username]
	if !ok {
		return "", "", errUserNotFound
	}
	return s.issuePair(s.users[id])
}

// UserID returns the numeric id of an account, 0 if unknown
func (s *Server) UserID(username string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.usernames[username]
}

// SeedProduct adds a product owned by username and returns its id
func (s *Server) SeedProduct(username, name, description string, price float64) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextProdID++
	s.products[s.nextProdID] = &product{
		ID:          s.nextProdID,
		Name:        name,
		Description: description,
		Price:       price,
		UserID:      s.usernames[username],
	}
	return s.nextProdID
}

// sortedProducts returns products in id order. Callers hold s.mu.
func (s *Server) sortedProducts(filter func(*product) bool) []*product {
	out := make([]*product, 0, len(s.products))
	for _, p := range s.products {
		if filter == nil || filter(p) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
