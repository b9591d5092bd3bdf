package fakeapi

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const userIDKey = "userID"

var errUserNotFound = errors.New("user not found")

type userJSON struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role,omitempty"`
}

type productJSON struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Owner       *string `json:"owner"`
	UserID      int64   `json:"user_id"`
}

type cartItemJSON struct {
	ID        int64   `json:"id"`
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Quantity  int     `json:"quantity"`
}

func abortError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

// body decodes the request as a JSON object, nil when absent or malformed
func body(c *gin.Context) map[string]any {
	var data map[string]any
	if err := c.ShouldBindJSON(&data); err != nil {
		return nil
	}
	return data
}

func stringField(data map[string]any, key string) (string, bool) {
	v, ok := data[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func numberField(data map[string]any, key string) (float64, bool, error) {
	v, ok := data[key]
	if !ok {
		return 0, false, nil
	}
	switch n := v.(type) {
	case float64:
		return n, true, nil
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, true, err
	default:
		return 0, true, fmt.Errorf("not a number: %v", v)
	}
}

func (s *Server) signup(c *gin.Context) {
	data := body(c)
	username, okU := stringField(data, "username")
	email, okE := stringField(data, "email")
	password, okP := stringField(data, "password")
	if !okU || !okE || !okP {
		abortError(c, http.StatusBadRequest, "Username, email and password are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usernames[username]; exists {
		abortError(c, http.StatusBadRequest, "Username already exists")
		return
	}
	for _, u := range s.users {
		if u.Email == email {
			abortError(c, http.StatusBadRequest, "Email already exists")
			return
		}
	}

	u, err := s.addUser(username, email, password, roleUser)
	if err != nil {
		abortError(c, http.StatusInternalServerError, err.Error())
		return
	}
	access, refresh, err := s.issuePair(u)
	if err != nil {
		abortError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":       "User created successfully",
		"access_token":  access,
		"refresh_token": refresh,
		"user":          userJSON{ID: u.ID, Username: u.Username, Email: u.Email},
	})
}

func (s *Server) login(c *gin.Context) {
	data := body(c)
	username, okU := stringField(data, "username")
	password, okP := stringField(data, "password")
	if !okU || !okP {
		abortError(c, http.StatusBadRequest, "Username and password are required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.usernames[username]
	if !ok || bcrypt.CompareHashAndPassword(s.users[id].PasswordHash, []byte(password)) != nil {
		abortError(c, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	u := s.users[id]
	access, refresh, err := s.issuePair(u)
	if err != nil {
		abortError(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  access,
		"refresh_token": refresh,
		"user":          userJSON{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role},
	})
}

func (s *Server) refresh(c *gin.Context) {
	raw, err := bearer(c)
	if err != nil {
		abortError(c, http.StatusUnauthorized, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rejectRefresh {
		abortError(c, http.StatusUnauthorized, errBadToken.Error())
		return
	}
	claims, err := s.verify(raw, refreshTokenType)
	if err != nil {
		abortError(c, http.StatusUnauthorized, err.Error())
		return
	}
	u, err := s.userFromSubject(claims.Subject)
	if err != nil {
		abortError(c, http.StatusUnauthorized, err.Error())
		return
	}

	access, err := s.issueAccess(u)
	if err != nil {
		abortError(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": access})
}

// requireAccess validates the bearer access token and stores the caller's id
func (s *Server) requireAccess(c *gin.Context) {
	raw, err := bearer(c)
	if err != nil {
		abortError(c, http.StatusUnauthorized, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.rejectAccess {
		abortError(c, http.StatusUnauthorized, errBadToken.Error())
		return
	}
	claims, err := s.verify(raw, accessTokenType)
	if err != nil {
		abortError(c, http.StatusUnauthorized, err.Error())
		return
	}
	if _, revoked := s.revokedAccess[claims.ID]; revoked {
		abortError(c, http.StatusUnauthorized, errBadToken.Error())
		return
	}
	u, err := s.userFromSubject(claims.Subject)
	if err != nil {
		abortError(c, http.StatusUnauthorized, err.Error())
		return
	}
	c.Set(userIDKey, u.ID)
}

// userFromSubject resolves a sub claim. Callers hold s.mu.
func (s *Server) userFromSubject(sub string) (*user, error) {
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, errUserNotFound
	}
	u, ok := s.users[id]
	if !ok {
		return nil, errUserNotFound
	}
	return u, nil
}

// toProductJSON renders p with its owner's username. Callers hold s.mu.
func (s *Server) toProductJSON(p *product) productJSON {
	out := productJSON{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		UserID:      p.UserID,
	}
	if owner, ok := s.users[p.UserID]; ok {
		name := owner.Username
		out.Owner = &name
	}
	return out
}

func (s *Server) listProducts(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]productJSON, 0, len(s.products))
	for _, p := range s.sortedProducts(nil) {
		out = append(out, s.toProductJSON(p))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) myProducts(c *gin.Context) {
	userID := c.GetInt64(userIDKey)

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]productJSON, 0)
	for _, p := range s.sortedProducts(func(p *product) bool { return p.UserID == userID }) {
		out = append(out, s.toProductJSON(p))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) addProduct(c *gin.Context) {
	userID := c.GetInt64(userIDKey)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.users[userID].Role != roleAdmin {
		abortError(c, http.StatusForbidden, "Only admins can create products")
		return
	}

	data := body(c)
	name, okName := stringField(data, "name")
	price, okPrice, err := numberField(data, "price")
	if !okName || !okPrice {
		abortError(c, http.StatusBadRequest, "Name and price are required")
		return
	}
	if err != nil {
		abortError(c, http.StatusBadRequest, "Invalid price format")
		return
	}
	description, _ := stringField(data, "description")

	s.nextProdID++
	p := &product{
		ID:          s.nextProdID,
		Name:        name,
		Description: description,
		Price:       price,
		UserID:      userID,
	}
	s.products[p.ID] = p

	c.JSON(http.StatusCreated, gin.H{
		"id":          p.ID,
		"name":        p.Name,
		"description": p.Description,
		"price":       p.Price,
	})
}

func (s *Server) deleteProduct(c *gin.Context) {
	userID := c.GetInt64(userIDKey)
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abortError(c, http.StatusNotFound, "Product not found")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[id]
	if !ok {
		abortError(c, http.StatusNotFound, "Product not found")
		return
	}
	if p.UserID != userID {
		abortError(c, http.StatusForbidden, "You can only delete your own products")
		return
	}

	delete(s.products, id)
	for itemID, item := range s.cart {
		if item.ProductID == id {
			delete(s.cart, itemID)
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

func (s *Server) getCart(c *gin.Context) {
	userID := c.GetInt64(userIDKey)

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]cartItemJSON, 0)
	for _, item := range s.cart {
		if item.UserID != userID {
			continue
		}
		p := s.products[item.ProductID]
		out = append(out, cartItemJSON{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      p.Name,
			Price:     p.Price,
			Quantity:  item.Quantity,
		})
	}
	sortCart(out)
	c.JSON(http.StatusOK, out)
}

func (s *Server) addToCart(c *gin.Context) {
	userID := c.GetInt64(userIDKey)
	data := body(c)

	productID, okID, err := numberField(data, "product_id")
	if !okID || err != nil {
		abortError(c, http.StatusBadRequest, "Product ID is required")
		return
	}
	quantity := 1
	if q, okQ, err := numberField(data, "quantity"); okQ && err == nil && q > 0 {
		quantity = int(q)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pid := int64(productID)
	if _, ok := s.products[pid]; !ok {
		abortError(c, http.StatusNotFound, "Product not found")
		return
	}

	for _, item := range s.cart {
		if item.UserID == userID && item.ProductID == pid {
			item.Quantity++
			c.JSON(http.StatusOK, gin.H{"message": "Product added to cart"})
			return
		}
	}

	s.nextCartID++
	s.cart[s.nextCartID] = &cartItem{
		ID:        s.nextCartID,
		UserID:    userID,
		ProductID: pid,
		Quantity:  quantity,
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product added to cart"})
}

func (s *Server) removeFromCart(c *gin.Context) {
	userID := c.GetInt64(userIDKey)
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		abortError(c, http.StatusNotFound, "Cart item not found")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.cart[id]
	if !ok {
		abortError(c, http.StatusNotFound, "Cart item not found")
		return
	}
	if item.UserID != userID {
		abortError(c, http.StatusForbidden, "Unauthorized")
		return
	}

	delete(s.cart, id)
	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart"})
}

func sortCart(items []cartItemJSON) {
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
}
