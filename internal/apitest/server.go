// Package apitest runs an in-process fake of the Kanda Claim API for tests.
package apitest

import (
	"crypto/rand"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/kanda-claim/kanda/internal/models"
)

const bearerPrefix = "Bearer "

// account is a registered user with its password hash
type account struct {
	user         models.User
	passwordHash []byte
	active       bool
}

// Server is a fake backend with in-memory accounts and tokens
type Server struct {
	*httptest.Server

	// TokenTTL is the lifetime of tokens issued from now on
	TokenTTL time.Duration

	secret []byte

	mu       sync.Mutex
	accounts map[string]*account // by email
	revoked  map[string]bool     // token id -> revoked
	issued   []string            // token ids
	requests []string
}

// LoginRequest is the body of POST /login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RegisterRequest is the body of POST /register
type RegisterRequest struct {
	FirstName            string  `json:"firstName" binding:"required"`
	LastName             string  `json:"lastName" binding:"required"`
	Email                string  `json:"email" binding:"required,email"`
	Phone                string  `json:"phone" binding:"required"`
	Password             string  `json:"password" binding:"required,min=8"`
	Role                 string  `json:"role" binding:"required"`
	TenantID             *string `json:"tenantId"`
	InsuranceCompanyName *string `json:"insuranceCompanyName"`
}

// New starts a fake backend. Close it when done.
func New() *Server {
	gin.SetMode(gin.TestMode)

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		panic(err)
	}

	s := &Server{
		TokenTTL: DefaultTokenTTL,
		secret:   secret,
		accounts: make(map[string]*account),
		revoked:  make(map[string]bool),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOriginFunc:  func(string) bool { return true },
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(s.recordRequest)

	router.POST("/login", s.login)
	router.POST("/register", s.register)
	router.GET("/health", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	router.GET("/expired", func(c *gin.Context) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Session expired"})
	})

	authed := router.Group("/")
	authed.Use(s.requireToken)
	authed.GET("/me", s.me)
	authed.GET("/claims", s.listClaims)
	authed.POST("/claims/:id/documents", s.uploadDocument)

	s.Server = httptest.NewServer(router)
	return s
}

// AddUser registers an account directly; inactive accounts get 403 + needs_activation at login
func (s *Server) AddUser(user models.User, password string, active bool) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	if user.ID == "" {
		user.ID = models.ID(ulid.Make().String())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[strings.ToLower(user.Email)] = &account{user: user, passwordHash: hash, active: active}
}

// ExpireTokens revokes every token issued so far
func (s *Server) ExpireTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.issued {
		s.revoked[id] = true
	}
}

// Requests returns "METHOD /path" for every request received
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *Server) recordRequest(c *gin.Context) {
	s.mu.Lock()
	s.requests = append(s.requests, c.Request.Method+" "+c.Request.URL.Path)
	s.mu.Unlock()
	c.Next()
}

func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	acct, ok := s.accounts[strings.ToLower(req.Email)]
	s.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if !acct.active {
		c.JSON(http.StatusForbidden, gin.H{
			"error":            "Account not activated. Check your email for the activation code.",
			"needs_activation": true,
			"email":            acct.user.Email,
		})
		return
	}

	s.mu.Lock()
	user := acct.user
	ttl := s.TokenTTL
	s.mu.Unlock()

	token, id, err := s.issueToken(acct, ttl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	s.mu.Lock()
	s.issued = append(s.issued, id)
	s.mu.Unlock()

	user.LastLogin = time.Now().UTC().Format(time.RFC3339)
	c.JSON(http.StatusOK, gin.H{"token": token, "user": user})
}

func (s *Server) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	isInsurer := strings.EqualFold(req.Role, "insurer")
	if isInsurer && req.TenantID != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Insurers cannot join an existing tenant"})
		return
	}
	if !isInsurer && req.InsuranceCompanyName != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only insurers can name an insurance company"})
		return
	}

	s.mu.Lock()
	_, exists := s.accounts[strings.ToLower(req.Email)]
	s.mu.Unlock()
	if exists {
		c.JSON(http.StatusConflict, gin.H{"errors": gin.H{"email": []string{"Email already registered"}}})
		return
	}

	user := models.User{
		ID:        models.ID(ulid.Make().String()),
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Role:      models.Role{Name: req.Role},
		Status:    "pending",
	}
	if req.TenantID != nil {
		user.TenantID = models.ID(*req.TenantID)
	}
	if isInsurer {
		user.TenantID = models.ID(ulid.Make().String())
		user.Tenant = &models.Tenant{ID: user.TenantID, Name: *req.InsuranceCompanyName}
	}
	s.AddUser(user, req.Password, false)

	c.JSON(http.StatusCreated, gin.H{"message": "Registration successful. Check your email to activate your account.", "user": user})
}

func (s *Server) requireToken(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing authorization header"})
		return
	}

	claims, err := s.validateToken(strings.TrimPrefix(header, bearerPrefix))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	s.mu.Lock()
	revoked := s.revoked[claims.ID]
	s.mu.Unlock()
	if revoked {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	c.Set("email", strings.ToLower(claims.Email))
	c.Next()
}

func (s *Server) me(c *gin.Context) {
	s.mu.Lock()
	acct := s.accounts[c.GetString("email")]
	s.mu.Unlock()
	c.JSON(http.StatusOK, acct.user)
}

func (s *Server) listClaims(c *gin.Context) {
	c.JSON(http.StatusOK, []gin.H{
		{"id": "CLM-001", "status": "submitted", "plate_number": "RAD 123 A"},
		{"id": "CLM-002", "status": "under_assessment", "plate_number": "RAB 456 B"},
	})
}

func (s *Server) uploadDocument(c *gin.Context) {
	file, header, err := c.Request.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "document is required"})
		return
	}
	defer file.Close()

	size, err := io.Copy(io.Discard, file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read document"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"claim_id": c.Param("id"),
		"type":     c.PostForm("type"),
		"filename": header.Filename,
		"size":     size,
	})
}
