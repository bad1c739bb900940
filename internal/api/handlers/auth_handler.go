package handlers

import (
	"net/http"

	"example.com/registrar/internal/models"
	"example.com/registrar/internal/services"
	"example.com/registrar/internal/tracing"

	"github.com/gin-gonic/gin"
)

// AuthHandler handles account and session requests
type AuthHandler struct {
	users  *services.UserService
	tracer tracing.Tracer
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(users *services.UserService, tracer tracing.Tracer) *AuthHandler {
	return &AuthHandler{
		users:  users,
		tracer: tracer,
	}
}

// SignUpRequest represents an account creation request
type SignUpRequest struct {
	Name      string `json:"name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	Role      string `json:"role"`
	AdminCode string `json:"admin_code"`
}

// SignInRequest represents a credential check request
type SignInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse carries a session token and the account it belongs to
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// SignUp creates an account and returns a session token
func (h *AuthHandler) SignUp(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-signup")
	defer h.tracer.EndTransaction(txn)

	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.users.SignUp(c, req.Name, req.Email, req.Password, req.Role, req.AdminCode)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{Token: token, User: user})
}

// SignIn verifies credentials and returns a session token
func (h *AuthHandler) SignIn(c *gin.Context) {
	txn := h.tracer.StartTransaction("api-signin")
	defer h.tracer.EndTransaction(txn)

	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.users.SignIn(c, req.Email, req.Password)
	if err != nil {
		h.tracer.RecordError(txn, err)
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{Token: token, User: user})
}

// RegisterRoutes registers the handler's routes
func (h *AuthHandler) RegisterRoutes(public *gin.RouterGroup) {
	public.POST("/auth/signup", h.SignUp)
	public.POST("/auth/signin", h.SignIn)
}
