package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthController handles authentication-related HTTP endpoints.
type AuthController struct {
	service *Service
	log     *zap.Logger
}

// NewAuthController creates a new auth controller.
func NewAuthController(service *Service, log *zap.Logger) *AuthController {
	return &AuthController{service: service, log: log}
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles POST /api/register.
func (ac *AuthController) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password required"})
		return
	}

	user, err := ac.service.Register(req.Username, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, gin.H{
			"message": "User created successfully",
			"user_id": user.ID,
		})
	case errors.Is(err, ErrUserExists):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username already exists"})
	case errors.Is(err, ErrUsernameInvalid), errors.Is(err, ErrPasswordTooShort), errors.Is(err, ErrPasswordTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		ac.log.Error("registration failed", zap.String("username", req.Username), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
	}
}

// Login handles POST /api/login.
func (ac *AuthController) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Username == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username and password required"})
		return
	}

	token, user, err := ac.service.Login(req.Username, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"token":    token,
			"user_id":  user.ID,
			"username": user.Username,
		})
	case errors.Is(err, ErrUserNotFound), errors.Is(err, ErrInvalidPassword):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, ErrAccountLocked):
		c.JSON(http.StatusLocked, gin.H{"error": err.Error()})
	default:
		ac.log.Error("login failed", zap.String("username", req.Username), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
	}
}
