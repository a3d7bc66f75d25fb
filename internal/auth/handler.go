package auth

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,min=3"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	FilmlyID int64  `json:"filmlyId"`
	Token    string `json:"token"`
}

// Handler exposes the auth HTTP endpoints.
type Handler struct {
	svc     Service
	timeout time.Duration
}

func NewHandler(svc Service) *Handler {
	return &Handler{
		svc:     svc,
		timeout: 5 * time.Second,
	}
}

// RegisterRoutes registers the /api/auth/* routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/register", h.register)
	rg.POST("/login", h.login)
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload", "details": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	filmlyID, token, err := h.svc.Register(ctx, req.Email, req.Username, req.Password)
	if err != nil {
		switch err {
		case ErrUserAlreadyExists:
			c.JSON(http.StatusConflict, gin.H{"message": "Email already registered"})
		case ErrUsernameTaken:
			c.JSON(http.StatusConflict, gin.H{"message": "Username already taken"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not register"})
		}
		return
	}

	c.JSON(http.StatusCreated, authResponse{
		FilmlyID: filmlyID,
		Token:    token,
	})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid payload", "details": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	filmlyID, token, err := h.svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		switch err {
		case ErrInvalidCredentials:
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Could not log in"})
		}
		return
	}

	c.JSON(http.StatusOK, authResponse{
		FilmlyID: filmlyID,
		Token:    token,
	})
}
