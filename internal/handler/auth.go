package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/bk001juma/api-matengenezo/internal/auth"
	"github.com/bk001juma/api-matengenezo/internal/middleware"
	"github.com/bk001juma/api-matengenezo/internal/model"
	"github.com/bk001juma/api-matengenezo/internal/storage"
	"github.com/bk001juma/api-matengenezo/internal/validation"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	users       *storage.Users
	jwtSecret   string
	adminEmails []string
}

func NewAuthHandler(users *storage.Users, jwtSecret string, adminEmails []string) *AuthHandler {
	return &AuthHandler{
		users:       users,
		jwtSecret:   jwtSecret,
		adminEmails: adminEmails,
	}
}

type RegisterRequest struct {
	RealName string `json:"real_name" binding:"required,max=255"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Phone    string `json:"phone" binding:"required,max=32"`
	Gender   string `json:"gender" binding:"required,oneof=male female other"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	GeneratedUsername string `json:"generated_username" binding:"required"`
	Password          string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Message      string      `json:"message"`
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	ExpiresIn    int         `json:"expires_in"`
	User         *model.User `json:"user"`
}

// Register creates an account with a generated campus username
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	verr := validation.New()
	for _, field := range []struct{ column, value string }{
		{"email", req.Email},
		{"phone", req.Phone},
	} {
		taken, err := h.users.Exists(ctx, field.column, field.value)
		if err != nil {
			log.Printf("[Auth] Failed to check %s uniqueness: %v", field.column, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
			return
		}
		if taken {
			verr.Add(field.column, "The "+field.column+" has already been taken.")
		}
	}
	if !verr.Empty() {
		respondInvalid(c, verr)
		return
	}

	username, err := auth.GenerateUsername(ctx, time.Now(), func(ctx context.Context, candidate string) (bool, error) {
		return h.users.Exists(ctx, "generated_username", candidate)
	})
	if err != nil {
		log.Printf("[Auth] Failed to generate username: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("[Auth] Failed to hash password: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
		return
	}

	user := &model.User{
		RealName:          req.RealName,
		Email:             req.Email,
		Phone:             req.Phone,
		Gender:            req.Gender,
		Role:              h.roleFor(req.Email),
		GeneratedUsername: username,
		PasswordHash:      hash,
	}
	if err := h.users.Create(ctx, user); err != nil {
		log.Printf("[Auth] Failed to create user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    user,
	})
}

// roleFor grants the admin role to bootstrap addresses from ADMIN_EMAILS.
func (h *AuthHandler) roleFor(email string) string {
	for _, admin := range h.adminEmails {
		if strings.EqualFold(admin, email) {
			return model.RoleAdmin
		}
	}
	return model.RoleUser
}

// Login exchanges a generated username and password for tokens
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	user, err := h.users.FindByUsername(ctx, req.GeneratedUsername)
	if err != nil && !errors.Is(err, storage.ErrUserNotFound) {
		log.Printf("[Auth] Failed to find user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log in"})
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	accessToken, err := auth.GenerateAccessToken(user, h.jwtSecret)
	if err != nil {
		log.Printf("[Auth] Failed to generate access token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log in"})
		return
	}

	refreshToken, err := auth.GenerateRefreshToken()
	if err != nil {
		log.Printf("[Auth] Failed to generate refresh token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log in"})
		return
	}

	now := time.Now()
	if err := h.users.StoreRefreshToken(ctx, &model.RefreshToken{
		UserID:    user.ID,
		Token:     refreshToken,
		ExpiresAt: now.Add(auth.RefreshTokenExpiry),
		CreatedAt: now,
	}); err != nil {
		log.Printf("[Auth] Failed to store refresh token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log in"})
		return
	}

	c.JSON(http.StatusOK, TokenResponse{
		Message:      "Login successful",
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(auth.AccessTokenExpiry.Seconds()),
		User:         user,
	})
}

// RefreshToken refreshes access token using refresh token
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}
	ctx := c.Request.Context()

	rt, err := h.users.ActiveRefreshToken(ctx, req.RefreshToken)
	if err != nil {
		if !errors.Is(err, storage.ErrRefreshTokenNotFound) {
			log.Printf("[Auth] Failed to load refresh token: %v", err)
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
		return
	}

	user, err := h.users.FindByID(ctx, rt.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	accessToken, err := auth.GenerateAccessToken(user, h.jwtSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate access token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": accessToken,
		"token_type":   "Bearer",
		"expires_in":   int(auth.AccessTokenExpiry.Seconds()),
	})
}

// Logout revokes every refresh token and access token of the user
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.users.RevokeAll(c.Request.Context(), middleware.UserID(c)); err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "No authenticated user"})
			return
		}
		log.Printf("[Auth] Failed to revoke tokens: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Logout failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Me returns current user info
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.users.FindByID(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, user)
}
