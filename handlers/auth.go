package handlers

import (
	"context"
	"net/http"

	"pizza-service/apperrors"
	"pizza-service/auth"
	"pizza-service/middleware"
	"pizza-service/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// TokenIssuer is the part of the token service the handlers use.
type TokenIssuer interface {
	Issue(ctx context.Context, user *models.User) (string, error)
	Revoke(ctx context.Context, tokenID string) error
}

type AuthHandler struct {
	DB         *gorm.DB
	Tokens     TokenIssuer
	BcryptCost int
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		respondError(c, err)
		return
	}

	user := models.User{
		Name:     req.Name,
		Email:    req.Email,
		Password: hashedPassword,
		Roles:    []models.UserRole{{Role: models.RoleDiner}},
	}
	if err := h.DB.WithContext(c.Request.Context()).Create(&user).Error; err != nil {
		respondError(c, err)
		return
	}

	token, err := h.Tokens.Issue(c.Request.Context(), &user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

// Login accepts any account registered under the email whose password
// matches, newest account first.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	var candidates []models.User
	if err := h.DB.WithContext(c.Request.Context()).Preload("Roles").
		Where("email = ?", req.Email).
		Order("id DESC").
		Find(&candidates).Error; err != nil {
		respondError(c, err)
		return
	}

	var user *models.User
	for i := range candidates {
		if auth.CheckPassword(candidates[i].Password, req.Password) {
			user = &candidates[i]
			break
		}
	}
	if user == nil {
		respondError(c, apperrors.Unauthenticated("invalid credentials"))
		return
	}

	token, err := h.Tokens.Issue(c.Request.Context(), user)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user, "token": token})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)
	if identity == nil {
		respondError(c, apperrors.Unauthenticated("unauthorized"))
		return
	}

	if err := h.Tokens.Revoke(c.Request.Context(), identity.TokenID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "logout successful"})
}
