package handlers

import (
	"net/http"

	"pizza-service/apperrors"
	"pizza-service/auth"
	"pizza-service/middleware"
	"pizza-service/models"
	"pizza-service/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// userListEntry is a user as shown in the admin listing, roles as plain names.
type userListEntry struct {
	ID    uint          `json:"id"`
	Name  string        `json:"name"`
	Email string        `json:"email"`
	Roles []models.Role `json:"roles"`
}

func newUserListEntry(u models.User) userListEntry {
	roles := make([]models.Role, 0, len(u.Roles))
	for _, r := range u.Roles {
		roles = append(roles, r.Role)
	}
	return userListEntry{ID: u.ID, Name: u.Name, Email: u.Email, Roles: roles}
}

type UserHandler struct {
	DB         *gorm.DB
	Tokens     TokenIssuer
	BcryptCost int
}

func (h *UserHandler) GetMe(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)
	if identity == nil {
		respondError(c, apperrors.Unauthenticated("unauthorized"))
		return
	}
	c.JSON(http.StatusOK, identity.User)
}

// UpdateUser changes name, email or password. The caller gets a fresh token;
// tokens issued earlier stay valid.
func (h *UserHandler) UpdateUser(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}

	identity := middleware.CurrentIdentity(c)
	if err := auth.Authorize(identity, auth.ActionUpdateUser, auth.Resource{UserID: userID}); err != nil {
		respondError(c, err)
		return
	}

	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email" binding:"omitempty,email"`
		Password string `json:"password"`
	}
	if !bindJSON(c, &req) {
		return
	}

	db := h.DB.WithContext(c.Request.Context())

	var user models.User
	if err := db.First(&user, userID).Error; err != nil {
		respondError(c, err)
		return
	}

	updates := map[string]interface{}{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if req.Password != "" {
		hashedPassword, err := auth.HashPassword(req.Password, h.BcryptCost)
		if err != nil {
			respondError(c, err)
			return
		}
		updates["password"] = hashedPassword
	}

	if len(updates) > 0 {
		if err := db.Model(&user).Updates(updates).Error; err != nil {
			respondError(c, err)
			return
		}
	}

	if err := db.Preload("Roles").First(&user, userID).Error; err != nil {
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

// ListUsers pages through all users ordered by id. ?name filters by exact
// name, with "*" as a wildcard.
func (h *UserHandler) ListUsers(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)
	if err := auth.Authorize(identity, auth.ActionListUsers, auth.Resource{}); err != nil {
		respondError(c, err)
		return
	}

	page := utils.ParsePagination(c, 10)

	query := h.DB.WithContext(c.Request.Context()).Model(&models.User{}).Preload("Roles", orderByID)
	if pattern, ok := utils.NameFilter(c.Query("name")); ok {
		query = query.Where(`name LIKE ? ESCAPE '\'`, pattern)
	}

	var users []models.User
	if err := query.Order("id ASC").Offset(page.Offset()).Limit(page.Limit + 1).Find(&users).Error; err != nil {
		respondError(c, err)
		return
	}

	more := len(users) > page.Limit
	if more {
		users = users[:page.Limit]
	}

	entries := make([]userListEntry, 0, len(users))
	for _, u := range users {
		entries = append(entries, newUserListEntry(u))
	}

	c.JSON(http.StatusOK, gin.H{"users": entries, "more": more})
}
