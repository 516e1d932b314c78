package handlers

import (
	"errors"
	"net/http"

	"pizza-service/apperrors"
	"pizza-service/auth"
	"pizza-service/middleware"
	"pizza-service/models"
	"pizza-service/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type FranchiseHandler struct {
	DB *gorm.DB
}

// ListFranchises is public. Admin callers also see each franchise's admins.
func (h *FranchiseHandler) ListFranchises(c *gin.Context) {
	page := utils.ParsePagination(c, 10)
	db := h.DB.WithContext(c.Request.Context())

	query := db.Model(&models.Franchise{}).Preload("Stores", orderByID)
	if pattern, ok := utils.NameFilter(c.Query("name")); ok {
		query = query.Where(`name LIKE ? ESCAPE '\'`, pattern)
	}

	var franchises []models.Franchise
	if err := query.Order("id ASC").Offset(page.Offset()).Limit(page.Limit + 1).Find(&franchises).Error; err != nil {
		respondError(c, err)
		return
	}

	more := len(franchises) > page.Limit
	if more {
		franchises = franchises[:page.Limit]
	}

	if middleware.CurrentIdentity(c).IsAdmin() {
		if err := loadFranchiseAdmins(db, franchises); err != nil {
			respondError(c, err)
			return
		}
	}

	if franchises == nil {
		franchises = []models.Franchise{}
	}
	c.JSON(http.StatusOK, gin.H{"franchises": franchises, "more": more})
}

// ListUserFranchises returns the franchises userId administers, with store
// revenue. Callers other than that user or an admin get an empty list.
func (h *FranchiseHandler) ListUserFranchises(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}

	identity := middleware.CurrentIdentity(c)
	if err := auth.Authorize(identity, auth.ActionViewUserFranchise, auth.Resource{UserID: userID}); err != nil {
		if apperrors.Is(err, apperrors.CodeForbidden) {
			c.JSON(http.StatusOK, []models.Franchise{})
			return
		}
		respondError(c, err)
		return
	}

	db := h.DB.WithContext(c.Request.Context())

	var franchiseIDs []uint
	if err := db.Model(&models.UserRole{}).
		Where("user_id = ? AND role = ? AND object_id IS NOT NULL", userID, models.RoleFranchisee).
		Pluck("object_id", &franchiseIDs).Error; err != nil {
		respondError(c, err)
		return
	}

	franchises := []models.Franchise{}
	if len(franchiseIDs) == 0 {
		c.JSON(http.StatusOK, franchises)
		return
	}

	if err := db.Preload("Stores", orderByID).Where("id IN ?", franchiseIDs).Order("id ASC").Find(&franchises).Error; err != nil {
		respondError(c, err)
		return
	}
	if err := loadFranchiseAdmins(db, franchises); err != nil {
		respondError(c, err)
		return
	}
	if err := loadStoreRevenue(db, franchises); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, franchises)
}

// CreateFranchise creates a franchise and makes every user registered under
// one of the admin emails a franchisee of it.
func (h *FranchiseHandler) CreateFranchise(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)
	if err := auth.Authorize(identity, auth.ActionCreateFranchise, auth.Resource{}); err != nil {
		respondError(c, err)
		return
	}

	var req struct {
		Name   string `json:"name" binding:"required"`
		Admins []struct {
			Email string `json:"email" binding:"required,email"`
		} `json:"admins" binding:"required,min=1,dive"`
	}
	if !bindJSON(c, &req) {
		return
	}

	var franchise models.Franchise
	err := h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.Franchise{}).Where("name = ?", req.Name).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return apperrors.Conflict("franchise name already exists")
		}

		var admins []models.User
		seen := make(map[uint]bool)
		for _, a := range req.Admins {
			var users []models.User
			if err := tx.Where("email = ?", a.Email).Order("id ASC").Find(&users).Error; err != nil {
				return err
			}
			if len(users) == 0 {
				return apperrors.NotFound("user for franchise admin " + a.Email)
			}
			for _, u := range users {
				if !seen[u.ID] {
					seen[u.ID] = true
					admins = append(admins, u)
				}
			}
		}

		franchise = models.Franchise{Name: req.Name}
		if err := tx.Create(&franchise).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperrors.Conflict("franchise name already exists")
			}
			return err
		}

		for _, u := range admins {
			role := models.UserRole{UserID: u.ID, Role: models.RoleFranchisee, ObjectID: &franchise.ID}
			if err := tx.Create(&role).Error; err != nil {
				return err
			}
			franchise.Admins = append(franchise.Admins, models.FranchiseAdmin{ID: u.ID, Name: u.Name, Email: u.Email})
		}
		return nil
	})
	if err != nil {
		respondError(c, err)
		return
	}

	franchise.Stores = []models.Store{}
	c.JSON(http.StatusOK, franchise)
}

// DeleteFranchise removes the franchise with its stores and the franchisee
// roles that pointed at it. Deleting a missing franchise succeeds.
func (h *FranchiseHandler) DeleteFranchise(c *gin.Context) {
	franchiseID, ok := paramID(c, "franchiseId")
	if !ok {
		return
	}

	db := h.DB.WithContext(c.Request.Context())
	franchise, found, err := findFranchise(db, franchiseID)
	if err != nil {
		respondError(c, err)
		return
	}

	if !found {
		c.JSON(http.StatusOK, gin.H{"message": "franchise deleted"})
		return
	}

	identity := middleware.CurrentIdentity(c)
	if err := auth.Authorize(identity, auth.ActionDeleteFranchise, auth.Resource{Franchise: franchise}); err != nil {
		respondError(c, err)
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("franchise_id = ?", franchiseID).Delete(&models.Store{}).Error; err != nil {
			return err
		}
		if err := tx.Where("role = ? AND object_id = ?", models.RoleFranchisee, franchiseID).Delete(&models.UserRole{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Franchise{}, franchiseID).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "franchise deleted"})
}

func (h *FranchiseHandler) CreateStore(c *gin.Context) {
	franchiseID, ok := paramID(c, "franchiseId")
	if !ok {
		return
	}

	db := h.DB.WithContext(c.Request.Context())
	franchise, found, err := findFranchise(db, franchiseID)
	if err != nil {
		respondError(c, err)
		return
	}

	identity := middleware.CurrentIdentity(c)
	if err := auth.Authorize(identity, auth.ActionCreateStore, auth.Resource{Franchise: franchise}); err != nil {
		respondError(c, err)
		return
	}
	if !found {
		respondError(c, apperrors.NotFound("franchise"))
		return
	}

	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if !bindJSON(c, &req) {
		return
	}

	store := models.Store{FranchiseID: franchiseID, Name: req.Name}
	if err := db.Create(&store).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, store)
}

// DeleteStore removes one store of the franchise. Missing stores and
// franchises succeed.
func (h *FranchiseHandler) DeleteStore(c *gin.Context) {
	franchiseID, ok := paramID(c, "franchiseId")
	if !ok {
		return
	}
	storeID, ok := paramID(c, "storeId")
	if !ok {
		return
	}

	db := h.DB.WithContext(c.Request.Context())
	franchise, found, err := findFranchise(db, franchiseID)
	if err != nil {
		respondError(c, err)
		return
	}

	if !found {
		c.JSON(http.StatusOK, gin.H{"message": "store deleted"})
		return
	}

	identity := middleware.CurrentIdentity(c)
	if err := auth.Authorize(identity, auth.ActionDeleteStore, auth.Resource{Franchise: franchise}); err != nil {
		respondError(c, err)
		return
	}

	if err := db.Where("id = ? AND franchise_id = ?", storeID, franchiseID).Delete(&models.Store{}).Error; err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "store deleted"})
}

// findFranchise loads a franchise with its current admins. A missing
// franchise is reported through found rather than an error.
func findFranchise(db *gorm.DB, id uint) (franchise *models.Franchise, found bool, err error) {
	var f models.Franchise
	if err := db.First(&f, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}

	list := []models.Franchise{f}
	if err := loadFranchiseAdmins(db, list); err != nil {
		return nil, false, err
	}
	return &list[0], true, nil
}

// loadFranchiseAdmins fills Admins from the franchisee roles pointing at
// each franchise.
func loadFranchiseAdmins(db *gorm.DB, franchises []models.Franchise) error {
	if len(franchises) == 0 {
		return nil
	}

	ids := make([]uint, len(franchises))
	for i, f := range franchises {
		ids[i] = f.ID
	}

	var rows []struct {
		FranchiseID uint
		ID          uint
		Name        string
		Email       string
	}
	err := db.Table("user_roles").
		Select("user_roles.object_id AS franchise_id, users.id AS id, users.name AS name, users.email AS email").
		Joins("JOIN users ON users.id = user_roles.user_id").
		Where("user_roles.role = ? AND user_roles.object_id IN ?", models.RoleFranchisee, ids).
		Order("users.id ASC").
		Scan(&rows).Error
	if err != nil {
		return err
	}

	byFranchise := make(map[uint][]models.FranchiseAdmin)
	for _, r := range rows {
		byFranchise[r.FranchiseID] = append(byFranchise[r.FranchiseID], models.FranchiseAdmin{ID: r.ID, Name: r.Name, Email: r.Email})
	}
	for i := range franchises {
		admins := byFranchise[franchises[i].ID]
		if admins == nil {
			admins = []models.FranchiseAdmin{}
		}
		franchises[i].Admins = admins
	}
	return nil
}

// loadStoreRevenue sets TotalRevenue on every store to the sum of its order
// item prices.
func loadStoreRevenue(db *gorm.DB, franchises []models.Franchise) error {
	var storeIDs []uint
	for _, f := range franchises {
		for _, s := range f.Stores {
			storeIDs = append(storeIDs, s.ID)
		}
	}
	if len(storeIDs) == 0 {
		return nil
	}

	var rows []struct {
		StoreID uint
		Revenue float64
	}
	err := db.Table("order_items").
		Select("orders.store_id AS store_id, SUM(order_items.price) AS revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.store_id IN ?", storeIDs).
		Group("orders.store_id").
		Scan(&rows).Error
	if err != nil {
		return err
	}

	revenue := make(map[uint]float64, len(rows))
	for _, r := range rows {
		revenue[r.StoreID] = r.Revenue
	}
	for i := range franchises {
		for j := range franchises[i].Stores {
			total := revenue[franchises[i].Stores[j].ID]
			franchises[i].Stores[j].TotalRevenue = &total
		}
	}
	return nil
}

func orderByID(db *gorm.DB) *gorm.DB {
	return db.Order("id ASC")
}
