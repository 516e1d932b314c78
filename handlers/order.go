package handlers

import (
	"fmt"
	"net/http"
	"time"

	"pizza-service/apperrors"
	"pizza-service/auth"
	"pizza-service/middleware"
	"pizza-service/models"
	"pizza-service/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const ordersPerPage = 10

type OrderHandler struct {
	DB *gorm.DB
}

func (h *OrderHandler) GetMenu(c *gin.Context) {
	menu, err := h.menu(h.DB.WithContext(c.Request.Context()))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, menu)
}

// AddMenuItem adds a catalog entry and answers with the whole menu.
func (h *OrderHandler) AddMenuItem(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)
	if err := auth.Authorize(identity, auth.ActionAddMenuItem, auth.Resource{}); err != nil {
		respondError(c, err)
		return
	}

	var req struct {
		Title       string   `json:"title" binding:"required"`
		Description string   `json:"description"`
		Image       string   `json:"image"`
		Price       *float64 `json:"price" binding:"required,gte=0"`
	}
	if !bindJSON(c, &req) {
		return
	}

	db := h.DB.WithContext(c.Request.Context())
	item := models.MenuItem{
		Title:       req.Title,
		Description: req.Description,
		Image:       req.Image,
		Price:       *req.Price,
	}
	if err := db.Create(&item).Error; err != nil {
		respondError(c, err)
		return
	}

	menu, err := h.menu(db)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, menu)
}

// GetOrders lists the caller's orders, ten per page.
func (h *OrderHandler) GetOrders(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)
	if err := auth.Authorize(identity, auth.ActionListOrders, auth.Resource{}); err != nil {
		respondError(c, err)
		return
	}

	page := utils.ParsePage(c, ordersPerPage)

	orders := []models.Order{}
	err := h.DB.WithContext(c.Request.Context()).
		Preload("Items", orderByID).
		Where("diner_id = ?", identity.UserID()).
		Order("id ASC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&orders).Error
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"dinerId": identity.UserID(), "orders": orders, "page": page.Page})
}

// CreateOrder records an order at a store. Item descriptions and prices come
// from the catalog, not the request.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	identity := middleware.CurrentIdentity(c)
	if err := auth.Authorize(identity, auth.ActionCreateOrder, auth.Resource{}); err != nil {
		respondError(c, err)
		return
	}

	var req struct {
		FranchiseID uint `json:"franchiseId" binding:"required"`
		StoreID     uint `json:"storeId" binding:"required"`
		Items       []struct {
			MenuID      uint    `json:"menuId" binding:"required"`
			Description string  `json:"description"`
			Price       float64 `json:"price"`
		} `json:"items" binding:"required,min=1,dive"`
	}
	if !bindJSON(c, &req) {
		return
	}

	var order models.Order
	err := h.DB.WithContext(c.Request.Context()).Transaction(func(tx *gorm.DB) error {
		var stores int64
		if err := tx.Model(&models.Store{}).
			Where("id = ? AND franchise_id = ?", req.StoreID, req.FranchiseID).
			Count(&stores).Error; err != nil {
			return err
		}
		if stores == 0 {
			return apperrors.NotFound("store")
		}

		menuIDs := make([]uint, len(req.Items))
		for i, item := range req.Items {
			menuIDs[i] = item.MenuID
		}
		var catalog []models.MenuItem
		if err := tx.Where("id IN ?", menuIDs).Find(&catalog).Error; err != nil {
			return err
		}
		byID := make(map[uint]models.MenuItem, len(catalog))
		for _, m := range catalog {
			byID[m.ID] = m
		}

		order = models.Order{
			DinerID:     identity.UserID(),
			FranchiseID: req.FranchiseID,
			StoreID:     req.StoreID,
			Date:        time.Now().UTC(),
		}
		for _, item := range req.Items {
			m, ok := byID[item.MenuID]
			if !ok {
				return apperrors.Validation(fmt.Sprintf("unknown menu item %d", item.MenuID))
			}
			order.Items = append(order.Items, models.OrderItem{
				MenuID:      m.ID,
				Description: m.Title,
				Price:       m.Price,
			})
		}

		return tx.Create(&order).Error
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *OrderHandler) menu(db *gorm.DB) ([]models.MenuItem, error) {
	menu := []models.MenuItem{}
	if err := db.Order("id ASC").Find(&menu).Error; err != nil {
		return nil, err
	}
	return menu, nil
}
