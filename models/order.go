package models

import (
	"time"
)

// MenuItem is an entry of the global pizza catalog.
type MenuItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Description string    `json:"description"`
	Image       string    `json:"image"`
	Price       float64   `gorm:"not null" json:"price"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

type Order struct {
	ID          uint        `gorm:"primaryKey" json:"id"`
	DinerID     uint        `gorm:"not null;index" json:"dinerId"`
	FranchiseID uint        `gorm:"not null;index" json:"franchiseId"`
	StoreID     uint        `gorm:"not null;index" json:"storeId"`
	Date        time.Time   `gorm:"not null" json:"date"`
	Items       []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
}

// OrderItem snapshots the catalog description and price at order time.
type OrderItem struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	OrderID     uint    `gorm:"not null;index" json:"-"`
	MenuID      uint    `gorm:"not null;index" json:"menuId"`
	Description string  `json:"description"`
	Price       float64 `gorm:"not null" json:"price"`
}

func (o *Order) Total() float64 {
	var total float64
	for _, item := range o.Items {
		total += item.Price
	}
	return total
}
