package models

import "time"

type Cart struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	UserID    string        `gorm:"uniqueIndex" json:"-"` // Enforces ONE cart per user
	Lines     []ProductCart `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"lines"`
	CreatedAt time.Time     `json:"-"`
	UpdatedAt time.Time     `json:"-"`
}

// ProductCart is one product-quantity line of a cart. The server assigns
// the ID; quantity stays >= 1 for as long as the line exists.
type ProductCart struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	CartID           uint      `gorm:"index" json:"-"` // Faster queries
	ProductID        uint      `json:"-"`
	Product          Product   `gorm:"foreignKey:ProductID" json:"product"`
	Quantity         int       `json:"quantity"`
	CreationDatetime time.Time `json:"creationDatetime"`
}
