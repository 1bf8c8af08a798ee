package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WeightUnit is the unit a product is sold by. "U" means per unit/each.
type WeightUnit string

const (
	WeightUnitKG WeightUnit = "KG"
	WeightUnitG  WeightUnit = "G"
	WeightUnitL  WeightUnit = "L"
	WeightUnitML WeightUnit = "ML"
	WeightUnitU  WeightUnit = "U"
)

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string          `gorm:"not null" json:"name"`
	Description string          `json:"description"`
	Image       string          `json:"image"`
	Price       decimal.Decimal `gorm:"type:decimal(16,2);not null" json:"price"`
	Weight      float64         `gorm:"not null" json:"weight"`
	WeightUnit  WeightUnit      `gorm:"type:varchar(2);not null" json:"weightUnit"`
	Stock       int             `json:"stock"`
	CreatedAt   time.Time       `json:"-"`
	UpdatedAt   time.Time       `json:"-"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}
