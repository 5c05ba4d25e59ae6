package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// quantities and prices go out as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// Material is a catalog item whose quantity only changes through movements.
type Material struct {
	ID              uint                `gorm:"primaryKey" json:"id"`
	Name            string              `gorm:"size:200;not null" json:"name"`
	Description     string              `gorm:"type:text" json:"description"`
	Type            string              `gorm:"size:100" json:"type"`
	CurrentQuantity decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0" json:"currentQuantity"`
	Unit            string              `gorm:"size:20;not null" json:"unit"`
	Price           decimal.Decimal     `gorm:"type:decimal(18,2);not null;default:0" json:"price"`
	Supplier        string              `gorm:"size:200" json:"supplier"`
	MinStock        decimal.NullDecimal `gorm:"type:decimal(18,4)" json:"minStock"`
	IsConsumable    bool                `gorm:"default:true" json:"isConsumable"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

func (Material) TableName() string { return "materials" }

// ProjectMaterial links a material to the project that owns it.
type ProjectMaterial struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ProjectID  uint      `gorm:"uniqueIndex:idx_project_material;not null" json:"projectId"`
	MaterialID uint      `gorm:"uniqueIndex:idx_project_material;not null" json:"materialId"`
	Material   *Material `gorm:"foreignKey:MaterialID" json:"material,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (ProjectMaterial) TableName() string { return "project_materials" }
