package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	MovementEntry = "entry"
	MovementExit  = "exit"
)

// MovementRecord is an append-only stock ledger entry.
type MovementRecord struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	Type          string          `gorm:"size:10;not null" json:"type"` // entry, exit
	Location      string          `gorm:"size:200" json:"location"`
	Justification string          `gorm:"size:500" json:"justification"`
	Timestamp     time.Time       `gorm:"index;not null" json:"timestamp"`
	UserID        uint            `gorm:"index;not null" json:"userId"`
	User          *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	MaterialID    uint            `gorm:"index;not null" json:"materialId"`
	Material      *Material       `gorm:"foreignKey:MaterialID" json:"material,omitempty"`
	ProjectID     uint            `gorm:"index;not null" json:"projectId"`
}

func (MovementRecord) TableName() string { return "movement_records" }
