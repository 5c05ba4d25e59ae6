package services

import (
	"strings"

	"github.com/easystock/backend/internal/models"
	"github.com/shopspring/decimal"
)

const (
	StockStatusOut = "Sem Estoque"
	StockStatusLow = "Estoque Baixo"
	StockStatusIn  = "Em Estoque"
)

// DefaultMinStock applies when a material has no minimum configured.
var DefaultMinStock = decimal.NewFromInt(5)

// StockStatus classifies a quantity against its minimum.
func StockStatus(quantity, minStock decimal.Decimal) string {
	switch {
	case quantity.LessThanOrEqual(decimal.Zero):
		return StockStatusOut
	case quantity.LessThanOrEqual(minStock):
		return StockStatusLow
	default:
		return StockStatusIn
	}
}

// EffectiveMinStock returns the stored minimum or the default when unset.
func EffectiveMinStock(min decimal.NullDecimal) decimal.Decimal {
	if !min.Valid {
		return DefaultMinStock
	}
	return min.Decimal
}

// ParseMovementType accepts the Portuguese and English spellings.
func ParseMovementType(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "entrada", "entry":
		return models.MovementEntry, true
	case "saída", "saida", "exit":
		return models.MovementExit, true
	}
	return "", false
}

// ActionLabel is the Portuguese label shown for a movement type.
func ActionLabel(movementType string) string {
	if movementType == models.MovementEntry {
		return "entrada"
	}
	return "saída"
}
