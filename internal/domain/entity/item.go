package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Item maestro de ítems de madera. Las dimensiones nominales son la tercera
// capa de la cadena de resolución (línea → lote → ítem → sistema).
type Item struct {
	ID   string
	SKU  string // código único
	Name string

	IsLumber         bool
	NominalThickness decimal.Decimal // pulgadas
	NominalWidth     decimal.Decimal // pulgadas
	NominalLength    decimal.Decimal // pies
	PiecesPerBundle  int
	AllowDynamicDims bool // admite override de dimensiones por línea

	DefaultYieldPct decimal.Decimal // % de rendimiento esperado del ítem (0 = usar default del sistema)
	Species         string
	Grade           string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NominalDimensions devuelve las dimensiones nominales como DimensionSet.
func (i *Item) NominalDimensions() DimensionSet {
	return DimensionSet{
		ThicknessIn:     i.NominalThickness,
		WidthIn:         i.NominalWidth,
		LengthFt:        i.NominalLength,
		PiecesPerBundle: i.PiecesPerBundle,
	}
}
