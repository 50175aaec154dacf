package dto

import (
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/lumber-pro/internal/domain/entity"
)

// DimensionsDTO dimensiones por línea; punteros nil = heredar de la capa
// siguiente (lote → ítem → sistema).
type DimensionsDTO struct {
	ThicknessIn     *decimal.Decimal `json:"thickness_in"`
	WidthIn         *decimal.Decimal `json:"width_in"`
	LengthFt        *decimal.Decimal `json:"length_ft"`
	PiecesPerBundle *int             `json:"pieces_per_bundle"`
}

// ToOverride convierte el DTO al override de dominio. nil si el DTO es nil.
func (d *DimensionsDTO) ToOverride() *entity.DimensionOverride {
	if d == nil {
		return nil
	}
	return &entity.DimensionOverride{
		ThicknessIn:     d.ThicknessIn,
		WidthIn:         d.WidthIn,
		LengthFt:        d.LengthFt,
		PiecesPerBundle: d.PiecesPerBundle,
	}
}

// DimensionSetDTO set de dimensiones resuelto, con la fuente ganadora por campo.
type DimensionSetDTO struct {
	ThicknessIn     decimal.Decimal `json:"thickness_in"`
	WidthIn         decimal.Decimal `json:"width_in"`
	LengthFt        decimal.Decimal `json:"length_ft"`
	PiecesPerBundle int             `json:"pieces_per_bundle"`
	Sources         SourcesDTO      `json:"sources"`
	IsComplete      bool            `json:"is_complete"`
}

// SourcesDTO capa que aportó cada campo (LINE/LOT/ITEM/SYSTEM/NONE).
type SourcesDTO struct {
	Thickness       string `json:"thickness"`
	Width           string `json:"width"`
	Length          string `json:"length"`
	PiecesPerBundle string `json:"pieces_per_bundle"`
}

// ConvertRequest conversión entre dos unidades. item_id opcional: sin él,
// las dimensiones del request son la única capa.
type ConvertRequest struct {
	ItemID     string          `json:"item_id"`
	FromUnit   string          `json:"from_unit"`
	ToUnit     string          `json:"to_unit"`
	Quantity   decimal.Decimal `json:"quantity"`
	Dimensions *DimensionsDTO  `json:"dimensions"`
}

// ConvertResponse resultado estructurado: Valid=false lleva la razón en Error,
// nunca es un fallo HTTP.
type ConvertResponse struct {
	Valid      bool             `json:"valid"`
	Quantity   decimal.Decimal  `json:"quantity"`
	BoardFeet  decimal.Decimal  `json:"board_feet"`
	Factor     decimal.Decimal  `json:"factor"`
	Error      string           `json:"error,omitempty"`
	Dimensions *DimensionSetDTO `json:"dimensions,omitempty"`
}

// MatrixRequest matriz de conversión para un ítem o un set de dimensiones.
type MatrixRequest struct {
	ItemID     string         `json:"item_id"`
	Dimensions *DimensionsDTO `json:"dimensions"`
}

// MatrixEntryDTO fila de la matriz; factores nil cuando las dimensiones no alcanzan.
type MatrixEntryDTO struct {
	Unit          string           `json:"unit"`
	ToCanonical   *decimal.Decimal `json:"to_canonical"`
	FromCanonical *decimal.Decimal `json:"from_canonical"`
	Description   string           `json:"description"`
}

// MatrixResponse matriz completa con las dimensiones que la produjeron.
type MatrixResponse struct {
	Entries    []MatrixEntryDTO `json:"entries"`
	Dimensions *DimensionSetDTO `json:"dimensions,omitempty"`
}
