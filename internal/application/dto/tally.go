package dto

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/lumber-pro/internal/application/tally"
	"github.com/tu-usuario/lumber-pro/internal/domain/entity"
)

// CreateTallyRequest recepción de un lote.
type CreateTallyRequest struct {
	LotNumber       string          `json:"lot_number"`
	VendorLot       string          `json:"vendor_lot"`
	BundleID        string          `json:"bundle_id"`
	ItemID          string          `json:"item_id"`
	LocationID      string          `json:"location_id"`
	ReceivedQty     decimal.Decimal `json:"received_qty"`
	ThicknessIn     decimal.Decimal `json:"thickness_in"`
	WidthIn         decimal.Decimal `json:"width_in"`
	LengthFt        decimal.Decimal `json:"length_ft"`
	PiecesPerBundle int             `json:"pieces_per_bundle"`
	Grade           string          `json:"grade"`
	MoisturePct     decimal.Decimal `json:"moisture_pct"`
	ReceivedDate    time.Time       `json:"received_date"`
	Draft           bool            `json:"draft"`
}

// TallySheetDTO lote serializado para la API.
type TallySheetDTO struct {
	ID           string          `json:"id"`
	LotNumber    string          `json:"lot_number"`
	VendorLot    string          `json:"vendor_lot,omitempty"`
	BundleID     string          `json:"bundle_id,omitempty"`
	ItemID       string          `json:"item_id"`
	LocationID   string          `json:"location_id"`
	SubsidiaryID string          `json:"subsidiary_id,omitempty"`
	ReceivedQty  decimal.Decimal `json:"received_qty"`
	RemainingQty decimal.Decimal `json:"remaining_qty"`
	Status       string          `json:"status"`
	ThicknessIn  decimal.Decimal `json:"thickness_in"`
	WidthIn      decimal.Decimal `json:"width_in"`
	LengthFt     decimal.Decimal `json:"length_ft"`
	Grade        string          `json:"grade,omitempty"`
	ReceivedDate time.Time       `json:"received_date"`
}

// TallySheetFromEntity mapea la entidad al DTO.
func TallySheetFromEntity(t *entity.TallySheet) TallySheetDTO {
	return TallySheetDTO{
		ID:           t.ID,
		LotNumber:    t.LotNumber,
		VendorLot:    t.VendorLot,
		BundleID:     t.BundleID,
		ItemID:       t.ItemID,
		LocationID:   t.LocationID,
		SubsidiaryID: t.SubsidiaryID,
		ReceivedQty:  t.ReceivedQty,
		RemainingQty: t.RemainingQty,
		Status:       t.Status,
		ThicknessIn:  t.Dimensions.ThicknessIn,
		WidthIn:      t.Dimensions.WidthIn,
		LengthFt:     t.Dimensions.LengthFt,
		Grade:        t.Grade,
		ReceivedDate: t.ReceivedDate,
	}
}

// AllocateRequest demanda a cubrir con lotes FIFO. demand_id vacío = simulación.
type AllocateRequest struct {
	ItemID      string          `json:"item_id"`
	LocationID  string          `json:"location_id"`
	Grade       string          `json:"grade"`
	RequiredQty decimal.Decimal `json:"required_qty"`
	DemandID    string          `json:"demand_id"`
}

// DrawDTO toma de un lote dentro de la asignación.
type DrawDTO struct {
	TallySheetID string          `json:"tally_sheet_id"`
	LotNumber    string          `json:"lot_number"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// AllocateResponse plan de consumo; shortfall > 0 es demanda no cubierta.
type AllocateResponse struct {
	Draws          []DrawDTO       `json:"draws"`
	TotalAllocated decimal.Decimal `json:"total_allocated"`
	Shortfall      decimal.Decimal `json:"shortfall"`
	Satisfied      bool            `json:"satisfied"`
}

// AllocateResponseFromResult mapea el resultado del servicio al DTO.
func AllocateResponseFromResult(r *tally.AllocateResult) AllocateResponse {
	draws := make([]DrawDTO, 0, len(r.Draws))
	for _, d := range r.Draws {
		draws = append(draws, DrawDTO{TallySheetID: d.TallySheetID, LotNumber: d.LotNumber, Quantity: d.Quantity})
	}
	return AllocateResponse{
		Draws:          draws,
		TotalAllocated: r.TotalAllocated,
		Shortfall:      r.Shortfall,
		Satisfied:      r.Satisfied(),
	}
}

// ReverseRequest reversión de consumo sobre un lote.
type ReverseRequest struct {
	Amount decimal.Decimal `json:"amount"`
}
