package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados del ciclo de vida de un tally sheet (lote).
// draft → open ⇄ partial → consumed; void y closed son terminales alcanzables
// desde cualquier estado no terminal. La reversión de consumo es la única vía
// que puede sacar un lote de consumed.
const (
	TallyStatusDraft     = "DRAFT"
	TallyStatusOpen      = "OPEN"
	TallyStatusAllocated = "ALLOCATED" // totalmente reservado pero sin consumir
	TallyStatusPartial   = "PARTIAL"   // consumido parcialmente
	TallyStatusConsumed  = "CONSUMED"
	TallyStatusClosed    = "CLOSED"
	TallyStatusVoid      = "VOID"
)

// TallySheet representa una cantidad física y trazable de madera recibida de un
// proveedor, con balance remanente propio y posición FIFO por fecha de recepción.
// RemainingQty está siempre en la unidad canónica (BF). El servicio de tally es
// el único mutador de RemainingQty y Status.
type TallySheet struct {
	ID           string
	LotNumber    string // número de lote interno (único)
	VendorLot    string // lote del proveedor
	BundleID     string
	ItemID       string
	LocationID   string
	SubsidiaryID string

	ReceivedQty  decimal.Decimal // BF recibidos (fijo tras la recepción)
	RemainingQty decimal.Decimal // BF disponibles; 0 ≤ remaining ≤ received siempre
	Status       string

	Dimensions  DimensionSet
	Grade       string
	MoisturePct decimal.Decimal

	ReceivedDate time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CreatedBy    string
}

// IsTerminal informa si el lote ya no admite cambios de estado ni de balance
// (salvo la reversión explícita de consumo para CONSUMED).
func (t *TallySheet) IsTerminal() bool {
	return t.Status == TallyStatusVoid || t.Status == TallyStatusClosed
}

// IsAvailable informa si el lote puede participar en una búsqueda FIFO:
// tiene balance y su estado admite consumo.
func (t *TallySheet) IsAvailable() bool {
	if !t.RemainingQty.GreaterThan(decimal.Zero) {
		return false
	}
	switch t.Status {
	case TallyStatusOpen, TallyStatusPartial, TallyStatusAllocated:
		return true
	}
	return false
}

// RecomputeStatus recalcula el estado según el balance y la cantidad reservada
// (suma de asignaciones vivas). No toca estados terminales ni DRAFT.
func (t *TallySheet) RecomputeStatus(reserved decimal.Decimal) {
	if t.IsTerminal() || t.Status == TallyStatusDraft {
		return
	}
	switch {
	case !t.RemainingQty.GreaterThan(decimal.Zero):
		t.Status = TallyStatusConsumed
	case t.RemainingQty.LessThan(t.ReceivedQty):
		t.Status = TallyStatusPartial
	case reserved.GreaterThanOrEqual(t.RemainingQty):
		t.Status = TallyStatusAllocated
	default:
		t.Status = TallyStatusOpen
	}
}
