package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una asignación lote→demanda.
// ALLOCATED reserva sin descontar balance; CONSUMED descuenta; RELEASED
// libera la reserva sin borrar el historial.
const (
	AllocationStatusAllocated = "ALLOCATED"
	AllocationStatusConsumed  = "CONSUMED"
	AllocationStatusReleased  = "RELEASED"
)

// Allocation vincula un tally sheet con una demanda (orden de trabajo o línea
// de transacción) por una cantidad en BF. Invariante: la suma de asignaciones
// ALLOCATED de un lote más su remanente nunca excede la cantidad recibida.
type Allocation struct {
	ID           string
	TallySheetID string
	DemandID     string // orden de trabajo / línea que origina la demanda
	ItemID       string
	Quantity     decimal.Decimal // BF asignados (siempre > 0)
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	CreatedBy    string
}
