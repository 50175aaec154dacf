package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/lumber-pro/internal/domain/entity"
)

// Dimensiones de agrupación soportadas por Aggregate.
const (
	YieldGroupByItem        = "item"
	YieldGroupByWorkOrder   = "work_order"
	YieldGroupByWasteReason = "waste_reason"
)

// YieldFilter predicado de filtrado para consultas de rendimiento.
// Campos vacíos/nil no filtran.
type YieldFilter struct {
	ItemID      string
	WorkOrderID string
	LocationID  string
	WasteReason string
	From        *time.Time
	To          *time.Time
}

// YieldAggregate resultado crudo de la agregación (lo produce la DB;
// el use case lo convierte en DTO).
type YieldAggregate struct {
	Key            string // valor de la dimensión de agrupación
	SumTheoretical decimal.Decimal
	SumActual      decimal.Decimal
	SumWaste       decimal.Decimal
	AvgRecoveryPct decimal.Decimal
	Count          int64
}

// YieldRepository puerto de persistencia para registros de rendimiento
// y su rastro de auditoría.
type YieldRepository interface {
	Create(ctx context.Context, e *entity.YieldEntry) (string, error)
	GetByID(ctx context.Context, id string) (*entity.YieldEntry, error)
	// GetForUpdate bloquea la fila para la vía de ajuste.
	GetForUpdate(ctx context.Context, id string) (*entity.YieldEntry, error)
	Update(ctx context.Context, e *entity.YieldEntry) error
	CreateAdjustment(ctx context.Context, adj *entity.YieldAdjustment) error
	ListAdjustments(ctx context.Context, yieldEntryID string) ([]*entity.YieldAdjustment, error)
	// Aggregate reduce los registros que pasan el filtro:
	// SUM(teórico/real/desperdicio), AVG(recuperación), COUNT, agrupado por groupBy.
	Aggregate(ctx context.Context, groupBy string, filter YieldFilter) ([]YieldAggregate, error)
	// FindRecoveryOutside devuelve los registros con recuperación fuera de
	// [minPct, maxPct] en la ventana dada (detección de anomalías).
	FindRecoveryOutside(ctx context.Context, minPct, maxPct decimal.Decimal, filter YieldFilter) ([]*entity.YieldEntry, error)
}
