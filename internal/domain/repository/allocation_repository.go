package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/tu-usuario/lumber-pro/internal/domain/entity"
)

// AllocationRepository puerto de persistencia para asignaciones lote→demanda.
type AllocationRepository interface {
	Create(ctx context.Context, alloc *entity.Allocation) (string, error)
	GetByID(ctx context.Context, id string) (*entity.Allocation, error)
	// ListByDemand filtra por demanda y opcionalmente por estado (vacío = todos).
	ListByDemand(ctx context.Context, demandID, status string) ([]*entity.Allocation, error)
	ListByTallySheet(ctx context.Context, tallySheetID string, statuses []string) ([]*entity.Allocation, error)
	UpdateStatus(ctx context.Context, id, status string) error
	// SumByTallySheet suma las cantidades de las asignaciones del lote en los
	// estados dados (reserva viva, consumo acumulado, etc.).
	SumByTallySheet(ctx context.Context, tallySheetID string, statuses []string) (decimal.Decimal, error)
}
