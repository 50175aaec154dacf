package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/lumber-pro/internal/domain"
	"github.com/tu-usuario/lumber-pro/internal/domain/entity"
	"github.com/tu-usuario/lumber-pro/internal/domain/repository"
)

var _ repository.AllocationRepository = (*AllocationRepo)(nil)

// AllocationRepo implementación de AllocationRepository sobre PostgreSQL (usable con pool o tx).
type AllocationRepo struct {
	q Querier
}

// NewAllocationRepository construye el adaptador de asignaciones. Pasar pool o tx (Querier).
func NewAllocationRepository(q Querier) *AllocationRepo {
	return &AllocationRepo{q: q}
}

const allocationColumns = `
	id, tally_sheet_id, demand_id, item_id, quantity, status, created_at, updated_at, created_by`

func scanAllocation(row pgx.Row) (*entity.Allocation, error) {
	var a entity.Allocation
	err := row.Scan(
		&a.ID, &a.TallySheetID, &a.DemandID, &a.ItemID, &a.Quantity, &a.Status,
		&a.CreatedAt, &a.UpdatedAt, &a.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create inserta una asignación lote→demanda.
func (r *AllocationRepo) Create(ctx context.Context, alloc *entity.Allocation) (string, error) {
	id := uuid.New().String()
	query := `
		INSERT INTO allocations (id, tally_sheet_id, demand_id, item_id, quantity, status, created_at, updated_at, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := r.q.Exec(ctx, query,
		id, alloc.TallySheetID, alloc.DemandID, alloc.ItemID, alloc.Quantity, alloc.Status,
		alloc.CreatedAt, alloc.UpdatedAt, alloc.CreatedBy,
	)
	if err != nil {
		return "", fmt.Errorf("create allocation: %w", err)
	}
	return id, nil
}

// GetByID obtiene una asignación por id.
func (r *AllocationRepo) GetByID(ctx context.Context, id string) (*entity.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocations WHERE id = $1`
	a, err := scanAllocation(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get allocation: %w", err)
	}
	return a, nil
}

// ListByDemand asignaciones de una demanda, opcionalmente filtradas por estado.
func (r *AllocationRepo) ListByDemand(ctx context.Context, demandID, status string) ([]*entity.Allocation, error) {
	query := `SELECT ` + allocationColumns + ` FROM allocations WHERE demand_id = $1`
	args := []any{demandID}
	if status != "" {
		args = append(args, status)
		query += " AND status = $2"
	}
	query += " ORDER BY created_at ASC, id ASC"
	return r.queryAllocations(ctx, query, args, "list allocations by demand")
}

// ListByTallySheet asignaciones de un lote en los estados dados.
func (r *AllocationRepo) ListByTallySheet(ctx context.Context, tallySheetID string, statuses []string) ([]*entity.Allocation, error) {
	query := `SELECT ` + allocationColumns + `
		FROM allocations
		WHERE tally_sheet_id = $1 AND status = ANY($2)
		ORDER BY created_at ASC, id ASC`
	return r.queryAllocations(ctx, query, []any{tallySheetID, statuses}, "list allocations by tally sheet")
}

// UpdateStatus transiciona el estado de una asignación.
func (r *AllocationRepo) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE allocations SET status = $2, updated_at = $3 WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, id, status, time.Now())
	if err != nil {
		return fmt.Errorf("update allocation status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SumByTallySheet suma las cantidades asignadas del lote en los estados dados.
// COALESCE: sin filas la suma es cero, no NULL.
func (r *AllocationRepo) SumByTallySheet(ctx context.Context, tallySheetID string, statuses []string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(quantity), 0)
		FROM allocations
		WHERE tally_sheet_id = $1 AND status = ANY($2)`
	var sum decimal.Decimal
	if err := r.q.QueryRow(ctx, query, tallySheetID, statuses).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum allocations: %w", err)
	}
	return sum, nil
}

func (r *AllocationRepo) queryAllocations(ctx context.Context, query string, args []any, op string) ([]*entity.Allocation, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var allocs []*entity.Allocation
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		allocs = append(allocs, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return allocs, nil
}
