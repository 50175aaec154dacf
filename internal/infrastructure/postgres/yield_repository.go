package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/tu-usuario/lumber-pro/internal/domain"
	"github.com/tu-usuario/lumber-pro/internal/domain/entity"
	"github.com/tu-usuario/lumber-pro/internal/domain/repository"
)

var _ repository.YieldRepository = (*YieldRepo)(nil)

// YieldRepo implementación de YieldRepository sobre PostgreSQL (usable con pool o tx).
type YieldRepo struct {
	q Querier
}

// NewYieldRepository construye el adaptador de rendimiento. Pasar pool o tx (Querier).
func NewYieldRepository(q Querier) *YieldRepo {
	return &YieldRepo{q: q}
}

const yieldColumns = `
	id, work_order_id, item_id, location_id,
	theoretical_bf, actual_bf, output_bf, waste_bf, recovery_pct,
	expected_yield_pct, variance_status, waste_reason, created_at, created_by`

func scanYieldEntry(row pgx.Row) (*entity.YieldEntry, error) {
	var e entity.YieldEntry
	err := row.Scan(
		&e.ID, &e.WorkOrderID, &e.ItemID, &e.LocationID,
		&e.TheoreticalBF, &e.ActualBF, &e.OutputBF, &e.WasteBF, &e.RecoveryPct,
		&e.ExpectedYieldPct, &e.VarianceStatus, &e.WasteReason, &e.CreatedAt, &e.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// Create inserta un registro de rendimiento.
func (r *YieldRepo) Create(ctx context.Context, e *entity.YieldEntry) (string, error) {
	id := uuid.New().String()
	query := `
		INSERT INTO yield_entries (
			id, work_order_id, item_id, location_id,
			theoretical_bf, actual_bf, output_bf, waste_bf, recovery_pct,
			expected_yield_pct, variance_status, waste_reason, created_at, created_by
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)`
	_, err := r.q.Exec(ctx, query,
		id, e.WorkOrderID, e.ItemID, e.LocationID,
		e.TheoreticalBF, e.ActualBF, e.OutputBF, e.WasteBF, e.RecoveryPct,
		e.ExpectedYieldPct, e.VarianceStatus, e.WasteReason, e.CreatedAt, e.CreatedBy,
	)
	if err != nil {
		return "", fmt.Errorf("create yield entry: %w", err)
	}
	return id, nil
}

// GetByID obtiene un registro por id.
func (r *YieldRepo) GetByID(ctx context.Context, id string) (*entity.YieldEntry, error) {
	query := `SELECT ` + yieldColumns + ` FROM yield_entries WHERE id = $1`
	e, err := scanYieldEntry(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get yield entry: %w", err)
	}
	return e, nil
}

// GetForUpdate obtiene el registro y bloquea la fila para la vía de ajuste.
func (r *YieldRepo) GetForUpdate(ctx context.Context, id string) (*entity.YieldEntry, error) {
	query := `SELECT ` + yieldColumns + ` FROM yield_entries WHERE id = $1 FOR UPDATE`
	e, err := scanYieldEntry(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get yield entry for update: %w", err)
	}
	return e, nil
}

// Update persiste los campos mutables vía ajuste y sus derivados.
func (r *YieldRepo) Update(ctx context.Context, e *entity.YieldEntry) error {
	query := `
		UPDATE yield_entries
		SET theoretical_bf = $2, actual_bf = $3, output_bf = $4, waste_bf = $5,
		    recovery_pct = $6, expected_yield_pct = $7, variance_status = $8
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		e.ID, e.TheoreticalBF, e.ActualBF, e.OutputBF, e.WasteBF,
		e.RecoveryPct, e.ExpectedYieldPct, e.VarianceStatus,
	)
	if err != nil {
		return fmt.Errorf("update yield entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CreateAdjustment inserta una fila del rastro de auditoría.
func (r *YieldRepo) CreateAdjustment(ctx context.Context, adj *entity.YieldAdjustment) error {
	query := `
		INSERT INTO yield_adjustments (id, yield_entry_id, field, previous_value, new_value, reason, created_at, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`
	_, err := r.q.Exec(ctx, query,
		uuid.New().String(), adj.YieldEntryID, adj.Field, adj.PreviousValue, adj.NewValue,
		adj.Reason, adj.CreatedAt, adj.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("create yield adjustment: %w", err)
	}
	return nil
}

// ListAdjustments historial de ajustes de un registro, el más viejo primero.
func (r *YieldRepo) ListAdjustments(ctx context.Context, yieldEntryID string) ([]*entity.YieldAdjustment, error) {
	query := `
		SELECT id, yield_entry_id, field, previous_value, new_value, reason, created_at, created_by
		FROM yield_adjustments
		WHERE yield_entry_id = $1
		ORDER BY created_at ASC, id ASC`
	rows, err := r.q.Query(ctx, query, yieldEntryID)
	if err != nil {
		return nil, fmt.Errorf("list yield adjustments: %w", err)
	}
	defer rows.Close()

	var adjs []*entity.YieldAdjustment
	for rows.Next() {
		var a entity.YieldAdjustment
		if err := rows.Scan(&a.ID, &a.YieldEntryID, &a.Field, &a.PreviousValue, &a.NewValue, &a.Reason, &a.CreatedAt, &a.CreatedBy); err != nil {
			return nil, fmt.Errorf("list yield adjustments: scan: %w", err)
		}
		adjs = append(adjs, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list yield adjustments: rows: %w", err)
	}
	return adjs, nil
}

// groupByColumn traduce la dimensión de agrupación a su columna. La lista
// cerrada evita interpolar entrada del caller en el SQL.
func groupByColumn(groupBy string) (string, error) {
	switch groupBy {
	case repository.YieldGroupByItem:
		return "item_id", nil
	case repository.YieldGroupByWorkOrder:
		return "work_order_id", nil
	case repository.YieldGroupByWasteReason:
		return "waste_reason", nil
	}
	return "", domain.ErrInvalidInput
}

// yieldFilterClause arma el WHERE a partir del filtro. Campos vacíos no filtran.
func yieldFilterClause(filter repository.YieldFilter) (string, []any) {
	clause := " WHERE 1=1"
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		clause += fmt.Sprintf(" AND "+cond, len(args))
	}
	if filter.ItemID != "" {
		add("item_id = $%d", filter.ItemID)
	}
	if filter.WorkOrderID != "" {
		add("work_order_id = $%d", filter.WorkOrderID)
	}
	if filter.LocationID != "" {
		add("location_id = $%d", filter.LocationID)
	}
	if filter.WasteReason != "" {
		add("waste_reason = $%d", filter.WasteReason)
	}
	if filter.From != nil {
		add("created_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("created_at < $%d", *filter.To)
	}
	return clause, args
}

// Aggregate reduce los registros que pasan el filtro agrupados por la columna pedida.
func (r *YieldRepo) Aggregate(ctx context.Context, groupBy string, filter repository.YieldFilter) ([]repository.YieldAggregate, error) {
	column, err := groupByColumn(groupBy)
	if err != nil {
		return nil, err
	}
	clause, args := yieldFilterClause(filter)
	query := fmt.Sprintf(`
		SELECT %s,
		       COALESCE(SUM(theoretical_bf), 0),
		       COALESCE(SUM(actual_bf), 0),
		       COALESCE(SUM(waste_bf), 0),
		       COALESCE(AVG(recovery_pct), 0),
		       COUNT(*)
		FROM yield_entries%s
		GROUP BY %s
		ORDER BY %s ASC`, column, clause, column, column)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate yield: %w", err)
	}
	defer rows.Close()

	var out []repository.YieldAggregate
	for rows.Next() {
		var agg repository.YieldAggregate
		if err := rows.Scan(&agg.Key, &agg.SumTheoretical, &agg.SumActual, &agg.SumWaste, &agg.AvgRecoveryPct, &agg.Count); err != nil {
			return nil, fmt.Errorf("aggregate yield: scan: %w", err)
		}
		out = append(out, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("aggregate yield: rows: %w", err)
	}
	return out, nil
}

// FindRecoveryOutside registros con recuperación fuera de [minPct, maxPct]
// en la ventana del filtro (detección de anomalías).
func (r *YieldRepo) FindRecoveryOutside(ctx context.Context, minPct, maxPct decimal.Decimal, filter repository.YieldFilter) ([]*entity.YieldEntry, error) {
	clause, args := yieldFilterClause(filter)
	args = append(args, minPct)
	minIdx := len(args)
	args = append(args, maxPct)
	maxIdx := len(args)
	query := fmt.Sprintf(`SELECT `+yieldColumns+`
		FROM yield_entries%s
		AND (recovery_pct < $%d OR recovery_pct > $%d)
		ORDER BY created_at ASC, id ASC`, clause, minIdx, maxIdx)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find recovery outside: %w", err)
	}
	defer rows.Close()

	var out []*entity.YieldEntry
	for rows.Next() {
		e, err := scanYieldEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("find recovery outside: scan: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find recovery outside: rows: %w", err)
	}
	return out, nil
}
