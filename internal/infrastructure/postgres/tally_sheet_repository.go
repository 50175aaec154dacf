package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/tu-usuario/lumber-pro/internal/domain"
	"github.com/tu-usuario/lumber-pro/internal/domain/entity"
	"github.com/tu-usuario/lumber-pro/internal/domain/repository"
)

var _ repository.TallySheetRepository = (*TallySheetRepo)(nil)

// TallySheetRepo implementación de TallySheetRepository sobre PostgreSQL (usable con pool o tx).
type TallySheetRepo struct {
	q Querier
}

// NewTallySheetRepository construye el adaptador de tally sheets. Pasar pool o tx (Querier).
func NewTallySheetRepository(q Querier) *TallySheetRepo {
	return &TallySheetRepo{q: q}
}

const tallySheetColumns = `
	id, lot_number, vendor_lot, bundle_id, item_id, location_id, subsidiary_id,
	received_qty, remaining_qty, status,
	thickness_in, width_in, length_ft, pieces_per_bundle,
	grade, moisture_pct, received_date, created_at, updated_at, created_by`

func scanTallySheet(row pgx.Row) (*entity.TallySheet, error) {
	var t entity.TallySheet
	err := row.Scan(
		&t.ID, &t.LotNumber, &t.VendorLot, &t.BundleID, &t.ItemID, &t.LocationID, &t.SubsidiaryID,
		&t.ReceivedQty, &t.RemainingQty, &t.Status,
		&t.Dimensions.ThicknessIn, &t.Dimensions.WidthIn, &t.Dimensions.LengthFt, &t.Dimensions.PiecesPerBundle,
		&t.Grade, &t.MoisturePct, &t.ReceivedDate, &t.CreatedAt, &t.UpdatedAt, &t.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Create inserta un tally sheet. lot_number tiene constraint único.
func (r *TallySheetRepo) Create(ctx context.Context, lot *entity.TallySheet) (string, error) {
	id := uuid.New().String()
	query := `
		INSERT INTO tally_sheets (
			id, lot_number, vendor_lot, bundle_id, item_id, location_id, subsidiary_id,
			received_qty, remaining_qty, status,
			thickness_in, width_in, length_ft, pieces_per_bundle,
			grade, moisture_pct, received_date, created_at, updated_at, created_by
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`
	_, err := r.q.Exec(ctx, query,
		id, lot.LotNumber, lot.VendorLot, lot.BundleID, lot.ItemID, lot.LocationID, lot.SubsidiaryID,
		lot.ReceivedQty, lot.RemainingQty, lot.Status,
		lot.Dimensions.ThicknessIn, lot.Dimensions.WidthIn, lot.Dimensions.LengthFt, lot.Dimensions.PiecesPerBundle,
		lot.Grade, lot.MoisturePct, lot.ReceivedDate, lot.CreatedAt, lot.UpdatedAt, lot.CreatedBy,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("lot_number %s: %w", lot.LotNumber, domain.ErrDuplicate)
		}
		return "", fmt.Errorf("create tally sheet: %w", err)
	}
	return id, nil
}

// GetByID obtiene un tally sheet por id.
func (r *TallySheetRepo) GetByID(ctx context.Context, id string) (*entity.TallySheet, error) {
	query := `SELECT ` + tallySheetColumns + ` FROM tally_sheets WHERE id = $1`
	lot, err := scanTallySheet(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get tally sheet: %w", err)
	}
	return lot, nil
}

// GetForUpdate obtiene el tally sheet y bloquea la fila (SELECT FOR UPDATE).
func (r *TallySheetRepo) GetForUpdate(ctx context.Context, id string) (*entity.TallySheet, error) {
	query := `SELECT ` + tallySheetColumns + ` FROM tally_sheets WHERE id = $1 FOR UPDATE`
	lot, err := scanTallySheet(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get tally sheet for update: %w", err)
	}
	return lot, nil
}

// Update persiste balance, estado y metadatos mutables del lote.
func (r *TallySheetRepo) Update(ctx context.Context, lot *entity.TallySheet) error {
	query := `
		UPDATE tally_sheets
		SET remaining_qty = $2, status = $3, grade = $4, moisture_pct = $5, updated_at = $6
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		lot.ID, lot.RemainingQty, lot.Status, lot.Grade, lot.MoisturePct, lot.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update tally sheet: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// availableLotsQuery arma la consulta FIFO: balance > 0, estado consumible,
// ORDER BY received_date ASC (el más viejo primero; id desempata para un
// orden total estable).
func availableLotsQuery(filter repository.AvailableLotsFilter, forUpdate bool) (string, []any) {
	query := `SELECT ` + tallySheetColumns + `
		FROM tally_sheets
		WHERE item_id = $1 AND location_id = $2
		  AND remaining_qty > 0
		  AND status IN ('OPEN','PARTIAL','ALLOCATED')`
	args := []any{filter.ItemID, filter.LocationID}

	if filter.SubsidiaryID != "" {
		args = append(args, filter.SubsidiaryID)
		query += fmt.Sprintf(" AND subsidiary_id = $%d", len(args))
	}
	if filter.Grade != "" {
		args = append(args, filter.Grade)
		query += fmt.Sprintf(" AND grade = $%d", len(args))
	}
	query += " ORDER BY received_date ASC, id ASC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if forUpdate {
		query += " FOR UPDATE"
	}
	return query, args
}

// FindAvailable lotes disponibles en orden FIFO.
func (r *TallySheetRepo) FindAvailable(ctx context.Context, filter repository.AvailableLotsFilter) ([]*entity.TallySheet, error) {
	query, args := availableLotsQuery(filter, false)
	return r.queryLots(ctx, query, args, "find available lots")
}

// FindAvailableForUpdate lotes disponibles en orden FIFO con bloqueo de filas,
// para la caminata de asignación dentro de una transacción.
func (r *TallySheetRepo) FindAvailableForUpdate(ctx context.Context, filter repository.AvailableLotsFilter) ([]*entity.TallySheet, error) {
	query, args := availableLotsQuery(filter, true)
	return r.queryLots(ctx, query, args, "find available lots for update")
}

// ListByStatus lotes en los estados dados, paginado (jobs de reconciliación).
func (r *TallySheetRepo) ListByStatus(ctx context.Context, statuses []string, limit, offset int) ([]*entity.TallySheet, error) {
	query := `SELECT ` + tallySheetColumns + `
		FROM tally_sheets
		WHERE status = ANY($1)
		ORDER BY id ASC
		LIMIT $2 OFFSET $3`
	return r.queryLots(ctx, query, []any{statuses, limit, offset}, "list tally sheets by status")
}

func (r *TallySheetRepo) queryLots(ctx context.Context, query string, args []any, op string) ([]*entity.TallySheet, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var lots []*entity.TallySheet
	for rows.Next() {
		lot, err := scanTallySheet(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		lots = append(lots, lot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return lots, nil
}
