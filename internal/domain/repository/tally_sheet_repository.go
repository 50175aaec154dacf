package repository

import (
	"context"

	"github.com/tu-usuario/lumber-pro/internal/domain/entity"
)

// AvailableLotsFilter criterios para la búsqueda FIFO de lotes disponibles.
// SubsidiaryID y Grade son opcionales (vacío = sin filtro).
type AvailableLotsFilter struct {
	ItemID       string
	LocationID   string
	SubsidiaryID string
	Grade        string
	Limit        int // 0 = sin límite
}

// TallySheetRepository puerto de persistencia para tally sheets (lotes).
// FindAvailable SIEMPRE devuelve los lotes ordenados por fecha de recepción
// ascendente (FIFO): el más viejo primero.
type TallySheetRepository interface {
	Create(ctx context.Context, lot *entity.TallySheet) (string, error)
	GetByID(ctx context.Context, id string) (*entity.TallySheet, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE) para la secuencia
	// leer balance → decrementar → escribir dentro de una transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.TallySheet, error)
	Update(ctx context.Context, lot *entity.TallySheet) error
	FindAvailable(ctx context.Context, filter AvailableLotsFilter) ([]*entity.TallySheet, error)
	// FindAvailableForUpdate variante con bloqueo de filas, para la caminata
	// FIFO de asignación dentro de una transacción.
	FindAvailableForUpdate(ctx context.Context, filter AvailableLotsFilter) ([]*entity.TallySheet, error)
	// ListByStatus para los jobs de reconciliación (paginado).
	ListByStatus(ctx context.Context, statuses []string, limit, offset int) ([]*entity.TallySheet, error)
}
