package repository

import (
	"context"

	"github.com/tu-usuario/lumber-pro/internal/domain/entity"
)

// ItemRepository puerto de lectura del maestro de ítems.
// El resolver de dimensiones lo consume a través de un cache con TTL.
type ItemRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Item, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Item, error)
	List(ctx context.Context, onlyLumber bool, limit, offset int) ([]*entity.Item, error)
}
