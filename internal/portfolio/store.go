package portfolio

import (
	"context"

	"tradebotv1/internal/model"
)

// Store persists open positions across restarts. Implementations must
// tolerate Save overwriting an existing entry and Delete on a missing one.
type Store interface {
	Save(ctx context.Context, pos model.Position) error
	Delete(ctx context.Context, productID string) error
	Load(ctx context.Context) ([]model.Position, error)
}
