package repo

import (
	"context"

	"github.com/angelmondragon/staffstore-backend/pkg/db"
	"gorm.io/gorm"
)

// Base provides a shared foundation for domain repositories. Outside a
// transaction it resolves the connection through the lazy store handle so
// repositories can be wired before the database is reachable.
type Base struct {
	provider db.Provider
	tx       *gorm.DB
}

// NewBase constructs a Base repository backed by the provided store handle.
func NewBase(provider db.Provider) Base {
	return Base{provider: provider}
}

// WithTx returns a copy bound to tx.
func (b Base) WithTx(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{provider: b.provider, tx: tx}
}

// DB returns the GORM connection bound to the supplied context.
func (b Base) DB(ctx context.Context) (*gorm.DB, error) {
	if b.tx != nil {
		return b.tx.WithContext(ctx), nil
	}
	client, err := b.provider.Client(ctx)
	if err != nil {
		return nil, err
	}
	return client.DB().WithContext(ctx), nil
}
