package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/staffstore-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/staffstore-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type failingProvider struct{ err error }

func (p failingProvider) Client(context.Context) (*db.Client, error) { return nil, p.err }

func TestBaseDBPropagatesProviderError(t *testing.T) {
	boom := errors.New("connection refused")
	_, err := NewBase(failingProvider{err: boom}).DB(context.Background())
	assert.ErrorIs(t, err, boom)
}

func TestBaseWithTxBypassesProvider(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	base := NewBase(failingProvider{err: errors.New("unused")}).WithTx(conn)
	got, err := base.DB(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestBaseDBUsesClient(t *testing.T) {
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	got, err := NewBase(db.NewFromGorm(conn)).DB(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
}

func TestStoreErrorClassification(t *testing.T) {
	assert.Nil(t, StoreError(nil, "op", "msg"))

	unavailable := StoreError(errors.Join(db.ErrUnavailable, errors.New("dial")), "list products", "Failed to load products")
	assert.True(t, pkgerrors.IsCode(unavailable, pkgerrors.CodeStoreUnavailable))

	internal := StoreError(errors.New("no such table: products"), "list products", "Failed to load products")
	typed := pkgerrors.As(internal)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeInternal, typed.Code())
	assert.Equal(t, "Failed to load products", typed.PublicMessage())

	already := pkgerrors.New(pkgerrors.CodeNotFound, "Variant not found")
	assert.Same(t, already, StoreError(already, "op", "msg"))
}
