package repo

import (
	"github.com/angelmondragon/staffstore-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/staffstore-backend/pkg/errors"
)

// StoreError classifies a persistence failure. Unreachable stores map to
// CodeStoreUnavailable; anything else is internal and shown to callers as publicMsg.
func StoreError(err error, op string, publicMsg string) error {
	if err == nil {
		return nil
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	if db.IsUnavailable(err) {
		return pkgerrors.Wrap(pkgerrors.CodeStoreUnavailable, err, op)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op).WithPublicMessage(publicMsg)
}
