package controllers

import (
	"net/http"

	"github.com/angelmondragon/staffstore-backend/api/responses"
	"github.com/angelmondragon/staffstore-backend/internal/catalog"
	pkgerrors "github.com/angelmondragon/staffstore-backend/pkg/errors"
	"github.com/angelmondragon/staffstore-backend/pkg/logger"
	"github.com/angelmondragon/staffstore-backend/pkg/types"
)

type ProductsResponse struct {
	types.Envelope
	Products []catalog.ProductDTO `json:"products"`
}

// ListProducts returns the public catalog.
func ListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		products, err := svc.ListProducts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, ProductsResponse{Envelope: types.Success(), Products: products})
	}
}
