package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/staffstore-backend/api/middleware"
	"github.com/angelmondragon/staffstore-backend/api/responses"
	"github.com/angelmondragon/staffstore-backend/api/validators"
	"github.com/angelmondragon/staffstore-backend/internal/admin"
	"github.com/angelmondragon/staffstore-backend/internal/catalog"
	"github.com/angelmondragon/staffstore-backend/internal/ledger"
	pkgerrors "github.com/angelmondragon/staffstore-backend/pkg/errors"
	"github.com/angelmondragon/staffstore-backend/pkg/logger"
	"github.com/angelmondragon/staffstore-backend/pkg/pagination"
	"github.com/angelmondragon/staffstore-backend/pkg/types"
)

type AdminProductsResponse struct {
	types.Envelope
	Products []catalog.AdminProductDTO `json:"products"`
}

type AdminStockResponse struct {
	types.Envelope
	catalog.StockDTO
}

type AdminOrdersResponse struct {
	types.Envelope
	ledger.OrderPage
}

type setStockRequest struct {
	Size  string `json:"size" validate:"required,max=32"`
	Color string `json:"color" validate:"required,max=64"`
	Stock *int   `json:"stock" validate:"required,gte=0"`
}

func AdminLogin(svc admin.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}

		var payload admin.LoginRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.Login(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, resp)
	}
}

func AdminListProducts(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		products, err := svc.ListAdminProducts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, AdminProductsResponse{Envelope: types.Success(), Products: products})
	}
}

// AdminSetVariantStock overwrites one variant's stock.
func AdminSetVariantStock(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productID, err := strconv.Atoi(strings.TrimSpace(chi.URLParam(r, "productId")))
		if err != nil || productID <= 0 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id").
				WithDetails(map[string]string{"productId": "must be a positive integer"}))
			return
		}

		var payload setStockRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithField(ctx, "auth_method", middleware.AuthMethodFromContext(ctx))
		}
		stock, err := svc.SetVariantStock(ctx, catalog.SetStockInput{
			ProductID: productID,
			Size:      validators.SanitizeString(payload.Size, 32),
			Color:     validators.SanitizeString(payload.Color, 64),
			Stock:     *payload.Stock,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, AdminStockResponse{Envelope: types.Success(), StockDTO: *stock})
	}
}

// AdminListOrders pages through the order ledger, newest first.
func AdminListOrders(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", validators.IntRange{
			Default: pagination.DefaultLimit,
			Min:     1,
			Max:     pagination.MaxLimit,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, AdminOrdersResponse{Envelope: types.Success(), OrderPage: *page})
	}
}
