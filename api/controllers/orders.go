package controllers

import (
	"net/http"

	"github.com/angelmondragon/staffstore-backend/api/responses"
	"github.com/angelmondragon/staffstore-backend/api/validators"
	"github.com/angelmondragon/staffstore-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/staffstore-backend/pkg/errors"
	"github.com/angelmondragon/staffstore-backend/pkg/logger"
)

// CreateOrder places a single-line staff order.
func CreateOrder(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var payload orders.CreateOrderRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Fulfill(r.Context(), payload.ToInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, orders.NewCreateOrderResponse(result))
	}
}
