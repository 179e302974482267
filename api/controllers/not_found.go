package controllers

import (
	"net/http"

	"github.com/angelmondragon/staffstore-backend/api/responses"
	pkgerrors "github.com/angelmondragon/staffstore-backend/pkg/errors"
)

// NotFound answers unknown routes, and known paths hit with an unsupported method.
func NotFound() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeNotFound, "Not found"))
	}
}
