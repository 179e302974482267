package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/staffstore-backend/api/responses"
	"github.com/angelmondragon/staffstore-backend/pkg/db"
	"github.com/angelmondragon/staffstore-backend/pkg/logger"
	"github.com/angelmondragon/staffstore-backend/pkg/types"
)

const healthPingTimeout = 3 * time.Second

// MailStatus reports whether outbound mail is configured.
type MailStatus interface {
	MailConfigured() bool
}

type HealthResponse struct {
	types.Envelope
	DB   string `json:"db"`
	Mail bool   `json:"mail"`
}

func HealthLive() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, types.Success())
	}
}

// Health resolves the lazy store handle, which dials on first use, and pings it.
// It always answers 200; the db field carries the verdict.
func Health(store db.Provider, mail MailStatus, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{Envelope: types.Success(), DB: "disconnected"}
		if mail != nil {
			resp.Mail = mail.MailConfigured()
		}

		if err := pingStore(r.Context(), store); err != nil {
			if logg != nil {
				logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "health.db_unreachable")
			}
		} else {
			resp.DB = "connected"
		}

		responses.WriteSuccess(w, resp)
	}
}

func pingStore(ctx context.Context, store db.Provider) error {
	if store == nil {
		return db.ErrUnavailable
	}
	client, err := store.Client(ctx)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, healthPingTimeout)
	defer cancel()
	return client.Ping(ctx)
}
