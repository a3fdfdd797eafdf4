package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/rewardloop/rewardloop-backend/api/middleware"
	"github.com/rewardloop/rewardloop-backend/api/responses"
	"github.com/rewardloop/rewardloop-backend/api/validators"
	"github.com/rewardloop/rewardloop-backend/internal/cashbackconfig"
	pkgerrors "github.com/rewardloop/rewardloop-backend/pkg/errors"
	"github.com/rewardloop/rewardloop-backend/pkg/logger"
)

type cashbackConfigPayload struct {
	ConsumerPercent         decimal.Decimal `json:"consumerPercent"`
	ClubPercent             decimal.Decimal `json:"clubPercent"`
	ConsumerReferrerPercent decimal.Decimal `json:"consumerReferrerPercent"`
	MerchantReferrerPercent decimal.Decimal `json:"merchantReferrerPercent"`
}

func toConfigPayload(cfg cashbackconfig.Config) cashbackConfigPayload {
	return cashbackConfigPayload{
		ConsumerPercent:         cfg.ConsumerPercent,
		ClubPercent:             cfg.ClubPercent,
		ConsumerReferrerPercent: cfg.ConsumerReferrerPercent,
		MerchantReferrerPercent: cfg.MerchantReferrerPercent,
	}
}

// GetCashbackConfig returns the tenant's effective distribution percentages,
// defaults included.
func GetCashbackConfig(configs cashbackconfig.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		tenant := middleware.TenantFromContext(ctx)
		if tenant == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tenant not resolved"))
			return
		}

		cfg, err := configs.GetConfig(ctx, tenant.ID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toConfigPayload(cfg))
	}
}

// UpdateCashbackConfig stores new distribution percentages for the tenant.
func UpdateCashbackConfig(configs cashbackconfig.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		tenant := middleware.TenantFromContext(ctx)
		handle := middleware.TenantDBFromContext(ctx)
		if tenant == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tenant not resolved"))
			return
		}

		var body cashbackConfigPayload
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		updated, err := configs.UpdateConfig(ctx, handle, tenant.ID, cashbackconfig.Config{
			ConsumerPercent:         body.ConsumerPercent,
			ClubPercent:             body.ClubPercent,
			ConsumerReferrerPercent: body.ConsumerReferrerPercent,
			MerchantReferrerPercent: body.MerchantReferrerPercent,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toConfigPayload(updated))
	}
}
