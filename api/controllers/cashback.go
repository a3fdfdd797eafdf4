package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rewardloop/rewardloop-backend/api/middleware"
	"github.com/rewardloop/rewardloop-backend/api/responses"
	"github.com/rewardloop/rewardloop-backend/internal/distribution"
	"github.com/rewardloop/rewardloop-backend/pkg/db/models"
	"github.com/rewardloop/rewardloop-backend/pkg/enums"
	pkgerrors "github.com/rewardloop/rewardloop-backend/pkg/errors"
	"github.com/rewardloop/rewardloop-backend/pkg/logger"
)

type cashbackEntryResponse struct {
	Role              enums.CashbackRole `json:"role"`
	RecipientID       *uuid.UUID         `json:"recipientId"`
	Amount            decimal.Decimal    `json:"amount"`
	PercentageApplied decimal.Decimal    `json:"percentageApplied"`
}

type distributionResponse struct {
	PurchaseID         uuid.UUID               `json:"purchaseId"`
	TotalAmount        decimal.Decimal         `json:"totalAmount"`
	CashbackPercentage decimal.Decimal         `json:"cashbackPercentage"`
	TotalCashback      decimal.Decimal         `json:"totalCashback"`
	AlreadyDistributed bool                    `json:"alreadyDistributed"`
	Entries            []cashbackEntryResponse `json:"entries"`
}

func toDistributionResponse(result *distribution.Result) distributionResponse {
	entries := make([]cashbackEntryResponse, 0, len(result.Entries))
	for _, entry := range result.Entries {
		entries = append(entries, cashbackEntryResponse{
			Role:              entry.Role,
			RecipientID:       entry.RecipientID,
			Amount:            entry.Amount,
			PercentageApplied: entry.PercentageApplied,
		})
	}
	return distributionResponse{
		PurchaseID:         result.PurchaseID,
		TotalAmount:        result.TotalAmount,
		CashbackPercentage: result.CashbackPercentage,
		TotalCashback:      result.TotalCashback,
		AlreadyDistributed: result.AlreadyDistributed,
		Entries:            entries,
	}
}

// DistributeCashback triggers the distribution of a purchase's cashback.
// Replays return the recorded result with 200 instead of 201.
func DistributeCashback(factory *distribution.Factory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		purchaseID, err := uuid.Parse(chi.URLParam(r, "purchaseId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid purchase id"))
			return
		}

		tenant, svc, err := tenantService(r, factory)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.ProcessCashback(ctx, tenant.ID, purchaseID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		status := http.StatusCreated
		if result.AlreadyDistributed {
			status = http.StatusOK
		}
		responses.WriteSuccessStatus(w, status, toDistributionResponse(result))
	}
}

// GetCashback returns the recorded distribution for a purchase.
func GetCashback(factory *distribution.Factory, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		purchaseID, err := uuid.Parse(chi.URLParam(r, "purchaseId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid purchase id"))
			return
		}

		_, svc, err := tenantService(r, factory)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.GetDistribution(ctx, purchaseID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, toDistributionResponse(result))
	}
}

func tenantService(r *http.Request, factory *distribution.Factory) (*models.Tenant, distribution.Service, error) {
	tenant := middleware.TenantFromContext(r.Context())
	handle := middleware.TenantDBFromContext(r.Context())
	if tenant == nil || handle == nil {
		return nil, nil, pkgerrors.New(pkgerrors.CodeInternal, "tenant not resolved")
	}
	svc, err := factory.ForTenant(handle)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to build distribution service")
	}
	return tenant, svc, nil
}
