package handlers

import (
	"context"
	"errors"
	"net/http"

	"studio/internal/domain"
)

func (a *App) CreditPackages(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{"items": domain.CreditPackages})
}

type purchaseRequest struct {
	PackageID string `json:"package_id"`
}

// Purchase runs the simulated checkout for a package.
func (a *App) Purchase(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req purchaseRequest
	if !a.decode(w, r, &req) {
		return
	}
	pkg, balance, err := a.Accounts.PurchasePackage(r.Context(), userID, req.PackageID)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, context.Canceled) {
			a.fail(w, r, err)
			return
		}
		a.logger().Error().Err(err).Str("user_id", userID).Str("package", req.PackageID).Msg("purchase failed")
		a.error(w, http.StatusBadGateway, "purchase_failed", "Purchase failed. Please try again.")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"package": pkg, "credits": balance})
}
