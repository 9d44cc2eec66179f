package controllers

import (
	"net/http"

	"github.com/teelab/storefront/api/responses"
	analyticsvc "github.com/teelab/storefront/internal/analytics"
	"github.com/teelab/storefront/pkg/logger"
)

// AnalyticsPerDesign returns per-design sales figures for the dashboard.
func AnalyticsPerDesign(svc analyticsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := svc.PerDesign(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}

// AnalyticsOverall returns shop-wide totals.
func AnalyticsOverall(svc analyticsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		overall, err := svc.Overall(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, overall)
	}
}
