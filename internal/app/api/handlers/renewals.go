package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	mw "github.com/feiralivre/monetize/internal/app/api/middleware"
	"github.com/feiralivre/monetize/internal/app/service/catalog"
	"github.com/feiralivre/monetize/internal/app/service/renewal"
	"github.com/feiralivre/monetize/pkg/response"
)

func ApiUpsertRenewalSetting(svc *renewal.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req renewal.UpsertSettingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if req.ListingID == "" || req.OfferingID == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing listing_id or offering_id"))
			return
		}

		setting, err := svc.UpsertSetting(c.Request.Context(), mw.PrincipalFrom(c), &req)
		if err != nil {
			if errors.Is(err, catalog.ErrOfferingNotFound) || errors.Is(err, catalog.ErrOfferingInactive) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(setting))
	}
}

func ApiListRenewalSettings(svc *renewal.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		settings, err := svc.ListSettings(c.Request.Context(), mw.PrincipalFrom(c))
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(settings))
	}
}

func RegisterRenewalRoutes(r gin.IRouter, svc *renewal.Service) {
	r.PUT("/renewals", ApiUpsertRenewalSetting(svc))
	r.GET("/renewals", ApiListRenewalSettings(svc))
}
