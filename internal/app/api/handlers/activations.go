package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	mw "github.com/feiralivre/monetize/internal/app/api/middleware"
	"github.com/feiralivre/monetize/internal/app/service/activation"
	"github.com/feiralivre/monetize/internal/app/service/catalog"
	"github.com/feiralivre/monetize/internal/app/service/ledger"
	"github.com/feiralivre/monetize/pkg/response"
	"github.com/feiralivre/monetize/pkg/types"
)

type createActivationRequest struct {
	ListingID     string              `json:"listing_id"`
	OfferingID    string              `json:"offering_id"`
	PaymentMethod types.PaymentMethod `json:"payment_method"`
	AutoRenew     bool                `json:"auto_renew"`
}

// ApiCreateActivation activates an offering on a listing. Credit purchases
// complete synchronously; money purchases return a checkout redirect and
// complete through the payment webhook.
func ApiCreateActivation(act *activation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createActivationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if req.ListingID == "" || req.OfferingID == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing listing_id or offering_id"))
			return
		}

		svcReq := &activation.ActivateRequest{
			ListingID:  req.ListingID,
			OfferingID: req.OfferingID,
			OwnerID:    mw.PrincipalFrom(c),
			AutoRenew:  req.AutoRenew,
		}

		if req.PaymentMethod == types.PaymentMethodMoney {
			intent, err := act.StartCheckout(c.Request.Context(), svcReq)
			if err != nil {
				writeActivationError(c, err)
				return
			}
			c.JSON(http.StatusOK, response.OKT(&checkoutResp{
				CheckoutID:  intent.ID,
				RedirectURL: intent.RedirectURL,
				AmountCents: intent.AmountCents,
			}))
			return
		}

		created, err := act.Activate(c.Request.Context(), svcReq)
		if err != nil {
			writeActivationError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(created))
	}
}

func writeActivationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, activation.ErrListingNotFound),
		errors.Is(err, catalog.ErrOfferingNotFound),
		errors.Is(err, catalog.ErrOfferingInactive),
		errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrUnknownAccount),
		errors.Is(err, activation.ErrConcurrentActivationConflict):
		c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
	default:
		c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
	}
}

func ApiCancelActivation(act *activation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := act.Cancel(c.Request.Context(), c.Param("id"), mw.PrincipalFrom(c))
		if err != nil {
			switch {
			case errors.Is(err, activation.ErrActivationNotFound), errors.Is(err, activation.ErrNotOwner):
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			default:
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			}
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

type listingBadgesResp struct {
	ListingID string              `json:"listing_id"`
	Badges    []types.ActiveBadge `json:"badges"`
}

func ApiGetListingBadges(act *activation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		listingID := c.Param("id")
		badges, err := act.GetActiveBadges(c.Request.Context(), listingID)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(&listingBadgesResp{ListingID: listingID, Badges: badges}))
	}
}

func ApiRecordView(act *activation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := act.RecordView(c.Request.Context(), c.Param("id")); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

func ApiRecordClick(act *activation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := act.RecordClick(c.Request.Context(), c.Param("id")); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT[any](nil))
	}
}

func ApiListOfferings(cat *catalog.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		kind := types.OfferingKind(c.Query("kind"))
		c.JSON(http.StatusOK, response.OKT(cat.ListActive(c.Request.Context(), kind)))
	}
}

func RegisterActivationRoutes(r gin.IRouter, act *activation.Service, cat *catalog.Service) {
	r.GET("/offerings", ApiListOfferings(cat))
	r.POST("/activations", ApiCreateActivation(act))
	r.POST("/activations/:id/cancel", ApiCancelActivation(act))
	r.GET("/listings/:id/activations", ApiGetListingBadges(act))
	r.POST("/listings/:id/views", ApiRecordView(act))
	r.POST("/listings/:id/clicks", ApiRecordClick(act))
}
