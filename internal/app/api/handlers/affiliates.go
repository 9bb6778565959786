package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	mw "github.com/feiralivre/monetize/internal/app/api/middleware"
	"github.com/feiralivre/monetize/internal/app/service/affiliate"
	"github.com/feiralivre/monetize/pkg/response"
)

func ApiEnrollAffiliate(svc *affiliate.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req affiliate.EnrollRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		aff, err := svc.Enroll(c.Request.Context(), mw.PrincipalFrom(c), &req)
		if err != nil {
			if errors.Is(err, affiliate.ErrAlreadyEnrolled) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(aff))
	}
}

func ApiGetAffiliateSummary(svc *affiliate.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := svc.GetSummary(c.Request.Context(), mw.PrincipalFrom(c))
		if err != nil {
			if errors.Is(err, affiliate.ErrAffiliateNotFound) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(summary))
	}
}

type registerReferralRequest struct {
	Code string `json:"code"`
}

// ApiRegisterReferral binds the calling user to the affiliate owning the code.
// Called once by the signup flow when a referral code was present.
func ApiRegisterReferral(svc *affiliate.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerReferralRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		ref, err := svc.RegisterReferral(c.Request.Context(), req.Code, mw.PrincipalFrom(c))
		if err != nil {
			switch {
			case errors.Is(err, affiliate.ErrReferralCodeNotFound),
				errors.Is(err, affiliate.ErrAlreadyReferred),
				errors.Is(err, affiliate.ErrSelfReferral):
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			default:
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			}
			return
		}
		c.JSON(http.StatusOK, response.OKT(ref))
	}
}

func ApiListReferrals(svc *affiliate.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		refs, err := svc.ListReferrals(c.Request.Context(), mw.PrincipalFrom(c))
		if err != nil {
			if errors.Is(err, affiliate.ErrAffiliateNotFound) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(refs))
	}
}

func ApiRequestPayout(svc *affiliate.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req affiliate.RequestPayoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		payout, err := svc.RequestPayout(c.Request.Context(), mw.PrincipalFrom(c), &req)
		if err != nil {
			switch {
			case errors.Is(err, affiliate.ErrAffiliateNotFound),
				errors.Is(err, affiliate.ErrBelowMinimumPayout),
				errors.Is(err, affiliate.ErrInsufficientPendingBalance):
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			default:
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			}
			return
		}
		c.JSON(http.StatusOK, response.OKT(payout))
	}
}

func ApiListPayouts(svc *affiliate.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		payouts, err := svc.ListPayouts(c.Request.Context(), mw.PrincipalFrom(c))
		if err != nil {
			if errors.Is(err, affiliate.ErrAffiliateNotFound) {
				c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(payouts))
	}
}

func RegisterAffiliateRoutes(r gin.IRouter, svc *affiliate.Service) {
	r.POST("", ApiEnrollAffiliate(svc))
	r.GET("/summary", ApiGetAffiliateSummary(svc))
	r.POST("/referrals", ApiRegisterReferral(svc))
	r.GET("/referrals", ApiListReferrals(svc))
	r.POST("/payouts", ApiRequestPayout(svc))
	r.GET("/payouts", ApiListPayouts(svc))
}
