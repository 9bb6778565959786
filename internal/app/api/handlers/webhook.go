package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feiralivre/monetize/internal/app/service/activation"
	"github.com/feiralivre/monetize/pkg/response"
)

type paymentWebhookRequest struct {
	IntentID          string `json:"intent_id"`
	ExternalPaymentID string `json:"external_payment_id"`
	Status            string `json:"status"`
}

const (
	webhookStatusApproved = "approved"
	webhookStatusFailed   = "failed"
)

// ApiPaymentWebhook receives the payment processor callback. Approved intents
// finish the deferred purchase; anything else marks the intent failed. The
// processor retries on non-2xx, and confirmation is replay-safe, so responding
// with an error code here is the correct way to ask for redelivery.
func ApiPaymentWebhook(act *activation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req paymentWebhookRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if req.IntentID == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing intent_id"))
			return
		}

		switch req.Status {
		case webhookStatusApproved:
			intent, err := act.ConfirmPayment(c.Request.Context(), req.IntentID, req.ExternalPaymentID)
			if err != nil {
				if errors.Is(err, activation.ErrCheckoutNotFound) {
					c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
					return
				}
				c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.OKT(intent))
		case webhookStatusFailed:
			if err := act.FailPayment(c.Request.Context(), req.IntentID); err != nil {
				if errors.Is(err, activation.ErrCheckoutNotFound) {
					c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
					return
				}
				c.JSON(http.StatusInternalServerError, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
				return
			}
			c.JSON(http.StatusOK, response.OKT[any](nil))
		default:
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "unknown status: "+req.Status))
		}
	}
}

func RegisterWebhookRoutes(r gin.IRouter, act *activation.Service) {
	r.POST("/payment", ApiPaymentWebhook(act))
}
