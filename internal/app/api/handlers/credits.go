package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	mw "github.com/feiralivre/monetize/internal/app/api/middleware"
	"github.com/feiralivre/monetize/internal/app/service/activation"
	"github.com/feiralivre/monetize/internal/app/service/ledger"
	"github.com/feiralivre/monetize/pkg/response"
)

type balanceResp struct {
	UserID  string `json:"user_id"`
	Balance int64  `json:"balance"`
}

func ApiGetBalance(led *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := mw.PrincipalFrom(c)
		balance, err := led.GetBalance(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(&balanceResp{UserID: userID, Balance: balance}))
	}
}

type topupRequest struct {
	Credits int64 `json:"credits"`
}

type checkoutResp struct {
	CheckoutID  string `json:"checkout_id"`
	RedirectURL string `json:"redirect_url"`
	AmountCents int64  `json:"amount_cents"`
}

// ApiTopupCredits starts a money checkout for a credit purchase. Credits land
// on the balance only after the payment webhook confirms.
func ApiTopupCredits(act *activation.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req topupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if req.Credits <= 0 {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "credits must be positive"))
			return
		}

		intent, err := act.StartTopupCheckout(c.Request.Context(), mw.PrincipalFrom(c), req.Credits)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(&checkoutResp{
			CheckoutID:  intent.ID,
			RedirectURL: intent.RedirectURL,
			AmountCents: intent.AmountCents,
		}))
	}
}

func RegisterCreditRoutes(r gin.IRouter, led *ledger.Service, act *activation.Service) {
	r.GET("/balance", ApiGetBalance(led))
	r.POST("/topup", ApiTopupCredits(act))
}
