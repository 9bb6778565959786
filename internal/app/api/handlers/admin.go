package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/feiralivre/monetize/internal/app/service/affiliate"
	"github.com/feiralivre/monetize/internal/app/service/ledger"
	"github.com/feiralivre/monetize/internal/app/service/stats"
	"github.com/feiralivre/monetize/pkg/response"
	"github.com/feiralivre/monetize/pkg/types"
)

func ApiCompletePayout(svc *affiliate.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		payout, err := svc.CompletePayout(c.Request.Context(), c.Param("id"))
		if err != nil {
			writePayoutAdminError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(payout))
	}
}

func ApiRejectPayout(svc *affiliate.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		payout, err := svc.RejectPayout(c.Request.Context(), c.Param("id"))
		if err != nil {
			writePayoutAdminError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.OKT(payout))
	}
}

func writePayoutAdminError(c *gin.Context, err error) {
	if errors.Is(err, affiliate.ErrPayoutNotFound) || errors.Is(err, affiliate.ErrPayoutNotPending) {
		c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
		return
	}
	c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
}

// ApiGrantCredits books a promotional credit grant against a user's account.
func ApiGrantCredits(led *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			UserID     string `json:"user_id"`
			Amount     int64  `json:"amount"`
			OperatorID string `json:"operator_id"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if req.UserID == "" || req.Amount <= 0 || req.OperatorID == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing user_id, amount or operator_id"))
			return
		}
		entry, err := led.ApplyEntry(c.Request.Context(), req.UserID, req.Amount,
			types.LedgerEntryKindBonus, &ledger.ApplyOptions{ReferenceID: req.OperatorID})
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(entry))
	}
}

// ApiListUserLedger is the back-office view of one user's ledger history.
func ApiListUserLedger(led *ledger.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, _ := strconv.Atoi(c.DefaultQuery("from", "0"))
		size, _ := strconv.Atoi(c.DefaultQuery("size", "50"))

		req := &ledger.ScanEntriesRequest{
			Filters: []*types.CommonFilter{
				{Field: "user_id", Operator: types.CommonFilterOperatorEq, Values: []any{c.Param("user_id")}},
			},
			From:      from,
			Size:      size,
			SortBy:    "created_at",
			SortOrder: c.DefaultQuery("sort_order", "desc"),
		}
		res, err := led.ScanEntries(c.Request.Context(), req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

// ApiGetStatistics serves the back-office dashboard aggregates.
func ApiGetStatistics(svc *stats.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req stats.StatisticRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if len(req.DataItems) == 0 {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing data_items"))
			return
		}
		res, err := svc.GetStatistics(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterAdminRoutes(r gin.IRouter, svc *affiliate.Service, led *ledger.Service, st *stats.Service) {
	r.POST("/payouts/:id/complete", ApiCompletePayout(svc))
	r.POST("/payouts/:id/reject", ApiRejectPayout(svc))
	r.GET("/ledger/:user_id", ApiListUserLedger(led))
	r.POST("/credits/grant", ApiGrantCredits(led))
	r.POST("/statistics", ApiGetStatistics(st))
}
