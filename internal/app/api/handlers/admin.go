package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vipgate/vipgate/internal/app/service/statistics"
	"github.com/vipgate/vipgate/internal/app/service/sweeper"
	"github.com/vipgate/vipgate/internal/models"
	"github.com/vipgate/vipgate/internal/store"
	"github.com/vipgate/vipgate/pkg/response"
)

type upsertGroupRequest struct {
	GroupID  int64  `json:"group_id" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Price1d  int64  `json:"price_1d"`
	Price7d  int64  `json:"price_7d"`
	Price30d int64  `json:"price_30d"`
}

// ApiUpsertGroup registers or updates a managed group.
func ApiUpsertGroup(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req upsertGroupRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		g := &models.Group{
			GroupID:  req.GroupID,
			Name:     req.Name,
			Price1d:  req.Price1d,
			Price7d:  req.Price7d,
			Price30d: req.Price30d,
		}
		if err := st.UpsertGroup(c.Request.Context(), g); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(g))
	}
}

func ApiListGroups(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		groups, err := st.ListGroups(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(groups))
	}
}

// ApiScanTransactions implements the paginated admin transaction listing.
func ApiScanTransactions(st store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req store.ScanTransactionsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := st.ScanTransactions(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func ApiGroupStatistics(stats *statistics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := stats.GroupOverview(c.Request.Context(), time.Now())
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(out))
	}
}

// ApiTriggerSweep runs one expiry sweep immediately.
func ApiTriggerSweep(sw *sweeper.Sweeper) gin.HandlerFunc {
	return func(c *gin.Context) {
		revoked, err := sw.SweepOnce(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(map[string]int{"revoked": revoked}))
	}
}

func RegisterAdminRoutes(r gin.IRouter, st store.Store, stats *statistics.Service, sw *sweeper.Sweeper) {
	r.POST("/groups", ApiUpsertGroup(st))
	r.GET("/groups", ApiListGroups(st))
	r.POST("/transactions/scan", ApiScanTransactions(st))
	r.GET("/statistics/groups", ApiGroupStatistics(stats))
	r.POST("/sweep", ApiTriggerSweep(sw))
}
