package router

import (
	"github.com/gin-gonic/gin"

	"quantflow/internal/handler/backtest"
	"quantflow/internal/middleware"
)

type ApiRouter struct {
	backtestHandler *backtest.Handler
}

func NewApiRouter(bh *backtest.Handler) *ApiRouter {
	return &ApiRouter{backtestHandler: bh}
}

func (api *ApiRouter) Load(g *gin.Engine) {

	base := g.Group("/api/v1", middleware.Logger)

	b := base.Group("/backtest")
	{
		// 同步跑一次回测
		b.POST("/run", api.backtestHandler.BacktestRun())
		// 取某次回测的完整结果
		b.GET("/result", api.backtestHandler.BacktestResultGet())
		// 最近的回测历史（需要数据库）
		b.GET("/runs", api.backtestHandler.BacktestRunList())
	}
}
