package backtest

import (
	"context"
	"errors"
	"sync"

	"github.com/gin-gonic/gin"

	"quantflow/conf"
	"quantflow/internal/dao"
	"quantflow/internal/engine"
	"quantflow/internal/feed"
	"quantflow/internal/model"
	"quantflow/internal/model/entity"
	"quantflow/internal/strategy"
	"quantflow/pkg/logger"
	"quantflow/pkg/response"
)

// RunReq 发起一次回测的请求。K线随请求提交，或者指定服务器上的数据文件
type RunReq struct {
	Symbol         string         `json:"symbol" binding:"required"`
	Strategy       string         `json:"strategy"`
	InitialCapital float64        `json:"initial_capital"`
	LotSize        float64        `json:"lot_size"`
	MaxBars        int            `json:"max_bars"`
	StartDate      string         `json:"start_date"`
	EndDate        string         `json:"end_date"`
	DataFile       string         `json:"data_file"`
	Klines         []*model.Kline `json:"klines"`
}

type ResultReq struct {
	RunID string `json:"run_id" form:"run_id" binding:"required"`
}

type Handler struct {
	cfg *conf.Config
	dao dao.BacktestDao // 可以为 nil，表示不落库

	mu      sync.RWMutex
	results map[string]*model.Result // run_id -> 结果，进程内缓存
}

func NewHandler(cfg *conf.Config, backtestDao dao.BacktestDao) *Handler {
	return &Handler{
		cfg:     cfg,
		dao:     backtestDao,
		results: make(map[string]*model.Result),
	}
}

// BacktestRun 同步跑一次回测并返回汇总。
// 回测是纯内存计算，单标的日线规模上请求内完成没有压力。
func (h *Handler) BacktestRun() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req RunReq
		if err := ctx.ShouldBindJSON(&req); err != nil {
			response.JSON(ctx, err, nil)
			return
		}

		dataFeed, err := h.buildFeed(&req)
		if err != nil {
			response.JSON(ctx, err, nil)
			return
		}

		cfg := *h.cfg
		cfg.Backtest.Symbol = req.Symbol
		if req.InitialCapital > 0 {
			cfg.Backtest.InitialCapital = req.InitialCapital
		}
		if req.LotSize > 0 {
			cfg.Backtest.LotSize = req.LotSize
		}
		if req.MaxBars > 0 {
			cfg.Backtest.MaxBars = req.MaxBars
		}

		name := req.Strategy
		if name == "" {
			name = cfg.Backtest.Strategy
		}
		st, err := strategy.Get(name)
		if err != nil {
			response.JSON(ctx, err, nil)
			return
		}
		st.Reset()

		eng := engine.New(dataFeed, &cfg, logger.L())
		eng.SetStrategy(st)

		result, err := eng.RunBacktest()
		if err != nil {
			response.JSON(ctx, err, nil)
			return
		}

		h.mu.Lock()
		h.results[result.RunID] = result
		h.mu.Unlock()

		h.persist(ctx, result)
		response.JSON(ctx, nil, result)
	}
}

// BacktestResultGet 按 run_id 取之前跑过的结果
func (h *Handler) BacktestResultGet() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var req ResultReq
		if err := ctx.ShouldBindQuery(&req); err != nil {
			response.JSON(ctx, err, nil)
			return
		}

		h.mu.RLock()
		result, ok := h.results[req.RunID]
		h.mu.RUnlock()
		if !ok {
			response.JSON(ctx, errors.New("backtest run not found: "+req.RunID), nil)
			return
		}
		response.JSON(ctx, nil, result)
	}
}

// BacktestRunList 最近的回测历史，需要配置数据库
func (h *Handler) BacktestRunList() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if h.dao == nil {
			response.JSON(ctx, errors.New("backtest history requires database"), nil)
			return
		}
		runs, err := h.dao.RunGetList(ctx, 50)
		if err != nil {
			response.JSON(ctx, err, nil)
			return
		}
		response.JSON(ctx, nil, runs)
	}
}

func (h *Handler) buildFeed(req *RunReq) (feed.DataFeed, error) {
	if len(req.Klines) > 0 {
		return feed.NewMemoryFeed(req.Klines), nil
	}

	path := req.DataFile
	if path == "" {
		path = h.cfg.Backtest.DataFile
	}
	if path == "" {
		return nil, errors.New("no klines and no data file")
	}

	start, err := conf.ParseDate(req.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := conf.ParseDate(req.EndDate)
	if err != nil {
		return nil, err
	}
	return feed.NewCSVFeed(path, req.Symbol, start, end)
}

// persist 落库失败只记日志，不影响返回结果
func (h *Handler) persist(ctx context.Context, result *model.Result) {
	if h.dao == nil {
		return
	}
	run, trades := toEntities(result)
	if err := h.dao.SaveRun(ctx, run, trades); err != nil {
		logger.L().Sugar().Errorf("save backtest run %s failed: %v", result.RunID, err)
	}
}

func toEntities(r *model.Result) (*entity.BacktestRun, []*entity.BacktestTrade) {
	run := &entity.BacktestRun{
		RunID:          r.RunID,
		Symbol:         r.Symbol,
		Strategy:       r.Strategy,
		InitialCapital: r.InitialCapital,
		FinalCapital:   r.FinalCapital,
		TotalReturn:    r.TotalReturn,
		AnnualReturn:   r.AnnualReturn,
		MaxDrawdown:    r.MaxDrawdown,
		Sharpe:         r.Sharpe,
		Sortino:        r.Sortino,
		Calmar:         r.Calmar,
		TotalTrades:    r.TotalTrades,
		WinRate:        r.WinRate,
		ProfitFactor:   r.ProfitFactor,
		StartAt:        r.StartAt,
		EndAt:          r.EndAt,
	}
	trades := make([]*entity.BacktestTrade, 0, len(r.Trades))
	for _, t := range r.Trades {
		trades = append(trades, &entity.BacktestTrade{
			RunID:      r.RunID,
			Symbol:     t.Symbol,
			Quantity:   t.Quantity,
			EntryTime:  t.EntryTime,
			ExitTime:   t.ExitTime,
			EntryPrice: t.EntryPrice,
			ExitPrice:  t.ExitPrice,
			Profit:     t.Profit,
			ProfitPct:  t.ProfitPct,
		})
	}
	return run, trades
}
