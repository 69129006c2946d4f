package backtest

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"quantflow/conf"
	"quantflow/internal/model"
	"quantflow/internal/strategy"
)

// 测试用：每根K线轮流买卖
type pingpong struct {
	bar int
}

func (s *pingpong) Name() string { return "pingpong" }
func (s *pingpong) Initialize()  {}
func (s *pingpong) Reset()       { s.bar = 0 }
func (s *pingpong) OnKline(k *model.Kline) []*model.Signal {
	s.bar++
	kind := model.SignalBuy
	if s.bar%2 == 0 {
		kind = model.SignalSell
	}
	return []*model.Signal{{
		Timestamp: k.Timestamp,
		Symbol:    k.Symbol,
		Kind:      kind,
		Strength:  1,
		Strategy:  s.Name(),
	}}
}

func setupRouter(t *testing.T) (*gin.Engine, *Handler) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	strategy.Register(&pingpong{})

	cfg := conf.Default()
	h := NewHandler(&cfg, nil)

	g := gin.New()
	g.POST("/backtest/run", h.BacktestRun())
	g.GET("/backtest/result", h.BacktestResultGet())
	g.GET("/backtest/runs", h.BacktestRunList())
	return g, h
}

func runBody() []byte {
	req := RunReq{
		Symbol:         "600519.SH",
		Strategy:       "pingpong",
		InitialCapital: 100000,
		LotSize:        100,
		Klines: []*model.Kline{
			{Symbol: "600519.SH", Open: 10, High: 10, Low: 10, Close: 10, Volume: 1000},
			{Symbol: "600519.SH", Open: 11, High: 11, Low: 11, Close: 11, Volume: 1000},
			{Symbol: "600519.SH", Open: 12, High: 12, Low: 12, Close: 12, Volume: 1000},
		},
	}
	body, _ := json.Marshal(req)
	return body
}

func TestBacktestRunAndGet(t *testing.T) {
	g, _ := setupRouter(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/backtest/run", bytes.NewReader(runBody()))
	r.Header.Set("Content-Type", "application/json")
	g.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("run status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Code int           `json:"code"`
		Data *model.Result `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Code != 0 || resp.Data == nil || resp.Data.RunID == "" {
		t.Fatalf("resp = %+v", resp)
	}
	if len(resp.Data.EquityCurve) != 3 {
		t.Fatalf("equity points = %d, want 3", len(resp.Data.EquityCurve))
	}

	// 按 run_id 再取一次
	w2 := httptest.NewRecorder()
	r2 := httptest.NewRequest(http.MethodGet, "/backtest/result?run_id="+resp.Data.RunID, nil)
	g.ServeHTTP(w2, r2)
	if w2.Code != http.StatusOK {
		t.Fatalf("get status = %d, body = %s", w2.Code, w2.Body.String())
	}
}

func TestBacktestRunMissingSymbol(t *testing.T) {
	g, _ := setupRouter(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/backtest/run", bytes.NewReader([]byte(`{"strategy":"pingpong"}`)))
	r.Header.Set("Content-Type", "application/json")
	g.ServeHTTP(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestBacktestResultNotFound(t *testing.T) {
	g, _ := setupRouter(t)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/backtest/result?run_id=nonexistent", nil)
	g.ServeHTTP(w, r)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
