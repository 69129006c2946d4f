package exchange

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"quantflow/internal/model"
)

// 模拟撮合。滑点为固定比例（买贵卖贱），手续费按成交额计提。
// 刻意不引入随机扰动：相同输入必须产生相同的成交序列。
type SimulatedOrderExecutor struct {
	commissionRate float64
	slippageRate   float64
	minCommission  float64

	node   *snowflake.Node
	logger *zap.Logger
}

func NewSimulatedOrderExecutor(commissionRate, slippageRate float64, logger *zap.Logger) (*SimulatedOrderExecutor, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	node, err := snowflake.NewNode(2)
	if err != nil {
		return nil, fmt.Errorf("init snowflake node: %w", err)
	}
	return &SimulatedOrderExecutor{
		commissionRate: commissionRate,
		slippageRate:   slippageRate,
		node:           node,
		logger:         logger,
	}, nil
}

// ExecuteOrder 市价单以参考价加滑点立即成交（买贵卖贱）；
// 限价单按委托价原样成交，不吃滑点。
func (s *SimulatedOrderExecutor) ExecuteOrder(order *model.Order) (*model.Fill, error) {
	if order == nil || order.Quantity <= 0 {
		return nil, fmt.Errorf("invalid order")
	}

	var fillPrice float64
	switch {
	case order.OrderType == model.Limit:
		// 限价单按委托价成交，不吃滑点
		fillPrice = order.Price
	case order.Side == model.Buy:
		fillPrice = order.Price * (1 + s.slippageRate)
	case order.Side == model.Sell:
		fillPrice = order.Price * (1 - s.slippageRate)
	default:
		return nil, fmt.Errorf("unknown order side %q", order.Side)
	}

	commission := fillPrice * order.Quantity * s.commissionRate
	if commission < s.minCommission {
		commission = s.minCommission
	}

	return &model.Fill{
		ID:         s.node.Generate().Int64(),
		OrderID:    order.ID,
		Symbol:     order.Symbol,
		Side:       order.Side,
		Price:      fillPrice,
		Quantity:   order.Quantity,
		Commission: commission,
		Timestamp:  order.Timestamp,
	}, nil
}
