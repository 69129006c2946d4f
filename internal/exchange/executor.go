package exchange

import (
	"quantflow/internal/model"
)

// OrderExecutor 撮合器契约。返回 (nil, nil) 表示本根K线未成交，
// 引擎不做自动重试。
type OrderExecutor interface {
	ExecuteOrder(order *model.Order) (*model.Fill, error)
}
