package strategy

import (
	"quantflow/internal/model"
)

// 策略契约定义

// Strategy 回测引擎调用的策略能力契约。
// OnKline 返回零个或多个信号；策略绝不直接创建委托单，
// 也绝不直接改写账本状态。
type Strategy interface {
	Name() string
	// Initialize 回测开始前调用一次
	Initialize()
	// Reset 清空内部状态，供同一个策略实例跑多次回测
	Reset()
	// OnKline 处理一根K线，返回的信号按产生顺序排列
	OnKline(k *model.Kline) []*model.Signal
}
