package event

import (
	"go.uber.org/zap"
)

// Processor 处理一个事件，处理过程中可以继续 Publish 衍生事件
type Processor func(e Event) error

// Dispatcher 同步事件分发器。Publish 会递归地把一根K线触发的
// 信号→委托→成交整条级联跑完才返回，不做任何排队，
// 这是回测可复现性的前提。
type Dispatcher struct {
	processors map[Kind]Processor
	logger     *zap.Logger
}

func NewDispatcher(logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		processors: make(map[Kind]Processor),
		logger:     logger,
	}
}

// Register 注册某类事件的处理器，同类事件只有一个处理器，后注册覆盖前者
func (d *Dispatcher) Register(kind Kind, p Processor) {
	d.processors[kind] = p
}

// Publish 同步分发事件。没有注册处理器的事件类型不是错误，记日志后忽略
func (d *Dispatcher) Publish(e Event) error {
	p, ok := d.processors[e.Kind()]
	if !ok {
		d.logger.Debug("no processor registered, event dropped", zap.String("kind", string(e.Kind())))
		return nil
	}
	return p(e)
}
