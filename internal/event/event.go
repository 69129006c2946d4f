package event

import (
	"time"

	"quantflow/internal/model"
)

// 事件类型
type Kind string

const (
	KindKline  Kind = "kline"
	KindSignal Kind = "signal"
	KindOrder  Kind = "order"
	KindFill   Kind = "fill"
)

type Event interface {
	Kind() Kind
	When() time.Time
}

type KlineEvent struct {
	Kline *model.Kline
}

func (e KlineEvent) Kind() Kind      { return KindKline }
func (e KlineEvent) When() time.Time { return e.Kline.Timestamp }

type SignalEvent struct {
	Signal *model.Signal
}

func (e SignalEvent) Kind() Kind      { return KindSignal }
func (e SignalEvent) When() time.Time { return e.Signal.Timestamp }

type OrderEvent struct {
	Order *model.Order
}

func (e OrderEvent) Kind() Kind      { return KindOrder }
func (e OrderEvent) When() time.Time { return e.Order.Timestamp }

type FillEvent struct {
	Fill *model.Fill
}

func (e FillEvent) Kind() Kind      { return KindFill }
func (e FillEvent) When() time.Time { return e.Fill.Timestamp }
