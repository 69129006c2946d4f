// Package feed 提供回测用的历史K线数据源。
// 数据源必须产生按时间升序、确定性的K线序列，回测循环内不做任何阻塞 I/O，
// 所有数据在 LoadData 阶段一次性取出。
package feed

import (
	"quantflow/internal/model"
)

type DataFeed interface {
	HasNext() bool
	// Next 返回下一根K线，没有更多数据时第二个返回值为 false
	Next() (*model.Kline, bool)
	// All 返回剩余的全部K线（不移动游标之前的部分）
	All() []*model.Kline
	// Reset 把游标移回开头
	Reset()
}

// MemoryFeed 内存数据源，用于测试和 API 提交的数据
type MemoryFeed struct {
	klines []*model.Kline
	cursor int
}

func NewMemoryFeed(klines []*model.Kline) *MemoryFeed {
	return &MemoryFeed{klines: klines}
}

func (f *MemoryFeed) HasNext() bool {
	return f.cursor < len(f.klines)
}

func (f *MemoryFeed) Next() (*model.Kline, bool) {
	if f.cursor >= len(f.klines) {
		return nil, false
	}
	k := f.klines[f.cursor]
	f.cursor++
	return k, true
}

func (f *MemoryFeed) All() []*model.Kline {
	rest := f.klines[f.cursor:]
	f.cursor = len(f.klines)
	return rest
}

func (f *MemoryFeed) Reset() {
	f.cursor = 0
}
