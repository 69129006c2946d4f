package strategy

import (
	"quantflow/internal/model"
)

// WeightedChild 组合策略里的一个子策略及其权重
type WeightedChild struct {
	Strategy Strategy
	Weight   float64
}

// Composite 把若干个子策略组合成一个：每根K线依次分发给所有子策略，
// 子策略信号的强度乘以各自权重后合并输出。
// 用组合代替继承，引擎看到的仍然是一个普通 Strategy。
type Composite struct {
	name     string
	children []WeightedChild
}

func NewComposite(name string, children ...WeightedChild) *Composite {
	return &Composite{name: name, children: children}
}

func (c *Composite) Name() string { return c.name }

func (c *Composite) Initialize() {
	for _, ch := range c.children {
		ch.Strategy.Initialize()
	}
}

func (c *Composite) Reset() {
	for _, ch := range c.children {
		ch.Strategy.Reset()
	}
}

// OnKline 按子策略注册顺序分发，保证信号顺序确定
func (c *Composite) OnKline(k *model.Kline) []*model.Signal {
	var out []*model.Signal
	for _, ch := range c.children {
		for _, sig := range ch.Strategy.OnKline(k) {
			weighted := *sig
			weighted.Strength = clamp01(sig.Strength * ch.Weight)
			if weighted.Strength == 0 {
				continue
			}
			weighted.Strategy = c.name + "/" + sig.Strategy
			out = append(out, &weighted)
		}
	}
	return out
}
