package game

import "time"

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type PeriodicTickerCreator interface {
	Create(duration time.Duration) Ticker
}

type tickerGen struct{}

type realTicker struct {
	t *time.Ticker
}

func (rt realTicker) C() <-chan time.Time {
	return rt.t.C
}

func (rt realTicker) Stop() {
	rt.t.Stop()
}

func (tickerGen) Create(duration time.Duration) Ticker {
	return realTicker{t: time.NewTicker(duration)}
}

func NewTickerGen() PeriodicTickerCreator {
	return tickerGen{}
}
