package utils

import (
	"sync"
	"time"

	"stocknews-client/src/logger"
)

// MarketScheduler tracks the exchanges behind the dashboard symbols.
type MarketScheduler struct {
	Calendars map[string]*TradingCalendar // by MIC
	Logger    *logger.Logger
	Now       func() time.Time
	mu        sync.RWMutex
}

// -----------------------------------------------------------------------------

func NewMarketScheduler(symbols []string, l *logger.Logger) *MarketScheduler {
	ms := &MarketScheduler{
		Logger: l,
		Now:    time.Now,
	}
	ms.UpdateSymbols(symbols)
	return ms
}

// -----------------------------------------------------------------------------

// UpdateSymbols replaces the tracked exchanges with those of symbols.
func (ms *MarketScheduler) UpdateSymbols(symbols []string) {
	calendars := make(map[string]*TradingCalendar)
	for _, symbol := range symbols {
		mic := MICForSymbol(symbol)
		if _, ok := calendars[mic]; !ok {
			calendars[mic] = GetCalendar(mic)
		}
	}

	ms.mu.Lock()
	ms.Calendars = calendars
	ms.mu.Unlock()

	ms.Logger.Info("Mapped %d symbols to %d calendars", len(symbols), len(calendars))
}

// -----------------------------------------------------------------------------

// AnyMarketOpen reports whether any tracked exchange is in session now.
func (ms *MarketScheduler) AnyMarketOpen() bool {
	return ms.AnyMarketOpenAt(ms.Now())
}

// -----------------------------------------------------------------------------

func (ms *MarketScheduler) AnyMarketOpenAt(t time.Time) bool {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	for _, cal := range ms.Calendars {
		if cal.IsOpenAt(t) {
			return true
		}
	}
	return false
}
