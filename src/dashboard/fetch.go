package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"stocknews-client/src/models"
)

const archiveTimeout = 5 * time.Second

// FetchData loads headlines and one quote per configured symbol concurrently,
// then replaces snapshot and news in a single update. Any failure sets the
// error flag and keeps the previous data.
func (c *Controller) FetchData(ctx context.Context) error {
	c.mu.Lock()
	if c.phase == stopped {
		c.mu.Unlock()
		return ErrStopped
	}
	c.wg.Add(1)
	defer c.wg.Done()

	if c.cancelCycle != nil {
		c.cancelCycle()
	}
	cycleCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	c.cancelCycle = cancel
	c.seq++
	seq := c.seq

	c.state.Loading = true
	c.observers.Publish(c.state)
	c.mu.Unlock()
	c.observers.Flush()

	news, stocks, err := c.fetch(cycleCtx)

	var snap models.MPerformanceSnapshot
	applied := false
	c.update(func(s *models.MDashboardState) bool {
		if seq != c.seq {
			return false
		}
		s.Loading = false
		if cycleCtx.Err() != nil {
			return true
		}

		applied = true
		s.UpdatedAt = c.Now()
		if err != nil {
			s.HasError = true
			s.Error = FetchFailedMessage
			return true
		}

		snap = models.MPerformanceSnapshot{
			Stocks:      stocks,
			MutualFunds: MutualFunds(),
			ETFs:        ETFs(),
			FetchedAt:   s.UpdatedAt,
			MarketOpen:  c.Clock != nil && c.Clock.AnyMarketOpen(),
		}
		s.Snapshot = snap
		s.News = news
		s.HasError = false
		s.Error = ""
		return true
	})

	switch {
	case !applied && err == nil:
		return ErrSuperseded
	case !applied:
		return fmt.Errorf("%w: %v", ErrSuperseded, err)
	case err != nil:
		c.Logger.Error("Error fetching data: %v", err)
		return err
	}

	c.archive(snap)
	return nil
}

// -----------------------------------------------------------------------------

func (c *Controller) fetch(ctx context.Context) ([]models.MHeadline, []models.MPerformanceItem, error) {
	symbols := c.Config.Dashboard.Symbols
	quotes := make([]*models.MStockQuote, len(symbols))
	var news []models.MHeadline

	g, gctx := errgroup.WithContext(ctx)
	if limit := c.Config.Network.ConcurrentRequests; limit > 0 {
		g.SetLimit(limit)
	}

	g.Go(func() error {
		var err error
		news, err = c.Source.TopHeadlines(gctx, c.Config.Dashboard.NewsCategory, c.Config.Dashboard.NewsCountry)
		if err != nil {
			return fmt.Errorf("headlines: %w", err)
		}
		return nil
	})

	for i, symbol := range symbols {
		g.Go(func() error {
			q, err := c.Source.StockQuote(gctx, symbol)
			if err != nil {
				return fmt.Errorf("quote %s: %w", symbol, err)
			}
			quotes[i] = q
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	stocks := make([]models.MPerformanceItem, len(quotes))
	for i, q := range quotes {
		stocks[i] = StockItem(q)
	}
	return news, stocks, nil
}

// -----------------------------------------------------------------------------

func (c *Controller) archive(snap models.MPerformanceSnapshot) {
	if c.Archive == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()
	if err := c.Archive.SaveSnapshot(ctx, snap); err != nil {
		c.Logger.Warning("Failed to archive snapshot: %v", err)
	}
}
