package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"stocknews-client/src/helpers"
	"stocknews-client/src/interfaces"
	"stocknews-client/src/logger"
	"stocknews-client/src/models"
	"stocknews-client/src/utils"
)

var (
	ErrStopped        = errors.New("dashboard controller stopped")
	ErrAlreadyStarted = errors.New("dashboard controller already started")
	ErrSuperseded     = errors.New("fetch cycle superseded")
)

type lifecycle int

const (
	idle lifecycle = iota
	running
	stopped
)

// MarketClock reports whether any tracked exchange is in session.
type MarketClock interface {
	AnyMarketOpen() bool
}

// Controller drives the landing dashboard: a countdown tick, the cyclic
// stocks -> mutualFunds -> etfs rotation, and the periodic data refresh.
//
// One goroutine services the three tickers. Fetch cycles run on their own
// goroutines and only apply results while they are the newest cycle and the
// controller has not been stopped.
type Controller struct {
	Config  *models.MConfig
	Source  interfaces.IMarketDataSource
	Archive interfaces.ISnapshotStore
	Clock   MarketClock
	Logger  *logger.Logger
	Now     func() time.Time

	mu          sync.Mutex
	state       models.MDashboardState
	phase       lifecycle
	seq         uint64
	cancelFunc  context.CancelFunc
	cancelCycle context.CancelFunc
	wg          sync.WaitGroup

	observers utils.Observers[models.MDashboardState]
}

// -----------------------------------------------------------------------------

// NewController builds an idle controller. archive and clock may be nil.
func NewController(cfg *models.MConfig, source interfaces.IMarketDataSource, archive interfaces.ISnapshotStore, clock MarketClock, log *logger.Logger) *Controller {
	c := &Controller{
		Config:  cfg,
		Source:  source,
		Archive: archive,
		Clock:   clock,
		Logger:  log,
		Now:     time.Now,
	}
	c.state.Rotation = models.MRotationState{
		CurrentView:      models.ViewStocks,
		SecondsRemaining: cfg.Dashboard.RotationSeconds,
	}
	c.state.Snapshot = models.MPerformanceSnapshot{
		MutualFunds: MutualFunds(),
		ETFs:        ETFs(),
	}
	return c
}

// -----------------------------------------------------------------------------
// Observation
// -----------------------------------------------------------------------------

// State returns the current state. Snapshot and news slices are replaced
// wholesale, never edited, so the copy can be read freely.
func (c *Controller) State() models.MDashboardState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// -----------------------------------------------------------------------------

func (c *Controller) Subscribe(fn func(models.MDashboardState)) func() {
	return c.observers.Subscribe(fn)
}

// -----------------------------------------------------------------------------

// update mutates state under the lock unless the controller is stopped. The
// copy is queued under the lock and delivered after it, so observers see
// states in mutation order. It reports whether the mutation ran.
func (c *Controller) update(mutate func(s *models.MDashboardState) bool) bool {
	c.mu.Lock()
	if c.phase == stopped {
		c.mu.Unlock()
		return false
	}
	if !mutate(&c.state) {
		c.mu.Unlock()
		return false
	}
	c.observers.Publish(c.state)
	c.mu.Unlock()

	c.observers.Flush()
	return true
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Start seeds the view from the archive, runs an initial fetch and begins the
// tick, rotation and refresh timers. A controller runs at most once.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	switch c.phase {
	case running:
		c.mu.Unlock()
		return ErrAlreadyStarted
	case stopped:
		c.mu.Unlock()
		return ErrStopped
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel
	c.phase = running
	c.wg.Add(2)
	c.mu.Unlock()

	c.seedFromArchive(runCtx)

	go c.runLoop(runCtx)
	go func() {
		defer c.wg.Done()
		c.FetchData(runCtx)
	}()

	c.Logger.Info("Dashboard started: %d symbols, rotation %ds, refresh %ds",
		len(c.Config.Dashboard.Symbols), c.Config.Dashboard.RotationSeconds, c.Config.Dashboard.RefreshIntervalSeconds)
	return nil
}

// -----------------------------------------------------------------------------

// Stop cancels the timers and any in-flight fetch and waits for them.
// No state changes after Stop returns.
func (c *Controller) Stop() {
	c.mu.Lock()
	if c.phase == stopped {
		c.mu.Unlock()
		return
	}
	c.phase = stopped
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	if c.cancelCycle != nil {
		c.cancelCycle()
	}
	c.mu.Unlock()

	c.wg.Wait()
	c.observers.Clear()
	c.Logger.Info("Dashboard stopped")
}

// -----------------------------------------------------------------------------

func (c *Controller) seedFromArchive(ctx context.Context) {
	if c.Archive == nil {
		return
	}

	if err := c.Archive.CleanupOldData(ctx); err != nil {
		c.Logger.Warning("Snapshot cleanup failed: %v", err)
	}

	snap, err := c.Archive.LatestSnapshot(ctx)
	if err != nil {
		c.Logger.Warning("Failed to load archived snapshot: %v", err)
		return
	}
	if snap == nil || len(snap.Stocks) == 0 {
		return
	}

	c.update(func(s *models.MDashboardState) bool {
		if !s.Snapshot.FetchedAt.IsZero() {
			return false
		}
		s.Snapshot.Stocks = snap.Stocks
		s.Snapshot.FetchedAt = snap.FetchedAt
		s.Snapshot.MarketOpen = snap.MarketOpen
		return true
	})
	c.Logger.Info("Seeded dashboard from snapshot of %s", snap.FetchedAt.Format(time.RFC3339))
}

// -----------------------------------------------------------------------------
// Timers
// -----------------------------------------------------------------------------

func (c *Controller) runLoop(ctx context.Context) {
	defer c.wg.Done()

	tickInterval := time.Duration(c.Config.Dashboard.TickIntervalMs) * time.Millisecond
	tick := time.NewTicker(tickInterval)
	rotation := time.NewTicker(tickInterval * time.Duration(c.Config.Dashboard.RotationSeconds))
	refresh := time.NewTicker(time.Duration(c.Config.Dashboard.RefreshIntervalSeconds) * time.Second)
	defer tick.Stop()
	defer rotation.Stop()
	defer refresh.Stop()

	for {
		// A tick due at the same instant as a rotation is handled first, so the
		// countdown reaches 0 before the view advances and resets it.
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			c.tick()
			continue
		default:
		}

		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			c.tick()
		case <-rotation.C:
			c.advance()
		case <-refresh.C:
			c.startFetch(ctx)
		}
	}
}

// -----------------------------------------------------------------------------

// tick decrements the countdown, never below zero.
func (c *Controller) tick() {
	c.update(func(s *models.MDashboardState) bool {
		if s.Rotation.SecondsRemaining <= 0 {
			return false
		}
		s.Rotation.SecondsRemaining--
		return true
	})
}

// -----------------------------------------------------------------------------

// advance moves to the next view and restarts the countdown.
func (c *Controller) advance() {
	c.update(func(s *models.MDashboardState) bool {
		s.Rotation.CurrentView = s.Rotation.CurrentView.Next()
		s.Rotation.SecondsRemaining = c.Config.Dashboard.RotationSeconds
		return true
	})
}

// -----------------------------------------------------------------------------

func (c *Controller) startFetch(ctx context.Context) {
	c.mu.Lock()
	if c.phase == stopped {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		c.FetchData(ctx)
	}()
}

// -----------------------------------------------------------------------------
// Manual selection
// -----------------------------------------------------------------------------

// SelectView shows view immediately and restarts the countdown. The rotation
// timer keeps its phase, so the next automatic advance still fires on
// schedule and may follow the selection closely.
func (c *Controller) SelectView(view models.MView) error {
	if !view.Valid() {
		return helpers.NewValidationError(fmt.Sprintf("unknown view %q", view))
	}

	ok := c.update(func(s *models.MDashboardState) bool {
		s.Rotation.CurrentView = view
		s.Rotation.SecondsRemaining = c.Config.Dashboard.RotationSeconds
		return true
	})
	if !ok {
		return ErrStopped
	}
	return nil
}

var _ interfaces.IDashboard = (*Controller)(nil)
