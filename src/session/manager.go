package session

import (
	"context"
	"sync"
	"time"

	"stocknews-client/src/helpers"
	"stocknews-client/src/interfaces"
	"stocknews-client/src/logger"
	"stocknews-client/src/models"
	"stocknews-client/src/utils"
)

const (
	loginFailed        = "Login failed"
	registrationFailed = "Registration failed"
	sessionChanged     = "Session changed during login"

	storeTimeout = 5 * time.Second
)

// Manager owns the bearer token and the identity it resolves to.
//
// States: unauthenticated -> loading -> authenticated | unauthenticated.
// Identity fetches are serialized by fetchMu; Logout bumps epoch so a fetch
// that was in flight when the user logged out never applies its result.
// Writes to the token slot are serialized by storeMu and happen outside mu,
// so a slow store never blocks State or Token.
type Manager struct {
	API    interfaces.IAccountAPI
	Store  interfaces.ITokenStore
	Logger *logger.Logger
	Now    func() time.Time

	fetchMu sync.Mutex
	storeMu sync.Mutex

	mu     sync.Mutex
	status models.MSessionStatus
	token  string
	user   *models.MUser
	epoch  uint64
	closed bool

	observers utils.Observers[models.MSessionState]
}

// -----------------------------------------------------------------------------

func NewManager(api interfaces.IAccountAPI, store interfaces.ITokenStore, log *logger.Logger) *Manager {
	return &Manager{
		API:    api,
		Store:  store,
		Logger: log,
		Now:    time.Now,
		status: models.SessionUnauthenticated,
	}
}

// -----------------------------------------------------------------------------
// Observation
// -----------------------------------------------------------------------------

// State returns a copy of the current session. The token is never included.
func (m *Manager) State() models.MSessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stateLocked()
}

func (m *Manager) stateLocked() models.MSessionState {
	return models.MSessionState{
		Status:  m.status,
		User:    m.user.Clone(),
		Loading: m.status == models.SessionLoading,
	}
}

// -----------------------------------------------------------------------------

// Token returns the current bearer token, or "" when unauthenticated.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// -----------------------------------------------------------------------------

// Subscribe registers fn for every state change. fn runs outside the session lock.
func (m *Manager) Subscribe(fn func(models.MSessionState)) func() {
	return m.observers.Subscribe(fn)
}

// -----------------------------------------------------------------------------

// set applies a transition under the lock and queues the resulting copy, so
// observers see transitions in the order they were applied. It is a no-op once
// the manager is closed.
func (m *Manager) set(mutate func()) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	mutate()
	m.observers.Publish(m.stateLocked())
	m.mu.Unlock()

	m.observers.Flush()
}

// -----------------------------------------------------------------------------

// persist writes token to the slot, or clears the slot when token is "".
// Nothing is written if a logout happened after epoch was read.
func (m *Manager) persist(ctx context.Context, epoch uint64, token string) {
	m.storeMu.Lock()
	defer m.storeMu.Unlock()

	m.mu.Lock()
	current := m.epoch == epoch
	m.mu.Unlock()
	if !current {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()

	if token == "" {
		if err := m.Store.Clear(ctx); err != nil {
			m.Logger.Warning("Failed to clear persisted token: %v", err)
		}
		return
	}
	if err := m.Store.Save(ctx, token); err != nil {
		m.Logger.Warning("Failed to persist token: %v", err)
	}
}

func (m *Manager) currentEpoch() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Restore resolves the persisted token into a user. Every path ends in a
// settled state; a rejected, expired or unreachable token is discarded.
func (m *Manager) Restore(ctx context.Context) (state models.MSessionState) {
	m.fetchMu.Lock()
	defer m.fetchMu.Unlock()

	token, err := m.Store.Load(ctx)
	if err != nil {
		m.Logger.Warning("Failed to read persisted token; discarding: %v", err)
		m.persist(ctx, m.currentEpoch(), "")
		token = ""
	}

	if token == "" {
		m.set(func() { m.clearLocked() })
		return m.State()
	}

	if tokenExpired(token, m.Now()) {
		m.Logger.Info("Persisted token has expired; discarding")
		epoch := m.currentEpoch()
		m.set(func() { m.clearLocked() })
		m.persist(ctx, epoch, "")
		return m.State()
	}

	var (
		epoch    uint64
		user     *models.MUser
		fetchErr error
	)

	// Single finalization step: loading always ends here.
	defer func() {
		discard := false
		m.set(func() {
			if m.epoch != epoch {
				return
			}
			if fetchErr != nil || user == nil {
				m.clearLocked()
				discard = true
				return
			}
			m.status = models.SessionAuthenticated
			m.user = user
		})
		if discard {
			m.persist(ctx, epoch, "")
		}
		state = m.State()
	}()

	m.set(func() {
		epoch = m.epoch
		m.status = models.SessionLoading
		m.token = token
		m.user = nil
	})

	user, fetchErr = m.API.Profile(ctx, token)
	if fetchErr != nil {
		m.Logger.Info("Token restore failed: %v", fetchErr)
	} else {
		m.Logger.Info("Restored session for %s", user.Username)
	}
	return state
}

// -----------------------------------------------------------------------------

// Login exchanges credentials for a token and resolves the user. A failed
// credential exchange leaves the current session untouched.
func (m *Manager) Login(ctx context.Context, username, password string) models.MLoginResult {
	if err := helpers.RequireFields("username", username, "password", password); err != nil {
		return models.MLoginResult{Success: false, Message: helpers.UserMessage(err, loginFailed)}
	}

	tok, err := m.API.Login(ctx, username, password)
	if err != nil {
		m.Logger.Info("Login failed for %s: %v", username, err)
		return models.MLoginResult{Success: false, Message: helpers.UserMessage(err, loginFailed)}
	}

	m.fetchMu.Lock()
	defer m.fetchMu.Unlock()

	var epoch uint64
	m.set(func() {
		epoch = m.epoch
		m.status = models.SessionLoading
		m.token = tok.AccessToken
		m.user = nil
	})
	m.persist(ctx, epoch, tok.AccessToken)

	user, err := m.API.Profile(ctx, tok.AccessToken)

	applied := false
	m.set(func() {
		if m.epoch != epoch {
			return
		}
		applied = true
		if err != nil {
			m.clearLocked()
			return
		}
		m.status = models.SessionAuthenticated
		m.user = user
	})
	if applied && err != nil {
		m.persist(ctx, epoch, "")
	}

	switch {
	case !applied:
		return models.MLoginResult{Success: false, Message: sessionChanged}
	case err != nil:
		m.Logger.Info("Profile fetch after login failed: %v", err)
		return models.MLoginResult{Success: false, Message: helpers.UserMessage(err, loginFailed)}
	}

	m.Logger.Info("Logged in as %s", user.Username)
	return models.MLoginResult{Success: true}
}

// -----------------------------------------------------------------------------

// Register creates the account and then logs in with the same credentials.
func (m *Manager) Register(ctx context.Context, email, username, password string) models.MLoginResult {
	if err := helpers.RequireFields("email", email, "username", username, "password", password); err != nil {
		return models.MLoginResult{Success: false, Message: helpers.UserMessage(err, registrationFailed)}
	}

	if _, err := m.API.CreateUser(ctx, email, username, password); err != nil {
		m.Logger.Info("Registration failed for %s: %v", username, err)
		return models.MLoginResult{Success: false, Message: helpers.UserMessage(err, registrationFailed)}
	}

	return m.Login(ctx, username, password)
}

// -----------------------------------------------------------------------------

// Logout clears the token and user. Calling it while logged out is harmless.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.epoch++
	epoch := m.epoch
	changed := m.status != models.SessionUnauthenticated || m.token != ""
	m.clearLocked()
	notify := changed && !m.closed
	if notify {
		m.observers.Publish(m.stateLocked())
	}
	m.mu.Unlock()

	if changed {
		m.Logger.Info("Logged out")
	}
	if notify {
		m.observers.Flush()
	}
	m.persist(context.Background(), epoch, "")
}

// -----------------------------------------------------------------------------

// Refresh re-fetches the profile. A rejected token ends the session; a
// network failure keeps it and is returned.
func (m *Manager) Refresh(ctx context.Context) error {
	m.fetchMu.Lock()
	defer m.fetchMu.Unlock()

	m.mu.Lock()
	token, epoch := m.token, m.epoch
	m.mu.Unlock()

	if token == "" {
		return helpers.NewValidationError("login required")
	}

	user, err := m.API.Profile(ctx, token)
	if err != nil && !helpers.IsAuthentication(err) {
		return err
	}

	discard := false
	m.set(func() {
		if m.epoch != epoch {
			return
		}
		if err != nil {
			m.clearLocked()
			discard = true
			return
		}
		m.status = models.SessionAuthenticated
		m.user = user
	})
	if discard {
		m.persist(ctx, epoch, "")
	}
	return err
}

// -----------------------------------------------------------------------------

// Close stops notifications. The persisted token is kept for the next start.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()

	m.observers.Clear()
}

// -----------------------------------------------------------------------------
// Favorites
// -----------------------------------------------------------------------------

func (m *Manager) AddFavorite(ctx context.Context, symbol string) error {
	return m.editFavorite(ctx, symbol, true)
}

func (m *Manager) RemoveFavorite(ctx context.Context, symbol string) error {
	return m.editFavorite(ctx, symbol, false)
}

// ToggleFavorite flips symbol in the favorite set and reports the new membership.
func (m *Manager) ToggleFavorite(ctx context.Context, symbol string) (bool, error) {
	state := m.State()
	if state.User == nil {
		return false, helpers.NewValidationError("login required")
	}

	add := !state.User.HasFavorite(symbol)
	if err := m.editFavorite(ctx, symbol, add); err != nil {
		return !add, err
	}
	return add, nil
}

// -----------------------------------------------------------------------------

func (m *Manager) editFavorite(ctx context.Context, symbol string, add bool) error {
	if err := helpers.RequireFields("symbol", symbol); err != nil {
		return err
	}

	m.mu.Lock()
	token, epoch, authed := m.token, m.epoch, m.status == models.SessionAuthenticated
	m.mu.Unlock()

	if !authed || token == "" {
		return helpers.NewValidationError("login required")
	}

	var err error
	if add {
		err = m.API.AddFavoriteWithToken(ctx, token, symbol)
	} else {
		err = m.API.RemoveFavoriteWithToken(ctx, token, symbol)
	}

	if err != nil {
		if helpers.IsAuthentication(err) {
			m.Logger.Info("Token rejected while editing favorites; logging out")
			m.set(func() {
				if m.epoch == epoch {
					m.clearLocked()
				}
			})
			m.persist(ctx, epoch, "")
		}
		return err
	}

	m.set(func() {
		if m.epoch != epoch || m.user == nil {
			return
		}
		m.user = m.user.Clone()
		if add {
			if !m.user.HasFavorite(symbol) {
				m.user.FavoriteStocks = append(m.user.FavoriteStocks, symbol)
			}
			return
		}
		kept := m.user.FavoriteStocks[:0]
		for _, s := range m.user.FavoriteStocks {
			if s != symbol {
				kept = append(kept, s)
			}
		}
		m.user.FavoriteStocks = kept
	})
	return nil
}

// -----------------------------------------------------------------------------
// Locked helpers
// -----------------------------------------------------------------------------

func (m *Manager) clearLocked() {
	m.status = models.SessionUnauthenticated
	m.token = ""
	m.user = nil
}

var (
	_ interfaces.ISession       = (*Manager)(nil)
	_ interfaces.ITokenProvider = (*Manager)(nil)
)
