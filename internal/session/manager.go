package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"opsconsole/internal/infra/storage"
)

const (
	DefaultIdleTimeout     = 15 * time.Minute
	DefaultWarningDuration = 60 * time.Second
)

var DefaultEvents = []string{
	"mousemove",
	"mousedown",
	"keydown",
	"keypress",
	"scroll",
	"touchstart",
	"click",
}

var (
	ErrAlreadyStarted = errors.New("idle manager already started")
	ErrNotStarted     = errors.New("idle manager not started")
	ErrNoStorage      = errors.New("idle manager requires a storage")
	ErrInvalidTimeout = errors.New("warning duration must be shorter than idle timeout")
)

type Config struct {
	IdleTimeout     time.Duration
	WarningDuration time.Duration
	Events          []string
}

func DefaultConfig() Config {
	return Config{
		IdleTimeout:     DefaultIdleTimeout,
		WarningDuration: DefaultWarningDuration,
		Events:          DefaultEvents,
	}
}

// Manager tracks user activity and fires a warning and then a logout after a
// period of inactivity. Activity is shared with other instances through the
// last_activity_time storage key.
type Manager struct {
	mu        sync.Mutex
	clock     Clock
	store     storage.Storage
	cfg       Config
	onWarning func(remaining time.Duration)
	onLogout  func()

	running    bool
	generation uint64
	last       time.Time
	warning    Timer
	logout     Timer
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

func NewManagerBuilder() *managerBuilder {
	return &managerBuilder{}
}

type managerBuilder struct {
	actions []managerHandler
}

type managerHandler func(m *Manager) error

func (b *managerBuilder) WithClock(clock Clock) *managerBuilder {
	b.actions = append(b.actions, func(m *Manager) error {
		m.clock = clock
		return nil
	})
	return b
}

func (b *managerBuilder) WithStorage(store storage.Storage) *managerBuilder {
	b.actions = append(b.actions, func(m *Manager) error {
		m.store = store
		return nil
	})
	return b
}

func (b *managerBuilder) WithConfig(cfg Config) *managerBuilder {
	b.actions = append(b.actions, func(m *Manager) error {
		if cfg.IdleTimeout <= 0 {
			cfg.IdleTimeout = DefaultIdleTimeout
		}
		if cfg.WarningDuration <= 0 {
			cfg.WarningDuration = DefaultWarningDuration
		}
		if cfg.WarningDuration >= cfg.IdleTimeout {
			return ErrInvalidTimeout
		}
		if len(cfg.Events) == 0 {
			cfg.Events = DefaultEvents
		}
		m.cfg = cfg
		return nil
	})
	return b
}

// WithOnWarning registers the callback that opens the countdown. It receives
// the time left before logout.
func (b *managerBuilder) WithOnWarning(fn func(remaining time.Duration)) *managerBuilder {
	b.actions = append(b.actions, func(m *Manager) error {
		m.onWarning = fn
		return nil
	})
	return b
}

func (b *managerBuilder) WithOnLogout(fn func()) *managerBuilder {
	b.actions = append(b.actions, func(m *Manager) error {
		m.onLogout = fn
		return nil
	})
	return b
}

func (b *managerBuilder) Build() (*Manager, error) {
	result := &Manager{
		clock: SystemClock{},
		cfg:   DefaultConfig(),
	}
	for _, action := range b.actions {
		if err := action(result); err != nil {
			return nil, err
		}
	}
	if result.store == nil {
		return nil, ErrNoStorage
	}
	return result, nil
}

func (m *Manager) Config() Config {
	return m.cfg
}

// Start schedules the timers from the last activity recorded in storage, or
// records a fresh one, and begins following activity from other instances.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.mu.Unlock()

	changes, err := m.store.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watching storage: %w", err)
	}

	last, found, err := m.storedActivity(ctx)
	if err != nil {
		slog.Warn("reading last activity", slog.String("error", err.Error()))
	}

	now := m.clock.Now()
	if !found || last.After(now) {
		last = now
		if err := m.writeActivity(ctx, last); err != nil {
			slog.Warn("recording activity", slog.String("error", err.Error()))
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return ErrAlreadyStarted
	}
	m.ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.running = true
	m.scheduleLocked(last)

	go m.follow(m.ctx, changes, m.done)
	return nil
}

// Stop detaches from storage and clears both timers.
func (m *Manager) Stop() {
	m.mu.Lock()
	done := m.stopLocked()
	m.mu.Unlock()

	if done != nil {
		<-done
	}
}

func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// LastActivity is the activity time the timers are currently measured from.
func (m *Manager) LastActivity() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}

func (m *Manager) IsActivityEvent(event string) bool {
	return slices.Contains(m.cfg.Events, event)
}

// Activity reports a UI event. Qualifying events restart both timers and are
// recorded in storage. It returns whether the event was counted.
func (m *Manager) Activity(ctx context.Context, event string) bool {
	if !m.IsActivityEvent(event) {
		return false
	}
	return m.touch(ctx) == nil
}

// StayLoggedIn cancels a pending logout and restarts the idle cycle.
func (m *Manager) StayLoggedIn(ctx context.Context) error {
	return m.touch(ctx)
}

func (m *Manager) touch(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return ErrNotStarted
	}
	now := m.clock.Now()
	m.scheduleLocked(now)
	m.mu.Unlock()

	if err := m.writeActivity(ctx, now); err != nil {
		slog.Warn("recording activity", slog.String("error", err.Error()))
	}
	return nil
}

func (m *Manager) follow(ctx context.Context, changes <-chan storage.Change, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			if change.Key != storage.KeyLastActivityTime || change.Removed {
				continue
			}
			last, err := decodeActivity(change.Value)
			if err != nil {
				slog.Warn("decoding last activity", slog.String("error", err.Error()))
				continue
			}
			m.resync(last)
		}
	}
}

// resync moves the timers forward when another instance saw newer activity.
func (m *Manager) resync(last time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.running || !last.After(m.last) {
		return
	}
	m.scheduleLocked(last)
}

func (m *Manager) scheduleLocked(last time.Time) {
	m.clearTimersLocked()
	m.generation++
	m.last = last

	gen := m.generation
	elapsed := m.clock.Now().Sub(last)
	warnIn := max(m.cfg.IdleTimeout-m.cfg.WarningDuration-elapsed, 0)
	logoutIn := max(m.cfg.IdleTimeout-elapsed, 0)

	if logoutIn > 0 {
		m.warning = m.clock.AfterFunc(warnIn, func() { m.fireWarning(gen) })
	}
	m.logout = m.clock.AfterFunc(logoutIn, func() { m.fireLogout(gen) })
}

func (m *Manager) clearTimersLocked() {
	if m.warning != nil {
		m.warning.Stop()
		m.warning = nil
	}
	if m.logout != nil {
		m.logout.Stop()
		m.logout = nil
	}
}

func (m *Manager) fireWarning(gen uint64) {
	m.mu.Lock()
	if !m.running || gen != m.generation {
		m.mu.Unlock()
		return
	}
	m.warning = nil
	remaining := m.last.Add(m.cfg.IdleTimeout).Sub(m.clock.Now())
	fn := m.onWarning
	m.mu.Unlock()

	slog.Debug("idle warning", slog.Duration("remaining", remaining))
	if fn != nil {
		fn(remaining)
	}
}

func (m *Manager) fireLogout(gen uint64) {
	m.mu.Lock()
	if !m.running || gen != m.generation {
		m.mu.Unlock()
		return
	}
	ctx := context.WithoutCancel(m.ctx)
	m.stopLocked()
	fn := m.onLogout
	m.mu.Unlock()

	slog.Info("idle timeout reached, logging out")
	if err := ClearCredentials(ctx, m.store); err != nil {
		slog.Error("clearing credentials", slog.String("error", err.Error()))
	}
	if fn != nil {
		fn()
	}
}

// stopLocked returns the channel closed once the storage follower exits.
func (m *Manager) stopLocked() chan struct{} {
	if !m.running {
		return nil
	}
	m.running = false
	m.generation++
	m.clearTimersLocked()
	m.cancel()
	return m.done
}

func (m *Manager) storedActivity(ctx context.Context) (time.Time, bool, error) {
	millis, found, err := storage.GetJSON[int64](ctx, m.store, storage.KeyLastActivityTime)
	if err != nil || !found {
		return time.Time{}, false, err
	}
	return time.UnixMilli(millis), true, nil
}

func (m *Manager) writeActivity(ctx context.Context, at time.Time) error {
	return storage.SetJSON(ctx, m.store, storage.KeyLastActivityTime, at.UnixMilli())
}

func decodeActivity(raw string) (time.Time, error) {
	var millis int64
	if err := json.Unmarshal([]byte(raw), &millis); err != nil {
		return time.Time{}, fmt.Errorf("parsing %q: %w", raw, err)
	}
	return time.UnixMilli(millis), nil
}

// ClearCredentials removes the persisted tokens and activity marker.
func ClearCredentials(ctx context.Context, store storage.Storage) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return storage.RemoveAll(ctx, store,
		storage.KeyAccessToken,
		storage.KeyRefreshToken,
		storage.KeyLastActivityTime,
	)
}
