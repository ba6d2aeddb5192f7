package notify

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"sync/atomic"

	"weddinghub/internal/common"
)

type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateActive
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

// Manager owns the subscription lifecycle for one session. It is the only
// component with mutable session-wide state: a single run goroutine serializes
// credential changes, open results, and stream events, so at most one handle
// is ever open and store inserts happen in exact delivery order.
//
// It performs no reconnect on terminal stream errors; the error is surfaced
// through OnError and the manager returns to idle until the credential
// changes again.
type Manager struct {
	resolver common.IdentityResolver
	opener   common.StreamOpener
	store    *Store

	creds chan string
	stop  chan struct{}
	done  chan struct{}

	startOnce sync.Once
	stopOnce  sync.Once

	state atomic.Int32

	mu             sync.RWMutex
	onNotification []func(common.Notification)
	onError        []func(error)
}

func NewManager(resolver common.IdentityResolver, opener common.StreamOpener, store *Store) *Manager {
	if store == nil {
		store = NewStore()
	}
	return &Manager{
		resolver: resolver,
		opener:   opener,
		store:    store,
		creds:    make(chan string, 8),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (m *Manager) Store() *Store {
	return m.store
}

func (m *Manager) State() State {
	return State(m.state.Load())
}

// OnNotification registers a callback invoked for every accepted, newly seen
// notification. Callbacks run on the manager goroutine; keep them short.
func (m *Manager) OnNotification(fn func(common.Notification)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onNotification = append(m.onNotification, fn)
}

// OnError registers a callback for open failures and terminal stream errors.
func (m *Manager) OnError(fn func(error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onError = append(m.onError, fn)
}

func (m *Manager) Start() {
	m.startOnce.Do(func() {
		go m.run()
	})
}

// Stop tears down any open connection and ends the run goroutine. It blocks
// until teardown completes.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stop)
	})
	<-m.done
}

// SetCredential feeds a credential change into the manager. An empty or
// undecodable credential is a logout; a different identity replaces the
// current connection; the same identity is a no-op.
func (m *Manager) SetCredential(credential string) {
	select {
	case m.creds <- credential:
	case <-m.stop:
	}
}

type openResult struct {
	handle common.StreamHandle
	err    error
	gen    uint64
}

func (m *Manager) run() {
	defer close(m.done)

	var (
		current     *common.Identity
		handle      common.StreamHandle
		events      <-chan json.RawMessage
		term        <-chan error
		cancel      context.CancelFunc
		gen         uint64
		pendingOpen bool
	)
	opens := make(chan openResult, 1)

	// teardown fully releases the current connection (or aborts an in-flight
	// open) before the caller may start a new one. Old and new connections
	// must never overlap or notifications would be double-counted.
	teardown := func() {
		if cancel != nil {
			cancel()
			cancel = nil
		}
		if handle != nil {
			m.setState(StateClosing)
			handle.Close()
			<-term // reader has fully released the connection
			handle, events, term = nil, nil, nil
		}
		m.setState(StateIdle)
	}

	deliver := func(raw json.RawMessage) {
		n := Accepts(*current, raw)
		if n == nil {
			return
		}
		if m.store.Prepend(*n) {
			m.emitNotification(*n)
		}
	}

	// At most one open attempt is ever in flight. A superseded attempt is
	// canceled, but its result must still be drained (and any handle it
	// produced closed) before the next attempt starts, or two connections
	// could briefly overlap.
	startOpen := func() {
		m.setState(StateConnecting)
		ctx, c := context.WithCancel(context.Background())
		cancel = c
		pendingOpen = true
		go m.openStream(ctx, *current, gen, opens)
	}

	for {
		select {
		case cred := <-m.creds:
			next := m.resolver.Resolve(cred)
			if identityEqual(current, next) {
				continue
			}
			gen++ // stale-marks any in-flight open
			teardown()
			current = next
			if current != nil && !pendingOpen {
				startOpen()
			}

		case res := <-opens:
			pendingOpen = false
			if res.gen != gen {
				// result of an attempt that was already abandoned
				if res.handle != nil {
					res.handle.Close()
				}
				if current != nil && handle == nil {
					startOpen()
				}
				continue
			}
			if res.err != nil {
				log.Printf("notify: failed to open stream: %v", res.err)
				if cancel != nil {
					cancel()
					cancel = nil
				}
				m.setState(StateIdle)
				m.emitError(res.err)
				continue
			}
			handle = res.handle
			events = handle.Events()
			term = handle.Done()
			m.setState(StateActive)

		case raw, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			deliver(raw)

		case err := <-term:
			// stream closed itself; flush anything delivered before it died
			for flushed := false; !flushed; {
				select {
				case raw, ok := <-events:
					if !ok {
						flushed = true
						continue
					}
					deliver(raw)
				default:
					flushed = true
				}
			}
			if cancel != nil {
				cancel()
				cancel = nil
			}
			handle.Close()
			handle, events, term = nil, nil, nil
			m.setState(StateIdle)
			if err != nil {
				log.Printf("notify: stream terminated: %v", err)
				m.emitError(err)
			}

		case <-m.stop:
			gen++
			teardown()
			return
		}
	}
}

func (m *Manager) openStream(ctx context.Context, id common.Identity, gen uint64, opens chan<- openResult) {
	h, err := m.opener.Open(ctx, id)
	select {
	case opens <- openResult{handle: h, err: err, gen: gen}:
	case <-m.stop:
		// manager is gone; do not leak the connection
		if h != nil {
			h.Close()
		}
	}
}

func (m *Manager) setState(s State) {
	prev := State(m.state.Swap(int32(s)))
	if prev != s {
		log.Printf("notify: subscription %s -> %s", prev, s)
	}
}

func (m *Manager) emitNotification(n common.Notification) {
	m.mu.RLock()
	subs := make([]func(common.Notification), len(m.onNotification))
	copy(subs, m.onNotification)
	m.mu.RUnlock()

	for _, fn := range subs {
		fn(n)
	}
}

func (m *Manager) emitError(err error) {
	m.mu.RLock()
	subs := make([]func(error), len(m.onError))
	copy(subs, m.onError)
	m.mu.RUnlock()

	for _, fn := range subs {
		fn(err)
	}
}

func identityEqual(a, b *common.Identity) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.UserID == b.UserID && a.Role == b.Role
}
