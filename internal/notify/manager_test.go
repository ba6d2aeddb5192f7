package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"weddinghub/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHandle implements common.StreamHandle for lifecycle tests.
type fakeHandle struct {
	events     chan json.RawMessage
	done       chan error
	closeCalls atomic.Int32
	once       sync.Once
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{
		events: make(chan json.RawMessage, 16),
		done:   make(chan error, 1),
	}
}

func (h *fakeHandle) Events() <-chan json.RawMessage { return h.events }
func (h *fakeHandle) Done() <-chan error             { return h.done }

func (h *fakeHandle) Close() {
	h.closeCalls.Add(1)
	h.once.Do(func() {
		h.done <- nil
		close(h.done)
	})
}

func (h *fakeHandle) fail(err error) {
	h.once.Do(func() {
		h.done <- err
		close(h.done)
	})
}

func (h *fakeHandle) push(t *testing.T, n common.Notification) {
	t.Helper()
	raw, err := json.Marshal(n)
	require.NoError(t, err)
	h.events <- json.RawMessage(raw)
}

func (h *fakeHandle) closed() bool {
	return h.closeCalls.Load() > 0
}

// fakeOpener records every open and flags any attempt to open while a
// previous handle is still live.
type fakeOpener struct {
	mu      sync.Mutex
	handles []*fakeHandle
	openErr error
	overlap bool
}

func (o *fakeOpener) Open(ctx context.Context, id common.Identity) (common.StreamHandle, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.openErr != nil {
		return nil, o.openErr
	}
	for _, h := range o.handles {
		if !h.closed() {
			o.overlap = true
		}
	}
	h := newFakeHandle()
	o.handles = append(o.handles, h)
	return h, nil
}

func (o *fakeOpener) openCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.handles)
}

func (o *fakeOpener) handle(i int) *fakeHandle {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.handles[i]
}

func (o *fakeOpener) sawOverlap() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.overlap
}

type stubResolver struct {
	identities map[string]*common.Identity
}

func (r stubResolver) Resolve(credential string) *common.Identity {
	return r.identities[credential]
}

func testResolver() stubResolver {
	return stubResolver{identities: map[string]*common.Identity{
		"alice-token": {UserID: 42, Role: common.RoleCustomer},
		"bob-token":   {UserID: 7, Role: common.RoleOwner},
	}}
}

const eventually = 2 * time.Second
const tick = 5 * time.Millisecond

func TestManager_OpensStreamOnLogin(t *testing.T) {
	opener := &fakeOpener{}
	m := NewManager(testResolver(), opener, nil)
	m.Start()
	defer m.Stop()

	assert.Equal(t, StateIdle, m.State())

	m.SetCredential("alice-token")

	assert.Eventually(t, func() bool { return m.State() == StateActive }, eventually, tick)
	assert.Equal(t, 1, opener.openCount())
}

func TestManager_InvalidCredentialStaysIdle(t *testing.T) {
	opener := &fakeOpener{}
	m := NewManager(testResolver(), opener, nil)
	m.Start()
	defer m.Stop()

	m.SetCredential("garbage")

	// no identity, no connection; this is not an error condition
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, StateIdle, m.State())
	assert.Equal(t, 0, opener.openCount())
}

func TestManager_DeliversAcceptedEventsInOrder(t *testing.T) {
	opener := &fakeOpener{}
	m := NewManager(testResolver(), opener, nil)

	var mu sync.Mutex
	var received []uint64
	m.OnNotification(func(n common.Notification) {
		mu.Lock()
		received = append(received, n.ID)
		mu.Unlock()
	})

	m.Start()
	defer m.Stop()
	m.SetCredential("alice-token")
	require.Eventually(t, func() bool { return m.State() == StateActive }, eventually, tick)

	h := opener.handle(0)
	h.push(t, common.Notification{ID: 1, RecipientID: 42, RecipientRole: common.RoleCustomer})
	h.push(t, common.Notification{ID: 2, RecipientID: 99, RecipientRole: common.RoleCustomer}) // not ours
	h.push(t, common.Notification{ID: 3, RecipientID: 42, RecipientRole: common.RoleCustomer})
	h.push(t, common.Notification{ID: 1, RecipientID: 42, RecipientRole: common.RoleCustomer}) // redelivery

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 2
	}, eventually, tick)

	mu.Lock()
	assert.Equal(t, []uint64{1, 3}, received)
	mu.Unlock()

	live := m.Store().Live()
	require.Len(t, live, 2)
	assert.Equal(t, uint64(3), live[0].ID)
	assert.Equal(t, uint64(1), live[1].ID)
}

func TestManager_LogoutClosesStream(t *testing.T) {
	opener := &fakeOpener{}
	m := NewManager(testResolver(), opener, nil)
	m.Start()
	defer m.Stop()

	m.SetCredential("alice-token")
	require.Eventually(t, func() bool { return m.State() == StateActive }, eventually, tick)

	m.SetCredential("")

	assert.Eventually(t, func() bool { return m.State() == StateIdle }, eventually, tick)
	assert.True(t, opener.handle(0).closed())
	assert.Equal(t, 1, opener.openCount(), "logout must not reconnect")
}

func TestManager_IdentityChangeIsSingleFlight(t *testing.T) {
	opener := &fakeOpener{}
	m := NewManager(testResolver(), opener, nil)
	m.Start()
	defer m.Stop()

	m.SetCredential("alice-token")
	require.Eventually(t, func() bool { return m.State() == StateActive }, eventually, tick)

	m.SetCredential("bob-token")
	require.Eventually(t, func() bool {
		return opener.openCount() == 2 && m.State() == StateActive
	}, eventually, tick)

	assert.True(t, opener.handle(0).closed())
	assert.False(t, opener.sawOverlap(), "old stream must be fully closed before the new one opens")
}

func TestManager_SameIdentityIsNoop(t *testing.T) {
	opener := &fakeOpener{}
	m := NewManager(testResolver(), opener, nil)
	m.Start()
	defer m.Stop()

	m.SetCredential("alice-token")
	require.Eventually(t, func() bool { return m.State() == StateActive }, eventually, tick)

	// token refresh resolving to the same identity keeps the connection
	m.SetCredential("alice-token")
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, StateActive, m.State())
	assert.Equal(t, 1, opener.openCount())
	assert.False(t, opener.handle(0).closed())
}

func TestManager_TerminalErrorGoesIdleWithoutRetry(t *testing.T) {
	opener := &fakeOpener{}
	m := NewManager(testResolver(), opener, nil)

	errCh := make(chan error, 1)
	m.OnError(func(err error) { errCh <- err })

	m.Start()
	defer m.Stop()
	m.SetCredential("alice-token")
	require.Eventually(t, func() bool { return m.State() == StateActive }, eventually, tick)

	transportErr := errors.New("connection reset")
	opener.handle(0).fail(transportErr)

	select {
	case err := <-errCh:
		assert.Equal(t, transportErr, err)
	case <-time.After(eventually):
		t.Fatal("terminal error was never surfaced")
	}

	assert.Eventually(t, func() bool { return m.State() == StateIdle }, eventually, tick)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, opener.openCount(), "no automatic reconnect")
}

func TestManager_EventsBeforeTerminalAreNotLost(t *testing.T) {
	opener := &fakeOpener{}
	m := NewManager(testResolver(), opener, nil)
	m.Start()
	defer m.Stop()

	m.SetCredential("alice-token")
	require.Eventually(t, func() bool { return m.State() == StateActive }, eventually, tick)

	h := opener.handle(0)
	h.push(t, common.Notification{ID: 1, RecipientID: 42, RecipientRole: common.RoleCustomer})
	h.fail(errors.New("dropped"))

	assert.Eventually(t, func() bool {
		return len(m.Store().Live()) == 1
	}, eventually, tick)
}

func TestManager_OpenFailureSurfacesError(t *testing.T) {
	openErr := errors.New("dial refused")
	opener := &fakeOpener{openErr: openErr}
	m := NewManager(testResolver(), opener, nil)

	errCh := make(chan error, 1)
	m.OnError(func(err error) { errCh <- err })

	m.Start()
	defer m.Stop()
	m.SetCredential("alice-token")

	select {
	case err := <-errCh:
		assert.Equal(t, openErr, err)
	case <-time.After(eventually):
		t.Fatal("open failure was never surfaced")
	}
	assert.Eventually(t, func() bool { return m.State() == StateIdle }, eventually, tick)
}

func TestManager_StopTearsDown(t *testing.T) {
	opener := &fakeOpener{}
	m := NewManager(testResolver(), opener, nil)
	m.Start()

	m.SetCredential("alice-token")
	require.Eventually(t, func() bool { return m.State() == StateActive }, eventually, tick)

	m.Stop()
	assert.True(t, opener.handle(0).closed())

	// stopping twice must not panic or hang
	m.Stop()
}

func TestManager_RapidIdentityChurn(t *testing.T) {
	opener := &fakeOpener{}
	m := NewManager(testResolver(), opener, nil)
	m.Start()
	defer m.Stop()

	for i := 0; i < 5; i++ {
		m.SetCredential("alice-token")
		m.SetCredential("bob-token")
		m.SetCredential("")
	}
	m.SetCredential("alice-token")

	require.Eventually(t, func() bool { return m.State() == StateActive }, eventually, tick)
	assert.False(t, opener.sawOverlap(), "no two streams may ever be live at once")
}
